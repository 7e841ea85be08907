package questions

import (
	"context"
	"fmt"
	"log"

	"github.com/spf-coach/studycoach/internal/grading"
	"github.com/spf-coach/studycoach/internal/models"
	"github.com/spf-coach/studycoach/internal/progress"
	"github.com/spf-coach/studycoach/internal/selector"
	"github.com/spf-coach/studycoach/internal/sessions"
)

type Config struct {
	BatchSize       int
	SelectorWeak    float64
	SAQPassMark     float64
	MaxDrillRequest int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = selector.DefaultBatchSize
	}
	if c.SelectorWeak <= 0 {
		c.SelectorWeak = selector.DefaultWeakBelow
	}
	if c.SAQPassMark <= 0 {
		c.SAQPassMark = 0.5
	}
	if c.MaxDrillRequest <= 0 {
		c.MaxDrillRequest = 50
	}
	return c
}

type Service struct {
	bank     *Bank
	ledger   *progress.Ledger
	sessions *sessions.Service
	cfg      Config

	// newSelector builds a selector per call; a *rand.Rand must not be
	// shared between concurrent requests.
	newSelector func() *selector.Selector
}

func NewService(bank *Bank, ledger *progress.Ledger, sess *sessions.Service, cfg Config) *Service {
	cfg = cfg.withDefaults()
	log.Printf("[questions] batch=%d selectorWeak=%.2f saqPass=%.2f", cfg.BatchSize, cfg.SelectorWeak, cfg.SAQPassMark)
	return &Service{
		bank:     bank,
		ledger:   ledger,
		sessions: sess,
		cfg:      cfg,
		newSelector: func() *selector.Selector {
			return selector.NewUnseeded().WithWeakThreshold(cfg.SelectorWeak)
		},
	}
}

// WithSelector overrides how selectors are built.
func (s *Service) WithSelector(fn func() *selector.Selector) *Service {
	s.newSelector = fn
	return s
}

// ── MCQ Drill ───────────────────────────────────────────

func (s *Service) MCQDrill(ctx context.Context, userID string, count int) (*models.DrillResponse, error) {
	if count <= 0 {
		count = s.cfg.BatchSize
	}
	if count > s.cfg.MaxDrillRequest {
		count = s.cfg.MaxDrillRequest
	}

	snap, err := s.ledger.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	batch := s.newSelector().SelectBatch(snap, s.bank.MCQItems(), count)

	questions := make([]models.DrillQuestion, 0, len(batch))
	for _, it := range batch {
		dq := it.MCQ.ToDrillQuestion()
		if rec, ok := snap.Record(it.Key()); ok {
			dq.Box = rec.Box
		}
		questions = append(questions, dq)
	}

	resp := &models.DrillResponse{Questions: questions, Total: len(questions)}
	if s.sessions != nil && len(questions) > 0 {
		sess, err := s.sessions.Start(ctx, userID, models.ModeMCQ)
		if err != nil {
			log.Printf("[drill] WARN: could not start session for %s: %v", userID, err)
		} else {
			resp.SessionID = sess.ID
		}
	}

	log.Printf("[drill] user=%s served %d/%d mcq (weak records=%d)", userID, len(questions), count, len(snap.Records))
	return resp, nil
}

func (s *Service) SubmitMCQ(ctx context.Context, userID string, req models.SubmitMCQRequest) (*models.SubmitMCQResponse, error) {
	q, ok := s.bank.MCQ(req.QuestionID)
	if !ok {
		return nil, fmt.Errorf("%w: mcq %d", models.ErrNotFound, req.QuestionID)
	}
	if req.SelectedAnswer == nil {
		return nil, fmt.Errorf("%w: selected_answer is required", models.ErrInvalidInput)
	}

	correct, correctIdx, err := grading.GradeMCQ(*q, *req.SelectedAnswer)
	if err != nil {
		return nil, err
	}

	rec, err := s.ledger.RecordAttempt(ctx, userID, models.KindMCQ, q.ID, correct)
	if err != nil {
		return nil, err
	}

	return &models.SubmitMCQResponse{
		Correct:       correct,
		CorrectAnswer: correctIdx,
		Explanation:   q.Explanation,
		Box:           rec.Box,
	}, nil
}

// ── SAQ Practice ────────────────────────────────────────

// SAQPractice picks one scenario, preferring ones the user is weak on or has
// not seen.
func (s *Service) SAQPractice(ctx context.Context, userID string) (*models.SAQPracticeResponse, error) {
	items := s.bank.SAQItems()
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no saq scenarios loaded", models.ErrNotFound)
	}

	snap, err := s.ledger.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	batch := s.newSelector().SelectBatch(snap, items, 1)
	return &models.SAQPracticeResponse{SAQ: batch[0].SAQ}, nil
}

// GradeSAQ grades an answer against the scenario's own keywords and records
// the attempt. Scores at or above the pass mark count as correct.
func (s *Service) GradeSAQ(ctx context.Context, userID string, saqID int64, answer string) (*models.GradeSAQResponse, error) {
	q, ok := s.bank.SAQ(saqID)
	if !ok {
		return nil, fmt.Errorf("%w: saq %d", models.ErrNotFound, saqID)
	}

	res, err := grading.GradeSAQ(answer, q.Keywords)
	if err != nil {
		return nil, err
	}

	rec, err := s.ledger.RecordAttempt(ctx, userID, models.KindSAQ, q.ID, res.Score >= s.cfg.SAQPassMark)
	if err != nil {
		return nil, err
	}

	return &models.GradeSAQResponse{
		Score:           res.Score,
		MatchedKeywords: res.Matched,
		MissingKeywords: res.Missing,
		Feedback:        res.Feedback,
		ModelOutline:    q.ModelOutline,
		Box:             rec.Box,
	}, nil
}

// GradeKeywords grades against caller-supplied keywords without touching
// progress.
func (s *Service) GradeKeywords(answer string, keywords []string) (*models.GradeSAQResponse, error) {
	res, err := grading.GradeSAQ(answer, keywords)
	if err != nil {
		return nil, err
	}
	return &models.GradeSAQResponse{
		Score:           res.Score,
		MatchedKeywords: res.Matched,
		MissingKeywords: res.Missing,
		Feedback:        res.Feedback,
	}, nil
}

// ── Cheats ──────────────────────────────────────────────

func (s *Service) Cheats(topic string) *models.CheatsResponse {
	if topic == "" {
		topic = "all"
	}
	return &models.CheatsResponse{
		Flashcards:   s.bank.Flashcards(topic),
		Topics:       s.bank.TopicNames(),
		CurrentTopic: topic,
	}
}

func (s *Service) Topics() []models.Topic {
	topics := s.bank.Topics()
	if topics == nil {
		return []models.Topic{}
	}
	return topics
}
