package sessions

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

type Service struct {
	store *Store
	now   func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Start(ctx context.Context, userID string, mode models.SessionMode) (*models.StudySession, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", models.ErrInvalidInput)
	}
	if mode != models.ModeMCQ && mode != models.ModeSAQ {
		return nil, fmt.Errorf("%w: unknown session mode %q", models.ErrInvalidInput, mode)
	}
	return s.store.Create(ctx, userID, mode, s.now())
}

// Complete stores the drill score on an open session and reports the
// user's streak after it.
func (s *Service) Complete(ctx context.Context, userID string, sessionID int64, req models.CompleteSessionRequest) (*models.CompleteSessionResponse, error) {
	if len(req.QuestionIDs) == 0 {
		return nil, fmt.Errorf("%w: question_ids is required", models.ErrInvalidInput)
	}

	score := ScoreSession(req)
	ok, err := s.store.Complete(ctx, userID, sessionID, s.now(), score)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Distinguish a missing session from one already closed.
		if _, err := s.store.Get(ctx, userID, sessionID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: session %d already completed", models.ErrInvalidInput, sessionID)
	}

	sess, err := s.store.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	current, longest, err := s.streaks(ctx, userID)
	if err != nil {
		log.Printf("[sessions] WARN: streak lookup for %s failed: %v", userID, err)
	}

	log.Printf("[sessions] user=%s session=%d completed %d/%d", userID, sessionID, score.Correct, score.Total)
	return &models.CompleteSessionResponse{
		Session:       *sess,
		CurrentStreak: current,
		LongestStreak: longest,
		Milestone:     IsMilestone(current),
	}, nil
}

func (s *Service) Recent(ctx context.Context, userID string, limit int) ([]models.StudySession, error) {
	if limit <= 0 {
		limit = 10
	}
	recent, err := s.store.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []models.StudySession{}
	}
	return recent, nil
}

func (s *Service) Summary(ctx context.Context, userID string, limit int) (*models.SessionSummary, error) {
	recent, err := s.Recent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	starts, err := s.store.CompletedStarts(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, longest := ComputeStreaks(starts, s.now())
	return &models.SessionSummary{
		CurrentStreak:  current,
		LongestStreak:  longest,
		CompletedTotal: len(starts),
		Recent:         recent,
	}, nil
}

func (s *Service) streaks(ctx context.Context, userID string) (int, int, error) {
	starts, err := s.store.CompletedStarts(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	current, longest := ComputeStreaks(starts, s.now())
	return current, longest, nil
}
