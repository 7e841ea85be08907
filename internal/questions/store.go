package questions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/spf-coach/studycoach/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// ── Topics ──────────────────────────────────────────────

func (s *Store) ListTopics(ctx context.Context) ([]models.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM topics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var topics []models.Topic
	for rows.Next() {
		var t models.Topic
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// ── Items ───────────────────────────────────────────────

func (s *Store) ListMCQ(ctx context.Context) ([]models.MCQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.stem, m.choices_json, m.answer_idx, m.explanation,
		        m.topic_id, t.name, m.source_ref
		 FROM mcq m JOIN topics t ON t.id = m.topic_id
		 ORDER BY m.id`)
	if err != nil {
		return nil, fmt.Errorf("list mcq: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.MCQ
	for rows.Next() {
		var (
			q       models.MCQ
			choices string
		)
		if err := rows.Scan(&q.ID, &q.Stem, &choices, &q.AnswerIdx, &q.Explanation,
			&q.TopicID, &q.TopicName, &q.SourceRef); err != nil {
			return nil, fmt.Errorf("scan mcq: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return nil, fmt.Errorf("decode choices for mcq %d: %w", q.ID, err)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("mcq %d: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) ListSAQ(ctx context.Context) ([]models.SAQ, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.prompt, q.model_outline, q.keywords_json, q.statute_refs_json,
		        q.topic_id, t.name, q.source_ref
		 FROM saq q JOIN topics t ON t.id = q.topic_id
		 ORDER BY q.id`)
	if err != nil {
		return nil, fmt.Errorf("list saq: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.SAQ
	for rows.Next() {
		var (
			q        models.SAQ
			keywords string
			refs     string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &q.ModelOutline, &keywords, &refs,
			&q.TopicID, &q.TopicName, &q.SourceRef); err != nil {
			return nil, fmt.Errorf("scan saq: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &q.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords for saq %d: %w", q.ID, err)
		}
		if err := json.Unmarshal([]byte(refs), &q.StatuteRefs); err != nil {
			return nil, fmt.Errorf("decode statute refs for saq %d: %w", q.ID, err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) ListFlashcards(ctx context.Context) ([]models.Flashcard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.front, f.back, f.topic_id, t.name, f.source_ref
		 FROM flashcards f JOIN topics t ON t.id = f.topic_id
		 ORDER BY t.name, f.id`)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.Flashcard
	for rows.Next() {
		var f models.Flashcard
		if err := rows.Scan(&f.ID, &f.Front, &f.Back, &f.TopicID, &f.TopicName, &f.SourceRef); err != nil {
			return nil, fmt.Errorf("scan flashcard: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
