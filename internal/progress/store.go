package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const recordColumns = `user_id, item_kind, item_id, correct_count, wrong_count, box, last_seen_at`

// ── Writes ──────────────────────────────────────────────

// RecordAttempt applies one attempt as a single upsert. Both counts are
// incremented by the database, so concurrent attempts on the same key are
// never lost; box and last_seen_at are last-writer-wins.
func (s *Store) RecordAttempt(ctx context.Context, userID string, kind models.ItemKind, itemID int64, correct bool, now time.Time) (*models.ProgressRecord, error) {
	correctInc, wrongInc := 0, 1
	if correct {
		correctInc, wrongInc = 1, 0
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO progress (user_id, item_kind, item_id, correct_count, wrong_count, box, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5, 1, $6)
		 ON CONFLICT (user_id, item_kind, item_id) DO UPDATE SET
		     correct_count = progress.correct_count + excluded.correct_count,
		     wrong_count = progress.wrong_count + excluded.wrong_count,
		     box = CASE
		         WHEN excluded.correct_count > 0 THEN
		             CASE WHEN progress.box >= 5 THEN 5 ELSE progress.box + 1 END
		         ELSE
		             CASE WHEN progress.box <= 1 THEN 1 ELSE progress.box - 1 END
		     END,
		     last_seen_at = excluded.last_seen_at
		 RETURNING `+recordColumns,
		userID, string(kind), itemID, correctInc, wrongInc, now.UnixMilli(),
	)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w: %w", models.ErrStorageUnavailable, err)
	}
	return rec, nil
}

// ── Reads ───────────────────────────────────────────────

func (s *Store) Get(ctx context.Context, userID string, kind models.ItemKind, itemID int64) (*models.ProgressRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM progress
		 WHERE user_id = $1 AND item_kind = $2 AND item_id = $3`,
		userID, string(kind), itemID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w: %w", models.ErrStorageUnavailable, err)
	}
	return rec, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.ProgressRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM progress WHERE user_id = $1 ORDER BY item_kind, item_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var records []models.ProgressRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w: %w", models.ErrStorageUnavailable, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list progress: %w: %w", models.ErrStorageUnavailable, err)
	}
	return records, nil
}

// WeakTopics averages per-item accuracy over attempted MCQ items per topic.
// Unattempted items never reach the average, so topics without attempts
// cannot appear.
func (s *Store) WeakTopics(ctx context.Context, userID string, threshold float64) ([]models.WeakTopic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.name,
		        AVG(CAST(p.correct_count AS DOUBLE PRECISION) / (p.correct_count + p.wrong_count)) AS accuracy,
		        SUM(p.correct_count + p.wrong_count) AS attempts
		 FROM progress p
		 JOIN mcq m ON p.item_kind = 'mcq' AND m.id = p.item_id
		 JOIN topics t ON t.id = m.topic_id
		 WHERE p.user_id = $1 AND p.correct_count + p.wrong_count > 0
		 GROUP BY t.id, t.name
		 HAVING AVG(CAST(p.correct_count AS DOUBLE PRECISION) / (p.correct_count + p.wrong_count)) < $2
		 ORDER BY accuracy ASC, t.name ASC`,
		userID, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("weak topics: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var topics []models.WeakTopic
	for rows.Next() {
		var wt models.WeakTopic
		if err := rows.Scan(&wt.Topic, &wt.Accuracy, &wt.Attempts); err != nil {
			return nil, fmt.Errorf("scan weak topic: %w: %w", models.ErrStorageUnavailable, err)
		}
		topics = append(topics, wt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("weak topics: %w: %w", models.ErrStorageUnavailable, err)
	}
	return topics, nil
}

// WeakItems lists attempted MCQ and SAQ items below threshold, worst first.
func (s *Store) WeakItems(ctx context.Context, userID string, threshold float64) ([]models.WeakItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.item_kind, p.item_id,
		        COALESCE(m.stem, sq.prompt, '') AS content,
		        COALESCE(tm.name, ts.name, '') AS topic_name,
		        p.correct_count, p.wrong_count, p.box, p.last_seen_at
		 FROM progress p
		 LEFT JOIN mcq m ON p.item_kind = 'mcq' AND m.id = p.item_id
		 LEFT JOIN topics tm ON tm.id = m.topic_id
		 LEFT JOIN saq sq ON p.item_kind = 'saq' AND sq.id = p.item_id
		 LEFT JOIN topics ts ON ts.id = sq.topic_id
		 WHERE p.user_id = $1
		   AND p.correct_count + p.wrong_count > 0
		   AND CAST(p.correct_count AS DOUBLE PRECISION) / (p.correct_count + p.wrong_count) < $2
		 ORDER BY CAST(p.correct_count AS DOUBLE PRECISION) / (p.correct_count + p.wrong_count) ASC,
		          p.last_seen_at DESC`,
		userID, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("weak items: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var items []models.WeakItem
	for rows.Next() {
		var (
			wi       models.WeakItem
			kind     string
			lastSeen int64
		)
		if err := rows.Scan(&kind, &wi.ItemID, &wi.Content, &wi.TopicName,
			&wi.CorrectCount, &wi.WrongCount, &wi.Box, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan weak item: %w: %w", models.ErrStorageUnavailable, err)
		}
		wi.Kind = models.ItemKind(kind)
		wi.LastSeenAt = time.UnixMilli(lastSeen).UTC()
		wi.Accuracy = float64(wi.CorrectCount) / float64(wi.CorrectCount+wi.WrongCount)
		items = append(items, wi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("weak items: %w: %w", models.ErrStorageUnavailable, err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.ProgressRecord, error) {
	var (
		rec      models.ProgressRecord
		kind     string
		lastSeen int64
	)
	if err := row.Scan(&rec.UserID, &kind, &rec.ItemID, &rec.CorrectCount,
		&rec.WrongCount, &rec.Box, &lastSeen); err != nil {
		return nil, err
	}
	rec.Kind = models.ItemKind(kind)
	rec.LastSeenAt = time.UnixMilli(lastSeen).UTC()
	return &rec, nil
}
