package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
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

const sessionColumns = `id, user_id, mode, started_at, ended_at, score_json`

func (s *Store) Create(ctx context.Context, userID string, mode models.SessionMode, startedAt time.Time) (*models.StudySession, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO sessions (user_id, mode, started_at) VALUES ($1, $2, $3)
		 RETURNING `+sessionColumns,
		userID, string(mode), startedAt.UnixMilli(),
	)
	sess, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w: %w", models.ErrStorageUnavailable, err)
	}
	return sess, nil
}

func (s *Store) Get(ctx context.Context, userID string, id int64) (*models.StudySession, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %d", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w: %w", models.ErrStorageUnavailable, err)
	}
	return sess, nil
}

// Complete closes an open session. It reports false when no open session
// with that id belongs to the user.
func (s *Store) Complete(ctx context.Context, userID string, id int64, endedAt time.Time, score models.SessionScore) (bool, error) {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return false, fmt.Errorf("marshal score: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = $1, score_json = $2
		 WHERE id = $3 AND user_id = $4 AND ended_at IS NULL`,
		endedAt.UnixMilli(), string(scoreJSON), id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("complete session: %w: %w", models.ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete session: %w: %w", models.ErrStorageUnavailable, err)
	}
	return n > 0, nil
}

func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]models.StudySession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []models.StudySession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w: %w", models.ErrStorageUnavailable, err)
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w: %w", models.ErrStorageUnavailable, err)
	}
	return out, nil
}

// CompletedStarts returns the start time of every completed session.
func (s *Store) CompletedStarts(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT started_at FROM sessions WHERE user_id = $1 AND ended_at IS NOT NULL`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("completed sessions: %w: %w", models.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scan session: %w: %w", models.ErrStorageUnavailable, err)
		}
		out = append(out, time.UnixMilli(ms).UTC())
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.StudySession, error) {
	var (
		sess      models.StudySession
		mode      string
		startedAt int64
		endedAt   sql.NullInt64
		scoreJSON sql.NullString
	)
	if err := row.Scan(&sess.ID, &sess.UserID, &mode, &startedAt, &endedAt, &scoreJSON); err != nil {
		return nil, err
	}
	sess.Mode = models.SessionMode(mode)
	sess.StartedAt = time.UnixMilli(startedAt).UTC()
	if endedAt.Valid {
		t := time.UnixMilli(endedAt.Int64).UTC()
		sess.EndedAt = &t
	}
	if scoreJSON.Valid && scoreJSON.String != "" {
		var score models.SessionScore
		if err := json.Unmarshal([]byte(scoreJSON.String), &score); err != nil {
			return nil, fmt.Errorf("decode score_json: %w", err)
		}
		sess.Score = &score
	}
	return &sess, nil
}
