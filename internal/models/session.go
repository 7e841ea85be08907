package models

import "time"

type SessionMode string

const (
	ModeMCQ SessionMode = "mcq"
	ModeSAQ SessionMode = "saq"
)

// ── Core Session Structs ─────────────────────────────────

type StudySession struct {
	ID        int64         `json:"id"`
	UserID    string        `json:"user_id"`
	Mode      SessionMode   `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Score     *SessionScore `json:"score,omitempty"`
}

// SessionScore is persisted as score_json.
type SessionScore struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
	Perfect  bool    `json:"perfect"`
}

// ── Request Types ─────────────────────────────────────────

type CompleteSessionRequest struct {
	QuestionIDs []int64 `json:"question_ids"`
	CorrectIDs  []int64 `json:"correct_ids"`
}

// ── Response Types ────────────────────────────────────────

type CompleteSessionResponse struct {
	Session       StudySession `json:"session"`
	CurrentStreak int          `json:"current_streak"`
	LongestStreak int          `json:"longest_streak"`
	Milestone     bool         `json:"milestone"`
}

type SessionSummary struct {
	CurrentStreak  int            `json:"current_streak"`
	LongestStreak  int            `json:"longest_streak"`
	CompletedTotal int            `json:"completed_total"`
	Recent         []StudySession `json:"recent"`
}
