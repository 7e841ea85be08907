package models

import "time"

const (
	MinBox = 1
	MaxBox = 5
)

// ProgressRecord is one user's attempt history on one item.
type ProgressRecord struct {
	UserID       string    `json:"user_id"`
	Kind         ItemKind  `json:"item_kind"`
	ItemID       int64     `json:"item_id"`
	CorrectCount int       `json:"correct_count"`
	WrongCount   int       `json:"wrong_count"`
	Box          int       `json:"box"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

func (p ProgressRecord) Key() ItemKey {
	return ItemKey{Kind: p.Kind, ID: p.ItemID}
}

func (p ProgressRecord) Attempts() int {
	return p.CorrectCount + p.WrongCount
}

// Accuracy returns correct/(correct+wrong). ok is false when nothing has been
// attempted, so callers can tell "never attempted" from "always wrong".
func (p ProgressRecord) Accuracy() (acc float64, ok bool) {
	total := p.Attempts()
	if total == 0 {
		return 0, false
	}
	return float64(p.CorrectCount) / float64(total), true
}

// LedgerSnapshot is a read-only view of one user's records.
type LedgerSnapshot struct {
	UserID  string
	Records map[ItemKey]ProgressRecord
}

// Record returns the record for key; ok is false when the item was never attempted.
func (s LedgerSnapshot) Record(key ItemKey) (ProgressRecord, bool) {
	rec, ok := s.Records[key]
	return rec, ok
}

type WeakTopic struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
	Attempts int     `json:"attempts"`
}

// WeakItem is a review entry: an attempted item below the review threshold.
type WeakItem struct {
	Kind         ItemKind  `json:"item_kind"`
	ItemID       int64     `json:"item_id"`
	Content      string    `json:"content"`
	TopicName    string    `json:"topic_name"`
	CorrectCount int       `json:"correct_count"`
	WrongCount   int       `json:"wrong_count"`
	Box          int       `json:"box"`
	Accuracy     float64   `json:"accuracy"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// ── API Response Types ────────────────────────────────────

type AccuracyResponse struct {
	Kind     ItemKind `json:"item_kind"`
	ItemID   int64    `json:"item_id"`
	Accuracy *float64 `json:"accuracy"`
	Attempts int      `json:"attempts"`
	Box      int      `json:"box,omitempty"`
}

type DashboardResponse struct {
	WeakTopics []WeakTopic     `json:"weak_topics"`
	Threshold  float64         `json:"threshold"`
	Sessions   *SessionSummary `json:"sessions,omitempty"`
}

type ReviewResponse struct {
	WeakItems []WeakItem `json:"weak_items"`
	Threshold float64    `json:"threshold"`
}
