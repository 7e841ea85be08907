package models

import "fmt"

type ItemKind string

const (
	KindMCQ ItemKind = "mcq"
	KindSAQ ItemKind = "saq"
)

var ValidItemKinds = map[ItemKind]bool{
	KindMCQ: true,
	KindSAQ: true,
}

// ItemKey identifies a quiz item across both item tables. MCQ and SAQ ids come
// from separate sequences, so the kind is part of the identity.
type ItemKey struct {
	Kind ItemKind `json:"kind"`
	ID   int64    `json:"id"`
}

func (k ItemKey) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.ID)
}

// ── Core Structs ───────────────────────────────────────

type Topic struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type MCQ struct {
	ID          int64    `json:"id"`
	Stem        string   `json:"stem"`
	Choices     []string `json:"choices"`
	AnswerIdx   int      `json:"answer_idx"`
	Explanation string   `json:"explanation,omitempty"`
	TopicID     int64    `json:"topic_id"`
	TopicName   string   `json:"topic_name"`
	SourceRef   string   `json:"source_ref,omitempty"`
}

// Validate checks the answer index invariant.
func (q *MCQ) Validate() error {
	if len(q.Choices) < 2 {
		return fmt.Errorf("%w: mcq %q needs at least 2 choices, got %d", ErrInvalidInput, q.Stem, len(q.Choices))
	}
	if q.AnswerIdx < 0 || q.AnswerIdx >= len(q.Choices) {
		return fmt.Errorf("%w: mcq %q answer_idx %d out of range [0, %d)", ErrInvalidInput, q.Stem, q.AnswerIdx, len(q.Choices))
	}
	return nil
}

type SAQ struct {
	ID           int64    `json:"id"`
	Prompt       string   `json:"prompt"`
	ModelOutline string   `json:"model_outline"`
	Keywords     []string `json:"keywords"`
	StatuteRefs  []string `json:"statute_refs,omitempty"`
	TopicID      int64    `json:"topic_id"`
	TopicName    string   `json:"topic_name"`
	SourceRef    string   `json:"source_ref,omitempty"`
}

type Flashcard struct {
	ID        int64  `json:"id"`
	Front     string `json:"front"`
	Back      string `json:"back"`
	TopicID   int64  `json:"topic_id"`
	TopicName string `json:"topic_name"`
	SourceRef string `json:"source_ref,omitempty"`
}

// Item is the unit the selector works on. Exactly one of MCQ and SAQ is set.
type Item struct {
	MCQ *MCQ
	SAQ *SAQ
}

func (it Item) Key() ItemKey {
	if it.MCQ != nil {
		return ItemKey{Kind: KindMCQ, ID: it.MCQ.ID}
	}
	return ItemKey{Kind: KindSAQ, ID: it.SAQ.ID}
}

func (it Item) TopicID() int64 {
	if it.MCQ != nil {
		return it.MCQ.TopicID
	}
	return it.SAQ.TopicID
}

// ── Drill / Practice DTOs ─────────────────────────────

// DrillQuestion is an MCQ as served to the client: no answer index.
type DrillQuestion struct {
	ID        int64    `json:"id"`
	Stem      string   `json:"stem"`
	Choices   []string `json:"choices"`
	TopicName string   `json:"topic_name"`
	SourceRef string   `json:"source_ref,omitempty"`
	Box       int      `json:"box,omitempty"`
}

func (q *MCQ) ToDrillQuestion() DrillQuestion {
	return DrillQuestion{
		ID:        q.ID,
		Stem:      q.Stem,
		Choices:   q.Choices,
		TopicName: q.TopicName,
		SourceRef: q.SourceRef,
	}
}

type DrillResponse struct {
	SessionID int64           `json:"session_id"`
	Questions []DrillQuestion `json:"questions"`
	Total     int             `json:"total"`
}

type SubmitMCQRequest struct {
	QuestionID     int64 `json:"question_id"`
	SelectedAnswer *int  `json:"selected_answer"`
}

type SubmitMCQResponse struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
	Box           int    `json:"box"`
}

type SAQPracticeResponse struct {
	SAQ *SAQ `json:"saq"`
}

type GradeSAQRequest struct {
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
}

type GradeSAQResponse struct {
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Feedback        string   `json:"feedback"`
	ModelOutline    string   `json:"model_outline,omitempty"`
	Box             int      `json:"box,omitempty"`
}

type CheatsResponse struct {
	Flashcards   []Flashcard `json:"flashcards"`
	Topics       []string    `json:"topics"`
	CurrentTopic string      `json:"current_topic"`
}
