package questions

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf-coach/studycoach/internal/models"
)

// Bank is the in-memory item bank. It is built once at startup and never
// mutated afterwards, so it is safe to share across requests.
type Bank struct {
	topics     []models.Topic
	mcq        []models.MCQ
	saq        []models.SAQ
	flashcards []models.Flashcard

	mcqByID map[int64]*models.MCQ
	saqByID map[int64]*models.SAQ
}

func NewBank(topics []models.Topic, mcq []models.MCQ, saq []models.SAQ, flashcards []models.Flashcard) *Bank {
	b := &Bank{
		topics:     topics,
		mcq:        mcq,
		saq:        saq,
		flashcards: flashcards,
		mcqByID:    make(map[int64]*models.MCQ, len(mcq)),
		saqByID:    make(map[int64]*models.SAQ, len(saq)),
	}
	for i := range b.mcq {
		b.mcqByID[b.mcq[i].ID] = &b.mcq[i]
	}
	for i := range b.saq {
		b.saqByID[b.saq[i].ID] = &b.saq[i]
	}
	return b
}

// LoadBank reads every item from the store.
func LoadBank(ctx context.Context, store *Store) (*Bank, error) {
	topics, err := store.ListTopics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	mcq, err := store.ListMCQ(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mcq: %w", err)
	}
	saq, err := store.ListSAQ(ctx)
	if err != nil {
		return nil, fmt.Errorf("load saq: %w", err)
	}
	cards, err := store.ListFlashcards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load flashcards: %w", err)
	}

	log.Printf("[bank] loaded %d topics, %d mcq, %d saq, %d flashcards",
		len(topics), len(mcq), len(saq), len(cards))
	return NewBank(topics, mcq, saq, cards), nil
}

func (b *Bank) Has(key models.ItemKey) bool {
	switch key.Kind {
	case models.KindMCQ:
		_, ok := b.mcqByID[key.ID]
		return ok
	case models.KindSAQ:
		_, ok := b.saqByID[key.ID]
		return ok
	}
	return false
}

func (b *Bank) MCQ(id int64) (*models.MCQ, bool) {
	q, ok := b.mcqByID[id]
	return q, ok
}

func (b *Bank) SAQ(id int64) (*models.SAQ, bool) {
	q, ok := b.saqByID[id]
	return q, ok
}

func (b *Bank) MCQItems() []models.Item {
	items := make([]models.Item, len(b.mcq))
	for i := range b.mcq {
		items[i] = models.Item{MCQ: &b.mcq[i]}
	}
	return items
}

func (b *Bank) SAQItems() []models.Item {
	items := make([]models.Item, len(b.saq))
	for i := range b.saq {
		items[i] = models.Item{SAQ: &b.saq[i]}
	}
	return items
}

func (b *Bank) Topics() []models.Topic {
	return b.topics
}

func (b *Bank) TopicNames() []string {
	names := make([]string, len(b.topics))
	for i, t := range b.topics {
		names[i] = t.Name
	}
	return names
}

// Flashcards filters by topic name; "" or "all" returns every card.
func (b *Bank) Flashcards(topic string) []models.Flashcard {
	out := []models.Flashcard{}
	for _, f := range b.flashcards {
		if topic == "" || strings.EqualFold(topic, "all") || strings.EqualFold(f.TopicName, topic) {
			out = append(out, f)
		}
	}
	return out
}
