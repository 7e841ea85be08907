package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

// ItemIndex reports whether an item exists in the bank.
type ItemIndex interface {
	Has(key models.ItemKey) bool
}

// Ledger owns every ProgressRecord. Answer submission is its only writer.
type Ledger struct {
	store *Store
	items ItemIndex
	now   func() time.Time
}

func NewLedger(store *Store, items ItemIndex) *Ledger {
	return &Ledger{store: store, items: items, now: time.Now}
}

// WithClock replaces the ledger's time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) validate(userID string, kind models.ItemKind, itemID int64) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", models.ErrInvalidInput)
	}
	if !models.ValidItemKinds[kind] {
		return fmt.Errorf("%w: unknown item kind %q", models.ErrInvalidInput, kind)
	}
	key := models.ItemKey{Kind: kind, ID: itemID}
	if l.items != nil && !l.items.Has(key) {
		return fmt.Errorf("%w: item %s", models.ErrNotFound, key)
	}
	return nil
}

func (l *Ledger) RecordAttempt(ctx context.Context, userID string, kind models.ItemKind, itemID int64, wasCorrect bool) (*models.ProgressRecord, error) {
	if err := l.validate(userID, kind, itemID); err != nil {
		return nil, err
	}

	rec, err := l.store.RecordAttempt(ctx, userID, kind, itemID, wasCorrect, l.now())
	if err != nil {
		log.Printf("[progress] WARN: record attempt %s:%d for %s failed: %v", kind, itemID, userID, err)
		return nil, err
	}
	return rec, nil
}

// Accuracy returns ok=false when the item has never been attempted.
func (l *Ledger) Accuracy(ctx context.Context, userID string, kind models.ItemKind, itemID int64) (float64, bool, error) {
	rec, err := l.Record(ctx, userID, kind, itemID)
	if err != nil || rec == nil {
		return 0, false, err
	}
	acc, ok := rec.Accuracy()
	return acc, ok, nil
}

// Record returns nil without error when the item has no history.
func (l *Ledger) Record(ctx context.Context, userID string, kind models.ItemKind, itemID int64) (*models.ProgressRecord, error) {
	if err := l.validate(userID, kind, itemID); err != nil {
		return nil, err
	}
	rec, err := l.store.Get(ctx, userID, kind, itemID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (l *Ledger) WeakTopics(ctx context.Context, userID string, threshold float64) ([]models.WeakTopic, error) {
	topics, err := l.store.WeakTopics(ctx, userID, threshold)
	if err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []models.WeakTopic{}
	}
	return topics, nil
}

func (l *Ledger) WeakItems(ctx context.Context, userID string, threshold float64) ([]models.WeakItem, error) {
	items, err := l.store.WeakItems(ctx, userID, threshold)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.WeakItem{}
	}
	return items, nil
}

// Snapshot returns a read-only view of one user's records for selection.
func (l *Ledger) Snapshot(ctx context.Context, userID string) (models.LedgerSnapshot, error) {
	records, err := l.store.ListByUser(ctx, userID)
	if err != nil {
		return models.LedgerSnapshot{}, err
	}
	snap := models.LedgerSnapshot{
		UserID:  userID,
		Records: make(map[models.ItemKey]models.ProgressRecord, len(records)),
	}
	for _, rec := range records {
		snap.Records[rec.Key()] = rec
	}
	return snap, nil
}
