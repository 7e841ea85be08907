package progress

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/spf-coach/studycoach/internal/database/dbtest"
	"github.com/spf-coach/studycoach/internal/models"
)

type keySet map[models.ItemKey]bool

func (k keySet) Has(key models.ItemKey) bool { return k[key] }

// seededIndex covers the embedded bank: mcq 1..18 and saq 1.
func seededIndex() keySet {
	ks := keySet{{Kind: models.KindSAQ, ID: 1}: true}
	for id := int64(1); id <= 18; id++ {
		ks[models.ItemKey{Kind: models.KindMCQ, ID: id}] = true
	}
	return ks
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db := dbtest.Seeded(t)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return NewLedger(NewStore(db), seededIndex()).WithClock(func() time.Time { return fixed })
}

func TestRecordAttemptFirstInsert(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	rec, err := l.RecordAttempt(ctx, "u1", models.KindMCQ, 1, false)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if rec.CorrectCount != 0 || rec.WrongCount != 1 || rec.Box != 1 {
		t.Errorf("got %+v, want correct=0 wrong=1 box=1", rec)
	}
	if !rec.LastSeenAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("last_seen_at = %v", rec.LastSeenAt)
	}

	rec, err = l.RecordAttempt(ctx, "u2", models.KindMCQ, 1, true)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if rec.CorrectCount != 1 || rec.WrongCount != 0 || rec.Box != 1 {
		t.Errorf("got %+v, want correct=1 wrong=0 box=1", rec)
	}
}

func TestRecordAttemptBoxStaysInRange(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	seq := []bool{true, true, true, true, true, true, true, false, false, false, false, false, false, false, true}
	want := 1
	for i, correct := range seq {
		rec, err := l.RecordAttempt(ctx, "u1", models.KindMCQ, 2, correct)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if i > 0 {
			want = nextBox(want, correct)
		}
		if rec.Box != want {
			t.Errorf("step %d: box = %d, want %d", i, rec.Box, want)
		}
		if rec.Box < models.MinBox || rec.Box > models.MaxBox {
			t.Fatalf("step %d: box %d out of range", i, rec.Box)
		}
	}
}

func TestRecordAttemptIsAdditive(t *testing.T) {
	orders := [][]bool{
		{true, true, false, true, false},
		{false, false, true, true, true},
		{true, false, true, false, true},
	}
	for i, seq := range orders {
		l := newTestLedger(t)
		ctx := context.Background()
		var rec *models.ProgressRecord
		var err error
		for _, c := range seq {
			rec, err = l.RecordAttempt(ctx, "u1", models.KindMCQ, 3, c)
			if err != nil {
				t.Fatal(err)
			}
		}
		if rec.CorrectCount != 3 || rec.WrongCount != 2 {
			t.Errorf("order %d: got correct=%d wrong=%d, want 3/2", i, rec.CorrectCount, rec.WrongCount)
		}
	}
}

func TestRecordAttemptConcurrentNoLostIncrements(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(correct bool) {
			defer wg.Done()
			if _, err := l.RecordAttempt(ctx, "u1", models.KindMCQ, 4, correct); err != nil {
				errs <- err
			}
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent RecordAttempt: %v", err)
	}

	rec, err := l.Record(ctx, "u1", models.KindMCQ, 4)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CorrectCount != workers/2 || rec.WrongCount != workers/2 {
		t.Errorf("got correct=%d wrong=%d, want %d each", rec.CorrectCount, rec.WrongCount, workers/2)
	}
}

func TestRecordAttemptRejectsBadInput(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		user   string
		kind   models.ItemKind
		id     int64
		target error
	}{
		{"unknown item", "u1", models.KindMCQ, 999, models.ErrNotFound},
		{"unknown kind", "u1", models.ItemKind("essay"), 1, models.ErrInvalidInput},
		{"empty user", "", models.KindMCQ, 1, models.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.RecordAttempt(ctx, tt.user, tt.kind, tt.id, true)
			if !errors.Is(err, tt.target) {
				t.Errorf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestAccuracy(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if _, ok, err := l.Accuracy(ctx, "u1", models.KindMCQ, 5); err != nil || ok {
		t.Fatalf("never attempted: ok=%v err=%v, want ok=false", ok, err)
	}

	l.RecordAttempt(ctx, "u1", models.KindMCQ, 5, false)
	acc, ok, err := l.Accuracy(ctx, "u1", models.KindMCQ, 5)
	if err != nil || !ok || acc != 0 {
		t.Fatalf("always wrong: acc=%v ok=%v err=%v, want 0/true", acc, ok, err)
	}

	for i := 0; i < 3; i++ {
		l.RecordAttempt(ctx, "u1", models.KindMCQ, 5, true)
	}
	acc, ok, _ = l.Accuracy(ctx, "u1", models.KindMCQ, 5)
	if !ok || math.Abs(acc-0.75) > 1e-9 {
		t.Errorf("acc = %v, want 0.75", acc)
	}
}

func TestWeakTopics(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// BWC: item 1 at 0.0, item 2 at 1.0 -> mean 0.5
	l.RecordAttempt(ctx, "u1", models.KindMCQ, 1, false)
	l.RecordAttempt(ctx, "u1", models.KindMCQ, 2, true)
	// Reports: item 3 at 0.5
	l.RecordAttempt(ctx, "u1", models.KindMCQ, 3, true)
	l.RecordAttempt(ctx, "u1", models.KindMCQ, 3, false)
	// SALUTE: item 4 at 1.0, not weak
	l.RecordAttempt(ctx, "u1", models.KindMCQ, 4, true)
	// Theft: item 7 at 0.0 for another user only
	l.RecordAttempt(ctx, "u2", models.KindMCQ, 7, false)

	topics, err := l.WeakTopics(ctx, "u1", 0.8)
	if err != nil {
		t.Fatalf("WeakTopics: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("got %d weak topics (%+v), want 2", len(topics), topics)
	}
	if topics[0].Topic != "BWC" || topics[1].Topic != "Reports" {
		t.Errorf("order = %s, %s; want BWC, Reports (tie broken by name)", topics[0].Topic, topics[1].Topic)
	}
	for _, wt := range topics {
		if wt.Attempts == 0 {
			t.Errorf("topic %s returned with zero attempts", wt.Topic)
		}
		if math.Abs(wt.Accuracy-0.5) > 1e-9 {
			t.Errorf("topic %s accuracy = %v, want 0.5", wt.Topic, wt.Accuracy)
		}
	}

	empty, err := l.WeakTopics(ctx, "nobody", 0.8)
	if err != nil || len(empty) != 0 {
		t.Errorf("user without attempts: %v %v, want empty", empty, err)
	}
}

func TestWeakItems(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	l.RecordAttempt(ctx, "u1", models.KindMCQ, 1, false)
	l.RecordAttempt(ctx, "u1", models.KindSAQ, 1, true)
	l.RecordAttempt(ctx, "u1", models.KindSAQ, 1, false)
	l.RecordAttempt(ctx, "u1", models.KindMCQ, 2, true)

	items, err := l.WeakItems(ctx, "u1", 0.8)
	if err != nil {
		t.Fatalf("WeakItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	if items[0].Kind != models.KindMCQ || items[0].ItemID != 1 {
		t.Errorf("worst item = %s:%d, want mcq:1", items[0].Kind, items[0].ItemID)
	}
	if items[1].Kind != models.KindSAQ || items[1].Content == "" || items[1].TopicName != "Scams" {
		t.Errorf("second item = %+v, want saq with content and topic Scams", items[1])
	}
}

func TestSnapshot(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	l.RecordAttempt(ctx, "u1", models.KindMCQ, 1, true)
	l.RecordAttempt(ctx, "u1", models.KindSAQ, 1, false)
	l.RecordAttempt(ctx, "u2", models.KindMCQ, 2, true)

	snap, err := l.Snapshot(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.UserID != "u1" || len(snap.Records) != 2 {
		t.Fatalf("snapshot = %+v, want 2 records for u1", snap)
	}
	if _, ok := snap.Record(models.ItemKey{Kind: models.KindMCQ, ID: 2}); ok {
		t.Error("snapshot leaked another user's record")
	}
}
