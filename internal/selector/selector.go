// Package selector composes study batches from the item bank and a user's
// progress. Up to four weak items, one item per topic for breadth and a few
// items the user has never seen are mixed together in random order, then
// backfilled at random when the mix runs short.
package selector

import (
	"math/rand"
	"sort"
	"time"

	"github.com/spf-coach/studycoach/internal/models"
)

const (
	DefaultBatchSize = 10
	DefaultWeakBelow = 0.7

	weakQuota    = 4
	varietyQuota = 3
	novelQuota   = 3
)

type Selector struct {
	rng       *rand.Rand
	weakBelow float64
}

// New returns a selector drawing from rng. Pass a seeded source for
// reproducible batches.
func New(rng *rand.Rand) *Selector {
	return &Selector{rng: rng, weakBelow: DefaultWeakBelow}
}

// NewUnseeded returns a selector with its own time-seeded source. A *rand.Rand
// is not safe for concurrent use, so callers build one per request.
func NewUnseeded() *Selector {
	return New(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// WithWeakThreshold sets the accuracy below which an attempted item counts as weak.
func (s *Selector) WithWeakThreshold(t float64) *Selector {
	if t > 0 {
		s.weakBelow = t
	}
	return s
}

type weakCandidate struct {
	item     models.Item
	accuracy float64
	tiebreak float64
}

// SelectBatch returns up to batchSize distinct items. The weak, variety and
// novel pools are combined and shuffled before truncation, so no pool is
// guaranteed a place in a small batch. Short batches are backfilled at random
// from the rest of the bank. A bank smaller than batchSize yields every item.
func (s *Selector) SelectBatch(snapshot models.LedgerSnapshot, items []models.Item, batchSize int) []models.Item {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	bank := dedupe(items)
	weak, variety, novel := s.pools(snapshot, bank)

	batch := make([]models.Item, 0, len(weak)+len(variety)+len(novel))
	batch = append(batch, weak...)
	batch = append(batch, variety...)
	batch = append(batch, novel...)
	s.rng.Shuffle(len(batch), func(i, j int) {
		batch[i], batch[j] = batch[j], batch[i]
	})
	if len(batch) > batchSize {
		return batch[:batchSize]
	}

	// ── Backfill ────────────────────────────────────────
	claimed := make(map[models.ItemKey]bool, len(batch))
	for _, it := range batch {
		claimed[it.Key()] = true
	}
	for _, it := range s.shuffled(unclaimed(bank, claimed)) {
		if len(batch) >= batchSize {
			break
		}
		batch = append(batch, it)
	}
	s.rng.Shuffle(len(batch), func(i, j int) {
		batch[i], batch[j] = batch[j], batch[i]
	})
	return batch
}

// pools splits bank into the weak, variety and novel pools. An item claimed
// by an earlier pool is never offered to a later one.
func (s *Selector) pools(snapshot models.LedgerSnapshot, bank []models.Item) (weak, variety, novel []models.Item) {
	claimed := make(map[models.ItemKey]bool, len(bank))

	// ── Pool A: weak ────────────────────────────────────
	var candidates []weakCandidate
	for _, it := range bank {
		rec, ok := snapshot.Record(it.Key())
		if !ok {
			continue
		}
		acc, attempted := rec.Accuracy()
		if attempted && acc < s.weakBelow {
			candidates = append(candidates, weakCandidate{item: it, accuracy: acc, tiebreak: s.rng.Float64()})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].accuracy != candidates[j].accuracy {
			return candidates[i].accuracy < candidates[j].accuracy
		}
		return candidates[i].tiebreak < candidates[j].tiebreak
	})
	for _, c := range candidates {
		if len(weak) >= weakQuota {
			break
		}
		weak = append(weak, c.item)
		claimed[c.item.Key()] = true
	}

	// ── Pool B: variety, one per topic ──────────────────
	topics := make(map[int64]bool)
	for _, it := range s.shuffled(unclaimed(bank, claimed)) {
		if len(variety) >= varietyQuota {
			break
		}
		if topics[it.TopicID()] {
			continue
		}
		topics[it.TopicID()] = true
		variety = append(variety, it)
		claimed[it.Key()] = true
	}

	// ── Pool C: novel ───────────────────────────────────
	var fresh []models.Item
	for _, it := range unclaimed(bank, claimed) {
		if rec, ok := snapshot.Record(it.Key()); ok && rec.Attempts() > 0 {
			continue
		}
		fresh = append(fresh, it)
	}
	for _, it := range s.shuffled(fresh) {
		if len(novel) >= novelQuota {
			break
		}
		novel = append(novel, it)
	}
	return weak, variety, novel
}

// dedupe drops repeated bank entries by key, keeping the first occurrence.
func dedupe(items []models.Item) []models.Item {
	bank := make([]models.Item, 0, len(items))
	seen := make(map[models.ItemKey]bool, len(items))
	for _, it := range items {
		if seen[it.Key()] {
			continue
		}
		seen[it.Key()] = true
		bank = append(bank, it)
	}
	return bank
}

func (s *Selector) shuffled(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	s.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func unclaimed(items []models.Item, claimed map[models.ItemKey]bool) []models.Item {
	var out []models.Item
	for _, it := range items {
		if !claimed[it.Key()] {
			out = append(out, it)
		}
	}
	return out
}
