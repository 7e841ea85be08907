package selector

import (
	"math/rand"
	"testing"

	"github.com/spf-coach/studycoach/internal/models"
)

func mcqBank(n int, topics int) []models.Item {
	items := make([]models.Item, n)
	for i := range items {
		items[i] = models.Item{MCQ: &models.MCQ{
			ID:        int64(i + 1),
			Stem:      "q",
			Choices:   []string{"a", "b"},
			TopicID:   int64(i%topics + 1),
			AnswerIdx: 0,
		}}
	}
	return items
}

func snapshotOf(records ...models.ProgressRecord) models.LedgerSnapshot {
	snap := models.LedgerSnapshot{UserID: "u1", Records: map[models.ItemKey]models.ProgressRecord{}}
	for _, r := range records {
		r.UserID = "u1"
		snap.Records[r.Key()] = r
	}
	return snap
}

func mcqRecord(id int64, correct, wrong int) models.ProgressRecord {
	return models.ProgressRecord{Kind: models.KindMCQ, ItemID: id, CorrectCount: correct, WrongCount: wrong, Box: 1}
}

func seeded(seed int64) *Selector {
	return New(rand.New(rand.NewSource(seed)))
}

func assertDistinct(t *testing.T, batch []models.Item) {
	t.Helper()
	seen := map[models.ItemKey]bool{}
	for _, it := range batch {
		if seen[it.Key()] {
			t.Fatalf("duplicate item %s in batch", it.Key())
		}
		seen[it.Key()] = true
	}
}

func TestSelectBatchSmallBankNewUser(t *testing.T) {
	bank := mcqBank(4, 2)
	batch := seeded(1).SelectBatch(snapshotOf(), bank, 10)

	if len(batch) != 4 {
		t.Fatalf("got %d items, want 4", len(batch))
	}
	assertDistinct(t, batch)
}

func TestSelectBatchSizeIsMinOfBankAndRequest(t *testing.T) {
	tests := []struct {
		bank, size, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{9, 10, 9},
		{10, 10, 10},
		{30, 10, 10},
		{30, 5, 5},
		{30, 0, DefaultBatchSize},
		{30, -3, DefaultBatchSize},
	}
	for _, tt := range tests {
		batch := seeded(7).SelectBatch(snapshotOf(), mcqBank(tt.bank, 4), tt.size)
		if len(batch) != tt.want {
			t.Errorf("bank=%d size=%d: got %d items, want %d", tt.bank, tt.size, len(batch), tt.want)
		}
		assertDistinct(t, batch)
	}
}

func TestSelectBatchIncludesOnlyWeakItem(t *testing.T) {
	bank := mcqBank(40, 5)
	snap := snapshotOf(mcqRecord(17, 1, 4))

	for seed := int64(0); seed < 50; seed++ {
		batch := seeded(seed).SelectBatch(snap, bank, 10)
		found := false
		for _, it := range batch {
			if it.MCQ.ID == 17 {
				found = true
			}
		}
		if !found {
			t.Fatalf("seed %d: weak item 17 missing from batch", seed)
		}
	}
}

func idSet(items []models.Item) map[int64]bool {
	out := make(map[int64]bool, len(items))
	for _, it := range items {
		out[it.Key().ID] = true
	}
	return out
}

func TestPoolsWeakTakesWorstFour(t *testing.T) {
	bank := mcqBank(40, 5)
	snap := snapshotOf(
		mcqRecord(1, 0, 5), // 0.0
		mcqRecord(2, 1, 4), // 0.2
		mcqRecord(3, 1, 3), // 0.25
		mcqRecord(4, 1, 2), // 0.33
		mcqRecord(5, 1, 1), // 0.5, fifth weakest
		mcqRecord(6, 9, 1), // 0.9, not weak
		mcqRecord(7, 7, 3), // 0.7, not weak (strictly below)
	)

	weak, variety, novel := seeded(3).pools(snap, bank)
	got := idSet(weak)
	if len(weak) != 4 {
		t.Fatalf("weak pool = %v, want 4 items", got)
	}
	for _, id := range []int64{1, 2, 3, 4} {
		if !got[id] {
			t.Errorf("weak item %d missing from %v", id, got)
		}
	}
	all := append(append(append([]models.Item{}, weak...), variety...), novel...)
	assertDistinct(t, all)
}

func TestPoolsWeakTiesVaryBySeed(t *testing.T) {
	bank := mcqBank(8, 2)
	var recs []models.ProgressRecord
	for id := int64(1); id <= 6; id++ {
		recs = append(recs, mcqRecord(id, 0, 2))
	}
	snap := snapshotOf(recs...)

	sets := map[string]bool{}
	for seed := int64(0); seed < 30; seed++ {
		weak, _, _ := seeded(seed).pools(snap, bank)
		if len(weak) != weakQuota {
			t.Fatalf("seed %d: weak pool has %d items", seed, len(weak))
		}
		got := idSet(weak)
		key := ""
		for id := int64(1); id <= 6; id++ {
			if got[id] {
				key += "1"
			} else {
				key += "0"
			}
		}
		sets[key] = true
	}
	if len(sets) < 2 {
		t.Errorf("tied weak items always resolved to the same set %v", sets)
	}
}

func TestPoolsVarietyOnePerTopic(t *testing.T) {
	tests := []struct {
		name        string
		bank        []models.Item
		wantVariety int
	}{
		{"two topics", mcqBank(12, 2), 2},
		{"six topics", mcqBank(12, 6), varietyQuota},
		{"one item", mcqBank(1, 1), 1},
		{"empty bank", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, variety, _ := seeded(4).pools(snapshotOf(), tt.bank)
			if len(variety) != tt.wantVariety {
				t.Fatalf("variety pool has %d items, want %d", len(variety), tt.wantVariety)
			}
			topics := map[int64]bool{}
			for _, it := range variety {
				if topics[it.TopicID()] {
					t.Errorf("topic %d picked twice", it.TopicID())
				}
				topics[it.TopicID()] = true
			}
		})
	}
}

func TestPoolsNovelOnlyUnattempted(t *testing.T) {
	bank := mcqBank(10, 10)
	var recs []models.ProgressRecord
	for id := int64(1); id <= 5; id++ {
		recs = append(recs, mcqRecord(id, 5, 0))
	}
	snap := snapshotOf(recs...)

	for seed := int64(0); seed < 20; seed++ {
		_, variety, novel := seeded(seed).pools(snap, bank)
		if len(novel) > novelQuota {
			t.Fatalf("seed %d: novel pool has %d items", seed, len(novel))
		}
		picked := idSet(variety)
		for _, it := range novel {
			if it.Key().ID <= 5 {
				t.Errorf("seed %d: attempted item %d offered as novel", seed, it.Key().ID)
			}
			if picked[it.Key().ID] {
				t.Errorf("seed %d: item %d in both variety and novel pools", seed, it.Key().ID)
			}
		}
	}
}

func TestSelectBatchSmallBatchMixesPools(t *testing.T) {
	bank := mcqBank(40, 5)
	snap := snapshotOf(
		mcqRecord(1, 0, 5),
		mcqRecord(2, 1, 4),
		mcqRecord(3, 1, 3),
		mcqRecord(4, 1, 2),
	)

	withOther := 0
	for seed := int64(0); seed < 200; seed++ {
		batch := seeded(seed).SelectBatch(snap, bank, 4)
		if len(batch) != 4 {
			t.Fatalf("seed %d: got %d items", seed, len(batch))
		}
		assertDistinct(t, batch)
		for _, it := range batch {
			if it.Key().ID > 4 {
				withOther++
				break
			}
		}
	}
	if withOther == 0 {
		t.Error("a batch of 4 always held only the weak pool")
	}
}

func TestSelectBatchSingleItemNotAlwaysWeakest(t *testing.T) {
	bank := mcqBank(20, 4)
	snap := snapshotOf(mcqRecord(1, 0, 5))

	others := 0
	for seed := int64(0); seed < 50; seed++ {
		batch := seeded(seed).SelectBatch(snap, bank, 1)
		if len(batch) != 1 {
			t.Fatalf("seed %d: got %d items", seed, len(batch))
		}
		if batch[0].Key().ID != 1 {
			others++
		}
	}
	if others == 0 {
		t.Error("a single-item batch always returned the weakest item")
	}
}

func TestSelectBatchNeverPicksAttemptedAsNovel(t *testing.T) {
	bank := mcqBank(6, 6)
	// Every item attempted and strong: nothing is weak or novel, so only the
	// variety pool and backfill can fill the batch.
	var recs []models.ProgressRecord
	for id := int64(1); id <= 6; id++ {
		recs = append(recs, mcqRecord(id, 5, 0))
	}
	batch := seeded(11).SelectBatch(snapshotOf(recs...), bank, 6)
	if len(batch) != 6 {
		t.Fatalf("got %d items, want backfill to 6", len(batch))
	}
	assertDistinct(t, batch)
}

func TestSelectBatchDeterministicForSeed(t *testing.T) {
	bank := mcqBank(25, 6)
	snap := snapshotOf(mcqRecord(3, 0, 2), mcqRecord(8, 1, 1), mcqRecord(12, 4, 0))

	a := seeded(42).SelectBatch(snap, bank, 10)
	b := seeded(42).SelectBatch(snap, bank, 10)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Key() != b[i].Key() {
			t.Fatalf("position %d: %s vs %s", i, a[i].Key(), b[i].Key())
		}
	}
}

func TestSelectBatchMixedKinds(t *testing.T) {
	bank := mcqBank(3, 1)
	bank = append(bank,
		models.Item{SAQ: &models.SAQ{ID: 1, TopicID: 2}},
		models.Item{SAQ: &models.SAQ{ID: 2, TopicID: 3}},
	)
	// mcq:1 and saq:1 share an id but are different items.
	batch := seeded(5).SelectBatch(snapshotOf(), bank, 10)
	if len(batch) != 5 {
		t.Fatalf("got %d items, want 5", len(batch))
	}
	assertDistinct(t, batch)
}

func TestSelectBatchIgnoresDuplicateBankEntries(t *testing.T) {
	bank := mcqBank(3, 1)
	bank = append(bank, bank[0], bank[1])
	batch := seeded(9).SelectBatch(snapshotOf(), bank, 10)
	if len(batch) != 3 {
		t.Fatalf("got %d items, want 3", len(batch))
	}
	assertDistinct(t, batch)
}
