package gc

import (
	"testing"

	"colibri/word"
)

// a trivial fixed-size custom type used to exercise mark/sweep/promote
// without depending on any container package (keeps gc's own tests free of
// an import on container, which itself imports gc).
const testCells = 1

func registerTestType(id word.TypeID) {
	RegisterTypeOps(id, TypeOps{
		Cells:    func(uintptr) int { return testCells },
		Children: func(uintptr, func(*word.Word)) {},
	})
}

func TestCollectorCycleReclaimsUnreachable(t *testing.T) {
	registerTestType(word.TypeWrap)
	c := NewCollector()

	var roots []word.Word
	for i := 0; i < 100; i++ {
		addr, err := c.Pools[1].AllocCells(testCells)
		if err != nil {
			t.Fatalf("AllocCells: %v", err)
		}
		word.SetHeader(addr, word.NewPredefinedHeader(word.TypeWrap))
		w := word.Word(addr)
		if i%2 == 0 {
			c.Roots.Preserve(w, 1, setPinnedNoop)
			roots = append(roots, w)
		}
	}

	before := c.Pools[1].LiveCells
	c.Cycle()
	if c.Pools[1].LiveCells >= before {
		t.Fatalf("LiveCells did not shrink after a cycle: before=%d after=%d", before, c.Pools[1].LiveCells)
	}

	for _, w := range roots {
		page, idx := c.findPage(uintptr(w))
		if page == nil || !page.Allocated(idx) {
			t.Fatalf("rooted word %v did not survive the cycle", w)
		}
	}
}

func setPinnedNoop(word.Word, bool) {}

func TestMaxCollectedGenerationRespectsFrequencyGate(t *testing.T) {
	thr := DefaultThresholds()
	thr.GenFactor = 2
	pools := make([]*Pool, word.MaxGenerations)
	for i := 1; i < word.MaxGenerations; i++ {
		pools[i] = NewPool(i)
	}
	var counters GenCounters

	maxGen := MaxCollectedGeneration(thr, pools, &counters)
	if maxGen != 1 {
		t.Fatalf("MaxCollectedGeneration = %d, want 1 (only Eden, fresh counters)", maxGen)
	}
}
