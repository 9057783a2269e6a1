package gc

import (
	"colibri/platform"
	"colibri/word"
)

// Collector owns one thread group's pools, registries, and policy — the
// object whose Cycle method runs the 10-step algorithm of §4.C end to end.
// Grounded on pkg/mvcc/manager.go's TransactionManager (a single object
// wiring together a write-ahead log, a lock table, and a cleanup policy the
// same way Collector wires pools, registries, and Thresholds together).
type Collector struct {
	// Pools is indexed by generation: Pools[0] is unused, Pools[1] is Eden,
	// Pools[2..MaxGenerations-1] are the shared older generations (§3
	// "Pools").
	Pools [word.MaxGenerations]*Pool

	Roots      *RootRegistry
	Parents    *ParentRegistry
	Thresholds Thresholds
	Counters   GenCounters
	Guard      *Guard
	Protector  platform.PageProtector

	// ErrorHook is the callback reportError forwards errors to (§7 "Error
	// reporting"). No step of Cycle calls reportError: a compaction whose
	// allocation fails falls back to marking the record in place without
	// reporting anything.
	ErrorHook func(error)

	// compactGen is the generation being compacted by the running Cycle,
	// or -1 outside a cycle.
	compactGen int
}

// NewCollector builds a collector with one Eden pool plus the shared older
// generations, an idle guard wired to call Cycle on the outermost Resume,
// and the default protector for this platform.
func NewCollector() *Collector {
	c := &Collector{
		Roots:      NewRootRegistry(),
		Parents:    NewParentRegistry(),
		Thresholds: DefaultThresholds(),
		Protector:  platform.NewDefaultProtector(),
		compactGen: -1,
	}
	for gen := 1; gen < word.MaxGenerations; gen++ {
		c.Pools[gen] = NewPool(gen)
	}
	c.Guard = NewGuard(func() {
		if c.Thresholds.ShouldTriggerGC(c.Pools[1]) {
			c.Cycle()
		}
	})
	return c
}

// reportError forwards err to ErrorHook if set, otherwise drops it: callers
// of Cycle are expected to treat a failed GC as non-fatal (§7 "GC cycle
// failures do not abort the mutator; they degrade to running short on
// memory sooner").
func (c *Collector) reportError(err error) {
	if err != nil && c.ErrorHook != nil {
		c.ErrorHook(err)
	}
}

// Cycle runs one full mark-sweep-promote pass over generations 1..maxGen,
// where maxGen is chosen by the threshold policy (§4.C, steps 1-10).
func (c *Collector) Cycle() {
	maxGen := MaxCollectedGeneration(c.Thresholds, c.Pools[:], &c.Counters)
	c.compactGen = c.choosePromotionTarget(maxGen)

	// Step 1: clear bitmaps for every generation under collection.
	for gen := 1; gen <= maxGen; gen++ {
		c.Pools[gen].ClearBitmap()
	}

	ctx := &markContext{c: c, compactGen: c.compactGen}

	// Step 2: unprotect parent pages so the mark phase can read/write their
	// cells, then mark from every declared parent (§4.C "mark from
	// parents": a write-barrier-tripped cross-generation pointer is a root
	// just as much as a thread-local or registry root is).
	c.Parents.Walk(func(page *Page) {
		c.unprotect(page)
		for i := 0; i < usableCells; i++ {
			if !page.Allocated(i) {
				continue
			}
			addr := page.CellAddr(i)
			h := word.Header(addr)
			childrenOfCell(addr, h, func(child *word.Word) {
				if *child == 0 {
					return
				}
				ctx.markWord(child, page)
			})
		}
	})

	// Step 3: mark from roots, bumping each surviving root's recorded
	// generation (§4.C step 4).
	c.Roots.Lock()
	c.Roots.Walk(maxGen, func(w word.Word, leaf *rootLeafHandle) {
		root := w
		ctx.markWord(&root, nil)
		leaf.BumpGeneration()
	})
	c.Roots.Unlock()

	// Step 4: purge the parent registry and re-protect the surviving
	// parent pages. Nothing in the cycle clears a page's PARENT flag
	// (markWord only sets it, through DeclareParent), so purge keeps every
	// entry.
	c.Parents.PurgeParents(func(page *Page) {
		if page.generation > maxGen {
			c.protect(page)
		}
	})
	c.Parents.UpdateParents()

	// Recompute each collected generation's live-cell count from the
	// bitmap mark actually produced, now that unreachable cells are
	// known (§4.C step 8).
	for gen := 1; gen <= maxGen; gen++ {
		c.Pools[gen].RecountLiveCells()
	}

	// Step 5: sweep finalizable customs that didn't survive.
	for gen := 1; gen <= maxGen; gen++ {
		c.sweepPool(c.Pools[gen])
	}

	// Step 6: promote. With no compaction target this degenerates to the
	// whole-pool splice described in §4.C step 9; with one, the words that
	// survived compaction already moved during mark and the old pool's
	// pages are now entirely empty and get freed rather than promoted.
	if maxGen+1 < word.MaxGenerations {
		c.promoteSurvivors(maxGen)
	}

	// Step 7: free empty pages and reset per-cycle counters.
	for gen := 1; gen <= maxGen; gen++ {
		pool := c.Pools[gen]
		pool.FreeEmptyPages()
		pool.ResetCounters()
	}
	c.Counters.NoteCollected(maxGen)
	c.compactGen = -1
}

// choosePromotionTarget picks at most one generation in [1, maxGen] to
// compact this cycle, preferring the oldest generation whose fill ratio
// exceeds the threshold (§4.C "Compacting promotion is applied to the
// generation under the most memory pressure"). Returns -1 if none qualify.
func (c *Collector) choosePromotionTarget(maxGen int) int {
	best := -1
	// The oldest generation has nowhere further to promote into, so it is
	// never a compaction target; it can only be defragmented in place,
	// which this collector does not implement (§4.C "Compacting promotion"
	// is described as a promotion, not an in-place compaction).
	top := maxGen
	if top > word.MaxGenerations-2 {
		top = word.MaxGenerations - 2
	}
	for gen := top; gen >= 1; gen-- {
		pool := c.Pools[gen]
		if pool.PageCount == 0 {
			continue
		}
		fill := float64(pool.LiveCells) / float64(pool.PageCount*usableCells)
		if fill >= c.Thresholds.PromoteFillRatio {
			best = gen
			break
		}
	}
	return best
}

// promoteSurvivors splices every generation's surviving pages into the next
// generation up, from the oldest collected generation down to Eden, so a
// page promoted out of generation g lands in g+1 before g+1 itself is
// spliced onward (§4.C step 9).
func (c *Collector) promoteSurvivors(maxGen int) {
	for gen := maxGen; gen >= 1; gen-- {
		cur := c.Pools[gen]
		next := c.Pools[gen+1]
		promoted := cur.PromoteTo(next)
		mergeSweepLists(cur, next)
		for _, page := range promoted {
			if page.flags&FlagParent == 0 {
				c.protect(page)
			}
		}
	}
}

// protect and unprotect apply OS-level page protection as the write
// barrier's enforcement mechanism (§4.B "Write barrier"). Generation-1
// (Eden) pages are never protected, since Eden is always collected.
func (c *Collector) protect(page *Page) {
	if page.generation <= 1 || c.Protector == nil {
		return
	}
	if err := c.Protector.Protect(page.region.Aligned, platform.ProtectReadOnly); err == nil {
		page.flags |= FlagProtected
	}
}

func (c *Collector) unprotect(page *Page) {
	if c.Protector == nil || page.flags&FlagProtected == 0 {
		return
	}
	if err := c.Protector.Protect(page.region.Aligned, platform.ProtectReadWrite); err == nil {
		page.flags &^= FlagProtected
	}
}
