package gc

import (
	"container/list"
	"errors"

	"colibri/platform"
	"colibri/word"
)

// ErrOutOfPages is reported when the platform cannot supply another page
// (§4.A "Failure semantics": allocation never returns a null handle to
// clients, it escalates through the error hook instead).
var ErrOutOfPages = errors.New("gc: out of pages")

// Pool owns every page of one generation. Generation 0 is the unused root
// pool; 1 is Eden (per thread); 2..MaxGenerations-1 are shared older
// generations (§3 "Pools").
type Pool struct {
	Generation int

	pages *list.List // *Page, oldest-first; mirrors pager.Pager's page list

	// runHints caches the last free-cell index found for each run size, to
	// accelerate the linear bitmap scan (§4.A "Key policies"). Reset by
	// ClearBitmap at the start of each GC cycle that collects this pool.
	runHints map[int]int

	// Counters (§3 "Pool"): pages, allocations since last GC, GC cycles
	// completed, live cells.
	PageCount      int
	AllocSinceGC   int
	CyclesComplete int
	LiveCells      int

	// sweepList holds finalizable custom words awaiting GC sweep (§3 "The
	// sweep list of pool g").
	sweepList []word.Word
}

// NewPool creates an empty pool for the given generation.
func NewPool(generation int) *Pool {
	return &Pool{
		Generation: generation,
		pages:      list.New(),
		runHints:   make(map[int]int),
	}
}

// AllocCells finds or creates a run of n contiguous free cells within a
// single page (or, for n >= word.LargePageThreshold, a dedicated multi-page
// run) and marks them allocated, returning the address of the first cell
// (§4.A "alloc_cells").
func (p *Pool) AllocCells(n int) (uintptr, error) {
	if n >= word.LargePageThreshold {
		return p.allocLarge(n)
	}

	hint := p.runHints[n]
	for e := p.pages.Front(); e != nil; e = e.Next() {
		pg := e.Value.(*Page)
		if pg.runLen != 0 {
			continue // part of a dedicated large-object run
		}
		if idx := pg.findRun(n, hint); idx >= 0 {
			pg.markRange(idx, n)
			p.runHints[n] = idx + n
			p.AllocSinceGC++
			p.LiveCells += n
			return pg.CellAddr(idx), nil
		}
	}

	pg, err := newPage(p.Generation)
	if err != nil {
		return 0, ErrOutOfPages
	}
	pg.markRange(0, n)
	p.pages.PushBack(pg)
	p.PageCount++
	p.runHints[n] = n
	p.AllocSinceGC++
	p.LiveCells += n
	return pg.CellAddr(0), nil
}

// allocLarge satisfies requests at or above word.LargePageThreshold with a
// dedicated multi-page run, flagged FIRST/LAST, that never shares cells with
// unrelated allocations (§4.A "for large requests").
func (p *Pool) allocLarge(n int) (uintptr, error) {
	pagesNeeded := (n + usableCells - 1) / usableCells
	// One reservation backs the whole run so the record's cells are
	// contiguous in memory; each page is a page-sized window onto it.
	run, err := platform.Reserve(pagesNeeded*word.PageSize, word.CellSize)
	if err != nil {
		return 0, ErrOutOfPages
	}
	first := &Page{generation: p.Generation, region: &platform.Region{Aligned: run.Aligned[:word.PageSize]}}
	first.flags |= FlagFirst
	first.runLen = pagesNeeded
	first.markRange(0, usableCells)
	p.pages.PushBack(first)
	p.PageCount++

	remaining := n - usableCells
	last := first
	for k := 1; remaining > 0; k++ {
		pg := &Page{generation: p.Generation, region: &platform.Region{Aligned: run.Aligned[k*word.PageSize : (k+1)*word.PageSize]}}
		fill := remaining
		if fill > usableCells {
			fill = usableCells
		}
		pg.markRange(0, fill)
		p.pages.PushBack(pg)
		p.PageCount++
		last = pg
		remaining -= fill
	}
	last.flags |= FlagLast
	p.AllocSinceGC++
	p.LiveCells += n
	return first.CellAddr(0), nil
}

// FreeEmptyPages releases pages whose allocation bitmap is entirely zero
// back to the platform (§4.A "free_empty_pages"). Pages belonging to a
// multi-page large-object run are freed only as a complete run.
func (p *Pool) FreeEmptyPages() int {
	freed := 0
	var next *list.Element
	for e := p.pages.Front(); e != nil; e = next {
		next = e.Next()
		pg := e.Value.(*Page)
		if pg.runLen != 0 {
			continue // large-object runs are freed as a unit elsewhere
		}
		if pg.Empty() {
			pg.region.Release()
			p.pages.Remove(e)
			p.PageCount--
			freed++
		}
	}
	return freed
}

// ClearBitmap zeroes every page's allocation bitmap (§4.A "clear_bitmap",
// called at the start of mark).
func (p *Pool) ClearBitmap() {
	for e := p.pages.Front(); e != nil; e = e.Next() {
		e.Value.(*Page).ClearBitmap()
	}
	p.runHints = make(map[int]int)
}

// RecountLiveCells recomputes LiveCells from each page's post-mark bitmap
// popcount (§4.C step 8, "live_cells becomes whatever mark actually found
// reachable, not whatever alloc_cells had tallied before the cycle").
func (p *Pool) RecountLiveCells() {
	total := 0
	for e := p.pages.Front(); e != nil; e = e.Next() {
		total += e.Value.(*Page).popcount()
	}
	p.LiveCells = total
}

// FindPage returns the page containing addr and addr's cell index within
// it, or (nil, -1) if no page of this pool contains addr.
func (p *Pool) FindPage(addr uintptr) (*Page, int) {
	for e := p.pages.Front(); e != nil; e = e.Next() {
		pg := e.Value.(*Page)
		if idx := pg.cellIndex(addr); idx >= 0 {
			return pg, idx
		}
	}
	return nil, -1
}

// ResetCounters zeroes the per-cycle counters of a pool that has just been
// collected (§4.C step 10).
func (p *Pool) ResetCounters() {
	p.AllocSinceGC = 0
	p.CyclesComplete++
}

// PromoteTo splices this pool's entire page list onto the head of next's
// page list, retagging page generations (§4.C step 9). Pages already
// flagged FlagParent keep the flag (and stay unprotected); others are
// re-protected by the caller once they live in the older generation.
func (p *Pool) PromoteTo(next *Pool) []*Page {
	var promoted []*Page
	for e := p.pages.Front(); e != nil; e = e.Next() {
		pg := e.Value.(*Page)
		pg.generation = next.Generation
		promoted = append(promoted, pg)
	}
	next.pages.PushFrontList(p.pages)
	next.PageCount += p.PageCount
	next.LiveCells += p.LiveCells
	p.pages = list.New()
	p.PageCount = 0
	p.LiveCells = 0
	return promoted
}

// ReleaseAll returns every page's backing region to the platform, for
// library shutdown (colibri.Library.Close).
func (p *Pool) ReleaseAll() {
	for e := p.pages.Front(); e != nil; e = e.Next() {
		e.Value.(*Page).region.Release()
	}
	p.pages = list.New()
	p.PageCount = 0
	p.LiveCells = 0
}

// Pages exposes the page list for callers (mark, sweep, threshold) that need
// to walk every page of a pool.
func (p *Pool) Pages() []*Page {
	out := make([]*Page, 0, p.PageCount)
	for e := p.pages.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Page))
	}
	return out
}

// SweepList returns the pool's finalizable-custom-word list.
func (p *Pool) SweepList() []word.Word { return p.sweepList }

// AddSweepable enqueues w on this pool's sweep list at creation time (§3
// "Lifecycle": "finalizable customs are enqueued on creation").
func (p *Pool) AddSweepable(w word.Word) {
	p.sweepList = append(p.sweepList, w)
}

// SetSweepList replaces the sweep list wholesale, used by sweep.go when
// moving survivors to the next generation's list.
func (p *Pool) SetSweepList(ws []word.Word) {
	p.sweepList = ws
}
