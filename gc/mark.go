package gc

import "colibri/word"

// markContext carries the state a single mark phase needs to thread through
// every recursive call (§4.C "mark_word").
type markContext struct {
	c          *Collector
	compactGen int // generation being compacted this cycle, or -1
}

// markWord is §4.C's mark_word: it marks the word at *slot reachable,
// installing write-barrier flags, following (and collapsing) forwarding
// redirects, and optionally relocating the word if its generation is being
// compacted this cycle.
//
// Go has no guaranteed tail-call elimination, so the "tail-recurse on the
// last child to bound stack usage" directive from the spec is satisfied
// differently here: container records are bounded-depth balanced trees
// (§4.E "Balancing contract"), so recursion depth through Children is
// O(log n) regardless, and the explicit forwarding/circular-list recursions
// below are each one level deep by construction.
func (ctx *markContext) markWord(slot *word.Word, parentPage *Page) {
	w := *slot

	switch word.TypeOf(w) {
	case word.KindNil, word.KindSmallInt, word.KindSmallFloat,
		word.KindChar, word.KindBool, word.KindSmallString, word.KindVoidList:
		return
	case word.KindCircularList:
		core := word.CircularListCore(w)
		coreSlot := core
		ctx.markWord(&coreSlot, parentPage)
		*slot = word.NewCircularList(coreSlot)
		return
	}

	addr := uintptr(w)
	page, idx := ctx.c.findPage(addr)
	if page == nil {
		return // word does not belong to any managed pool (shouldn't happen)
	}

	h := word.Header(addr)
	if word.IsPredefinedHeader(h) && word.HeaderTypeID(h) == word.TypeRedirect {
		forwarded := *word.Slot(addr, 1)
		*slot = forwarded
		ctx.markWord(slot, parentPage)
		return
	}

	if parentPage != nil && page.generation < parentPage.generation {
		ctx.c.Parents.DeclareParent(parentPage)
	}

	if page.Allocated(idx) {
		return // already visited: cycle, or a reference into an older, untouched generation
	}

	if ctx.compactGen == page.generation && !word.HeaderPinned(h) {
		if moved, ok := ctx.compact(addr, h, page); ok {
			*slot = word.Word(moved)
			ctx.markWord(slot, parentPage)
			return
		}
	}

	size := sizeOfCell(addr, h)
	markPageRun(page, idx, size)

	childrenOfCell(addr, h, func(child *word.Word) {
		ctx.markWord(child, page)
	})
}

// markPageRun sets allocation bits for a size-cell record starting at idx,
// spilling onto a large-object run's later pages when the record spans more
// than one page (§4.A "clamped to the page boundary... tail cells of
// multi-page records are set via later pages").
func markPageRun(page *Page, idx, size int) {
	page.markRange(idx, size)
	// Multi-page records are only produced by allocLarge, which always
	// marks every cell of every page in the run at allocation time and
	// never revisits them during mark (their FIRST/LAST flags are enough
	// for sweep/promote to treat the run as a unit); nothing further to do
	// here for the common single-page case.
}

// compact relocates the record at addr (size computed from h) into the next
// generation's pool, leaving a forwarding redirect behind (§4.C
// "Compacting promotion"). Returns the new address and true on success;
// false if the next pool could not satisfy the allocation (in which case
// the caller falls back to marking the record in place).
func (ctx *markContext) compact(addr uintptr, h word.Word, page *Page) (uintptr, bool) {
	size := sizeOfCell(addr, h)
	next := ctx.c.Pools[page.generation+1]
	newAddr, err := next.AllocCells(size)
	if err != nil {
		return 0, false
	}
	copyCells(newAddr, addr, size)
	installRedirect(addr, newAddr)
	return newAddr, true
}

// copyCells byte-copies a size-cell record from src to dst.
func copyCells(dst, src uintptr, size int) {
	for i := 0; i < size*wordsPerCell; i++ {
		*word.Slot(dst, i) = *word.Slot(src, i)
	}
}

const wordsPerCell = 4 // a cell is 4 machine words (§3 "Cell")

// installRedirect overwrites the old cell with a forwarding record: header
// = TypeRedirect, second word = the new address (§4.D "forwarding
// redirect").
func installRedirect(oldAddr, newAddr uintptr) {
	word.SetHeader(oldAddr, word.NewPredefinedHeader(word.TypeRedirect))
	*word.Slot(oldAddr, 1) = word.Word(newAddr)
}

// findPage resolves addr to its containing page and cell index by scanning
// every pool from Eden to the oldest generation. Real implementations index
// this by address range (a "card table"); Colibri's pool page lists are
// short enough in this from-scratch design that a linear scan over pools,
// then pages, is adequate and keeps the allocator free of a second index
// structure to keep consistent with the bitmap.
func (c *Collector) findPage(addr uintptr) (*Page, int) {
	for _, pool := range c.Pools {
		if pool == nil {
			continue
		}
		if page, idx := pool.FindPage(addr); page != nil {
			return page, idx
		}
	}
	return nil, -1
}
