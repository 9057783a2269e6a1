package gc

import "colibri/word"

// sweepPool walks a pool's finalizable-custom sweep list, freeing words that
// were not marked this cycle and carrying survivors forward (§4.C step 8,
// §3 "Lifecycle": "finalizable customs are enqueued on creation ... and
// walked at sweep time").
//
// Open Question decision (see DESIGN.md): per-type dispatch (sizeOfCell,
// childrenOfCell in typeops.go) is a lookup in the TypeOps registry, one
// entry per type, rather than a fallthrough chain, since the source this
// spec was distilled from relies on fallthrough in the equivalent dispatch
// and that behavior reads as an unintended bug rather than an intended
// cascade (there is no comment marking it as deliberate).
func (c *Collector) sweepPool(pool *Pool) {
	survivors := pool.SweepList()[:0]
	for _, w := range pool.SweepList() {
		addr := uintptr(w)
		page, idx := c.findPage(addr)
		if page == nil {
			continue // already freed by an earlier cycle
		}
		if page.Allocated(idx) {
			survivors = append(survivors, w)
			continue
		}
		finalize(addr, word.Header(addr))
	}
	pool.SetSweepList(append([]word.Word(nil), survivors...))
}

// finalize invokes the record's Free procedure, if any, immediately before
// its cells are reclaimed (§3 "Custom word type", Free field).
func finalize(addr uintptr, h word.Word) {
	if word.IsPredefinedHeader(h) {
		return
	}
	desc := word.HeaderCustomDescriptor(h)
	if desc.Free != nil {
		desc.Free(word.Word(addr))
	}
}
