package gc

// mergeSweepLists appends a promoted pool's surviving finalizable words onto
// the next generation's sweep list (§4.C step 9: promotion moves a word's
// generation, so its finalizer bookkeeping must move with it rather than
// stay keyed to the pool it no longer lives in).
func mergeSweepLists(from, to *Pool) {
	if len(from.SweepList()) == 0 {
		return
	}
	to.SetSweepList(append(to.SweepList(), from.SweepList()...))
	from.SetSweepList(nil)
}
