package word

// SynonymSlot is satisfied by any in-heap record whose second cell word is
// reserved for the circular "next synonym" back-pointer (Design Notes:
// "Pointer-graph cycles"). The chain has no designated head and no order;
// it is an honest cycle, modeled as a collection of interior pointers rather
// than a pointer-keyed external map.
type SynonymSlot interface {
	Self() Word        // this record's own cell word
	NextSynonym() Word
	SetNextSynonym(Word)
}

// AddSynonym splices a's chain and b's chain together. A bare word with no
// synonym slot must already have been wrapped (TypeWrap) by the caller;
// AddSynonym only operates on records that implement SynonymSlot.
func AddSynonym(a, b SynonymSlot) {
	if a == nil || b == nil || a.Self() == b.Self() {
		return
	}
	an, bn := a.NextSynonym(), b.NextSynonym()
	if an == Nil {
		an = a.Self()
	}
	if bn == Nil {
		bn = b.Self()
	}
	a.SetNextSynonym(bn)
	b.SetNextSynonym(an)
}

// ClearSynonym removes s from its chain. lookup resolves a cell word to its
// SynonymSlot view so the walk can follow "next" pointers without the
// generic word package knowing any concrete cell layout.
func ClearSynonym(s SynonymSlot, lookup func(Word) SynonymSlot) {
	next := s.NextSynonym()
	if next == Nil || next == s.Self() {
		s.SetNextSynonym(Nil)
		return
	}
	// Walk the cycle to find the predecessor whose next == s.
	prev := lookup(next)
	for prev != nil && prev.NextSynonym() != s.Self() {
		prev = lookup(prev.NextSynonym())
	}
	if prev != nil {
		if next == s.Self() {
			prev.SetNextSynonym(prev.Self())
		} else {
			prev.SetNextSynonym(next)
		}
	}
	s.SetNextSynonym(Nil)
}
