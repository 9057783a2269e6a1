package gc

// parentEntry is a one-cell record in the parent registry's singly-linked
// list (§3 "Parent entry", §4.B "Parent registry"). Modeled as a plain Go
// struct rather than a heap cell for the same reason as rootNode: the
// registry owns these entries, not any user word.
type parentEntry struct {
	next *parentEntry
	page *Page
}

// ParentRegistry tracks pages known to hold at least one cross-generation
// pointer — the write-barrier root set consulted by mark (§4.C step 5).
type ParentRegistry struct {
	head *parentEntry
	seen map[*Page]bool // idempotence within a single GC cycle
}

// NewParentRegistry creates an empty registry.
func NewParentRegistry() *ParentRegistry {
	return &ParentRegistry{seen: make(map[*Page]bool)}
}

// DeclareParent adds a parent-entry for page if it has generation > 1 and
// isn't already recorded this cycle (§4.B "declare_parent"). Eden (gen 1)
// is always collected, so it never needs barrier tracking.
func (pr *ParentRegistry) DeclareParent(page *Page) {
	if page.generation <= 1 || pr.seen[page] {
		return
	}
	page.flags |= FlagParent
	pr.seen[page] = true
	pr.head = &parentEntry{next: pr.head, page: page}
}

// UpdateParents incorporates every page flagged FlagParent that was
// protected-then-touched since the previous cycle (§4.B "update_parents").
// In this implementation pages self-report via DeclareParent at
// write-barrier trip time, so UpdateParents only needs to reset the
// per-cycle idempotence set.
func (pr *ParentRegistry) UpdateParents() {
	pr.seen = make(map[*Page]bool)
}

// Walk invokes fn for every currently-declared parent page.
func (pr *ParentRegistry) Walk(fn func(*Page)) {
	for e := pr.head; e != nil; e = e.next {
		fn(e.page)
	}
}

// PurgeParents drops entries whose page no longer has the PARENT flag set,
// passing every kept page to protect. Nothing in the collector clears
// FlagParent once DeclareParent has set it, so in practice every entry is
// kept (§4.B "purge_parents", §4.C step 6). protect is
// the collector's hook for re-applying OS page protection.
func (pr *ParentRegistry) PurgeParents(protect func(*Page)) {
	var kept *parentEntry
	for e := pr.head; e != nil; {
		next := e.next
		if e.page.flags&FlagParent != 0 {
			e.next = kept
			kept = e
			if protect != nil {
				protect(e.page)
			}
		}
		e = next
	}
	pr.head = kept
}
