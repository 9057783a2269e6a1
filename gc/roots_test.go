package gc

import (
	"testing"

	"colibri/word"
)

func noopSetPinned(word.Word, bool) {}

func TestRootRegistryPreserveReleaseRoundTrip(t *testing.T) {
	p := NewPool(1)
	addr, _ := p.AllocCells(1)
	w := word.Word(addr)

	r := NewRootRegistry()
	r.Preserve(w, 1, noopSetPinned)
	if r.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 after one Preserve", r.Size())
	}

	r.Preserve(w, 1, noopSetPinned) // refcount bump, not a second entry
	if r.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 after a second Preserve of the same word", r.Size())
	}

	r.Release(w, noopSetPinned)
	if r.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 after releasing one of two references", r.Size())
	}

	r.Release(w, noopSetPinned)
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 after releasing the last reference", r.Size())
	}
}

func TestRootRegistryPreserveImmediateIsNoop(t *testing.T) {
	r := NewRootRegistry()
	r.Preserve(word.NewSmallInt(42), 1, noopSetPinned)
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 for an immediate word", r.Size())
	}
}

func TestRootRegistryWalkVisitsByGeneration(t *testing.T) {
	p := NewPool(1)
	a1, _ := p.AllocCells(1)
	a2, _ := p.AllocCells(1)
	w1, w2 := word.Word(a1), word.Word(a2)

	r := NewRootRegistry()
	r.Preserve(w1, 1, noopSetPinned)
	r.Preserve(w2, 3, noopSetPinned)

	seen := map[word.Word]bool{}
	r.Walk(1, func(w word.Word, _ *rootLeafHandle) { seen[w] = true })
	if !seen[w1] || seen[w2] {
		t.Fatalf("Walk(1) visited %v, want only w1", seen)
	}

	seen = map[word.Word]bool{}
	r.Walk(3, func(w word.Word, _ *rootLeafHandle) { seen[w] = true })
	if !seen[w1] || !seen[w2] {
		t.Fatalf("Walk(3) visited %v, want both", seen)
	}
}

func TestRootRegistryManyKeysSurviveInsertAndDelete(t *testing.T) {
	p := NewPool(1)
	r := NewRootRegistry()
	var words []word.Word
	for i := 0; i < 1000; i++ {
		addr, err := p.AllocCells(1)
		if err != nil {
			t.Fatalf("AllocCells: %v", err)
		}
		w := word.Word(addr)
		words = append(words, w)
		r.Preserve(w, 1, noopSetPinned)
	}
	if r.Size() != 1000 {
		t.Fatalf("Size() = %d, want 1000", r.Size())
	}
	for _, w := range words {
		r.Release(w, noopSetPinned)
	}
	if r.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 after releasing every root", r.Size())
	}
}
