package list

import (
	"testing"

	"colibri/gc"
	"colibri/word"
)

func makeElems(n int) []word.Word {
	elems := make([]word.Word, n)
	for i := range elems {
		elems[i] = word.NewSmallInt(int64(i))
	}
	return elems
}

func TestNewAndAt(t *testing.T) {
	pool := gc.NewPool(1)
	l, err := New(pool, makeElems(500))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if Length(l) != 500 {
		t.Fatalf("Length = %d, want 500", Length(l))
	}
	for i := 0; i < 500; i++ {
		v, err := At(l, i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if word.SmallIntValue(v) != int64(i) {
			t.Fatalf("At(%d) = %d, want %d", i, word.SmallIntValue(v), i)
		}
	}
}

func TestEmptyList(t *testing.T) {
	l := Empty()
	if Length(l) != 0 {
		t.Fatalf("Length(Empty()) = %d, want 0", Length(l))
	}
	if _, err := At(l, 0); err != ErrIndexRange {
		t.Fatalf("At(Empty(), 0) err = %v, want ErrIndexRange", err)
	}
}

func TestConcat(t *testing.T) {
	pool := gc.NewPool(1)
	a, _ := New(pool, makeElems(10))
	b, _ := New(pool, makeElems(5))
	c, err := Concat(pool, a, b)
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if Length(c) != 15 {
		t.Fatalf("Length(Concat) = %d, want 15", Length(c))
	}
	last, err := At(c, 14)
	if err != nil {
		t.Fatalf("At(14): %v", err)
	}
	if word.SmallIntValue(last) != 4 {
		t.Fatalf("At(14) = %d, want 4 (b's last element)", word.SmallIntValue(last))
	}
}

func TestSublistAndIterate(t *testing.T) {
	pool := gc.NewPool(1)
	l, _ := New(pool, makeElems(20))
	s, err := Sublist(pool, l, 5, 10)
	if err != nil {
		t.Fatalf("Sublist: %v", err)
	}
	if Length(s) != 10 {
		t.Fatalf("Length(sublist) = %d, want 10", Length(s))
	}
	var collected []int64
	if err := Iterate(s, func(i int, elem word.Word) bool {
		collected = append(collected, word.SmallIntValue(elem))
		return true
	}); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if len(collected) != 10 || collected[0] != 5 || collected[9] != 14 {
		t.Fatalf("collected = %v, want [5..14]", collected)
	}
}

func TestSublistOfSublistCollapses(t *testing.T) {
	pool := gc.NewPool(1)
	l, _ := New(pool, makeElems(20))
	s1, _ := Sublist(pool, l, 2, 15)
	s2, err := Sublist(pool, s1, 3, 5)
	if err != nil {
		t.Fatalf("Sublist: %v", err)
	}
	v, err := At(s2, 0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if word.SmallIntValue(v) != 5 { // l[2+3+0]
		t.Fatalf("At(0) = %d, want 5", word.SmallIntValue(v))
	}
}

func TestCircularList(t *testing.T) {
	pool := gc.NewPool(1)
	core, _ := New(pool, makeElems(3))
	c := Circular(core)
	if word.TypeOf(c) != word.KindCircularList {
		t.Fatal("Circular() did not produce a circular-list word")
	}
	for i, want := range []int64{0, 1, 2, 0, 1, 2, 0} {
		v, err := At(c, i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if word.SmallIntValue(v) != want {
			t.Fatalf("At(%d) = %d, want %d", i, word.SmallIntValue(v), want)
		}
	}
}
