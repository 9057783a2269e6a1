package vector

import (
	"testing"

	"colibri/gc"
	"colibri/word"
)

func TestNewAndAt(t *testing.T) {
	pool := gc.NewPool(1)
	elems := []word.Word{word.NewSmallInt(1), word.NewSmallInt(2), word.NewSmallInt(3)}
	v, err := New(pool, 3, elems)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if Length(v) != 3 {
		t.Fatalf("Length = %d, want 3", Length(v))
	}
	for i, want := range elems {
		if got := At(v, i); got != want {
			t.Fatalf("At(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestCapacityExceeded(t *testing.T) {
	pool := gc.NewPool(1)
	_, err := New(pool, 2, []word.Word{word.NewSmallInt(1), word.NewSmallInt(2), word.NewSmallInt(3)})
	if err != ErrCapacity {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
}

func TestAppendAndFreeze(t *testing.T) {
	pool := gc.NewPool(1)
	v, err := NewMutable(pool, 4, nil)
	if err != nil {
		t.Fatalf("NewMutable: %v", err)
	}
	if !IsMutable(v) {
		t.Fatal("expected a mutable vector")
	}
	for i := 0; i < 4; i++ {
		if err := Append(v, word.NewSmallInt(int64(i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := Append(v, word.NewSmallInt(99)); err != ErrCapacity {
		t.Fatalf("Append past capacity: err = %v, want ErrCapacity", err)
	}
	v = Freeze(v)
	if IsMutable(v) {
		t.Fatal("expected an immutable vector after Freeze")
	}
	if Length(v) != 4 {
		t.Fatalf("Length after Freeze = %d, want 4", Length(v))
	}
}

func TestClone(t *testing.T) {
	pool := gc.NewPool(1)
	v, _ := New(pool, 2, []word.Word{word.NewSmallInt(7), word.NewSmallInt(8)})
	c, err := Clone(pool, v, 10)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if Capacity(c) != 10 || Length(c) != 2 {
		t.Fatalf("cloned vector cap=%d len=%d, want 10/2", Capacity(c), Length(c))
	}
	if At(c, 0) != At(v, 0) || At(c, 1) != At(v, 1) {
		t.Fatal("cloned vector elements do not match source")
	}
}
