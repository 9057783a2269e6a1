package rope

import (
	"strings"
	"testing"

	"colibri/gc"
)

func TestNewAndAt(t *testing.T) {
	pool := gc.NewPool(1)
	s := "hello, colibri"
	r, err := New(pool, s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if Length(r) != len([]rune(s)) {
		t.Fatalf("Length = %d, want %d", Length(r), len([]rune(s)))
	}
	for i, want := range []rune(s) {
		got, err := At(r, i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if got != want {
			t.Fatalf("At(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestConcatAndBalance(t *testing.T) {
	pool := gc.NewPool(1)
	big := strings.Repeat("x", 10000)
	r, err := New(pool, big)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if Length(r) != 10000 {
		t.Fatalf("Length = %d, want 10000", Length(r))
	}
	if !IsBalanced(r) {
		t.Fatal("rope built from chunked leaves should satisfy the Fibonacci balance bound")
	}
}

func TestSubrope(t *testing.T) {
	pool := gc.NewPool(1)
	r, _ := New(pool, "0123456789")
	s, err := Subrope(pool, r, 2, 5)
	if err != nil {
		t.Fatalf("Subrope: %v", err)
	}
	if Length(s) != 5 {
		t.Fatalf("Length(subrope) = %d, want 5", Length(s))
	}
	ch, err := At(s, 0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if ch != '2' {
		t.Fatalf("At(0) = %q, want '2'", ch)
	}
}

func TestUTF8Leaf(t *testing.T) {
	pool := gc.NewPool(1)
	leaf, err := NewUTF8(pool, "héllo")
	if err != nil {
		t.Fatalf("NewUTF8: %v", err)
	}
	want := []rune("héllo")
	if Length(leaf) != len(want) {
		t.Fatalf("Length = %d, want %d", Length(leaf), len(want))
	}
	for i, w := range want {
		got, err := At(leaf, i)
		if err != nil {
			t.Fatalf("At(%d): %v", i, err)
		}
		if got != w {
			t.Fatalf("At(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestIterate(t *testing.T) {
	pool := gc.NewPool(1)
	r, _ := New(pool, "abcde")
	var out []rune
	if err := Iterate(r, func(i int, ch rune) bool {
		out = append(out, ch)
		return true
	}); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if string(out) != "abcde" {
		t.Fatalf("Iterate collected %q, want \"abcde\"", string(out))
	}
}
