package colibri

import (
	"fmt"
	"testing"

	"colibri/container/hashmap"
	"colibri/container/list"
	"colibri/container/rope"
	"colibri/container/trie"
	"colibri/gc"
	"colibri/word"
)

func TestLibraryLifecycle(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	lib.Enter()
	v, err := rope.New(lib.Pool(), "hello")
	if err != nil {
		t.Fatalf("rope.New: %v", err)
	}
	if err := lib.Preserve(v); err != nil {
		t.Fatalf("Preserve: %v", err)
	}
	lib.Leave()

	lib.Enter()
	lib.ForceCycle()
	lib.Leave()

	if rope.Length(v) != 5 {
		t.Fatalf("rooted rope did not survive a forced cycle: Length = %d, want 5", rope.Length(v))
	}
}

func TestPreserveWithoutRegionFails(t *testing.T) {
	lib, _ := New()
	defer lib.Close()
	if err := lib.Preserve(word.NewSmallInt(1)); err != gc.ErrProtectViolation {
		t.Fatalf("Preserve outside a region: err = %v, want gc.ErrProtectViolation", err)
	}
}

func TestManySmallStringsReclaimed(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	lib.Enter()
	var kept word.Word
	for i := 0; i < 10000; i++ {
		r, err := rope.New(lib.Pool(), fmt.Sprintf("s%d", i))
		if err != nil {
			t.Fatalf("rope.New: %v", err)
		}
		if i == 9999 {
			kept = r
			if err := lib.Preserve(kept); err != nil {
				t.Fatalf("Preserve: %v", err)
			}
		}
	}
	before := lib.Pool().LiveCells
	lib.Leave()

	lib.Enter()
	lib.ForceCycle()
	lib.Leave()

	after := lib.Pool().LiveCells
	if after >= before {
		t.Fatalf("expected unrooted strings to be reclaimed: before=%d after=%d", before, after)
	}
	if rope.Length(kept) == 0 {
		t.Fatal("the one preserved rope should have survived")
	}
}

func TestPreservedTrieSurvivesCycle(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	lib.Enter()
	acc, err := trie.NewInt(lib.Pool())
	if err != nil {
		t.Fatalf("trie.NewInt: %v", err)
	}
	if err := lib.Preserve(acc); err != nil {
		t.Fatalf("Preserve: %v", err)
	}
	lib.Leave()

	for i := 0; i < 1000; i++ {
		lib.Enter()
		if err := trie.Set(lib.Pool(), acc, word.NewSmallInt(int64(i)), word.NewSmallInt(int64(i))); err != nil {
			t.Fatalf("trie.Set(%d): %v", i, err)
		}
		lib.Leave()
	}

	if trie.Count(acc) != 1000 {
		t.Fatalf("Count = %d, want 1000", trie.Count(acc))
	}

	lib.Enter()
	lib.ForceCycle()
	lib.Leave()

	if trie.Count(acc) != 1000 {
		t.Fatalf("Count after cycle = %d, want 1000 (rooted)", trie.Count(acc))
	}

	lib.Enter()
	if err := lib.Release(acc); err != nil {
		t.Fatalf("Release: %v", err)
	}
	lib.Leave()
}

func TestIntHashMapCopyOnWrite(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	lib.Enter()
	m, err := hashmap.NewInt(lib.Pool())
	if err != nil {
		t.Fatalf("NewInt: %v", err)
	}
	for i := 0; i < 10000; i++ {
		m, err = hashmap.Set(lib.Pool(), m, word.NewSmallInt(int64(i)), word.NewSmallInt(int64(i)))
		if err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	snapshot, err := hashmap.Copy(lib.Pool(), m)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	m, err = hashmap.Set(lib.Pool(), m, word.NewSmallInt(10000), word.NewSmallInt(10000))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	lib.Leave()

	if hashmap.Count(snapshot) != 10000 {
		t.Fatalf("snapshot Count = %d, want 10000 (unaffected by later mutation)", hashmap.Count(snapshot))
	}
	if hashmap.Count(m) != 10001 {
		t.Fatalf("live map Count = %d, want 10001", hashmap.Count(m))
	}
}

func TestStringTrieIterateAndDelete(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	lib.Enter()
	m, err := trie.NewString(lib.Pool())
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	for i := 0; i < 100; i++ {
		k, ok := word.NewSmallString([]byte(fmt.Sprintf("k%d", i)))
		if !ok {
			t.Fatalf("key too long at i=%d", i)
		}
		if err := trie.Set(lib.Pool(), m, k, word.NewSmallInt(int64(i))); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	k50, _ := word.NewSmallString([]byte("k50"))
	if err := trie.Delete(m, k50); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	lib.Leave()

	count := 0
	trie.Iterate(m, func(word.Word, word.Word) bool { count++; return true })
	if count != 99 {
		t.Fatalf("Iterate visited %d entries, want 99", count)
	}
}

func TestRopeConcatDepthAndAt(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	lib.Enter()
	var r word.Word = word.NewVoidList(0)
	for i := 0; i < 40; i++ {
		chunk, err := rope.New(lib.Pool(), fmt.Sprintf("chunk%02d-", i))
		if err != nil {
			t.Fatalf("rope.New: %v", err)
		}
		r, err = rope.Concat(lib.Pool(), r, chunk)
		if err != nil {
			t.Fatalf("rope.Concat: %v", err)
		}
	}
	lib.Leave()

	if !rope.IsBalanced(r) {
		t.Fatal("concatenated rope should stay within the Fibonacci balance bound")
	}
	ch, err := rope.At(r, 0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if ch != 'c' {
		t.Fatalf("At(0) = %q, want 'c'", ch)
	}
}

func TestVoidListSublist(t *testing.T) {
	lib, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer lib.Close()

	const n = 1 << 20
	full := word.NewVoidList(n)
	lib.Enter()
	s, err := list.Sublist(lib.Pool(), full, 10, 100)
	if err != nil {
		t.Fatalf("Sublist: %v", err)
	}
	lib.Leave()

	if list.Length(s) != 100 {
		t.Fatalf("Length(sublist) = %d, want 100", list.Length(s))
	}
	v, err := list.At(s, 0)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if v != word.Nil {
		t.Fatalf("At(0) of a void-list sublist = %v, want Nil", v)
	}
}
