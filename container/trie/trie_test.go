package trie

import (
	"fmt"
	"testing"

	"colibri/gc"
	"colibri/word"
)

func TestIntTrieSetGetDelete(t *testing.T) {
	pool := gc.NewPool(1)
	m, err := NewInt(pool)
	if err != nil {
		t.Fatalf("NewInt: %v", err)
	}
	for i := 0; i < 500; i++ {
		if err := Set(pool, m, word.NewSmallInt(int64(i)), word.NewSmallInt(int64(i+1))); err != nil {
			t.Fatalf("Set(%d): %v", i, err)
		}
	}
	if Count(m) != 500 {
		t.Fatalf("Count = %d, want 500", Count(m))
	}
	for i := 0; i < 500; i++ {
		v, err := Get(m, word.NewSmallInt(int64(i)))
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if word.SmallIntValue(v) != int64(i+1) {
			t.Fatalf("Get(%d) = %d, want %d", i, word.SmallIntValue(v), i+1)
		}
	}
	if err := Delete(m, word.NewSmallInt(250)); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Get(m, word.NewSmallInt(250)); err != ErrKeyNotFound {
		t.Fatalf("Get after Delete: err = %v, want ErrKeyNotFound", err)
	}
	if Count(m) != 499 {
		t.Fatalf("Count after Delete = %d, want 499", Count(m))
	}
}

func TestStringTrieSetIterate(t *testing.T) {
	pool := gc.NewPool(1)
	m, err := NewString(pool)
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	want := map[string]int64{}
	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		k, ok := word.NewSmallString([]byte(key))
		if !ok {
			t.Fatalf("key %q too long for an inline small string", key)
		}
		if err := Set(pool, m, k, word.NewSmallInt(int64(i))); err != nil {
			t.Fatalf("Set: %v", err)
		}
		want[key] = int64(i)
	}

	got := map[string]int64{}
	Iterate(m, func(k, v word.Word) bool {
		got[string(word.SmallStringValue(k))] = word.SmallIntValue(v)
		return true
	})
	if len(got) != len(want) {
		t.Fatalf("Iterate visited %d entries, want %d", len(got), len(want))
	}
}

func TestTrieCopyIsIndependent(t *testing.T) {
	pool := gc.NewPool(1)
	m, _ := NewInt(pool)
	Set(pool, m, word.NewSmallInt(1), word.NewSmallInt(10))

	c, err := Copy(pool, m)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	Set(pool, c, word.NewSmallInt(2), word.NewSmallInt(20))

	if Count(m) != 1 {
		t.Fatalf("original Count = %d, want 1", Count(m))
	}
	if Count(c) != 2 {
		t.Fatalf("copy Count = %d, want 2", Count(c))
	}
}
