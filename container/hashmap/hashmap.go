// Package hashmap implements Colibri's hash map container (§4.E.4): a
// power-of-two bucket array of chained entries, keyed by small integers or
// strings (custom key types have no hashing or comparison hook), with
// copy-on-write growth and mutation.
package hashmap

import (
	"errors"
	"hash/fnv"

	"colibri/gc"
	"colibri/word"
)

// ErrKeyNotFound is returned by Get when the key has no entry.
var ErrKeyNotFound = errors.New("hashmap: key not found")

const initialBucketCount = 8

// Map cell layout: header | bucketCount | entryCount | bucket[0..bucketCount).
const (
	fieldHeader      = 0
	fieldBucketCount = 1
	fieldEntryCount  = 2
	fieldBucketsAt   = 3
)

// Entry cell layout (string/custom-keyed): header | next | hash | key | value
const (
	entryHeader = 0
	entryNext   = 1
	entryHash   = 2
	entryKey    = 3
	entryValue  = 4
	entryCells  = 2 // CellsNeeded(5*8) == 2
)

// Int-entry cell layout: header | next | key(int64-as-Word) | value
const (
	intEntryHeader = 0
	intEntryNext   = 1
	intEntryKey    = 2
	intEntryValue  = 3
	intEntryCells  = 1
)

func init() {
	gc.RegisterTypeOps(word.TypeStrHashMap, gc.TypeOps{Cells: mapCellCount, Children: mapChildren})
	gc.RegisterTypeOps(word.TypeIntHashMap, gc.TypeOps{Cells: mapCellCount, Children: mapChildren})
	gc.RegisterTypeOps(word.TypeHashEntry, gc.TypeOps{Cells: entryCellCount, Children: entryChildren})
	gc.RegisterTypeOps(word.TypeMHashEntry, gc.TypeOps{Cells: entryCellCount, Children: entryChildren})
	gc.RegisterTypeOps(word.TypeIntHashEntry, gc.TypeOps{Cells: intEntryCellCount, Children: intEntryChildren})
	gc.RegisterTypeOps(word.TypeMIntHashEntry, gc.TypeOps{Cells: intEntryCellCount, Children: intEntryChildren})
}

func mapCellCount(addr uintptr) int {
	n := int(*word.Slot(addr, fieldBucketCount))
	return word.CellsNeeded((fieldBucketsAt + n) * 8)
}

func mapChildren(addr uintptr, emit func(*word.Word)) {
	n := int(*word.Slot(addr, fieldBucketCount))
	for i := 0; i < n; i++ {
		emit(word.Slot(addr, fieldBucketsAt+i))
	}
}

func entryCellCount(addr uintptr) int { return entryCells }
func entryChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, entryNext))
	emit(word.Slot(addr, entryKey))
	emit(word.Slot(addr, entryValue))
}

func intEntryCellCount(addr uintptr) int { return intEntryCells }
func intEntryChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, intEntryNext))
	emit(word.Slot(addr, intEntryValue))
}

// NewString allocates an empty string-keyed hash map.
func NewString(pool *gc.Pool) (word.Word, error) {
	return newMap(pool, word.TypeStrHashMap, initialBucketCount)
}

// NewInt allocates an empty small-integer-keyed hash map.
func NewInt(pool *gc.Pool) (word.Word, error) {
	return newMap(pool, word.TypeIntHashMap, initialBucketCount)
}

func newMap(pool *gc.Pool, id word.TypeID, buckets int) (word.Word, error) {
	addr, err := pool.AllocCells(word.CellsNeeded((fieldBucketsAt + buckets) * 8))
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, fieldBucketCount) = word.Word(buckets)
	*word.Slot(addr, fieldEntryCount) = 0
	for i := 0; i < buckets; i++ {
		*word.Slot(addr, fieldBucketsAt+i) = word.Nil
	}
	return word.Word(addr), nil
}

// Count returns the number of entries in m.
func Count(m word.Word) int {
	return int(*word.Slot(uintptr(m), fieldEntryCount))
}

func bucketCount(m word.Word) int {
	return int(*word.Slot(uintptr(m), fieldBucketCount))
}

func isIntMap(m word.Word) bool {
	id := word.HeaderTypeID(word.Header(uintptr(m)))
	return id == word.TypeIntHashMap
}

// hashString computes an entry's bucket hash (§4.E.4 "hash procedure").
func hashString(key []byte) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}

func keyBytes(key word.Word) []byte {
	if word.TypeOf(key) == word.KindSmallString {
		return word.SmallStringValue(key)
	}
	// Flat UTF-8/UCS string leaves store their raw bytes starting at cell
	// offset 1; reused verbatim by the rope leaf layout (container/rope).
	n := int(*word.Slot(uintptr(key), 1))
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(*word.Slot(uintptr(key), 2+i/8) >> (8 * uint(i%8)))
	}
	return b
}

func bucketFor(m word.Word, key word.Word) int {
	nb := bucketCount(m)
	if isIntMap(m) {
		return int(uint64(word.SmallIntValue(key))) % nb
	}
	return int(hashString(keyBytes(key)) % uint64(nb))
}

// Get looks up key in m, returning its value or ErrKeyNotFound.
func Get(m, key word.Word) (word.Word, error) {
	idx := bucketFor(m, key)
	head := *word.Slot(uintptr(m), fieldBucketsAt+idx)
	if isIntMap(m) {
		for e := head; e != word.Nil; e = *word.Slot(uintptr(e), intEntryNext) {
			if *word.Slot(uintptr(e), intEntryKey) == key {
				return *word.Slot(uintptr(e), intEntryValue), nil
			}
		}
		return 0, ErrKeyNotFound
	}
	for e := head; e != word.Nil; e = *word.Slot(uintptr(e), entryNext) {
		if keyEquals(*word.Slot(uintptr(e), entryKey), key) {
			return *word.Slot(uintptr(e), entryValue), nil
		}
	}
	return 0, ErrKeyNotFound
}

func keyEquals(a, b word.Word) bool {
	if a == b {
		return true
	}
	if word.TypeOf(a) != word.KindCell && word.TypeOf(b) != word.KindCell {
		return false
	}
	ab, bb := keyBytes(a), keyBytes(b)
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}

// Set inserts or overwrites key's value in m, growing the bucket array when
// the load factor exceeds 1 entry per bucket (§4.E.4 "growHash"). Returns
// the map word, which may have changed if a grow occurred.
func Set(pool *gc.Pool, m, key, value word.Word) (word.Word, error) {
	if Count(m)+1 > bucketCount(m) {
		grown, err := growHash(pool, m)
		if err != nil {
			return 0, err
		}
		m = grown
	}
	idx := bucketFor(m, key)
	addr := uintptr(m)
	headSlot := word.Slot(addr, fieldBucketsAt+idx)

	if isIntMap(m) {
		for e := *headSlot; e != word.Nil; e = *word.Slot(uintptr(e), intEntryNext) {
			if *word.Slot(uintptr(e), intEntryKey) == key {
				*word.Slot(uintptr(e), intEntryValue) = value
				return m, nil
			}
		}
		entry, err := pool.AllocCells(intEntryCells)
		if err != nil {
			return 0, err
		}
		word.SetHeader(entry, word.NewPredefinedHeader(word.TypeIntHashEntry))
		*word.Slot(entry, intEntryNext) = *headSlot
		*word.Slot(entry, intEntryKey) = key
		*word.Slot(entry, intEntryValue) = value
		*headSlot = word.Word(entry)
		*word.Slot(addr, fieldEntryCount) = word.Word(Count(m) + 1)
		return m, nil
	}

	for e := *headSlot; e != word.Nil; e = *word.Slot(uintptr(e), entryNext) {
		if keyEquals(*word.Slot(uintptr(e), entryKey), key) {
			*word.Slot(uintptr(e), entryValue) = value
			return m, nil
		}
	}
	entry, err := pool.AllocCells(entryCells)
	if err != nil {
		return 0, err
	}
	word.SetHeader(entry, word.NewPredefinedHeader(word.TypeHashEntry))
	*word.Slot(entry, entryNext) = *headSlot
	*word.Slot(entry, entryKey) = key
	*word.Slot(entry, entryValue) = value
	*headSlot = word.Word(entry)
	*word.Slot(addr, fieldEntryCount) = word.Word(Count(m) + 1)
	return m, nil
}

// Unset removes key's entry from m, if present.
func Unset(m, key word.Word) {
	idx := bucketFor(m, key)
	addr := uintptr(m)
	headSlot := word.Slot(addr, fieldBucketsAt+idx)
	if isIntMap(m) {
		prev := (*word.Word)(nil)
		for e := *headSlot; e != word.Nil; {
			next := *word.Slot(uintptr(e), intEntryNext)
			if *word.Slot(uintptr(e), intEntryKey) == key {
				if prev == nil {
					*headSlot = next
				} else {
					*prev = next
				}
				*word.Slot(addr, fieldEntryCount) = word.Word(Count(m) - 1)
				return
			}
			prev = word.Slot(uintptr(e), intEntryNext)
			e = next
		}
		return
	}
	prev := (*word.Word)(nil)
	for e := *headSlot; e != word.Nil; {
		next := *word.Slot(uintptr(e), entryNext)
		if keyEquals(*word.Slot(uintptr(e), entryKey), key) {
			if prev == nil {
				*headSlot = next
			} else {
				*prev = next
			}
			*word.Slot(addr, fieldEntryCount) = word.Word(Count(m) - 1)
			return
		}
		prev = word.Slot(uintptr(e), entryNext)
		e = next
	}
}

// growHash doubles m's bucket count, allocating the new bucket array exactly
// once and relinking every existing entry into it (Open Question: the
// original's equivalent rehash allocates the new container twice; this
// implementation allocates once, see DESIGN.md).
func growHash(pool *gc.Pool, m word.Word) (word.Word, error) {
	id := word.HeaderTypeID(word.Header(uintptr(m)))
	oldBuckets := bucketCount(m)
	newBuckets := oldBuckets * 2

	addr, err := pool.AllocCells(word.CellsNeeded((fieldBucketsAt + newBuckets) * 8))
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, fieldBucketCount) = word.Word(newBuckets)
	*word.Slot(addr, fieldEntryCount) = *word.Slot(uintptr(m), fieldEntryCount)
	for i := 0; i < newBuckets; i++ {
		*word.Slot(addr, fieldBucketsAt+i) = word.Nil
	}
	newWord := word.Word(addr)

	for i := 0; i < oldBuckets; i++ {
		for e := *word.Slot(uintptr(m), fieldBucketsAt+i); e != word.Nil; {
			var key, next word.Word
			if isIntMap(m) {
				key = *word.Slot(uintptr(e), intEntryKey)
				next = *word.Slot(uintptr(e), intEntryNext)
			} else {
				key = *word.Slot(uintptr(e), entryKey)
				next = *word.Slot(uintptr(e), entryNext)
			}
			idx := bucketFor(newWord, key)
			headSlot := word.Slot(addr, fieldBucketsAt+idx)
			if isIntMap(m) {
				*word.Slot(uintptr(e), intEntryNext) = *headSlot
			} else {
				*word.Slot(uintptr(e), entryNext) = *headSlot
			}
			*headSlot = e
			e = next
		}
	}
	return newWord, nil
}

// Copy performs the map's copy-on-write clone (§4.E.4 "copy(map)"): a fresh
// bucket array sharing every existing entry in place, since entries
// themselves are never mutated by Set (only relinked).
func Copy(pool *gc.Pool, m word.Word) (word.Word, error) {
	id := word.HeaderTypeID(word.Header(uintptr(m)))
	nb := bucketCount(m)
	addr, err := pool.AllocCells(word.CellsNeeded((fieldBucketsAt + nb) * 8))
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, fieldBucketCount) = word.Word(nb)
	*word.Slot(addr, fieldEntryCount) = *word.Slot(uintptr(m), fieldEntryCount)
	for i := 0; i < nb; i++ {
		*word.Slot(addr, fieldBucketsAt+i) = *word.Slot(uintptr(m), fieldBucketsAt+i)
	}
	return word.Word(addr), nil
}

// Iterate calls fn for every key/value pair in m, in bucket order.
func Iterate(m word.Word, fn func(key, value word.Word) bool) {
	nb := bucketCount(m)
	for i := 0; i < nb; i++ {
		e := *word.Slot(uintptr(m), fieldBucketsAt+i)
		for e != word.Nil {
			var key, value, next word.Word
			if isIntMap(m) {
				key = *word.Slot(uintptr(e), intEntryKey)
				value = *word.Slot(uintptr(e), intEntryValue)
				next = *word.Slot(uintptr(e), intEntryNext)
			} else {
				key = *word.Slot(uintptr(e), entryKey)
				value = *word.Slot(uintptr(e), entryValue)
				next = *word.Slot(uintptr(e), entryNext)
			}
			if !fn(key, value) {
				return
			}
			e = next
		}
	}
}
