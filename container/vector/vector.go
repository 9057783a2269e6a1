// Package vector implements Colibri's fixed-capacity array container
// (§4.E.2): a flat run of cells holding length, capacity, and elements
// contiguously, in mutable and immutable variants that share one cell
// layout and flip tag in place on Freeze.
package vector

import (
	"errors"

	"colibri/gc"
	"colibri/word"
)

// ErrCapacity is returned when an operation would grow a vector past the
// capacity it was allocated with (§4.E.2 "Vectors never reallocate;
// capacity is fixed at creation").
var ErrCapacity = errors.New("vector: capacity exceeded")

const (
	offsetLength   = 1
	offsetCapacity = 2
	offsetElements = 3
)

func init() {
	gc.RegisterTypeOps(word.TypeVector, gc.TypeOps{Cells: cellCount, Children: children})
	gc.RegisterTypeOps(word.TypeMutableVector, gc.TypeOps{Cells: cellCount, Children: children})
}

func cellCount(addr uintptr) int {
	capacity := int(*word.Slot(addr, offsetCapacity))
	return word.CellsNeeded((offsetElements + capacity) * 8)
}

func children(addr uintptr, emit func(*word.Word)) {
	n := int(*word.Slot(addr, offsetLength))
	for i := 0; i < n; i++ {
		emit(word.Slot(addr, offsetElements+i))
	}
}

// New allocates an immutable vector of the given capacity, populated with
// elems (len(elems) becomes the vector's length; must be <= capacity).
func New(pool *gc.Pool, capacity int, elems []word.Word) (word.Word, error) {
	return alloc(pool, word.TypeVector, capacity, elems)
}

// NewMutable allocates a mutable vector, whose length can subsequently be
// grown in place up to capacity via Append.
func NewMutable(pool *gc.Pool, capacity int, elems []word.Word) (word.Word, error) {
	return alloc(pool, word.TypeMutableVector, capacity, elems)
}

func alloc(pool *gc.Pool, id word.TypeID, capacity int, elems []word.Word) (word.Word, error) {
	if len(elems) > capacity {
		return 0, ErrCapacity
	}
	cells := word.CellsNeeded((offsetElements + capacity) * 8)
	addr, err := pool.AllocCells(cells)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, offsetLength) = word.Word(len(elems))
	*word.Slot(addr, offsetCapacity) = word.Word(capacity)
	for i, e := range elems {
		*word.Slot(addr, offsetElements+i) = e
	}
	return word.Word(addr), nil
}

// Length returns the vector's current element count.
func Length(v word.Word) int {
	return int(*word.Slot(uintptr(v), offsetLength))
}

// Capacity returns the vector's fixed capacity.
func Capacity(v word.Word) int {
	return int(*word.Slot(uintptr(v), offsetCapacity))
}

// At returns the element at index i (0 <= i < Length(v)).
func At(v word.Word, i int) word.Word {
	return *word.Slot(uintptr(v), offsetElements+i)
}

// IsMutable reports whether v is the mutable variant.
func IsMutable(v word.Word) bool {
	return word.HeaderTypeID(word.Header(uintptr(v))) == word.TypeMutableVector
}

// Append grows a mutable vector in place by one element, returning
// ErrCapacity if it is already at capacity (§4.E.2 "Mutable vector
// operations mutate in place without reallocation").
func Append(v word.Word, elem word.Word) error {
	addr := uintptr(v)
	n := Length(v)
	if n >= Capacity(v) {
		return ErrCapacity
	}
	*word.Slot(addr, offsetElements+n) = elem
	*word.Slot(addr, offsetLength) = word.Word(n + 1)
	return nil
}

// Set overwrites the element at index i of a mutable vector in place.
func Set(v word.Word, i int, elem word.Word) {
	*word.Slot(uintptr(v), offsetElements+i) = elem
}

// Freeze flips a mutable vector's header to the immutable type ID in
// place, after which no further Append/Set calls are permitted (§4.E.2
// "Freeze", the same "flip the tag" idiom used throughout Colibri's
// mutable/immutable dualities).
func Freeze(v word.Word) word.Word {
	addr := uintptr(v)
	h := word.Header(addr)
	word.SetHeader(addr, word.WithHeaderPinned(word.NewPredefinedHeader(word.TypeVector), word.HeaderPinned(h)))
	return v
}

// Clone copies v's elements into a fresh mutable vector of the requested
// new capacity (must be >= Length(v)), for copy-on-write growth beyond the
// original capacity.
func Clone(pool *gc.Pool, v word.Word, newCapacity int) (word.Word, error) {
	n := Length(v)
	elems := make([]word.Word, n)
	for i := 0; i < n; i++ {
		elems[i] = At(v, i)
	}
	return NewMutable(pool, newCapacity, elems)
}
