// Package list implements Colibri's persistent list container (§4.E.3): a
// binary concatenation tree over vector leaves and void-list immediates,
// with sublists and circular wrapping. Lists are immutable: no function
// here builds a TypeMConcatList node, though Length, At and the GC hooks
// accept one.
package list

import (
	"errors"

	"colibri/container/vector"
	"colibri/gc"
	"colibri/word"
)

// ErrIndexRange is returned by At/Sublist for an out-of-range index.
var ErrIndexRange = errors.New("list: index out of range")

// leafChunk bounds how many elements a single vector leaf holds before a
// list must branch into a concat node (§4.E.3 "Balancing contract": leaves
// stay small so tree depth tracks log(n), not n).
const leafChunk = 64

const (
	offsetLength = 1 // total element count of the subtree
	offsetDepth  = 2 // longest root-to-leaf path, for the Fibonacci balance check
	offsetLeft   = 3
	offsetRight  = 4
)

const concatCells = 2 // CellsNeeded(5 words * 8 bytes) rounded up to whole cells

func init() {
	gc.RegisterTypeOps(word.TypeConcatList, gc.TypeOps{Cells: concatCellCount, Children: concatChildren})
	gc.RegisterTypeOps(word.TypeMConcatList, gc.TypeOps{Cells: concatCellCount, Children: concatChildren})
	gc.RegisterTypeOps(word.TypeSublist, gc.TypeOps{Cells: sublistCellCount, Children: sublistChildren})
}

func concatCellCount(addr uintptr) int { return concatCells }

func concatChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, offsetLeft))
	emit(word.Slot(addr, offsetRight))
}

const (
	subOffsetSource = 1
	subOffsetStart  = 2
	subOffsetLength = 3
)

func sublistCellCount(addr uintptr) int { return 1 }

func sublistChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, subOffsetSource))
}

// Empty is the void-list immediate of length 0 (§3 "void list").
func Empty() word.Word { return word.NewVoidList(0) }

// New builds a balanced list from elems, chunking into vector leaves of at
// most leafChunk elements and concatenating them pairwise.
func New(pool *gc.Pool, elems []word.Word) (word.Word, error) {
	if len(elems) == 0 {
		return Empty(), nil
	}
	leaves := make([]word.Word, 0, (len(elems)+leafChunk-1)/leafChunk)
	for i := 0; i < len(elems); i += leafChunk {
		end := i + leafChunk
		if end > len(elems) {
			end = len(elems)
		}
		leaf, err := vector.New(pool, end-i, elems[i:end])
		if err != nil {
			return 0, err
		}
		leaves = append(leaves, leaf)
	}
	return buildBalanced(pool, leaves)
}

func buildBalanced(pool *gc.Pool, leaves []word.Word) (word.Word, error) {
	for len(leaves) > 1 {
		next := make([]word.Word, 0, (len(leaves)+1)/2)
		for i := 0; i < len(leaves); i += 2 {
			if i+1 == len(leaves) {
				next = append(next, leaves[i])
				continue
			}
			node, err := Concat(pool, leaves[i], leaves[i+1])
			if err != nil {
				return 0, err
			}
			next = append(next, node)
		}
		leaves = next
	}
	return leaves[0], nil
}

// Length returns the number of elements a list (or sublist, or circular
// list core) denotes.
func Length(l word.Word) int {
	if word.TypeOf(l) == word.KindCircularList {
		return Length(word.CircularListCore(l))
	}
	if word.TypeOf(l) == word.KindVoidList {
		return word.VoidListLength(l)
	}
	addr := uintptr(l)
	switch word.HeaderTypeID(word.Header(addr)) {
	case word.TypeConcatList, word.TypeMConcatList:
		return int(*word.Slot(addr, offsetLength))
	case word.TypeSublist:
		return int(*word.Slot(addr, subOffsetLength))
	case word.TypeVector, word.TypeMutableVector:
		return vector.Length(l)
	default:
		return 0
	}
}

func depthOf(l word.Word) int {
	if word.IsImmediate(l) {
		return 0
	}
	addr := uintptr(l)
	switch word.HeaderTypeID(word.Header(addr)) {
	case word.TypeConcatList, word.TypeMConcatList:
		return int(*word.Slot(addr, offsetDepth))
	default:
		return 0
	}
}

// Concat joins a and b into one list, building a single concat node whose
// depth is one more than the deeper operand's. It does not rebalance, and
// the package has no rebalancing function: a tree built by repeated Concat
// can fall outside the Fibonacci depth bound that IsBalanced checks
// (§4.E.3 "Balancing contract").
func Concat(pool *gc.Pool, a, b word.Word) (word.Word, error) {
	la, lb := Length(a), Length(b)
	if la == 0 {
		return b, nil
	}
	if lb == 0 {
		return a, nil
	}
	addr, err := pool.AllocCells(concatCells)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(word.TypeConcatList))
	*word.Slot(addr, offsetLength) = word.Word(la + lb)
	da, db := depthOf(a), depthOf(b)
	depth := da
	if db > depth {
		depth = db
	}
	*word.Slot(addr, offsetDepth) = word.Word(depth + 1)
	*word.Slot(addr, offsetLeft) = a
	*word.Slot(addr, offsetRight) = b
	return word.Word(addr), nil
}

// fib returns the nth Fibonacci number, used by IsBalanced's depth bound
// (§4.E.3 "a subtree of depth d must contain at least fib(d+2) elements").
func fib(n int) int {
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// IsBalanced reports whether l satisfies the Fibonacci balance invariant.
func IsBalanced(l word.Word) bool {
	return Length(l) >= fib(depthOf(l)+2)
}

// At returns the element at index i, descending the concat tree, unwinding
// sublists and circular lists as it goes.
func At(l word.Word, i int) (word.Word, error) {
	if word.TypeOf(l) == word.KindCircularList {
		core := word.CircularListCore(l)
		n := Length(core)
		if n == 0 {
			return 0, ErrIndexRange
		}
		return At(core, ((i%n)+n)%n)
	}
	if word.TypeOf(l) == word.KindVoidList {
		if i < 0 || i >= word.VoidListLength(l) {
			return 0, ErrIndexRange
		}
		return word.Nil, nil
	}
	addr := uintptr(l)
	switch word.HeaderTypeID(word.Header(addr)) {
	case word.TypeConcatList, word.TypeMConcatList:
		left := *word.Slot(addr, offsetLeft)
		ll := Length(left)
		if i < ll {
			return At(left, i)
		}
		return At(*word.Slot(addr, offsetRight), i-ll)
	case word.TypeSublist:
		source := *word.Slot(addr, subOffsetSource)
		start := int(*word.Slot(addr, subOffsetStart))
		n := int(*word.Slot(addr, subOffsetLength))
		if i < 0 || i >= n {
			return 0, ErrIndexRange
		}
		return At(source, start+i)
	case word.TypeVector, word.TypeMutableVector:
		if i < 0 || i >= vector.Length(l) {
			return 0, ErrIndexRange
		}
		return vector.At(l, i), nil
	default:
		return 0, ErrIndexRange
	}
}

// Sublist wraps source in a view over [start, start+length) without copying
// elements (§4.E.3 "sublist").
func Sublist(pool *gc.Pool, source word.Word, start, length int) (word.Word, error) {
	if length == 0 {
		return Empty(), nil
	}
	if start < 0 || start+length > Length(source) {
		return 0, ErrIndexRange
	}
	if !word.IsImmediate(source) && word.HeaderTypeID(word.Header(uintptr(source))) == word.TypeSublist {
		// Collapse a sublist-of-sublist into one level (§4.E.3 "Sublist
		// composition").
		addr := uintptr(source)
		inner := *word.Slot(addr, subOffsetSource)
		innerStart := int(*word.Slot(addr, subOffsetStart))
		return Sublist(pool, inner, innerStart+start, length)
	}
	addr, err := pool.AllocCells(1)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(word.TypeSublist))
	*word.Slot(addr, subOffsetSource) = source
	*word.Slot(addr, subOffsetStart) = word.Word(start)
	*word.Slot(addr, subOffsetLength) = word.Word(length)
	return word.Word(addr), nil
}

// Circular wraps core as an infinitely-repeating circular list (§3
// "circular list"). core itself is unaffected; the wrapping is an
// immediate tag, not a cell.
func Circular(core word.Word) word.Word {
	return word.NewCircularList(core)
}

// Iterate calls fn for every element of l in order, stopping early if fn
// returns false. For a circular list it visits one period, the elements of
// its core, since Length reports the core's length.
func Iterate(l word.Word, fn func(i int, elem word.Word) bool) error {
	n := Length(l)
	for i := 0; i < n; i++ {
		elem, err := At(l, i)
		if err != nil {
			return err
		}
		if !fn(i, elem) {
			return nil
		}
	}
	return nil
}
