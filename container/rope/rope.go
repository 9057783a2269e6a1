// Package rope implements Colibri's persistent string container (§4.E.1): a
// depth-balanced binary concatenation tree over flat fixed-width (UCS-1/2/4)
// and variable-width (UTF-8) leaves.
package rope

import (
	"errors"
	"unicode/utf8"

	"colibri/gc"
	"colibri/word"
)

// ErrIndexRange is returned by At/Subrope for an out-of-range index.
var ErrIndexRange = errors.New("rope: index out of range")

// leafChunk bounds how many characters a flat leaf holds before a rope must
// branch into a concat node (§4.E.1 "Balancing contract").
const leafChunk = 256

// UCS leaf cell layout: header | charLength | width(1/2/4) | bytes...
const (
	ucsLength = 1
	ucsWidth  = 2
	ucsBytes  = 3
)

// UTF-8 leaf cell layout: header | byteLength | charLength | bytes...
const (
	utfByteLen = 1
	utfCharLen = 2
	utfBytes   = 3
)

// Concat node cell layout: header | length | depth | left | right
const (
	concatLength = 1
	concatDepth  = 2
	concatLeft   = 3
	concatRight  = 4
	concatCells  = 2
)

// Subrope cell layout: header | source | start | length
const (
	subSource = 1
	subStart  = 2
	subLength = 3
)

func init() {
	gc.RegisterTypeOps(word.TypeUCSString, gc.TypeOps{Cells: ucsCells, Children: nil})
	gc.RegisterTypeOps(word.TypeUTFString, gc.TypeOps{Cells: utfCells, Children: nil})
	gc.RegisterTypeOps(word.TypeConcatRope, gc.TypeOps{Cells: fixed(concatCells), Children: concatChildren})
	gc.RegisterTypeOps(word.TypeSubrope, gc.TypeOps{Cells: fixed(1), Children: subChildren})
}

func fixed(n int) func(uintptr) int { return func(uintptr) int { return n } }

func ucsCells(addr uintptr) int {
	n := int(*word.Slot(addr, ucsLength))
	width := int(*word.Slot(addr, ucsWidth))
	return word.CellsNeeded((ucsBytes*8 + n*width))
}
func utfCells(addr uintptr) int {
	n := int(*word.Slot(addr, utfByteLen))
	return word.CellsNeeded(utfBytes*8 + n)
}
func concatChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, concatLeft))
	emit(word.Slot(addr, concatRight))
}
func subChildren(addr uintptr, emit func(*word.Word)) { emit(word.Slot(addr, subSource)) }

func byteAtSlot(addr uintptr, wordOffset int, byteIdx int) byte {
	return byte(*word.Slot(addr, wordOffset+byteIdx/8) >> (8 * uint(byteIdx%8)))
}
func setByteAtSlot(addr uintptr, wordOffset int, byteIdx int, b byte) {
	slot := word.Slot(addr, wordOffset+byteIdx/8)
	shift := 8 * uint(byteIdx%8)
	*slot = (*slot &^ (word.Word(0xFF) << shift)) | word.Word(b)<<shift
}

// widthFor picks the narrowest fixed width that can hold every rune in s.
func widthFor(s []rune) int {
	w := 1
	for _, r := range s {
		switch {
		case r > 0xFFFF && w < 4:
			w = 4
		case r > 0xFF && w < 2:
			w = 2
		}
	}
	return w
}

// NewUCS allocates a fixed-width leaf for runes, choosing the narrowest
// width (1, 2, or 4 bytes per character) that represents them all.
func NewUCS(pool *gc.Pool, runes []rune) (word.Word, error) {
	width := widthFor(runes)
	addr, err := pool.AllocCells(word.CellsNeeded(ucsBytes*8 + len(runes)*width))
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(word.TypeUCSString))
	*word.Slot(addr, ucsLength) = word.Word(len(runes))
	*word.Slot(addr, ucsWidth) = word.Word(width)
	for i, r := range runes {
		for b := 0; b < width; b++ {
			setByteAtSlot(addr, ucsBytes, i*width+b, byte(r>>(8*uint(b))))
		}
	}
	return word.Word(addr), nil
}

// NewUTF8 allocates a variable-width UTF-8 leaf from s.
func NewUTF8(pool *gc.Pool, s string) (word.Word, error) {
	b := []byte(s)
	addr, err := pool.AllocCells(word.CellsNeeded(utfBytes*8 + len(b)))
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(word.TypeUTFString))
	*word.Slot(addr, utfByteLen) = word.Word(len(b))
	*word.Slot(addr, utfCharLen) = word.Word(utf8.RuneCount(b))
	for i, c := range b {
		setByteAtSlot(addr, utfBytes, i, c)
	}
	return word.Word(addr), nil
}

// New chunks s into leaves of at most leafChunk runes and concatenates them
// into a balanced rope.
func New(pool *gc.Pool, s string) (word.Word, error) {
	runes := []rune(s)
	if len(runes) == 0 {
		return word.NewVoidList(0), nil
	}
	var leaves []word.Word
	for i := 0; i < len(runes); i += leafChunk {
		end := i + leafChunk
		if end > len(runes) {
			end = len(runes)
		}
		leaf, err := NewUCS(pool, runes[i:end])
		if err != nil {
			return 0, err
		}
		leaves = append(leaves, leaf)
	}
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

// Length returns a rope's character count.
func Length(r word.Word) int {
	if word.TypeOf(r) == word.KindVoidList {
		return 0
	}
	addr := uintptr(r)
	switch word.HeaderTypeID(word.Header(addr)) {
	case word.TypeUCSString:
		return int(*word.Slot(addr, ucsLength))
	case word.TypeUTFString:
		return int(*word.Slot(addr, utfCharLen))
	case word.TypeConcatRope:
		return int(*word.Slot(addr, concatLength))
	case word.TypeSubrope:
		return int(*word.Slot(addr, subLength))
	default:
		return 0
	}
}

func depthOf(r word.Word) int {
	if word.IsImmediate(r) {
		return 0
	}
	addr := uintptr(r)
	if word.HeaderTypeID(word.Header(addr)) == word.TypeConcatRope {
		return int(*word.Slot(addr, concatDepth))
	}
	return 0
}

// Concat joins a and b into a single concat node.
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
	word.SetHeader(addr, word.NewPredefinedHeader(word.TypeConcatRope))
	*word.Slot(addr, concatLength) = word.Word(la + lb)
	da, db := depthOf(a), depthOf(b)
	depth := da
	if db > depth {
		depth = db
	}
	*word.Slot(addr, concatDepth) = word.Word(depth + 1)
	*word.Slot(addr, concatLeft) = a
	*word.Slot(addr, concatRight) = b
	return word.Word(addr), nil
}

func fib(n int) int {
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// IsBalanced reports whether r satisfies the Fibonacci depth/length bound
// (§4.E.1 "Balancing contract").
func IsBalanced(r word.Word) bool {
	return Length(r) >= fib(depthOf(r)+2)
}

// At returns the rune at character index i.
func At(r word.Word, i int) (rune, error) {
	if word.TypeOf(r) == word.KindVoidList {
		return 0, ErrIndexRange
	}
	addr := uintptr(r)
	switch word.HeaderTypeID(word.Header(addr)) {
	case word.TypeUCSString:
		n := int(*word.Slot(addr, ucsLength))
		if i < 0 || i >= n {
			return 0, ErrIndexRange
		}
		width := int(*word.Slot(addr, ucsWidth))
		var v rune
		for b := 0; b < width; b++ {
			v |= rune(byteAtSlot(addr, ucsBytes, i*width+b)) << (8 * uint(b))
		}
		return v, nil
	case word.TypeUTFString:
		byteLen := int(*word.Slot(addr, utfByteLen))
		buf := make([]byte, byteLen)
		for k := 0; k < byteLen; k++ {
			buf[k] = byteAtSlot(addr, utfBytes, k)
		}
		idx := 0
		for len(buf) > 0 {
			rn, size := utf8.DecodeRune(buf)
			if idx == i {
				return rn, nil
			}
			buf = buf[size:]
			idx++
		}
		return 0, ErrIndexRange
	case word.TypeConcatRope:
		left := *word.Slot(addr, concatLeft)
		ll := Length(left)
		if i < ll {
			return At(left, i)
		}
		return At(*word.Slot(addr, concatRight), i-ll)
	case word.TypeSubrope:
		source := *word.Slot(addr, subSource)
		start := int(*word.Slot(addr, subStart))
		n := int(*word.Slot(addr, subLength))
		if i < 0 || i >= n {
			return 0, ErrIndexRange
		}
		return At(source, start+i)
	default:
		return 0, ErrIndexRange
	}
}

// Subrope wraps source in a view over [start, start+length) characters,
// collapsing a subrope-of-subrope into one level (§4.E.1 "subrope").
func Subrope(pool *gc.Pool, source word.Word, start, length int) (word.Word, error) {
	if length == 0 {
		return word.NewVoidList(0), nil
	}
	if start < 0 || start+length > Length(source) {
		return 0, ErrIndexRange
	}
	if word.TypeOf(source) == word.KindCell && word.HeaderTypeID(word.Header(uintptr(source))) == word.TypeSubrope {
		addr := uintptr(source)
		inner := *word.Slot(addr, subSource)
		innerStart := int(*word.Slot(addr, subStart))
		return Subrope(pool, inner, innerStart+start, length)
	}
	addr, err := pool.AllocCells(1)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(word.TypeSubrope))
	*word.Slot(addr, subSource) = source
	*word.Slot(addr, subStart) = word.Word(start)
	*word.Slot(addr, subLength) = word.Word(length)
	return word.Word(addr), nil
}

// Iterate calls fn for every rune of r in order, stopping early if fn
// returns false.
func Iterate(r word.Word, fn func(i int, ch rune) bool) error {
	n := Length(r)
	for i := 0; i < n; i++ {
		ch, err := At(r, i)
		if err != nil {
			return err
		}
		if !fn(i, ch) {
			return nil
		}
	}
	return nil
}
