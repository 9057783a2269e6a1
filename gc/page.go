// Package gc implements Colibri's managed heap: cell allocator and page
// pools (§4.A), root & parent registries (§4.B), and the generational
// mark-and-sweep collector (§4.C), under the single-threaded cooperative
// concurrency model of §5.
package gc

import (
	"math/bits"
	"unsafe"

	"colibri/platform"
	"colibri/word"
)

// PageFlags are the header-cell flag bits (§3 "Page").
type PageFlags uint8

const (
	FlagFirst     PageFlags = 1 << iota // first page of a multi-page run
	FlagLast                            // last page of a multi-page run
	FlagParent                          // page holds at least one cross-generation pointer
	FlagProtected                       // page is currently OS-write-protected
)

// usableCells is the number of cells available for records; the page's
// first cell is reserved for the header (next pointer, generation, flags,
// allocation bitmap).
const usableCells = word.CellsPerPage - 1

// Page is one pool page: a fixed-size, cell-size-aligned region carved into
// word.CellsPerPage cells, the first of which is the header.
type Page struct {
	next       *Page // intra-pool linked list
	generation int
	flags      PageFlags

	region *platform.Region // backing storage; released when the page is freed
	bitmap [(usableCells + 63) / 64]uint64

	// runLen is the page count of a multi-page large-object run, set on the
	// run's first page only; zero for every other page.
	runLen int
}

// newPage carves a fresh page out of reserved platform memory.
func newPage(generation int) (*Page, error) {
	region, err := platform.Reserve(word.PageSize, word.CellSize)
	if err != nil {
		return nil, err
	}
	return &Page{generation: generation, region: region}, nil
}

// BaseAddr returns the address of this page's first usable cell, used by
// Pool to resolve a raw word address back to its containing page.
func (p *Page) BaseAddr() uintptr {
	return uintptr(unsafe.Pointer(&p.region.Aligned[word.CellSize]))
}

// CellAddr returns the address of the cell at index i (0-based among the
// usable cells, i.e. index 0 is the first cell after the header).
func (p *Page) CellAddr(i int) uintptr {
	return p.BaseAddr() + uintptr(i)*word.CellSize
}

// cellIndex maps an address known to lie within this page to a usable-cell
// index, or -1 if addr is outside the page (including the header cell).
func (p *Page) cellIndex(addr uintptr) int {
	base := p.BaseAddr()
	if addr < base {
		return -1
	}
	off := addr - base
	if off%word.CellSize != 0 {
		return -1
	}
	idx := int(off / word.CellSize)
	if idx >= usableCells {
		return -1
	}
	return idx
}

// Allocated reports whether the bit for cell i is set.
func (p *Page) Allocated(i int) bool {
	return p.bitmap[i/64]&(1<<uint(i%64)) != 0
}

// SetAllocated sets or clears the bit for cell i.
func (p *Page) SetAllocated(i int, v bool) {
	mask := uint64(1) << uint(i%64)
	if v {
		p.bitmap[i/64] |= mask
	} else {
		p.bitmap[i/64] &^= mask
	}
}

// ClearBitmap zeroes every allocation bit (§4.A "clear_bitmap").
func (p *Page) ClearBitmap() {
	for i := range p.bitmap {
		p.bitmap[i] = 0
	}
}

// Empty reports whether no cell on the page is allocated (§4.A
// "free_empty_pages").
func (p *Page) Empty() bool {
	for _, w := range p.bitmap {
		if w != 0 {
			return false
		}
	}
	return true
}

// popcount returns the number of cells currently marked allocated.
func (p *Page) popcount() int {
	n := 0
	for _, w := range p.bitmap {
		n += bits.OnesCount64(w)
	}
	return n
}

// findRun scans for n contiguous clear bits starting at hint, wrapping once.
// Returns the starting index, or -1 if no run of that size exists.
func (p *Page) findRun(n, hint int) int {
	if n > usableCells {
		return -1
	}
	start := hint
	if start < 0 || start >= usableCells {
		start = 0
	}
	run := 0
	runStartIdx := -1
	// Single linear scan of length usableCells+start (wrap-around), so a run
	// spanning the wrap point is still found.
	for k := 0; k < usableCells+start; k++ {
		i := (start + k) % usableCells
		if !p.Allocated(i) {
			if run == 0 {
				runStartIdx = i
			}
			run++
			if run == n {
				return runStartIdx
			}
		} else {
			run = 0
		}
		if k >= usableCells && runStartIdx == -1 {
			break
		}
	}
	return -1
}

// markRange sets n consecutive allocation bits starting at i, clamped to the
// page's usable-cell boundary (tail cells of a multi-page record are set on
// later pages by the caller).
func (p *Page) markRange(i, n int) {
	for j := i; j < i+n && j < usableCells; j++ {
		p.SetAllocated(j, true)
	}
}
