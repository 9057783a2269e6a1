package gc

import (
	"testing"

	"colibri/word"
)

func TestPoolAllocCellsWithinPage(t *testing.T) {
	p := NewPool(1)
	a1, err := p.AllocCells(2)
	if err != nil {
		t.Fatalf("AllocCells: %v", err)
	}
	a2, err := p.AllocCells(3)
	if err != nil {
		t.Fatalf("AllocCells: %v", err)
	}
	if a1 == a2 {
		t.Fatalf("expected distinct addresses, got %v twice", a1)
	}
	if p.PageCount != 1 {
		t.Fatalf("expected a single page for a small allocation, got %d", p.PageCount)
	}
	if p.LiveCells != 5 {
		t.Fatalf("LiveCells = %d, want 5", p.LiveCells)
	}
}

func TestPoolAllocCellsSpillsToNewPage(t *testing.T) {
	p := NewPool(1)
	for i := 0; i < usableCells+10; i++ {
		if _, err := p.AllocCells(1); err != nil {
			t.Fatalf("AllocCells iteration %d: %v", i, err)
		}
	}
	if p.PageCount < 2 {
		t.Fatalf("expected at least 2 pages after exceeding one page's capacity, got %d", p.PageCount)
	}
}

func TestPoolAllocLarge(t *testing.T) {
	p := NewPool(1)
	addr, err := p.AllocCells(word.LargePageThreshold + 5)
	if err != nil {
		t.Fatalf("AllocCells: %v", err)
	}
	if addr == 0 {
		t.Fatal("expected a non-zero address for a large allocation")
	}
	if p.PageCount < 2 {
		t.Fatalf("expected a multi-page run, got %d pages", p.PageCount)
	}
}

func TestPoolFreeEmptyPages(t *testing.T) {
	p := NewPool(1)
	p.AllocCells(1)
	p.ClearBitmap()
	freed := p.FreeEmptyPages()
	if freed != 1 {
		t.Fatalf("FreeEmptyPages = %d, want 1", freed)
	}
	if p.PageCount != 0 {
		t.Fatalf("PageCount = %d, want 0", p.PageCount)
	}
}

func TestPoolFindPage(t *testing.T) {
	p := NewPool(1)
	addr, _ := p.AllocCells(1)
	page, idx := p.FindPage(addr)
	if page == nil {
		t.Fatal("FindPage returned nil for an address just allocated")
	}
	if page.CellAddr(idx) != addr {
		t.Fatalf("CellAddr(%d) = %v, want %v", idx, page.CellAddr(idx), addr)
	}
}

func TestPoolPromoteTo(t *testing.T) {
	src := NewPool(1)
	dst := NewPool(2)
	src.AllocCells(1)
	src.AllocCells(1)
	promoted := src.PromoteTo(dst)
	if len(promoted) != 1 {
		t.Fatalf("expected 1 promoted page, got %d", len(promoted))
	}
	if dst.PageCount != 1 || dst.LiveCells != 2 {
		t.Fatalf("dst after promotion: pages=%d cells=%d, want 1/2", dst.PageCount, dst.LiveCells)
	}
	if src.PageCount != 0 {
		t.Fatalf("src.PageCount = %d, want 0 after promotion", src.PageCount)
	}
	for _, page := range promoted {
		if page.generation != 2 {
			t.Fatalf("promoted page generation = %d, want 2", page.generation)
		}
	}
}
