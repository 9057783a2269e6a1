package gc

import "colibri/word"

// TypeOps is the per-predefined-type vtable the mark phase and sweep use to
// size and traverse a record without gc importing any container package
// (which would create an import cycle, since containers import gc for
// allocation). Grounded on pkg/tree/factory.go's RegisterCowTreeCreators
// indirection, which solves the identical "cowbtree must register with tree
// without tree importing cowbtree" problem.
type TypeOps struct {
	// Cells returns the number of cells occupied by the record at addr.
	Cells func(addr uintptr) int

	// Children invokes emit once per child word slot directly reachable
	// from the record at addr. A nil Children means the type is a leaf.
	Children func(addr uintptr, emit func(slot *word.Word))
}

var typeOpsRegistry [256]*TypeOps

// RegisterTypeOps installs the vtable for a predefined type ID. Called from
// each container package's init().
func RegisterTypeOps(id word.TypeID, ops TypeOps) {
	typeOpsRegistry[id] = &ops
}

func opsFor(id word.TypeID) *TypeOps {
	return typeOpsRegistry[id]
}

// sizeOfCell returns the size, in cells, of the record whose header word is
// h (already read by the caller). Custom words consult their descriptor's
// Size procedure; predefined types are looked up in the TypeOps registry,
// one entry per type, so there is no fallthrough between predefined cases
// as in the original's GetNbCells (Open Question).
func sizeOfCell(addr uintptr, h word.Word) int {
	if !word.IsPredefinedHeader(h) {
		desc := word.HeaderCustomDescriptor(h)
		w := word.Word(addr)
		return word.CellsNeeded(desc.Size(w))
	}
	id := word.HeaderTypeID(h)
	if ops := opsFor(id); ops != nil && ops.Cells != nil {
		return ops.Cells(addr)
	}
	return 1
}

// childrenOfCell enumerates addr's children, dispatching to the custom
// descriptor's Children procedure or the registered TypeOps.
func childrenOfCell(addr uintptr, h word.Word, emit func(*word.Word)) {
	if !word.IsPredefinedHeader(h) {
		desc := word.HeaderCustomDescriptor(h)
		if desc.Children != nil {
			desc.Children(word.Word(addr), emit)
		}
		return
	}
	id := word.HeaderTypeID(h)
	if ops := opsFor(id); ops != nil && ops.Children != nil {
		ops.Children(addr, emit)
	}
}
