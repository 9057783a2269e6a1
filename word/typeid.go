package word

// TypeID identifies the concrete cell layout of a pointer word. Predefined
// IDs are even numbers with bit 1 set (so bit 0 is always free to carry the
// per-cell "pinned" flag); the numbering matches
// original_source/colWordInt.h's WORD_TYPE_* constants so that the Open
// Question about GetNbCells/CleanupSweepables fallthrough bugs (spec §9) can
// be cross-checked case by case against the original switch statements.
type TypeID byte

const (
	TypeWrap TypeID = 2 // generic synonym-chain wrapper

	TypeUCSString   TypeID = 6  // fixed-width (1/2/4-byte) flat string leaf
	TypeUTFString   TypeID = 10 // variable-width UTF-8 flat string leaf
	TypeSubrope     TypeID = 14
	TypeConcatRope  TypeID = 18

	TypeVector        TypeID = 22
	TypeMutableVector TypeID = 26
	TypeSublist       TypeID = 30
	TypeConcatList    TypeID = 34
	TypeMConcatList   TypeID = 38 // mutable concat-list node

	TypeStrHashMap      TypeID = 42
	TypeIntHashMap      TypeID = 46
	TypeHashEntry       TypeID = 50 // immutable string/custom-keyed entry
	TypeMHashEntry      TypeID = 54 // mutable string/custom-keyed entry
	TypeIntHashEntry    TypeID = 58
	TypeMIntHashEntry   TypeID = 62

	TypeStrTrieMap    TypeID = 66
	TypeIntTrieMap    TypeID = 70
	TypeTrieNode      TypeID = 74 // generic (custom-keyed) immutable branch
	TypeMTrieNode     TypeID = 78
	TypeStrTrieNode   TypeID = 82
	TypeMStrTrieNode  TypeID = 86
	TypeIntTrieNode   TypeID = 90
	TypeMIntTrieNode  TypeID = 94
	TypeTrieLeaf      TypeID = 98
	TypeMTrieLeaf     TypeID = 102
	TypeIntTrieLeaf   TypeID = 106
	TypeMIntTrieLeaf  TypeID = 110

	TypeStrBuf TypeID = 114 // reserved: out-of-scope accumulator (§1)

	TypeRedirect TypeID = 254 // forwarding pointer left by compacting promotion

	typeIDPinnedBit = 0x01
	typeIDTagBit    = 0x02
)

// IsPredefined reports whether the first header byte b encodes one of the
// closed predefined type IDs (bit 1 set) as opposed to the low bits of a
// custom type-descriptor pointer (bit 1 clear).
func IsPredefined(b byte) bool {
	return b&typeIDTagBit != 0
}

// TypeIDOf masks the pinned-flag bit out of a header byte known to hold a
// predefined type ID.
func TypeIDOf(b byte) TypeID {
	return TypeID(b &^ typeIDPinnedBit)
}

// Pinned reports whether a predefined-type header byte has its pinned flag
// set (the referent is currently registered in the root registry, §4.B).
func Pinned(b byte) bool {
	return b&typeIDPinnedBit != 0
}

// WithPinned returns b with the pinned flag forced to the given value,
// leaving the type-ID bits untouched.
func WithPinned(b byte, pinned bool) byte {
	if pinned {
		return b | typeIDPinnedBit
	}
	return b &^ typeIDPinnedBit
}

// HasSynonymSlot reports whether cells of type id reserve their second word
// for a synonym-chain back-pointer (word/synonym.go).
func HasSynonymSlot(id TypeID) bool {
	switch id {
	case TypeWrap, TypeUCSString, TypeUTFString, TypeStrHashMap, TypeIntHashMap,
		TypeStrTrieMap, TypeIntTrieMap:
		return true
	default:
		return false
	}
}

// IsMutableVariant reports whether id is the "Mut" half of a Mut/Imm pair
// (Design Notes: "Copy-on-write paths").
func IsMutableVariant(id TypeID) bool {
	switch id {
	case TypeMutableVector, TypeMConcatList,
		TypeMHashEntry, TypeMIntHashEntry,
		TypeMTrieNode, TypeMStrTrieNode, TypeMIntTrieNode,
		TypeMTrieLeaf, TypeMIntTrieLeaf:
		return true
	default:
		return false
	}
}

// ImmutableVariant returns the frozen counterpart of a mutable type ID, or id
// unchanged if it has no mutable/immutable duality.
func ImmutableVariant(id TypeID) TypeID {
	switch id {
	case TypeMutableVector:
		return TypeVector
	case TypeMConcatList:
		return TypeConcatList
	case TypeMHashEntry:
		return TypeHashEntry
	case TypeMIntHashEntry:
		return TypeIntHashEntry
	case TypeMTrieNode:
		return TypeTrieNode
	case TypeMStrTrieNode:
		return TypeStrTrieNode
	case TypeMIntTrieNode:
		return TypeIntTrieNode
	case TypeMTrieLeaf:
		return TypeTrieLeaf
	case TypeMIntTrieLeaf:
		return TypeIntTrieLeaf
	default:
		return id
	}
}
