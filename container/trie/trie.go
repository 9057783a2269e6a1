// Package trie implements Colibri's crit-bit trie map (§4.E.5): a binary
// trie branching on the highest differing bit of the key's byte
// representation, for small-integer and string keys, with copy-on-write
// insert/delete.
package trie

import (
	"encoding/binary"
	"errors"

	"colibri/gc"
	"colibri/word"
)

// ErrKeyNotFound is returned by Get/Delete when the key has no entry.
var ErrKeyNotFound = errors.New("trie: key not found")

// Map cell layout: header | root | count
const (
	mapRoot  = 1
	mapCount = 2
	mapCells = 1
)

// Node (branch) cell layout: header | left | right | byteIndex<<8|bitMask
const (
	nodeLeft      = 1
	nodeRight     = 2
	nodeByteIndex = 3
	nodeBitMask   = 3 // packed into the same word as byteIndex (see packDiff)
	nodeCells     = 1
)

// Leaf cell layout: header | key | value
const (
	leafKey   = 1
	leafValue = 2
	leafCells = 1
)

func init() {
	gc.RegisterTypeOps(word.TypeStrTrieMap, gc.TypeOps{Cells: fixedCells(mapCells), Children: mapChildren})
	gc.RegisterTypeOps(word.TypeIntTrieMap, gc.TypeOps{Cells: fixedCells(mapCells), Children: mapChildren})
	gc.RegisterTypeOps(word.TypeStrTrieNode, gc.TypeOps{Cells: fixedCells(nodeCells), Children: nodeChildren})
	gc.RegisterTypeOps(word.TypeIntTrieNode, gc.TypeOps{Cells: fixedCells(nodeCells), Children: nodeChildren})
	gc.RegisterTypeOps(word.TypeTrieLeaf, gc.TypeOps{Cells: fixedCells(leafCells), Children: leafChildren})
	gc.RegisterTypeOps(word.TypeIntTrieLeaf, gc.TypeOps{Cells: fixedCells(leafCells), Children: leafChildren})
}

func fixedCells(n int) func(uintptr) int { return func(uintptr) int { return n } }

func mapChildren(addr uintptr, emit func(*word.Word)) { emit(word.Slot(addr, mapRoot)) }
func nodeChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, nodeLeft))
	emit(word.Slot(addr, nodeRight))
}
func leafChildren(addr uintptr, emit func(*word.Word)) {
	emit(word.Slot(addr, leafKey))
	emit(word.Slot(addr, leafValue))
}

// packDiff combines a byte offset and an 8-bit mask into one word (the
// branch node's discriminant, §4.E.5 "find_node").
func packDiff(byteIdx int, mask byte) word.Word {
	return word.Word(byteIdx)<<8 | word.Word(mask)
}
func unpackDiff(d word.Word) (byteIdx int, mask byte) {
	return int(d >> 8), byte(d)
}

func keyBytes(key word.Word) []byte {
	if word.TypeOf(key) == word.KindSmallInt {
		var b [8]byte
		// Flipping the sign bit makes byte order match numeric order, so
		// negative keys sort before non-negative ones.
		binary.BigEndian.PutUint64(b[:], uint64(word.SmallIntValue(key))^(1<<63))
		return b[:]
	}
	if word.TypeOf(key) == word.KindSmallString {
		return word.SmallStringValue(key)
	}
	n := int(*word.Slot(uintptr(key), 1))
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(*word.Slot(uintptr(key), 2+i/8) >> (8 * uint(i%8)))
	}
	return b
}

func byteAt(b []byte, i int) byte {
	if i >= len(b) {
		return 0
	}
	return b[i]
}

// firstDiffBit returns the byte index and single-bit mask of the highest
// bit at which a and b first differ (scanning byte-major, matching
// original_source/colTrieInt.h's diffCharIndex/mask branch discriminant).
func firstDiffBit(a, b []byte) (int, byte) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := byteAt(a, i), byteAt(b, i)
		if ca != cb {
			diff := ca ^ cb
			mask := byte(1)
			for mask<<1 != 0 && diff>>1 != 0 {
				mask <<= 1
				diff >>= 1
			}
			return i, mask
		}
	}
	return n, 0
}

func direction(b []byte, byteIdx int, mask byte) bool {
	return byteAt(b, byteIdx)&mask != 0
}

// NewString allocates an empty string-keyed trie map.
func NewString(pool *gc.Pool) (word.Word, error) { return newMap(pool, word.TypeStrTrieMap) }

// NewInt allocates an empty small-integer-keyed trie map.
func NewInt(pool *gc.Pool) (word.Word, error) { return newMap(pool, word.TypeIntTrieMap) }

func newMap(pool *gc.Pool, id word.TypeID) (word.Word, error) {
	addr, err := pool.AllocCells(mapCells)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, mapRoot) = word.Nil
	*word.Slot(addr, mapCount) = 0
	return word.Word(addr), nil
}

// Count returns the number of entries in m.
func Count(m word.Word) int { return int(*word.Slot(uintptr(m), mapCount)) }

func leafTypeFor(mapID word.TypeID) word.TypeID {
	if mapID == word.TypeIntTrieMap {
		return word.TypeIntTrieLeaf
	}
	return word.TypeTrieLeaf
}
func nodeTypeFor(mapID word.TypeID) word.TypeID {
	if mapID == word.TypeIntTrieMap {
		return word.TypeIntTrieNode
	}
	return word.TypeStrTrieNode
}

// findNode descends from root toward the leaf that key would occupy,
// without verifying an exact match (§4.E.5 "find_node"'s two-pass shape:
// this is the first, descent-only pass).
func findNode(root word.Word, key []byte) word.Word {
	n := root
	for n != word.Nil {
		id := word.HeaderTypeID(word.Header(uintptr(n)))
		if id != word.TypeStrTrieNode && id != word.TypeIntTrieNode {
			return n
		}
		byteIdx, mask := unpackDiff(*word.Slot(uintptr(n), nodeByteIndex))
		if direction(key, byteIdx, mask) {
			n = *word.Slot(uintptr(n), nodeRight)
		} else {
			n = *word.Slot(uintptr(n), nodeLeft)
		}
	}
	return n
}

// Get looks up key in m.
func Get(m, key word.Word) (word.Word, error) {
	root := *word.Slot(uintptr(m), mapRoot)
	if root == word.Nil {
		return 0, ErrKeyNotFound
	}
	leaf := findNode(root, keyBytes(key))
	if leaf == word.Nil || !sameKey(*word.Slot(uintptr(leaf), leafKey), key) {
		return 0, ErrKeyNotFound
	}
	return *word.Slot(uintptr(leaf), leafValue), nil
}

func sameKey(a, b word.Word) bool {
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

// Set inserts or overwrites key's value in m, allocating the leaf (and, on a
// fresh split, one branch node) at the cutoff point found by findNode
// (§4.E.5 "insert/delete at cutoff").
func Set(pool *gc.Pool, m, key, value word.Word) error {
	mapID := word.HeaderTypeID(word.Header(uintptr(m)))
	keyB := keyBytes(key)
	root := *word.Slot(uintptr(m), mapRoot)

	if root == word.Nil {
		leaf, err := newLeaf(pool, leafTypeFor(mapID), key, value)
		if err != nil {
			return err
		}
		*word.Slot(uintptr(m), mapRoot) = leaf
		*word.Slot(uintptr(m), mapCount) = 1
		return nil
	}

	existingLeaf := findNode(root, keyB)
	existingKeyB := keyBytes(*word.Slot(uintptr(existingLeaf), leafKey))
	if sameKey(*word.Slot(uintptr(existingLeaf), leafKey), key) {
		*word.Slot(uintptr(existingLeaf), leafValue) = value
		return nil
	}

	byteIdx, mask := firstDiffBit(keyB, existingKeyB)
	newLeafWord, err := newLeaf(pool, leafTypeFor(mapID), key, value)
	if err != nil {
		return err
	}

	// Re-descend to find where to splice the new branch: the first node
	// along the path whose own discriminant is coarser (earlier byte, or
	// same byte with a higher bit) than (byteIdx, mask) (§4.E.5 "insert at
	// cutoff").
	parentSlot := word.Slot(uintptr(m), mapRoot)
	cur := root
	for cur != word.Nil {
		id := word.HeaderTypeID(word.Header(uintptr(cur)))
		if id != word.TypeStrTrieNode && id != word.TypeIntTrieNode {
			break
		}
		curByteIdx, curMask := unpackDiff(*word.Slot(uintptr(cur), nodeByteIndex))
		if curByteIdx > byteIdx || (curByteIdx == byteIdx && curMask < mask) {
			break
		}
		if direction(keyB, curByteIdx, curMask) {
			parentSlot = word.Slot(uintptr(cur), nodeRight)
		} else {
			parentSlot = word.Slot(uintptr(cur), nodeLeft)
		}
		cur = *parentSlot
	}

	branch, err := pool.AllocCells(nodeCells)
	if err != nil {
		return err
	}
	word.SetHeader(branch, word.NewPredefinedHeader(nodeTypeFor(mapID)))
	*word.Slot(branch, nodeByteIndex) = packDiff(byteIdx, mask)
	if direction(keyB, byteIdx, mask) {
		*word.Slot(branch, nodeLeft) = cur
		*word.Slot(branch, nodeRight) = newLeafWord
	} else {
		*word.Slot(branch, nodeLeft) = newLeafWord
		*word.Slot(branch, nodeRight) = cur
	}
	*parentSlot = word.Word(branch)
	*word.Slot(uintptr(m), mapCount) = word.Word(Count(m) + 1)
	return nil
}

func newLeaf(pool *gc.Pool, id word.TypeID, key, value word.Word) (word.Word, error) {
	addr, err := pool.AllocCells(leafCells)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, leafKey) = key
	*word.Slot(addr, leafValue) = value
	return word.Word(addr), nil
}

// Delete removes key's entry from m, collapsing the vacated branch (§4.E.5
// "delete at cutoff").
func Delete(m, key word.Word) error {
	root := *word.Slot(uintptr(m), mapRoot)
	if root == word.Nil {
		return ErrKeyNotFound
	}
	keyB := keyBytes(key)

	id := word.HeaderTypeID(word.Header(uintptr(root)))
	if id != word.TypeStrTrieNode && id != word.TypeIntTrieNode {
		if !sameKey(*word.Slot(uintptr(root), leafKey), key) {
			return ErrKeyNotFound
		}
		*word.Slot(uintptr(m), mapRoot) = word.Nil
		*word.Slot(uintptr(m), mapCount) = 0
		return nil
	}

	var grandSlot *word.Word
	parentSlot := word.Slot(uintptr(m), mapRoot)
	cur := root
	for {
		curID := word.HeaderTypeID(word.Header(uintptr(cur)))
		if curID != word.TypeStrTrieNode && curID != word.TypeIntTrieNode {
			break
		}
		byteIdx, mask := unpackDiff(*word.Slot(uintptr(cur), nodeByteIndex))
		grandSlot = parentSlot
		if direction(keyB, byteIdx, mask) {
			parentSlot = word.Slot(uintptr(cur), nodeRight)
		} else {
			parentSlot = word.Slot(uintptr(cur), nodeLeft)
		}
		cur = *parentSlot
	}
	if !sameKey(*word.Slot(uintptr(cur), leafKey), key) {
		return ErrKeyNotFound
	}

	// cur is the matching leaf; its sibling (the other child of the node
	// pointed to by grandSlot) takes the place of that whole node.
	node := *grandSlot
	var sibling word.Word
	if *word.Slot(uintptr(node), nodeLeft) == cur {
		sibling = *word.Slot(uintptr(node), nodeRight)
	} else {
		sibling = *word.Slot(uintptr(node), nodeLeft)
	}
	*grandSlot = sibling
	*word.Slot(uintptr(m), mapCount) = word.Word(Count(m) - 1)
	return nil
}

// Copy performs the map's copy-on-write clone (§4.E.5 "copy(map)"): a fresh
// map header sharing the existing root in place, since trie nodes below the
// root are never mutated in place by Set/Delete after this point — the
// cloned map's own subsequent Set/Delete calls always replace nodes along
// the path to their target rather than mutating shared ones.
func Copy(pool *gc.Pool, m word.Word) (word.Word, error) {
	id := word.HeaderTypeID(word.Header(uintptr(m)))
	addr, err := pool.AllocCells(mapCells)
	if err != nil {
		return 0, err
	}
	word.SetHeader(addr, word.NewPredefinedHeader(id))
	*word.Slot(addr, mapRoot) = *word.Slot(uintptr(m), mapRoot)
	*word.Slot(addr, mapCount) = *word.Slot(uintptr(m), mapCount)
	return word.Word(addr), nil
}

// Iterate walks every key/value pair in m in key order (crit-bit trie
// in-order traversal).
func Iterate(m word.Word, fn func(key, value word.Word) bool) {
	root := *word.Slot(uintptr(m), mapRoot)
	if root != word.Nil {
		walk(root, fn)
	}
}

func walk(n word.Word, fn func(key, value word.Word) bool) bool {
	id := word.HeaderTypeID(word.Header(uintptr(n)))
	if id != word.TypeStrTrieNode && id != word.TypeIntTrieNode {
		return fn(*word.Slot(uintptr(n), leafKey), *word.Slot(uintptr(n), leafValue))
	}
	if !walk(*word.Slot(uintptr(n), nodeLeft), fn) {
		return false
	}
	return walk(*word.Slot(uintptr(n), nodeRight), fn)
}
