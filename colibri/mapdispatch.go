package colibri

import (
	"errors"

	"colibri/container/hashmap"
	"colibri/container/trie"
	"colibri/gc"
	"colibri/word"
)

// ErrUnknownMapType is returned by the MapXxx dispatch functions when w's
// type ID is not one of the four map kinds Colibri defines.
var ErrUnknownMapType = errors.New("colibri: not a map word")

// MapGet looks up key in m, dispatching to the hash or trie map
// implementation by m's runtime type ID. This is the "MapDispatch" layer a
// generic client reaches for when it holds a word of unknown map kind (e.g.
// one read back out of another container) rather than a concrete
// hashmap.Map/trie.Map handle.
func MapGet(m, key word.Word) (word.Word, error) {
	switch word.HeaderTypeID(word.Header(uintptr(m))) {
	case word.TypeStrHashMap, word.TypeIntHashMap:
		return hashmap.Get(m, key)
	case word.TypeStrTrieMap, word.TypeIntTrieMap:
		return trie.Get(m, key)
	default:
		return 0, ErrUnknownMapType
	}
}

// MapSet inserts or overwrites key's value in m, returning the (possibly
// relocated, for hash maps that grew) map word.
func MapSet(pool *gc.Pool, m, key, value word.Word) (word.Word, error) {
	switch word.HeaderTypeID(word.Header(uintptr(m))) {
	case word.TypeStrHashMap, word.TypeIntHashMap:
		return hashmap.Set(pool, m, key, value)
	case word.TypeStrTrieMap, word.TypeIntTrieMap:
		if err := trie.Set(pool, m, key, value); err != nil {
			return 0, err
		}
		return m, nil
	default:
		return 0, ErrUnknownMapType
	}
}

// MapUnset removes key's entry from m, if any.
func MapUnset(m, key word.Word) error {
	switch word.HeaderTypeID(word.Header(uintptr(m))) {
	case word.TypeStrHashMap, word.TypeIntHashMap:
		hashmap.Unset(m, key)
		return nil
	case word.TypeStrTrieMap, word.TypeIntTrieMap:
		return trie.Delete(m, key)
	default:
		return ErrUnknownMapType
	}
}

// MapCount returns the number of entries in m.
func MapCount(m word.Word) (int, error) {
	switch word.HeaderTypeID(word.Header(uintptr(m))) {
	case word.TypeStrHashMap, word.TypeIntHashMap:
		return hashmap.Count(m), nil
	case word.TypeStrTrieMap, word.TypeIntTrieMap:
		return trie.Count(m), nil
	default:
		return 0, ErrUnknownMapType
	}
}

// MapCopy clones m via its own copy-on-write scheme.
func MapCopy(pool *gc.Pool, m word.Word) (word.Word, error) {
	switch word.HeaderTypeID(word.Header(uintptr(m))) {
	case word.TypeStrHashMap, word.TypeIntHashMap:
		return hashmap.Copy(pool, m)
	case word.TypeStrTrieMap, word.TypeIntTrieMap:
		return trie.Copy(pool, m)
	default:
		return 0, ErrUnknownMapType
	}
}

// MapIterate walks every key/value pair of m, stopping early if fn returns
// false. Hash maps visit in bucket order; trie maps visit in key order.
func MapIterate(m word.Word, fn func(key, value word.Word) bool) error {
	switch word.HeaderTypeID(word.Header(uintptr(m))) {
	case word.TypeStrHashMap, word.TypeIntHashMap:
		hashmap.Iterate(m, fn)
		return nil
	case word.TypeStrTrieMap, word.TypeIntTrieMap:
		trie.Iterate(m, fn)
		return nil
	default:
		return ErrUnknownMapType
	}
}
