package word

// CustomTag selects which family of client-provided procedures a custom
// type's descriptor must supply (§6 "Custom-type descriptor").
type CustomTag int

const (
	CustomPlain   CustomTag = iota // COL_CUSTOM: arbitrary opaque record
	CustomHashMap                  // COL_HASHMAP: hash+compare keyed
	CustomTrieMap                  // COL_TRIEMAP: bit-test+key-diff keyed
	CustomMap                      // COL_MAP: fully custom get/set/unset/iterate
	CustomIntMap                   // COL_INTMAP: COL_MAP variant with integer keys
)

// CustomType is the application-provided descriptor for a custom word type.
// Its address is required to be cell-aligned (low 2 bits free) so a pointer
// word can carry it directly as described in §4.D "custom" discrimination:
// bit 1 clear on the header's first machine word marks the word as custom,
// and the full word (bit 0 masked) is this descriptor's address.
type CustomType struct {
	Tag  CustomTag
	Name string

	// Size returns the number of bytes occupied by the given custom word's
	// record, used by the allocator and by GC sweep's size computation.
	Size func(w Word) int

	// Children enumerates the words directly reachable from w, invoking
	// emit once per child. A nil Children means the custom word has no
	// reachable children (a leaf record).
	Children func(w Word, emit func(child *Word))

	// Free is invoked during finalizer sweep (§4.C step 7) once w has been
	// determined unreachable. A non-nil Free enqueues w on its pool's sweep
	// list at creation time. Free must not allocate (§4.C "Failure
	// semantics": finalizers may not call back into the allocator).
	Free func(w Word)

	// HashKey / CompareKeys are required when Tag == CustomHashMap.
	HashKey     func(key Word) uint64
	CompareKeys func(a, b Word) int

	// BitTest / KeyDiff are required when Tag == CustomTrieMap: BitTest
	// reports the value of the given bit position of key (§4.E.4), KeyDiff
	// locates the first differing bit between two keys.
	BitTest func(key Word, bitIndex int) bool
	KeyDiff func(a, b Word) (bitIndex int, found bool)

	// Get/Set/Unset/IterFirst/IterNext back a fully custom map (COL_MAP /
	// COL_INTMAP) that bypasses the built-in hash/trie representations
	// entirely.
	Get       func(m Word, key Word) (value Word, ok bool)
	Set       func(m Word, key, value Word) (isNew bool)
	Unset     func(m Word, key Word) (existed bool)
	IterFirst func(m Word) (it Word, ok bool)
	IterNext  func(it Word) (next Word, ok bool)
}

// HasFinalizer reports whether words of this custom type must be tracked on
// a pool's sweep list (§3 "The sweep list of pool g contains only
// custom-type cells... whose type descriptor has a non-null finalizer").
func (c *CustomType) HasFinalizer() bool {
	return c.Free != nil
}
