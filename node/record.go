package node

// Header carries the fields common to every node/delta: the kind tag,
// the height in the chain (0 at the base), the virtual node's logical
// size after this record is applied, and its [Low, High) bound. A
// delta's Header always reflects the *virtual* node, not just its own
// local payload.
type Header[K any] struct {
	Kind   Kind
	Height uint16
	Size   uint32
	Low    BoundKey[K]
	High   BoundKey[K]
}

// Record is the single sum type every node/delta variant is modeled
// as: one struct, discriminated by Header.Kind, with payload fields
// that are only meaningful for the kinds that use them. A single
// concrete struct (rather than an interface hierarchy) is what lets
// the mapping table hold chain heads in a plain atomic.Pointer.
type Record[K, V any] struct {
	Header[K]

	// Next points deeper into the chain; nil at the base.
	Next *Record[K, V]

	// Base node payload (Kind == InnerBase || Kind == LeafBase).
	// Sorted ascending, unique keys. For LeafBase, Values holds the
	// leaf's V payloads; for InnerBase, Children holds child NIDs and
	// Values is unused.
	Keys     []K
	Values   []V
	Children []NID

	// LeafInsert / InnerInsert payload.
	InsertKey          K
	InsertValue        V            // LeafInsert only
	InsertChildNID     NID          // InnerInsert only: new child
	InsertNextKey      BoundKey[K]  // InnerInsert only: next separator (may be +inf), for exact ranges
	InsertNextChildNID NID          // InnerInsert only: next child

	// LeafDelete / InnerDelete payload.
	DeleteKey          K
	DeleteValue        V           // LeafDelete only, optional validation payload
	DeleteChildNID     NID         // InnerDelete only: removed child
	DeletePrevKey      K           // InnerDelete only: left sibling's separator (always concrete)
	DeletePrevChildNID NID         // InnerDelete only
	DeleteNextKey      BoundKey[K] // InnerDelete only (may be +inf)
	DeleteNextChildNID NID         // InnerDelete only

	// LeafSplit / InnerSplit payload.
	SplitKey      K
	SplitRightNID NID

	// LeafMerge / InnerMerge payload.
	MergeKey      K
	MergeRightNID NID
	MergeRightPtr *Record[K, V]
}

// KeyInNode reports whether key falls within the record's current
// [Low, High) bound.
func (r *Record[K, V]) KeyInNode(key K, cmp func(a, b K) int) bool {
	return r.Low.LessOrEqualKey(key, cmp) && r.High.GreaterThanKey(key, cmp)
}

// KeyLargerThanNode reports whether key is at or past the record's
// high bound (and thus routed to a right sibling after a split).
func (r *Record[K, V]) KeyLargerThanNode(key K, cmp func(a, b K) int) bool {
	return !r.High.IsInf() && r.High.LessOrEqualKey(key, cmp)
}

// KeySmallerThanNode reports whether key precedes the record's low
// bound.
func (r *Record[K, V]) KeySmallerThanNode(key K, cmp func(a, b K) int) bool {
	return !r.Low.IsInf() && r.Low.GreaterThanKey(key, cmp)
}
