package node

import "sort"

// NewLeafBase builds a base leaf record from an already-sorted,
// unique-key (keys, values) pair. The caller owns sorting; Search
// assumes strictly ascending keys.
func NewLeafBase[K, V any](keys []K, values []V, low, high BoundKey[K]) *Record[K, V] {
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   LeafBase,
			Height: 0,
			Size:   uint32(len(keys)),
			Low:    low,
			High:   high,
		},
		Keys:   keys,
		Values: values,
	}
}

// NewInnerBase builds a base inner record. keys[i] pairs with
// children[i]: "all keys in [keys[i], keys[i+1]) route to children[i]".
func NewInnerBase[K, V any](keys []K, children []NID, low, high BoundKey[K]) *Record[K, V] {
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   InnerBase,
			Height: 0,
			Size:   uint32(len(keys)),
			Low:    low,
			High:   high,
		},
		Keys:     keys,
		Children: children,
	}
}

// Search returns the largest index i with Keys[i] <= key: a binary
// search on [1, size), since index 0 is the node's unused/low-bound
// slot and is always <= key for a key inside the node. Precondition:
// KeyInNode(key) holds.
func (r *Record[K, V]) Search(key K, cmp func(a, b K) int) int {
	n := len(r.Keys)
	if n <= 1 {
		return 0
	}
	// sort.Search finds the first index in [1, n) where Keys[i] > key;
	// one less than that is the largest index with Keys[i] <= key.
	i := sort.Search(n-1, func(i int) bool {
		return cmp(r.Keys[i+1], key) > 0
	})
	return i
}

// PointSearch returns the index of an exact key match, or -1.
func (r *Record[K, V]) PointSearch(key K, cmp func(a, b K) int) int {
	i := r.Search(key, cmp)
	if i >= 0 && i < len(r.Keys) && cmp(r.Keys[i], key) == 0 {
		return i
	}
	return -1
}

// Split partitions the base record into a left half (returned as new
// Keys/Values/Children slices, still owned by the caller — the
// original record is never mutated) and a right half returned as a
// brand-new base Record with Low set to the split pivot's key.
// Requires len(Keys) > 1.
func (r *Record[K, V]) Split() (leftKeys []K, leftValues []V, leftChildren []NID, right *Record[K, V]) {
	n := len(r.Keys)
	if n <= 1 {
		panic("node: Split requires size > 1")
	}
	pivot := n / 2

	leftKeys = append([]K(nil), r.Keys[:pivot]...)
	right = &Record[K, V]{
		Header: Header[K]{
			Kind:   r.Kind,
			Height: 0,
			Low:    FiniteKey(r.Keys[pivot]),
			High:   r.High,
		},
	}
	right.Keys = append([]K(nil), r.Keys[pivot:]...)
	if r.Kind == LeafBase {
		leftValues = append([]V(nil), r.Values[:pivot]...)
		right.Values = append([]V(nil), r.Values[pivot:]...)
	} else {
		leftChildren = append([]NID(nil), r.Children[:pivot]...)
		right.Children = append([]NID(nil), r.Children[pivot:]...)
	}
	right.Size = uint32(len(right.Keys))
	return leftKeys, leftValues, leftChildren, right
}
