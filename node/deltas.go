package node

// NewLeafInsert builds a LeafInsert delta atop next. size/low/high
// must already reflect the virtual node after this delta is applied.
func NewLeafInsert[K, V any](next *Record[K, V], key K, value V, size uint32, low, high BoundKey[K]) *Record[K, V] {
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   LeafInsert,
			Height: next.Height + 1,
			Size:   size,
			Low:    low,
			High:   high,
		},
		Next:        next,
		InsertKey:   key,
		InsertValue: value,
	}
}

// NewLeafDelete builds a LeafDelete delta atop next.
func NewLeafDelete[K, V any](next *Record[K, V], key K, value V, size uint32, low, high BoundKey[K]) *Record[K, V] {
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   LeafDelete,
			Height: next.Height + 1,
			Size:   size,
			Low:    low,
			High:   high,
		},
		Next:        next,
		DeleteKey:   key,
		DeleteValue: value,
	}
}

// NewInnerInsert builds an InnerInsert delta: separator key routing to
// a newly-created child NID, plus the next separator/child so range
// lookups remain exact without walking further. Posted as the split
// SMO's phase 2.
func NewInnerInsert[K, V any](
	next *Record[K, V], key K, childNID NID, nextKey BoundKey[K], nextChildNID NID,
	size uint32, low, high BoundKey[K],
) *Record[K, V] {
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   InnerInsert,
			Height: next.Height + 1,
			Size:   size,
			Low:    low,
			High:   high,
		},
		Next:               next,
		InsertKey:          key,
		InsertChildNID:     childNID,
		InsertNextKey:      nextKey,
		InsertNextChildNID: nextChildNID,
	}
}

// NewInnerDelete builds an InnerDelete delta removing a stale routing
// entry. Posted as the merge SMO's phase 3.
func NewInnerDelete[K, V any](
	next *Record[K, V], key K, childNID NID,
	prevKey K, prevChildNID NID, nextKey BoundKey[K], nextChildNID NID,
	size uint32, low, high BoundKey[K],
) *Record[K, V] {
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   InnerDelete,
			Height: next.Height + 1,
			Size:   size,
			Low:    low,
			High:   high,
		},
		Next:               next,
		DeleteKey:          key,
		DeleteChildNID:     childNID,
		DeletePrevKey:      prevKey,
		DeletePrevChildNID: prevChildNID,
		DeleteNextKey:      nextKey,
		DeleteNextChildNID: nextChildNID,
	}
}

// NewSplit builds a Split delta (leaf or inner, matching next's
// family) narrowing High to splitKey. Posted as SMO split phase 1.
func NewSplit[K, V any](next *Record[K, V], splitKey K, rightNID NID, size uint32, low BoundKey[K]) *Record[K, V] {
	kind := LeafSplit
	if !next.Kind.IsLeaf() {
		kind = InnerSplit
	}
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   kind,
			Height: next.Height + 1,
			Size:   size,
			Low:    low,
			High:   FiniteKey(splitKey),
		},
		Next:          next,
		SplitKey:      splitKey,
		SplitRightNID: rightNID,
	}
}

// NewRemove builds a Remove delta (leaf or inner, matching next's
// family) marking the virtual node dead. Carries no key; no further
// deltas may be posted above it. Posted as SMO merge phase 1.
func NewRemove[K, V any](next *Record[K, V]) *Record[K, V] {
	kind := LeafRemove
	if !next.Kind.IsLeaf() {
		kind = InnerRemove
	}
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   kind,
			Height: next.Height + 1,
			Size:   next.Size,
			Low:    next.Low,
			High:   next.High,
		},
		Next: next,
	}
}

// NewMerge builds a Merge delta (leaf or inner, matching next's
// family), widening High to the absorbed right sibling's High and
// logically splicing in its chain. Posted as SMO merge phase 2.
func NewMerge[K, V any](
	next *Record[K, V], mergeKey K, rightHead *Record[K, V], rightNID NID, size uint32, high BoundKey[K],
) *Record[K, V] {
	kind := LeafMerge
	if !next.Kind.IsLeaf() {
		kind = InnerMerge
	}
	return &Record[K, V]{
		Header: Header[K]{
			Kind:   kind,
			Height: next.Height + 1,
			Size:   size,
			Low:    next.Low,
			High:   high,
		},
		Next:          next,
		MergeKey:      mergeKey,
		MergeRightPtr: rightHead,
		MergeRightNID: rightNID,
	}
}
