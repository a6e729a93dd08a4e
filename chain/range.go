package chain

import (
	"sort"

	"bwtree/node"
)

// Entry is one (key, value) pair produced by a range scan.
type Entry[K, V any] struct {
	Key   K
	Value V
}

type pendingOp[K, V any] struct {
	key     K
	value   V
	deleted bool
}

// RangeHandler accumulates pending inserts/deletes by key in a small
// buffered set while walking down a single chain, merges them into
// the base scan output
// once it reaches the base, and honors splits/merges along the way.
// Lo is a concrete key; Hi may be the infinite sentinel for an
// unbounded scan.
type RangeHandler[K, V any] struct {
	Base[K, V]
	Cmp     func(a, b K) int
	Lo      K
	Hi      node.BoundKey[K]
	Results []Entry[K, V]
	// ChainHigh is the effective high bound of the chain once the
	// walk completes: callers resume a multi-chain range scan from
	// this key.
	ChainHigh node.BoundKey[K]
	// Retry is set if a Remove was observed partway through; the
	// caller must re-descend from the parent and retry this segment.
	Retry bool

	pending     []pendingOp[K, V]
	clippedHigh *node.BoundKey[K]
}

// NewRangeHandler builds a handler collecting entries in [lo, hi).
func NewRangeHandler[K, V any](cmp func(a, b K) int, lo K, hi node.BoundKey[K]) *RangeHandler[K, V] {
	return &RangeHandler[K, V]{Cmp: cmp, Lo: lo, Hi: hi}
}

func (h *RangeHandler[K, V]) recordIfAbsent(key K, value V, deleted bool) {
	for i := range h.pending {
		if h.Cmp(h.pending[i].key, key) == 0 {
			return
		}
	}
	h.pending = append(h.pending, pendingOp[K, V]{key: key, value: value, deleted: deleted})
}

func (h *RangeHandler[K, V]) HandleLeafInsert(r *node.Record[K, V]) {
	h.recordIfAbsent(r.InsertKey, r.InsertValue, false)
}

func (h *RangeHandler[K, V]) HandleLeafDelete(r *node.Record[K, V]) {
	var zero V
	h.recordIfAbsent(r.DeleteKey, zero, true)
}

func (h *RangeHandler[K, V]) clipHigh(b node.BoundKey[K]) {
	if h.clippedHigh == nil {
		v := b
		h.clippedHigh = &v
	}
}

func (h *RangeHandler[K, V]) HandleLeafSplit(r *node.Record[K, V]) {
	h.clipHigh(node.FiniteKey(r.SplitKey))
}

func (h *RangeHandler[K, V]) HandleLeafRemove(r *node.Record[K, V]) {
	h.Retry = true
	h.Finish()
}

// HandleLeafMerge walks the absorbing (left) and absorbed (right) legs
// with independent handlers so neither leg's Base.done or pending set
// leaks into the other, then merges both outcomes back into h. A later
// split clip (from a delta closer to the chain head than this merge)
// only ever needs to bound the right leg: the left leg's own high is
// the merge key, already smaller than any such clip.
func (h *RangeHandler[K, V]) HandleLeafMerge(r *node.Record[K, V]) {
	left := &RangeHandler[K, V]{Cmp: h.Cmp, Lo: h.Lo, Hi: h.Hi, pending: append([]pendingOp[K, V](nil), h.pending...)}
	Walk(r.Next, left)
	if left.Retry {
		h.Retry = true
		h.Finish()
		return
	}

	right := &RangeHandler[K, V]{Cmp: h.Cmp, Lo: h.Lo, Hi: h.Hi, pending: append([]pendingOp[K, V](nil), h.pending...), clippedHigh: h.clippedHigh}
	Walk(r.MergeRightPtr, right)
	if right.Retry {
		h.Retry = true
		h.Finish()
		return
	}

	h.Results = append(h.Results, left.Results...)
	h.Results = append(h.Results, right.Results...)
	sort.Slice(h.Results, func(i, j int) bool { return h.Cmp(h.Results[i].Key, h.Results[j].Key) < 0 })
	h.ChainHigh = right.ChainHigh
	h.Finish()
}

func (h *RangeHandler[K, V]) HandleLeafBase(r *node.Record[K, V]) {
	high := r.High
	if h.clippedHigh != nil {
		high = *h.clippedHigh
	}
	h.ChainHigh = high

	seen := make([]bool, len(h.pending))
	var out []Entry[K, V]
	for i, k := range r.Keys {
		if h.Cmp(k, h.Lo) < 0 || !high.GreaterThanKey(k, h.Cmp) || !h.Hi.GreaterThanKey(k, h.Cmp) {
			continue
		}
		value := r.Values[i]
		deleted := false
		for j := range h.pending {
			if h.Cmp(h.pending[j].key, k) == 0 {
				seen[j] = true
				if h.pending[j].deleted {
					deleted = true
				} else {
					value = h.pending[j].value
				}
				break
			}
		}
		if !deleted {
			out = append(out, Entry[K, V]{Key: k, Value: value})
		}
	}
	for j, op := range h.pending {
		if seen[j] || op.deleted {
			continue
		}
		if h.Cmp(op.key, h.Lo) < 0 || !high.GreaterThanKey(op.key, h.Cmp) || !h.Hi.GreaterThanKey(op.key, h.Cmp) {
			continue
		}
		out = append(out, Entry[K, V]{Key: op.key, Value: op.value})
	}
	sort.Slice(out, func(i, j int) bool { return h.Cmp(out[i].Key, out[j].Key) < 0 })
	h.Results = append(h.Results, out...)
	h.Finish()
}
