package consolidate

import (
	"sort"

	"bwtree/chain"
	"bwtree/node"
)

type op[K, V any] struct {
	key     K
	value   V
	deleted bool
}

// leafMaterialize walks an entire leaf chain (no [lo, hi) clipping,
// unlike chain.RangeHandler) and produces the virtual node's full,
// sorted, deleted-filtered key/value content plus its current
// [Low, High) bound.
type leafMaterialize[K, V any] struct {
	chain.Base[K, V]
	cmp func(a, b K) int

	pending []op[K, V]
	keys    []K
	values  []V
	low     node.BoundKey[K]
	high    node.BoundKey[K]
	lowSet  bool
	clipped *node.BoundKey[K]
}

func (h *leafMaterialize[K, V]) recordIfAbsent(key K, value V, deleted bool) {
	for i := range h.pending {
		if h.cmp(h.pending[i].key, key) == 0 {
			return
		}
	}
	h.pending = append(h.pending, op[K, V]{key: key, value: value, deleted: deleted})
}

func (h *leafMaterialize[K, V]) HandleLeafInsert(r *node.Record[K, V]) {
	h.recordIfAbsent(r.InsertKey, r.InsertValue, false)
}

func (h *leafMaterialize[K, V]) HandleLeafDelete(r *node.Record[K, V]) {
	var zero V
	h.recordIfAbsent(r.DeleteKey, zero, true)
}

func (h *leafMaterialize[K, V]) HandleLeafSplit(r *node.Record[K, V]) {
	if h.clipped == nil {
		v := node.FiniteKey(r.SplitKey)
		h.clipped = &v
	}
}

// HandleLeafMerge walks the absorbing (left) and absorbed (right) legs
// with independent handlers so Base.done from the first leg can't cut
// the second leg's walk short, then folds both sets of rows into h.
// A pending split clip from above the merge only ever needs to bound
// the right leg; the left leg's own high is the merge key already.
func (h *leafMaterialize[K, V]) HandleLeafMerge(r *node.Record[K, V]) {
	left := &leafMaterialize[K, V]{cmp: h.cmp, pending: append([]op[K, V](nil), h.pending...)}
	chain.Walk(r.Next, left)

	right := &leafMaterialize[K, V]{cmp: h.cmp, pending: append([]op[K, V](nil), h.pending...), clipped: h.clipped}
	chain.Walk(r.MergeRightPtr, right)

	if !h.lowSet {
		h.low = left.low
		h.lowSet = true
	}
	h.high = right.high
	h.keys = append(h.keys, left.keys...)
	h.values = append(h.values, left.values...)
	h.keys = append(h.keys, right.keys...)
	h.values = append(h.values, right.values...)
	h.Finish()
}

func (h *leafMaterialize[K, V]) HandleLeafBase(r *node.Record[K, V]) {
	if !h.lowSet {
		h.low = r.Low
		h.lowSet = true
	}
	high := r.High
	if h.clipped != nil {
		high = *h.clipped
	}
	h.high = high

	seen := make([]bool, len(h.pending))
	for i, k := range r.Keys {
		if !high.GreaterThanKey(k, h.cmp) {
			// At or past a split key: the row belongs to the right sibling.
			continue
		}
		value := r.Values[i]
		deleted := false
		for j := range h.pending {
			if h.cmp(h.pending[j].key, k) == 0 {
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
			h.keys = append(h.keys, k)
			h.values = append(h.values, value)
		}
	}
	for j, o := range h.pending {
		if seen[j] || o.deleted || !high.GreaterThanKey(o.key, h.cmp) {
			continue
		}
		h.keys = append(h.keys, o.key)
		h.values = append(h.values, o.value)
	}
	h.Finish()
}

func materializeLeaf[K, V any](head *node.Record[K, V], cmp func(a, b K) int) *leafMaterialize[K, V] {
	h := &leafMaterialize[K, V]{cmp: cmp}
	chain.Walk(head, h)
	sort.Sort(kvSort[K, V]{keys: h.keys, values: h.values, cmp: cmp})
	return h
}

type kvSort[K, V any] struct {
	keys   []K
	values []V
	cmp    func(a, b K) int
}

func (s kvSort[K, V]) Len() int           { return len(s.keys) }
func (s kvSort[K, V]) Less(i, j int) bool { return s.cmp(s.keys[i], s.keys[j]) < 0 }
func (s kvSort[K, V]) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// innerMaterialize is the inner analogue: it replays InnerInsert/
// InnerDelete deltas against the base routing array.
type innerMaterialize[K, V any] struct {
	chain.Base[K, V]
	cmp func(a, b K) int

	inserts []insertOp[K, V]
	deletes []K
	keys    []K
	children []node.NID
	low      node.BoundKey[K]
	high     node.BoundKey[K]
	lowSet   bool
	clipped  *node.BoundKey[K]
}

type insertOp[K, V any] struct {
	key      K
	childNID node.NID
}

func (h *innerMaterialize[K, V]) alreadyRecorded(key K) bool {
	for _, d := range h.deletes {
		if h.cmp(d, key) == 0 {
			return true
		}
	}
	for _, i := range h.inserts {
		if h.cmp(i.key, key) == 0 {
			return true
		}
	}
	return false
}

func (h *innerMaterialize[K, V]) HandleInnerInsert(r *node.Record[K, V]) {
	if !h.alreadyRecorded(r.InsertKey) {
		h.inserts = append(h.inserts, insertOp[K, V]{key: r.InsertKey, childNID: r.InsertChildNID})
	}
}

func (h *innerMaterialize[K, V]) HandleInnerDelete(r *node.Record[K, V]) {
	if !h.alreadyRecorded(r.DeleteKey) {
		h.deletes = append(h.deletes, r.DeleteKey)
	}
}

func (h *innerMaterialize[K, V]) HandleInnerSplit(r *node.Record[K, V]) {
	if h.clipped == nil {
		v := node.FiniteKey(r.SplitKey)
		h.clipped = &v
	}
}

// HandleInnerMerge mirrors leafMaterialize.HandleLeafMerge: each leg
// gets its own handler so the two chains never share a Base.done flag
// or a replay set, then the routing entries from both are folded into h.
func (h *innerMaterialize[K, V]) HandleInnerMerge(r *node.Record[K, V]) {
	left := &innerMaterialize[K, V]{
		cmp:     h.cmp,
		inserts: append([]insertOp[K, V](nil), h.inserts...),
		deletes: append([]K(nil), h.deletes...),
	}
	chain.Walk(r.Next, left)

	right := &innerMaterialize[K, V]{
		cmp:     h.cmp,
		inserts: append([]insertOp[K, V](nil), h.inserts...),
		deletes: append([]K(nil), h.deletes...),
		clipped: h.clipped,
	}
	chain.Walk(r.MergeRightPtr, right)

	if !h.lowSet {
		h.low = left.low
		h.lowSet = true
	}
	h.high = right.high
	h.keys = append(h.keys, left.keys...)
	h.children = append(h.children, left.children...)
	h.keys = append(h.keys, right.keys...)
	h.children = append(h.children, right.children...)
	h.Finish()
}

func (h *innerMaterialize[K, V]) HandleInnerBase(r *node.Record[K, V]) {
	if !h.lowSet {
		h.low = r.Low
		h.lowSet = true
	}
	high := r.High
	if h.clipped != nil {
		high = *h.clipped
	}
	h.high = high

	for i, k := range r.Keys {
		deleted := false
		for _, d := range h.deletes {
			if h.cmp(d, k) == 0 {
				deleted = true
				break
			}
		}
		if !deleted {
			h.keys = append(h.keys, k)
			h.children = append(h.children, r.Children[i])
		}
	}
	for _, ins := range h.inserts {
		h.keys = append(h.keys, ins.key)
		h.children = append(h.children, ins.childNID)
	}
	h.Finish()
}

func materializeInner[K, V any](head *node.Record[K, V], cmp func(a, b K) int) *innerMaterialize[K, V] {
	h := &innerMaterialize[K, V]{cmp: cmp}
	chain.Walk(head, h)
	sort.Sort(kcSort[K, V]{keys: h.keys, children: h.children, cmp: cmp})
	return h
}

type kcSort[K, V any] struct {
	keys     []K
	children []node.NID
	cmp      func(a, b K) int
}

func (s kcSort[K, V]) Len() int           { return len(s.keys) }
func (s kcSort[K, V]) Less(i, j int) bool { return s.cmp(s.keys[i], s.keys[j]) < 0 }
func (s kcSort[K, V]) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.children[i], s.children[j] = s.children[j], s.children[i]
}
