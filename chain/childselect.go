package chain

import "bwtree/node"

// ChildSelectHandler walks an inner node's chain to pick the child NID
// whose range contains Key, honoring splits (of this inner node
// itself), merges, and removes exactly as PointReadHandler does for
// leaves.
type ChildSelectHandler[K, V any] struct {
	Base[K, V]
	Cmp         func(a, b K) int
	Key         K
	ChildNID    node.NID
	Outcome     Outcome
	RedirectNID node.NID
}

// NewChildSelectHandler builds a handler that selects the child
// routing key.
func NewChildSelectHandler[K, V any](cmp func(a, b K) int, key K) *ChildSelectHandler[K, V] {
	return &ChildSelectHandler[K, V]{Cmp: cmp, Key: key}
}

func (h *ChildSelectHandler[K, V]) HandleInnerInsert(r *node.Record[K, V]) {
	if h.Cmp(h.Key, r.InsertKey) >= 0 && r.InsertNextKey.GreaterThanKey(h.Key, h.Cmp) {
		h.ChildNID = r.InsertChildNID
		h.Outcome = OutcomeFound
		h.Finish()
	}
}

func (h *ChildSelectHandler[K, V]) HandleInnerDelete(r *node.Record[K, V]) {
	if h.Cmp(h.Key, r.DeletePrevKey) >= 0 && r.DeleteNextKey.GreaterThanKey(h.Key, h.Cmp) {
		h.ChildNID = r.DeletePrevChildNID
		h.Outcome = OutcomeFound
		h.Finish()
	}
}

func (h *ChildSelectHandler[K, V]) HandleInnerSplit(r *node.Record[K, V]) {
	if h.Cmp(h.Key, r.SplitKey) >= 0 {
		h.Outcome = OutcomeRedirect
		h.RedirectNID = r.SplitRightNID
		h.Finish()
	}
}

func (h *ChildSelectHandler[K, V]) HandleInnerRemove(r *node.Record[K, V]) {
	h.Outcome = OutcomeRetry
	h.Finish()
}

func (h *ChildSelectHandler[K, V]) HandleInnerMerge(r *node.Record[K, V]) {
	if h.Cmp(h.Key, r.MergeKey) >= 0 {
		Walk(r.MergeRightPtr, h)
	} else {
		Walk(r.Next, h)
	}
}

func (h *ChildSelectHandler[K, V]) HandleInnerBase(r *node.Record[K, V]) {
	i := r.Search(h.Key, h.Cmp)
	h.ChildNID = r.Children[i]
	h.Outcome = OutcomeFound
	h.Finish()
}
