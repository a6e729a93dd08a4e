package chain

import "bwtree/node"

// Outcome classifies how a PointReadHandler's walk concluded.
type Outcome uint8

const (
	// OutcomeFound means the key's nearest effect was an insert.
	OutcomeFound Outcome = iota
	// OutcomeNotFound means the key's nearest effect was a delete, or
	// the base scan found no matching key.
	OutcomeNotFound
	// OutcomeRedirect means a Split was crossed; re-descend at
	// RedirectNID and retry the point read there.
	OutcomeRedirect
	// OutcomeRetry means a Remove was observed; the caller must
	// re-descend from the parent and retry.
	OutcomeRetry
)

// PointReadHandler walks a leaf chain looking for the nearest
// (first-seen, i.e. most recent) insert/delete effect on Key,
// abandoning across splits and recursing across merges.
type PointReadHandler[K, V any] struct {
	Base[K, V]
	Cmp         func(a, b K) int
	Key         K
	Outcome     Outcome
	Value       V
	RedirectNID node.NID
}

// NewPointReadHandler builds a handler that looks up key.
func NewPointReadHandler[K, V any](cmp func(a, b K) int, key K) *PointReadHandler[K, V] {
	return &PointReadHandler[K, V]{Cmp: cmp, Key: key, Outcome: OutcomeNotFound}
}

func (h *PointReadHandler[K, V]) HandleLeafInsert(r *node.Record[K, V]) {
	if h.Cmp(r.InsertKey, h.Key) == 0 {
		h.Outcome = OutcomeFound
		h.Value = r.InsertValue
		h.Finish()
	}
}

func (h *PointReadHandler[K, V]) HandleLeafDelete(r *node.Record[K, V]) {
	if h.Cmp(r.DeleteKey, h.Key) == 0 {
		h.Outcome = OutcomeNotFound
		h.Finish()
	}
}

func (h *PointReadHandler[K, V]) HandleLeafSplit(r *node.Record[K, V]) {
	if h.Cmp(h.Key, r.SplitKey) >= 0 {
		h.Outcome = OutcomeRedirect
		h.RedirectNID = r.SplitRightNID
		h.Finish()
	}
}

func (h *PointReadHandler[K, V]) HandleLeafRemove(r *node.Record[K, V]) {
	h.Outcome = OutcomeRetry
	h.Finish()
}

func (h *PointReadHandler[K, V]) HandleLeafMerge(r *node.Record[K, V]) {
	if h.Cmp(h.Key, r.MergeKey) >= 0 {
		Walk(r.MergeRightPtr, h)
	} else {
		Walk(r.Next, h)
	}
}

func (h *PointReadHandler[K, V]) HandleLeafBase(r *node.Record[K, V]) {
	if i := r.PointSearch(h.Key, h.Cmp); i >= 0 {
		h.Outcome = OutcomeFound
		h.Value = r.Values[i]
	} else {
		h.Outcome = OutcomeNotFound
	}
	h.Finish()
}
