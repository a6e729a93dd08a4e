// Package consolidate rewrites a delta chain into a fresh immutable
// base node and installs it via CAS. It is also the mechanism SMOs
// reuse to materialize a virtual node's full current contents before
// splitting or merging it.
package consolidate

import (
	"bwtree/mapping"
	"bwtree/node"
)

// Build replays head's full chain and returns a brand-new base
// Record with the virtual node's current contents and [Low, High)
// bound. It does not touch the mapping table.
func Build[K, V any](head *node.Record[K, V], cmp func(a, b K) int) *node.Record[K, V] {
	if head.Kind.IsLeaf() {
		m := materializeLeaf(head, cmp)
		return node.NewLeafBase(m.keys, m.values, m.low, m.high)
	}
	m := materializeInner(head, cmp)
	return node.NewInnerBase[K, V](m.keys, m.children, m.low, m.high)
}

// Result reports the outcome of a Consolidate attempt.
type Result[K, V any] struct {
	Installed bool
	Base      *node.Record[K, V]
}

// Consolidate rewrites the chain at nid (whose current head must be
// head) into a new base and attempts to install it with a single CAS.
// On success the old chain passes to the caller's reclamation policy;
// on failure the new base is simply dropped.
func Consolidate[K, V any](tbl *mapping.Table[K, V], cmp func(a, b K) int, nid node.NID, head *node.Record[K, V]) Result[K, V] {
	newBase := Build(head, cmp)
	installed := tbl.CAS(nid, head, newBase)
	return Result[K, V]{Installed: installed, Base: newBase}
}

// ShouldConsolidate reports whether head's chain height exceeds the
// configured threshold.
func ShouldConsolidate[K, V any](head *node.Record[K, V], chainThreshold uint16) bool {
	return head.Height > chainThreshold
}
