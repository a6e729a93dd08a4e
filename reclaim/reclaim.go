// Package reclaim decides what happens to a chain head once a CAS
// has unlinked it from the mapping table: keep it forever, or drop it
// once no in-flight traversal can still be holding a pointer into it.
package reclaim

import "bwtree/node"

// Reclaimer is the collaborator every mutating operation defers to
// once it wins a CAS that replaces a chain head. A caller brackets a
// traversal with EnterEpoch/LeaveEpoch and hands every unlinked head
// it produces to Retire; the reclaimer alone decides when (or
// whether) that memory becomes eligible for collection.
type Reclaimer[K, V any] interface {
	EnterEpoch() uint64
	LeaveEpoch(epoch uint64)
	Retire(epoch uint64, nid node.NID, head *node.Record[K, V])
}

// NoopReclaimer never frees a retired chain head; it leaks for the
// process lifetime. Correct, if wasteful, and useful as a baseline
// against which EpochReclaimer's memory behavior can be measured.
// Mapping-table NIDs are never released either way — the allocator
// only ever grows, so there is nothing this reclaimer could recycle.
type NoopReclaimer[K, V any] struct{}

func (NoopReclaimer[K, V]) EnterEpoch() uint64      { return 0 }
func (NoopReclaimer[K, V]) LeaveEpoch(epoch uint64) {}
func (NoopReclaimer[K, V]) Retire(epoch uint64, nid node.NID, head *node.Record[K, V]) {
}
