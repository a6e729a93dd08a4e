// Package mapping implements the tree's coordination substrate: a
// fixed-size table of atomic chain-head pointers indexed by NID, plus
// the monotonic NID allocator. Every structural or data mutation in
// the tree commits via exactly one CAS on a slot of this table.
package mapping

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"bwtree/node"
)

// ErrTableFull is returned when the NID allocator has exhausted the
// table's capacity. Non-recoverable.
var ErrTableFull = errors.New("mapping: table is full")

// Table is a fixed-size array of atomic chain-head pointers plus a
// fetch-add NID allocator, so every mutation commits via a single CAS
// on one slot instead of a lock held over the whole structure.
type Table[K, V any] struct {
	slots    []atomic.Pointer[node.Record[K, V]]
	nextSlot atomic.Uint64
}

// New allocates a table with capacity size.
func New[K, V any](size uint64) *Table[K, V] {
	return &Table[K, V]{
		slots: make([]atomic.Pointer[node.Record[K, V]], size),
	}
}

// Capacity returns the table's fixed slot count.
func (t *Table[K, V]) Capacity() uint64 {
	return uint64(len(t.slots))
}

// Allocate reserves the next NID and stores head into its slot. The
// store is a plain atomic store: the slot has never been observed
// non-nil before, so there is no concurrent reader to race with the
// initial publish, only later CAS attempts once the NID is handed
// out.
func (t *Table[K, V]) Allocate(head *node.Record[K, V]) (node.NID, error) {
	slot := t.nextSlot.Add(1) - 1
	if slot >= uint64(len(t.slots)) {
		return node.InvalidNID, errors.WithStack(ErrTableFull)
	}
	t.slots[slot].Store(head)
	return node.NID(slot), nil
}

// At acquire-loads the current chain head for nid.
func (t *Table[K, V]) At(nid node.NID) *node.Record[K, V] {
	return t.slots[nid].Load()
}

// CAS attempts to swap the chain head for nid from old to new.
func (t *Table[K, V]) CAS(nid node.NID, old, new *node.Record[K, V]) bool {
	return t.slots[nid].CompareAndSwap(old, new)
}

// Reset clears every slot and the allocator counter. Index.Destroy
// calls it to drop every chain; tests also call it directly.
func (t *Table[K, V]) Reset() {
	for i := range t.slots {
		t.slots[i].Store(nil)
	}
	t.nextSlot.Store(0)
}

// HighWaterMark returns the number of NIDs handed out so far.
func (t *Table[K, V]) HighWaterMark() uint64 {
	hw := t.nextSlot.Load()
	if hw > uint64(len(t.slots)) {
		return uint64(len(t.slots))
	}
	return hw
}
