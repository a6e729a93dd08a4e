package bwtree

import (
	"iter"

	"bwtree/chain"
	"bwtree/node"
)

// Range returns a lazy, ascending sequence of the entries in
// [lo, hi). Pass node.PosInfKey[K]() for hi to scan to the end of the
// index. Iteration walks one leaf chain at a time, re-descending from
// the root between leaves, so it observes a mutating tree's state at
// each leaf boundary rather than a single consistent snapshot.
func (ix *Index[K, V]) Range(lo K, hi node.BoundKey[K]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		epoch := ix.reclaimer.EnterEpoch()
		defer ix.reclaimer.LeaveEpoch(epoch)

		cursor := lo
		for {
			leafNID, _, err := ix.descendToLeaf(cursor)
			if err != nil {
				return
			}
			head := ix.table.At(leafNID)
			if head == nil {
				continue
			}

			h := chain.NewRangeHandler[K, V](ix.cfg.Cmp, cursor, hi)
			chain.Walk(head, h)
			if h.Retry {
				continue
			}

			for _, e := range h.Results {
				if !yield(e.Key, e.Value) {
					return
				}
			}

			if !h.ChainHigh.GreaterThanKey(cursor, ix.cfg.Cmp) {
				return
			}
			if h.ChainHigh.IsInf() {
				return
			}
			if !hi.GreaterThanKey(h.ChainHigh.Key, ix.cfg.Cmp) {
				return
			}
			cursor = h.ChainHigh.Key
		}
	}
}
