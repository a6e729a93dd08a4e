package stats

import (
	"bwtree/mapping"
	"bwtree/node"
)

// Collect walks every allocated slot in tbl and builds a Snapshot.
// NodeCount is intentionally approximate: a slot whose head is a Remove
// delta is still counted (its removal may not have finished its
// merge/InnerDelete phases yet), matching the SMO-closure invariant
// that no traversal ever observes a permanently dangling NID.
func Collect[K, V any](tbl *mapping.Table[K, V], counters *Counters) Snapshot {
	hist := make(map[uint16]int)
	nodeCount := 0
	hw := tbl.HighWaterMark()

	for slot := uint64(0); slot < hw; slot++ {
		head := tbl.At(node.NID(slot))
		if head == nil {
			continue
		}
		nodeCount++
		hist[head.Height]++
	}

	return Snapshot{
		NodeCount:      nodeCount,
		NIDHighWater:   hw,
		ChainHistogram: hist,
		Consolidations: counters.Consolidations.Load(),
		Splits:         counters.Splits.Load(),
		Merges:         counters.Merges.Load(),
	}
}
