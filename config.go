package bwtree

import (
	"github.com/pkg/errors"

	"bwtree/reclaim"
)

// Config parameterizes a new Index. Cmp must impose a strict total
// order on K; it is called from arbitrary goroutines and must be
// side-effect free.
type Config[K, V any] struct {
	// TableSize bounds the number of NIDs the mapping table can ever
	// hand out. Allocate fails permanently once exhausted.
	TableSize uint64
	// SplitThreshold is the virtual node size above which a leaf
	// triggers the split SMO, checked after each Insert or Delete on
	// that leaf. Inner nodes are not split by size.
	SplitThreshold int
	// MergeThreshold is the virtual node size below which a non-root
	// leaf triggers the remove+merge SMO. Inner nodes are not merged
	// by size.
	MergeThreshold int
	// ChainThreshold is the delta-chain height above which an Insert
	// or Delete consolidates the leaf chain it just extended. Inner
	// chains and read-only traversals never trigger consolidation.
	ChainThreshold uint16
	Cmp            func(a, b K) int
	// Reclaimer defaults to reclaim.NoopReclaimer if nil. Passing a
	// *reclaim.EpochReclaimer additionally wires its background erase
	// workers and epoch ticking into this Index's lifecycle: New
	// starts the workers, every ReclaimAdvanceEvery completed
	// mutations ticks Advance, and Destroy stops the workers.
	Reclaimer reclaim.Reclaimer[K, V]
	// ReclaimWorkers is the number of background erase workers started
	// for a Reclaimer that exposes Start(ctx, numWorkers). Defaults to
	// 1 if <= 0; ignored by reclaimers without a Start method.
	ReclaimWorkers int
	// ReclaimAdvanceEvery is the number of completed mutations between
	// calls to a Reclaimer's Advance method, if it has one. Defaults
	// to 128 if <= 0; ignored by reclaimers without an Advance method.
	ReclaimAdvanceEvery uint64
}

func (cfg Config[K, V]) validate() error {
	if cfg.Cmp == nil {
		return errors.New("bwtree: Config.Cmp is required")
	}
	if cfg.TableSize == 0 {
		return errors.New("bwtree: Config.TableSize must be > 0")
	}
	if cfg.SplitThreshold < 2 {
		return errors.New("bwtree: Config.SplitThreshold must be >= 2")
	}
	if cfg.MergeThreshold < 0 || cfg.MergeThreshold >= cfg.SplitThreshold {
		return errors.New("bwtree: Config.MergeThreshold must be in [0, SplitThreshold)")
	}
	return nil
}
