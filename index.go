// Package bwtree implements a lock-free, in-memory, ordered key-value
// index built from delta chains over immutable base nodes,
// coordinated through a mapping table of atomic chain-head pointers.
// Every mutation commits with a single compare-and-swap; readers and
// writers alike walk whatever chain they observe. A thread that meets
// an unfinished structural modification does not complete it: it
// re-descends from the root and retries, up to a fixed number of
// attempts, while the thread that started the modification posts its
// remaining phases.
package bwtree

import (
	"context"
	"sync/atomic"

	"bwtree/chain"
	"bwtree/consolidate"
	"bwtree/mapping"
	"bwtree/node"
	"bwtree/reclaim"
	"bwtree/smo"
	"bwtree/stats"
)

const (
	maxDescendAttempts         = 64
	defaultReclaimWorkers      = 1
	defaultReclaimAdvanceEvery = 128
)

// Index is a single Bw-tree instance. The zero value is not usable;
// build one with New.
type Index[K, V any] struct {
	cfg       Config[K, V]
	table     *mapping.Table[K, V]
	smo       *smo.Engine[K, V]
	reclaimer reclaim.Reclaimer[K, V]
	counters  stats.Counters
	root      atomic.Uint64
	opCount   atomic.Uint64
}

// New builds an empty Index over cfg. The initial tree is a single
// empty leaf spanning (-inf, +inf).
func New[K, V any](cfg Config[K, V]) (*Index[K, V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Reclaimer == nil {
		cfg.Reclaimer = reclaim.NoopReclaimer[K, V]{}
	}

	tbl := mapping.New[K, V](cfg.TableSize)
	rootBase := node.NewLeafBase[K, V](nil, nil, node.NegInfKey[K](), node.PosInfKey[K]())
	rootNID, err := tbl.Allocate(rootBase)
	if err != nil {
		return nil, wrapAllocErr(err)
	}

	ix := &Index[K, V]{
		cfg:       cfg,
		table:     tbl,
		smo:       smo.New(tbl, cfg.Cmp),
		reclaimer: cfg.Reclaimer,
	}
	ix.root.Store(uint64(rootNID))
	// A helper that finds its posting target already dead (a live
	// Remove delta from an unrelated, concurrent merge) re-descends
	// from the root instead, the same recovery a reader gets from
	// descendToLeaf's own OutcomeRetry handling.
	ix.smo.Resolve = func(key K) (node.NID, node.NID, error) {
		return ix.descendToLeaf(key)
	}

	if starter, ok := ix.reclaimer.(interface {
		Start(ctx context.Context, numWorkers int)
	}); ok {
		workers := cfg.ReclaimWorkers
		if workers <= 0 {
			workers = defaultReclaimWorkers
		}
		starter.Start(context.Background(), workers)
	}

	return ix, nil
}

// Destroy releases the index's resources, stopping any background
// reclamation workers. The Index must not be used afterward.
func (ix *Index[K, V]) Destroy() error {
	ix.table.Reset()
	if stopper, ok := ix.reclaimer.(interface{ Stop() error }); ok {
		return wrapReclaimErr(stopper.Stop())
	}
	return nil
}

// Stats snapshots the index's structural state.
func (ix *Index[K, V]) Stats() stats.Snapshot {
	return stats.Collect(ix.table, &ix.counters)
}

// descendToLeaf walks from the current root to the leaf whose range
// contains key, returning that leaf's NID and its immediate parent's
// NID (node.InvalidNID if the leaf is itself the root).
func (ix *Index[K, V]) descendToLeaf(key K) (leafNID, parentNID node.NID, err error) {
outer:
	for attempt := 0; attempt < maxDescendAttempts; attempt++ {
		cur := node.NID(ix.root.Load())
		parent := node.InvalidNID

		for {
			head := ix.table.At(cur)
			if head == nil {
				continue outer
			}
			if head.Kind.IsLeaf() {
				return cur, parent, nil
			}

			h := chain.NewChildSelectHandler[K, V](ix.cfg.Cmp, key)
			chain.Walk(head, h)

			switch h.Outcome {
			case chain.OutcomeFound:
				parent = cur
				cur = h.ChildNID
			case chain.OutcomeRedirect:
				cur = h.RedirectNID
			case chain.OutcomeRetry:
				cur = node.NID(ix.root.Load())
				parent = node.InvalidNID
			}
		}
	}
	return node.InvalidNID, node.InvalidNID, exhaustedErr("descend")
}

// Insert adds key/value. It reports false with a nil error if key was
// already present (Duplicate), matching Ok/Duplicate semantics.
func (ix *Index[K, V]) Insert(key K, value V) (bool, error) {
	epoch := ix.reclaimer.EnterEpoch()
	defer ix.reclaimer.LeaveEpoch(epoch)

	for attempt := 0; attempt < maxDescendAttempts; attempt++ {
		leafNID, parentNID, err := ix.descendToLeaf(key)
		if err != nil {
			return false, err
		}
		head := ix.table.At(leafNID)
		if head == nil {
			continue
		}

		wih := chain.NewWriteIntentHandler[K, V](ix.cfg.Cmp, key)
		chain.Walk(head, wih)
		if wih.Outcome == chain.OutcomeRedirect || wih.Outcome == chain.OutcomeRetry {
			continue
		}
		if wih.Present() {
			return false, nil
		}

		delta := node.NewLeafInsert(head, key, value, head.Size+1, head.Low, head.High)
		if !ix.table.CAS(leafNID, head, delta) {
			continue
		}
		ix.reclaimer.Retire(epoch, leafNID, head)
		ix.afterMutate(epoch, leafNID, parentNID, delta)
		return true, nil
	}
	return false, exhaustedErr("insert")
}

// Delete removes key. It reports false with a nil error if key was
// absent (NotFound).
func (ix *Index[K, V]) Delete(key K) (bool, error) {
	epoch := ix.reclaimer.EnterEpoch()
	defer ix.reclaimer.LeaveEpoch(epoch)

	for attempt := 0; attempt < maxDescendAttempts; attempt++ {
		leafNID, parentNID, err := ix.descendToLeaf(key)
		if err != nil {
			return false, err
		}
		head := ix.table.At(leafNID)
		if head == nil {
			continue
		}

		wih := chain.NewWriteIntentHandler[K, V](ix.cfg.Cmp, key)
		chain.Walk(head, wih)
		if wih.Outcome == chain.OutcomeRedirect || wih.Outcome == chain.OutcomeRetry {
			continue
		}
		if !wih.Present() {
			return false, nil
		}

		delta := node.NewLeafDelete(head, key, wih.Value, head.Size-1, head.Low, head.High)
		if !ix.table.CAS(leafNID, head, delta) {
			continue
		}
		ix.reclaimer.Retire(epoch, leafNID, head)
		ix.afterMutate(epoch, leafNID, parentNID, delta)
		return true, nil
	}
	return false, exhaustedErr("delete")
}

// Get looks up key.
func (ix *Index[K, V]) Get(key K) (V, bool, error) {
	epoch := ix.reclaimer.EnterEpoch()
	defer ix.reclaimer.LeaveEpoch(epoch)

	var zero V
	for attempt := 0; attempt < maxDescendAttempts; attempt++ {
		leafNID, _, err := ix.descendToLeaf(key)
		if err != nil {
			return zero, false, err
		}
		head := ix.table.At(leafNID)
		if head == nil {
			continue
		}

		h := chain.NewPointReadHandler[K, V](ix.cfg.Cmp, key)
		chain.Walk(head, h)
		switch h.Outcome {
		case chain.OutcomeRedirect, chain.OutcomeRetry:
			continue
		case chain.OutcomeFound:
			return h.Value, true, nil
		default:
			return zero, false, nil
		}
	}
	return zero, false, exhaustedErr("get")
}

// afterMutate runs the maintenance a mutation may have made due:
// consolidating an overlong chain, then splitting an overfull node or
// merging an underfull one. Each is best-effort; losing the race to
// another writer is not an error, since that writer's own mutation
// already made the same progress.
func (ix *Index[K, V]) afterMutate(epoch uint64, nid, parentNID node.NID, head *node.Record[K, V]) {
	cur := head
	ix.tickReclaimer()

	if consolidate.ShouldConsolidate(cur, ix.cfg.ChainThreshold) {
		res := consolidate.Consolidate(ix.table, ix.cfg.Cmp, nid, cur)
		if res.Installed {
			ix.reclaimer.Retire(epoch, nid, cur)
			ix.counters.Consolidations.Add(1)
			cur = res.Base
		}
	}

	switch {
	case int(cur.Size) > ix.cfg.SplitThreshold:
		if parentNID == node.InvalidNID {
			if ok, err := ix.splitRoot(nid, cur); err == nil && ok {
				ix.counters.Splits.Add(1)
			}
			return
		}
		if ok, err := ix.smo.Split(nid, parentNID, cur); err == nil && ok {
			ix.counters.Splits.Add(1)
		}
	case int(cur.Size) < ix.cfg.MergeThreshold && parentNID != node.InvalidNID:
		if ok, err := ix.smo.Merge(nid, parentNID, cur); err == nil && ok {
			ix.counters.Merges.Add(1)
		}
	}
}

// splitRoot handles the one case Engine.Split cannot: the root itself
// has no parent to post an InnerInsert on, so a new inner root is
// allocated with the old root and its new right sibling as its only
// two children.
func (ix *Index[K, V]) splitRoot(oldRootNID node.NID, head *node.Record[K, V]) (bool, error) {
	full := consolidate.Build(head, ix.cfg.Cmp)
	if len(full.Keys) <= 1 {
		return false, nil
	}

	_, _, _, right := full.Split()
	rightNID, err := ix.table.Allocate(right)
	if err != nil {
		return false, wrapAllocErr(err)
	}

	pivotKey := right.Low.Key
	leftSize := full.Size - right.Size
	splitDelta := node.NewSplit(head, pivotKey, rightNID, leftSize, head.Low)
	if !ix.table.CAS(oldRootNID, head, splitDelta) {
		return false, nil
	}

	var placeholder K
	newRootBase := node.NewInnerBase[K, V](
		[]K{placeholder, pivotKey},
		[]node.NID{oldRootNID, rightNID},
		node.NegInfKey[K](), node.PosInfKey[K](),
	)
	newRootNID, err := ix.table.Allocate(newRootBase)
	if err != nil {
		return false, wrapAllocErr(err)
	}

	if !ix.root.CompareAndSwap(uint64(oldRootNID), uint64(newRootNID)) {
		return false, nil
	}
	return true, nil
}

// tickReclaimer advances a Reclaimer's epoch every ReclaimAdvanceEvery
// completed mutations, for reclaimers (such as *reclaim.EpochReclaimer)
// that expose an Advance method. Reclaimers without one, like
// reclaim.NoopReclaimer, are left untouched.
func (ix *Index[K, V]) tickReclaimer() {
	every := ix.cfg.ReclaimAdvanceEvery
	if every == 0 {
		every = defaultReclaimAdvanceEvery
	}
	if ix.opCount.Add(1)%every != 0 {
		return
	}
	if advancer, ok := ix.reclaimer.(interface{ Advance() uint64 }); ok {
		advancer.Advance()
	}
}

func wrapReclaimErr(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ReclaimerFailure, Err: err}
}
