package smo

import (
	"github.com/pkg/errors"

	"bwtree/consolidate"
	"bwtree/node"
)

// Split consolidates the virtual node at nid to find its pivot, posts
// a Split delta narrowing nid's range (phase 1), then posts the
// matching InnerInsert on parentNID (phase 2).
//
// Returns true if this call (or a racing helper) completed both
// phases. A false return with a nil error means the phase 1 CAS lost
// to a concurrent writer; the caller should retry its own operation
// from a freshly reloaded chain head.
func (e *Engine[K, V]) Split(nid, parentNID node.NID, head *node.Record[K, V]) (bool, error) {
	full := consolidate.Build(head, e.Cmp)
	if len(full.Keys) <= 1 {
		return false, nil
	}

	_, _, _, right := full.Split()

	rightNID, err := e.Table.Allocate(right)
	if err != nil {
		return false, errors.Wrap(err, "smo: allocating right sibling")
	}

	pivotKey := right.Low.Key
	leftSize := full.Size - right.Size
	splitDelta := node.NewSplit(head, pivotKey, rightNID, leftSize, head.Low)

	if !e.Table.CAS(nid, head, splitDelta) {
		// The allocated right sibling leaks to the reclamation policy.
		return false, nil
	}

	installed, err := e.HelpInnerInsert(parentNID, pivotKey, rightNID)
	if err != nil {
		return false, err
	}
	return installed, nil
}

// HelpInnerInsert posts (or discovers an already-posted) InnerInsert
// delta on parentNID routing [splitKey, nextKey) to rightNID. Split
// calls it for its own phase 2; a traversal that reaches a Split delta
// without a matching InnerInsert does not call it, and retries instead.
func (e *Engine[K, V]) HelpInnerInsert(parentNID node.NID, splitKey K, rightNID node.NID) (bool, error) {
	for attempt := 0; attempt < maxHelpAttempts; attempt++ {
		parentHead := e.Table.At(parentNID)
		if parentHead != nil && parentHead.Kind.IsRemove() {
			resolved, err := e.resolveLiveParent(splitKey)
			if err != nil {
				return false, err
			}
			parentNID = resolved
			continue
		}
		if hasInnerInsertFor(parentHead, e.Cmp, splitKey, rightNID) {
			return true, nil
		}

		pv := e.materializeParent(parentNID)
		idx := 0
		for idx < len(pv.keys) && e.Cmp(pv.keys[idx], splitKey) <= 0 {
			idx++
		}
		nextKey := parentHead.High
		nextChildNID := node.InvalidNID
		if idx < len(pv.children) {
			nextKey = node.FiniteKey(pv.keys[idx])
			nextChildNID = pv.children[idx]
		}

		delta := node.NewInnerInsert(parentHead, splitKey, rightNID, nextKey, nextChildNID,
			pv.size+1, parentHead.Low, parentHead.High)
		if e.Table.CAS(parentNID, parentHead, delta) {
			return true, nil
		}
	}
	return false, errors.WithStack(ErrHelpExhausted)
}

// hasInnerInsertFor scans the delta portion of parentHead's chain
// (stopping at the base) for an InnerInsert already matching
// splitKey/rightNID, so a helper never double-posts.
func hasInnerInsertFor[K, V any](head *node.Record[K, V], cmp func(a, b K) int, splitKey K, rightNID node.NID) bool {
	for r := head; r != nil && !r.Kind.IsBase(); r = r.Next {
		if r.Kind == node.InnerInsert && cmp(r.InsertKey, splitKey) == 0 && r.InsertChildNID == rightNID {
			return true
		}
		if r.Kind.IsMerge() {
			// Conservative: a shallow scan past a merge only costs an
			// extra, harmless retry rather than a false positive.
			return false
		}
	}
	return false
}
