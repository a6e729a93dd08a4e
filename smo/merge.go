package smo

import (
	"github.com/pkg/errors"

	"bwtree/consolidate"
	"bwtree/node"
)

// Merge runs the three-phase remove+merge protocol against the
// underfull node at victimNID: post a Remove delta on the victim
// (phase 1), help post a Merge delta absorbing it into its left
// sibling (phase 2), then help post an InnerDelete on parentNID
// dropping the victim's now-stale routing entry (phase 3).
//
// Any phase may instead discover that a racing helper already
// completed it; Merge treats that the same as completing it itself.
// A victim with no left sibling in the parent's view is reported as an
// error before anything is posted, so it stays live.
// A false return with a nil error means phase 1's CAS lost the race,
// meaning some other writer already changed the victim; the caller
// should retry its own operation from a freshly reloaded chain head.
func (e *Engine[K, V]) Merge(victimNID, parentNID node.NID, head *node.Record[K, V]) (bool, error) {
	pv := e.materializeParent(parentNID)
	victimIdx := pv.indexOfChild(victimNID)
	if victimIdx <= 0 {
		// The victim is the leftmost child or already gone from the
		// parent's view; nothing to merge it into.
		return false, errors.New("smo: victim has no left sibling to merge into")
	}
	leftNID := pv.children[victimIdx-1]

	removeDelta := node.NewRemove(head)
	if !e.Table.CAS(victimNID, head, removeDelta) {
		return false, nil
	}

	mergeKey := head.Low.Key

	merged, err := e.HelpMerge(leftNID, victimNID, head, mergeKey, head.High)
	if err != nil {
		return false, err
	}
	if !merged {
		return false, nil
	}

	deleted, err := e.HelpInnerDelete(parentNID, victimNID, mergeKey)
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// HelpMerge posts (or discovers an already-posted) Merge delta on
// leftNID absorbing victimNID's data chain (victimData, the chain
// beneath victim's Remove delta). mergeKey is the separator under
// which the victim was routed; victimHigh is the victim's current
// high bound, which becomes the merged node's new high bound.
func (e *Engine[K, V]) HelpMerge(leftNID, victimNID node.NID, victimData *node.Record[K, V], mergeKey K, victimHigh node.BoundKey[K]) (bool, error) {
	for attempt := 0; attempt < maxHelpAttempts; attempt++ {
		leftHead := e.Table.At(leftNID)
		if leftHead != nil && leftHead.Kind.IsRemove() {
			if leftHead.Low.IsInf() {
				// No probe key inside the dead left sibling's own range
				// to re-descend with; give up rather than guess wrong.
				return false, errors.WithStack(ErrHelpExhausted)
			}
			resolved, err := e.resolveLiveNode(leftHead.Low.Key)
			if err != nil {
				return false, err
			}
			leftNID = resolved
			continue
		}
		if hasMergeFor(leftHead, victimNID) {
			return true, nil
		}

		leftBase := consolidate.Build(leftHead, e.Cmp)
		size := leftBase.Size + victimData.Size

		delta := node.NewMerge(leftHead, mergeKey, victimData, victimNID, size, victimHigh)
		if e.Table.CAS(leftNID, leftHead, delta) {
			return true, nil
		}
	}
	return false, errors.WithStack(ErrHelpExhausted)
}

// HelpInnerDelete posts (or discovers an already-posted) InnerDelete
// delta on parentNID dropping victimNID's routing entry, stitching
// its former left and right neighbors' ranges together.
func (e *Engine[K, V]) HelpInnerDelete(parentNID, victimNID node.NID, mergeKey K) (bool, error) {
	for attempt := 0; attempt < maxHelpAttempts; attempt++ {
		parentHead := e.Table.At(parentNID)
		if parentHead != nil && parentHead.Kind.IsRemove() {
			resolved, err := e.resolveLiveParent(mergeKey)
			if err != nil {
				return false, err
			}
			parentNID = resolved
			continue
		}
		if hasInnerDeleteFor(parentHead, e.Cmp, mergeKey, victimNID) {
			return true, nil
		}

		pv := e.materializeParent(parentNID)
		victimIdx := pv.indexOfChild(victimNID)
		if victimIdx <= 0 {
			return true, nil
		}

		prevKey := pv.keys[victimIdx-1]
		prevChildNID := pv.children[victimIdx-1]

		nextKey := parentHead.High
		nextChildNID := node.InvalidNID
		if victimIdx+1 < len(pv.children) {
			nextKey = node.FiniteKey(pv.keys[victimIdx+1])
			nextChildNID = pv.children[victimIdx+1]
		}

		delta := node.NewInnerDelete(parentHead, mergeKey, victimNID, prevKey, prevChildNID,
			nextKey, nextChildNID, pv.size-1, parentHead.Low, parentHead.High)
		if e.Table.CAS(parentNID, parentHead, delta) {
			return true, nil
		}
	}
	return false, errors.WithStack(ErrHelpExhausted)
}

// hasMergeFor reports whether leftHead's chain already records a
// Merge absorbing victimNID.
func hasMergeFor[K, V any](head *node.Record[K, V], victimNID node.NID) bool {
	for r := head; r != nil && !r.Kind.IsBase(); r = r.Next {
		if r.Kind.IsMerge() && r.MergeRightNID == victimNID {
			return true
		}
	}
	return false
}

// hasInnerDeleteFor reports whether parentHead's chain already
// records an InnerDelete removing victimNID's routing entry.
func hasInnerDeleteFor[K, V any](head *node.Record[K, V], cmp func(a, b K) int, mergeKey K, victimNID node.NID) bool {
	for r := head; r != nil && !r.Kind.IsBase(); r = r.Next {
		if r.Kind == node.InnerDelete && r.DeleteChildNID == victimNID && cmp(r.DeleteKey, mergeKey) == 0 {
			return true
		}
		if r.Kind.IsMerge() {
			return false
		}
	}
	return false
}
