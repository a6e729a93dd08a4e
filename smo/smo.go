// Package smo implements the tree's structural modification
// operations: split, and remove+merge, each as a multi-phase CAS
// protocol. The thread that starts an SMO posts every phase itself.
// The Help* functions return success when their phase is already
// posted, but no traversal calls them for an SMO it merely observes.
package smo

import (
	"github.com/pkg/errors"

	"bwtree/consolidate"
	"bwtree/mapping"
	"bwtree/node"
)

// ErrHelpExhausted is returned when a bounded number of helping
// attempts on a phase all lose the CAS race. The caller should treat
// this like ordinary CAS contention and retry its own operation from
// the top.
var ErrHelpExhausted = errors.New("smo: exhausted helping attempts on SMO phase")

const maxHelpAttempts = 8

// Engine bundles the mapping table and comparator every SMO needs.
type Engine[K, V any] struct {
	Table *mapping.Table[K, V]
	Cmp   func(a, b K) int
	// Resolve re-descends the tree for key and reports the NID
	// currently responsible for it along with that NID's immediate
	// parent. A helper that finds its target NID already dead (a live
	// Remove delta, meaning it is itself the victim of an unrelated,
	// concurrent merge one level up) calls Resolve instead of posting
	// on top of the dead head, mirroring the tree's own descent-retry
	// behavior for a reader that lands on a removed node. Left nil (as
	// in a bare Engine built without a resolver, e.g. in isolation
	// tests), a dead target is treated as exhausted help rather than
	// silently reviving it.
	Resolve func(key K) (nid, parentNID node.NID, err error)
}

// New builds an Engine over tbl.
func New[K, V any](tbl *mapping.Table[K, V], cmp func(a, b K) int) *Engine[K, V] {
	return &Engine[K, V]{Table: tbl, Cmp: cmp}
}

// resolveLiveParent re-descends for key and returns the current parent
// of whichever node now owns it. Used when a helper's target parent
// turned out to be a dead Remove victim: the InnerInsert/InnerDelete
// it was about to post belongs on whatever node key currently resolves
// under instead.
func (e *Engine[K, V]) resolveLiveParent(key K) (node.NID, error) {
	if e.Resolve == nil {
		return node.InvalidNID, errors.WithStack(ErrHelpExhausted)
	}
	_, parentNID, err := e.Resolve(key)
	if err != nil {
		return node.InvalidNID, err
	}
	if parentNID == node.InvalidNID {
		return node.InvalidNID, errors.WithStack(ErrHelpExhausted)
	}
	return parentNID, nil
}

// resolveLiveNode is resolveLiveParent's counterpart for a helper that
// posts directly on the node owning key, rather than on its parent.
func (e *Engine[K, V]) resolveLiveNode(key K) (node.NID, error) {
	if e.Resolve == nil {
		return node.InvalidNID, errors.WithStack(ErrHelpExhausted)
	}
	nid, _, err := e.Resolve(key)
	if err != nil {
		return node.InvalidNID, err
	}
	if nid == node.InvalidNID {
		return node.InvalidNID, errors.WithStack(ErrHelpExhausted)
	}
	return nid, nil
}

// parentView is the subset of a materialized inner node an SMO needs
// to compute a sibling's adjacent routing entries.
type parentView[K, V any] struct {
	keys     []K
	children []node.NID
	size     uint32
	head     *node.Record[K, V]
}

func (e *Engine[K, V]) materializeParent(parentNID node.NID) parentView[K, V] {
	head := e.Table.At(parentNID)
	b := consolidate.Build(head, e.Cmp)
	return parentView[K, V]{keys: b.Keys, children: b.Children, size: b.Size, head: head}
}

func (v parentView[K, V]) indexOfChild(nid node.NID) int {
	for i, c := range v.children {
		if c == nid {
			return i
		}
	}
	return -1
}
