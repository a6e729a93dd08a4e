// Package chain implements the generic delta-chain traversal state
// machine: a single walker dispatches each record in a chain to a
// Handler by Kind, and the handler accumulates whatever state its use
// case needs (point read, range scan, write-intent, child selection).
package chain

import (
	"fmt"

	"bwtree/node"
)

// Handler is the cooperative visitor every traversal implements:
// one method per delta kind, plus Init/Finished. Base and Merge
// handlers must set Finished() true — Walk asserts this. All other
// kinds advance to Handler.Next, which defaults to the record's own
// Next pointer but may be overridden. Walk never calls Next on a Merge
// record; Merge handlers recurse into a sibling's chain by calling
// Walk themselves.
type Handler[K, V any] interface {
	Init(head *node.Record[K, V])
	Finished() bool
	Next(r *node.Record[K, V]) *node.Record[K, V]

	HandleLeafBase(r *node.Record[K, V])
	HandleInnerBase(r *node.Record[K, V])
	HandleLeafInsert(r *node.Record[K, V])
	HandleLeafDelete(r *node.Record[K, V])
	HandleInnerInsert(r *node.Record[K, V])
	HandleInnerDelete(r *node.Record[K, V])
	HandleLeafSplit(r *node.Record[K, V])
	HandleInnerSplit(r *node.Record[K, V])
	HandleLeafRemove(r *node.Record[K, V])
	HandleInnerRemove(r *node.Record[K, V])
	HandleLeafMerge(r *node.Record[K, V])
	HandleInnerMerge(r *node.Record[K, V])
}

// Walk replays the chain rooted at head against h, kind by kind, until
// h reports itself finished. Base and Merge records are terminal by
// contract: Walk panics with an InvariantViolation-shaped message if
// the handler didn't set Finished() after one, since a base node must
// always be the last record visited and a Merge handler owns its own
// recursive descent into the sibling chain.
func Walk[K, V any](head *node.Record[K, V], h Handler[K, V]) {
	h.Init(head)
	cur := head
	for cur != nil {
		switch cur.Kind {
		case node.LeafBase:
			h.HandleLeafBase(cur)
			assertFinished(h, cur)
			return
		case node.InnerBase:
			h.HandleInnerBase(cur)
			assertFinished(h, cur)
			return
		case node.LeafInsert:
			h.HandleLeafInsert(cur)
		case node.LeafDelete:
			h.HandleLeafDelete(cur)
		case node.InnerInsert:
			h.HandleInnerInsert(cur)
		case node.InnerDelete:
			h.HandleInnerDelete(cur)
		case node.LeafSplit:
			h.HandleLeafSplit(cur)
		case node.InnerSplit:
			h.HandleInnerSplit(cur)
		case node.LeafRemove:
			h.HandleLeafRemove(cur)
		case node.InnerRemove:
			h.HandleInnerRemove(cur)
		case node.LeafMerge:
			h.HandleLeafMerge(cur)
			assertFinished(h, cur)
			return
		case node.InnerMerge:
			h.HandleInnerMerge(cur)
			assertFinished(h, cur)
			return
		default:
			panic(fmt.Sprintf("chain: invariant violation: unknown record kind %v", cur.Kind))
		}
		if h.Finished() {
			return
		}
		cur = h.Next(cur)
	}
}

func assertFinished[K, V any](h Handler[K, V], cur *node.Record[K, V]) {
	if !h.Finished() {
		panic(fmt.Sprintf("chain: invariant violation: handler did not terminate on %v", cur.Kind))
	}
}
