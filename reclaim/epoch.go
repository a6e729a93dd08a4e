package reclaim

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bwtree/node"
)

// retired pairs a chain head with the slot it was unlinked from, so
// the erase workers can record the slot in the ledger once the head
// itself is no longer reachable from any live traversal.
type retired[K, V any] struct {
	nid  node.NID
	head *node.Record[K, V]
}

// EpochReclaimer defers freeing a retired chain head until every
// traversal that entered before the retirement has left. Readers
// call EnterEpoch when they start walking the tree and LeaveEpoch
// when they finish; a head retired during epoch e can only be handed
// to the erase workers once every reader that entered at or before e
// has left.
//
// Advance must be called periodically to roll the current epoch
// forward; without that, retired heads accumulate in the current
// epoch's pending list indefinitely. An Index configured with an
// EpochReclaimer ticks Advance itself every Config.ReclaimAdvanceEvery
// completed mutations, and calls Start/Stop around the reclaimer's
// background erase workers; a reclaimer used standalone, outside an
// Index, is responsible for calling Advance (and Start/Stop) itself.
type EpochReclaimer[K, V any] struct {
	mu      sync.Mutex
	epoch   uint64
	active  map[uint64]int
	pending map[uint64][]retired[K, V]

	ledger *ristretto.Cache[node.NID, struct{}]

	tapCh   chan []retired[K, V]
	cancel  context.CancelFunc
	errOnce sync.Once
	runErr  error
	done    chan struct{}
}

// NewEpochReclaimer builds a reclaimer with a bounded ledger of
// recently-erased NIDs (capacity ledgerSize entries), used only for
// diagnostics and queried through Recent; the Index's own traversals
// and retry loops do not consult it.
func NewEpochReclaimer[K, V any](ledgerSize int64) (*EpochReclaimer[K, V], error) {
	cache, err := ristretto.NewCache(&ristretto.Config[node.NID, struct{}]{
		NumCounters: ledgerSize * 10,
		MaxCost:     ledgerSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "reclaim: building ledger cache")
	}

	return &EpochReclaimer[K, V]{
		active:  map[uint64]int{},
		pending: map[uint64][]retired[K, V]{},
		ledger:  cache,
		tapCh:   make(chan []retired[K, V], 64),
		done:    make(chan struct{}),
	}, nil
}

// EnterEpoch records the caller as an active reader of the current
// epoch and returns it; the caller must pass the same value to a
// matching LeaveEpoch.
func (r *EpochReclaimer[K, V]) EnterEpoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[r.epoch]++
	return r.epoch
}

// LeaveEpoch retires the caller from epoch. If it was the last active
// reader of that epoch and heads were retired during it, those heads
// are dispatched to the erase workers.
func (r *EpochReclaimer[K, V]) LeaveEpoch(epoch uint64) {
	r.mu.Lock()
	r.active[epoch]--
	if r.active[epoch] > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.active, epoch)
	heads := r.pending[epoch]
	delete(r.pending, epoch)
	r.mu.Unlock()

	if len(heads) > 0 {
		r.tapCh <- heads
	}
}

// Retire queues head, unlinked from nid during epoch, for erasure
// once epoch drains.
func (r *EpochReclaimer[K, V]) Retire(epoch uint64, nid node.NID, head *node.Record[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[epoch] = append(r.pending[epoch], retired[K, V]{nid: nid, head: head})
}

// Advance rolls the current epoch forward and returns the new value.
// A reader that entered the old epoch keeps it alive until it leaves;
// new readers observe the new epoch immediately.
func (r *EpochReclaimer[K, V]) Advance() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	if _, ok := r.active[r.epoch-1]; !ok {
		// Nobody was active in the epoch just closed; anything retired
		// during it is already safe to erase.
		heads := r.pending[r.epoch-1]
		delete(r.pending, r.epoch-1)
		if len(heads) > 0 {
			r.tapCh <- heads
		}
	}
	return r.epoch
}

// Start launches numWorkers background erase workers and returns
// immediately; call Stop to drain and join them.
func (r *EpochReclaimer[K, V]) Start(ctx context.Context, numWorkers int) {
	if logger.Get(ctx) == nil {
		ctx = logger.WithLogger(ctx, zap.NewNop())
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go func() {
		defer close(r.done)
		err := parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
			for i := 0; i < numWorkers; i++ {
				spawn(fmt.Sprintf("erase-%02d", i), parallel.Fail, func(ctx context.Context) error {
					for batch := range r.tapCh {
						for _, item := range batch {
							r.ledger.Set(item.nid, struct{}{}, 1)
						}
					}
					return errors.WithStack(ctx.Err())
				})
			}
			return nil
		})
		r.errOnce.Do(func() { r.runErr = err })
	}()
}

// Stop cancels the workers' context, closes the tap channel so every
// worker drains what is already queued and exits, then waits for the
// run goroutine to finish. It returns the first worker error, if any;
// the cancellation Stop itself causes is not reported as one.
func (r *EpochReclaimer[K, V]) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	close(r.tapCh)
	<-r.done
	r.ledger.Close()
	if errors.Is(r.runErr, context.Canceled) {
		return nil
	}
	return r.runErr
}

// Recent reports whether nid was erased recently enough to still be
// in the ledger. A false negative (evicted from the bounded ledger)
// is possible; a false positive is not.
func (r *EpochReclaimer[K, V]) Recent(nid node.NID) bool {
	_, ok := r.ledger.Get(nid)
	return ok
}
