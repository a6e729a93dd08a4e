package chain

// WriteIntentHandler determines the current virtual-node membership
// of a key so Insert/Delete posting knows whether to expect
// Duplicate/NotFound. Point read and write-intent determination are
// the same membership query, so WriteIntentHandler is built by reuse
// on top of PointReadHandler rather than duplicating its chain-walk
// logic: handlers are the unit of reuse, not the traverser.
type WriteIntentHandler[K, V any] struct {
	PointReadHandler[K, V]
}

// NewWriteIntentHandler builds a handler that determines key's
// current membership.
func NewWriteIntentHandler[K, V any](cmp func(a, b K) int, key K) *WriteIntentHandler[K, V] {
	return &WriteIntentHandler[K, V]{PointReadHandler: *NewPointReadHandler[K, V](cmp, key)}
}

// Present reports whether the key is currently present in the virtual
// node (valid only once the walk has finished with Outcome other than
// OutcomeRedirect/OutcomeRetry).
func (h *WriteIntentHandler[K, V]) Present() bool {
	return h.Outcome == OutcomeFound
}
