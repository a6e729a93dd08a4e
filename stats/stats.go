// Package stats reports a snapshot of an index's structural health:
// chain lengths, node counts, and running counters of the background
// bookkeeping operations (consolidations, splits, merges).
package stats

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"

	"bwtree/node"
)

// Counters are the monotonic event counts a running index keeps as
// operations complete. Every field is safe for concurrent increment.
type Counters struct {
	Consolidations atomic.Uint64
	Splits         atomic.Uint64
	Merges         atomic.Uint64
}

// Snapshot is a point-in-time report over an index, combining the
// mapping table's high-water mark with a walk of every live chain's
// height.
type Snapshot struct {
	NodeCount      int
	NIDHighWater   uint64
	ChainHistogram map[uint16]int
	Consolidations uint64
	Splits         uint64
	Merges         uint64
}

// String renders a human-friendly one-line summary, comma-grouping
// the larger counts.
func (s Snapshot) String() string {
	var maxHeight uint16
	for h := range s.ChainHistogram {
		if h > maxHeight {
			maxHeight = h
		}
	}
	return fmt.Sprintf(
		"nodes=%s high_water=%s max_chain=%d consolidations=%s splits=%s merges=%s",
		humanize.Comma(int64(s.NodeCount)),
		humanize.Comma(int64(s.NIDHighWater)),
		maxHeight,
		humanize.Comma(int64(s.Consolidations)),
		humanize.Comma(int64(s.Splits)),
		humanize.Comma(int64(s.Merges)),
	)
}

// Histogram renders the chain-height histogram, one line per height,
// sorted ascending, for debug output that String's summary omits.
func (s Snapshot) Histogram() string {
	var b strings.Builder
	for h := uint16(0); h <= maxKey(s.ChainHistogram); h++ {
		if n, ok := s.ChainHistogram[h]; ok {
			fmt.Fprintf(&b, "height %d: %d chains\n", h, n)
		}
	}
	return b.String()
}

func maxKey(m map[uint16]int) uint16 {
	var max uint16
	for k := range m {
		if k > max {
			max = k
		}
	}
	return max
}

// Checksum computes a running xxhash fingerprint over a base node's
// sorted key/value content, so two consolidations of the same chain
// can be compared for identical virtual contents without a full
// deep-equal. No code path in this module calls it.
func Checksum[K, V any](base *node.Record[K, V], keyBytes func(K) []byte, valueBytes func(V) []byte) uint64 {
	h := xxhash.New()
	for i, k := range base.Keys {
		h.Write(keyBytes(k))
		if base.Kind == node.LeafBase {
			h.Write(valueBytes(base.Values[i]))
		}
	}
	return h.Sum64()
}
