package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bwtree/mapping"
	"bwtree/node"
)

func TestCollectCountsLiveSlotsAndChainHeights(t *testing.T) {
	tbl := mapping.New[int, string](8)
	base := node.NewLeafBase([]int{1}, []string{"a"}, node.NegInfKey[int](), node.PosInfKey[int]())
	nid, err := tbl.Allocate(base)
	require.NoError(t, err)

	delta := node.NewLeafInsert(base, 2, "b", 2, base.Low, base.High)
	require.True(t, tbl.CAS(nid, base, delta))

	_, err = tbl.Allocate(node.NewLeafBase[int, string](nil, nil, node.NegInfKey[int](), node.PosInfKey[int]()))
	require.NoError(t, err)

	var counters Counters
	counters.Splits.Add(3)
	snap := Collect(tbl, &counters)

	assert.Equal(t, 2, snap.NodeCount)
	assert.Equal(t, uint64(2), snap.NIDHighWater)
	assert.Equal(t, 1, snap.ChainHistogram[1])
	assert.Equal(t, 1, snap.ChainHistogram[0])
	assert.Equal(t, uint64(3), snap.Splits)
}

func TestSnapshotStringReportsMaxChainHeight(t *testing.T) {
	snap := Snapshot{
		NodeCount:      1500,
		NIDHighWater:   2000,
		ChainHistogram: map[uint16]int{0: 1, 3: 4},
		Splits:         2,
	}
	s := snap.String()
	assert.Contains(t, s, "1,500")
	assert.Contains(t, s, "max_chain=3")
}

func TestSnapshotHistogramRendersAscending(t *testing.T) {
	snap := Snapshot{ChainHistogram: map[uint16]int{2: 1, 0: 3}}
	h := snap.Histogram()
	firstLine := strings.Index(h, "height 0")
	secondLine := strings.Index(h, "height 2")
	require.NotEqual(t, -1, firstLine)
	require.NotEqual(t, -1, secondLine)
	assert.Less(t, firstLine, secondLine)
}

func TestChecksumIsStableAndSensitiveToContent(t *testing.T) {
	base := node.NewLeafBase([]int{1, 2}, []string{"a", "b"}, node.NegInfKey[int](), node.PosInfKey[int]())
	keyBytes := func(k int) []byte { return []byte{byte(k)} }
	valueBytes := func(v string) []byte { return []byte(v) }

	sum1 := Checksum(base, keyBytes, valueBytes)
	sum2 := Checksum(base, keyBytes, valueBytes)
	assert.Equal(t, sum1, sum2)

	other := node.NewLeafBase([]int{1, 3}, []string{"a", "b"}, node.NegInfKey[int](), node.PosInfKey[int]())
	assert.NotEqual(t, sum1, Checksum(other, keyBytes, valueBytes))
}
