package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bwtree/node"
)

func TestAllocateHandsOutDenseNIDs(t *testing.T) {
	tbl := New[int, string](8)

	base := node.NewLeafBase[int, string](nil, nil, node.NegInfKey[int](), node.PosInfKey[int]())
	nid, err := tbl.Allocate(base)
	require.NoError(t, err)
	assert.Equal(t, node.NID(0), nid)

	nid2, err := tbl.Allocate(base)
	require.NoError(t, err)
	assert.Equal(t, node.NID(1), nid2)

	assert.Same(t, base, tbl.At(nid))
	assert.Equal(t, uint64(2), tbl.HighWaterMark())
}

func TestAllocateFailsOncePastCapacity(t *testing.T) {
	tbl := New[int, string](2)
	base := node.NewLeafBase[int, string](nil, nil, node.NegInfKey[int](), node.PosInfKey[int]())

	_, err := tbl.Allocate(base)
	require.NoError(t, err)
	_, err = tbl.Allocate(base)
	require.NoError(t, err)

	_, err = tbl.Allocate(base)
	assert.ErrorIs(t, err, ErrTableFull)
}

func TestCASOnlySucceedsAgainstCurrentHead(t *testing.T) {
	tbl := New[int, string](4)
	base := node.NewLeafBase[int, string](nil, nil, node.NegInfKey[int](), node.PosInfKey[int]())
	nid, err := tbl.Allocate(base)
	require.NoError(t, err)

	delta := node.NewLeafInsert(base, 1, "a", 1, node.NegInfKey[int](), node.PosInfKey[int]())
	stale := node.NewLeafInsert(base, 2, "b", 1, node.NegInfKey[int](), node.PosInfKey[int]())

	assert.True(t, tbl.CAS(nid, base, delta))
	assert.False(t, tbl.CAS(nid, base, stale), "CAS against a stale head must fail")
	assert.Same(t, delta, tbl.At(nid))
}

func TestResetClearsSlotsAndCounter(t *testing.T) {
	tbl := New[int, string](4)
	base := node.NewLeafBase[int, string](nil, nil, node.NegInfKey[int](), node.PosInfKey[int]())
	nid, err := tbl.Allocate(base)
	require.NoError(t, err)

	tbl.Reset()
	assert.Nil(t, tbl.At(nid))
	assert.Equal(t, uint64(0), tbl.HighWaterMark())
}

func TestHighWaterMarkClampsToCapacity(t *testing.T) {
	tbl := New[int, string](1)
	base := node.NewLeafBase[int, string](nil, nil, node.NegInfKey[int](), node.PosInfKey[int]())
	_, _ = tbl.Allocate(base)
	_, _ = tbl.Allocate(base) // fails, still bumps the counter past capacity

	assert.Equal(t, uint64(1), tbl.HighWaterMark())
	assert.Equal(t, uint64(1), tbl.Capacity())
}
