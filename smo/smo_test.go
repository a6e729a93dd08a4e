package smo

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bwtree/mapping"
	"bwtree/node"
)

func TestSplitPostsSplitDeltaThenInnerInsert(t *testing.T) {
	tbl := mapping.New[int, string](16)

	leafBase := node.NewLeafBase([]int{1, 2, 3, 4}, []string{"a", "b", "c", "d"}, node.NegInfKey[int](), node.PosInfKey[int]())
	leafNID, err := tbl.Allocate(leafBase)
	require.NoError(t, err)

	parentBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{leafNID}, node.NegInfKey[int](), node.PosInfKey[int]())
	parentNID, err := tbl.Allocate(parentBase)
	require.NoError(t, err)

	eng := New(tbl, cmp.Compare[int])

	ok, err := eng.Split(leafNID, parentNID, leafBase)
	require.NoError(t, err)
	require.True(t, ok)

	leafHead := tbl.At(leafNID)
	require.Equal(t, node.LeafSplit, leafHead.Kind)
	assert.Equal(t, node.FiniteKey(3), leafHead.High)
	rightNID := leafHead.SplitRightNID

	parentHead := tbl.At(parentNID)
	require.Equal(t, node.InnerInsert, parentHead.Kind)
	assert.Equal(t, 3, parentHead.InsertKey)
	assert.Equal(t, rightNID, parentHead.InsertChildNID)

	right := tbl.At(rightNID)
	require.NotNil(t, right)
	assert.Equal(t, []int{3, 4}, right.Keys)
}

func TestSplitOnTooSmallNodeIsANoop(t *testing.T) {
	tbl := mapping.New[int, string](4)
	leafBase := node.NewLeafBase([]int{1}, []string{"a"}, node.NegInfKey[int](), node.PosInfKey[int]())
	leafNID, err := tbl.Allocate(leafBase)
	require.NoError(t, err)
	parentBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{leafNID}, node.NegInfKey[int](), node.PosInfKey[int]())
	parentNID, err := tbl.Allocate(parentBase)
	require.NoError(t, err)

	eng := New(tbl, cmp.Compare[int])
	ok, err := eng.Split(leafNID, parentNID, leafBase)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, leafBase, tbl.At(leafNID), "a no-op split must not touch the victim's slot")
}

func TestHelpInnerInsertIsIdempotent(t *testing.T) {
	tbl := mapping.New[int, string](8)
	parentBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{node.NID(1)}, node.NegInfKey[int](), node.PosInfKey[int]())
	parentNID, err := tbl.Allocate(parentBase)
	require.NoError(t, err)

	eng := New(tbl, cmp.Compare[int])

	ok1, err := eng.HelpInnerInsert(parentNID, 5, node.NID(2))
	require.NoError(t, err)
	assert.True(t, ok1)
	firstHead := tbl.At(parentNID)

	ok2, err := eng.HelpInnerInsert(parentNID, 5, node.NID(2))
	require.NoError(t, err)
	assert.True(t, ok2)
	assert.Same(t, firstHead, tbl.At(parentNID), "a second help call must not post a duplicate delta")
}

func TestMergeRunsAllThreePhases(t *testing.T) {
	tbl := mapping.New[int, string](16)

	leftBase := node.NewLeafBase([]int{5}, []string{"a"}, node.NegInfKey[int](), node.FiniteKey(10))
	leftNID, err := tbl.Allocate(leftBase)
	require.NoError(t, err)

	victimBase := node.NewLeafBase([]int{15}, []string{"b"}, node.FiniteKey(10), node.PosInfKey[int]())
	victimNID, err := tbl.Allocate(victimBase)
	require.NoError(t, err)

	parentBase := node.NewInnerBase[int, string]([]int{0, 10}, []node.NID{leftNID, victimNID}, node.NegInfKey[int](), node.PosInfKey[int]())
	parentNID, err := tbl.Allocate(parentBase)
	require.NoError(t, err)

	eng := New(tbl, cmp.Compare[int])
	ok, err := eng.Merge(victimNID, parentNID, victimBase)
	require.NoError(t, err)
	require.True(t, ok)

	victimHead := tbl.At(victimNID)
	assert.Equal(t, node.LeafRemove, victimHead.Kind)

	leftHead := tbl.At(leftNID)
	require.Equal(t, node.LeafMerge, leftHead.Kind)
	assert.Equal(t, node.PosInfKey[int](), leftHead.High)
	assert.Same(t, victimBase, leftHead.MergeRightPtr)
	assert.Equal(t, uint32(2), leftHead.Size)

	parentHead := tbl.At(parentNID)
	require.Equal(t, node.InnerDelete, parentHead.Kind)
	assert.Equal(t, victimNID, parentHead.DeleteChildNID)
	assert.Equal(t, leftNID, parentHead.DeletePrevChildNID)
	assert.Equal(t, uint32(1), parentHead.Size)
}

func TestHelpInnerInsertResolvesLiveParentWhenTargetIsDead(t *testing.T) {
	tbl := mapping.New[int, string](16)

	deadParentBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{node.NID(9)}, node.NegInfKey[int](), node.PosInfKey[int]())
	deadParentNID, err := tbl.Allocate(deadParentBase)
	require.NoError(t, err)
	require.True(t, tbl.CAS(deadParentNID, deadParentBase, node.NewRemove(deadParentBase)))

	liveParentBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{node.NID(9)}, node.NegInfKey[int](), node.PosInfKey[int]())
	liveParentNID, err := tbl.Allocate(liveParentBase)
	require.NoError(t, err)

	eng := New(tbl, cmp.Compare[int])
	eng.Resolve = func(key int) (node.NID, node.NID, error) {
		return node.NID(9), liveParentNID, nil
	}

	ok, err := eng.HelpInnerInsert(deadParentNID, 5, node.NID(20))
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, tbl.At(deadParentNID).Kind.IsRemove(), "the dead node's Remove head must not be overwritten")
	liveHead := tbl.At(liveParentNID)
	require.Equal(t, node.InnerInsert, liveHead.Kind)
	assert.Equal(t, 5, liveHead.InsertKey)
	assert.Equal(t, node.NID(20), liveHead.InsertChildNID)
}

func TestHelpInnerInsertReturnsExhaustedWhenTargetIsDeadAndUnresolvable(t *testing.T) {
	tbl := mapping.New[int, string](16)
	deadBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{node.NID(9)}, node.NegInfKey[int](), node.PosInfKey[int]())
	deadNID, err := tbl.Allocate(deadBase)
	require.NoError(t, err)
	require.True(t, tbl.CAS(deadNID, deadBase, node.NewRemove(deadBase)))

	eng := New(tbl, cmp.Compare[int]) // no Resolve configured
	ok, err := eng.HelpInnerInsert(deadNID, 5, node.NID(20))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrHelpExhausted)
}

func TestMergeFailsWithoutLeftSibling(t *testing.T) {
	tbl := mapping.New[int, string](8)
	victimBase := node.NewLeafBase([]int{1}, []string{"a"}, node.NegInfKey[int](), node.PosInfKey[int]())
	victimNID, err := tbl.Allocate(victimBase)
	require.NoError(t, err)
	parentBase := node.NewInnerBase[int, string]([]int{0}, []node.NID{victimNID}, node.NegInfKey[int](), node.PosInfKey[int]())
	parentNID, err := tbl.Allocate(parentBase)
	require.NoError(t, err)

	eng := New(tbl, cmp.Compare[int])
	ok, err := eng.Merge(victimNID, parentNID, victimBase)
	assert.Error(t, err)
	assert.False(t, ok)
}
