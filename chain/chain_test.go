package chain

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"

	"bwtree/node"
)

func leaf(keys []int, values []string, low, high node.BoundKey[int]) *node.Record[int, string] {
	return node.NewLeafBase(keys, values, low, high)
}

func TestPointReadFindsInsertBeforeReachingBase(t *testing.T) {
	base := leaf([]int{1, 2, 3}, []string{"a", "b", "c"}, node.NegInfKey[int](), node.PosInfKey[int]())
	delta := node.NewLeafInsert(base, 5, "z", 4, base.Low, base.High)

	h := NewPointReadHandler[int, string](cmp.Compare[int], 5)
	Walk(delta, h)

	assert.Equal(t, OutcomeFound, h.Outcome)
	assert.Equal(t, "z", h.Value)
}

func TestPointReadFindsDeleteBeforeReachingBase(t *testing.T) {
	base := leaf([]int{1, 2, 3}, []string{"a", "b", "c"}, node.NegInfKey[int](), node.PosInfKey[int]())
	delta := node.NewLeafDelete(base, 2, "b", 2, base.Low, base.High)

	h := NewPointReadHandler[int, string](cmp.Compare[int], 2)
	Walk(delta, h)

	assert.Equal(t, OutcomeNotFound, h.Outcome)
}

func TestPointReadFallsThroughToBase(t *testing.T) {
	base := leaf([]int{1, 2, 3}, []string{"a", "b", "c"}, node.NegInfKey[int](), node.PosInfKey[int]())
	delta := node.NewLeafInsert(base, 9, "x", 4, base.Low, base.High)

	h := NewPointReadHandler[int, string](cmp.Compare[int], 2)
	Walk(delta, h)

	assert.Equal(t, OutcomeFound, h.Outcome)
	assert.Equal(t, "b", h.Value)
}

func TestPointReadRedirectsAcrossSplit(t *testing.T) {
	base := leaf([]int{10, 20}, []string{"a", "b"}, node.NegInfKey[int](), node.FiniteKey(15))
	split := node.NewSplit(base, 15, node.NID(42), 1, base.Low)

	h := NewPointReadHandler[int, string](cmp.Compare[int], 20)
	Walk(split, h)

	assert.Equal(t, OutcomeRedirect, h.Outcome)
	assert.Equal(t, node.NID(42), h.RedirectNID)
}

func TestPointReadRetriesOnRemove(t *testing.T) {
	base := leaf([]int{10}, []string{"a"}, node.NegInfKey[int](), node.PosInfKey[int]())
	remove := node.NewRemove(base)

	h := NewPointReadHandler[int, string](cmp.Compare[int], 10)
	Walk(remove, h)

	assert.Equal(t, OutcomeRetry, h.Outcome)
}

func TestPointReadRecursesAcrossMerge(t *testing.T) {
	left := leaf([]int{1, 2}, []string{"a", "b"}, node.NegInfKey[int](), node.FiniteKey(5))
	right := leaf([]int{5, 6}, []string{"c", "d"}, node.FiniteKey(5), node.PosInfKey[int]())
	merge := node.NewMerge(left, 5, right, node.NID(2), 4, node.PosInfKey[int]())

	h := NewPointReadHandler[int, string](cmp.Compare[int], 6)
	Walk(merge, h)
	assert.Equal(t, OutcomeFound, h.Outcome)
	assert.Equal(t, "d", h.Value)

	h2 := NewPointReadHandler[int, string](cmp.Compare[int], 1)
	Walk(merge, h2)
	assert.Equal(t, OutcomeFound, h2.Outcome)
	assert.Equal(t, "a", h2.Value)
}

func TestWriteIntentPresence(t *testing.T) {
	base := leaf([]int{1, 2}, []string{"a", "b"}, node.NegInfKey[int](), node.PosInfKey[int]())

	present := NewWriteIntentHandler[int, string](cmp.Compare[int], 1)
	Walk(base, present)
	assert.True(t, present.Present())

	absent := NewWriteIntentHandler[int, string](cmp.Compare[int], 99)
	Walk(base, absent)
	assert.False(t, absent.Present())
}

func TestChildSelectRoutesThroughBaseAndInsertDelta(t *testing.T) {
	base := node.NewInnerBase[int, string]([]int{0, 20}, []node.NID{1, 2}, node.NegInfKey[int](), node.PosInfKey[int]())

	h := NewChildSelectHandler[int, string](cmp.Compare[int], 5)
	Walk(base, h)
	assert.Equal(t, node.NID(1), h.ChildNID)

	insert := node.NewInnerInsert(base, 20, node.NID(3), node.PosInfKey[int](), node.NID(2), 3, base.Low, base.High)
	h2 := NewChildSelectHandler[int, string](cmp.Compare[int], 25)
	Walk(insert, h2)
	assert.Equal(t, OutcomeFound, h2.Outcome)
	assert.Equal(t, node.NID(3), h2.ChildNID)
}

func TestChildSelectRedirectsAcrossSplit(t *testing.T) {
	base := node.NewInnerBase[int, string]([]int{0, 20}, []node.NID{1, 2}, node.NegInfKey[int](), node.FiniteKey(30))
	split := node.NewSplit(base, 30, node.NID(9), 2, base.Low)

	h := NewChildSelectHandler[int, string](cmp.Compare[int], 35)
	Walk(split, h)
	assert.Equal(t, OutcomeRedirect, h.Outcome)
	assert.Equal(t, node.NID(9), h.RedirectNID)
}

func TestRangeHandlerAppliesPendingOpsWithinBounds(t *testing.T) {
	base := leaf([]int{1, 2, 3, 4}, []string{"a", "b", "c", "d"}, node.NegInfKey[int](), node.PosInfKey[int]())
	del := node.NewLeafDelete(base, 2, "b", 3, base.Low, base.High)
	ins := node.NewLeafInsert(del, 10, "j", 4, base.Low, base.High)

	h := NewRangeHandler[int, string](cmp.Compare[int], 1, node.PosInfKey[int]())
	Walk(ins, h)

	var got []int
	for _, e := range h.Results {
		got = append(got, e.Key)
	}
	assert.Equal(t, []int{1, 3, 4, 10}, got)
}

func TestRangeHandlerClipsAtSplitBoundary(t *testing.T) {
	base := leaf([]int{1, 2, 3, 4}, []string{"a", "b", "c", "d"}, node.NegInfKey[int](), node.FiniteKey(3))
	split := node.NewSplit(base, 3, node.NID(9), 2, base.Low)

	h := NewRangeHandler[int, string](cmp.Compare[int], 1, node.PosInfKey[int]())
	Walk(split, h)

	var got []int
	for _, e := range h.Results {
		got = append(got, e.Key)
	}
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, node.FiniteKey(3), h.ChainHigh)
}

func TestRangeHandlerSetsRetryOnRemove(t *testing.T) {
	base := leaf([]int{1}, []string{"a"}, node.NegInfKey[int](), node.PosInfKey[int]())
	remove := node.NewRemove(base)

	h := NewRangeHandler[int, string](cmp.Compare[int], 0, node.PosInfKey[int]())
	Walk(remove, h)
	assert.True(t, h.Retry)
}

func TestRangeHandlerCollectsBothLegsOfAMergeWhenVictimHasDeltas(t *testing.T) {
	leftBase := leaf([]int{1, 2}, []string{"a", "b"}, node.NegInfKey[int](), node.FiniteKey(5))
	rightBase := leaf([]int{5, 6}, []string{"c", "d"}, node.FiniteKey(5), node.PosInfKey[int]())
	// The victim's chain head carries a delta above its base, matching
	// the ordinary post-remove state described in smo.Merge.
	rightHead := node.NewLeafInsert(rightBase, 7, "e", 3, rightBase.Low, rightBase.High)
	merge := node.NewMerge(leftBase, 5, rightHead, node.NID(2), 5, node.PosInfKey[int]())

	h := NewRangeHandler[int, string](cmp.Compare[int], 0, node.PosInfKey[int]())
	Walk(merge, h)

	var got []int
	for _, e := range h.Results {
		got = append(got, e.Key)
	}
	assert.Equal(t, []int{1, 2, 5, 6, 7}, got, "entries from both the absorbing and absorbed legs must survive the merge")
}

func TestWalkPanicsWhenHandlerDoesNotOverrideBase(t *testing.T) {
	base := leaf([]int{1}, []string{"a"}, node.NegInfKey[int](), node.PosInfKey[int]())
	h := &Base[int, string]{}
	assert.Panics(t, func() { Walk(base, h) })
}
