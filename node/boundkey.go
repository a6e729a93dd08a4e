// Package node defines the Bw-tree's on-heap node and delta record
// layout: bound keys, the node header fields, base nodes, and the
// tagged delta record variants that chain above them.
package node

// Sign discriminates a BoundKey between a concrete key and one of the
// two infinity sentinels.
type Sign int8

const (
	// NegInf is the -infinity sentinel; only the leftmost chain at a
	// level may use it as a low bound.
	NegInf Sign = -1
	// Finite marks a BoundKey holding a real, comparable Key.
	Finite Sign = 0
	// PosInf is the +infinity sentinel; only the rightmost chain at a
	// level may use it as a high bound.
	PosInf Sign = 1
)

// BoundKey is either a concrete Key or one of the ±∞ sentinels.
// Comparators are only ever invoked on the Finite case; callers must
// check Sign before touching Key.
type BoundKey[K any] struct {
	Sign Sign
	Key  K
}

// NegInfKey builds the -infinity bound.
func NegInfKey[K any]() BoundKey[K] {
	return BoundKey[K]{Sign: NegInf}
}

// PosInfKey builds the +infinity bound.
func PosInfKey[K any]() BoundKey[K] {
	return BoundKey[K]{Sign: PosInf}
}

// FiniteKey wraps a concrete key as a BoundKey.
func FiniteKey[K any](k K) BoundKey[K] {
	return BoundKey[K]{Sign: Finite, Key: k}
}

// IsInf reports whether b is either infinity sentinel.
func (b BoundKey[K]) IsInf() bool {
	return b.Sign != Finite
}

// LessOrEqualKey reports whether b <= key, using cmp only when b is
// Finite. -infinity is always <= key; +infinity never is.
func (b BoundKey[K]) LessOrEqualKey(key K, cmp func(a, b K) int) bool {
	switch b.Sign {
	case NegInf:
		return true
	case PosInf:
		return false
	default:
		return cmp(b.Key, key) <= 0
	}
}

// GreaterThanKey reports whether b > key, using cmp only when b is
// Finite. +infinity is always > key; -infinity never is.
func (b BoundKey[K]) GreaterThanKey(key K, cmp func(a, b K) int) bool {
	switch b.Sign {
	case PosInf:
		return true
	case NegInf:
		return false
	default:
		return cmp(b.Key, key) > 0
	}
}

// Equal reports whether two bound keys denote the same bound.
func (b BoundKey[K]) Equal(o BoundKey[K], cmp func(a, b K) int) bool {
	if b.Sign != o.Sign {
		return false
	}
	if b.Sign != Finite {
		return true
	}
	return cmp(b.Key, o.Key) == 0
}
