package node

// Kind tags a Record as one of the twelve node/delta variants and is
// the discriminant every chain.Handler dispatches on.
type Kind uint16

const (
	InnerBase Kind = iota + 1
	InnerInsert
	InnerDelete
	InnerSplit
	InnerRemove
	InnerMerge
)

const (
	LeafBase Kind = iota + 10
	LeafInsert
	LeafDelete
	LeafSplit
	LeafRemove
	LeafMerge
)

// IsLeaf reports whether k belongs to the leaf family.
func (k Kind) IsLeaf() bool {
	return k >= LeafBase
}

// IsBase reports whether k is a base (non-delta) node.
func (k Kind) IsBase() bool {
	return k == InnerBase || k == LeafBase
}

// IsRemove reports whether k is a Remove delta.
func (k Kind) IsRemove() bool {
	return k == InnerRemove || k == LeafRemove
}

// IsSplit reports whether k is a Split delta.
func (k Kind) IsSplit() bool {
	return k == InnerSplit || k == LeafSplit
}

// IsMerge reports whether k is a Merge delta.
func (k Kind) IsMerge() bool {
	return k == InnerMerge || k == LeafMerge
}

// IsInsert reports whether k is an Insert delta (leaf or inner).
func (k Kind) IsInsert() bool {
	return k == LeafInsert || k == InnerInsert
}

// IsDelete reports whether k is a Delete delta (leaf or inner).
func (k Kind) IsDelete() bool {
	return k == LeafDelete || k == InnerDelete
}

// String renders the kind for logs and test failure messages.
func (k Kind) String() string {
	switch k {
	case InnerBase:
		return "InnerBase"
	case InnerInsert:
		return "InnerInsert"
	case InnerDelete:
		return "InnerDelete"
	case InnerSplit:
		return "InnerSplit"
	case InnerRemove:
		return "InnerRemove"
	case InnerMerge:
		return "InnerMerge"
	case LeafBase:
		return "LeafBase"
	case LeafInsert:
		return "LeafInsert"
	case LeafDelete:
		return "LeafDelete"
	case LeafSplit:
		return "LeafSplit"
	case LeafRemove:
		return "LeafRemove"
	case LeafMerge:
		return "LeafMerge"
	default:
		return "Unknown"
	}
}
