package node

// NID is a logical node identifier: a dense index into the mapping
// table, not a memory address.
type NID uint64

// InvalidNID marks the absence of a node id (e.g. an inner delta's
// "no next sibling" slot).
const InvalidNID NID = ^NID(0)
