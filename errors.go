package bwtree

import (
	"fmt"

	"github.com/pkg/errors"

	"bwtree/mapping"
)

// ErrorKind classifies an Error returned from a public Index method.
type ErrorKind int

const (
	// MappingTableFull means the NID allocator has permanently
	// exhausted the configured table size.
	MappingTableFull ErrorKind = iota
	// AllocationFailure covers any other failure to publish a new
	// node or delta.
	AllocationFailure
	// InvariantViolation means a bounded local retry loop (descent,
	// CAS, SMO helping) exhausted its attempts, which should only
	// happen under a defect in the lock-free protocol rather than
	// ordinary contention.
	InvariantViolation
	// ReclaimerFailure means the configured Reclaimer's background
	// worker pool reported an error.
	ReclaimerFailure
)

func (k ErrorKind) String() string {
	switch k {
	case MappingTableFull:
		return "MappingTableFull"
	case AllocationFailure:
		return "AllocationFailure"
	case InvariantViolation:
		return "InvariantViolation"
	case ReclaimerFailure:
		return "ReclaimerFailure"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every Index method that can fail
// returns. Duplicate/NotFound outcomes are reported through a plain
// bool return, not through Error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bwtree: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapAllocErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mapping.ErrTableFull) {
		return &Error{Kind: MappingTableFull, Err: err}
	}
	return &Error{Kind: AllocationFailure, Err: err}
}

func exhaustedErr(op string) error {
	return &Error{Kind: InvariantViolation, Err: errors.Errorf("bwtree: %s exhausted its retry budget", op)}
}
