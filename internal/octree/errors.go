package octree

import (
	"errors"
	"fmt"
)

// Domain errors for tree construction and validation.
var (
	// ErrLengthMismatch indicates positions and masses of different length.
	ErrLengthMismatch = errors.New("octree: positions and masses differ in length")

	// ErrWorldSize indicates a world cube edge that is not a positive finite number.
	ErrWorldSize = errors.New("octree: world size must be positive and finite")

	// ErrNonFinite indicates a NaN or Inf in a body position or mass.
	ErrNonFinite = errors.New("octree: non-finite body position or mass")

	// ErrInvalid indicates a tree that violates one of its structural invariants.
	ErrInvalid = errors.New("octree: invalid tree")
)

// BodyError wraps an error with the index of the offending input body.
type BodyError struct {
	Index   int
	Wrapped error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("body %d: %v", e.Index, e.Wrapped)
}

func (e *BodyError) Unwrap() error {
	return e.Wrapped
}

// ValidationError reports which property a tree failed and at which node.
type ValidationError struct {
	Property string
	Node     int
	Detail   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("octree: %s violated at node %d: %s", e.Property, e.Node, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}
