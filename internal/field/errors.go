package field

import (
	"errors"
	"fmt"
)

// Domain errors for field evaluation.
var (
	// ErrUnsupportedGeometry indicates a source tag no kernel handles.
	ErrUnsupportedGeometry = errors.New("field: unsupported source geometry")

	// ErrPathMismatch indicates path lengths that are neither 1 nor the common length.
	ErrPathMismatch = errors.New("field: inconsistent path lengths")

	// ErrEmptyInput indicates a request without sources or without observers.
	ErrEmptyInput = errors.New("field: no sources or observers given")

	// ErrInvalidFieldKind indicates a kind outside B, H, M, J.
	ErrInvalidFieldKind = errors.New("field: field kind must be one of B, H, M, J")

	// ErrHeterogeneousShape indicates observers with differing pixel shapes.
	ErrHeterogeneousShape = errors.New("field: observers have differing pixel shapes")

	// ErrInvalidParameter indicates malformed shape parameters on a source.
	ErrInvalidParameter = errors.New("field: invalid source parameter")
)

type UnsupportedGeometryError struct {
	Geometry string
	Index    int
}

func (e *UnsupportedGeometryError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %q", ErrUnsupportedGeometry, e.Geometry)
	}
	return fmt.Sprintf("%v: %q at flat index %d", ErrUnsupportedGeometry, e.Geometry, e.Index)
}

func (e *UnsupportedGeometryError) Unwrap() error { return ErrUnsupportedGeometry }

// PathMismatchError reports the first object whose path length is neither 1 nor Want.
type PathMismatchError struct {
	Object string
	Length int
	Want   int
}

func (e *PathMismatchError) Error() string {
	return fmt.Sprintf("%v: %s has path length %d, want 1 or %d", ErrPathMismatch, e.Object, e.Length, e.Want)
}

func (e *PathMismatchError) Unwrap() error { return ErrPathMismatch }

type EmptyInputError struct {
	What string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%v (%s)", ErrEmptyInput, e.What)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

type InvalidFieldKindError struct {
	Kind  Kind
	Input string
}

func (e *InvalidFieldKindError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("%v, got %q", ErrInvalidFieldKind, e.Input)
	}
	return fmt.Sprintf("%v, got %q", ErrInvalidFieldKind, string(rune(e.Kind)))
}

func (e *InvalidFieldKindError) Unwrap() error { return ErrInvalidFieldKind }

// HeterogeneousShapeError is returned as a fatal error under the strict shape
// policy and as a warning otherwise.
type HeterogeneousShapeError struct {
	Shapes [][]int
	Policy string
}

func (e *HeterogeneousShapeError) Error() string {
	return fmt.Sprintf("%v %v (policy %s)", ErrHeterogeneousShape, e.Shapes, e.Policy)
}

func (e *HeterogeneousShapeError) Unwrap() error { return ErrHeterogeneousShape }

// ParameterError wraps malformed source parameters with the offending source.
type ParameterError struct {
	Source  string
	Message string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidParameter, e.Source, e.Message)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }
