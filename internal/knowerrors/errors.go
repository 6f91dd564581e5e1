// Package knowerrors defines the semantic error taxonomy shared by every
// store-facing component: callers branch on Code, not on concrete types.
package knowerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure so callers can decide how to react without
// parsing error strings.
type Code string

const (
	NotFound          Code = "not_found"
	InvalidType       Code = "invalid_type"
	PathTraversal     Code = "path_traversal"
	DimensionMismatch Code = "dimension_mismatch"
	FtsSyntax         Code = "fts_syntax"
	IndexCorruption   Code = "index_corruption"
	IOError           Code = "io_error"
)

// StoreError is the single error type for the knowledge store. It carries
// the offending identifier verbatim and wraps the underlying cause.
type StoreError struct {
	Code  Code
	ID    string
	Cause error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Code, e.Cause)
		}
		return string(e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %q: %v", e.Code, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %q", e.Code, e.ID)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, target) report true when target is a *StoreError
// with the same Code, e.g. errors.Is(err, knowerrors.NewNotFound("")). To
// test a bare Code, use the package-level Is function below.
func (e *StoreError) Is(target error) bool {
	var se *StoreError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

func New(code Code, id string, cause error) *StoreError {
	return &StoreError{Code: code, ID: id, Cause: cause}
}

func NewNotFound(id string) *StoreError              { return New(NotFound, id, nil) }
func NewInvalidType(id string) *StoreError            { return New(InvalidType, id, nil) }
func NewPathTraversal(id string) *StoreError          { return New(PathTraversal, id, nil) }
func NewDimensionMismatch(id string, cause error) *StoreError {
	return New(DimensionMismatch, id, cause)
}
func NewFtsSyntax(id string, cause error) *StoreError { return New(FtsSyntax, id, cause) }
func NewIndexCorruption(cause error) *StoreError      { return New(IndexCorruption, "", cause) }
func NewIOError(id string, cause error) *StoreError   { return New(IOError, id, cause) }

// CodeOf extracts the Code of err if it (or something it wraps) is a
// *StoreError, and reports whether one was found.
func CodeOf(err error) (Code, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}
