package rag

import (
	"errors"
	"fmt"
)

var (
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
	ErrEmptyCorpus        = errors.New("cannot build index from an empty corpus")
	ErrIndexNotBuilt      = errors.New("index has not been built")
	ErrInvalidK           = errors.New("k must be greater than zero")
	ErrServiceUnavailable = errors.New("knowledge base is not ready")
	ErrInvalidTemplate    = errors.New("invalid prompt template")
	ErrReloadInProgress   = errors.New("knowledge base build already in progress")
)

// FieldMissingError reports a record that lacks a value required by the
// document template.
type FieldMissingError struct {
	Index      int
	LocationID int64
	Field      string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("record %d (location %d): required field %q is missing", e.Index, e.LocationID, e.Field)
}

// GenerationError wraps a failure of the Generator.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
