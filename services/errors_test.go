package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeExternal,
				Message: "language model request failed",
				Err:     errors.New("connection refused"),
			},
			wantMsg: "external: language model request failed (connection refused)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error type", NewDomainError(ErrorTypeNotFound, "gone", nil), ErrLocationNotFound, true},
		{"different error type", NewDomainError(ErrorTypeValidation, "bad", nil), ErrLocationNotFound, false},
		{"not a domain error", NewDomainError(ErrorTypeNotFound, "gone", nil), errors.New("regular error"), false},
		{"wrapped", fmt.Errorf("chat: %w", ErrKnowledgeBaseNotReady), NewDomainError(ErrorTypeUnavailable, "down", nil), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)

	err.WithDetail("field", "limit").WithDetail("value", 0)

	assert.Equal(t, "limit", err.Details["field"])
	assert.Equal(t, 0, err.Details["value"])
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrLocationNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrLocationNotFound), IsNotFoundError, true},
		{"nil is not found", nil, IsNotFoundError, false},
		{"validation", ErrEmptyQuestion, IsValidationError, true},
		{"validation vs not found", ErrLocationNotFound, IsValidationError, false},
		{"unavailable", ErrKnowledgeBaseNotReady, IsUnavailableError, true},
		{"rate limit", ErrRateLimitExceeded, IsRateLimitError, true},
		{"conflict", ErrReloadInProgress, IsConflictError, true},
		{"internal", ErrDatabaseError, IsInternalError, true},
		{"external", ErrGenerationFailed, IsExternalError, true},
		{"external embedding", ErrEmbeddingFailed, IsExternalError, true},
		{"external vs internal", ErrDatabaseError, IsExternalError, false},
		{"timeout", ErrRequestTimeout, IsTimeoutError, true},
		{"regular error", errors.New("regular"), IsInternalError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(ErrLocationNotFound))
	assert.Equal(t, ErrorTypeUnavailable, GetErrorType(ErrKnowledgeBaseNotReady))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("regular")))
}

func TestGetErrorDetailsAndMessage(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil)
	err.WithDetail("field", "question")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "question", details["field"])
	assert.Equal(t, "validation error", GetErrorMessage(fmt.Errorf("x: %w", err)))

	regularErr := errors.New("regular error")
	assert.Nil(t, GetErrorDetails(regularErr))
	assert.Empty(t, GetErrorMessage(regularErr))
}

func TestWrapHelpers(t *testing.T) {
	baseErr := errors.New("base error")

	wrapped := WrapError(ErrorTypeConflict, "wrapped message", baseErr)
	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeConflict, domainErr.Type)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))

	assert.True(t, IsInternalError(WrapInternal("db", baseErr)))
	assert.True(t, IsExternalError(WrapExternal("ollama", baseErr)))
	assert.ErrorIs(t, WrapExternal("ollama", baseErr), baseErr)
}
