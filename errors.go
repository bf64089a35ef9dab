package openclaw

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig is returned when a configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrSessionNotFound is returned when a session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrToolNotFound is returned when a tool cannot be found
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidToolSchema is returned when a tool schema is invalid
	ErrInvalidToolSchema = errors.New("invalid tool schema")

	// ErrCompactionFailed is returned when context compaction fails
	ErrCompactionFailed = errors.New("context compaction failed")

	// ErrStorageError is returned when a storage operation failed
	ErrStorageError = errors.New("storage operation failed")
)

// PipelineError represents an error with additional context about which
// preflight stage failed.
type PipelineError struct {
	Op        string         // Operation that failed
	Err       error          // Underlying error
	SessionID string         // Session ID if applicable
	Context   map[string]any // Additional context
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s (session=%s): %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewPipelineError creates a new PipelineError
func NewPipelineError(op string, err error) *PipelineError {
	return &PipelineError{
		Op:  op,
		Err: err,
	}
}

// NewPipelineErrorWithSession creates a new PipelineError with session ID
func NewPipelineErrorWithSession(op string, sessionID string, err error) *PipelineError {
	return &PipelineError{
		Op:        op,
		Err:       err,
		SessionID: sessionID,
	}
}
