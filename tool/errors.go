package tool

import "errors"

// Sentinel errors for tool operations.
var (
	// ErrToolNotFound indicates the named tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool indicates a tool name is already registered.
	ErrDuplicateTool = errors.New("tool already registered")

	// ErrInvalidSchema indicates a tool schema failed validation.
	ErrInvalidSchema = errors.New("invalid tool schema")

	// ErrInvalidInput indicates tool input failed schema validation.
	ErrInvalidInput = errors.New("invalid tool input")
)
