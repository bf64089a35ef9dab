// Package repair restores the structural invariants a model provider
// requires of a conversation transcript.
//
// Providers reject tool results that reference no prior tool invocation,
// duplicate results for the same invocation, and assistant turns whose tool
// calls were never genuinely executed. ToolPairing and StripInterrupted heal
// these conditions locally instead of surfacing them as failures: structural
// damage in a transcript is always recoverable by dropping or rewriting the
// offending messages.
//
// Both transformations preserve message order, never mutate their input, and
// are idempotent. When a pass finds nothing to change it returns the input
// slice itself, so callers can detect a no-op with a cheap identity
// comparison and skip rebuilding dependent state.
package repair
