package compaction

import (
	"reflect"
	"sync"
)

// Overrides are per-session-manager runtime parameters layered over a
// Config. Zero fields mean "no override".
type Overrides struct {
	// MaxHistoryShare caps the chunk ratio for the owning session manager.
	// Must be in (0, 1] to take effect.
	MaxHistoryShare float64

	// ProtectedTokens overrides Config.ProtectedTokens when positive.
	ProtectedTokens int
}

// OverrideRegistry associates Overrides with a session manager's identity.
//
// Keys are opaque: the registry never inspects them beyond identity, so
// distinct session managers never collide even with identical content. Only
// reference kinds (pointers, channels) are accepted as keys; anything else
// is silently treated as absent rather than panicking inside a map. Writes
// to the same key are last-write-wins. Callers needing stronger ordering
// must serialize their own writes.
type OverrideRegistry struct {
	mu      sync.RWMutex
	entries map[any]Overrides
}

// NewOverrideRegistry creates an empty registry.
func NewOverrideRegistry() *OverrideRegistry {
	return &OverrideRegistry{entries: make(map[any]Overrides)}
}

// identityKey reports whether a value can serve as an identity key.
func identityKey(owner any) bool {
	if owner == nil {
		return false
	}
	switch reflect.ValueOf(owner).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// Set associates overrides with the given session manager. Non-reference
// keys are rejected silently.
func (r *OverrideRegistry) Set(owner any, overrides Overrides) {
	if !identityKey(owner) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[owner] = overrides
}

// Get returns the overrides for the given session manager. Unknown or
// non-reference keys resolve to "no override" with ok=false, never an error.
func (r *OverrideRegistry) Get(owner any) (Overrides, bool) {
	if !identityKey(owner) {
		return Overrides{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	overrides, ok := r.entries[owner]
	return overrides, ok
}

// Delete removes the entry for the given session manager, if any. Callers
// should delete entries when the owning session manager is torn down.
func (r *OverrideRegistry) Delete(owner any) {
	if !identityKey(owner) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, owner)
}

// Reset drops every entry. Intended for test isolation.
func (r *OverrideRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[any]Overrides)
}

// defaultRegistry is the process-wide registry, constructed once at
// startup. Components that need override resolution should be handed a
// registry explicitly; the default exists for callers that do not inject
// their own.
var defaultRegistry = NewOverrideRegistry()

// DefaultRegistry returns the process-wide override registry.
func DefaultRegistry() *OverrideRegistry {
	return defaultRegistry
}

// ResetDefaultRegistry clears the process-wide registry for test isolation.
func ResetDefaultRegistry() {
	defaultRegistry.Reset()
}

// EffectiveChunkRatio applies a session manager's MaxHistoryShare override
// to the adaptive ratio, never raising it above the adaptive value.
func EffectiveChunkRatio(registry *OverrideRegistry, owner any, ratio float64) float64 {
	if registry == nil {
		return ratio
	}
	overrides, ok := registry.Get(owner)
	if !ok {
		return ratio
	}
	if share := overrides.MaxHistoryShare; share > 0 && share < ratio {
		return share
	}
	return ratio
}

// EffectiveProtectedTokens resolves the protected-zone size for a session
// manager, replacing the configured value with a positive override.
func EffectiveProtectedTokens(registry *OverrideRegistry, owner any, tokens int) int {
	if registry == nil {
		return tokens
	}
	overrides, ok := registry.Get(owner)
	if !ok {
		return tokens
	}
	if overrides.ProtectedTokens > 0 {
		return overrides.ProtectedTokens
	}
	return tokens
}
