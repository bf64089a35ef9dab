// Package hooks lets callers observe the transcript pipeline: repair
// passes, guard verdicts, compaction, and the messages crossing the
// transport boundary.
package hooks

import (
	"context"
	"sync"

	"github.com/sdancy10/openclaw/compaction"
	"github.com/sdancy10/openclaw/contextwindow"
	"github.com/sdancy10/openclaw/repair"
	"github.com/sdancy10/openclaw/types"
)

// RepairHook is called after a pairing-repair pass with its drop counts.
type RepairHook func(ctx context.Context, sessionID string, result repair.PairingResult) error

// GuardHook is called after a context-window guard evaluation.
type GuardHook func(ctx context.Context, sessionID string, verdict contextwindow.Verdict) error

// BeforeMessageHook is called before sending messages to the provider.
type BeforeMessageHook func(ctx context.Context, messages []*types.Message) error

// AfterMessageHook is called after receiving a response from the provider.
type AfterMessageHook func(ctx context.Context, response *types.Response) error

// BeforeCompactionHook is called before context compaction.
type BeforeCompactionHook func(ctx context.Context, sessionID string) error

// AfterCompactionHook is called after context compaction.
type AfterCompactionHook func(ctx context.Context, result *compaction.Result) error

// Registry holds all registered hooks
type Registry struct {
	mu               sync.RWMutex
	repaired         []RepairHook
	guarded          []GuardHook
	beforeMessage    []BeforeMessageHook
	afterMessage     []AfterMessageHook
	beforeCompaction []BeforeCompactionHook
	afterCompaction  []AfterCompactionHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{}
}

// OnRepair registers a hook called after each pairing-repair pass
func (r *Registry) OnRepair(hook RepairHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repaired = append(r.repaired, hook)
}

// OnGuard registers a hook called after each guard evaluation
func (r *Registry) OnGuard(hook GuardHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guarded = append(r.guarded, hook)
}

// OnBeforeMessage registers a hook called before sending messages
func (r *Registry) OnBeforeMessage(hook BeforeMessageHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeMessage = append(r.beforeMessage, hook)
}

// OnAfterMessage registers a hook called after receiving a response
func (r *Registry) OnAfterMessage(hook AfterMessageHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterMessage = append(r.afterMessage, hook)
}

// OnBeforeCompaction registers a hook called before compaction
func (r *Registry) OnBeforeCompaction(hook BeforeCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeCompaction = append(r.beforeCompaction, hook)
}

// OnAfterCompaction registers a hook called after compaction
func (r *Registry) OnAfterCompaction(hook AfterCompactionHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterCompaction = append(r.afterCompaction, hook)
}

// TriggerRepair calls all registered repair hooks
func (r *Registry) TriggerRepair(ctx context.Context, sessionID string, result repair.PairingResult) error {
	r.mu.RLock()
	hooks := make([]RepairHook, len(r.repaired))
	copy(hooks, r.repaired)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, result); err != nil {
			return err
		}
	}
	return nil
}

// TriggerGuard calls all registered guard hooks
func (r *Registry) TriggerGuard(ctx context.Context, sessionID string, verdict contextwindow.Verdict) error {
	r.mu.RLock()
	hooks := make([]GuardHook, len(r.guarded))
	copy(hooks, r.guarded)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID, verdict); err != nil {
			return err
		}
	}
	return nil
}

// TriggerBeforeMessage calls all registered before-message hooks
func (r *Registry) TriggerBeforeMessage(ctx context.Context, messages []*types.Message) error {
	r.mu.RLock()
	hooks := make([]BeforeMessageHook, len(r.beforeMessage))
	copy(hooks, r.beforeMessage)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, messages); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterMessage calls all registered after-message hooks
func (r *Registry) TriggerAfterMessage(ctx context.Context, response *types.Response) error {
	r.mu.RLock()
	hooks := make([]AfterMessageHook, len(r.afterMessage))
	copy(hooks, r.afterMessage)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, response); err != nil {
			return err
		}
	}
	return nil
}

// TriggerBeforeCompaction calls all registered before-compaction hooks
func (r *Registry) TriggerBeforeCompaction(ctx context.Context, sessionID string) error {
	r.mu.RLock()
	hooks := make([]BeforeCompactionHook, len(r.beforeCompaction))
	copy(hooks, r.beforeCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterCompaction calls all registered after-compaction hooks
func (r *Registry) TriggerAfterCompaction(ctx context.Context, result *compaction.Result) error {
	r.mu.RLock()
	hooks := make([]AfterCompactionHook, len(r.afterCompaction))
	copy(hooks, r.afterCompaction)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, result); err != nil {
			return err
		}
	}
	return nil
}
