package openclaw

import (
	"context"

	"github.com/sdancy10/openclaw/compaction"
	"github.com/sdancy10/openclaw/contextwindow"
	"github.com/sdancy10/openclaw/hooks"
	"github.com/sdancy10/openclaw/repair"
	"github.com/sdancy10/openclaw/tool"
	"github.com/sdancy10/openclaw/types"
)

// Preflighter prepares a transcript and tool list for a provider call. It
// repairs tool-call pairing, rewrites interrupted turns, resolves and
// guards the context window, computes compaction-planning advisories, and
// sanitizes tool schemas for the provider's dialect.
//
// A Preflighter performs no I/O and holds no mutable state after
// construction, so a single instance is safe for concurrent use.
type Preflighter struct {
	provider string
	modelID  string

	config               *contextwindow.Config
	modelContextWindow   int
	defaultContextWindow int
	warnBelowTokens      int
	hardMinTokens        int

	tools     []tool.Definition
	overrides *compaction.OverrideRegistry
	owner     any
	hooks     *hooks.Registry
}

// PreflightResult is everything a runtime needs to know before the call.
// The guard verdict and planning advisories are informational; only the
// message and tool slices are meant to be forwarded to the provider.
type PreflightResult struct {
	// Messages is the repaired, provider-safe transcript. When no repair
	// fired this is the input slice itself.
	Messages []*types.Message

	// DroppedOrphans and DroppedDuplicates count tool results removed by
	// the pairing repair.
	DroppedOrphans    int
	DroppedDuplicates int

	// Window is the resolved context-window budget and its provenance.
	Window contextwindow.Info

	// Guard is the advisory sizing verdict for the resolved window.
	Guard contextwindow.Verdict

	// ChunkRatio is the fraction of history one summarization pass may
	// fold, after runtime overrides.
	ChunkRatio float64

	// OversizedMessageIDs lists messages too large to batch into a
	// summarization chunk.
	OversizedMessageIDs []string

	// ToolFailures is the rendered failures digest for the transcript,
	// empty when nothing failed.
	ToolFailures string

	// Tools is the sanitized tool list for the provider. When no schema
	// needed a change this is the registered slice itself.
	Tools []tool.Definition
}

// NewPreflighter creates a Preflighter for a provider/model pair.
func NewPreflighter(provider, modelID string, opts ...Option) (*Preflighter, error) {
	p := &Preflighter{
		provider: provider,
		modelID:  modelID,
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Run applies the full preflight chain to a transcript. The input slice is
// never mutated. Hook errors abort the run; the transcript transformations
// themselves never fail.
func (p *Preflighter) Run(ctx context.Context, sessionID string, messages []*types.Message) (*PreflightResult, error) {
	pairing := repair.ToolPairing(messages)
	if pairing.Changed() && p.hooks != nil {
		if err := p.hooks.TriggerRepair(ctx, sessionID, pairing); err != nil {
			return nil, NewPipelineErrorWithSession("preflight.repair_hook", sessionID, err)
		}
	}

	repaired := repair.StripInterrupted(pairing.Messages)

	window := contextwindow.Resolve(p.config, p.provider, p.modelID,
		p.modelContextWindow, p.defaultContextWindow)

	verdict := contextwindow.Evaluate(contextwindow.GuardParams{
		Info:            window,
		WarnBelowTokens: p.warnBelowTokens,
		HardMinTokens:   p.hardMinTokens,
	})
	if verdict.ShouldWarn && p.hooks != nil {
		if err := p.hooks.TriggerGuard(ctx, sessionID, verdict); err != nil {
			return nil, NewPipelineErrorWithSession("preflight.guard_hook", sessionID, err)
		}
	}

	ratio := compaction.AdaptiveChunkRatio(repaired, window.Tokens)
	if p.overrides != nil {
		ratio = compaction.EffectiveChunkRatio(p.overrides, p.owner, ratio)
	}

	records, omitted := compaction.CollectToolFailures(repaired)

	return &PreflightResult{
		Messages:            repaired,
		DroppedOrphans:      pairing.DroppedOrphans,
		DroppedDuplicates:   pairing.DroppedDuplicates,
		Window:              window,
		Guard:               verdict,
		ChunkRatio:          ratio,
		OversizedMessageIDs: compaction.OversizedMessages(repaired, window.Tokens),
		ToolFailures:        compaction.FormatToolFailuresSection(records, omitted),
		Tools:               tool.SanitizeDefinitions(p.provider, p.tools),
	}, nil
}
