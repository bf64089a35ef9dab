package hooks

import (
	"context"
	"log"

	"github.com/sdancy10/openclaw/compaction"
	"github.com/sdancy10/openclaw/contextwindow"
	"github.com/sdancy10/openclaw/repair"
	"github.com/sdancy10/openclaw/types"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// Register attaches every logging hook to the registry.
func (h *LoggingHooks) Register(registry *Registry) {
	registry.OnRepair(h.Repair)
	registry.OnGuard(h.Guard)
	registry.OnBeforeMessage(h.BeforeMessage)
	registry.OnAfterMessage(h.AfterMessage)
	registry.OnBeforeCompaction(h.BeforeCompaction)
	registry.OnAfterCompaction(h.AfterCompaction)
}

// Repair logs repair drop counts. Structural repairs are self-healing and
// only surface here.
func (h *LoggingHooks) Repair(ctx context.Context, sessionID string, result repair.PairingResult) error {
	if !result.Changed() {
		return nil
	}
	h.logger.Printf("[openclaw] Repaired transcript for session %s: %d orphaned results, %d duplicate results dropped",
		sessionID, result.DroppedOrphans, result.DroppedDuplicates)
	return nil
}

// Guard logs warn and block verdicts.
func (h *LoggingHooks) Guard(ctx context.Context, sessionID string, verdict contextwindow.Verdict) error {
	switch {
	case verdict.ShouldBlock:
		h.logger.Printf("[openclaw] Context window for session %s is %d tokens, below the hard minimum",
			sessionID, verdict.Tokens)
	case verdict.ShouldWarn:
		h.logger.Printf("[openclaw] Context window for session %s is %d tokens, expect degraded sessions",
			sessionID, verdict.Tokens)
	}
	return nil
}

// BeforeMessage logs before sending messages to the provider
func (h *LoggingHooks) BeforeMessage(ctx context.Context, messages []*types.Message) error {
	h.logger.Printf("[openclaw] Sending %d messages to provider", len(messages))
	return nil
}

// AfterMessage logs after receiving a response
func (h *LoggingHooks) AfterMessage(ctx context.Context, response *types.Response) error {
	h.logger.Printf("[openclaw] Received response: stop_reason=%s", response.StopReason)
	return nil
}

// BeforeCompaction logs before context compaction
func (h *LoggingHooks) BeforeCompaction(ctx context.Context, sessionID string) error {
	h.logger.Printf("[openclaw] Starting context compaction for session %s", sessionID)
	return nil
}

// AfterCompaction logs after context compaction
func (h *LoggingHooks) AfterCompaction(ctx context.Context, result *compaction.Result) error {
	reduction := float64(0)
	if result.OriginalTokens > 0 {
		reduction = float64(result.OriginalTokens-result.CompactedTokens) / float64(result.OriginalTokens) * 100
	}

	h.logger.Printf("[openclaw] Compaction complete: %d -> %d tokens (%.1f%% reduction, %d messages removed, strategy: %s)",
		result.OriginalTokens, result.CompactedTokens, reduction, result.MessagesRemoved, result.Strategy)
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// Repair records repair drop counts
func (h *MetricsHooks) Repair(ctx context.Context, sessionID string, result repair.PairingResult) error {
	tags := map[string]string{"session": sessionID}
	if result.DroppedOrphans > 0 {
		h.OnMetric("transcript.repair.orphans_dropped", float64(result.DroppedOrphans), tags)
	}
	if result.DroppedDuplicates > 0 {
		h.OnMetric("transcript.repair.duplicates_dropped", float64(result.DroppedDuplicates), tags)
	}
	return nil
}

// Guard records guard verdicts
func (h *MetricsHooks) Guard(ctx context.Context, sessionID string, verdict contextwindow.Verdict) error {
	tags := map[string]string{"session": sessionID}
	if verdict.ShouldBlock {
		h.OnMetric("transcript.guard.blocked", 1, tags)
	} else if verdict.ShouldWarn {
		h.OnMetric("transcript.guard.warned", 1, tags)
	}
	return nil
}

// AfterMessage records response token metrics
func (h *MetricsHooks) AfterMessage(ctx context.Context, response *types.Response) error {
	if response.Usage != nil {
		h.OnMetric("transcript.tokens.input", float64(response.Usage.InputTokens), nil)
		h.OnMetric("transcript.tokens.output", float64(response.Usage.OutputTokens), nil)
	}
	return nil
}

// AfterCompaction records compaction metrics
func (h *MetricsHooks) AfterCompaction(ctx context.Context, result *compaction.Result) error {
	tags := map[string]string{"strategy": string(result.Strategy)}

	h.OnMetric("transcript.compaction.original_tokens", float64(result.OriginalTokens), tags)
	h.OnMetric("transcript.compaction.compacted_tokens", float64(result.CompactedTokens), tags)

	if result.OriginalTokens > 0 {
		h.OnMetric("transcript.compaction.reduction_pct",
			float64(result.OriginalTokens-result.CompactedTokens)/float64(result.OriginalTokens)*100, tags)
	}

	return nil
}
