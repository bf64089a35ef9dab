package compaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sdancy10/openclaw/storage"
	"github.com/sdancy10/openclaw/types"
)

// Logger is the logging interface used by the compaction manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// SummaryProvider produces a summary of a message chunk. *Summarizer is
// the production implementation.
type SummaryProvider interface {
	Summarize(ctx context.Context, messages []*types.Message) (string, error)
}

// Result describes a completed compaction pass.
type Result struct {
	EventID         string
	Strategy        Strategy
	OriginalTokens  int
	CompactedTokens int
	MessagesRemoved int
	PrunedTokens    int
	Summary         string
	// OversizedMessageIDs lists messages whose estimate would dominate a
	// summarization call. They are left in place rather than summarized.
	OversizedMessageIDs []string
	DurationMs          int64
}

// Manager orchestrates compaction passes against a session store.
type Manager struct {
	store       storage.Store
	summarizer  SummaryProvider
	partitioner *Partitioner
	config      *Config
	overrides   *OverrideRegistry
	owner       any
	logger      Logger

	// pool enables wrapping a pass in a transaction when the caller did not
	// supply one via storage.WithTx.
	pool *pgxpool.Pool
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithOverrides attaches a per-owner override registry. The owner key must
// be a reference type; non-reference owners are ignored by the registry.
func WithOverrides(registry *OverrideRegistry, owner any) ManagerOption {
	return func(m *Manager) {
		m.overrides = registry
		m.owner = owner
	}
}

// WithPool lets the manager open its own transaction around a pass.
func WithPool(pool *pgxpool.Pool) ManagerOption {
	return func(m *Manager) {
		m.pool = pool
	}
}

// NewManager creates a compaction manager.
func NewManager(store storage.Store, summarizer SummaryProvider, config *Config, opts ...ManagerOption) *Manager {
	if config == nil {
		config = DefaultConfig()
	} else {
		config.ApplyDefaults()
	}

	m := &Manager{
		store:       store,
		summarizer:  summarizer,
		partitioner: NewPartitioner(config),
		config:      config,
		overrides:   DefaultRegistry(),
		logger:      noopLogger{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ShouldCompact checks if compaction is needed for a session.
func (m *Manager) ShouldCompact(ctx context.Context, sessionID string, contextWindow int) (bool, error) {
	messages, err := m.store.GetMessages(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	totalTokens := 0
	for _, msg := range messages {
		totalTokens += messageTokens(msg)
	}

	return totalTokens >= m.config.TriggerThreshold(contextWindow), nil
}

// Compact performs one compaction pass on a session.
//
// The pass loads the transcript, optionally prunes tool outputs (hybrid
// strategy), partitions off the protected tail, summarizes one chunk of the
// remaining history, and persists the outcome: the compaction event, the
// archived originals, and the replacement summary message. When the manager
// was built with a pool and the context carries no transaction, the
// persistence steps run in a single transaction.
func (m *Manager) Compact(ctx context.Context, sessionID string, contextWindow int) (*Result, error) {
	start := time.Now()

	messages, err := m.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}
	if len(messages) == 0 {
		return nil, NewCompactionError("compact", ErrNoMessagesToCompact).WithSession(sessionID)
	}

	originalTokens := 0
	for _, msg := range messages {
		originalTokens += messageTokens(msg)
	}

	result := &Result{
		Strategy:       m.config.Strategy,
		OriginalTokens: originalTokens,
	}

	working := messages
	var prunedMessages []*types.Message

	protectedTokens := EffectiveProtectedTokens(m.overrides, m.owner, m.config.ProtectedTokens)

	if m.config.Strategy == StrategyHybrid {
		pruned, removed := pruneToolOutputs(messages, m.config, protectedTokens)
		if removed > 0 {
			m.logger.Info("pruned tool outputs", "session_id", sessionID, "tokens_removed", removed)
			result.PrunedTokens = removed
			working = pruned
			prunedMessages = changedMessages(messages, pruned)

			// Pruning alone may bring the session back under threshold.
			remaining := originalTokens - removed
			if remaining < m.config.TriggerThreshold(contextWindow) {
				result.CompactedTokens = remaining
				result.DurationMs = time.Since(start).Milliseconds()
				if err := m.persistPrune(ctx, sessionID, prunedMessages, result); err != nil {
					return nil, err
				}
				return result, nil
			}
		}
	}

	preserved, toSummarize := m.partitioner.Partition(working, protectedTokens)
	if len(toSummarize) == 0 {
		return nil, NewCompactionError("compact", ErrNoMessagesToCompact).WithSession(sessionID)
	}

	// Oversized messages are excluded from the chunk; a summary of a message
	// that alone fills half the window would itself risk overflow.
	result.OversizedMessageIDs = OversizedMessages(toSummarize, contextWindow)

	ratio := AdaptiveChunkRatio(working, contextWindow)
	ratio = EffectiveChunkRatio(m.overrides, m.owner, ratio)
	chunk := m.selectChunk(toSummarize, contextWindow, ratio)
	if len(chunk) == 0 {
		return nil, NewCompactionError("compact", ErrNoMessagesToCompact).WithSession(sessionID)
	}

	summary, err := m.summarizer.Summarize(ctx, chunk)
	if err != nil {
		return nil, NewCompactionError("compact", err).WithSession(sessionID)
	}

	// Failed tool calls carry debugging signal the summary prose tends to
	// lose, so their digest rides along verbatim.
	failures, omitted := CollectToolFailures(chunk)
	if digest := FormatToolFailuresSection(failures, omitted); digest != "" {
		summary = summary + "\n\n" + digest
	}
	result.Summary = summary

	summaryMsg := &types.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      types.RoleUser,
		IsSummary: true,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeText, Text: summary},
		},
		CreatedAt: chunk[0].CreatedAt,
		UpdatedAt: time.Now(),
	}

	result.MessagesRemoved = len(chunk)
	result.CompactedTokens = originalTokens - result.PrunedTokens -
		sumChunkTokens(chunk) + EstimateMessageTokens(summaryMsg)
	result.DurationMs = time.Since(start).Milliseconds()

	event := &storage.CompactionEvent{
		SessionID:           sessionID,
		Strategy:            string(m.config.Strategy),
		OriginalTokens:      result.OriginalTokens,
		CompactedTokens:     result.CompactedTokens,
		MessagesRemoved:     result.MessagesRemoved,
		SummaryContent:      summary,
		PreservedMessageIDs: messageIDs(preserved),
		ModelUsed:           m.config.SummarizerModel,
		DurationMs:          result.DurationMs,
		CreatedAt:           time.Now(),
	}

	persist := func(ctx context.Context) error {
		if err := m.store.SaveCompactionEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to save compaction event: %w", err)
		}
		if err := m.store.ArchiveMessages(ctx, event.ID, chunk); err != nil {
			return fmt.Errorf("failed to archive messages: %w", err)
		}
		if err := m.store.DeleteMessages(ctx, messageIDs(chunk)); err != nil {
			return fmt.Errorf("failed to delete old messages: %w", err)
		}
		if err := m.store.SaveMessage(ctx, summaryMsg); err != nil {
			return fmt.Errorf("failed to save summary message: %w", err)
		}
		if len(prunedMessages) > 0 {
			if err := m.store.SaveMessages(ctx, prunedMessages); err != nil {
				return fmt.Errorf("failed to save pruned messages: %w", err)
			}
		}
		if err := m.store.UpdateSessionCompactionCount(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to update compaction count: %w", err)
		}
		return nil
	}

	if err := m.runPersist(ctx, persist); err != nil {
		return nil, NewCompactionError("compact", err).WithSession(sessionID)
	}

	result.EventID = event.ID
	m.logger.Info("compaction complete",
		"session_id", sessionID,
		"strategy", string(m.config.Strategy),
		"messages_removed", result.MessagesRemoved,
		"original_tokens", result.OriginalTokens,
		"compacted_tokens", result.CompactedTokens,
	)

	return result, nil
}

// persistPrune records a prune-only hybrid pass.
func (m *Manager) persistPrune(ctx context.Context, sessionID string, prunedMessages []*types.Message, result *Result) error {
	event := &storage.CompactionEvent{
		SessionID:       sessionID,
		Strategy:        string(StrategyHybrid),
		OriginalTokens:  result.OriginalTokens,
		CompactedTokens: result.CompactedTokens,
		DurationMs:      result.DurationMs,
		CreatedAt:       time.Now(),
	}

	persist := func(ctx context.Context) error {
		if err := m.store.SaveCompactionEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to save compaction event: %w", err)
		}
		if err := m.store.SaveMessages(ctx, prunedMessages); err != nil {
			return fmt.Errorf("failed to save pruned messages: %w", err)
		}
		if err := m.store.UpdateSessionCompactionCount(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to update compaction count: %w", err)
		}
		return nil
	}

	if err := m.runPersist(ctx, persist); err != nil {
		return NewCompactionError("compact", err).WithSession(sessionID)
	}

	result.EventID = event.ID
	return nil
}

// runPersist executes fn, wrapping it in a new transaction when the manager
// has a pool and the context does not already carry one.
func (m *Manager) runPersist(ctx context.Context, fn func(context.Context) error) error {
	if m.pool == nil || storage.TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// pgx returns ErrTxClosed after a successful commit; anything else
		// is worth surfacing.
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("openclaw/compaction: rollback failed: %v", err)
		}
	}()

	if err := fn(storage.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit compaction: %w", err)
	}

	return nil
}

// selectChunk takes the oldest messages whose combined estimate fits within
// ratio*contextWindow, skipping oversized messages. At least one message is
// selected when any eligible message exists.
func (m *Manager) selectChunk(toSummarize []*types.Message, contextWindow int, ratio float64) []*types.Message {
	budget := int(float64(contextWindow) * ratio)

	var chunk []*types.Message
	used := 0
	for _, msg := range toSummarize {
		if IsOversizedForSummary(msg, contextWindow) {
			continue
		}
		cost := messageTokens(msg)
		if len(chunk) > 0 && used+cost > budget {
			break
		}
		chunk = append(chunk, msg)
		used += cost
	}

	return chunk
}

// GetCompactionStats returns statistics for a session.
func (m *Manager) GetCompactionStats(ctx context.Context, sessionID string, contextWindow int) (*CompactionStats, error) {
	messages, err := m.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	history, err := m.store.GetCompactionHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	currentTokens := 0
	for _, msg := range messages {
		currentTokens += messageTokens(msg)
	}

	stats := &CompactionStats{
		CurrentTokens:   currentTokens,
		MaxTokens:       contextWindow,
		MessageCount:    len(messages),
		CompactionCount: len(history),
		ShouldCompact:   currentTokens >= m.config.TriggerThreshold(contextWindow),
	}
	if contextWindow > 0 {
		stats.UtilizationPct = float64(currentTokens) / float64(contextWindow) * 100
	}

	return stats, nil
}

// CompactionStats contains session compaction statistics.
type CompactionStats struct {
	CurrentTokens   int
	MaxTokens       int
	UtilizationPct  float64
	MessageCount    int
	CompactionCount int
	ShouldCompact   bool
}

func messageIDs(messages []*types.Message) []string {
	ids := make([]string, len(messages))
	for i, msg := range messages {
		ids[i] = msg.ID
	}
	return ids
}

func sumChunkTokens(chunk []*types.Message) int {
	total := 0
	for _, msg := range chunk {
		total += messageTokens(msg)
	}
	return total
}

// changedMessages returns the entries of after that differ from before by
// identity. Both slices must be positionally aligned.
func changedMessages(before, after []*types.Message) []*types.Message {
	var changed []*types.Message
	for i := range after {
		if after[i] != before[i] {
			changed = append(changed, after[i])
		}
	}
	return changed
}
