package compaction

import (
	"fmt"
)

// Strategy represents a compaction strategy.
type Strategy string

const (
	// StrategySummarization uses Claude to create a structured summary of older messages.
	StrategySummarization Strategy = "summarization"

	// StrategyHybrid prunes tool outputs first, then summarizes if still needed.
	// This is the recommended strategy as it's more cost-effective.
	StrategyHybrid Strategy = "hybrid"
)

// Planner constants. The chunk ratio is the fraction of history one
// summarization pass may fold into a single chunk; it shrinks as messages
// grow so the summarization call itself cannot overflow.
const (
	// BaseChunkRatio is the ratio used while average message size stays
	// small relative to the context window.
	BaseChunkRatio = 0.5

	// MinChunkRatio is the floor the ratio never shrinks below.
	MinChunkRatio = 0.15

	// SafetyMargin inflates a message's estimate before comparing it
	// against the window, absorbing estimation error.
	SafetyMargin = 1.2

	// MaxToolFailures caps the failures digest; overflow is counted, not hidden.
	MaxToolFailures = 8
)

// Default configuration values based on production patterns.
const (
	DefaultStrategy            = StrategyHybrid
	DefaultTrigger             = 0.85 // 85% context usage
	DefaultPreserveLastN       = 10   // Always keep last 10 messages
	DefaultProtectedTokens     = 40000
	DefaultPruneMinimumTokens  = 20000 // Only prune when tool outputs exceed this
	DefaultSummarizerModel     = "claude-3-5-haiku-20241022"
	DefaultSummarizerMaxTokens = 4096
	DefaultUseTokenCountingAPI = true
)

// Config holds compaction configuration.
type Config struct {
	// Strategy is the compaction strategy to use.
	// Default: StrategyHybrid
	Strategy Strategy

	// Trigger is the context usage threshold (0.0-1.0) that triggers compaction.
	// Default: 0.85
	Trigger float64

	// PreserveLastN is the minimum number of recent messages to always preserve.
	// Default: 10
	PreserveLastN int

	// ProtectedTokens is the token count at the end of the transcript that is
	// never summarized. Default: 40000
	ProtectedTokens int

	// PruneMinimumTokens is the minimum volume of prunable tool output that
	// makes a hybrid prune pass worthwhile. Default: 20000
	PruneMinimumTokens int

	// SummarizerModel is the Claude model to use for summarization.
	// Default: "claude-3-5-haiku-20241022"
	SummarizerModel string

	// SummarizerMaxTokens is the maximum tokens for the summarization response.
	// Default: 4096
	SummarizerMaxTokens int

	// UseTokenCountingAPI determines whether to use Claude's token counting API.
	// If false or the API fails, character-based approximation is used.
	// Default: true
	UseTokenCountingAPI bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Strategy:            DefaultStrategy,
		Trigger:             DefaultTrigger,
		PreserveLastN:       DefaultPreserveLastN,
		ProtectedTokens:     DefaultProtectedTokens,
		PruneMinimumTokens:  DefaultPruneMinimumTokens,
		SummarizerModel:     DefaultSummarizerModel,
		SummarizerMaxTokens: DefaultSummarizerMaxTokens,
		UseTokenCountingAPI: DefaultUseTokenCountingAPI,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Strategy != StrategySummarization && c.Strategy != StrategyHybrid {
		return fmt.Errorf("%w: unknown strategy %q, must be %q or %q",
			ErrInvalidConfig, c.Strategy, StrategySummarization, StrategyHybrid)
	}

	if c.Trigger <= 0 || c.Trigger > 1.0 {
		return fmt.Errorf("%w: trigger must be between 0 and 1, got %f", ErrInvalidConfig, c.Trigger)
	}

	if c.PreserveLastN < 0 {
		return fmt.Errorf("%w: preserve_last_n must be non-negative, got %d", ErrInvalidConfig, c.PreserveLastN)
	}

	if c.ProtectedTokens < 0 {
		return fmt.Errorf("%w: protected_tokens must be non-negative, got %d", ErrInvalidConfig, c.ProtectedTokens)
	}

	if c.SummarizerModel == "" {
		return fmt.Errorf("%w: summarizer_model is required", ErrInvalidConfig)
	}

	if c.SummarizerMaxTokens <= 0 {
		return fmt.Errorf("%w: summarizer_max_tokens must be positive, got %d", ErrInvalidConfig, c.SummarizerMaxTokens)
	}

	return nil
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
	if c.Trigger == 0 {
		c.Trigger = DefaultTrigger
	}
	if c.PreserveLastN == 0 {
		c.PreserveLastN = DefaultPreserveLastN
	}
	if c.ProtectedTokens == 0 {
		c.ProtectedTokens = DefaultProtectedTokens
	}
	if c.PruneMinimumTokens == 0 {
		c.PruneMinimumTokens = DefaultPruneMinimumTokens
	}
	if c.SummarizerModel == "" {
		c.SummarizerModel = DefaultSummarizerModel
	}
	if c.SummarizerMaxTokens == 0 {
		c.SummarizerMaxTokens = DefaultSummarizerMaxTokens
	}
	// UseTokenCountingAPI defaults to true via DefaultConfig; a zero value
	// here is a deliberate opt-out.
}

// TriggerThreshold returns the absolute token count that triggers compaction
// for the given context window.
func (c *Config) TriggerThreshold(contextWindow int) int {
	return int(float64(contextWindow) * c.Trigger)
}
