package compaction

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	anthropicconv "github.com/sdancy10/openclaw/internal/anthropic"
	"github.com/sdancy10/openclaw/types"
)

// TokenCounter provides token counting for messages using the Claude API
// with a character-based approximation fallback.
type TokenCounter struct {
	client   *anthropic.Client
	useAPI   bool
	model    string
	fallback bool // tracks if the API failed and we're using the fallback
}

// TokenCountResult contains the result of a token count operation.
type TokenCountResult struct {
	// TotalTokens is the total token count for all messages.
	TotalTokens int

	// UsedAPI indicates whether the Claude API was used (true) or the
	// character-based approximation fallback was used (false).
	UsedAPI bool

	// PerMessage contains the estimated token count per message.
	// Only populated when using the fallback approximation.
	PerMessage []int
}

// NewTokenCounter creates a new TokenCounter with the given Anthropic client.
// If useAPI is false, only character-based approximation will be used.
func NewTokenCounter(client *anthropic.Client, model string, useAPI bool) *TokenCounter {
	return &TokenCounter{
		client: client,
		model:  model,
		useAPI: useAPI,
	}
}

// CountTokens counts the tokens in the given messages. It first attempts
// the Claude API for accurate counting, falling back to character-based
// approximation if the API is unavailable or disabled.
func (tc *TokenCounter) CountTokens(ctx context.Context, messages []*types.Message) (*TokenCountResult, error) {
	if tc.useAPI && tc.client != nil && !tc.fallback {
		result, err := tc.countWithAPI(ctx, messages)
		if err == nil {
			return result, nil
		}
		// Rate limits and server errors are transient, so the API path
		// stays live for the next call. Anything else latches the
		// approximation fallback.
		if !anthropicconv.IsRetryableError(err) {
			tc.fallback = true
		}
	}

	return tc.countWithApproximation(messages), nil
}

// countWithAPI uses the Claude token counting API.
func (tc *TokenCounter) countWithAPI(ctx context.Context, messages []*types.Message) (*TokenCountResult, error) {
	if len(messages) == 0 {
		return &TokenCountResult{TotalTokens: 0, UsedAPI: true}, nil
	}

	params := anthropicconv.ConvertMessages(messages)
	if len(params) == 0 {
		return &TokenCountResult{TotalTokens: 0, UsedAPI: true}, nil
	}

	result, err := tc.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model:    anthropic.Model(tc.model),
		Messages: params,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenCountingFailed, err)
	}

	return &TokenCountResult{
		TotalTokens: int(result.InputTokens),
		UsedAPI:     true,
	}, nil
}

// countWithApproximation uses character-based estimation (~4 chars per token).
func (tc *TokenCounter) countWithApproximation(messages []*types.Message) *TokenCountResult {
	perMessage := make([]int, len(messages))
	total := 0

	for i, msg := range messages {
		tokens := EstimateMessageTokens(msg)
		perMessage[i] = tokens
		total += tokens
	}

	return &TokenCountResult{
		TotalTokens: total,
		UsedAPI:     false,
		PerMessage:  perMessage,
	}
}
