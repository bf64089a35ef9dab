package compaction

import (
	"encoding/json"

	"github.com/sdancy10/openclaw/types"
)

// EstimateTokens estimates token count from character count using ceiling
// division by ~4 characters per token. Coarse and provider-agnostic: it
// drives ratio selection and oversize flagging, never billing.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := (len(text) + 3) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// EstimateMessageTokens estimates tokens for a single message from its
// content blocks, with per-block structural overheads.
func EstimateMessageTokens(msg *types.Message) int {
	// ~4 tokens of overhead for role and message structure.
	total := 4

	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			total += EstimateTokens(block.Text)
		case types.ContentTypeToolUse:
			total += EstimateTokens(block.ToolName) + 10
			if len(block.ToolInputRaw) > 0 {
				total += EstimateTokens(string(block.ToolInputRaw))
			} else if len(block.ToolInput) > 0 {
				raw, _ := json.Marshal(block.ToolInput)
				total += EstimateTokens(string(raw))
			}
		case types.ContentTypeToolResult:
			total += 10
			total += EstimateTokens(block.ToolContent)
		case types.ContentTypeImage, types.ContentTypeDocument:
			// Small images run ~85 tokens, large ones 1600+. Conservative.
			total += 200
		default:
			if block.Text != "" {
				total += EstimateTokens(block.Text)
			}
		}
	}

	return total
}

// SumEstimatedTokens estimates total tokens across messages.
func SumEstimatedTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += EstimateMessageTokens(msg)
	}
	return total
}

// SumUsageTokens calculates total tokens across messages from reported
// usage, falling back to estimation for messages without usage data.
func SumUsageTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		total += messageTokens(msg)
	}
	return total
}

// messageTokens prefers API-reported usage over estimation.
func messageTokens(msg *types.Message) int {
	if count := msg.TokenCount(); count > 0 {
		return count
	}
	return EstimateMessageTokens(msg)
}
