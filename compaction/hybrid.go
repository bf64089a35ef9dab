package compaction

import (
	"github.com/sdancy10/openclaw/types"
)

// prunedPlaceholder replaces tool output that was dropped by a hybrid
// prune pass.
const prunedPlaceholder = "[tool output pruned]"

// pruneToolOutputs replaces verbose tool outputs outside the protected
// zone with a placeholder. Pruning is free (no model call), so the hybrid
// strategy tries it before paying for summarization. The input is never
// mutated; the returned slice shares unpruned messages with it.
//
// Returns the (possibly partially copied) messages and the estimated
// number of tokens removed. When prunable output totals less than
// PruneMinimumTokens nothing is pruned and the input slice is returned.
// protectedTokens is the effective protected-zone size (see Partition).
func pruneToolOutputs(messages []*types.Message, config *Config, protectedTokens int) ([]*types.Message, int) {
	protectedIdx := NewPartitioner(config).findProtectedIndex(messages, protectedTokens)

	prunable := 0
	for i := 0; i < protectedIdx; i++ {
		msg := messages[i]
		if msg.Role != types.RoleToolResult {
			continue
		}
		for _, block := range msg.Content {
			if block.Type == types.ContentTypeToolResult && block.ToolContent != "" &&
				block.ToolContent != prunedPlaceholder {
				prunable += EstimateTokens(block.ToolContent)
			}
		}
	}

	if prunable < config.PruneMinimumTokens {
		return messages, 0
	}

	result := make([]*types.Message, len(messages))
	copy(result, messages)
	removed := 0

	for i := 0; i < protectedIdx; i++ {
		msg := result[i]
		if msg.Role != types.RoleToolResult {
			continue
		}

		pruned := copyMessage(msg)
		changed := false
		for j := range pruned.Content {
			block := &pruned.Content[j]
			if block.Type != types.ContentTypeToolResult || block.ToolContent == "" ||
				block.ToolContent == prunedPlaceholder {
				continue
			}
			removed += EstimateTokens(block.ToolContent) - EstimateTokens(prunedPlaceholder)
			block.ToolContent = prunedPlaceholder
			changed = true
		}
		if changed {
			result[i] = pruned
		}
	}

	return result, removed
}

// copyMessage creates a deep copy of a message's mutable parts.
func copyMessage(msg *types.Message) *types.Message {
	msgCopy := *msg

	msgCopy.Content = make([]types.ContentBlock, len(msg.Content))
	copy(msgCopy.Content, msg.Content)

	if msg.Metadata != nil {
		msgCopy.Metadata = make(map[string]any, len(msg.Metadata))
		for k, v := range msg.Metadata {
			msgCopy.Metadata[k] = v
		}
	}

	return &msgCopy
}
