package compaction

import (
	"github.com/sdancy10/openclaw/types"
)

// Partitioner splits a transcript into the messages a compaction pass may
// summarize and the messages it must leave alone.
type Partitioner struct {
	config *Config
}

// NewPartitioner creates a new message partitioner.
func NewPartitioner(config *Config) *Partitioner {
	return &Partitioner{config: config}
}

// Partition splits messages into preserved and to-summarize sets.
// Preserved messages are, in order of protection: the last PreserveLastN
// messages, everything inside the protectedTokens zone at the tail, prior
// compaction summaries, and messages individually marked preserved. The
// split never lands between a tool invocation and its result.
//
// protectedTokens is the effective protected-zone size: normally
// Config.ProtectedTokens, unless the caller resolved a runtime override.
func (p *Partitioner) Partition(messages []*types.Message, protectedTokens int) (preserved, toSummarize []*types.Message) {
	if len(messages) <= p.config.PreserveLastN {
		return messages, nil
	}

	protectedIdx := p.findProtectedIndex(messages, protectedTokens)

	// Take the more conservative split.
	splitIdx := min(len(messages)-p.config.PreserveLastN, protectedIdx)
	if splitIdx < 0 {
		splitIdx = 0
	}

	splitIdx = p.adjustForToolPairs(messages, splitIdx)

	for i, msg := range messages {
		if i >= splitIdx || msg.IsPreserved || msg.IsSummary {
			preserved = append(preserved, msg)
		} else {
			toSummarize = append(toSummarize, msg)
		}
	}

	return preserved, toSummarize
}

// findProtectedIndex finds the index where the protected token zone starts,
// walking from the newest message backwards.
func (p *Partitioner) findProtectedIndex(messages []*types.Message, protectedTokens int) int {
	tokensSeen := 0
	for i := len(messages) - 1; i >= 0; i-- {
		tokensSeen += messageTokens(messages[i])
		if tokensSeen > protectedTokens {
			return i + 1
		}
	}
	return 0
}

// adjustForToolPairs moves the split point back so a tool invocation and
// its result stay on the same side.
func (p *Partitioner) adjustForToolPairs(messages []*types.Message, idx int) int {
	for idx > 0 && idx < len(messages) {
		// A tool-result message at the boundary belongs with the invocation
		// before it.
		if messages[idx].Role == types.RoleToolResult {
			idx--
			continue
		}

		// A trailing tool invocation in the summarized half would lose its
		// result to the preserved half.
		prev := messages[idx-1]
		if prev.Role == types.RoleAssistant && len(prev.ToolCalls()) > 0 {
			idx--
			continue
		}

		break
	}
	return idx
}
