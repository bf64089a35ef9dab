package compaction

import (
	"github.com/sdancy10/openclaw/types"
)

// smallMessageFraction is the average-size-to-window fraction under which
// history can be batched at the base ratio.
const smallMessageFraction = 0.1

// AdaptiveChunkRatio computes the fraction of history one summarization
// pass may fold into a single chunk, from the estimated average message
// size relative to the context window.
//
// Small messages batch aggressively at BaseChunkRatio; as the average grows
// past 10% of the window the ratio shrinks monotonically toward
// MinChunkRatio, bounding the input size of a single summarization call.
// An empty transcript returns BaseChunkRatio.
func AdaptiveChunkRatio(messages []*types.Message, contextWindow int) float64 {
	if len(messages) == 0 || contextWindow <= 0 {
		return BaseChunkRatio
	}

	average := float64(SumEstimatedTokens(messages)) / float64(len(messages))
	fraction := average / float64(contextWindow)
	if fraction <= smallMessageFraction {
		return BaseChunkRatio
	}

	ratio := BaseChunkRatio * smallMessageFraction / fraction
	if ratio < MinChunkRatio {
		return MinChunkRatio
	}
	return ratio
}

// IsOversizedForSummary reports whether a message is too large to batch
// into a summarization pass. Oversized messages must be handled
// individually (truncated or summarized alone): batching them risks
// overflowing the model call that produces the summary.
func IsOversizedForSummary(msg *types.Message, contextWindow int) bool {
	if msg == nil || contextWindow <= 0 {
		return false
	}
	estimate := float64(EstimateMessageTokens(msg))
	return estimate*SafetyMargin > float64(contextWindow)*0.5
}

// OversizedMessages returns the ids of messages flagged by
// IsOversizedForSummary, in transcript order.
func OversizedMessages(messages []*types.Message, contextWindow int) []string {
	var ids []string
	for _, msg := range messages {
		if IsOversizedForSummary(msg, contextWindow) {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}
