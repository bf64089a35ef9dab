package repair

import (
	"github.com/sdancy10/openclaw/types"
)

// PairingResult is the outcome of a ToolPairing pass.
type PairingResult struct {
	// Messages is the repaired sequence. When no message was dropped this is
	// the input slice itself, not a copy.
	Messages []*types.Message

	// DroppedOrphans counts tool results removed because no earlier unmatched
	// tool invocation carried their id.
	DroppedOrphans int

	// DroppedDuplicates counts tool results removed because an earlier result
	// already consumed their invocation id.
	DroppedDuplicates int
}

// Changed reports whether the pass dropped any message.
func (r PairingResult) Changed() bool {
	return r.DroppedOrphans > 0 || r.DroppedDuplicates > 0
}

// ToolPairing restores the invariant that every tool result in a transcript
// has a preceding, matching, not-yet-consumed tool invocation.
//
// It makes a single forward pass maintaining the set of pending invocation
// ids. A tool result is kept only when its id is pending at that point in
// the scan; keeping it consumes the id, so a second result for the same
// invocation is dropped as a duplicate. A result whose id was never pending
// is dropped as an orphan. All other messages are kept unconditionally and
// order is preserved.
func ToolPairing(messages []*types.Message) PairingResult {
	pending := make(map[string]struct{})
	consumed := make(map[string]struct{})

	// kept stays nil until the first drop; the common healthy transcript
	// returns the input slice untouched.
	var kept []*types.Message
	orphans, duplicates := 0, 0

	for i, msg := range messages {
		if msg.Role == types.RoleAssistant {
			for _, block := range msg.Content {
				if block.Type == types.ContentTypeToolUse && block.ToolUseID != "" {
					pending[block.ToolUseID] = struct{}{}
				}
			}
		}

		if msg.Role != types.RoleToolResult {
			if kept != nil {
				kept = append(kept, msg)
			}
			continue
		}

		id := toolCallID(msg)
		if _, ok := pending[id]; ok {
			delete(pending, id)
			consumed[id] = struct{}{}
			if kept != nil {
				kept = append(kept, msg)
			}
			continue
		}

		if _, ok := consumed[id]; ok {
			duplicates++
		} else {
			orphans++
		}
		if kept == nil {
			kept = make([]*types.Message, 0, len(messages)-1)
			kept = append(kept, messages[:i]...)
		}
	}

	if kept == nil {
		return PairingResult{Messages: messages}
	}
	return PairingResult{
		Messages:          kept,
		DroppedOrphans:    orphans,
		DroppedDuplicates: duplicates,
	}
}

// toolCallID returns the invocation id a tool result message references,
// falling back to its content block when the top-level field is unset.
func toolCallID(msg *types.Message) string {
	if msg.ToolCallID != "" {
		return msg.ToolCallID
	}
	for _, block := range msg.Content {
		if block.Type == types.ContentTypeToolResult && block.ToolResultID != "" {
			return block.ToolResultID
		}
	}
	return ""
}
