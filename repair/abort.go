package repair

import (
	"fmt"
	"strings"

	"github.com/sdancy10/openclaw/types"
)

// StripInterrupted rewrites assistant turns that were aborted or errored
// mid-stream into a single synthetic text turn, and removes the placeholder
// tool results the runtime inserted for calls that never truly executed.
//
// Providers reject tool-invocation blocks with no corresponding result and
// reject resuming a turn whose tool call never ran; collapsing the turn to
// one text block keeps the transcript valid while leaving the model enough
// context to retry.
func StripInterrupted(messages []*types.Message) []*types.Message {
	// Ids of tool invocations inside interrupted turns. Their results
	// elsewhere in the sequence are synthetic and must not be replayed.
	severed := make(map[string]struct{})
	interrupted := false

	for _, msg := range messages {
		if msg.Role != types.RoleAssistant || !msg.StopReason.Interrupted() {
			continue
		}
		interrupted = true
		for _, block := range msg.Content {
			if block.Type == types.ContentTypeToolUse && block.ToolUseID != "" {
				severed[block.ToolUseID] = struct{}{}
			}
		}
	}

	if !interrupted {
		return messages
	}

	out := make([]*types.Message, 0, len(messages))
	for _, msg := range messages {
		switch {
		case msg.Role == types.RoleAssistant && msg.StopReason.Interrupted():
			out = append(out, rewriteInterrupted(msg))
		case msg.Role == types.RoleToolResult:
			if _, ok := severed[toolCallID(msg)]; ok {
				continue
			}
			out = append(out, msg)
		default:
			out = append(out, msg)
		}
	}
	return out
}

// rewriteInterrupted returns a copy of an interrupted assistant turn with
// its content replaced by one explanatory text block and its stop reason
// cleared, so a second pass treats the turn as ordinary.
func rewriteInterrupted(msg *types.Message) *types.Message {
	var names []string
	for _, block := range msg.Content {
		if block.Type == types.ContentTypeToolUse {
			names = append(names, block.ToolName)
		}
	}

	rewritten := *msg
	rewritten.StopReason = ""
	rewritten.Content = []types.ContentBlock{
		{Type: types.ContentTypeText, Text: interruptionNotice(msg.StopReason, names)},
	}
	return &rewritten
}

// interruptionNotice builds the synthetic turn text. Wording varies by
// cause and by how many tool calls were in flight.
func interruptionNotice(reason types.StopReason, toolNames []string) string {
	cause := "This response was interrupted before completion."
	if reason == types.StopReasonError {
		cause = "This response ended with a streaming error."
	}

	switch len(toolNames) {
	case 0:
		return cause + " No tool calls were finalized."
	case 1:
		return fmt.Sprintf("%s The %s tool call was never executed.", cause, backtick(toolNames[0]))
	default:
		return fmt.Sprintf("%s The %s tool calls were never executed.", cause, joinBackticked(toolNames))
	}
}

func backtick(name string) string {
	return "`" + name + "`"
}

// joinBackticked renders two or more tool names as "`a`, `b` and `c`".
func joinBackticked(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = backtick(name)
	}
	if len(quoted) == 2 {
		return quoted[0] + " and " + quoted[1]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " and " + quoted[len(quoted)-1]
}
