package repair

import (
	"strings"
	"testing"

	"github.com/sdancy10/openclaw/types"
)

func interruptedAssistant(reason types.StopReason, calls ...[2]string) *types.Message {
	msg := assistantWithCalls(calls...)
	msg.StopReason = reason
	return msg
}

func TestStripInterrupted(t *testing.T) {
	tests := []struct {
		name         string
		messages     []*types.Message
		wantLen      int
		wantContains []string
		wantAbsent   []string
	}{
		{
			name: "aborted turn without tool calls",
			messages: []*types.Message{
				userMsg("hi"),
				interruptedAssistant(types.StopReasonAborted),
			},
			wantLen:      2,
			wantContains: []string{"interrupted", "No tool calls were finalized"},
		},
		{
			name: "aborted turn with one tool call names the tool",
			messages: []*types.Message{
				interruptedAssistant(types.StopReasonAborted, [2]string{"call_1", "read"}),
				toolResult("call_1", "read", true),
			},
			wantLen:      1,
			wantContains: []string{"interrupted", "`read`"},
			wantAbsent:   []string{"calls"},
		},
		{
			name: "aborted turn with two tool calls uses plural phrasing",
			messages: []*types.Message{
				userMsg("do both"),
				interruptedAssistant(types.StopReasonAborted,
					[2]string{"call_1", "read"}, [2]string{"call_2", "write"}),
				toolResult("call_1", "read", true),
				toolResult("call_2", "write", true),
			},
			wantLen:      2,
			wantContains: []string{"interrupted", "`read`", "`write`", "calls"},
		},
		{
			name: "errored turn mentions streaming error",
			messages: []*types.Message{
				interruptedAssistant(types.StopReasonError, [2]string{"call_1", "bash"}),
				toolResult("call_1", "bash", true),
			},
			wantLen:      1,
			wantContains: []string{"streaming error", "`bash`"},
		},
		{
			name: "unrelated results survive",
			messages: []*types.Message{
				assistantWithCalls([2]string{"call_0", "grep"}),
				toolResult("call_0", "grep", false),
				interruptedAssistant(types.StopReasonAborted, [2]string{"call_1", "read"}),
				toolResult("call_1", "read", true),
			},
			wantLen:      3,
			wantContains: []string{"interrupted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := StripInterrupted(tt.messages)
			if len(out) != tt.wantLen {
				t.Fatalf("got %d messages, want %d", len(out), tt.wantLen)
			}

			var synthetic string
			for _, msg := range out {
				if msg.Role == types.RoleAssistant && len(msg.Content) == 1 &&
					msg.Content[0].Type == types.ContentTypeText {
					synthetic = msg.Content[0].Text
				}
				if msg.StopReason.Interrupted() {
					t.Errorf("message still carries stop reason %q", msg.StopReason)
				}
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(synthetic, want) {
					t.Errorf("synthetic text %q does not contain %q", synthetic, want)
				}
			}
			for _, absent := range tt.wantAbsent {
				if strings.Contains(synthetic, absent) {
					t.Errorf("synthetic text %q must not contain %q", synthetic, absent)
				}
			}
		})
	}
}

func TestStripInterruptedRemovesPlaceholderResults(t *testing.T) {
	messages := []*types.Message{
		userMsg("run both"),
		interruptedAssistant(types.StopReasonAborted,
			[2]string{"call_1", "read"}, [2]string{"call_2", "write"}),
		toolResult("call_1", "read", true),
		toolResult("call_2", "write", true),
	}

	out := StripInterrupted(messages)
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
	for _, msg := range out {
		if msg.Role == types.RoleToolResult {
			t.Errorf("placeholder result %q was not removed", msg.ToolCallID)
		}
	}

	text := out[1].Content[0].Text
	for _, want := range []string{"`read`", "`write`", "calls"} {
		if !strings.Contains(text, want) {
			t.Errorf("synthetic text %q does not contain %q", text, want)
		}
	}
}

func TestStripInterruptedNoOpReturnsSameSlice(t *testing.T) {
	messages := []*types.Message{
		userMsg("hi"),
		assistantText("hello"),
		assistantWithCalls([2]string{"call_1", "read"}),
		toolResult("call_1", "read", false),
	}

	out := StripInterrupted(messages)
	if len(out) != len(messages) || &out[0] != &messages[0] {
		t.Error("no-op strip must return the input slice itself")
	}
}

func TestStripInterruptedIdempotent(t *testing.T) {
	messages := []*types.Message{
		interruptedAssistant(types.StopReasonError, [2]string{"call_1", "read"}),
		toolResult("call_1", "read", true),
	}

	first := StripInterrupted(messages)
	second := StripInterrupted(first)
	if &second[0] != &first[0] || len(second) != len(first) {
		t.Error("second pass must return its input slice unchanged")
	}
}

func TestStripInterruptedDoesNotMutateInput(t *testing.T) {
	interrupted := interruptedAssistant(types.StopReasonAborted, [2]string{"call_1", "read"})
	messages := []*types.Message{interrupted}

	StripInterrupted(messages)

	if interrupted.StopReason != types.StopReasonAborted {
		t.Error("input message stop reason was mutated")
	}
	if len(interrupted.Content) != 1 || interrupted.Content[0].Type != types.ContentTypeToolUse {
		t.Error("input message content was mutated")
	}
}
