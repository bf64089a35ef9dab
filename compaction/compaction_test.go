package compaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdancy10/openclaw/types"
)

// Test helpers shared across the package tests.

func textMessage(id string, role types.Role, chars int) *types.Message {
	return &types.Message{
		ID:        id,
		SessionID: "session-1",
		Role:      role,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeText, Text: strings.Repeat("a", chars)},
		},
		CreatedAt: time.Now(),
	}
}

func transcriptOf(count, charsEach int) []*types.Message {
	messages := make([]*types.Message, count)
	for i := range messages {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		messages[i] = textMessage(fmt.Sprintf("msg-%d", i), role, charsEach)
	}
	return messages
}

func failedToolResult(callID, toolName, content string) *types.Message {
	return &types.Message{
		ID:         "result-" + callID,
		SessionID:  "session-1",
		Role:       types.RoleToolResult,
		ToolCallID: callID,
		ToolName:   toolName,
		IsError:    true,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeToolResult, ToolResultID: callID, ToolContent: content, IsError: true},
		},
	}
}

func toolResultOutput(callID, toolName, content string) *types.Message {
	msg := failedToolResult(callID, toolName, content)
	msg.IsError = false
	msg.Content[0].IsError = false
	return msg
}
