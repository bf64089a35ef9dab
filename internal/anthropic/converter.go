// Package anthropic converts transcript messages into the wire shapes the
// Anthropic SDK expects.
package anthropic

import (
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/sdancy10/openclaw/types"
)

// ConvertMessages converts transcript messages to Anthropic message
// parameters. System messages are skipped (the API carries the system
// prompt out of band), and tool-result messages become user turns
// carrying a tool_result block, matching the API's pairing rules.
func ConvertMessages(messages []*types.Message) []anthropic.MessageParam {
	params := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			continue
		}

		contentBlocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			contentBlocks = append(contentBlocks, convertContentBlock(block))
		}

		role := anthropic.MessageParamRole(msg.Role)
		if msg.Role == types.RoleToolResult {
			role = anthropic.MessageParamRoleUser
			if len(contentBlocks) == 0 {
				contentBlocks = append(contentBlocks,
					anthropic.NewToolResultBlock(msg.ToolCallID, "", msg.IsError))
			}
		}

		params = append(params, anthropic.MessageParam{
			Role:    role,
			Content: contentBlocks,
		})
	}

	return params
}

func convertContentBlock(block types.ContentBlock) anthropic.ContentBlockParamUnion {
	switch block.Type {
	case types.ContentTypeText:
		return anthropic.NewTextBlock(block.Text)

	case types.ContentTypeToolUse:
		var input any
		if len(block.ToolInputRaw) > 0 {
			_ = json.Unmarshal(block.ToolInputRaw, &input)
		} else if block.ToolInput != nil {
			input = block.ToolInput
		}
		// The API requires a dictionary, not null.
		if input == nil {
			input = map[string]any{}
		}
		return anthropic.NewToolUseBlock(block.ToolUseID, input, block.ToolName)

	case types.ContentTypeToolResult:
		return anthropic.NewToolResultBlock(block.ToolResultID, block.ToolContent, block.IsError)

	case types.ContentTypeImage:
		if block.ImageSource != nil {
			if block.ImageSource.Type == "base64" {
				return anthropic.NewImageBlockBase64(
					block.ImageSource.MediaType,
					block.ImageSource.Data,
				)
			} else if block.ImageSource.Type == "url" {
				return anthropic.NewImageBlock(anthropic.URLImageSourceParam{
					URL: block.ImageSource.URL,
				})
			}
		}

	case types.ContentTypeDocument:
		if block.DocumentSource != nil {
			return anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
				MediaType: "application/pdf",
				Data:      block.DocumentSource.Data,
			})
		}
	}

	// Fallback to empty text block
	return anthropic.NewTextBlock("")
}

// BuildSystemPrompt creates system prompt blocks.
func BuildSystemPrompt(systemPrompt string) []anthropic.TextBlockParam {
	return []anthropic.TextBlockParam{
		{
			Type: "text",
			Text: systemPrompt,
		},
	}
}

// IsRetryableError checks if an API error should be retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	// Retry on rate limits and server errors
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}
