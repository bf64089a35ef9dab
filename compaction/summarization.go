package compaction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	anthropicconv "github.com/sdancy10/openclaw/internal/anthropic"
	"github.com/sdancy10/openclaw/types"
)

// Summarizer creates conversation summaries using Claude's streaming API.
// Summarization is an external capability that may fail; failures wrap
// ErrSummarizationFailed and leave the transcript untouched.
type Summarizer struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewSummarizer creates a new Summarizer with the given Anthropic client and configuration.
func NewSummarizer(client *anthropic.Client, model string, maxTokens int) *Summarizer {
	return &Summarizer{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}
}

// Summarize generates a summary of the given messages.
func (s *Summarizer) Summarize(ctx context.Context, messages []*types.Message) (string, error) {
	return s.SummarizeWithContext(ctx, nil, messages)
}

// SummarizeWithContext generates a summary with additional context from
// previous summaries.
func (s *Summarizer) SummarizeWithContext(ctx context.Context, contextMsgs, toSummarize []*types.Message) (string, error) {
	if len(toSummarize) == 0 {
		return "", ErrNoMessagesToCompact
	}

	conversationText := s.formatMessagesForSummary(toSummarize)

	var userPrompt string
	if len(contextMsgs) > 0 {
		contextText := s.formatMessagesForSummary(contextMsgs)
		userPrompt = BuildSummarizationUserPromptWithContext(contextText, conversationText)
	} else {
		userPrompt = BuildSummarizationUserPrompt(conversationText)
	}

	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: int64(s.maxTokens),
		System:    anthropicconv.BuildSystemPrompt(SummarizationSystemPrompt),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return "", fmt.Errorf("%w: failed to accumulate stream: %v", ErrSummarizationFailed, err)
		}
	}

	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}

	if summary.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from summarizer", ErrSummarizationFailed)
	}

	return summary.String(), nil
}

// formatMessagesForSummary converts messages to a text transcript suitable
// for the summarization prompt.
func (s *Summarizer) formatMessagesForSummary(messages []*types.Message) string {
	summaryMsgs := make([]MessageForSummary, 0, len(messages))

	for _, msg := range messages {
		content := s.extractMessageContent(msg)
		if content != "" {
			summaryMsgs = append(summaryMsgs, MessageForSummary{
				Role:    string(msg.Role),
				Content: content,
			})
		}
	}

	return FormatMessagesAsText(summaryMsgs)
}

// extractMessageContent extracts readable text content from a message.
func (s *Summarizer) extractMessageContent(msg *types.Message) string {
	var parts []string

	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			if block.Text != "" {
				parts = append(parts, block.Text)
			}
		case types.ContentTypeToolUse:
			input := string(block.ToolInputRaw)
			if input == "" && block.ToolInput != nil {
				raw, _ := json.Marshal(block.ToolInput)
				input = string(raw)
			}
			parts = append(parts, fmt.Sprintf("[Tool call: %s(%s)]", block.ToolName, input))
		case types.ContentTypeToolResult:
			label := "Tool result"
			if block.IsError {
				label = "Tool error"
			}
			parts = append(parts, fmt.Sprintf("[%s: %s]", label, block.ToolContent))
		}
	}

	return strings.Join(parts, "\n")
}
