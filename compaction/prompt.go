package compaction

import (
	"fmt"
	"strings"
)

// SummarizationSystemPrompt instructs the summarizer model to produce a
// structured summary that can replace the compacted messages without
// losing load-bearing context.
const SummarizationSystemPrompt = `You are a conversation summarizer for an AI agent system. You will receive a transcript of an agent conversation. Create a summary that will replace the original messages while preserving all context the agent needs to continue.

Structure the summary with the following sections. Write "None" for sections with no relevant content.

1. **Primary Request and Intent**
   - The user's main goal, constraints, and requirements

2. **Key Technical Concepts**
   - APIs, frameworks, design decisions, and domain knowledge established

3. **Files and Artifacts**
   - Files created, modified, or discussed, with paths and purposes

4. **Errors and Fixes**
   - Problems encountered and how they were resolved or worked around

5. **Pending Tasks**
   - Work mentioned but not yet done

6. **Current Work and Next Step**
   - What was in progress and the immediate next action when resuming

Guidelines:
- Be specific: keep exact names, paths, identifiers, and values.
- Preserve decisions and their reasons, not the back-and-forth.
- Never invent content that is not in the transcript.`

// MessageForSummary is a simplified message representation for the
// summarization prompt.
type MessageForSummary struct {
	Role    string
	Content string
}

// FormatMessagesAsText renders messages as a plain-text transcript.
func FormatMessagesAsText(messages []MessageForSummary) string {
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(strings.ToUpper(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

// BuildSummarizationUserPrompt builds the user prompt for a first
// summarization pass.
func BuildSummarizationUserPrompt(conversationText string) string {
	return fmt.Sprintf("Summarize the following conversation:\n\n<conversation>\n%s</conversation>", conversationText)
}

// BuildSummarizationUserPromptWithContext builds the user prompt when
// previous summaries exist; they are supplied as context, not re-summarized.
func BuildSummarizationUserPromptWithContext(contextText, conversationText string) string {
	return fmt.Sprintf(`The following earlier summary is context only; do not restate it:

<previous_summary>
%s</previous_summary>

Summarize the following conversation:

<conversation>
%s</conversation>`, contextText, conversationText)
}
