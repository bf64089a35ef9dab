package compaction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/sdancy10/openclaw/types"
)

// excerptLength bounds the text carried per failure into the digest.
const excerptLength = 120

// DetailField is one structured key=value pair extracted from a failed
// tool result's payload.
type DetailField struct {
	Key   string
	Value string
}

// ToolFailureRecord captures one failed tool call for the compaction
// digest. Records are transient: created per compaction decision and
// discarded once the digest is rendered.
type ToolFailureRecord struct {
	ToolCallID string
	ToolName   string

	// Detail holds structured fields decoded from the result payload
	// (e.g. status, exit code). Empty when the payload is not decodable;
	// the renderer then falls back to a bare "failed" label.
	Detail []DetailField

	// Excerpt is a short single-line sample of the failure output.
	Excerpt string
}

// detailKeys are the structured payload fields worth surfacing in the
// digest, in render order.
var detailKeys = []string{"status", "exitCode", "exit_code", "signal", "error"}

// CollectToolFailures scans a transcript for tool results flagged as
// errors, deduplicated by tool-call id keeping the first occurrence, in
// transcript order. At most MaxToolFailures records are returned; the
// second return value counts the failures that did not fit.
func CollectToolFailures(messages []*types.Message) ([]ToolFailureRecord, int) {
	var records []ToolFailureRecord
	seen := make(map[string]struct{})
	omitted := 0

	for _, msg := range messages {
		if msg.Role != types.RoleToolResult || !msg.IsError {
			continue
		}
		id := msg.ToolCallID
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if len(records) >= MaxToolFailures {
			omitted++
			continue
		}
		records = append(records, newFailureRecord(msg))
	}

	return records, omitted
}

// newFailureRecord builds a record from a failed tool result, degrading to
// a bare record when the payload has no decodable structure.
func newFailureRecord(msg *types.Message) ToolFailureRecord {
	record := ToolFailureRecord{
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
	}

	content := resultContent(msg)
	record.Detail = extractDetail(content)
	record.Excerpt = excerpt(content)
	return record
}

// resultContent returns the textual payload of a tool result message.
func resultContent(msg *types.Message) string {
	for _, block := range msg.Content {
		if block.Type == types.ContentTypeToolResult && block.ToolContent != "" {
			return block.ToolContent
		}
	}
	return msg.TextContent()
}

// extractDetail pulls well-known structured fields out of a JSON payload.
// Non-JSON or partially decodable payloads yield no fields rather than an
// error.
func extractDetail(content string) []DetailField {
	if !gjson.Valid(content) {
		return nil
	}
	parsed := gjson.Parse(content)
	if !parsed.IsObject() {
		return nil
	}

	var fields []DetailField
	for _, key := range detailKeys {
		value := parsed.Get(key)
		if !value.Exists() || value.IsObject() || value.IsArray() {
			continue
		}
		fields = append(fields, DetailField{Key: normalizeKey(key), Value: value.String()})
	}
	return fields
}

// normalizeKey maps snake_case payload keys onto the digest's camelCase.
func normalizeKey(key string) string {
	if key == "exit_code" {
		return "exitCode"
	}
	return key
}

// excerpt flattens content to a single line capped at excerptLength bytes,
// backing the cut up to a rune boundary so multi-byte text stays valid.
func excerpt(content string) string {
	line := strings.Join(strings.Fields(content), " ")
	if len(line) <= excerptLength {
		return line
	}
	cut := excerptLength
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}

// FormatToolFailuresSection renders the digest preserved in a compacted
// summary. Output is deterministic: one line per record in input order,
// with an overflow note when failures were truncated. Zero records render
// nothing at all.
func FormatToolFailuresSection(records []ToolFailureRecord, omitted int) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Tool Failures\n")
	for _, record := range records {
		b.WriteString("- `")
		b.WriteString(record.ToolName)
		b.WriteString("` ")
		if len(record.Detail) > 0 {
			pairs := make([]string, len(record.Detail))
			for i, field := range record.Detail {
				pairs[i] = field.Key + "=" + field.Value
			}
			b.WriteString("(" + strings.Join(pairs, " ") + ")")
		} else {
			b.WriteString("failed")
		}
		if record.Excerpt != "" {
			b.WriteString(": ")
			b.WriteString(record.Excerpt)
		}
		b.WriteString("\n")
	}

	if omitted > 0 {
		b.WriteString(fmt.Sprintf("...and %d more\n", omitted))
	}
	return b.String()
}
