package compaction

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sdancy10/openclaw/types"
)

func TestCollectToolFailuresBasic(t *testing.T) {
	messages := []*types.Message{
		textMessage("m1", types.RoleUser, 20),
		toolResultOutput("toolu_ok", "read", "file contents"),
		failedToolResult("toolu_01", "bash", `{"status":"error","exit_code":1}`),
	}

	records, omitted := CollectToolFailures(messages)
	if omitted != 0 {
		t.Errorf("expected 0 omitted, got %d", omitted)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record.ToolCallID != "toolu_01" {
		t.Errorf("expected tool call id toolu_01, got %s", record.ToolCallID)
	}
	if record.ToolName != "bash" {
		t.Errorf("expected tool name bash, got %s", record.ToolName)
	}
	if len(record.Detail) != 2 {
		t.Fatalf("expected 2 detail fields, got %d: %v", len(record.Detail), record.Detail)
	}
	if record.Detail[0].Key != "status" || record.Detail[0].Value != "error" {
		t.Errorf("unexpected first detail field: %+v", record.Detail[0])
	}
	if record.Detail[1].Key != "exitCode" || record.Detail[1].Value != "1" {
		t.Errorf("exit_code should normalize to exitCode, got %+v", record.Detail[1])
	}
}

func TestCollectToolFailuresDeduplicatesByCallID(t *testing.T) {
	messages := []*types.Message{
		failedToolResult("toolu_01", "bash", "first failure"),
		failedToolResult("toolu_01", "bash", "retry failure"),
		failedToolResult("toolu_02", "edit", "other failure"),
	}

	records, omitted := CollectToolFailures(messages)
	if omitted != 0 {
		t.Errorf("expected 0 omitted, got %d", omitted)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Excerpt != "first failure" {
		t.Errorf("dedupe should keep the first occurrence, got %q", records[0].Excerpt)
	}
}

func TestCollectToolFailuresCapWithOmittedCount(t *testing.T) {
	var messages []*types.Message
	for i := 0; i < MaxToolFailures+1; i++ {
		messages = append(messages, failedToolResult(
			fmt.Sprintf("toolu_%02d", i), "bash", fmt.Sprintf("failure %d", i)))
	}

	records, omitted := CollectToolFailures(messages)
	if len(records) != MaxToolFailures {
		t.Errorf("expected %d records, got %d", MaxToolFailures, len(records))
	}
	if omitted != 1 {
		t.Errorf("expected 1 omitted, got %d", omitted)
	}

	section := FormatToolFailuresSection(records, omitted)
	if !strings.Contains(section, "...and 1 more") {
		t.Errorf("section should note the omitted failure:\n%s", section)
	}
}

func TestCollectToolFailuresNonJSONPayload(t *testing.T) {
	messages := []*types.Message{
		failedToolResult("toolu_01", "bash", "command not found: frobnicate"),
	}

	records, _ := CollectToolFailures(messages)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0].Detail) != 0 {
		t.Errorf("non-JSON payload should yield no detail, got %v", records[0].Detail)
	}
	if records[0].Excerpt != "command not found: frobnicate" {
		t.Errorf("unexpected excerpt: %q", records[0].Excerpt)
	}
}

func TestCollectToolFailuresSkipsMissingCallID(t *testing.T) {
	msg := failedToolResult("", "bash", "orphaned failure")
	records, omitted := CollectToolFailures([]*types.Message{msg})
	if len(records) != 0 || omitted != 0 {
		t.Errorf("failures without a call id should be skipped, got %d records", len(records))
	}
}

func TestFormatToolFailuresSection(t *testing.T) {
	records := []ToolFailureRecord{
		{
			ToolCallID: "toolu_01",
			ToolName:   "bash",
			Detail:     []DetailField{{Key: "exitCode", Value: "127"}},
			Excerpt:    "command not found",
		},
		{
			ToolCallID: "toolu_02",
			ToolName:   "edit",
			Excerpt:    "file does not exist",
		},
	}

	section := FormatToolFailuresSection(records, 0)
	if !strings.HasPrefix(section, "## Tool Failures\n") {
		t.Errorf("section should start with the heading:\n%s", section)
	}
	if !strings.Contains(section, "- `bash` (exitCode=127): command not found") {
		t.Errorf("missing structured line:\n%s", section)
	}
	if !strings.Contains(section, "- `edit` failed: file does not exist") {
		t.Errorf("missing fallback line:\n%s", section)
	}
	if strings.Contains(section, "more") {
		t.Errorf("no overflow note expected:\n%s", section)
	}
}

func TestFormatToolFailuresSectionEmpty(t *testing.T) {
	if got := FormatToolFailuresSection(nil, 0); got != "" {
		t.Errorf("empty records should render nothing, got %q", got)
	}
}

func TestExcerptFlattensAndTruncates(t *testing.T) {
	multi := "line one\nline two\t\tindented"
	if got := excerpt(multi); got != "line one line two indented" {
		t.Errorf("excerpt should flatten whitespace, got %q", got)
	}

	long := strings.Repeat("x", excerptLength+50)
	got := excerpt(long)
	if len(got) != excerptLength+3 {
		t.Errorf("expected truncation to %d+3 chars, got %d", excerptLength, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated excerpt should end with ellipsis, got %q", got)
	}
}

func TestExcerptTruncatesOnRuneBoundary(t *testing.T) {
	// The leading ASCII byte shifts every three-byte rune off the byte
	// cap, so a byte-index cut would split one in half.
	long := "x" + strings.Repeat("日", excerptLength)
	got := excerpt(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated excerpt is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated excerpt should end with ellipsis, got %q", got)
	}
	if len(got) > excerptLength+3 {
		t.Errorf("excerpt exceeds cap: %d bytes", len(got))
	}
	for _, r := range strings.TrimSuffix(strings.TrimPrefix(got, "x"), "...") {
		if r != '日' {
			t.Fatalf("unexpected rune %q in excerpt", r)
		}
	}
}
