package openclaw

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sdancy10/openclaw/compaction"
	"github.com/sdancy10/openclaw/contextwindow"
	"github.com/sdancy10/openclaw/hooks"
	"github.com/sdancy10/openclaw/repair"
	"github.com/sdancy10/openclaw/tool"
)

func cleanTranscript(sessionID string) []*Message {
	assistant := NewAssistantMessage(sessionID, []ContentBlock{
		NewTextBlock("Running the build."),
		NewToolUseBlock("call-1", "bash", map[string]any{"command": "make"}),
	})
	return []*Message{
		NewUserMessage(sessionID, "Build the project."),
		assistant,
		NewToolResultMessage(sessionID, "call-1", "bash", "ok", false),
	}
}

func TestPreflighter_CleanTranscriptIsUntouched(t *testing.T) {
	p, err := NewPreflighter("anthropic", "claude-3-5-sonnet-20241022")
	if err != nil {
		t.Fatalf("NewPreflighter() error = %v", err)
	}

	messages := cleanTranscript("session-1")
	result, err := p.Run(context.Background(), "session-1", messages)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Messages) != len(messages) || &result.Messages[0] != &messages[0] {
		t.Error("expected the input slice back for a clean transcript")
	}
	if result.DroppedOrphans != 0 || result.DroppedDuplicates != 0 {
		t.Errorf("expected no drops, got orphans=%d duplicates=%d",
			result.DroppedOrphans, result.DroppedDuplicates)
	}
}

func TestPreflighter_DropsOrphanedToolResult(t *testing.T) {
	messages := []*Message{
		NewUserMessage("session-1", "hello"),
		NewToolResultMessage("session-1", "call-ghost", "bash", "stale", false),
	}

	var hooked repair.PairingResult
	registry := hooks.NewRegistry()
	registry.OnRepair(func(ctx context.Context, sessionID string, result repair.PairingResult) error {
		hooked = result
		return nil
	})

	p, err := NewPreflighter("anthropic", "claude-3-5-sonnet-20241022", WithHooks(registry))
	if err != nil {
		t.Fatalf("NewPreflighter() error = %v", err)
	}

	result, err := p.Run(context.Background(), "session-1", messages)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(result.Messages) != 1 {
		t.Fatalf("expected 1 message after repair, got %d", len(result.Messages))
	}
	if result.DroppedOrphans != 1 {
		t.Errorf("DroppedOrphans = %d, want 1", result.DroppedOrphans)
	}
	if hooked.DroppedOrphans != 1 {
		t.Errorf("repair hook saw DroppedOrphans = %d, want 1", hooked.DroppedOrphans)
	}
}

func TestPreflighter_WindowResolution(t *testing.T) {
	cfg := &contextwindow.Config{
		Models: contextwindow.ModelsConfig{
			Providers: map[string]contextwindow.ProviderConfig{
				"anthropic": {Models: []contextwindow.ModelConfig{
					{ID: "custom-model", ContextWindow: 150000},
				}},
			},
		},
	}

	tests := []struct {
		name       string
		modelID    string
		opts       []Option
		wantTokens int
		wantSource contextwindow.Source
	}{
		{
			name:       "provider catalog wins",
			modelID:    "custom-model",
			opts:       []Option{WithConfig(cfg), WithModelContextWindow(99000)},
			wantTokens: 150000,
			wantSource: contextwindow.SourceProfile,
		},
		{
			name:       "live model metadata",
			modelID:    "unlisted-model",
			opts:       []Option{WithModelContextWindow(99000)},
			wantTokens: 99000,
			wantSource: contextwindow.SourceModel,
		},
		{
			name:       "well-known table",
			modelID:    "claude-3-5-sonnet-20241022",
			wantTokens: 200000,
			wantSource: contextwindow.SourceTable,
		},
		{
			name:       "fallback default",
			modelID:    "unlisted-model",
			opts:       []Option{WithDefaultContextWindow(64000)},
			wantTokens: 64000,
			wantSource: contextwindow.SourceDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPreflighter("anthropic", tt.modelID, tt.opts...)
			if err != nil {
				t.Fatalf("NewPreflighter() error = %v", err)
			}

			result, err := p.Run(context.Background(), "session-1", cleanTranscript("session-1"))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if result.Window.Tokens != tt.wantTokens {
				t.Errorf("Window.Tokens = %d, want %d", result.Window.Tokens, tt.wantTokens)
			}
			if result.Window.Source != tt.wantSource {
				t.Errorf("Window.Source = %q, want %q", result.Window.Source, tt.wantSource)
			}
		})
	}
}

func TestPreflighter_GuardVerdictFiresHook(t *testing.T) {
	var hooked *contextwindow.Verdict
	registry := hooks.NewRegistry()
	registry.OnGuard(func(ctx context.Context, sessionID string, verdict contextwindow.Verdict) error {
		hooked = &verdict
		return nil
	})

	p, err := NewPreflighter("anthropic", "unlisted-model",
		WithDefaultContextWindow(8000),
		WithHooks(registry),
	)
	if err != nil {
		t.Fatalf("NewPreflighter() error = %v", err)
	}

	result, err := p.Run(context.Background(), "session-1", cleanTranscript("session-1"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !result.Guard.ShouldBlock || !result.Guard.ShouldWarn {
		t.Errorf("Guard = %+v, want block and warn for an 8000-token window", result.Guard)
	}
	if hooked == nil {
		t.Fatal("guard hook did not fire")
	}
	if hooked.Tokens != 8000 {
		t.Errorf("guard hook saw Tokens = %d, want 8000", hooked.Tokens)
	}
}

func TestPreflighter_HookErrorAbortsRun(t *testing.T) {
	hookErr := errors.New("hook exploded")
	registry := hooks.NewRegistry()
	registry.OnGuard(func(ctx context.Context, sessionID string, verdict contextwindow.Verdict) error {
		return hookErr
	})

	p, err := NewPreflighter("anthropic", "unlisted-model",
		WithDefaultContextWindow(8000),
		WithHooks(registry),
	)
	if err != nil {
		t.Fatalf("NewPreflighter() error = %v", err)
	}

	_, err = p.Run(context.Background(), "session-1", cleanTranscript("session-1"))
	if !errors.Is(err, hookErr) {
		t.Errorf("Run() error = %v, want wrapped %v", err, hookErr)
	}

	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("Run() error type = %T, want *PipelineError", err)
	}
	if pipeErr.SessionID != "session-1" {
		t.Errorf("PipelineError.SessionID = %q, want %q", pipeErr.SessionID, "session-1")
	}
}

func TestPreflighter_ChunkRatioOverride(t *testing.T) {
	owner := &struct{ name string }{name: "manager"}
	registry := compaction.NewOverrideRegistry()
	registry.Set(owner, compaction.Overrides{MaxHistoryShare: 0.3})

	p, err := NewPreflighter("anthropic", "claude-3-5-sonnet-20241022",
		WithOverrides(registry, owner),
	)
	if err != nil {
		t.Fatalf("NewPreflighter() error = %v", err)
	}

	result, err := p.Run(context.Background(), "session-1", cleanTranscript("session-1"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Short messages plan at the base ratio; the override caps it.
	if result.ChunkRatio != 0.3 {
		t.Errorf("ChunkRatio = %v, want 0.3", result.ChunkRatio)
	}
}

func TestPreflighter_ToolFailuresDigest(t *testing.T) {
	sessionID := "session-1"
	assistant := NewAssistantMessage(sessionID, []ContentBlock{
		NewToolUseBlock("call-1", "bash", map[string]any{"command": "make"}),
	})
	messages := []*Message{
		NewUserMessage(sessionID, "Build it."),
		assistant,
		NewToolResultMessage(sessionID, "call-1", "bash", `{"exitCode": 2}`, true),
	}

	p, err := NewPreflighter("anthropic", "claude-3-5-sonnet-20241022")
	if err != nil {
		t.Fatalf("NewPreflighter() error = %v", err)
	}

	result, err := p.Run(context.Background(), sessionID, messages)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(result.ToolFailures, "## Tool Failures") {
		t.Errorf("ToolFailures missing header:\n%s", result.ToolFailures)
	}
	if !strings.Contains(result.ToolFailures, "`bash`") {
		t.Errorf("ToolFailures missing tool name:\n%s", result.ToolFailures)
	}
	if !strings.Contains(result.ToolFailures, "exitCode=2") {
		t.Errorf("ToolFailures missing detail field:\n%s", result.ToolFailures)
	}
}

func TestPreflighter_SanitizesToolsPerProvider(t *testing.T) {
	defs := []tool.Definition{{
		Name:        "search",
		Description: "Search the index",
		InputSchema: []byte(`{"type":"object","properties":{"query":{"type":"string","minLength":1}}}`),
	}}

	tests := []struct {
		name          string
		provider      string
		wantMinLength bool
	}{
		{name: "anthropic keeps everything", provider: "anthropic", wantMinLength: true},
		{name: "openai strips minLength", provider: "openai", wantMinLength: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPreflighter(tt.provider, "some-model",
				WithDefaultContextWindow(64000),
				WithTools(defs...),
			)
			if err != nil {
				t.Fatalf("NewPreflighter() error = %v", err)
			}

			result, err := p.Run(context.Background(), "session-1", cleanTranscript("session-1"))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if len(result.Tools) != 1 {
				t.Fatalf("got %d tools, want 1", len(result.Tools))
			}
			got := strings.Contains(string(result.Tools[0].InputSchema), "minLength")
			if got != tt.wantMinLength {
				t.Errorf("minLength present = %v, want %v", got, tt.wantMinLength)
			}
		})
	}
}

func TestNewPreflighter_OptionError(t *testing.T) {
	_, err := NewPreflighter("anthropic", "some-model",
		WithTools(tool.Definition{InputSchema: []byte(`{"type":"object"}`)}),
	)
	if !errors.Is(err, ErrInvalidToolSchema) {
		t.Errorf("NewPreflighter() error = %v, want %v", err, ErrInvalidToolSchema)
	}
}
