package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sdancy10/openclaw/internal/testutil"
	"github.com/sdancy10/openclaw/types"
)

func TestIntegration_PostgresStore_SessionLifecycle(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := NewPostgresStore(db.Pool)

	// Create session
	metadata := map[string]any{"key": "value"}
	sessionID, err := store.CreateSession(ctx, "tenant1", "user1", metadata)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sessionID == "" {
		t.Fatal("Expected non-empty session ID")
	}

	// Get session
	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.TenantID != "tenant1" {
		t.Errorf("Expected tenant_id 'tenant1', got '%s'", session.TenantID)
	}
	if session.Identifier != "user1" {
		t.Errorf("Expected identifier 'user1', got '%s'", session.Identifier)
	}
	if session.Metadata["key"] != "value" {
		t.Errorf("Expected metadata key 'value', got '%v'", session.Metadata["key"])
	}

	// Get session by tenant and identifier
	session2, err := store.GetSessionByTenantAndIdentifier(ctx, "tenant1", "user1")
	if err != nil {
		t.Fatalf("GetSessionByTenantAndIdentifier failed: %v", err)
	}
	if session2.ID != sessionID {
		t.Errorf("Expected session ID '%s', got '%s'", sessionID, session2.ID)
	}

	// Get sessions by tenant
	sessions, err := store.GetSessionsByTenant(ctx, "tenant1")
	if err != nil {
		t.Fatalf("GetSessionsByTenant failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(sessions))
	}
}

func TestIntegration_PostgresStore_MessageOperations(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := NewPostgresStore(db.Pool)

	sessionID, _ := store.CreateSession(ctx, "tenant1", "test", nil)

	// Save an assistant turn with a tool call and its result message
	assistantID := uuid.New().String()
	assistant := &types.Message{
		ID:        assistantID,
		SessionID: sessionID,
		Role:      types.RoleAssistant,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeText, Text: "running the command"},
			{Type: types.ContentTypeToolUse, ToolUseID: "toolu_01", ToolName: "bash"},
		},
		Usage: &types.Usage{
			InputTokens:  5,
			OutputTokens: 5,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := store.SaveMessage(ctx, assistant); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	result := &types.Message{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Role:       types.RoleToolResult,
		ToolCallID: "toolu_01",
		ToolName:   "bash",
		IsError:    true,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeToolResult, ToolResultID: "toolu_01", ToolContent: "exit status 1", IsError: true},
		},
		CreatedAt: time.Now().Add(time.Millisecond),
		UpdatedAt: time.Now().Add(time.Millisecond),
	}
	if err := store.SaveMessage(ctx, result); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	// Get messages
	messages, err := store.GetMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != assistantID {
		t.Errorf("Expected message ID '%s', got '%s'", assistantID, messages[0].ID)
	}
	if len(messages[0].Content) != 2 {
		t.Errorf("Expected 2 content blocks, got %d", len(messages[0].Content))
	}
	if messages[1].ToolCallID != "toolu_01" {
		t.Errorf("Expected tool_call_id 'toolu_01', got '%s'", messages[1].ToolCallID)
	}
	if !messages[1].IsError {
		t.Error("Expected is_error to round-trip")
	}

	// Session token count sums message usage
	tokens, err := store.GetSessionTokenCount(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSessionTokenCount failed: %v", err)
	}
	if tokens != 10 {
		t.Errorf("Expected 10 tokens, got %d", tokens)
	}

	// Delete messages
	if err := store.DeleteMessages(ctx, []string{assistantID}); err != nil {
		t.Fatalf("DeleteMessages failed: %v", err)
	}
	messages, _ = store.GetMessages(ctx, sessionID)
	if len(messages) != 1 {
		t.Errorf("Expected 1 message after delete, got %d", len(messages))
	}
}

func TestIntegration_PostgresStore_StopReasonRoundTrip(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := NewPostgresStore(db.Pool)
	sessionID, _ := store.CreateSession(ctx, "tenant1", "aborted", nil)

	msg := &types.Message{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Role:       types.RoleAssistant,
		StopReason: types.StopReasonAborted,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeText, Text: "partial"},
		},
	}
	if err := store.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	messages, err := store.GetMessages(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].StopReason != types.StopReasonAborted {
		t.Errorf("Expected stop reason 'aborted', got '%s'", messages[0].StopReason)
	}
	if !messages[0].StopReason.Interrupted() {
		t.Error("Expected Interrupted() to be true")
	}
}

func TestIntegration_PostgresStore_CompactionEvents(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := NewPostgresStore(db.Pool)
	sessionID, _ := store.CreateSession(ctx, "tenant1", "compaction", nil)

	msg := &types.Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      types.RoleUser,
		Content: []types.ContentBlock{
			{Type: types.ContentTypeText, Text: "old context"},
		},
	}
	if err := store.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("SaveMessage failed: %v", err)
	}

	event := storeEvent(sessionID)
	if err := store.SaveCompactionEvent(ctx, event); err != nil {
		t.Fatalf("SaveCompactionEvent failed: %v", err)
	}
	if event.ID == "" {
		t.Fatal("Expected event ID to be assigned")
	}

	if err := store.ArchiveMessages(ctx, event.ID, []*types.Message{msg}); err != nil {
		t.Fatalf("ArchiveMessages failed: %v", err)
	}

	if err := store.UpdateSessionCompactionCount(ctx, sessionID); err != nil {
		t.Fatalf("UpdateSessionCompactionCount failed: %v", err)
	}

	history, err := store.GetCompactionHistory(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetCompactionHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(history))
	}
	if history[0].Strategy != "summarization" {
		t.Errorf("Expected strategy 'summarization', got '%s'", history[0].Strategy)
	}

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if session.CompactionCount != 1 {
		t.Errorf("Expected compaction count 1, got %d", session.CompactionCount)
	}
}

func storeEvent(sessionID string) *CompactionEvent {
	return &CompactionEvent{
		SessionID:           sessionID,
		Strategy:            "summarization",
		OriginalTokens:      1000,
		CompactedTokens:     200,
		MessagesRemoved:     1,
		SummaryContent:      "summary of old context",
		PreservedMessageIDs: []string{},
		ModelUsed:           "claude-3-5-haiku-20241022",
	}
}
