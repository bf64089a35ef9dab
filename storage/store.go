// Package storage persists transcripts, compaction events, and archived
// messages.
package storage

import (
	"context"
	"time"

	"github.com/sdancy10/openclaw/types"
)

// Store defines the persistence interface for transcripts
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, tenantID, identifier string, metadata map[string]any) (string, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	GetSessionsByTenant(ctx context.Context, tenantID string) ([]*Session, error)
	GetSessionByTenantAndIdentifier(ctx context.Context, tenantID, identifier string) (*Session, error)
	// GetSessionTokenCount calculates total tokens by summing usage from messages
	GetSessionTokenCount(ctx context.Context, sessionID string) (int, error)
	UpdateSessionCompactionCount(ctx context.Context, sessionID string) error

	// Message operations
	SaveMessage(ctx context.Context, msg *types.Message) error
	SaveMessages(ctx context.Context, messages []*types.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]*types.Message, error)
	GetMessagesSince(ctx context.Context, sessionID string, since time.Time) ([]*types.Message, error)
	DeleteMessages(ctx context.Context, messageIDs []string) error

	// Compaction operations
	SaveCompactionEvent(ctx context.Context, event *CompactionEvent) error
	GetCompactionHistory(ctx context.Context, sessionID string) ([]*CompactionEvent, error)
	ArchiveMessages(ctx context.Context, compactionEventID string, messages []*types.Message) error
}

// Session represents a conversation session
type Session struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenant_id"`
	Identifier      string         `json:"identifier"`
	Metadata        map[string]any `json:"metadata"`
	CompactionCount int            `json:"compaction_count"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CompactionEvent represents a context compaction event
type CompactionEvent struct {
	ID                  string    `json:"id"`
	SessionID           string    `json:"session_id"`
	Strategy            string    `json:"strategy"`
	OriginalTokens      int       `json:"original_tokens"`
	CompactedTokens     int       `json:"compacted_tokens"`
	MessagesRemoved     int       `json:"messages_removed"`
	SummaryContent      string    `json:"summary_content,omitempty"`
	PreservedMessageIDs []string  `json:"preserved_message_ids"`
	ModelUsed           string    `json:"model_used,omitempty"`
	DurationMs          int64     `json:"duration_ms"`
	CreatedAt           time.Time `json:"created_at"`
}
