package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/comichut/supportdesk/internal/domain"
)

// Repository is the durable store for conversations and their message logs.
// Write operations take an optional transaction so the application layer can
// group a state change with its outbox event.
type Repository interface {
	// Conversations
	InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation) error
	GetConversation(ctx context.Context, convID string) (*domain.Conversation, error)
	GetConversationForUpdate(ctx context.Context, tx *sql.Tx, convID string) (*domain.Conversation, error)

	// ClaimConversation atomically assigns the agent iff no agent is set and
	// the conversation is still waiting. Returns false when the conditional
	// update matched no row.
	ClaimConversation(ctx context.Context, tx *sql.Tx, convID, agentID string, now time.Time) (bool, error)

	// CloseConversation atomically flips a non-closed conversation to closed.
	// Returns false when the conditional update matched no row.
	CloseConversation(ctx context.Context, tx *sql.Tx, convID string, now time.Time) (bool, error)

	// Messages
	InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error
	TouchConversation(ctx context.Context, tx *sql.Tx, convID string, now time.Time) error

	// Queue views
	ListWaiting(ctx context.Context) ([]*domain.Conversation, error)
	ListActiveByAgent(ctx context.Context, agentID string) ([]*domain.Conversation, error)
	FindOpenByCustomer(ctx context.Context, userID, guestID string) (*domain.Conversation, error)

	// Outbox
	InsertOutbox(ctx context.Context, tx *sql.Tx, topic, key string, payload []byte) error
}
