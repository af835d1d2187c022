package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/domain"
	"github.com/comichut/supportdesk/internal/observability"
)

// ConversationClosedEvent tells connected parties the room is done.
type ConversationClosedEvent struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

// Close makes the conversation terminal. A second close is a Conflict and
// never mutates closedAt again.
func (s *Service) Close(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		closed, err := s.repo.CloseConversation(ctx, tx, conversationID, now)
		if err != nil {
			return fmt.Errorf("failed to close conversation: %w", err)
		}

		if !closed {
			if _, err := s.repo.GetConversationForUpdate(ctx, tx, conversationID); err != nil {
				return err
			}
			return domain.ErrAlreadyClosed
		}

		return s.enqueueEvent(ctx, tx, LifecycleEvent{
			Type:           EventConversationClosed,
			ConversationID: conversationID,
			OccurredAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	observability.GetLogger(ctx).Info("conversation closed",
		zap.String("conversation_id", conversationID),
	)

	s.broadcast(ctx, conversationID, "conversation:closed", ConversationClosedEvent{
		ChatID:  conversationID,
		Message: "This conversation has been closed",
	})

	return conv, nil
}
