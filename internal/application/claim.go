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

// AgentJoinedEvent is broadcast to the room when a claim succeeds, so a
// waiting customer flips to "connected" without polling.
type AgentJoinedEvent struct {
	ChatID    string `json:"chatId"`
	AgentName string `json:"agentName"`
	Message   string `json:"message"`
}

// Claim hands the conversation to exactly one agent. Exclusivity comes from
// the store's conditional update: of two racing claims one matches the row
// and the other gets ErrAlreadyClaimed.
func (s *Service) Claim(
	ctx context.Context,
	conversationID, agentID, agentName string,
) (*domain.Conversation, error) {

	if conversationID == "" || agentID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now().UTC()

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		claimed, err := s.repo.ClaimConversation(ctx, tx, conversationID, agentID, now)
		if err != nil {
			return fmt.Errorf("failed to claim conversation: %w", err)
		}

		if !claimed {
			// Lost the race, already assigned, closed, or missing. Look at
			// the row to answer precisely.
			conv, err := s.repo.GetConversationForUpdate(ctx, tx, conversationID)
			if err != nil {
				return err
			}
			if conv.Status == domain.StatusClosed {
				return domain.ErrConversationClosed
			}
			return domain.ErrAlreadyClaimed
		}

		return s.enqueueEvent(ctx, tx, LifecycleEvent{
			Type:           EventConversationClaimed,
			ConversationID: conversationID,
			AgentID:        agentID,
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

	observability.GetLogger(ctx).Info("conversation claimed",
		zap.String("conversation_id", conversationID),
		zap.String("agent_id", agentID),
	)

	if agentName == "" {
		agentName = "Support Agent"
	}
	s.broadcast(ctx, conversationID, "agent:joined", AgentJoinedEvent{
		ChatID:    conversationID,
		AgentName: agentName,
		Message:   agentName + " joined the chat",
	})

	return conv, nil
}
