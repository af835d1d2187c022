package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/domain"
	"github.com/comichut/supportdesk/internal/observability"
	"github.com/comichut/supportdesk/internal/security"
)

type StartConversationCommand struct {
	CustomerName   string
	CustomerEmail  string
	UserID         string
	GuestSessionID string
	InitialMessage string
}

// StartConversation creates a waiting conversation. Guest identity is
// generated here when the caller supplied neither a user id nor a guest
// session id, so the invariant "exactly one identity" is a visible step in
// the write path. The context snapshot is best-effort and never blocks
// creation.
func (s *Service) StartConversation(
	ctx context.Context,
	cmd StartConversationCommand,
) (*domain.Conversation, error) {

	log := observability.GetLogger(ctx)

	if cmd.CustomerName == "" {
		return nil, domain.ErrInvalidInput
	}
	if cmd.UserID != "" && cmd.GuestSessionID != "" {
		return nil, domain.ErrInvalidInput
	}

	guestID := cmd.GuestSessionID
	if cmd.UserID == "" && guestID == "" {
		var err error
		guestID, err = security.RandomToken(24)
		if err != nil {
			return nil, fmt.Errorf("failed to generate guest session id: %w", err)
		}
	}

	now := time.Now().UTC()
	conv, err := domain.NewConversation(
		uuid.NewString(),
		cmd.UserID,
		guestID,
		cmd.CustomerName,
		cmd.CustomerEmail,
		now,
	)
	if err != nil {
		return nil, err
	}

	if s.snap != nil {
		snapshot, err := s.snap.Snapshot(ctx, cmd.UserID)
		if err != nil {
			// Degrade to whatever partial snapshot we got. Creation must
			// never fail because a storefront collaborator is down.
			log.Warn("customer context snapshot degraded",
				zap.String("conversation_id", conv.ID),
				zap.Error(err),
			)
		}
		conv.Context = snapshot
	}

	var initial *domain.Message
	if cmd.InitialMessage != "" {
		initial, err = domain.NewMessage(
			uuid.NewString(),
			conv.ID,
			domain.RoleCustomer,
			cmd.CustomerName,
			cmd.InitialMessage,
			nil,
			now,
		)
		if err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.repo.InsertConversation(ctx, tx, conv); err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}

		if initial != nil {
			if err := s.repo.InsertMessage(ctx, tx, initial); err != nil {
				return fmt.Errorf("failed to insert initial message: %w", err)
			}
		}

		return s.enqueueEvent(ctx, tx, LifecycleEvent{
			Type:           EventConversationCreated,
			ConversationID: conv.ID,
			OccurredAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	if initial != nil {
		conv.Messages = append(conv.Messages, initial)
	}

	log.Info("conversation started",
		zap.String("conversation_id", conv.ID),
		zap.Bool("guest", conv.CustomerUserID == ""),
	)
	return conv, nil
}
