package application

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comichut/supportdesk/internal/domain"
)

type AppendMessageCommand struct {
	ConversationID string
	Sender         domain.Role
	SenderName     string
	Text           string
	Attachments    []domain.Attachment
}

// AppendMessage persists a chat message. The sender role comes from the
// connection's join state, never from the inbound payload. The timestamp is
// assigned here, at persist time. Appends to a closed conversation are
// rejected.
func (s *Service) AppendMessage(
	ctx context.Context,
	cmd AppendMessageCommand,
) (*domain.Message, error) {

	var result *domain.Message

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		conv, err := s.repo.GetConversationForUpdate(ctx, tx, cmd.ConversationID)
		if err != nil {
			return err
		}

		if err := conv.CanAppend(); err != nil {
			return err
		}

		senderName := cmd.SenderName
		if senderName == "" {
			switch cmd.Sender {
			case domain.RoleAgent:
				senderName = "Support Agent"
			default:
				senderName = conv.CustomerName
			}
		}

		now := time.Now().UTC()
		msg, err := domain.NewMessage(
			uuid.NewString(),
			conv.ID,
			cmd.Sender,
			senderName,
			cmd.Text,
			cmd.Attachments,
			now,
		)
		if err != nil {
			return err
		}

		if err := s.repo.InsertMessage(ctx, tx, msg); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}

		if err := s.repo.TouchConversation(ctx, tx, conv.ID, now); err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}

		if err := s.enqueueEvent(ctx, tx, LifecycleEvent{
			Type:           EventMessageSent,
			ConversationID: conv.ID,
			MessageID:      msg.ID,
			SenderRole:     string(msg.Sender),
			OccurredAt:     now,
		}); err != nil {
			return err
		}

		result = msg
		return nil
	})

	return result, err
}
