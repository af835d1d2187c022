package application

import (
	"context"

	"github.com/comichut/supportdesk/internal/domain"
)

// Resume returns the caller's most recent non-closed conversation so a
// reloaded tab (or a second one) rejoins the same room with the full history.
func (s *Service) Resume(ctx context.Context, userID, guestID string) (*domain.Conversation, error) {
	if userID == "" && guestID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.FindOpenByCustomer(ctx, userID, guestID)
}

// Get loads a conversation with its full message log.
func (s *Service) Get(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	if conversationID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.GetConversation(ctx, conversationID)
}
