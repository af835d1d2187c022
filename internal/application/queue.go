package application

import (
	"context"

	"github.com/comichut/supportdesk/internal/domain"
)

// ListQueue returns every waiting conversation, longest-waiting first.
func (s *Service) ListQueue(ctx context.Context) ([]*domain.Conversation, error) {
	return s.repo.ListWaiting(ctx)
}

// ListMyActive returns the conversations currently assigned to the agent.
func (s *Service) ListMyActive(ctx context.Context, agentID string) ([]*domain.Conversation, error) {
	if agentID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.ListActiveByAgent(ctx, agentID)
}
