package application

import (
	"context"

	"github.com/comichut/supportdesk/internal/domain"
	"github.com/comichut/supportdesk/internal/repository"
	"github.com/comichut/supportdesk/internal/tx"
)

// Snapshotter captures the customer-context snapshot at conversation start.
type Snapshotter interface {
	Snapshot(ctx context.Context, userID string) (domain.CustomerContext, error)
}

// Notifier fans an event out to every live connection in a room. The
// websocket bus is the production implementation.
type Notifier interface {
	Broadcast(ctx context.Context, room, event string, data interface{})
}

type Service struct {
	repo        repository.Repository
	tx          tx.Transactor
	snap        Snapshotter
	notifier    Notifier
	outboxTopic string
}

func New(
	repo repository.Repository,
	transactor tx.Transactor,
	snap Snapshotter,
	notifier Notifier,
	outboxTopic string,
) *Service {
	return &Service{
		repo:        repo,
		tx:          transactor,
		snap:        snap,
		notifier:    notifier,
		outboxTopic: outboxTopic,
	}
}

func (s *Service) broadcast(ctx context.Context, room, event string, data interface{}) {
	if s.notifier != nil {
		s.notifier.Broadcast(ctx, room, event, data)
	}
}
