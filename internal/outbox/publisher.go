package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/observability"
)

// Producer is the Kafka side of the publisher.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Publisher polls the outbox table and publishes unpublished events.
type Publisher struct {
	repo        *Repository
	producer    Producer
	serviceName string
}

func NewPublisher(repo *Repository, producer Producer, serviceName string) *Publisher {
	return &Publisher{repo: repo, producer: producer, serviceName: serviceName}
}

// Start begins the polling loop. It blocks until the context is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishBatch(ctx)
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) {
	log := observability.GetLogger(ctx)

	rows, err := p.repo.Fetch(ctx, 50)
	if err != nil {
		log.Error("outbox query error", zap.Error(err))
		return
	}

	for _, row := range rows {
		if err := p.producer.Publish(ctx, row.Topic, []byte(row.Key), row.Payload); err != nil {
			log.Error("kafka publish failed", zap.String("topic", row.Topic), zap.Error(err))
			continue
		}

		observability.OutboxPublishedTotal.WithLabelValues(p.serviceName, row.Topic).Inc()

		if err := p.repo.MarkPublished(ctx, row.ID); err != nil {
			log.Error("outbox mark published error", zap.String("id", row.ID), zap.Error(err))
		}
	}
}
