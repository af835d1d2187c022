package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	EventConversationCreated = "conversation.created"
	EventConversationClaimed = "conversation.claimed"
	EventConversationClosed  = "conversation.closed"
	EventMessageSent         = "message.sent"
)

// LifecycleEvent is the outbox payload produced to Kafka for downstream
// consumers (notification email, agent dashboards).
type LifecycleEvent struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversationId"`
	AgentID        string    `json:"agentId,omitempty"`
	MessageID      string    `json:"messageId,omitempty"`
	SenderRole     string    `json:"senderRole,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// enqueueEvent stores the event in the outbox inside the same transaction as
// the state change it describes.
func (s *Service) enqueueEvent(ctx context.Context, tx *sql.Tx, ev LifecycleEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.repo.InsertOutbox(ctx, tx, s.outboxTopic, ev.ConversationID, payload)
}
