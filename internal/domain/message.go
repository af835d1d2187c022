package domain

import "time"

const MaxMessageSize = 5000

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleSystem   Role = "system"
)

// Attachment is opaque metadata for a file uploaded out-of-band. The relay
// never touches file bytes.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
}

// Message Invariants:
// 1. Ordering: Sequence is assigned at persist time and strictly increasing
//    per conversation; messages are never reordered or deleted.
// 2. Immutability: all fields are immutable once persisted.
// 3. Text may be empty only for attachment-only messages.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"-"`
	Sequence       int64        `json:"-"`
	Sender         Role         `json:"sender"`
	SenderName     string       `json:"senderName"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	SentAt         time.Time    `json:"timestamp"`
}

func NewMessage(
	id string,
	conversationID string,
	sender Role,
	senderName string,
	text string,
	attachments []Attachment,
	now time.Time,
) (*Message, error) {

	if id == "" || conversationID == "" || senderName == "" {
		return nil, ErrInvalidMessage
	}

	switch sender {
	case RoleCustomer, RoleAgent, RoleSystem:
	default:
		return nil, ErrInvalidMessage
	}

	if text == "" && len(attachments) == 0 {
		return nil, ErrInvalidMessage
	}

	if len(text) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}

	return &Message{
		ID:             id,
		ConversationID: conversationID,
		Sender:         sender,
		SenderName:     senderName,
		Text:           text,
		Attachments:    attachments,
		SentAt:         now,
	}, nil
}
