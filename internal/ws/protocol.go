package ws

import (
	"encoding/json"

	"github.com/comichut/supportdesk/internal/domain"
)

// Wire events, client -> server.
const (
	EventCustomerJoin = "customer:join"
	EventAgentJoin    = "agent:join"
	EventMessageSend  = "message:send"
	EventTypingStart  = "typing:start"
	EventTypingStop   = "typing:stop"
)

// Wire events, server -> clients.
const (
	EventCustomerJoined     = "customer:joined"
	EventAgentJoined        = "agent:joined"
	EventMessageReceived    = "message:received"
	EventTypingStatus       = "typing:status"
	EventUserLeft           = "user:left"
	EventConversationClosed = "conversation:closed"
	EventError              = "error"
)

// Frame is the JSON envelope for every event in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func EncodeFrame(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

type CustomerJoinPayload struct {
	ChatID string `json:"chatId"`
}

type AgentJoinPayload struct {
	ChatID string `json:"chatId"`
	Token  string `json:"token"`
}

type SendMessagePayload struct {
	ChatID      string              `json:"chatId"`
	Message     string              `json:"message"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
	SenderName  string              `json:"senderName"`
}

type TypingStartPayload struct {
	ChatID   string `json:"chatId"`
	UserName string `json:"userName"`
}

type TypingStopPayload struct {
	ChatID string `json:"chatId"`
}

type CustomerJoinedPayload struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type AgentJoinedPayload struct {
	ChatID    string `json:"chatId"`
	AgentName string `json:"agentName"`
	Message   string `json:"message"`
}

type MessageReceivedPayload struct {
	ChatID  string          `json:"chatId"`
	Message *domain.Message `json:"message"`
}

type TypingStatusPayload struct {
	ChatID   string `json:"chatId"`
	UserName string `json:"userName,omitempty"`
	IsTyping bool   `json:"isTyping"`
}

type UserLeftPayload struct {
	ChatID   string `json:"chatId"`
	UserType string `json:"userType"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
