package domain

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrAlreadyClaimed       = errors.New("conversation already claimed")
	ErrAlreadyClosed        = errors.New("conversation already closed")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrInvalidMessage       = errors.New("invalid message")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("invalid or expired credential")
	ErrNotAssignedAgent     = errors.New("agent is not assigned to this conversation")
	ErrNotJoined            = errors.New("connection has not joined this chat")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
)
