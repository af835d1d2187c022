package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/comichut/supportdesk/internal/application"
	"github.com/comichut/supportdesk/internal/domain"
	"github.com/comichut/supportdesk/internal/observability"
	"github.com/comichut/supportdesk/internal/security"
)

// ConversationService is the slice of the application layer the socket
// handler needs.
type ConversationService interface {
	Get(ctx context.Context, conversationID string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, cmd application.AppendMessageCommand) (*domain.Message, error)
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type Handler struct {
	registry    *Registry
	bus         *Bus
	svc         ConversationService
	auth        AuthConfig
	serviceName string
}

func NewHandler(registry *Registry, bus *Bus, svc ConversationService, auth AuthConfig, serviceName string) *Handler {
	return &Handler{
		registry:    registry,
		bus:         bus,
		svc:         svc,
		auth:        auth,
		serviceName: serviceName,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogger(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade error", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), conn)
	session.Start()

	observability.WebSocketConnectionsActive.WithLabelValues(h.serviceName).Inc()
	log.Info("connected", zap.String("session_id", session.ID))

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.readLoop(session)
}

// readLoop handles each inbound event to completion before reading the next
// one for this connection. Other connections' events interleave freely;
// per-conversation atomicity lives in the store, not here.
func (h *Handler) readLoop(s *Session) {
	ctx := context.Background()
	log := observability.GetLogger(ctx)

	defer func() {
		room, role := h.registry.Leave(s)
		if room != "" {
			h.bus.BroadcastExcept(ctx, room, EventUserLeft, UserLeftPayload{
				ChatID:   room,
				UserType: string(role),
			}, s.ID)
			observability.RoomMembersActive.WithLabelValues(h.serviceName, string(role)).Dec()
		}
		s.Close()
		observability.WebSocketConnectionsActive.WithLabelValues(h.serviceName).Dec()
		log.Info("disconnected", zap.String("session_id", s.ID))
	}()

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn("read loop error", zap.String("session_id", s.ID), zap.Error(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			h.sendError(s, "malformed frame")
			continue
		}

		switch frame.Event {
		case EventCustomerJoin:
			h.handleCustomerJoin(ctx, s, frame.Data)
		case EventAgentJoin:
			h.handleAgentJoin(ctx, s, frame.Data)
		case EventMessageSend:
			h.handleSendMessage(ctx, s, frame.Data)
		case EventTypingStart:
			h.handleTypingStart(ctx, s, frame.Data)
		case EventTypingStop:
			h.handleTypingStop(ctx, s)
		default:
			h.sendError(s, "unknown event: "+frame.Event)
		}
	}
}

func (h *Handler) handleCustomerJoin(ctx context.Context, s *Session, data json.RawMessage) {
	var p CustomerJoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == "" {
		h.sendError(s, "chatId is required")
		return
	}

	conv, err := h.svc.Get(ctx, p.ChatID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			h.sendError(s, "conversation not found, start a new chat")
		} else {
			h.sendError(s, "failed to join chat")
		}
		return
	}

	subject := conv.CustomerUserID
	if subject == "" {
		subject = conv.GuestSessionID
	}

	h.trackJoin(s)
	h.registry.Join(s, conv.ID, domain.RoleCustomer, subject, conv.CustomerName)
	observability.RoomMembersActive.WithLabelValues(h.serviceName, string(domain.RoleCustomer)).Inc()

	h.bus.Broadcast(ctx, conv.ID, EventCustomerJoined, CustomerJoinedPayload{
		ChatID:  conv.ID,
		Message: conv.CustomerName + " joined the chat",
	})
}

func (h *Handler) handleAgentJoin(ctx context.Context, s *Session, data json.RawMessage) {
	var p AgentJoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatID == "" {
		h.sendError(s, "chatId is required")
		return
	}

	claims, err := security.VerifyAgent(p.Token, h.auth.Secret, h.auth.Issuer, h.auth.Audience)
	if err != nil {
		h.sendError(s, "invalid or expired credential")
		return
	}

	conv, err := h.svc.Get(ctx, p.ChatID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			h.sendError(s, "conversation not found")
		} else {
			h.sendError(s, "failed to join chat")
		}
		return
	}

	// Only the agent who claimed this conversation may join its room.
	if conv.AgentID == "" || conv.AgentID != claims.AgentID {
		h.sendError(s, "not authorized for this chat")
		return
	}

	agentName := claims.AgentName
	if agentName == "" {
		agentName = "Support Agent"
	}

	h.trackJoin(s)
	h.registry.Join(s, conv.ID, domain.RoleAgent, claims.AgentID, agentName)
	observability.RoomMembersActive.WithLabelValues(h.serviceName, string(domain.RoleAgent)).Inc()

	h.bus.Broadcast(ctx, conv.ID, EventAgentJoined, AgentJoinedPayload{
		ChatID:    conv.ID,
		AgentName: agentName,
		Message:   agentName + " joined the chat",
	})
}

func (h *Handler) handleSendMessage(ctx context.Context, s *Session, data json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(s, "malformed message payload")
		return
	}

	room, role := s.Joined()
	if room == "" || room != p.ChatID {
		h.sendError(s, "join the chat before sending")
		return
	}

	msg, err := h.svc.AppendMessage(ctx, application.AppendMessageCommand{
		ConversationID: room,
		Sender:         role,
		SenderName:     p.SenderName,
		Text:           p.Message,
		Attachments:    p.Attachments,
	})
	if err != nil {
		// Persist failed: the sender alone hears about it, nothing is
		// broadcast.
		h.sendError(s, sendErrorMessage(err))
		return
	}

	observability.MessagesRelayedTotal.WithLabelValues(h.serviceName, string(role)).Inc()

	// Echo to the whole room including the sender so all of the sender's
	// tabs converge; clients dedupe optimistic echoes by timestamp+text.
	h.bus.Broadcast(ctx, room, EventMessageReceived, MessageReceivedPayload{
		ChatID:  room,
		Message: msg,
	})
}

func (h *Handler) handleTypingStart(ctx context.Context, s *Session, data json.RawMessage) {
	var p TypingStartPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	room, _ := s.Joined()
	if room == "" || room != p.ChatID {
		h.sendError(s, "join the chat before sending")
		return
	}

	userName := p.UserName
	if userName == "" {
		userName = s.DisplayName()
	}

	h.bus.BroadcastExcept(ctx, room, EventTypingStatus, TypingStatusPayload{
		ChatID:   room,
		UserName: userName,
		IsTyping: true,
	}, s.ID)
}

func (h *Handler) handleTypingStop(ctx context.Context, s *Session) {
	room, _ := s.Joined()
	if room == "" {
		return
	}

	h.bus.BroadcastExcept(ctx, room, EventTypingStatus, TypingStatusPayload{
		ChatID:   room,
		IsTyping: false,
	}, s.ID)
}

// trackJoin settles the membership gauge for the room a session is about to
// leave. Registry.Join moves a session out of its current room, so without
// this a rejoining connection would be counted twice.
func (h *Handler) trackJoin(s *Session) {
	if room, role := s.Joined(); room != "" {
		observability.RoomMembersActive.WithLabelValues(h.serviceName, string(role)).Dec()
	}
}

func (h *Handler) sendError(s *Session, message string) {
	payload, err := EncodeFrame(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	s.TrySend(payload)
}

func sendErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrConversationClosed):
		return "this conversation is closed"
	case errors.Is(err, domain.ErrConversationNotFound):
		return "conversation not found"
	case errors.Is(err, domain.ErrInvalidMessage):
		return "message needs text or an attachment"
	case errors.Is(err, domain.ErrMessageTooLarge):
		return "message too large"
	default:
		return "failed to send message"
	}
}
