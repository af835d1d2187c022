package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/comichut/supportdesk/internal/application"
	"github.com/comichut/supportdesk/internal/domain"
	"github.com/comichut/supportdesk/internal/middleware"
	"github.com/comichut/supportdesk/internal/observability"
	"github.com/comichut/supportdesk/internal/transport"
)

// ChatService is the slice of the application layer the HTTP surface needs.
type ChatService interface {
	StartConversation(ctx context.Context, cmd application.StartConversationCommand) (*domain.Conversation, error)
	Resume(ctx context.Context, userID, guestID string) (*domain.Conversation, error)
	ListQueue(ctx context.Context) ([]*domain.Conversation, error)
	ListMyActive(ctx context.Context, agentID string) ([]*domain.Conversation, error)
	Claim(ctx context.Context, conversationID, agentID, agentName string) (*domain.Conversation, error)
	Close(ctx context.Context, conversationID string) (*domain.Conversation, error)
}

type ChatHandler struct {
	svc         ChatService
	serviceName string
}

func NewChatHandler(svc ChatService, serviceName string) *ChatHandler {
	return &ChatHandler{svc: svc, serviceName: serviceName}
}

type startConversationRequest struct {
	CustomerName   string `json:"customerName"`
	CustomerEmail  string `json:"customerEmail"`
	UserID         string `json:"userId"`
	GuestSessionID string `json:"guestSessionId"`
	InitialMessage string `json:"initialMessage"`
}

func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid_argument", "malformed request body")
		return
	}

	conv, err := h.svc.StartConversation(r.Context(), application.StartConversationCommand{
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		UserID:         req.UserID,
		GuestSessionID: req.GuestSessionID,
		InitialMessage: req.InitialMessage,
	})
	if err != nil {
		transport.HTTPError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, scrubForCaller(r.Context(), conv))
}

func (h *ChatHandler) MyConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	guestID := r.URL.Query().Get("guestSessionId")

	conv, err := h.svc.Resume(r.Context(), userID, guestID)
	if err != nil {
		transport.HTTPError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, scrubForCaller(r.Context(), conv))
}

func (h *ChatHandler) Queue(w http.ResponseWriter, r *http.Request) {
	convs, err := h.svc.ListQueue(r.Context())
	if err != nil {
		transport.HTTPError(w, r, err)
		return
	}

	if convs == nil {
		convs = []*domain.Conversation{}
	}
	transport.WriteJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) MyActive(w http.ResponseWriter, r *http.Request) {
	agentID := middleware.AgentID(r.Context())

	convs, err := h.svc.ListMyActive(r.Context(), agentID)
	if err != nil {
		transport.HTTPError(w, r, err)
		return
	}

	if convs == nil {
		convs = []*domain.Conversation{}
	}
	transport.WriteJSON(w, http.StatusOK, convs)
}

func (h *ChatHandler) ClaimConversation(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "id")
	agentID := middleware.AgentID(r.Context())
	agentName := middleware.AgentName(r.Context())

	conv, err := h.svc.Claim(r.Context(), convID, agentID, agentName)
	if err != nil {
		outcome := "error"
		if errors.Is(err, domain.ErrAlreadyClaimed) {
			outcome = "conflict"
		}
		observability.ClaimAttemptsTotal.WithLabelValues(h.serviceName, outcome).Inc()
		transport.HTTPError(w, r, err)
		return
	}

	observability.ClaimAttemptsTotal.WithLabelValues(h.serviceName, "won").Inc()
	transport.WriteJSON(w, http.StatusOK, conv)
}

func (h *ChatHandler) CloseConversation(w http.ResponseWriter, r *http.Request) {
	convID := chi.URLParam(r, "id")

	conv, err := h.svc.Close(r.Context(), convID)
	if err != nil {
		transport.HTTPError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, scrubForCaller(r.Context(), conv))
}

// scrubForCaller hides the agent-only context snapshot from non-staff
// callers.
func scrubForCaller(ctx context.Context, conv *domain.Conversation) *domain.Conversation {
	if middleware.AgentID(ctx) != "" {
		return conv
	}
	c := *conv
	c.Context = domain.CustomerContext{}
	return &c
}
