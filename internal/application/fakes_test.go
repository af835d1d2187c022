package application

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/comichut/supportdesk/internal/domain"
)

// fakeTx runs the function without a real transaction. The fake repository
// is internally synchronized, so atomicity of the conditional updates holds.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return fn(ctx, nil)
}

type outboxEntry struct {
	Topic   string
	Key     string
	Payload []byte
}

type fakeRepo struct {
	mu       sync.Mutex
	convs    map[string]*domain.Conversation
	messages map[string][]*domain.Message
	outbox   []outboxEntry
	nextSeq  map[string]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		convs:    make(map[string]*domain.Conversation),
		messages: make(map[string][]*domain.Message),
		nextSeq:  make(map[string]int64),
	}
}

func (f *fakeRepo) InsertConversation(ctx context.Context, tx *sql.Tx, conv *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *conv
	f.convs[conv.ID] = &cp
	return nil
}

func (f *fakeRepo) GetConversation(ctx context.Context, convID string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getLocked(convID)
}

func (f *fakeRepo) GetConversationForUpdate(ctx context.Context, tx *sql.Tx, convID string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getLocked(convID)
}

func (f *fakeRepo) getLocked(convID string) (*domain.Conversation, error) {
	conv, ok := f.convs[convID]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	cp := *conv
	cp.Messages = append([]*domain.Message{}, f.messages[convID]...)
	return &cp, nil
}

func (f *fakeRepo) ClaimConversation(ctx context.Context, tx *sql.Tx, convID, agentID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[convID]
	if !ok || conv.Status != domain.StatusWaiting || conv.AgentID != "" {
		return false, nil
	}
	conv.AgentID = agentID
	conv.Status = domain.StatusActive
	conv.UpdatedAt = now
	return true, nil
}

func (f *fakeRepo) CloseConversation(ctx context.Context, tx *sql.Tx, convID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[convID]
	if !ok || conv.Status == domain.StatusClosed {
		return false, nil
	}
	conv.Status = domain.StatusClosed
	conv.ClosedAt = &now
	conv.UpdatedAt = now
	return true, nil
}

func (f *fakeRepo) InsertMessage(ctx context.Context, tx *sql.Tx, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSeq[msg.ConversationID]++
	msg.Sequence = f.nextSeq[msg.ConversationID]
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], msg)
	return nil
}

func (f *fakeRepo) TouchConversation(ctx context.Context, tx *sql.Tx, convID string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.convs[convID]; ok {
		conv.UpdatedAt = now
	}
	return nil
}

func (f *fakeRepo) ListWaiting(ctx context.Context) ([]*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Conversation
	for _, conv := range f.convs {
		if conv.Status == domain.StatusWaiting {
			cp := *conv
			out = append(out, &cp)
		}
	}
	// Longest-waiting first, matching the store's created_at ordering.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeRepo) ListActiveByAgent(ctx context.Context, agentID string) ([]*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Conversation
	for _, conv := range f.convs {
		if conv.Status == domain.StatusActive && conv.AgentID == agentID {
			cp := *conv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindOpenByCustomer(ctx context.Context, userID, guestID string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.Conversation
	for _, conv := range f.convs {
		if conv.Status == domain.StatusClosed {
			continue
		}
		match := (userID != "" && conv.CustomerUserID == userID) ||
			(guestID != "" && conv.GuestSessionID == guestID)
		if !match {
			continue
		}
		if latest == nil || conv.CreatedAt.After(latest.CreatedAt) {
			latest = conv
		}
	}
	if latest == nil {
		return nil, domain.ErrConversationNotFound
	}
	return f.getLocked(latest.ID)
}

func (f *fakeRepo) InsertOutbox(ctx context.Context, tx *sql.Tx, topic, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outbox = append(f.outbox, outboxEntry{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (f *fakeRepo) outboxTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.outbox {
		out = append(out, string(e.Payload))
	}
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

type notifierEvent struct {
	Room  string
	Event string
	Data  interface{}
}

func (f *fakeNotifier) Broadcast(ctx context.Context, room, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notifierEvent{Room: room, Event: event, Data: data})
}

func (f *fakeNotifier) byEvent(event string) []notifierEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notifierEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeSnapshotter struct {
	snapshot domain.CustomerContext
	err      error
}

func (f *fakeSnapshotter) Snapshot(ctx context.Context, userID string) (domain.CustomerContext, error) {
	return f.snapshot, f.err
}
