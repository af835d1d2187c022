package domain

import "time"

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

// CustomerContext is a point-in-time snapshot of the customer's storefront
// state, captured once when the conversation starts. It is never refreshed.
type CustomerContext struct {
	Profile      *CustomerProfile `json:"profile,omitempty"`
	Cart         []CartItem       `json:"cart,omitempty"`
	RecentOrders []OrderSummary   `json:"recentOrders,omitempty"`
	Wishlist     []WishlistItem   `json:"wishlist,omitempty"`
	CapturedAt   time.Time        `json:"capturedAt"`
}

type CustomerProfile struct {
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt time.Time `json:"joinedAt"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type OrderSummary struct {
	OrderID  string    `json:"orderId"`
	Status   string    `json:"status"`
	Total    int64     `json:"total"`
	PlacedAt time.Time `json:"placedAt"`
}

type WishlistItem struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
}

// Conversation Invariants:
// 1. Exactly one of CustomerUserID / GuestSessionID is set.
// 2. AgentID unset <=> Status == waiting. Assignment only transitions
//    unset -> set; there is no reassignment.
// 3. Status closed is terminal: no appends, no claim, ClosedAt set once.
// 4. Messages are append-only in Sequence order.
type Conversation struct {
	ID             string          `json:"id"`
	CustomerUserID string          `json:"customerUserId,omitempty"`
	GuestSessionID string          `json:"guestSessionId,omitempty"`
	CustomerName   string          `json:"customerName"`
	CustomerEmail  string          `json:"customerEmail,omitempty"`
	AgentID        string          `json:"agentId,omitempty"`
	Status         Status          `json:"status"`
	Context        CustomerContext `json:"customerContext"`
	Messages       []*Message      `json:"messages"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	ClosedAt       *time.Time      `json:"closedAt,omitempty"`
}

// NewConversation builds a waiting conversation. Guest id generation is the
// caller's responsibility so the identity step stays visible in the write
// path: exactly one of userID / guestID must be supplied.
func NewConversation(id, userID, guestID, name, email string, now time.Time) (*Conversation, error) {
	if id == "" || name == "" {
		return nil, ErrInvalidInput
	}
	if (userID == "") == (guestID == "") {
		return nil, ErrInvalidInput
	}

	return &Conversation{
		ID:             id,
		CustomerUserID: userID,
		GuestSessionID: guestID,
		CustomerName:   name,
		CustomerEmail:  email,
		Status:         StatusWaiting,
		Messages:       []*Message{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanAppend reports whether the conversation still accepts messages.
func (c *Conversation) CanAppend() error {
	if c.Status == StatusClosed {
		return ErrConversationClosed
	}
	return nil
}

// Claim assigns the agent. Fails if any agent is already assigned, including
// the same one; claiming is a one-shot transition.
func (c *Conversation) Claim(agentID string, now time.Time) error {
	if agentID == "" {
		return ErrInvalidInput
	}
	if c.Status == StatusClosed {
		return ErrConversationClosed
	}
	if c.AgentID != "" {
		return ErrAlreadyClaimed
	}
	c.AgentID = agentID
	c.Status = StatusActive
	c.UpdatedAt = now
	return nil
}

// Close makes the conversation terminal. A second close is an error and must
// not touch ClosedAt again.
func (c *Conversation) Close(now time.Time) error {
	if c.Status == StatusClosed {
		return ErrAlreadyClosed
	}
	c.Status = StatusClosed
	c.ClosedAt = &now
	c.UpdatedAt = now
	return nil
}

// Append attaches a persisted message to the in-memory aggregate.
func (c *Conversation) Append(msg *Message, now time.Time) error {
	if err := c.CanAppend(); err != nil {
		return err
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = now
	return nil
}
