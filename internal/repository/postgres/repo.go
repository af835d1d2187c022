package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/comichut/supportdesk/internal/domain"
)

type Repository struct {
	DB *sql.DB
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *Repository) getter(tx *sql.Tx) queryable {
	if tx != nil {
		return tx
	}
	return r.DB
}

const conversationColumns = `
	id, customer_user_id, guest_session_id, customer_name, customer_email,
	agent_id, status, customer_context, created_at, updated_at, closed_at`

func (r *Repository) InsertConversation(
	ctx context.Context,
	tx *sql.Tx,
	conv *domain.Conversation,
) error {
	contextJSON, err := json.Marshal(conv.Context)
	if err != nil {
		return err
	}

	q := r.getter(tx)
	_, err = q.ExecContext(ctx, `
		INSERT INTO conversations (
			id, customer_user_id, guest_session_id, customer_name,
			customer_email, agent_id, status, customer_context,
			created_at, updated_at
		)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), $4, NULLIF($5,''), NULLIF($6,''), $7, $8, $9, $10)
	`,
		conv.ID,
		conv.CustomerUserID,
		conv.GuestSessionID,
		conv.CustomerName,
		conv.CustomerEmail,
		conv.AgentID,
		conv.Status,
		contextJSON,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	return err
}

func (r *Repository) GetConversation(
	ctx context.Context,
	convID string,
) (*domain.Conversation, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1
	`, convID)

	conv, err := scanConversation(row)
	if err != nil {
		return nil, err
	}

	msgs, err := r.fetchMessages(ctx, convID)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return conv, nil
}

func (r *Repository) GetConversationForUpdate(
	ctx context.Context,
	tx *sql.Tx,
	convID string,
) (*domain.Conversation, error) {
	q := r.getter(tx)
	row := q.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1
		FOR UPDATE
	`, convID)

	return scanConversation(row)
}

// ClaimConversation is the exclusivity boundary: a single conditional update,
// never read-then-write. Two racing agents produce exactly one matched row.
func (r *Repository) ClaimConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID, agentID string,
	now time.Time,
) (bool, error) {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE conversations
		SET agent_id = $2, status = $3, updated_at = $4
		WHERE id = $1
		  AND agent_id IS NULL
		  AND status = $5
	`, convID, agentID, domain.StatusActive, now, domain.StatusWaiting)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) CloseConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID string,
	now time.Time,
) (bool, error) {
	q := r.getter(tx)
	res, err := q.ExecContext(ctx, `
		UPDATE conversations
		SET status = $2, closed_at = $3, updated_at = $3
		WHERE id = $1
		  AND status <> $2
	`, convID, domain.StatusClosed, now)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Repository) InsertMessage(
	ctx context.Context,
	tx *sql.Tx,
	msg *domain.Message,
) error {
	var attachments interface{}
	if len(msg.Attachments) > 0 {
		b, err := json.Marshal(msg.Attachments)
		if err != nil {
			return err
		}
		attachments = b
	}

	q := r.getter(tx)
	return q.QueryRowContext(ctx, `
		INSERT INTO messages (
			id, conversation_id, sender_role, sender_name, body, attachments, sent_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`,
		msg.ID,
		msg.ConversationID,
		msg.Sender,
		msg.SenderName,
		msg.Text,
		attachments,
		msg.SentAt,
	).Scan(&msg.Sequence)
}

func (r *Repository) TouchConversation(
	ctx context.Context,
	tx *sql.Tx,
	convID string,
	now time.Time,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		UPDATE conversations SET updated_at = $2 WHERE id = $1
	`, convID, now)
	return err
}

// ListWaiting returns the agent queue, longest-waiting first.
func (r *Repository) ListWaiting(ctx context.Context) ([]*domain.Conversation, error) {
	return r.listByFilter(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE status = $1
		ORDER BY created_at ASC
	`, domain.StatusWaiting)
}

func (r *Repository) ListActiveByAgent(ctx context.Context, agentID string) ([]*domain.Conversation, error) {
	return r.listByFilter(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE status = $1 AND agent_id = $2
		ORDER BY updated_at DESC
	`, domain.StatusActive, agentID)
}

func (r *Repository) FindOpenByCustomer(
	ctx context.Context,
	userID, guestID string,
) (*domain.Conversation, error) {
	var row *sql.Row
	switch {
	case userID != "":
		row = r.DB.QueryRowContext(ctx, `
			SELECT `+conversationColumns+`
			FROM conversations
			WHERE customer_user_id = $1 AND status <> $2
			ORDER BY created_at DESC
			LIMIT 1
		`, userID, domain.StatusClosed)
	case guestID != "":
		row = r.DB.QueryRowContext(ctx, `
			SELECT `+conversationColumns+`
			FROM conversations
			WHERE guest_session_id = $1 AND status <> $2
			ORDER BY created_at DESC
			LIMIT 1
		`, guestID, domain.StatusClosed)
	default:
		return nil, domain.ErrInvalidInput
	}

	conv, err := scanConversation(row)
	if err != nil {
		return nil, err
	}

	msgs, err := r.fetchMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	conv.Messages = msgs
	return conv, nil
}

func (r *Repository) InsertOutbox(
	ctx context.Context,
	tx *sql.Tx,
	topic, key string,
	payload []byte,
) error {
	q := r.getter(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO outbox (id, topic, key, payload) VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), topic, key, payload)
	return err
}

func (r *Repository) listByFilter(ctx context.Context, query string, args ...interface{}) ([]*domain.Conversation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, rows.Err()
}

func (r *Repository) fetchMessages(ctx context.Context, convID string) ([]*domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, conversation_id, seq, sender_role, sender_name, body, attachments, sent_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []*domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var attachments []byte
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Sequence,
			&msg.Sender,
			&msg.SenderName,
			&msg.Text,
			&attachments,
			&msg.SentAt,
		); err != nil {
			return nil, err
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &msg.Attachments); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, &msg)
	}
	return msgs, rows.Err()
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanConversation(row scannable) (*domain.Conversation, error) {
	var conv domain.Conversation
	var userID, guestID, email, agentID sql.NullString
	var contextJSON []byte
	var closedAt sql.NullTime

	err := row.Scan(
		&conv.ID,
		&userID,
		&guestID,
		&conv.CustomerName,
		&email,
		&agentID,
		&conv.Status,
		&contextJSON,
		&conv.CreatedAt,
		&conv.UpdatedAt,
		&closedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}

	conv.CustomerUserID = userID.String
	conv.GuestSessionID = guestID.String
	conv.CustomerEmail = email.String
	conv.AgentID = agentID.String
	if closedAt.Valid {
		conv.ClosedAt = &closedAt.Time
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &conv.Context); err != nil {
			return nil, err
		}
	}
	conv.Messages = []*domain.Message{}
	return &conv, nil
}
