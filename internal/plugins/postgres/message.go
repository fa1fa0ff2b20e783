package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
)

/*
	CREATE TABLE messages (
		id              UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id       TEXT NOT NULL,
		sender_name     TEXT NOT NULL DEFAULT '',
		type            TEXT NOT NULL DEFAULT 'text',
		content         TEXT NOT NULL DEFAULT '',
		media_url       TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE message_reads (
		message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		PRIMARY KEY (message_id, user_id)
	);

	CREATE TABLE message_reactions (
		message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		emoji      TEXT NOT NULL,
		PRIMARY KEY (message_id, user_id)
	);
*/

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts the message with its initial read receipt (the sender)
// and fills in the server-assigned created_at.
func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ConversationID == uuid.Nil {
		return domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, type, content, media_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.SenderName, msg.Type, msg.Content, msg.MediaURL).Scan(&msg.CreatedAt)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, msg.ID, msg.SenderID)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, msgID uuid.UUID) (*domain.Message, error) {
	if msgID == uuid.Nil {
		return nil, domain.ErrInvalidMessageID
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, messageSelect+` WHERE m.id = $1 GROUP BY m.id`, msgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, domain.ErrMessageNotFound
	}
	return &msgs[0], nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, convID uuid.UUID, limit int) ([]domain.Message, error) {
	if convID == uuid.Nil {
		return nil, domain.ErrInvalidConversationID
	}
	if limit <= 0 {
		limit = 100
	}
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx,
		messageSelect+` WHERE m.conversation_id = $1 GROUP BY m.id ORDER BY m.created_at ASC LIMIT $2`,
		convID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *MessageRepo) MarkAllRead(ctx context.Context, convID uuid.UUID, userID string) error {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO message_reads (message_id, user_id)
		SELECT id, $2 FROM messages WHERE conversation_id = $1
		ON CONFLICT DO NOTHING
	`, convID, userID)
	return err
}

func (r *MessageRepo) UpsertReaction(ctx context.Context, msgID uuid.UUID, userID, emoji string) ([]domain.Reaction, error) {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO message_reactions (message_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id) DO UPDATE SET emoji = EXCLUDED.emoji
	`, msgID, userID, emoji)
	if err != nil {
		return nil, err
	}
	rows, err := exec.QueryContext(ctx, `
		SELECT user_id, emoji FROM message_reactions WHERE message_id = $1 ORDER BY user_id
	`, msgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reactions := []domain.Reaction{}
	for rows.Next() {
		var re domain.Reaction
		if err := rows.Scan(&re.UserID, &re.Emoji); err != nil {
			return nil, err
		}
		reactions = append(reactions, re)
	}
	return reactions, rows.Err()
}

func (r *MessageRepo) Delete(ctx context.Context, msgID uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, msgID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepo) DeleteByConversation(ctx context.Context, convID uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, convID)
	return err
}

const messageSelect = `
	SELECT m.id, m.conversation_id, m.sender_id, m.sender_name, m.type, m.content, m.media_url, m.created_at,
	       coalesce((SELECT array_agg(mr.user_id ORDER BY mr.user_id) FROM message_reads mr WHERE mr.message_id = m.id), '{}'),
	       coalesce((SELECT json_agg(json_build_object('userId', x.user_id, 'emoji', x.emoji) ORDER BY x.user_id)
	                 FROM message_reactions x WHERE x.message_id = m.id), '[]')
	FROM messages m`

func scanMessages(rows *sql.Rows) ([]domain.Message, error) {
	var msgs []domain.Message
	for rows.Next() {
		var (
			m            domain.Message
			readBy       []string
			reactionsRaw []byte
		)
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.SenderID,
			&m.SenderName,
			&m.Type,
			&m.Content,
			&m.MediaURL,
			&m.CreatedAt,
			&textArray{&readBy},
			&reactionsRaw,
		); err != nil {
			return nil, err
		}
		m.ReadBy = readBy
		m.Reactions = []domain.Reaction{}
		if err := json.Unmarshal(reactionsRaw, &m.Reactions); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
