package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
)

/*
	-- Conversations
	CREATE TABLE conversations (
		id          UUID PRIMARY KEY,
		type        TEXT NOT NULL DEFAULT 'dm',
		name        TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE conversation_participants (
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id         TEXT NOT NULL,
		PRIMARY KEY (conversation_id, user_id)
	);
*/

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) FindForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT c.id, c.type, c.name, c.created_at,
		       array_agg(cp.user_id ORDER BY cp.user_id)
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE c.id IN (
			SELECT conversation_id FROM conversation_participants WHERE user_id = $1
		)
		GROUP BY c.id, c.type, c.name, c.created_at
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.Type, &c.Name, &c.CreatedAt, &textArray{&c.ParticipantIDs}); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) GetByID(ctx context.Context, convID uuid.UUID) (*domain.Conversation, error) {
	if convID == uuid.Nil {
		return nil, domain.ErrInvalidConversationID
	}
	exec := GetExecutor(ctx, r.db)
	c := &domain.Conversation{ID: convID}
	err := exec.QueryRowContext(ctx, `
		SELECT c.type, c.name, c.created_at,
		       array_agg(cp.user_id ORDER BY cp.user_id)
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE c.id = $1
		GROUP BY c.type, c.name, c.created_at
	`, convID).Scan(&c.Type, &c.Name, &c.CreatedAt, &textArray{&c.ParticipantIDs})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// CreateDM reuses the existing two-party dm between the same pair if one
// exists; otherwise it creates a fresh conversation.
func (r *ConversationRepo) CreateDM(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	var existingID uuid.UUID
	err := exec.QueryRowContext(ctx, `
		SELECT c.id
		FROM conversations c
		WHERE c.type = 'dm'
		  AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $1)
		  AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
		  AND (SELECT count(*) FROM conversation_participants WHERE conversation_id = c.id) = 2
		LIMIT 1
	`, userA, userB).Scan(&existingID)
	switch {
	case err == nil:
		return r.GetByID(ctx, existingID)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	return r.create(ctx, domain.ConversationDM, "", []string{userA, userB})
}

func (r *ConversationRepo) CreateGroup(ctx context.Context, name string, participantIDs []string) (*domain.Conversation, error) {
	return r.create(ctx, domain.ConversationGroup, name, participantIDs)
}

func (r *ConversationRepo) create(ctx context.Context, convType, name string, participantIDs []string) (*domain.Conversation, error) {
	exec := GetExecutor(ctx, r.db)
	c := &domain.Conversation{
		ID:             uuid.New(),
		Type:           convType,
		Name:           name,
		ParticipantIDs: participantIDs,
	}
	err := exec.QueryRowContext(ctx, `
		INSERT INTO conversations (id, type, name)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, c.ID, c.Type, c.Name).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, userID := range participantIDs {
		if _, err := exec.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, c.ID, userID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *ConversationRepo) Delete(ctx context.Context, convID uuid.UUID) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, convID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}
