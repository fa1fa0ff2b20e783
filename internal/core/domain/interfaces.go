package domain

import (
	"context"

	"github.com/google/uuid"
)

// ConversationRepository handles conversation lifecycle and membership.
type ConversationRepository interface {
	// FindForUser lists every conversation the user participates in,
	// used at connect time to subscribe the session to its rooms.
	FindForUser(ctx context.Context, userID string) ([]Conversation, error)
	GetByID(ctx context.Context, convID uuid.UUID) (*Conversation, error)
	// CreateDM reuses an existing two-party dm between the same users.
	CreateDM(ctx context.Context, userA, userB string) (*Conversation, error)
	CreateGroup(ctx context.Context, name string, participantIDs []string) (*Conversation, error)
	Delete(ctx context.Context, convID uuid.UUID) error
}

// MessageRepository handles message persistence and per-message state
// (read receipts, reactions).
type MessageRepository interface {
	// Create inserts the message and returns the server-assigned
	// created_at. The caller provides the id; readBy starts as the
	// sender alone.
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, msgID uuid.UUID) (*Message, error)
	ListByConversation(ctx context.Context, convID uuid.UUID, limit int) ([]Message, error)
	// MarkAllRead appends userID to readBy on every message of the
	// conversation it has not read yet. Idempotent.
	MarkAllRead(ctx context.Context, convID uuid.UUID, userID string) error
	// UpsertReaction stores one reaction per (message, user), latest
	// emoji wins, and returns the message's full reaction list.
	UpsertReaction(ctx context.Context, msgID uuid.UUID, userID, emoji string) ([]Reaction, error)
	Delete(ctx context.Context, msgID uuid.UUID) error
	DeleteByConversation(ctx context.Context, convID uuid.UUID) error
}

// ListenRoomRepository owns the canonical playback state of listen rooms.
type ListenRoomRepository interface {
	GetSnapshot(ctx context.Context, roomID uuid.UUID) (*ListenRoomState, error)
	// AddParticipant has add-to-set semantics; re-joining is a no-op.
	AddParticipant(ctx context.Context, roomID uuid.UUID, userID string) error
	UpdatePlayback(ctx context.Context, roomID uuid.UUID, update PlaybackUpdate) error
	AppendChat(ctx context.Context, roomID uuid.UUID, entry *RoomChatEntry) error
}

// PlayerRepository holds the chess leaderboard.
type PlayerRepository interface {
	// UpsertRating creates the player on first sight and overwrites
	// rating and win/loss/draw counters otherwise.
	UpsertRating(ctx context.Context, p *Player) (*Player, error)
	GetByUsername(ctx context.Context, username string) (*Player, error)
	ListTop(ctx context.Context, limit int) ([]Player, error)
}
