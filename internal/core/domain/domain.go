package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConversationDM    = "dm"
	ConversationGroup = "group"
)

// Conversation is a persisted chat scope (direct or group).
type Conversation struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	Name           string    `json:"name,omitempty"`
	ParticipantIDs []string  `json:"participantIds"`
	CreatedAt      time.Time `json:"createdAt"`
}

const (
	MessageText       = "text"
	MessageImage      = "image"
	MessageVideo      = "video"
	MessageVoice      = "voice"
	MessageSoundcloud = "soundcloud"
)

// Message is a persisted conversation entry. ID and CreatedAt are
// server-assigned; ReadBy always starts as [SenderID].
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	SenderName     string     `json:"senderName"`
	Type           string     `json:"type"`
	Content        string     `json:"content,omitempty"`
	MediaURL       string     `json:"mediaUrl,omitempty"`
	Reactions      []Reaction `json:"reactions"`
	ReadBy         []string   `json:"readBy"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Reaction holds one user's emoji on a message. At most one per
// (message, user); reacting again replaces the emoji.
type Reaction struct {
	UserID string `json:"userId"`
	Emoji  string `json:"emoji"`
}

// ListenRoomState is the persisted playback snapshot of a listen room,
// used to sync late joiners.
type ListenRoomState struct {
	CurrentTrackIndex int     `json:"currentTrackIndex"`
	CurrentTime       float64 `json:"currentTime"`
	IsPlaying         bool    `json:"isPlaying"`
}

// PlaybackUpdate is a partial mutation of a listen room snapshot.
// Nil fields are left untouched.
type PlaybackUpdate struct {
	CurrentTrackIndex *int
	CurrentTime       *float64
	IsPlaying         *bool
}

// RoomChatEntry is a timestamped chat line inside a listen room.
type RoomChatEntry struct {
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Player is a chess leaderboard row.
type Player struct {
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageIngress travels through a conversation stream between the
// socket handler that accepted a message and the worker that persists
// and broadcasts it. SessionID identifies the originating connection
// so a persistence failure can be reported back to it alone.
type MessageIngress struct {
	SessionID      string    `json:"session_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Type           string    `json:"msg_type"`
	Content        string    `json:"content"`
	MediaURL       string    `json:"media_url"`
	AcceptedAt     time.Time `json:"accepted_at"`
}
