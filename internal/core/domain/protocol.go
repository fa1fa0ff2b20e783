package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Client → server event names, one vocabulary per channel.
const (
	// messaging
	EvtSendMessage = "send_message"
	EvtTyping      = "typing"
	EvtMarkRead    = "mark_read"
	EvtReact       = "react"
	// listen-together
	EvtJoinRoom    = "join_room"
	EvtPlayPause   = "play_pause"
	EvtSeek        = "seek"
	EvtChangeTrack = "change_track"
	EvtRoomChat    = "room_chat"
	EvtRoomReact   = "room_react"
	// chess matchmaking
	EvtJoinQueue = "join_queue"
	EvtMove      = "move"
)

// Server → client event names.
const (
	EvtNewMessage           = "new_message"
	EvtTypingIndicator      = "typing_indicator"
	EvtMessagesRead         = "messages_read"
	EvtReactionUpdate       = "reaction_update"
	EvtPresenceUpdate       = "presence_update"
	EvtMessageDeleted       = "message_deleted"
	EvtConversationDeleted  = "conversation_deleted"
	EvtSyncState            = "sync_state"
	EvtUserJoined           = "user_joined"
	EvtTrackChanged         = "track_changed"
	EvtRoomChatMessage      = "room_chat_message"
	EvtRoomReaction         = "room_reaction"
	EvtQueueStatus          = "queue_status"
	EvtMatchFound           = "match_found"
	EvtOpponentMove         = "opponent_move"
	EvtOpponentDisconnected = "opponent_disconnected"
	EvtError                = "error"
)

// Envelope carries the event name plus the raw body; handlers sniff
// Type first and then decode the body into the matching struct.
// Anything that fails to decode is dropped without a reply.
type Envelope struct {
	Type string `json:"type"`
}

// ── messaging channel ────────────────────────────────────────────────

type SendMessageEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	SenderName     string    `json:"senderName"`
	Type           string    `json:"type,omitempty"` // message type, defaults to "text"
	Content        string    `json:"content"`
	MediaURL       string    `json:"mediaUrl,omitempty"`
}

type TypingEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	SenderName     string    `json:"senderName"`
	Typing         bool      `json:"typing"`
}

type MarkReadEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
}

type ReactEvent struct {
	MessageID uuid.UUID `json:"messageId"`
	Emoji     string    `json:"emoji"`
}

type NewMessage struct {
	Type    string  `json:"type"` // "new_message"
	Message Message `json:"message"`
}

type TypingIndicator struct {
	Type       string `json:"type"` // "typing_indicator"
	UserID     string `json:"userId"`
	SenderName string `json:"senderName"`
	Typing     bool   `json:"typing"`
}

type MessagesRead struct {
	Type           string `json:"type"` // "messages_read"
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

type ReactionUpdate struct {
	Type      string     `json:"type"` // "reaction_update"
	MessageID string     `json:"messageId"`
	Reactions []Reaction `json:"reactions"`
}

type PresenceUpdate struct {
	Type   string `json:"type"` // "presence_update"
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

type MessageDeleted struct {
	Type      string `json:"type"` // "message_deleted"
	MessageID string `json:"messageId"`
}

type ConversationDeleted struct {
	Type           string `json:"type"` // "conversation_deleted"
	ConversationID string `json:"conversationId"`
}

// ── listen-together channel ──────────────────────────────────────────

type JoinRoomEvent struct {
	RoomID uuid.UUID `json:"roomId"`
}

type PlayPauseEvent struct {
	RoomID      uuid.UUID `json:"roomId"`
	IsPlaying   bool      `json:"isPlaying"`
	CurrentTime float64   `json:"currentTime"`
}

type SeekEvent struct {
	RoomID      uuid.UUID `json:"roomId"`
	CurrentTime float64   `json:"currentTime"`
}

type ChangeTrackEvent struct {
	RoomID     uuid.UUID `json:"roomId"`
	TrackIndex int       `json:"trackIndex"`
}

type RoomChatEvent struct {
	RoomID  uuid.UUID `json:"roomId"`
	Message string    `json:"message"`
}

type RoomReactEvent struct {
	RoomID uuid.UUID `json:"roomId"`
	Emoji  string    `json:"emoji"`
}

// SyncState mirrors the original wire shape: play_pause and seek emit
// only the fields they changed, join replies with the full snapshot.
type SyncState struct {
	Type              string   `json:"type"` // "sync_state"
	CurrentTrackIndex *int     `json:"currentTrackIndex,omitempty"`
	CurrentTime       *float64 `json:"currentTime,omitempty"`
	IsPlaying         *bool    `json:"isPlaying,omitempty"`
}

type UserJoined struct {
	Type     string `json:"type"` // "user_joined"
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type TrackChanged struct {
	Type       string `json:"type"` // "track_changed"
	TrackIndex int    `json:"trackIndex"`
}

type RoomChatMessage struct {
	Type          string `json:"type"` // "room_chat_message"
	RoomChatEntry        // entry fields are flattened into the event
}

type RoomReaction struct {
	Type     string `json:"type"` // "room_reaction"
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Emoji    string `json:"emoji"`
}

// ── chess matchmaking channel ────────────────────────────────────────

type MoveEvent struct {
	MatchID string          `json:"matchId"`
	Move    json.RawMessage `json:"move"`
}

type QueueStatus struct {
	Type   string `json:"type"` // "queue_status"
	Status string `json:"status"`
}

type MatchFound struct {
	Type    string `json:"type"` // "match_found"
	MatchID string `json:"matchId"`
	Color   string `json:"color"`
}

type OpponentMove struct {
	Type string          `json:"type"` // "opponent_move"
	Move json.RawMessage `json:"move"`
}

type OpponentDisconnected struct {
	Type string `json:"type"` // "opponent_disconnected"
}

// ── shared ───────────────────────────────────────────────────────────

// ErrorEvent is only ever sent to the session whose mutation failed.
type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func NewErrorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: EvtError, Message: msg}
}
