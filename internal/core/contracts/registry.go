package contracts

import "context"

// Registry is the room membership index of one socket channel: it maps
// room ids to the sessions subscribed to them and fans events out.
// Messaging and listen-together each get their own instance.
type Registry interface {
	// Register adds a freshly connected session. It holds no room
	// memberships yet.
	Register(c Client)
	// Unregister removes the session from every room it joined and
	// from the session table. The only cancellation primitive.
	Unregister(sessionID string)
	// Join subscribes a session to a room. Idempotent.
	Join(roomID string, c Client)
	// Leave unsubscribes a session from one room.
	Leave(roomID, sessionID string)
	// Broadcast delivers event to every session in the room except
	// excludeSessionID (pass "" to reach everyone). Fire and forget:
	// per-session failures are logged, never returned.
	Broadcast(ctx context.Context, roomID string, event any, excludeSessionID string)
	// BroadcastAll delivers event to every registered session on the
	// channel, used for presence transitions.
	BroadcastAll(ctx context.Context, event any)
	// SendTo delivers event to a single session, best effort. It never
	// panics and reports delivery as a bool so call sites can log.
	SendTo(ctx context.Context, sessionID string, event any) bool
}

// Client is the minimal surface the registry needs from one live
// websocket connection.
type Client interface {
	SessionID() string
	UserID() string
	DisplayName() string
	Send(ctx context.Context, data []byte) error
	Close()
}
