package contracts

import (
	"context"
	"time"
)

// PresenceStore mirrors in-memory presence into Redis so that other
// processes (REST replicas, future nodes) can read who is online. The
// in-memory registry stays authoritative for broadcast decisions.
type PresenceStore interface {
	// MarkOnline refreshes the TTL-based entry for a user.
	MarkOnline(ctx context.Context, userID string, ttl time.Duration) error
	// MarkOffline drops the user's entry immediately.
	MarkOffline(ctx context.Context, userID string) error
	// OnlineUsers returns user ids whose entries have not expired.
	OnlineUsers(ctx context.Context) ([]string, error)
}
