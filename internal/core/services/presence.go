package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
)

const presenceTTL = 90 * time.Second

// PresenceService tracks which users are reachable over the messaging
// channel. A user is online iff it has at least one live session. The
// in-memory map is authoritative; every transition is mirrored into the
// Redis presence store best effort so other processes can read it.
type PresenceService struct {
	log      *slog.Logger
	registry contracts.Registry
	store    contracts.PresenceStore

	mu     sync.Mutex
	online map[string]map[string]struct{} // userID → sessionIDs
}

func NewPresenceService(
	log *slog.Logger,
	registry contracts.Registry,
	store contracts.PresenceStore,
) *PresenceService {
	return &PresenceService{
		log:      log,
		registry: registry,
		store:    store,
		online:   make(map[string]map[string]struct{}),
	}
}

// Connect registers the session under the user. The first session of a
// user broadcasts an online transition to every messaging connection.
// Duplicate calls for the same session are idempotent.
func (p *PresenceService) Connect(ctx context.Context, userID, sessionID string) {
	p.mu.Lock()
	sessions, known := p.online[userID]
	if !known {
		sessions = make(map[string]struct{})
		p.online[userID] = sessions
	}
	sessions[sessionID] = struct{}{}
	first := !known
	p.mu.Unlock()

	if first {
		p.registry.BroadcastAll(ctx, domain.PresenceUpdate{
			Type:   domain.EvtPresenceUpdate,
			UserID: userID,
			Online: true,
		})
	}
	if err := p.store.MarkOnline(ctx, userID, presenceTTL); err != nil {
		p.log.WarnContext(ctx, "presence - connect - redis mirror failed", "user_id", userID, "err", err)
	}
	p.log.InfoContext(ctx, "presence - connect - session registered", "user_id", userID, "session_id", sessionID, "first_session", first)
}

// Disconnect removes the session. When the user's last session goes,
// exactly one offline transition is broadcast and the entry is deleted.
// Disconnecting a session that was never registered is a no-op.
func (p *PresenceService) Disconnect(ctx context.Context, userID, sessionID string) {
	p.mu.Lock()
	sessions, known := p.online[userID]
	if !known {
		p.mu.Unlock()
		return
	}
	if _, member := sessions[sessionID]; !member {
		p.mu.Unlock()
		return
	}
	delete(sessions, sessionID)
	last := len(sessions) == 0
	if last {
		delete(p.online, userID)
	}
	p.mu.Unlock()

	if !last {
		return
	}
	p.registry.BroadcastAll(ctx, domain.PresenceUpdate{
		Type:   domain.EvtPresenceUpdate,
		UserID: userID,
		Online: false,
	})
	if err := p.store.MarkOffline(ctx, userID); err != nil {
		p.log.WarnContext(ctx, "presence - disconnect - redis mirror failed", "user_id", userID, "err", err)
	}
	p.log.InfoContext(ctx, "presence - disconnect - user offline", "user_id", userID, "session_id", sessionID)
}

// IsOnline is a pure lookup with no side effects.
func (p *PresenceService) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.online[userID]) > 0
}

// OnlineUsers lists everyone currently reachable: the local sessions
// merged with the Redis mirror, so users connected to other replicas
// show up too. Mirror read failures degrade to the local view.
func (p *PresenceService) OnlineUsers(ctx context.Context) []string {
	p.mu.Lock()
	users := make([]string, 0, len(p.online))
	seen := make(map[string]struct{}, len(p.online))
	for u := range p.online {
		users = append(users, u)
		seen[u] = struct{}{}
	}
	p.mu.Unlock()

	mirrored, err := p.store.OnlineUsers(ctx)
	if err != nil {
		p.log.WarnContext(ctx, "presence - online users - redis mirror read failed", "err", err)
	}
	for _, u := range mirrored {
		if _, ok := seen[u]; !ok {
			users = append(users, u)
		}
	}
	slices.Sort(users)
	return users
}

// Refresh re-arms the Redis TTL for a user's mirror entry. Called from
// the connection heartbeat.
func (p *PresenceService) Refresh(ctx context.Context, userID string) {
	if !p.IsOnline(userID) {
		return
	}
	if err := p.store.MarkOnline(ctx, userID, presenceTTL); err != nil {
		p.log.WarnContext(ctx, "presence - refresh - redis mirror failed", "user_id", userID, "err", err)
	}
}
