package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
)

// Registry indexes the live sessions of one socket channel and the rooms
// they subscribe to. Broadcast reaches exactly the sessions currently in
// a room's set: joins take effect immediately, unregistered sessions are
// gone before the next fan-out.
//
// If a worker hook is installed, a worker goroutine is spawned when a
// room's membership set is first created and cancelled once it empties.
type Registry struct {
	log       *slog.Logger
	mu        sync.RWMutex
	sessions  map[string]contracts.Client
	rooms     map[string]map[string]contracts.Client
	joined    map[string]map[string]struct{} // sessionID → roomIDs, for Unregister
	workers   map[string]context.CancelFunc
	runWorker func(ctx context.Context, roomID string) error
}

func New(log *slog.Logger) *Registry {
	return &Registry{
		log:      log,
		sessions: make(map[string]contracts.Client),
		rooms:    make(map[string]map[string]contracts.Client),
		joined:   make(map[string]map[string]struct{}),
		workers:  make(map[string]context.CancelFunc),
	}
}

// RunWorker installs the per-room worker hook. Must be called before any
// session joins a room.
func (h *Registry) RunWorker(runWorker func(ctx context.Context, roomID string) error) {
	h.runWorker = runWorker
}

func (h *Registry) Register(c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[c.SessionID()] = c
	h.joined[c.SessionID()] = make(map[string]struct{})
}

func (h *Registry) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for roomID := range h.joined[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.joined, sessionID)
	delete(h.sessions, sessionID)
}

func (h *Registry) Join(roomID string, c contracts.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sessionID := c.SessionID()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]contracts.Client)
		if h.runWorker != nil {
			ctx, cancel := context.WithCancel(context.Background())
			h.workers[roomID] = cancel
			go h.runWorker(ctx, roomID)
		}
	}
	h.rooms[roomID][sessionID] = c
	if h.joined[sessionID] == nil {
		h.joined[sessionID] = make(map[string]struct{})
	}
	h.joined[sessionID][roomID] = struct{}{}
}

func (h *Registry) Leave(roomID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(roomID, sessionID)
	delete(h.joined[sessionID], roomID)
}

func (h *Registry) leaveLocked(roomID, sessionID string) {
	delete(h.rooms[roomID], sessionID)
	if len(h.rooms[roomID]) == 0 {
		delete(h.rooms, roomID)
		if cancel := h.workers[roomID]; cancel != nil {
			cancel()
			delete(h.workers, roomID)
		}
	}
}

func (h *Registry) Broadcast(ctx context.Context, roomID string, event any, excludeSessionID string) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorContext(ctx, "registry - broadcast - marshal failed", "room_id", roomID, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sid, c := range h.rooms[roomID] {
		if sid == excludeSessionID {
			continue
		}
		if err := c.Send(ctx, data); err != nil {
			h.log.DebugContext(ctx, "registry - broadcast - send failed", "room_id", roomID, "session_id", sid, "err", err)
		}
	}
}

func (h *Registry) BroadcastAll(ctx context.Context, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorContext(ctx, "registry - broadcast all - marshal failed", "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sid, c := range h.sessions {
		if err := c.Send(ctx, data); err != nil {
			h.log.DebugContext(ctx, "registry - broadcast all - send failed", "session_id", sid, "err", err)
		}
	}
}

func (h *Registry) SendTo(ctx context.Context, sessionID string, event any) bool {
	h.mu.RLock()
	c := h.sessions[sessionID]
	h.mu.RUnlock()
	if c == nil {
		return false
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.ErrorContext(ctx, "registry - send to - marshal failed", "session_id", sessionID, "err", err)
		return false
	}
	return c.Send(ctx, data) == nil
}

// Stats reports the current room and session counts.
func (h *Registry) Stats() (rooms, sessions int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms), len(h.sessions)
}
