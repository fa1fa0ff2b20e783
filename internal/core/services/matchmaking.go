package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
)

const (
	ColorWhite = "white"
	ColorBlack = "black"

	StatusWaiting = "waiting"
)

// matchRecord is the side table entry linking a session to its match.
// The opponent reference is a lookup relation only; connection lifetime
// is owned by the transport.
type matchRecord struct {
	matchID  string
	opponent contracts.Client
}

// MatchmakingService pairs anonymous chess connections in arrival order
// and relays moves between the two peers of a match. One waiting slot,
// process wide: Empty → Waiting → (paired → Empty).
type MatchmakingService struct {
	log *slog.Logger

	mu      sync.Mutex
	waiting contracts.Client
	matches map[string]*matchRecord // sessionID → record
}

func NewMatchmakingService(log *slog.Logger) *MatchmakingService {
	return &MatchmakingService{
		log:     log,
		matches: make(map[string]*matchRecord),
	}
}

// JoinQueue either parks the session in the waiting slot or pairs it
// with the session already waiting. The waiting side plays white, the
// arriving side black, and both learn the shared match id. A session
// that is already waiting is never paired with itself; it just gets the
// waiting acknowledgment again.
func (m *MatchmakingService) JoinQueue(ctx context.Context, c contracts.Client) {
	m.mu.Lock()
	if m.waiting == nil {
		m.waiting = c
		m.mu.Unlock()
		m.send(ctx, c, domain.QueueStatus{Type: domain.EvtQueueStatus, Status: StatusWaiting})
		m.log.InfoContext(ctx, "matchmaking - join queue - waiting", "session_id", c.SessionID())
		return
	}
	if m.waiting.SessionID() == c.SessionID() {
		m.mu.Unlock()
		m.send(ctx, c, domain.QueueStatus{Type: domain.EvtQueueStatus, Status: StatusWaiting})
		m.log.InfoContext(ctx, "matchmaking - join queue - self pairing rejected", "session_id", c.SessionID())
		return
	}

	white := m.waiting
	m.waiting = nil
	matchID := uuid.NewString()
	m.matches[white.SessionID()] = &matchRecord{matchID: matchID, opponent: c}
	m.matches[c.SessionID()] = &matchRecord{matchID: matchID, opponent: white}
	m.mu.Unlock()

	m.send(ctx, white, domain.MatchFound{Type: domain.EvtMatchFound, MatchID: matchID, Color: ColorWhite})
	m.send(ctx, c, domain.MatchFound{Type: domain.EvtMatchFound, MatchID: matchID, Color: ColorBlack})
	m.log.InfoContext(ctx, "matchmaking - join queue - paired",
		"match_id", matchID, "white", white.SessionID(), "black", c.SessionID())
}

// RelayMove forwards the move verbatim to the session's opponent. No
// legality checking happens here. A move against a finished or foreign
// match is silently dropped.
func (m *MatchmakingService) RelayMove(ctx context.Context, c contracts.Client, matchID string, move json.RawMessage) {
	m.mu.Lock()
	rec := m.matches[c.SessionID()]
	m.mu.Unlock()
	if rec == nil || rec.matchID != matchID {
		return
	}
	m.send(ctx, rec.opponent, domain.OpponentMove{Type: domain.EvtOpponentMove, Move: move})
}

// Disconnect clears the waiting slot if this session holds it and, if
// the session is mid-match, notifies the opponent and dissolves the
// match. Any later RelayMove from the opponent is then a no-op.
func (m *MatchmakingService) Disconnect(ctx context.Context, c contracts.Client) {
	sessionID := c.SessionID()

	m.mu.Lock()
	if m.waiting != nil && m.waiting.SessionID() == sessionID {
		m.waiting = nil
	}
	rec := m.matches[sessionID]
	delete(m.matches, sessionID)
	var opponent contracts.Client
	if rec != nil {
		opponent = rec.opponent
		delete(m.matches, opponent.SessionID())
	}
	m.mu.Unlock()

	if opponent == nil {
		return
	}
	m.send(ctx, opponent, domain.OpponentDisconnected{Type: domain.EvtOpponentDisconnected})
	m.log.InfoContext(ctx, "matchmaking - disconnect - match abandoned",
		"match_id", rec.matchID, "session_id", sessionID, "opponent", opponent.SessionID())
}

// send is best effort: notification failures are logged and swallowed,
// queue state is never affected by them.
func (m *MatchmakingService) send(ctx context.Context, c contracts.Client, event any) bool {
	data, err := json.Marshal(event)
	if err != nil {
		m.log.ErrorContext(ctx, "matchmaking - send - marshal failed", "session_id", c.SessionID(), "err", err)
		return false
	}
	if err := c.Send(ctx, data); err != nil {
		m.log.DebugContext(ctx, "matchmaking - send - delivery failed", "session_id", c.SessionID(), "err", err)
		return false
	}
	return true
}
