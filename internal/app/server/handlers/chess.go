package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Billy-Gatez/spacebook-social/internal/app/server/ws"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
	"github.com/Billy-Gatez/spacebook-social/internal/platform/logger"

	"github.com/google/uuid"
)

// ChessHandler owns the /ws/chess channel. The channel is anonymous by
// design: no token, no registry, the matchmaker holds the only
// references to the two peers of a match.
type ChessHandler struct {
	matchmaking *services.MatchmakingService
}

func NewChessHandler(matchmaking *services.MatchmakingService) *ChessHandler {
	return &ChessHandler{matchmaking: matchmaking}
}

func (h *ChessHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "chess handler - ws upgrade failed", "err", err)
		cancel()
		return
	}
	socket := ws.NewWebSocket(ctx, conn)
	defer socket.Close()

	sessionID := uuid.NewString()
	client := ws.NewClient(ctx, socket, sessionID, "", "")

	// Disconnect clears the waiting slot or dissolves the match before
	// the connection is torn down.
	defer h.matchmaking.Disconnect(ctx, client)
	defer cancel()

	log.InfoContext(ctx, "chess handler - connection established", "session_id", sessionID)

	socket.ReadLoop(func(data []byte) {
		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return
		}
		switch env.Type {
		case domain.EvtJoinQueue:
			h.matchmaking.JoinQueue(ctx, client)
		case domain.EvtMove:
			var evt domain.MoveEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.MatchID == "" {
				return
			}
			h.matchmaking.RelayMove(ctx, client, evt.MatchID, evt.Move)
		default:
			log.DebugContext(ctx, "chess handler - unknown event dropped", "type", env.Type)
		}
	})
}
