package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/app/registry"
	"github.com/Billy-Gatez/spacebook-social/internal/app/server/ws"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
	"github.com/Billy-Gatez/spacebook-social/internal/platform/logger"
	"github.com/Billy-Gatez/spacebook-social/pkg/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten later
	},
}

// MessagingHandler owns the /ws/messaging channel: presence, the
// conversation subscriptions, and the inbound event loop.
type MessagingHandler struct {
	hub       *registry.Registry
	messaging *services.MessagingService
	presence  *services.PresenceService
}

func NewMessagingHandler(
	hub *registry.Registry,
	messaging *services.MessagingService,
	presence *services.PresenceService,
) *MessagingHandler {
	return &MessagingHandler{
		hub:       hub,
		messaging: messaging,
		presence:  presence,
	}
}

func (h *MessagingHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	span := trace.SpanFromContext(r.Context())
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		log.ErrorContext(r.Context(), "messaging handler - unauthorised missing user_id")
		http.Error(w, "Unauthorized: User ID missing", http.StatusUnauthorized)
		return
	}
	userName, _ := r.Context().Value(middleware.UserNameKey).(string)
	span.SetAttributes(attribute.String("user.id", userID))

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "messaging handler - ws upgrade failed", "err", err)
		cancel()
		return
	}
	socket := ws.NewWebSocket(ctx, conn)
	defer socket.Close()

	sessionID := uuid.NewString()
	client := ws.NewClient(ctx, socket, sessionID, userID, userName)
	span.SetAttributes(attribute.String("chat.session_id", sessionID))

	h.hub.Register(client)
	h.presence.Connect(ctx, userID, sessionID)

	// Disconnect ordering matters: every cleanup runs synchronously
	// before the handler returns, so no event for this session can
	// arrive after it is gone.
	defer h.presence.Disconnect(sessionCtx, userID, sessionID)
	defer h.hub.Unregister(sessionID)
	defer cancel()

	// Conversation rooms are joined before the read loop starts so an
	// immediate message is not missed.
	if err := h.messaging.HandleConnect(ctx, client); err != nil {
		log.ErrorContext(ctx, "messaging handler - handle connect failed", "user_id", userID, "err", err)
		return
	}
	log.InfoContext(ctx, "messaging handler - connection established", "user_id", userID, "session_id", sessionID)

	go h.heartbeat(ctx, userID)

	socket.ReadLoop(func(data []byte) {
		h.messaging.HandleEvent(ctx, client, data)
	})
}

// heartbeat keeps the Redis presence mirror warm while connected.
func (h *MessagingHandler) heartbeat(ctx context.Context, userID string) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.presence.Refresh(ctx, userID)
		}
	}
}
