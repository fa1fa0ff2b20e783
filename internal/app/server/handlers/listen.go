package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Billy-Gatez/spacebook-social/internal/app/registry"
	"github.com/Billy-Gatez/spacebook-social/internal/app/server/ws"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
	"github.com/Billy-Gatez/spacebook-social/internal/platform/logger"
	"github.com/Billy-Gatez/spacebook-social/pkg/middleware"

	"github.com/google/uuid"
)

// ListenHandler owns the /ws/listen channel. A session belongs to at
// most one listen room at a time; a second join_room moves it.
type ListenHandler struct {
	hub    *registry.Registry
	listen *services.ListenRoomService
}

func NewListenHandler(hub *registry.Registry, listen *services.ListenRoomService) *ListenHandler {
	return &ListenHandler{hub: hub, listen: listen}
}

func (h *ListenHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		http.Error(w, "Unauthorized: User ID missing", http.StatusUnauthorized)
		return
	}
	userName, _ := r.Context().Value(middleware.UserNameKey).(string)

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "listen handler - ws upgrade failed", "err", err)
		cancel()
		return
	}
	socket := ws.NewWebSocket(ctx, conn)
	defer socket.Close()

	sessionID := uuid.NewString()
	client := ws.NewClient(ctx, socket, sessionID, userID, userName)
	h.hub.Register(client)
	defer h.hub.Unregister(sessionID)
	defer cancel()

	log.InfoContext(ctx, "listen handler - connection established", "user_id", userID, "session_id", sessionID)

	// currentRoom tracks the single room this session sits in. Only the
	// read loop goroutine touches it.
	var currentRoom uuid.UUID

	socket.ReadLoop(func(data []byte) {
		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return
		}
		switch env.Type {
		case domain.EvtJoinRoom:
			var evt domain.JoinRoomEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.RoomID == uuid.Nil {
				return
			}
			if currentRoom != uuid.Nil && currentRoom != evt.RoomID {
				h.hub.Leave(currentRoom.String(), sessionID)
			}
			currentRoom = evt.RoomID
			h.listen.JoinRoom(ctx, client, evt.RoomID)
		case domain.EvtPlayPause:
			var evt domain.PlayPauseEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.RoomID != currentRoom {
				return
			}
			h.listen.PlayPause(ctx, client, evt.RoomID, evt.IsPlaying, evt.CurrentTime)
		case domain.EvtSeek:
			var evt domain.SeekEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.RoomID != currentRoom {
				return
			}
			h.listen.Seek(ctx, client, evt.RoomID, evt.CurrentTime)
		case domain.EvtChangeTrack:
			var evt domain.ChangeTrackEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.RoomID != currentRoom {
				return
			}
			h.listen.ChangeTrack(ctx, client, evt.RoomID, evt.TrackIndex)
		case domain.EvtRoomChat:
			var evt domain.RoomChatEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.RoomID != currentRoom || evt.Message == "" {
				return
			}
			h.listen.RoomChat(ctx, client, evt.RoomID, evt.Message)
		case domain.EvtRoomReact:
			var evt domain.RoomReactEvent
			if err := json.Unmarshal(data, &evt); err != nil || evt.RoomID != currentRoom || evt.Emoji == "" {
				return
			}
			h.listen.RoomReact(ctx, client, evt.RoomID, evt.Emoji)
		default:
			log.DebugContext(ctx, "listen handler - unknown event dropped", "type", env.Type)
		}
	})
}
