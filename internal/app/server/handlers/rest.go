package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
	"github.com/Billy-Gatez/spacebook-social/internal/platform/logger"
	"github.com/Billy-Gatez/spacebook-social/pkg/middleware"

	"github.com/google/uuid"
)

// RestHandler serves the HTTP companion surface: conversation CRUD,
// message history, presence lookups, and the chess leaderboard.
type RestHandler struct {
	messaging *services.MessagingService
	presence  *services.PresenceService
	players   *services.PlayerService
}

func NewRestHandler(
	messaging *services.MessagingService,
	presence *services.PresenceService,
	players *services.PlayerService,
) *RestHandler {
	return &RestHandler{
		messaging: messaging,
		presence:  presence,
		players:   players,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// GET /api/conversations
func (h *RestHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)

	convs, err := h.messaging.ListConversations(r.Context(), userID)
	if err != nil {
		log.ErrorContext(r.Context(), "rest handler - list conversations failed", "user_id", userID, "err", err)
		http.Error(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

// POST /api/conversations/dm
func (h *RestHandler) CreateDM(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)

	var req struct {
		TargetID string `json:"targetId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID == "" || req.TargetID == userID {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	conv, err := h.messaging.CreateDM(r.Context(), userID, req.TargetID)
	if err != nil {
		log.ErrorContext(r.Context(), "rest handler - create dm failed", "user_id", userID, "target_id", req.TargetID, "err", err)
		http.Error(w, "failed to create conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// POST /api/conversations/group
func (h *RestHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)

	var req struct {
		Name           string   `json:"name"`
		ParticipantIDs []string `json:"participantIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || len(req.ParticipantIDs) == 0 {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	conv, err := h.messaging.CreateGroup(r.Context(), userID, req.Name, req.ParticipantIDs)
	if err != nil {
		log.ErrorContext(r.Context(), "rest handler - create group failed", "user_id", userID, "err", err)
		http.Error(w, "failed to create conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// GET /api/conversations/{id}/messages?limit=50
func (h *RestHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	msgs, err := h.messaging.ListMessages(r.Context(), convID, limit)
	if err != nil {
		log.ErrorContext(r.Context(), "rest handler - list messages failed", "conv_id", convID.String(), "err", err)
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// DELETE /api/conversations/{id}
func (h *RestHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)
	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}
	switch err := h.messaging.DeleteConversation(r.Context(), userID, convID); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrConversationNotFound):
		http.Error(w, "conversation not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotAParticipant):
		http.Error(w, "not a participant", http.StatusForbidden)
	default:
		log.ErrorContext(r.Context(), "rest handler - delete conversation failed", "conv_id", convID.String(), "err", err)
		http.Error(w, "failed to delete conversation", http.StatusInternalServerError)
	}
}

// DELETE /api/messages/{id}
func (h *RestHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)
	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}
	switch err := h.messaging.DeleteMessage(r.Context(), userID, msgID); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrMessageNotFound):
		http.Error(w, "message not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotMessageAuthor):
		http.Error(w, "not the message author", http.StatusForbidden)
	default:
		log.ErrorContext(r.Context(), "rest handler - delete message failed", "message_id", msgID.String(), "err", err)
		http.Error(w, "failed to delete message", http.StatusInternalServerError)
	}
}

// GET /api/presence
func (h *RestHandler) ListPresence(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"online": h.presence.OnlineUsers(r.Context()),
	})
}

// GET /api/presence/{userId}
func (h *RestHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if userID == "" {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"online": h.presence.IsOnline(userID),
	})
}

// GET /api/players?limit=25
func (h *RestHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	players, err := h.players.Leaderboard(r.Context(), limit)
	if err != nil {
		log.ErrorContext(r.Context(), "rest handler - leaderboard failed", "err", err)
		http.Error(w, "failed to list players", http.StatusInternalServerError)
		return
	}
	if players == nil {
		players = []domain.Player{}
	}
	writeJSON(w, http.StatusOK, players)
}

// POST /api/players/result
func (h *RestHandler) ReportResult(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	var req struct {
		Winner string `json:"winner"`
		Loser  string `json:"loser"`
		Draw   bool   `json:"draw"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	winner, loser, err := h.players.ReportResult(r.Context(), req.Winner, req.Loser, req.Draw)
	if err != nil {
		log.ErrorContext(r.Context(), "rest handler - report result failed", "winner", req.Winner, "loser", req.Loser, "err", err)
		http.Error(w, "failed to record result", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"winner": winner,
		"loser":  loser,
	})
}

// GET /healthz
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
