package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/core/contracts"
	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var listenTracer = otel.Tracer("listenroom-service")

// ListenRoomService keeps the participants of a listen room in playback
// lockstep. Mutations are persisted first, then fanned out; convergence
// is last-writer-wins with no cross-sender ordering guarantee.
type ListenRoomService struct {
	log      *slog.Logger
	registry contracts.Registry
	repo     domain.ListenRoomRepository
}

func NewListenRoomService(
	log *slog.Logger,
	registry contracts.Registry,
	repo domain.ListenRoomRepository,
) *ListenRoomService {
	return &ListenRoomService{
		log:      log,
		registry: registry,
		repo:     repo,
	}
}

// JoinRoom subscribes the session to the room, persists the user into
// the participant set, notifies the other members, and replies to the
// joiner with the current snapshot so a late joiner syncs immediately.
func (s *ListenRoomService) JoinRoom(ctx context.Context, c contracts.Client, roomID uuid.UUID) {
	ctx, span := listenTracer.Start(ctx, "ListenRoomService.JoinRoom", trace.WithAttributes(
		attribute.String("room_id", roomID.String()),
		attribute.String("user_id", c.UserID()),
	))
	defer span.End()

	room := roomID.String()
	s.registry.Join(room, c)

	if err := s.repo.AddParticipant(ctx, roomID, c.UserID()); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "listenroom - join room - add participant failed", "room_id", room, "user_id", c.UserID(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to join room"))
		return
	}

	s.registry.Broadcast(ctx, room, domain.UserJoined{
		Type:     domain.EvtUserJoined,
		UserID:   c.UserID(),
		UserName: c.DisplayName(),
	}, c.SessionID())

	snapshot, err := s.repo.GetSnapshot(ctx, roomID)
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "listenroom - join room - snapshot fetch failed", "room_id", room, "err", err)
		return
	}
	s.registry.SendTo(ctx, c.SessionID(), domain.SyncState{
		Type:              domain.EvtSyncState,
		CurrentTrackIndex: &snapshot.CurrentTrackIndex,
		CurrentTime:       &snapshot.CurrentTime,
		IsPlaying:         &snapshot.IsPlaying,
	})
	s.log.InfoContext(ctx, "listenroom - join room - joined", "room_id", room, "user_id", c.UserID())
}

// PlayPause persists the new flags and syncs the other members. The
// sender already applied its own intent locally, so it is excluded to
// avoid a feedback loop.
func (s *ListenRoomService) PlayPause(ctx context.Context, c contracts.Client, roomID uuid.UUID, isPlaying bool, currentTime float64) {
	update := domain.PlaybackUpdate{IsPlaying: &isPlaying, CurrentTime: &currentTime}
	if err := s.repo.UpdatePlayback(ctx, roomID, update); err != nil {
		s.log.ErrorContext(ctx, "listenroom - play pause - persist failed", "room_id", roomID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to update playback"))
		return
	}
	s.registry.Broadcast(ctx, roomID.String(), domain.SyncState{
		Type:        domain.EvtSyncState,
		IsPlaying:   &isPlaying,
		CurrentTime: &currentTime,
	}, c.SessionID())
}

// Seek persists and syncs the position only; play/pause is untouched.
func (s *ListenRoomService) Seek(ctx context.Context, c contracts.Client, roomID uuid.UUID, currentTime float64) {
	update := domain.PlaybackUpdate{CurrentTime: &currentTime}
	if err := s.repo.UpdatePlayback(ctx, roomID, update); err != nil {
		s.log.ErrorContext(ctx, "listenroom - seek - persist failed", "room_id", roomID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to seek"))
		return
	}
	s.registry.Broadcast(ctx, roomID.String(), domain.SyncState{
		Type:        domain.EvtSyncState,
		CurrentTime: &currentTime,
	}, c.SessionID())
}

// ChangeTrack resets the room to the start of the new track, playing.
// The broadcast includes the sender so every client, originator too,
// re-syncs to the canonical reset state.
func (s *ListenRoomService) ChangeTrack(ctx context.Context, c contracts.Client, roomID uuid.UUID, trackIndex int) {
	zero := 0.0
	playing := true
	update := domain.PlaybackUpdate{
		CurrentTrackIndex: &trackIndex,
		CurrentTime:       &zero,
		IsPlaying:         &playing,
	}
	if err := s.repo.UpdatePlayback(ctx, roomID, update); err != nil {
		s.log.ErrorContext(ctx, "listenroom - change track - persist failed", "room_id", roomID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to change track"))
		return
	}
	s.registry.Broadcast(ctx, roomID.String(), domain.TrackChanged{
		Type:       domain.EvtTrackChanged,
		TrackIndex: trackIndex,
	}, "")
}

// RoomChat persists the timestamped entry under the room, then fans it
// out to every member including the sender.
func (s *ListenRoomService) RoomChat(ctx context.Context, c contracts.Client, roomID uuid.UUID, message string) {
	entry := &domain.RoomChatEntry{
		UserID:    c.UserID(),
		UserName:  c.DisplayName(),
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendChat(ctx, roomID, entry); err != nil {
		s.log.ErrorContext(ctx, "listenroom - room chat - persist failed", "room_id", roomID.String(), "err", err)
		s.registry.SendTo(ctx, c.SessionID(), domain.NewErrorEvent("failed to send chat message"))
		return
	}
	s.registry.Broadcast(ctx, roomID.String(), domain.RoomChatMessage{
		Type:          domain.EvtRoomChatMessage,
		RoomChatEntry: *entry,
	}, "")
}

// RoomReact is ephemeral: broadcast only, never persisted.
func (s *ListenRoomService) RoomReact(ctx context.Context, c contracts.Client, roomID uuid.UUID, emoji string) {
	s.registry.Broadcast(ctx, roomID.String(), domain.RoomReaction{
		Type:     domain.EvtRoomReaction,
		UserID:   c.UserID(),
		UserName: c.DisplayName(),
		Emoji:    emoji,
	}, "")
}
