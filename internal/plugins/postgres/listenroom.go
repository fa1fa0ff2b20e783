package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
)

/*
	CREATE TABLE listen_rooms (
		id                  UUID PRIMARY KEY,
		playlist_id         UUID,
		host_id             TEXT NOT NULL,
		current_track_index INT NOT NULL DEFAULT 0,
		position_secs       DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_playing          BOOLEAN NOT NULL DEFAULT false,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE listen_room_participants (
		room_id UUID NOT NULL REFERENCES listen_rooms(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (room_id, user_id)
	);

	CREATE TABLE listen_room_chat (
		id         BIGSERIAL PRIMARY KEY,
		room_id    UUID NOT NULL REFERENCES listen_rooms(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		user_name  TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

type ListenRoomRepo struct {
	db *sql.DB
}

func NewListenRoomRepo(db *sql.DB) *ListenRoomRepo {
	return &ListenRoomRepo{db: db}
}

func (r *ListenRoomRepo) GetSnapshot(ctx context.Context, roomID uuid.UUID) (*domain.ListenRoomState, error) {
	exec := GetExecutor(ctx, r.db)
	state := &domain.ListenRoomState{}
	err := exec.QueryRowContext(ctx, `
		SELECT current_track_index, position_secs, is_playing
		FROM listen_rooms WHERE id = $1
	`, roomID).Scan(&state.CurrentTrackIndex, &state.CurrentTime, &state.IsPlaying)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrListenRoomNotFound
		}
		return nil, err
	}
	return state, nil
}

func (r *ListenRoomRepo) AddParticipant(ctx context.Context, roomID uuid.UUID, userID string) error {
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		INSERT INTO listen_room_participants (room_id, user_id)
		SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM listen_rooms WHERE id = $1)
		ON CONFLICT DO NOTHING
	`, roomID, userID)
	if err != nil {
		return err
	}
	// Zero rows means either "already a participant" (fine) or "no such
	// room"; distinguish so join can fail loudly on the latter.
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := exec.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM listen_rooms WHERE id = $1)`, roomID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrListenRoomNotFound
		}
	}
	return nil
}

func (r *ListenRoomRepo) UpdatePlayback(ctx context.Context, roomID uuid.UUID, update domain.PlaybackUpdate) error {
	sets := make([]string, 0, 3)
	args := []any{roomID}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if update.CurrentTrackIndex != nil {
		add("current_track_index", *update.CurrentTrackIndex)
	}
	if update.CurrentTime != nil {
		add("position_secs", *update.CurrentTime)
	}
	if update.IsPlaying != nil {
		add("is_playing", *update.IsPlaying)
	}
	if len(sets) == 0 {
		return nil
	}
	query := "UPDATE listen_rooms SET " + joinSets(sets) + " WHERE id = $1"
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrListenRoomNotFound
	}
	return nil
}

func (r *ListenRoomRepo) AppendChat(ctx context.Context, roomID uuid.UUID, entry *domain.RoomChatEntry) error {
	exec := GetExecutor(ctx, r.db)
	return exec.QueryRowContext(ctx, `
		INSERT INTO listen_room_chat (room_id, user_id, user_name, message)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, roomID, entry.UserID, entry.UserName, entry.Message).Scan(&entry.CreatedAt)
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
