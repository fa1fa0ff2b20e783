package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeListenRoomRepo struct {
	states       map[uuid.UUID]*domain.ListenRoomState
	participants map[uuid.UUID][]string
	chat         map[uuid.UUID][]domain.RoomChatEntry
	failNext     error
}

func newFakeListenRoomRepo() *fakeListenRoomRepo {
	return &fakeListenRoomRepo{
		states:       make(map[uuid.UUID]*domain.ListenRoomState),
		participants: make(map[uuid.UUID][]string),
		chat:         make(map[uuid.UUID][]domain.RoomChatEntry),
	}
}

func (f *fakeListenRoomRepo) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeListenRoomRepo) GetSnapshot(_ context.Context, roomID uuid.UUID) (*domain.ListenRoomState, error) {
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	state, ok := f.states[roomID]
	if !ok {
		return nil, domain.ErrListenRoomNotFound
	}
	copied := *state
	return &copied, nil
}

func (f *fakeListenRoomRepo) AddParticipant(_ context.Context, roomID uuid.UUID, userID string) error {
	if err := f.takeErr(); err != nil {
		return err
	}
	if _, ok := f.states[roomID]; !ok {
		return domain.ErrListenRoomNotFound
	}
	f.participants[roomID] = append(f.participants[roomID], userID)
	return nil
}

func (f *fakeListenRoomRepo) UpdatePlayback(_ context.Context, roomID uuid.UUID, update domain.PlaybackUpdate) error {
	if err := f.takeErr(); err != nil {
		return err
	}
	state, ok := f.states[roomID]
	if !ok {
		return domain.ErrListenRoomNotFound
	}
	if update.CurrentTrackIndex != nil {
		state.CurrentTrackIndex = *update.CurrentTrackIndex
	}
	if update.CurrentTime != nil {
		state.CurrentTime = *update.CurrentTime
	}
	if update.IsPlaying != nil {
		state.IsPlaying = *update.IsPlaying
	}
	return nil
}

func (f *fakeListenRoomRepo) AppendChat(_ context.Context, roomID uuid.UUID, entry *domain.RoomChatEntry) error {
	if err := f.takeErr(); err != nil {
		return err
	}
	f.chat[roomID] = append(f.chat[roomID], *entry)
	return nil
}

func newListenFixture() (*ListenRoomService, *fakeRegistry, *fakeListenRoomRepo, uuid.UUID) {
	reg := newFakeRegistry()
	repo := newFakeListenRoomRepo()
	roomID := uuid.New()
	repo.states[roomID] = &domain.ListenRoomState{CurrentTrackIndex: 2, CurrentTime: 42.5, IsPlaying: true}
	return NewListenRoomService(slog.Default(), reg, repo), reg, repo, roomID
}

func TestListenRoom_JoinSyncsTheJoiner(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	c := &fakeClient{sessionID: "s1", userID: "alice", displayName: "Alice"}

	svc.JoinRoom(context.Background(), c, roomID)

	assert.Equal(t, []string{"s1"}, reg.joined[roomID.String()])
	assert.Equal(t, []string{"alice"}, repo.participants[roomID])

	// others learn about the join, sender excluded
	require.Len(t, reg.broadcasts, 1)
	joinedEvt, ok := reg.broadcasts[0].event.(domain.UserJoined)
	require.True(t, ok)
	assert.Equal(t, "alice", joinedEvt.UserID)
	assert.Equal(t, "Alice", joinedEvt.UserName)
	assert.Equal(t, "s1", reg.broadcasts[0].exclude)

	// the joiner gets the full snapshot
	require.Len(t, reg.sends, 1)
	assert.Equal(t, "s1", reg.sends[0].sessionID)
	sync, ok := reg.sends[0].event.(domain.SyncState)
	require.True(t, ok)
	require.NotNil(t, sync.CurrentTrackIndex)
	assert.Equal(t, 2, *sync.CurrentTrackIndex)
	require.NotNil(t, sync.CurrentTime)
	assert.Equal(t, 42.5, *sync.CurrentTime)
	require.NotNil(t, sync.IsPlaying)
	assert.True(t, *sync.IsPlaying)
}

func TestListenRoom_JoinUnknownRoomReportsError(t *testing.T) {
	svc, reg, _, _ := newListenFixture()
	c := &fakeClient{sessionID: "s1", userID: "alice"}

	svc.JoinRoom(context.Background(), c, uuid.New())

	assert.Empty(t, reg.broadcasts)
	require.Len(t, reg.sends, 1)
	evt, ok := reg.sends[0].event.(domain.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, domain.EvtError, evt.Type)
}

func TestListenRoom_PlayPauseExcludesSender(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	c := &fakeClient{sessionID: "s1", userID: "alice"}

	svc.PlayPause(context.Background(), c, roomID, false, 60.0)

	assert.False(t, repo.states[roomID].IsPlaying)
	assert.Equal(t, 60.0, repo.states[roomID].CurrentTime)

	require.Len(t, reg.broadcasts, 1)
	assert.Equal(t, "s1", reg.broadcasts[0].exclude)
	sync := reg.broadcasts[0].event.(domain.SyncState)
	require.NotNil(t, sync.IsPlaying)
	assert.False(t, *sync.IsPlaying)
	assert.Nil(t, sync.CurrentTrackIndex, "play_pause never touches the track")
}

func TestListenRoom_SeekLeavesPlayStateAlone(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	c := &fakeClient{sessionID: "s1"}

	svc.Seek(context.Background(), c, roomID, 10.0)

	assert.Equal(t, 10.0, repo.states[roomID].CurrentTime)
	assert.True(t, repo.states[roomID].IsPlaying)

	sync := reg.broadcasts[0].event.(domain.SyncState)
	assert.Nil(t, sync.IsPlaying)
	require.NotNil(t, sync.CurrentTime)
	assert.Equal(t, 10.0, *sync.CurrentTime)
}

func TestListenRoom_ChangeTrackResetsAndIncludesSender(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	c := &fakeClient{sessionID: "s1"}

	svc.ChangeTrack(context.Background(), c, roomID, 7)

	state := repo.states[roomID]
	assert.Equal(t, 7, state.CurrentTrackIndex)
	assert.Zero(t, state.CurrentTime)
	assert.True(t, state.IsPlaying)

	require.Len(t, reg.broadcasts, 1)
	assert.Empty(t, reg.broadcasts[0].exclude, "sender re-syncs from the broadcast too")
	changed := reg.broadcasts[0].event.(domain.TrackChanged)
	assert.Equal(t, 7, changed.TrackIndex)
}

func TestListenRoom_ChatPersistsThenBroadcastsToAll(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	c := &fakeClient{sessionID: "s1", userID: "alice", displayName: "Alice"}

	svc.RoomChat(context.Background(), c, roomID, "great song")

	require.Len(t, repo.chat[roomID], 1)
	assert.Equal(t, "great song", repo.chat[roomID][0].Message)

	require.Len(t, reg.broadcasts, 1)
	assert.Empty(t, reg.broadcasts[0].exclude)
	msg := reg.broadcasts[0].event.(domain.RoomChatMessage)
	assert.Equal(t, "Alice", msg.UserName)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestListenRoom_ChatPersistFailureStopsBroadcast(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	repo.failNext = assert.AnError
	c := &fakeClient{sessionID: "s1", userID: "alice"}

	svc.RoomChat(context.Background(), c, roomID, "lost")

	assert.Empty(t, reg.broadcasts)
	require.Len(t, reg.sends, 1)
	_, isErr := reg.sends[0].event.(domain.ErrorEvent)
	assert.True(t, isErr, "only the sender hears about the failure")
}

func TestListenRoom_ReactionIsEphemeral(t *testing.T) {
	svc, reg, repo, roomID := newListenFixture()
	c := &fakeClient{sessionID: "s1", userID: "alice", displayName: "Alice"}

	svc.RoomReact(context.Background(), c, roomID, "🔥")

	assert.Empty(t, repo.chat[roomID], "reactions are never persisted")
	require.Len(t, reg.broadcasts, 1)
	react := reg.broadcasts[0].event.(domain.RoomReaction)
	assert.Equal(t, "🔥", react.Emoji)
	assert.Equal(t, "alice", react.UserID)
}
