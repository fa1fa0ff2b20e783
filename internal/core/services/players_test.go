package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayerRepo struct {
	players map[string]*domain.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[string]*domain.Player)}
}

func (f *fakePlayerRepo) UpsertRating(_ context.Context, p *domain.Player) (*domain.Player, error) {
	p.UpdatedAt = time.Now()
	copied := *p
	f.players[p.Username] = &copied
	return p, nil
}

func (f *fakePlayerRepo) GetByUsername(_ context.Context, username string) (*domain.Player, error) {
	p, ok := f.players[username]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlayerRepo) ListTop(_ context.Context, limit int) ([]domain.Player, error) {
	out := make([]domain.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, *p)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newPlayerFixture() (*PlayerService, *fakePlayerRepo) {
	repo := newFakePlayerRepo()
	return NewPlayerService(slog.Default(), repo, passthroughTx{}), repo
}

func TestPlayers_EqualRatingsMoveBySixteen(t *testing.T) {
	svc, _ := newPlayerFixture()

	w, l, err := svc.ReportResult(context.Background(), "alice", "bob", false)
	require.NoError(t, err)

	assert.Equal(t, 1216, w.Rating)
	assert.Equal(t, 1184, l.Rating)
	assert.Equal(t, 1, w.Wins)
	assert.Equal(t, 1, l.Losses)
}

func TestPlayers_DrawBetweenEqualsChangesNothing(t *testing.T) {
	svc, _ := newPlayerFixture()

	w, l, err := svc.ReportResult(context.Background(), "alice", "bob", true)
	require.NoError(t, err)

	assert.Equal(t, 1200, w.Rating)
	assert.Equal(t, 1200, l.Rating)
	assert.Equal(t, 1, w.Draws)
	assert.Equal(t, 1, l.Draws)
}

func TestPlayers_UpsetPaysMoreThanExpectedWin(t *testing.T) {
	svc, repo := newPlayerFixture()
	repo.players["underdog"] = &domain.Player{Username: "underdog", Rating: 1000}
	repo.players["champ"] = &domain.Player{Username: "champ", Rating: 1400}

	w, l, err := svc.ReportResult(context.Background(), "underdog", "champ", false)
	require.NoError(t, err)

	gain := w.Rating - 1000
	assert.Greater(t, gain, 16, "beating a stronger player pays more")
	assert.Equal(t, 1400-gain, l.Rating, "the exchange is zero sum")
}

func TestPlayers_ResultsAccumulate(t *testing.T) {
	svc, repo := newPlayerFixture()

	_, _, err := svc.ReportResult(context.Background(), "alice", "bob", false)
	require.NoError(t, err)
	_, _, err = svc.ReportResult(context.Background(), "alice", "bob", false)
	require.NoError(t, err)

	alice := repo.players["alice"]
	assert.Equal(t, 2, alice.Wins)
	assert.Greater(t, alice.Rating, 1216)
	bob := repo.players["bob"]
	assert.Equal(t, 2, bob.Losses)
}

func TestPlayers_RejectsDegenerateInput(t *testing.T) {
	svc, repo := newPlayerFixture()

	_, _, err := svc.ReportResult(context.Background(), "alice", "alice", false)
	assert.Error(t, err)
	_, _, err = svc.ReportResult(context.Background(), "", "bob", false)
	assert.Error(t, err)
	assert.Empty(t, repo.players)
}

func TestPlayers_LeaderboardClampsLimit(t *testing.T) {
	svc, repo := newPlayerFixture()
	for _, name := range []string{"a", "b", "c"} {
		repo.players[name] = &domain.Player{Username: name, Rating: 1200}
	}

	players, err := svc.Leaderboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, players, 2)

	players, err = svc.Leaderboard(context.Background(), -5)
	require.NoError(t, err)
	assert.Len(t, players, 3, "invalid limit falls back to the default")
}

func TestEloPair(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int
		scoreA float64
		wantA  int
		wantB  int
	}{
		{"equal ratings win", 1200, 1200, 1.0, 1216, 1184},
		{"equal ratings draw", 1200, 1200, 0.5, 1200, 1200},
		{"favorite wins small", 1400, 1000, 1.0, 1403, 997},
		{"underdog draw gains", 1000, 1400, 0.5, 1013, 1387},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotA, gotB := eloPair(tt.a, tt.b, tt.scoreA)
			assert.Equal(t, tt.wantA, gotA)
			assert.Equal(t, tt.wantB, gotB)
		})
	}
}
