package services

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
)

const (
	defaultRating = 1200
	ratingK       = 32
)

// PlayerService maintains the chess leaderboard. Ratings move by a
// standard Elo update with K=32; unknown players start at 1200.
type PlayerService struct {
	log       *slog.Logger
	repo      domain.PlayerRepository
	txManager Transactor
}

func NewPlayerService(log *slog.Logger, repo domain.PlayerRepository, txManager Transactor) *PlayerService {
	return &PlayerService{
		log:       log,
		repo:      repo,
		txManager: txManager,
	}
}

// ReportResult records a finished match between two named players.
// Draw is reported with draw=true, in which case winner/loser order
// carries no meaning.
func (s *PlayerService) ReportResult(ctx context.Context, winner, loser string, draw bool) (*domain.Player, *domain.Player, error) {
	if winner == "" || loser == "" || winner == loser {
		return nil, nil, errors.New("two distinct player names required")
	}
	var w, l *domain.Player
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var txErr error
		if w, txErr = s.getOrDefault(txCtx, winner); txErr != nil {
			return txErr
		}
		if l, txErr = s.getOrDefault(txCtx, loser); txErr != nil {
			return txErr
		}

		winnerScore := 1.0
		if draw {
			winnerScore = 0.5
		}
		wNew, lNew := eloPair(w.Rating, l.Rating, winnerScore)
		w.Rating, l.Rating = wNew, lNew
		switch {
		case draw:
			w.Draws++
			l.Draws++
		default:
			w.Wins++
			l.Losses++
		}

		if w, txErr = s.repo.UpsertRating(txCtx, w); txErr != nil {
			return txErr
		}
		l, txErr = s.repo.UpsertRating(txCtx, l)
		return txErr
	})
	if err != nil {
		s.log.ErrorContext(ctx, "players - report result - failed", "winner", winner, "loser", loser, "err", err)
		return nil, nil, err
	}
	s.log.InfoContext(ctx, "players - report result - recorded",
		"winner", winner, "loser", loser, "draw", draw, "winner_rating", w.Rating, "loser_rating", l.Rating)
	return w, l, nil
}

func (s *PlayerService) Leaderboard(ctx context.Context, limit int) ([]domain.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	return s.repo.ListTop(ctx, limit)
}

func (s *PlayerService) getOrDefault(ctx context.Context, username string) (*domain.Player, error) {
	p, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return &domain.Player{Username: username, Rating: defaultRating}, nil
	}
	return nil, err
}

// eloPair returns the updated ratings given the first player's score
// (1 win, 0.5 draw).
func eloPair(a, b int, scoreA float64) (int, int) {
	expectedA := 1 / (1 + math.Pow(10, float64(b-a)/400))
	deltaA := ratingK * (scoreA - expectedA)
	return a + int(math.Round(deltaA)), b - int(math.Round(deltaA))
}
