package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Billy-Gatez/spacebook-social/internal/core/domain"
)

/*
	CREATE TABLE players (
		username   TEXT PRIMARY KEY,
		rating     INT NOT NULL DEFAULT 1200,
		wins       INT NOT NULL DEFAULT 0,
		losses     INT NOT NULL DEFAULT 0,
		draws      INT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
*/

type PlayerRepo struct {
	db *sql.DB
}

func NewPlayerRepo(db *sql.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) UpsertRating(ctx context.Context, p *domain.Player) (*domain.Player, error) {
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, `
		INSERT INTO players (username, rating, wins, losses, draws, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (username) DO UPDATE
		SET rating = EXCLUDED.rating,
		    wins = EXCLUDED.wins,
		    losses = EXCLUDED.losses,
		    draws = EXCLUDED.draws,
		    updated_at = now()
		RETURNING updated_at
	`, p.Username, p.Rating, p.Wins, p.Losses, p.Draws).Scan(&p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PlayerRepo) GetByUsername(ctx context.Context, username string) (*domain.Player, error) {
	exec := GetExecutor(ctx, r.db)
	p := &domain.Player{Username: username}
	err := exec.QueryRowContext(ctx, `
		SELECT rating, wins, losses, draws, updated_at
		FROM players WHERE username = $1
	`, username).Scan(&p.Rating, &p.Wins, &p.Losses, &p.Draws, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PlayerRepo) ListTop(ctx context.Context, limit int) ([]domain.Player, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT username, rating, wins, losses, draws, updated_at
		FROM players ORDER BY rating DESC, username ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var players []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.Username, &p.Rating, &p.Wins, &p.Losses, &p.Draws, &p.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
