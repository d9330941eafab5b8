/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresGateway is the Gateway for deployments that already run
// PostgreSQL. The schema matches the SQLite one.
type postgresGateway struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, url string) (*postgresGateway, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.MaxConns = 8

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	g := &postgresGateway{pool: pool}
	if err := g.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return g, nil
}

func (g *postgresGateway) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS puzzles (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			difficulty TEXT,
			status TEXT,
			sdx TEXT NOT NULL,
			sdx_solution TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chat_logs (
			id BIGSERIAL PRIMARY KEY,
			puzzle_id BIGINT NOT NULL,
			username TEXT NOT NULL,
			color TEXT NOT NULL,
			message TEXT NOT NULL,
			time BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_logs_puzzle_time ON chat_logs(puzzle_id, time, id)`,
	}

	for _, stmt := range stmts {
		if _, err := g.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}

func (g *postgresGateway) Close() error {
	g.pool.Close()
	return nil
}

func (g *postgresGateway) scanPuzzle(row pgx.Row) (Puzzle, error) {
	var (
		p   Puzzle
		sdx string
	)

	err := row.Scan(&p.ID, &p.Title, &sdx)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Puzzle{}, ErrPuzzleNotFound
	case err != nil:
		return Puzzle{}, err
	}

	p.Board, err = ParseSDX(sdx)
	if err != nil {
		return Puzzle{}, err
	}

	return p, nil
}

func (g *postgresGateway) LoadPuzzle(ctx context.Context, id int64) (Puzzle, error) {
	return g.scanPuzzle(g.pool.QueryRow(ctx,
		`SELECT id, title, sdx FROM puzzles WHERE id = $1`, id))
}

func (g *postgresGateway) LoadRandomPuzzle(ctx context.Context) (Puzzle, error) {
	return g.scanPuzzle(g.pool.QueryRow(ctx,
		`SELECT id, title, sdx FROM puzzles ORDER BY random() LIMIT 1`))
}

func (g *postgresGateway) SaveBoard(ctx context.Context, id int64, board Board) error {
	tag, err := g.pool.Exec(ctx,
		`UPDATE puzzles SET sdx = $1 WHERE id = $2`, board.MarshalSDX(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPuzzleNotFound
	}

	return nil
}

func (g *postgresGateway) LoadSolution(ctx context.Context, id int64) (Solution, error) {
	var sdx *string

	err := g.pool.QueryRow(ctx,
		`SELECT sdx_solution FROM puzzles WHERE id = $1`, id).Scan(&sdx)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Solution{}, ErrSolutionNotFound
	case err != nil:
		return Solution{}, err
	case sdx == nil || strings.TrimSpace(*sdx) == "":
		return Solution{}, ErrSolutionNotFound
	}

	return ParseSolution(*sdx)
}

func (g *postgresGateway) AppendChat(ctx context.Context, roomID int64, entry ChatEntry) error {
	_, err := g.pool.Exec(ctx,
		`INSERT INTO chat_logs(puzzle_id, username, color, message, time) VALUES($1, $2, $3, $4, $5)`,
		roomID, entry.User, entry.Color, entry.Text, entry.Time)

	return err
}

func (g *postgresGateway) LoadChat(ctx context.Context, roomID int64, limit int) ([]ChatEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)

	if limit > 0 {
		rows, err = g.pool.Query(ctx,
			`SELECT username, color, message, time FROM (
				SELECT id, username, color, message, time FROM chat_logs
				WHERE puzzle_id = $1 ORDER BY time DESC, id DESC LIMIT $2
			) recent ORDER BY time ASC, id ASC`, roomID, limit)
	} else {
		rows, err = g.pool.Query(ctx,
			`SELECT username, color, message, time FROM chat_logs
			 WHERE puzzle_id = $1 ORDER BY time ASC, id ASC`, roomID)
	}
	if err != nil {
		return nil, err
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ChatEntry, error) {
		var e ChatEntry
		err := row.Scan(&e.User, &e.Color, &e.Text, &e.Time)
		return e, err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ChatEntry{}
	}

	return out, nil
}

func (g *postgresGateway) ListPuzzles(ctx context.Context) ([]PuzzleSummary, error) {
	rows, err := g.pool.Query(ctx,
		`SELECT id, title, COALESCE(difficulty, ''), COALESCE(status, '')
		 FROM puzzles ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PuzzleSummary, error) {
		var p PuzzleSummary
		err := row.Scan(&p.ID, &p.Title, &p.Difficulty, &p.Status)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []PuzzleSummary{}
	}

	return out, nil
}

func (g *postgresGateway) PuzzleSDX(ctx context.Context, id int64) (PuzzleSummary, string, error) {
	var (
		p   PuzzleSummary
		sdx string
	)

	err := g.pool.QueryRow(ctx,
		`SELECT id, title, COALESCE(difficulty, ''), COALESCE(status, ''), sdx
		 FROM puzzles WHERE id = $1`, id).Scan(&p.ID, &p.Title, &p.Difficulty, &p.Status, &sdx)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return PuzzleSummary{}, "", ErrPuzzleNotFound
	case err != nil:
		return PuzzleSummary{}, "", err
	}

	return p, sdx, nil
}

func (g *postgresGateway) InsertPuzzle(ctx context.Context, p PuzzleRecord) (int64, error) {
	if _, err := ParseSDX(p.SDX); err != nil {
		return 0, err
	}

	var id int64
	err := g.pool.QueryRow(ctx,
		`INSERT INTO puzzles(title, difficulty, status, sdx, sdx_solution)
		 VALUES($1, $2, $3, $4, $5) RETURNING id`,
		p.Title, nullStringOrValue(p.Difficulty), nullStringOrValue(p.Status), p.SDX, nullStringOrValue(p.SolutionSDX)).Scan(&id)

	return id, err
}
