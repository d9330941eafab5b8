/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteGateway persists puzzles and chat logs in a single SQLite file.
type sqliteGateway struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteGateway, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	dsn := "file:" + filepath.ToSlash(path) + "?cache=shared" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	g := &sqliteGateway{db: db}
	if err := g.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return g, nil
}

func (g *sqliteGateway) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS puzzles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL DEFAULT '',
			difficulty TEXT,
			status TEXT,
			sdx TEXT NOT NULL,
			sdx_solution TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS chat_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			puzzle_id INTEGER NOT NULL,
			username TEXT NOT NULL,
			color TEXT NOT NULL,
			message TEXT NOT NULL,
			time INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_logs_puzzle_time ON chat_logs(puzzle_id, time, id);`,
	}

	for _, stmt := range stmts {
		if _, err := g.db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func (g *sqliteGateway) Close() error {
	return g.db.Close()
}

func (g *sqliteGateway) scanPuzzle(row *sql.Row) (Puzzle, error) {
	var (
		p   Puzzle
		sdx string
	)

	err := row.Scan(&p.ID, &p.Title, &sdx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
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

func (g *sqliteGateway) LoadPuzzle(ctx context.Context, id int64) (Puzzle, error) {
	return g.scanPuzzle(g.db.QueryRowContext(ctx,
		`SELECT id, title, sdx FROM puzzles WHERE id = ?;`, id))
}

func (g *sqliteGateway) LoadRandomPuzzle(ctx context.Context) (Puzzle, error) {
	return g.scanPuzzle(g.db.QueryRowContext(ctx,
		`SELECT id, title, sdx FROM puzzles ORDER BY RANDOM() LIMIT 1;`))
}

func (g *sqliteGateway) SaveBoard(ctx context.Context, id int64, board Board) error {
	res, err := g.db.ExecContext(ctx,
		`UPDATE puzzles SET sdx = ? WHERE id = ?;`, board.MarshalSDX(), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPuzzleNotFound
	}

	return nil
}

func (g *sqliteGateway) LoadSolution(ctx context.Context, id int64) (Solution, error) {
	var sdx sql.NullString

	err := g.db.QueryRowContext(ctx,
		`SELECT sdx_solution FROM puzzles WHERE id = ?;`, id).Scan(&sdx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Solution{}, ErrSolutionNotFound
	case err != nil:
		return Solution{}, err
	case !sdx.Valid || strings.TrimSpace(sdx.String) == "":
		return Solution{}, ErrSolutionNotFound
	}

	return ParseSolution(sdx.String)
}

func (g *sqliteGateway) AppendChat(ctx context.Context, roomID int64, entry ChatEntry) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO chat_logs(puzzle_id, username, color, message, time) VALUES(?, ?, ?, ?, ?);`,
		roomID, entry.User, entry.Color, entry.Text, entry.Time)

	return err
}

func (g *sqliteGateway) LoadChat(ctx context.Context, roomID int64, limit int) ([]ChatEntry, error) {
	query := `SELECT username, color, message, time
			  FROM chat_logs
			  WHERE puzzle_id = ?
			  ORDER BY time ASC, id ASC;`
	args := []any{roomID}

	reverse := false
	if limit > 0 {
		query = `SELECT username, color, message, time
				 FROM chat_logs
				 WHERE puzzle_id = ?
				 ORDER BY time DESC, id DESC
				 LIMIT ?;`
		args = append(args, limit)
		reverse = true
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ChatEntry{}
	for rows.Next() {
		var e ChatEntry
		if err := rows.Scan(&e.User, &e.Color, &e.Text, &e.Time); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}

	return out, nil
}

func (g *sqliteGateway) ListPuzzles(ctx context.Context) ([]PuzzleSummary, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, title, COALESCE(difficulty, ''), COALESCE(status, '')
		 FROM puzzles ORDER BY id DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PuzzleSummary{}
	for rows.Next() {
		var p PuzzleSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Difficulty, &p.Status); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

func (g *sqliteGateway) PuzzleSDX(ctx context.Context, id int64) (PuzzleSummary, string, error) {
	var (
		p   PuzzleSummary
		sdx string
	)

	err := g.db.QueryRowContext(ctx,
		`SELECT id, title, COALESCE(difficulty, ''), COALESCE(status, ''), sdx
		 FROM puzzles WHERE id = ?;`, id).Scan(&p.ID, &p.Title, &p.Difficulty, &p.Status, &sdx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return PuzzleSummary{}, "", ErrPuzzleNotFound
	case err != nil:
		return PuzzleSummary{}, "", err
	}

	return p, sdx, nil
}

func (g *sqliteGateway) InsertPuzzle(ctx context.Context, p PuzzleRecord) (int64, error) {
	if _, err := ParseSDX(p.SDX); err != nil {
		return 0, err
	}

	res, err := g.db.ExecContext(ctx,
		`INSERT INTO puzzles(title, difficulty, status, sdx, sdx_solution) VALUES(?, ?, ?, ?, ?);`,
		p.Title, nullStringOrValue(p.Difficulty), nullStringOrValue(p.Status), p.SDX, nullStringOrValue(p.SolutionSDX))
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func nullStringOrValue(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
