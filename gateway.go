/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrPuzzleNotFound   = errors.New("puzzle not found")
	ErrSolutionNotFound = errors.New("solution not found")
)

// Puzzle is a stored board as loaded for a room.
type Puzzle struct {
	ID    int64
	Title string
	Board Board
}

// PuzzleSummary is one row of the puzzle listing.
type PuzzleSummary struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Status     string `json:"status"`
}

// ChatEntry is one line of a room's chat log. Time is unix milliseconds.
type ChatEntry struct {
	User  string `json:"user"`
	Color string `json:"color"`
	Text  string `json:"text"`
	Time  int64  `json:"time"`
}

// Gateway is everything the room engine needs from storage. Implementations
// must be safe for concurrent use.
type Gateway interface {
	LoadPuzzle(ctx context.Context, id int64) (Puzzle, error)
	LoadRandomPuzzle(ctx context.Context) (Puzzle, error)
	SaveBoard(ctx context.Context, id int64, board Board) error
	LoadSolution(ctx context.Context, id int64) (Solution, error)
	AppendChat(ctx context.Context, roomID int64, entry ChatEntry) error
	LoadChat(ctx context.Context, roomID int64, limit int) ([]ChatEntry, error)
	ListPuzzles(ctx context.Context) ([]PuzzleSummary, error)
	PuzzleSDX(ctx context.Context, id int64) (PuzzleSummary, string, error)
	InsertPuzzle(ctx context.Context, p PuzzleRecord) (int64, error)
	Close() error
}

// PuzzleRecord is a full row as written by the importer.
type PuzzleRecord struct {
	Title       string
	Difficulty  string
	Status      string
	SDX         string
	SolutionSDX string
}

func openGateway(ctx context.Context, cfg *Config) (Gateway, error) {
	if cfg.databaseURL != "" {
		g, err := openPostgres(ctx, cfg.databaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return g, nil
	}

	g, err := openSQLite(cfg.database)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.database, err)
	}
	return g, nil
}
