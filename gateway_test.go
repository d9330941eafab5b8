/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
)

// memoryGateway keeps everything in process memory, with optional injected
// failures per operation.
type memoryGateway struct {
	mu       sync.Mutex
	nextID   int64
	puzzles  map[int64]*PuzzleRecord
	chats    map[int64][]ChatEntry
	failures map[string]error
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{
		puzzles:  make(map[int64]*PuzzleRecord),
		chats:    make(map[int64][]ChatEntry),
		failures: make(map[string]error),
	}
}

// failOn makes every later call of the named operation return err.
func (g *memoryGateway) failOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.failures[op] = err
}

func (g *memoryGateway) failure(op string) error {
	return g.failures[op]
}

func (g *memoryGateway) InsertPuzzle(_ context.Context, p PuzzleRecord) (int64, error) {
	if _, err := ParseSDX(p.SDX); err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	rec := p
	g.puzzles[g.nextID] = &rec

	return g.nextID, nil
}

func (g *memoryGateway) puzzleLocked(id int64) (Puzzle, error) {
	rec, ok := g.puzzles[id]
	if !ok {
		return Puzzle{}, ErrPuzzleNotFound
	}

	board, err := ParseSDX(rec.SDX)
	if err != nil {
		return Puzzle{}, err
	}

	return Puzzle{ID: id, Title: rec.Title, Board: board}, nil
}

func (g *memoryGateway) LoadPuzzle(_ context.Context, id int64) (Puzzle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("LoadPuzzle"); err != nil {
		return Puzzle{}, err
	}

	return g.puzzleLocked(id)
}

func (g *memoryGateway) LoadRandomPuzzle(_ context.Context) (Puzzle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("LoadRandomPuzzle"); err != nil {
		return Puzzle{}, err
	}

	if len(g.puzzles) == 0 {
		return Puzzle{}, ErrPuzzleNotFound
	}

	ids := make([]int64, 0, len(g.puzzles))
	for id := range g.puzzles {
		ids = append(ids, id)
	}

	return g.puzzleLocked(ids[rand.IntN(len(ids))])
}

func (g *memoryGateway) SaveBoard(_ context.Context, id int64, board Board) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("SaveBoard"); err != nil {
		return err
	}

	rec, ok := g.puzzles[id]
	if !ok {
		return ErrPuzzleNotFound
	}
	rec.SDX = board.MarshalSDX()

	return nil
}

func (g *memoryGateway) LoadSolution(_ context.Context, id int64) (Solution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("LoadSolution"); err != nil {
		return Solution{}, err
	}

	rec, ok := g.puzzles[id]
	if !ok || rec.SolutionSDX == "" {
		return Solution{}, ErrSolutionNotFound
	}

	return ParseSolution(rec.SolutionSDX)
}

func (g *memoryGateway) AppendChat(_ context.Context, roomID int64, entry ChatEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("AppendChat"); err != nil {
		return err
	}

	g.chats[roomID] = append(g.chats[roomID], entry)

	return nil
}

func (g *memoryGateway) LoadChat(_ context.Context, roomID int64, limit int) ([]ChatEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("LoadChat"); err != nil {
		return nil, err
	}

	entries := g.chats[roomID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	return append([]ChatEntry{}, entries...), nil
}

func (g *memoryGateway) ListPuzzles(_ context.Context) ([]PuzzleSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]PuzzleSummary, 0, len(g.puzzles))
	for id, rec := range g.puzzles {
		out = append(out, PuzzleSummary{ID: id, Title: rec.Title, Difficulty: rec.Difficulty, Status: rec.Status})
	}
	slices.SortFunc(out, func(a, b PuzzleSummary) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	return out, nil
}

func (g *memoryGateway) PuzzleSDX(_ context.Context, id int64) (PuzzleSummary, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.puzzles[id]
	if !ok {
		return PuzzleSummary{}, "", ErrPuzzleNotFound
	}

	return PuzzleSummary{ID: id, Title: rec.Title, Difficulty: rec.Difficulty, Status: rec.Status}, rec.SDX, nil
}

func (g *memoryGateway) Close() error {
	return nil
}
