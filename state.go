/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

const defaultTitle = "Sudoku"

// RoomState is the live, authoritative view of one room's puzzle.
type RoomState struct {
	Board     Board
	Title     string
	incorrect map[Position]struct{}
	cursors   map[string]Position
}

func newRoomState(title string, board Board) *RoomState {
	return &RoomState{
		Board:     board,
		Title:     title,
		incorrect: make(map[Position]struct{}),
		cursors:   make(map[string]Position),
	}
}

// IncorrectCells returns the flagged cells in row-major order.
func (s *RoomState) IncorrectCells() []Position {
	out := make([]Position, 0, len(s.incorrect))
	for p := range s.incorrect {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (s *RoomState) setIncorrect(cells []Position) {
	s.incorrect = make(map[Position]struct{}, len(cells))
	for _, p := range cells {
		s.incorrect[p] = struct{}{}
	}
}

func (s *RoomState) isIncorrect(p Position) bool {
	_, ok := s.incorrect[p]
	return ok
}

// hydration is the result of resolving a requested room against storage.
type hydration struct {
	requested   int64
	puzzle      Puzzle
	substituted bool
}

// StateStore caches one RoomState per room id for the life of the process
// and writes boards back to the gateway in the order they changed.
type StateStore struct {
	cfg     *Config
	gateway Gateway
	states  map[int64]*RoomState
	saves   chan savedBoard
	done    chan struct{}
}

type savedBoard struct {
	roomID int64
	board  Board
}

func newStateStore(cfg *Config, gateway Gateway) *StateStore {
	return &StateStore{
		cfg:     cfg,
		gateway: gateway,
		states:  make(map[int64]*RoomState),
		saves:   make(chan savedBoard, 256),
		done:    make(chan struct{}),
	}
}

// get never fails: rooms that were never hydrated get an empty default.
func (s *StateStore) get(roomID int64) *RoomState {
	if state, ok := s.states[roomID]; ok {
		return state
	}

	state := newRoomState(defaultTitle, emptyBoard())
	s.states[roomID] = state

	return state
}

func (s *StateStore) cached(roomID int64) (*RoomState, bool) {
	state, ok := s.states[roomID]
	return state, ok
}

// resolve looks up roomID in storage, falling back to a random puzzle when
// it does not exist. It only performs I/O and may run off the event loop.
func (s *StateStore) resolve(ctx context.Context, roomID int64) (hydration, error) {
	p, err := s.gateway.LoadPuzzle(ctx, roomID)
	if err == nil {
		return hydration{requested: roomID, puzzle: p}, nil
	}
	if !errors.Is(err, ErrPuzzleNotFound) {
		errorf("STORE: Loading puzzle %d: %v", roomID, err)
	}

	p, err = s.gateway.LoadRandomPuzzle(ctx)
	if err != nil {
		return hydration{requested: roomID}, fmt.Errorf("substitute for puzzle %d: %w", roomID, err)
	}

	return hydration{requested: roomID, puzzle: p, substituted: true}, nil
}

// hydrate caches the loaded puzzle unless the room is already live, in
// which case the in-memory state wins.
func (s *StateStore) hydrate(h hydration) *RoomState {
	if state, ok := s.states[h.puzzle.ID]; ok {
		return state
	}

	state := newRoomState(h.puzzle.Title, h.puzzle.Board)
	s.states[h.puzzle.ID] = state

	return state
}

// update applies fn to the room's state and queues the resulting board
// for persistence.
func (s *StateStore) update(roomID int64, fn func(*RoomState)) *RoomState {
	state := s.get(roomID)
	fn(state)
	s.persist(roomID, state.Board)

	return state
}

func (s *StateStore) persist(roomID int64, board Board) {
	select {
	case s.saves <- savedBoard{roomID: roomID, board: board}:
	case <-s.done:
	default:
		errorf("STORE: Save queue full, dropping board for room %d", roomID)
	}
}

func (s *StateStore) setCursor(roomID int64, clientID string, p Position) {
	s.get(roomID).cursors[clientID] = p
}

func (s *StateStore) clearCursor(roomID int64, clientID string) {
	if state, ok := s.states[roomID]; ok {
		delete(state.cursors, clientID)
	}
}

// runSaver drains the save queue until ctx is cancelled, then flushes
// whatever is still queued.
func (s *StateStore) runSaver(ctx context.Context) {
	defer close(s.done)

	for {
		select {
		case sb := <-s.saves:
			s.save(sb)
		case <-ctx.Done():
			for {
				select {
				case sb := <-s.saves:
					s.save(sb)
				default:
					return
				}
			}
		}
	}
}

func (s *StateStore) save(sb savedBoard) {
	if err := s.gateway.SaveBoard(context.Background(), sb.roomID, sb.board); err != nil {
		errorf("STORE: Saving board for room %d: %v", sb.roomID, err)
		return
	}

	logf(s.cfg, "STORE: Saved board for room %d", sb.roomID)
}
