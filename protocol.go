/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const fallbackChatColor = "#000000"

func (e *Engine) dispatch(connID string, data []byte) {
	sess, ok := e.sessions[connID]
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			errorf("PROTO: Panic handling message from %s: %v", connID, r)
		}
	}()

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		errorf("PROTO: Malformed message from %s: %v", connID, err)
		return
	}

	if err := e.handle(sess, msg); err != nil {
		errorf("PROTO: Handling %q from %s: %v", msg.Type, connID, err)
	}
}

func (e *Engine) handle(sess *Session, msg ClientMessage) error {
	switch msg.Type {
	case "identify":
		return e.handleIdentify(sess, msg)
	case "chat":
		return e.handleChat(sess, msg)
	case "loadChat":
		return e.handleLoadChat(sess)
	case "update":
		return e.handleUpdate(sess, msg)
	case "clearBoard":
		return e.handleClearBoard(sess)
	case "checkSolution":
		return e.handleCheckSolution(sess)
	case "cellSelection":
		return e.handleCellSelection(sess, msg)
	case "ping":
		sess.send(PongMessage{Type: "pong"})
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (e *Engine) handleIdentify(sess *Session, msg ClientMessage) error {
	if strings.TrimSpace(msg.ClientID) == "" {
		return errors.New("identify without clientId")
	}

	clientID := sess.bind(msg.ClientID)
	if clientID != msg.ClientID {
		logf(e.cfg, "PROTO: Connection %s is bound to %s, ignoring clientId %s", sess.connID, clientID, msg.ClientID)
	}

	player := e.players.ensure(clientID)

	sess.identifies++
	seq := sess.identifies

	roomID, ok := msg.room()
	if !ok {
		sess.send(UpdateMessage{Type: "update", Client: &player})
		return nil
	}

	if _, live := e.states.cached(roomID); live {
		e.enterRoom(sess, roomID)
		return nil
	}

	connID := sess.connID

	e.background(func(ctx context.Context) func() {
		h, err := e.states.resolve(ctx, roomID)

		return func() {
			sess, ok := e.sessions[connID]
			if !ok {
				return
			}
			if sess.identifies != seq {
				logf(e.cfg, "ROOMS: Dropping stale join of %s to room %d", clientID, roomID)
				return
			}

			if err != nil || h.substituted {
				sess.send(PuzzleNotFoundMessage{
					Type:    "puzzleNotFound",
					Message: fmt.Sprintf("Puzzle %d was not found", roomID),
				})
			}
			if err != nil {
				errorf("ROOMS: No puzzle available for %s: %v", clientID, err)
				return
			}

			if h.substituted {
				logf(e.cfg, "ROOMS: Puzzle %d not found, sending %s to puzzle %d", roomID, clientID, h.puzzle.ID)
			}

			e.states.hydrate(h)
			e.enterRoom(sess, h.puzzle.ID)
		}
	})

	return nil
}

// enterRoom moves the session's client into roomID, sends it the full
// snapshot and refreshes everyone affected.
func (e *Engine) enterRoom(sess *Session, roomID int64) {
	clientID := sess.clientID

	departed := make(map[int64]struct{})
	if sess.inRoom && sess.roomID != roomID {
		departed[sess.roomID] = struct{}{}
	}
	if previous, moved := e.rooms.join(clientID, roomID); moved {
		departed[previous] = struct{}{}
	}

	sess.roomID = roomID
	sess.inRoom = true

	for previous := range departed {
		e.states.clearCursor(previous, clientID)
		e.broadcastPlayers(previous)
		e.broadcastPositions(previous)
	}

	logf(e.cfg, "ROOMS: %s joined room %d", clientID, roomID)

	state := e.states.get(roomID)
	player, _ := e.players.lookup(clientID)
	board := state.Board

	sess.send(UpdateMessage{
		Type:   "update",
		Client: &player,
		Board:  &board,
		Title:  state.Title,
		RoomID: roomID,
	})

	e.broadcastPlayers(roomID)
	e.broadcastGameState(roomID)
	e.broadcastChat(roomID)
}

// chatRoom picks the room a chat message belongs to, preferring the one
// named in the payload.
func chatRoom(sess *Session, payload *ChatPayload) (int64, error) {
	switch {
	case payload.RoomID > 0:
		return int64(payload.RoomID), nil
	case payload.PuzzleID > 0:
		return int64(payload.PuzzleID), nil
	}
	return sess.room()
}

func (e *Engine) handleChat(sess *Session, msg ClientMessage) error {
	if msg.Message == nil {
		return errors.New("chat without message")
	}

	roomID, err := chatRoom(sess, msg.Message)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(msg.Message.Text)
	if text == "" {
		return errors.New("empty chat message")
	}

	color := fallbackChatColor
	user := strings.TrimSpace(msg.Message.User)
	if p, ok := e.players.lookup(sess.clientID); ok {
		color = p.Color
		if user == "" {
			user = p.Name
		}
	}

	entry := ChatEntry{
		User:  user,
		Color: color,
		Text:  text,
		Time:  time.Now().UnixMilli(),
	}

	e.background(func(ctx context.Context) func() {
		if err := e.gateway.AppendChat(ctx, roomID, entry); err != nil {
			errorf("CHAT: Saving message for room %d: %v", roomID, err)
			return nil
		}

		entries, err := e.gateway.LoadChat(ctx, roomID, e.cfg.chatLimit)
		if err != nil {
			errorf("CHAT: Loading chat for room %d: %v", roomID, err)
			return nil
		}

		return func() {
			logf(e.cfg, "CHAT: %s in room %d", entry.User, roomID)

			e.broadcast(roomID, ChatHistoryMessage{
				Type:     "chatHistory",
				Messages: entries,
			})
		}
	})

	return nil
}

func (e *Engine) handleLoadChat(sess *Session) error {
	roomID, err := sess.room()
	if err != nil {
		return err
	}

	connID := sess.connID

	e.background(func(ctx context.Context) func() {
		entries, err := e.gateway.LoadChat(ctx, roomID, e.cfg.chatLimit)
		if err != nil {
			errorf("CHAT: Loading chat for room %d: %v", roomID, err)
			return nil
		}

		return func() {
			if sess, ok := e.sessions[connID]; ok {
				sess.send(ChatHistoryMessage{
					Type:     "chatHistory",
					Messages: entries,
				})
			}
		}
	})

	return nil
}

func (e *Engine) handleUpdate(sess *Session, msg ClientMessage) error {
	roomID, err := sess.room()
	if err != nil {
		return err
	}

	if len(msg.Board) == 0 {
		return errors.New("update without board")
	}

	var board Board
	if err := json.Unmarshal(msg.Board, &board); err != nil {
		return err
	}

	if msg.ChangedCell != nil && !msg.ChangedCell.valid() {
		return ErrInvalidPosition
	}

	e.states.update(roomID, func(s *RoomState) {
		s.Board = s.Board.withEdits(board)
		if msg.ChangedCell != nil {
			delete(s.incorrect, *msg.ChangedCell)
		}
	})

	e.broadcastGameState(roomID)

	return nil
}

func (e *Engine) handleClearBoard(sess *Session) error {
	roomID, err := sess.room()
	if err != nil {
		return err
	}

	e.states.update(roomID, func(s *RoomState) {
		s.Board = s.Board.cleared()
		s.setIncorrect(nil)
	})

	logf(e.cfg, "ROOMS: %s cleared room %d", sess.clientID, roomID)

	e.broadcastGameState(roomID)

	return nil
}

func (e *Engine) handleCheckSolution(sess *Session) error {
	roomID, err := sess.room()
	if err != nil {
		return err
	}

	connID := sess.connID

	e.background(func(ctx context.Context) func() {
		solution, err := e.gateway.LoadSolution(ctx, roomID)

		return func() {
			sess, ok := e.sessions[connID]

			switch {
			case errors.Is(err, ErrSolutionNotFound):
				if ok {
					sess.send(CheckErrorMessage{Type: "checkResult", Error: "Solution not found"})
				}
				return
			case err != nil:
				errorf("STORE: Loading solution for room %d: %v", roomID, err)
				if ok {
					sess.send(CheckErrorMessage{Type: "checkResult", Error: "Unable to check solution"})
				}
				return
			}

			state := e.states.update(roomID, func(s *RoomState) {
				s.setIncorrect(s.Board.incorrectCells(solution))
			})

			if ok {
				sess.send(CheckResultMessage{
					Type:           "checkResult",
					IncorrectCells: state.IncorrectCells(),
				})
			}

			e.broadcastGameState(roomID)
		}
	})

	return nil
}

func (e *Engine) handleCellSelection(sess *Session, msg ClientMessage) error {
	roomID, err := sess.room()
	if err != nil {
		return err
	}

	if msg.Position == nil || !msg.Position.valid() {
		return ErrInvalidPosition
	}

	e.states.setCursor(roomID, sess.clientID, *msg.Position)
	e.broadcastPositions(roomID)

	return nil
}
