/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"
)

var ErrNotInRoom = errors.New("connection has not joined a room")

// Conn is the engine's view of a live connection. Send must not block; it
// reports false when the message could not be queued.
type Conn interface {
	Send(msg any) bool
}

// Session is what the engine knows about one connection. The client id is
// bound by the first identify and never changes afterwards.
type Session struct {
	connID   string
	conn     Conn
	clientID string
	roomID   int64
	inRoom   bool

	// identifies counts identify requests so a slow room lookup cannot
	// override a later one.
	identifies uint64
}

// bind sets the client id if it is still unset and returns the bound id.
func (s *Session) bind(clientID string) string {
	if s.clientID == "" {
		s.clientID = clientID
	}
	return s.clientID
}

func (s *Session) room() (int64, error) {
	if !s.inRoom {
		return 0, ErrNotInRoom
	}
	return s.roomID, nil
}

func (s *Session) send(msg any) bool {
	return s.conn.Send(msg)
}

// Engine owns every piece of shared room state. All of it is read and
// written only from the goroutine running Run; everything else talks to
// the engine by posting closures onto its event queue.
type Engine struct {
	cfg     *Config
	gateway Gateway

	players  *PlayerDirectory
	rooms    *RoomRegistry
	states   *StateStore
	sessions map[string]*Session

	events  chan func()
	jobs    chan func(context.Context)
	storage chan func(context.Context)
	stopped chan struct{}
}

func newEngine(cfg *Config, gateway Gateway, rng *rand.Rand) *Engine {
	return &Engine{
		cfg:      cfg,
		gateway:  gateway,
		players:  newPlayerDirectory(rng),
		rooms:    newRoomRegistry(),
		states:   newStateStore(cfg, gateway),
		sessions: make(map[string]*Session),
		events:   make(chan func(), 256),
		jobs:     make(chan func(context.Context), 256),
		storage:  make(chan func(context.Context)),
		stopped:  make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled, then waits for queued board
// saves to reach storage.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.stopped)

	go e.states.runSaver(ctx)
	go e.queueStorage()
	go e.runStorage(ctx)

	for {
		select {
		case fn := <-e.events:
			fn()
		case <-ctx.Done():
			<-e.states.done
			return
		}
	}
}

// runStorage executes storage jobs one at a time so their continuations
// reach the event loop in the order the jobs were issued.
func (e *Engine) runStorage(ctx context.Context) {
	for {
		select {
		case job := <-e.storage:
			job(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// queueStorage hands jobs to the storage worker in the order background
// issued them, holding any backlog so the event loop never waits on storage.
func (e *Engine) queueStorage() {
	var backlog []func(context.Context)

	for {
		var out chan func(context.Context)
		var next func(context.Context)
		if len(backlog) > 0 {
			out, next = e.storage, backlog[0]
		}

		select {
		case job := <-e.jobs:
			backlog = append(backlog, job)
		case out <- next:
			backlog[0] = nil
			backlog = backlog[1:]
		case <-e.stopped:
			return
		}
	}
}

func (e *Engine) post(fn func()) bool {
	select {
	case <-e.stopped:
		return false
	default:
	}

	select {
	case e.events <- fn:
		return true
	case <-e.stopped:
		return false
	}
}

// background runs work against storage off the event loop. The function
// it returns, if any, runs back on the loop.
func (e *Engine) background(work func(ctx context.Context) func()) {
	job := func(ctx context.Context) {
		if next := work(ctx); next != nil {
			e.post(next)
		}
	}

	select {
	case e.jobs <- job:
	case <-e.stopped:
	}
}

// Connect registers a new connection and returns its id.
func (e *Engine) Connect(conn Conn) string {
	connID := uuid.NewString()

	e.post(func() {
		e.sessions[connID] = &Session{connID: connID, conn: conn}
		logf(e.cfg, "ROOMS: Connection %s opened", connID)
	})

	return connID
}

// Receive queues one raw inbound message for connID.
func (e *Engine) Receive(connID string, data []byte) {
	e.post(func() {
		e.dispatch(connID, data)
	})
}

// Disconnect queues the teardown of connID.
func (e *Engine) Disconnect(connID string) {
	e.post(func() {
		e.closeSession(connID)
	})
}

func (e *Engine) closeSession(connID string) {
	sess, ok := e.sessions[connID]
	if !ok {
		return
	}
	delete(e.sessions, connID)

	logf(e.cfg, "ROOMS: Connection %s closed", connID)

	clientID := sess.clientID
	if clientID == "" {
		return
	}

	if e.sharesRoom(sess) {
		return
	}

	affected := make(map[int64]struct{})
	if sess.inRoom {
		affected[sess.roomID] = struct{}{}
	}

	current, ok := e.rooms.roomOf(clientID)
	if ok && ((sess.inRoom && current == sess.roomID) || !e.clientConnected(clientID)) {
		e.rooms.leave(clientID)
		affected[current] = struct{}{}

		// The registry holds one room per client, so hand it back to a
		// tab that is still open elsewhere.
		if other, ok := e.roomedSession(clientID); ok {
			e.rooms.join(clientID, other.roomID)
			delete(affected, other.roomID)

			logf(e.cfg, "ROOMS: %s returned to room %d", clientID, other.roomID)

			e.broadcastPlayers(other.roomID)
			e.broadcastPositions(other.roomID)
		}
	}

	for roomID := range affected {
		e.states.clearCursor(roomID, clientID)
		e.broadcastPositions(roomID)
		e.broadcastPlayers(roomID)

		if !e.rooms.exists(roomID) {
			logf(e.cfg, "ROOMS: Room %d is now empty", roomID)
		}
	}
}

// sharesRoom reports whether another connection with the same client id
// keeps the player where sess was. For a session that never joined a room,
// any other connection with that client id counts.
func (e *Engine) sharesRoom(sess *Session) bool {
	for _, s := range e.sessions {
		if s.clientID != sess.clientID {
			continue
		}
		if !sess.inRoom || (s.inRoom && s.roomID == sess.roomID) {
			return true
		}
	}
	return false
}

func (e *Engine) roomedSession(clientID string) (*Session, bool) {
	for _, s := range e.sessions {
		if s.clientID == clientID && s.inRoom {
			return s, true
		}
	}
	return nil, false
}

func (e *Engine) clientConnected(clientID string) bool {
	for _, s := range e.sessions {
		if s.clientID == clientID {
			return true
		}
	}
	return false
}

// broadcast sends msg to every connection currently bound to roomID.
// Connections that cannot take the message are skipped.
func (e *Engine) broadcast(roomID int64, msg any) {
	for _, sess := range e.sessions {
		if !sess.inRoom || sess.roomID != roomID {
			continue
		}

		if !sess.send(msg) {
			logf(e.cfg, "ROOMS: Dropped message for connection %s in room %d", sess.connID, roomID)
		}
	}
}

func (e *Engine) playerList(roomID int64) []Player {
	members := e.rooms.membersOf(roomID)

	out := make([]Player, 0, len(members))
	for _, clientID := range members {
		if p, ok := e.players.lookup(clientID); ok {
			out = append(out, p)
		}
	}

	return out
}

// positions lists cursors of players who are members of roomID.
func (e *Engine) positions(roomID int64) []PlayerPosition {
	out := []PlayerPosition{}

	state, ok := e.states.cached(roomID)
	if !ok {
		return out
	}

	for clientID, pos := range state.cursors {
		if !e.rooms.isMember(clientID, roomID) {
			continue
		}

		p, ok := e.players.lookup(clientID)
		if !ok {
			continue
		}

		out = append(out, PlayerPosition{
			ClientID: clientID,
			Name:     p.Name,
			Color:    p.Color,
			Position: pos,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ClientID < out[j].ClientID
	})

	return out
}

func (e *Engine) gameState(roomID int64) GameStateMessage {
	state := e.states.get(roomID)

	return GameStateMessage{
		Type:            "gameState",
		Board:           state.Board,
		Title:           state.Title,
		RoomID:          roomID,
		IncorrectCells:  state.IncorrectCells(),
		PlayerPositions: e.positions(roomID),
	}
}

func (e *Engine) broadcastPlayers(roomID int64) {
	e.broadcast(roomID, PlayersMessage{
		Type:    "players",
		Players: e.playerList(roomID),
	})
}

func (e *Engine) broadcastPositions(roomID int64) {
	e.broadcast(roomID, PlayerPositionsMessage{
		Type:      "playerPositions",
		Positions: e.positions(roomID),
	})
}

func (e *Engine) broadcastGameState(roomID int64) {
	e.broadcast(roomID, e.gameState(roomID))
}

// broadcastChat replays the room's chat log to every member.
func (e *Engine) broadcastChat(roomID int64) {
	e.background(func(ctx context.Context) func() {
		entries, err := e.gateway.LoadChat(ctx, roomID, e.cfg.chatLimit)
		if err != nil {
			errorf("CHAT: Loading chat for room %d: %v", roomID, err)
			return nil
		}

		return func() {
			e.broadcast(roomID, ChatHistoryMessage{
				Type:     "chatHistory",
				Messages: entries,
			})
		}
	})
}
