/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RoomRef is a room id as sent by clients, either a JSON number or a
// numeric string.
type RoomRef int64

func (r *RoomRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		data = []byte(s)
	}

	id, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("room id %s is not an integer", data)
	}
	*r = RoomRef(id)

	return nil
}

// ClientMessage is every field any inbound message may carry; Type selects
// which ones matter.
type ClientMessage struct {
	Type        string          `json:"type"`                  // "identify", "chat", "loadChat", "update", "clearBoard", "checkSolution", "cellSelection", "ping"
	ClientID    string          `json:"clientId,omitempty"`    // identify
	RoomID      RoomRef         `json:"roomId,omitempty"`      // identify
	PuzzleID    RoomRef         `json:"puzzleId,omitempty"`    // identify, older clients
	Message     *ChatPayload    `json:"message,omitempty"`     // chat
	Board       json.RawMessage `json:"board,omitempty"`       // update
	ChangedCell *Position       `json:"changedCell,omitempty"` // update
	Position    *Position       `json:"position,omitempty"`    // cellSelection
}

func (m ClientMessage) room() (int64, bool) {
	switch {
	case m.RoomID > 0:
		return int64(m.RoomID), true
	case m.PuzzleID > 0:
		return int64(m.PuzzleID), true
	}
	return 0, false
}

type ChatPayload struct {
	User     string  `json:"user"`
	Color    string  `json:"color,omitempty"`
	Text     string  `json:"text"`
	RoomID   RoomRef `json:"roomId,omitempty"`
	PuzzleID RoomRef `json:"puzzleId,omitempty"`
}

// UpdateMessage is the full snapshot sent to a client that just identified.
type UpdateMessage struct {
	Type   string  `json:"type"` // "update"
	Client *Player `json:"client,omitempty"`
	Board  *Board  `json:"board,omitempty"`
	Title  string  `json:"title,omitempty"`
	RoomID int64   `json:"roomId,omitempty"`
}

// PlayerPosition is a cursor as seen by other players.
type PlayerPosition struct {
	ClientID string   `json:"clientId"`
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Position Position `json:"position"`
}

type GameStateMessage struct {
	Type            string           `json:"type"` // "gameState"
	Board           Board            `json:"board"`
	Title           string           `json:"title"`
	RoomID          int64            `json:"roomId"`
	IncorrectCells  []Position       `json:"incorrectCells"`
	PlayerPositions []PlayerPosition `json:"playerPositions"`
}

type PlayersMessage struct {
	Type    string   `json:"type"` // "players"
	Players []Player `json:"players"`
}

type ChatHistoryMessage struct {
	Type     string      `json:"type"` // "chatHistory"
	Messages []ChatEntry `json:"messages"`
}

type PlayerPositionsMessage struct {
	Type      string           `json:"type"` // "playerPositions"
	Positions []PlayerPosition `json:"positions"`
}

type CheckResultMessage struct {
	Type           string     `json:"type"` // "checkResult"
	IncorrectCells []Position `json:"incorrectCells"`
}

type CheckErrorMessage struct {
	Type  string `json:"type"` // "checkResult"
	Error string `json:"error"`
}

type PuzzleNotFoundMessage struct {
	Type    string `json:"type"` // "puzzleNotFound"
	Message string `json:"message"`
}

type PongMessage struct {
	Type string `json:"type"` // "pong"
}
