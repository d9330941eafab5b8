/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	boardSize   = 9
	givenMarker = "u"
	emptyToken  = "0"
)

var (
	ErrInvalidBoard    = errors.New("invalid board")
	ErrInvalidPosition = errors.New("invalid position")
)

// Cell is one square of the grid. Given cells are part of the puzzle design
// and can never be edited by players.
type Cell struct {
	Value      string `json:"value"`
	IsEditable bool   `json:"isEditable"`
}

// Position addresses a cell by row, then column, both zero-based.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) valid() bool {
	return p.Row >= 0 && p.Row < boardSize && p.Col >= 0 && p.Col < boardSize
}

// Board is indexed [row][col].
type Board [boardSize][boardSize]Cell

// Solution holds the expected digit for every cell, indexed [row][col].
type Solution [boardSize][boardSize]string

func emptyBoard() Board {
	var b Board
	for row := range b {
		for col := range b[row] {
			b[row][col].IsEditable = true
		}
	}
	return b
}

func validDigit(v string) bool {
	return len(v) == 1 && v[0] >= '1' && v[0] <= '9'
}

func (b Board) validate() error {
	for row := range b {
		for col, cell := range b[row] {
			if cell.Value != "" && !validDigit(cell.Value) {
				return fmt.Errorf("%w: cell (%d,%d) has value %q", ErrInvalidBoard, row, col, cell.Value)
			}
			if !cell.IsEditable && cell.Value == "" {
				return fmt.Errorf("%w: given cell (%d,%d) is empty", ErrInvalidBoard, row, col)
			}
		}
	}
	return nil
}

// UnmarshalJSON accepts only a complete 9x9 grid of valid cells.
func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [][]Cell
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	if len(rows) != boardSize {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, boardSize, len(rows))
	}

	var out Board
	for row := range rows {
		if len(rows[row]) != boardSize {
			return fmt.Errorf("%w: row %d has %d cells", ErrInvalidBoard, row, len(rows[row]))
		}
		copy(out[row][:], rows[row])
	}

	if err := out.validate(); err != nil {
		return err
	}

	*b = out
	return nil
}

// MarshalSDX renders the board as 81 space-separated tokens in row-major
// order: 0 for an empty cell, the digit for a filled editable cell, and the
// digit prefixed with "u" for a given cell.
func (b Board) MarshalSDX() string {
	tokens := make([]string, 0, boardSize*boardSize)
	for row := range b {
		for _, cell := range b[row] {
			switch {
			case cell.Value == "":
				tokens = append(tokens, emptyToken)
			case !cell.IsEditable:
				tokens = append(tokens, givenMarker+cell.Value)
			default:
				tokens = append(tokens, cell.Value)
			}
		}
	}
	return strings.Join(tokens, " ")
}

func sdxTokens(sdx string) ([]string, error) {
	tokens := strings.Fields(sdx)
	if len(tokens) != boardSize*boardSize {
		return nil, fmt.Errorf("%w: expected %d tokens, got %d", ErrInvalidBoard, boardSize*boardSize, len(tokens))
	}
	return tokens, nil
}

// ParseSDX is the inverse of MarshalSDX.
func ParseSDX(sdx string) (Board, error) {
	tokens, err := sdxTokens(sdx)
	if err != nil {
		return Board{}, err
	}

	var b Board
	for i, token := range tokens {
		row, col := i/boardSize, i%boardSize

		given := strings.HasPrefix(token, givenMarker)
		value := strings.TrimPrefix(token, givenMarker)

		switch {
		case value == emptyToken && !given:
			b[row][col] = Cell{Value: "", IsEditable: true}
		case validDigit(value):
			b[row][col] = Cell{Value: value, IsEditable: !given}
		default:
			return Board{}, fmt.Errorf("%w: bad token %q at (%d,%d)", ErrInvalidBoard, token, row, col)
		}
	}

	return b, nil
}

// ParseSolution reads only the digits of an SDX string; given markers are
// ignored and 0 is treated as unknown.
func ParseSolution(sdx string) (Solution, error) {
	tokens, err := sdxTokens(sdx)
	if err != nil {
		return Solution{}, err
	}

	var s Solution
	for i, token := range tokens {
		value := strings.TrimPrefix(token, givenMarker)
		switch {
		case value == emptyToken:
		case validDigit(value):
			s[i/boardSize][i%boardSize] = value
		default:
			return Solution{}, fmt.Errorf("%w: bad solution token %q", ErrInvalidBoard, token)
		}
	}

	return s, nil
}

// cleared blanks every editable cell and keeps the givens.
func (b Board) cleared() Board {
	for row := range b {
		for col := range b[row] {
			if b[row][col].IsEditable {
				b[row][col].Value = ""
			}
		}
	}
	return b
}

// withEdits takes the player-visible values from next while keeping every
// given cell of b exactly as it is.
func (b Board) withEdits(next Board) Board {
	for row := range b {
		for col := range b[row] {
			if !b[row][col].IsEditable {
				continue
			}
			b[row][col] = Cell{Value: next[row][col].Value, IsEditable: true}
		}
	}
	return b
}

// incorrectCells lists, in row-major order, every filled cell whose value
// differs from the solution.
func (b Board) incorrectCells(s Solution) []Position {
	out := []Position{}
	for row := range b {
		for col, cell := range b[row] {
			if cell.Value != "" && cell.Value != s[row][col] {
				out = append(out, Position{Row: row, Col: col})
			}
		}
	}
	return out
}
