/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	puzzleGrid   = "53..7....6..195....98....6.8...6...34..8.3..17...2...6.6....28....419..5....8..79"
	solutionGrid = "534678912672195348198342567859761423426853791713924856961537284287419635345286179"
)

// gridSDX converts an 81 character grid ('.' for empty) into SDX, marking
// every digit as given.
func gridSDX(grid string) string {
	tokens := make([]string, 0, len(grid))
	for _, r := range grid {
		if r == '.' {
			tokens = append(tokens, emptyToken)
			continue
		}
		tokens = append(tokens, givenMarker+string(r))
	}
	return strings.Join(tokens, " ")
}

func solutionSDX() string {
	return strings.Join(strings.Split(solutionGrid, ""), " ")
}

func testBoard(t *testing.T) Board {
	t.Helper()

	b, err := ParseSDX(gridSDX(puzzleGrid))
	require.NoError(t, err)

	return b
}

func TestParseSDX(t *testing.T) {
	b := testBoard(t)

	assert.Equal(t, Cell{Value: "5", IsEditable: false}, b[0][0])
	assert.Equal(t, Cell{Value: "", IsEditable: true}, b[0][2])
	assert.Equal(t, Cell{Value: "9", IsEditable: false}, b[8][8])
	assert.Equal(t, Cell{Value: "6", IsEditable: false}, b[1][0])
}

func TestParseSDXEditableDigits(t *testing.T) {
	tokens := strings.Fields(gridSDX(puzzleGrid))
	tokens[2] = "4"

	b, err := ParseSDX(strings.Join(tokens, " "))
	require.NoError(t, err)

	assert.Equal(t, Cell{Value: "4", IsEditable: true}, b[0][2])
}

func TestParseSDXErrors(t *testing.T) {
	valid := strings.Fields(gridSDX(puzzleGrid))

	replace := func(i int, token string) string {
		tokens := append([]string{}, valid...)
		tokens[i] = token
		return strings.Join(tokens, " ")
	}

	tests := []struct {
		name string
		sdx  string
	}{
		{name: "empty", sdx: ""},
		{name: "too few tokens", sdx: strings.Join(valid[:80], " ")},
		{name: "too many tokens", sdx: strings.Join(valid, " ") + " 1"},
		{name: "given zero", sdx: replace(2, "u0")},
		{name: "letter", sdx: replace(2, "x")},
		{name: "two digits", sdx: replace(2, "10")},
		{name: "bare marker", sdx: replace(2, "u")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSDX(tt.sdx)
			assert.ErrorIs(t, err, ErrInvalidBoard)
		})
	}
}

func TestSDXRoundTrip(t *testing.T) {
	b := testBoard(t)
	b[0][2].Value = "4"
	b[4][4].Value = "5"

	parsed, err := ParseSDX(b.MarshalSDX())
	require.NoError(t, err)

	assert.Equal(t, b, parsed)
}

func TestMarshalSDX(t *testing.T) {
	b := emptyBoard()
	b[0][0] = Cell{Value: "5", IsEditable: false}
	b[0][1] = Cell{Value: "3", IsEditable: true}

	tokens := strings.Fields(b.MarshalSDX())
	require.Len(t, tokens, 81)

	assert.Equal(t, "u5", tokens[0])
	assert.Equal(t, "3", tokens[1])
	assert.Equal(t, "0", tokens[2])
}

func TestParseSolution(t *testing.T) {
	s, err := ParseSolution(solutionSDX())
	require.NoError(t, err)

	assert.Equal(t, "5", s[0][0])
	assert.Equal(t, "9", s[8][8])

	marked, err := ParseSolution(gridSDX(solutionGrid))
	require.NoError(t, err)
	assert.Equal(t, s, marked)

	_, err = ParseSolution("1 2 3")
	assert.ErrorIs(t, err, ErrInvalidBoard)
}

func TestBoardUnmarshalJSON(t *testing.T) {
	encode := func(b Board) []byte {
		data, err := json.Marshal(b)
		require.NoError(t, err)
		return data
	}

	t.Run("valid", func(t *testing.T) {
		want := testBoard(t)

		var got Board
		require.NoError(t, json.Unmarshal(encode(want), &got))
		assert.Equal(t, want, got)
	})

	t.Run("short grid", func(t *testing.T) {
		var rows [][]Cell
		require.NoError(t, json.Unmarshal(encode(testBoard(t)), &rows))

		data, err := json.Marshal(rows[:8])
		require.NoError(t, err)

		var got Board
		assert.ErrorIs(t, json.Unmarshal(data, &got), ErrInvalidBoard)
	})

	t.Run("short row", func(t *testing.T) {
		var rows [][]Cell
		require.NoError(t, json.Unmarshal(encode(testBoard(t)), &rows))
		rows[3] = rows[3][:5]

		data, err := json.Marshal(rows)
		require.NoError(t, err)

		var got Board
		assert.ErrorIs(t, json.Unmarshal(data, &got), ErrInvalidBoard)
	})

	t.Run("bad value", func(t *testing.T) {
		b := testBoard(t)
		b[0][2].Value = "a"

		var got Board
		assert.ErrorIs(t, json.Unmarshal(encode(b), &got), ErrInvalidBoard)
	})

	t.Run("empty given", func(t *testing.T) {
		b := testBoard(t)
		b[0][0].Value = ""

		var got Board
		assert.ErrorIs(t, json.Unmarshal(encode(b), &got), ErrInvalidBoard)
	})

	t.Run("not an array", func(t *testing.T) {
		var got Board
		assert.ErrorIs(t, json.Unmarshal([]byte(`{"a":1}`), &got), ErrInvalidBoard)
	})
}

func TestWithEditsKeepsGivens(t *testing.T) {
	current := testBoard(t)

	next := current
	next[0][0] = Cell{Value: "1", IsEditable: true}
	next[0][2] = Cell{Value: "4", IsEditable: true}

	got := current.withEdits(next)

	assert.Equal(t, Cell{Value: "5", IsEditable: false}, got[0][0])
	assert.Equal(t, Cell{Value: "4", IsEditable: true}, got[0][2])
}

func TestWithEditsCannotLockCells(t *testing.T) {
	current := testBoard(t)

	next := current
	next[0][2] = Cell{Value: "4", IsEditable: false}

	got := current.withEdits(next)

	assert.True(t, got[0][2].IsEditable)
	assert.Equal(t, "4", got[0][2].Value)
}

func TestCleared(t *testing.T) {
	b := testBoard(t)
	b[0][2].Value = "4"
	b[8][0].Value = "3"

	got := b.cleared()

	assert.Equal(t, testBoard(t), got)
	assert.Equal(t, "4", b[0][2].Value, "receiver is not modified")
}

func TestIncorrectCells(t *testing.T) {
	solution, err := ParseSolution(solutionSDX())
	require.NoError(t, err)

	b := testBoard(t)
	assert.Empty(t, b.incorrectCells(solution))
	assert.NotNil(t, b.incorrectCells(solution))

	b[0][2].Value = "4"
	b[0][3].Value = "1"
	b[2][0].Value = "2"

	assert.Equal(t, []Position{{Row: 0, Col: 3}, {Row: 2, Col: 0}}, b.incorrectCells(solution))
}

func TestPositionValid(t *testing.T) {
	tests := []struct {
		pos  Position
		want bool
	}{
		{Position{Row: 0, Col: 0}, true},
		{Position{Row: 8, Col: 8}, true},
		{Position{Row: 9, Col: 0}, false},
		{Position{Row: 0, Col: -1}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.pos.valid(), "%+v", tt.pos)
	}
}
