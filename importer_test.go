/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestPuzzleTitle(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"nyt-hard-2023-05-13.sdx", "NYT 05/13/2023"},
		{"/some/dir/nyt-easy-2024-12-01.sdx", "NYT 12/01/2024"},
		{"weekend-special.sdx", "weekend-special"},
		{"nyt-hard-2023-05.sdx", "nyt-hard-2023-05"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, puzzleTitle(tt.filename), tt.filename)
	}
}

func TestImportPuzzles(t *testing.T) {
	puzzles := t.TempDir()
	solutions := t.TempDir()

	// Solutions may span several lines, as produced by solvers.
	multiline := strings.Join([]string{
		solutionSDX()[:17], solutionSDX()[18:],
	}, "\n")

	good := writeFile(t, puzzles, "nyt-hard-2023-05-13.sdx", gridSDX(puzzleGrid)+"\n")
	writeFile(t, solutions, "nyt-hard-2023-05-13_formatted.sdx", multiline)

	plain := writeFile(t, puzzles, "plain.sdx", gridSDX(puzzleGrid))
	bad := writeFile(t, puzzles, "bad.sdx", "1 2 3")
	missing := filepath.Join(puzzles, "missing.sdx")

	g := newMemoryGateway()
	n, err := importPuzzles(context.Background(), testConfig(), g, []string{good, plain, bad, missing},
		importOptions{difficulty: "hard", solutions: solutions})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := g.ListPuzzles(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "plain", list[0].Title)
	assert.Equal(t, "NYT 05/13/2023", list[1].Title)
	assert.Equal(t, "hard", list[1].Difficulty)
	assert.Equal(t, importedStatus, list[1].Status)

	solution, err := g.LoadSolution(context.Background(), list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "4", solution[0][2])

	_, err = g.LoadSolution(context.Background(), list[0].ID)
	assert.ErrorIs(t, err, ErrSolutionNotFound)
}

func TestImportFindsSolverOutput(t *testing.T) {
	puzzles := t.TempDir()
	solutions := t.TempDir()

	file := writeFile(t, puzzles, "nyt-hard-2023-05-13.sdx", gridSDX(puzzleGrid))
	writeFile(t, solutions, "nyt-hard-2023-05-13_solution_formatted.sdx", solutionSDX())
	writeFile(t, solutions, "nyt-hard-2023-05-13.sdx", "not a solution")

	g := newMemoryGateway()
	n, err := importPuzzles(context.Background(), testConfig(), g, []string{file},
		importOptions{solutions: solutions})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := g.ListPuzzles(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	solution, err := g.LoadSolution(context.Background(), list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "4", solution[0][2])
}

func TestImportNothingFails(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.sdx", "not a puzzle")

	_, err := importPuzzles(context.Background(), testConfig(), newMemoryGateway(), []string{bad}, importOptions{})
	assert.Error(t, err)
}

func TestImportBadSolutionSkipsPuzzle(t *testing.T) {
	puzzles := t.TempDir()
	solutions := t.TempDir()

	good := writeFile(t, puzzles, "p.sdx", gridSDX(puzzleGrid))
	writeFile(t, solutions, "p.sdx", "x y z")

	_, err := importPuzzles(context.Background(), testConfig(), newMemoryGateway(), []string{good},
		importOptions{solutions: solutions})
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "import.db")
	file := writeFile(t, dir, "nyt-hard-2023-05-13.sdx", gridSDX(puzzleGrid))

	cmd := newCmd(&Config{})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"import", "--database", db, file})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Imported 1 of 1")

	g, err := openSQLite(db)
	require.NoError(t, err)
	defer g.Close()

	list, err := g.ListPuzzles(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "NYT 05/13/2023", list[0].Title)
}
