/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const importedStatus = "not started"

type importOptions struct {
	difficulty string
	solutions  string
}

// puzzleTitle turns nyt-<difficulty>-YYYY-MM-DD.sdx into "NYT MM/DD/YYYY"
// and otherwise falls back to the file's base name.
func puzzleTitle(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	parts := strings.Split(base, "-")
	if len(parts) == 5 && parts[0] == "nyt" {
		return fmt.Sprintf("NYT %s/%s/%s", parts[3], parts[4], parts[2])
	}

	return base
}

// findSolution returns the contents of the matching solution file in dir,
// or "" if there is none.
func findSolution(dir, filename string) (string, error) {
	if dir == "" {
		return "", nil
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	for _, candidate := range []string{base + "_solution_formatted.sdx", base + "_formatted.sdx", base + ".sdx"} {
		data, err := os.ReadFile(filepath.Join(dir, candidate))
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			return "", err
		}

		if _, err := ParseSolution(string(data)); err != nil {
			return "", fmt.Errorf("solution %s: %w", candidate, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	return "", nil
}

func readPuzzleFile(filename string, opts importOptions) (PuzzleRecord, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return PuzzleRecord{}, err
	}

	sdx := strings.TrimSpace(string(data))
	if _, err := ParseSDX(sdx); err != nil {
		return PuzzleRecord{}, err
	}

	solution, err := findSolution(opts.solutions, filename)
	if err != nil {
		return PuzzleRecord{}, err
	}

	return PuzzleRecord{
		Title:       puzzleTitle(filename),
		Difficulty:  opts.difficulty,
		Status:      importedStatus,
		SDX:         sdx,
		SolutionSDX: solution,
	}, nil
}

// importPuzzles stores every readable file and skips the rest. It fails
// only when nothing could be imported.
func importPuzzles(ctx context.Context, cfg *Config, gateway Gateway, files []string, opts importOptions) (int, error) {
	imported := 0

	for _, filename := range files {
		rec, err := readPuzzleFile(filename, opts)
		if err != nil {
			errorf("STORE: Skipping %s: %v", filename, err)
			continue
		}

		id, err := gateway.InsertPuzzle(ctx, rec)
		if err != nil {
			errorf("STORE: Inserting %s: %v", filename, err)
			continue
		}

		imported++

		logf(cfg, "STORE: Imported %q as puzzle %d (solution: %t)", rec.Title, id, rec.SolutionSDX != "")
	}

	if imported == 0 {
		return 0, fmt.Errorf("no puzzles imported from %d file(s)", len(files))
	}

	return imported, nil
}

func newImportCmd(cfg *Config) *cobra.Command {
	opts := importOptions{}

	cmd := &cobra.Command{
		Use:   "import [flags] FILE...",
		Short: "Import .sdx puzzle files into the database.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.databaseURL == "" && strings.TrimSpace(cfg.database) == "" {
				return errors.New("one of --database or --database-url is required")
			}

			gateway, err := openGateway(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer gateway.Close()

			n, err := importPuzzles(cmd.Context(), cfg, gateway, args, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d puzzle(s)\n", n, len(args))

			return nil
		},
	}

	fs := cmd.Flags()
	normalizeFlags(fs)

	fs.StringVar(&opts.difficulty, "difficulty", "hard", "difficulty recorded for imported puzzles (env: SUDUOKU_DIFFICULTY)")
	fs.StringVar(&opts.solutions, "solutions", "", "directory holding <name>_solution_formatted.sdx, <name>_formatted.sdx or <name>.sdx solutions (env: SUDUOKU_SOLUTIONS)")

	return cmd
}
