package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// SongPlayHistory keys its records by level and difficulty:
// "custom_level_29CA353C17029D69F7C021F831BA0BC16030EC09___2___Standard"
// returns the level part of each key, in file order.
func sph_played_hashes(sph_json string) ([]string, error) {
	if !gjson.Valid(sph_json) {
		return nil, errors.New("SongPlayData is not valid JSON")
	}
	result := gjson.Parse(sph_json)
	if !result.IsObject() {
		return nil, errors.New("SongPlayData is not a JSON object")
	}

	hash_list := []string{}
	result.ForEach(func(key, _ gjson.Result) bool {
		level, _, _ := strings.Cut(key.String(), "___")
		hash_list = append(hash_list, level)
		return true
	})
	return hash_list, nil
}

// "custom_level_29CA353C17029D69F7C021F831BA0BC16030EC09" => "29ca353c17029d69f7c021f831ba0bc16030ec09"
func normalize_level_hash(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "custom_level_")
	return strings.ToLower(s)
}

// reads a file of level hashes, one per line, as a set.
func read_known_hashes(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read known hashes: %w", err)
	}
	known := map[string]bool{}
	for _, line := range strings.Split(string(data), "\n") {
		hash := normalize_level_hash(line)
		if hash != "" {
			known[hash] = true
		}
	}
	return known, nil
}

// splits the levels beneath `levels_dir` into those whose hash is in `known` and those whose isn't.
func partition_played(ctx context.Context, pool *Pool, levels_dir string, known map[string]bool) (played, not_played []HashedLevel, err error) {
	hashed_list, _, err := scan_levels(ctx, pool, levels_dir)
	if err != nil {
		return nil, nil, err
	}
	for _, level := range hashed_list {
		if known[level.Hash] {
			played = append(played, level)
		} else {
			not_played = append(not_played, level)
		}
	}
	return played, not_played, nil
}

// moves each of `level_list` into `output_dir`, keeping its directory name.
// a failed move is logged and doesn't stop the rest.
func move_levels(out io.Writer, level_list []HashedLevel, output_dir string) int {
	moved := 0
	for _, level := range level_list {
		dest := filepath.Join(output_dir, basename(level.Path))
		err := os.Rename(level.Path, dest)
		if err != nil {
			slog.Error("failed to move level", "path", level.Path, "error", err)
			continue
		}
		fmt.Fprintf(out, "Moved %s\n", basename(level.Path))
		moved += 1
	}
	return moved
}
