package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var quest_hash_pattern = regexp.MustCompile(`(?i)[0-9a-f]{40}`)

// Quest names levels after their hash, "custom_level_39ea1c7f8ecf7f927e2acd072378bc08c94f230a".
// returns the lowercased hash and `true` if one is present in the final element of `path`.
func hash_from_quest_name(path string) (string, bool) {
	match := quest_hash_pattern.FindString(basename(path))
	if match == "" {
		return "", false
	}
	return strings.ToLower(match), true
}

// the path `path` would be renamed to given its BeatSaver map `m`.
func beatsaver_directory_path(m BeatsaverMap, path string) string {
	return filepath.Join(filepath.Dir(path), beatsaver_directory_name(m))
}

// renames the quest-named level at `path` after its BeatSaver id, song and mapper.
// returns the new path.
func rename_level(ctx context.Context, path string) (string, error) {
	hash, ok := hash_from_quest_name(path)
	if !ok {
		return "", errors.New("no level hash in directory name")
	}

	m, err := beatsaver_map_by_hash(ctx, hash)
	if err != nil {
		return "", fmt.Errorf("failed to fetch map details: %w", err)
	}

	new_path := beatsaver_directory_path(m, path)
	if new_path == filepath.Clean(path) {
		return new_path, nil
	}
	if path_exists(new_path) {
		return "", fmt.Errorf("refusing to overwrite existing directory: %s", new_path)
	}

	err = os.Rename(path, new_path)
	if err != nil {
		return "", fmt.Errorf("failed to rename level: %w", err)
	}
	return new_path, nil
}

// renames each of `path_list`, printing "old -> new" or "fail: old".
// a failure doesn't stop the remaining renames.
func rename_levels(ctx context.Context, out io.Writer, path_list []string) int {
	failed := 0
	for _, path := range path_list {
		new_path, err := rename_level(ctx, path)
		if err != nil {
			slog.Error("failed to rename level", "path", path, "error", err)
			fmt.Fprintf(out, "fail: %s\n", path)
			failed += 1
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", path, basename(new_path))
	}
	return failed
}
