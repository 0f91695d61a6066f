package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

// a set of level directories with identical content.
type Duplication struct {
	Hash  string   `json:"hash"`
	Name  string   `json:"name"` // the preferred directory name among `Paths`
	Paths []string `json:"paths"`
}

// what happened to the directories beneath a CustomLevels root during a scan.
type ScanReport struct {
	Scanned int // directories considered
	Skipped int // directories that had no info file
	Failed  int // directories whose files couldn't be hashed
}

// a level directory and its content hash.
type HashedLevel struct {
	Path string
	Hash string
}

// hash => paths, remembering the order hashes and paths were first seen in.
type orderedMultiMap struct {
	idx       map[string][]string
	key_order []string
}

func newOrderedMultiMap() *orderedMultiMap {
	return &orderedMultiMap{idx: map[string][]string{}}
}

func (m *orderedMultiMap) Add(key, val string) {
	existing, present := m.idx[key]
	if !present {
		m.key_order = append(m.key_order, key)
	}
	m.idx[key] = append(existing, val)
}

func (m *orderedMultiMap) Keys() []string {
	return m.key_order
}

func (m *orderedMultiMap) Get(key string) []string {
	return m.idx[key]
}

// returns the paths of the immediate subdirectories of `root`, in directory listing order.
func level_dirs(root string) ([]string, error) {
	entry_list, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}
	path_list := []string{}
	for _, entry := range entry_list {
		if !entry.IsDir() {
			continue
		}
		path_list = append(path_list, filepath.Join(root, entry.Name()))
	}
	return path_list, nil
}

// hashes every level directory beneath `root` using `pool`.
// directories without an info file are skipped silently.
// directories that fail to hash are logged, counted and skipped, the scan carries on.
func scan_levels(ctx context.Context, pool *Pool, root string) ([]HashedLevel, ScanReport, error) {
	report := ScanReport{}

	path_list, err := level_dirs(root)
	if err != nil {
		return nil, report, err
	}
	report.Scanned = len(path_list)

	type result struct {
		hash  string
		found bool
		err   error
	}
	result_list, err := pooled_map(ctx, pool, path_list, func(level_path string) result {
		hash, found, err := level_hash(level_path)
		return result{hash, found, err}
	})
	if err != nil {
		return nil, report, err
	}

	hashed_list := []HashedLevel{}
	for i, r := range result_list {
		if r.err != nil {
			slog.Warn("failed to hash level, skipping", "path", path_list[i], "error", r.err)
			report.Failed += 1
			continue
		}
		if !r.found {
			slog.Debug("no info file, skipping", "path", path_list[i])
			report.Skipped += 1
			continue
		}
		hashed_list = append(hashed_list, HashedLevel{Path: path_list[i], Hash: r.hash})
	}

	return hashed_list, report, nil
}

// finds groups of level directories beneath `root` that share a content hash.
// groups are returned in the order their hash was first seen.
func find_duplicates(ctx context.Context, pool *Pool, root string) ([]Duplication, ScanReport, error) {
	hashed_list, report, err := scan_levels(ctx, pool, root)
	if err != nil {
		return nil, report, err
	}

	hash_map := newOrderedMultiMap()
	for _, level := range hashed_list {
		hash_map.Add(level.Hash, level.Path)
	}

	candidate_list := []Duplication{}
	for _, hash := range hash_map.Keys() {
		path_list := hash_map.Get(hash)
		if len(path_list) == 1 {
			continue
		}
		candidate_list = append(candidate_list, Duplication{Hash: hash, Paths: path_list})
	}

	type result struct {
		name string
		err  error
	}
	result_list, err := pooled_map(ctx, pool, candidate_list, func(dupe Duplication) result {
		name, err := flavor_name_for_paths(dupe.Paths)
		return result{name, err}
	})
	if err != nil {
		return nil, report, err
	}

	duplicate_list := []Duplication{}
	for i, r := range result_list {
		if r.err != nil {
			return nil, report, fmt.Errorf("failed to pick a name for duplicate '%s': %w", candidate_list[i].Hash, r.err)
		}
		dupe := candidate_list[i]
		dupe.Name = r.name
		duplicate_list = append(duplicate_list, dupe)
	}

	return duplicate_list, report, nil
}

// reads the title from the info file of the first path and picks the preferred directory name.
func flavor_name_for_paths(path_list []string) (string, error) {
	ensure(len(path_list) > 0, "no name found")

	info_bytes, found, err := read_info_file(path_list[0])
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("info file disappeared: %s", path_list[0])
	}

	info, err := parse_info_dat(info_bytes)
	if err != nil {
		return "", err
	}

	name_list := []string{}
	for _, path := range path_list {
		name_list = append(name_list, basename(path))
	}
	return find_flavor_name(normalize(info).Song.Title, name_list), nil
}

// character offset of `substr` in `s`, or -1.
// counted in runes, not bytes and not UTF-16 code units,
// so a name with emoji before `substr` ranks by the characters a reader sees.
func char_index(s, substr string) int {
	i := strings.Index(s, substr)
	if i == -1 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

// picks the preferred name among directory names of the same level.
// names containing "(<title>" win, the later it appears the better,
// as in "4685e (Tic! Tac! Toe! - GalaxyMaster)".
// otherwise names containing the title win, the earlier it appears the better.
// ties keep their original order.
func find_flavor_name(title string, name_list []string) string {
	ensure(len(name_list) > 0, "no name found")

	primary := func(name string) int {
		return -char_index(name, "("+title)
	}
	secondary := func(name string) int {
		i := char_index(name, title)
		if i == -1 {
			return math.MaxInt
		}
		return i
	}

	sorted_list := slices.Clone(name_list)
	slices.SortStableFunc(sorted_list, func(a, b string) int {
		if pa, pb := primary(a), primary(b); pa != pb {
			return pa - pb
		}
		sa, sb := secondary(a), secondary(b)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})

	return sorted_list[0]
}
