package main

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type LevelBPM struct {
	Name string
	BPM  float64
}

// reads the BPM of every level beneath `root`.
// levels without a readable info file are skipped.
func read_level_bpms(root string) ([]LevelBPM, error) {
	path_list, err := level_dirs(root)
	if err != nil {
		return nil, err
	}

	level_list := []LevelBPM{}
	for _, path := range path_list {
		info_bytes, found, err := read_info_file(path)
		if err != nil || !found {
			slog.Debug("skipping level without info file", "path", path, "error", err)
			continue
		}
		info, err := parse_info_dat(info_bytes)
		if err != nil {
			slog.Debug("skipping level with invalid info file", "path", path, "error", err)
			continue
		}
		level_list = append(level_list, LevelBPM{Name: basename(path), BPM: normalize(info).Audio.BPM})
	}
	return level_list, nil
}

// sorts `level_list` by ascending BPM, levels with the same BPM are ordered by name.
func sort_by_bpm(level_list []LevelBPM) {
	collator := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(level_list, func(a, b LevelBPM) int {
		if c := cmp.Compare(a.BPM, b.BPM); c != 0 {
			return c
		}
		return collator.CompareString(a.Name, b.Name)
	})
}

// "174 BPM - 3036 (Milk Crown on Sonnetica - hexagonial)"
func format_level_bpm(level LevelBPM) string {
	return fmt.Sprintf("%3.0f BPM - %s", level.BPM, level.Name)
}
