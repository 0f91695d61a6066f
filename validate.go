package main

import (
	"log/slog"
)

type InvalidLevel struct {
	Path string
	Err  error
}

// validates the info file of every level beneath `root`.
// levels without an info file are not invalid, they're not levels.
func validate_levels(root string) ([]InvalidLevel, int, error) {
	path_list, err := level_dirs(root)
	if err != nil {
		return nil, 0, err
	}

	checked := 0
	invalid_list := []InvalidLevel{}
	for _, path := range path_list {
		info_bytes, found, err := read_info_file(path)
		if !found && err == nil {
			continue
		}
		checked += 1
		if err == nil {
			err = validate_info(info_bytes)
		}
		if err != nil {
			slog.Debug("invalid level", "path", path, "error", err)
			invalid_list = append(invalid_list, InvalidLevel{Path: path, Err: err})
		}
	}
	return invalid_list, checked, nil
}
