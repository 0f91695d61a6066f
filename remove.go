package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// the path in `dupe` to keep, the one whose directory name is the flavor name.
// falls back to the first path if none match.
func path_to_keep(dupe Duplication) string {
	for _, path := range dupe.Paths {
		if basename(path) == dupe.Name {
			return path
		}
	}
	return dupe.Paths[0]
}

// removes all but the preferred directory of each duplicate, printing what it does:
//
//	> 37483 (Moon Halo - Pleo) (keeping)
//	  37483 (Pleo - Moon Halo) (removing)
//
// nothing is removed when `dry_run` is true.
// a directory that can't be removed is reported beneath its entry and the rest carry on.
// returns the number of directories removed (or that would have been).
func remove_duplicates(out io.Writer, dupe_list []Duplication, dry_run bool) int {
	total := 0
	for _, dupe := range dupe_list {
		keep := path_to_keep(dupe)
		fmt.Fprintf(out, "> %s (keeping)\n", basename(keep))

		for _, path := range dupe.Paths {
			if path == keep {
				continue
			}
			if dry_run {
				fmt.Fprintf(out, "  %s (would remove)\n", basename(path))
				total += 1
				continue
			}
			fmt.Fprintf(out, "  %s (removing)\n", basename(path))
			err := os.RemoveAll(path)
			if err != nil {
				slog.Error("failed to remove level", "path", path, "error", err)
				fmt.Fprintf(out, "  Failed to remove %s\n", path)
				continue
			}
			total += 1
		}
	}
	return total
}
