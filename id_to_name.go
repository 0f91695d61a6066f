package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// BeatSaver accepts up to this many ids per `maps/ids` request.
const ID_CHUNK_SIZE = 20

// pause between `maps/ids` requests.
var ID_CHUNK_DELAY = 2 * time.Second

// "1008d\tGypsytronic - Ahmed (Emir)\n"
func format_map_name(m BeatsaverMap) string {
	md := m.Metadata
	return fmt.Sprintf("%s\t%s - %s (%s)\n", m.ID, strings.TrimSpace(md.SongName), strings.TrimSpace(md.SongAuthorName), strings.TrimSpace(md.LevelAuthorName))
}

// non-blank lines of `text`, trimmed.
func read_id_lines(text string) []string {
	id_list := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			id_list = append(id_list, line)
		}
	}
	return id_list
}

// looks up the names of maps `id_list` in chunks, writing a line per map to `out`.
// a chunk that fails to download is logged and skipped, a failure to write stops everything.
func ids_to_names(ctx context.Context, id_list []string, out io.Writer) error {
	first := true
	for chunk := range slices.Chunk(id_list, ID_CHUNK_SIZE) {
		if !first {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ID_CHUNK_DELAY):
			}
		}
		first = false

		map_list, err := beatsaver_maps_by_ids(ctx, chunk)
		if err != nil {
			slog.Error("failed to fetch map names", "ids", chunk, "error", err)
			continue
		}
		slog.Info("fetched map names", "ids", chunk, "num", len(map_list))

		lines := ""
		for _, m := range map_list {
			lines += format_map_name(m)
		}
		_, err = io.WriteString(out, lines)
		if err != nil {
			return fmt.Errorf("failed to write map names: %w", err)
		}
	}
	return nil
}
