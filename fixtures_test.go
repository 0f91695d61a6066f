package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// a v4 info file for a level with `title`, the audio data file `audio`
// and one difficulty per beatmap/lightshow pair in `difficulties`.
func current_info(t *testing.T, title, audio string, difficulties ...[2]string) string {
	beatmap_list := []map[string]any{}
	for _, difficulty := range difficulties {
		beatmap_list = append(beatmap_list, map[string]any{
			"characteristic":        "Standard",
			"difficulty":            "Expert",
			"beatmapAuthors":        map[string]any{"mappers": []string{"GalaxyMaster"}, "lighters": []string{}},
			"beatmapDataFilename":   difficulty[0],
			"lightshowDataFilename": difficulty[1],
		})
	}
	doc := map[string]any{
		"version": "4.0.1",
		"song": map[string]any{
			"title":    title,
			"subTitle": "",
			"author":   "TAK x Corbin (NEWTYPE)",
		},
		"audio": map[string]any{
			"songFilename":      "song.ogg",
			"audioDataFilename": audio,
			"bpm":               150,
		},
		"difficultyBeatmaps": beatmap_list,
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

// a v2 info file for a level with `title` and one Standard difficulty per file in `beatmap_files`.
func legacy_info(t *testing.T, title string, bpm float64, beatmap_files ...string) string {
	beatmap_list := []map[string]any{}
	for _, filename := range beatmap_files {
		beatmap_list = append(beatmap_list, map[string]any{
			"_difficulty":      "ExpertPlus",
			"_difficultyRank":  9,
			"_beatmapFilename": filename,
		})
	}
	doc := map[string]any{
		"_version":               "2.0.0",
		"_songName":              title,
		"_songSubName":           "",
		"_songAuthorName":        "nameless",
		"_levelAuthorName":       "Hexagonial",
		"_beatsPerMinute":        bpm,
		"_songFilename":          "song.egg",
		"_coverImageFilename":    "cover.jpg",
		"_environmentName":       "DefaultEnvironment",
		"_difficultyBeatmapSets": []map[string]any{{"_beatmapCharacteristicName": "Standard", "_difficultyBeatmaps": beatmap_list}},
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

// writes `files` (name => contents) into a new directory `name` beneath `root`, returning its path.
func write_level(t *testing.T, root, name string, files map[string]string) string {
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(path, 0o755))
	for filename, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(path, filename), []byte(contents), 0o644))
	}
	return path
}

// a complete v4 level titled `title` whose data files contain `seed`.
func write_current_level(t *testing.T, root, name, title, seed string) string {
	return write_level(t, root, name, map[string]string{
		"Info.dat":       current_info(t, title, "song.dat", [2]string{"Expert.dat", "Lights.dat"}),
		"song.dat":       "audio " + seed,
		"Expert.dat":     "notes " + seed,
		"Lights.dat":     "lights " + seed,
		"cover.jpg":      "not hashed",
		"unrelated.json": "not hashed either",
	})
}
