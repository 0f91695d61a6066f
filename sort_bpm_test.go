package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_sort_by_bpm(t *testing.T) {
	level_list := []LevelBPM{
		{"c", 200},
		{"b", 120},
		{"A", 120},
		{"a slow one", 60},
		{"Zed", 120},
	}
	sort_by_bpm(level_list)
	expected := []LevelBPM{
		{"a slow one", 60},
		{"A", 120},
		{"b", 120},
		{"Zed", 120},
		{"c", 200},
	}
	assert.Equal(t, expected, level_list)
}

func Test_format_level_bpm(t *testing.T) {
	cases := map[LevelBPM]string{
		{"3036 (Milk Crown)", 174}: "174 BPM - 3036 (Milk Crown)",
		{"slow", 95.4}:             " 95 BPM - slow",
		{"fast", 1000}:             "1000 BPM - fast",
	}
	for given, expected := range cases {
		assert.Equal(t, expected, format_level_bpm(given))
	}
}

func Test_read_level_bpms(t *testing.T) {
	root := t.TempDir()
	write_level(t, root, "3036 (Milk Crown on Sonnetica - hexagonial)", map[string]string{"info.dat": legacy_info(t, "Milk Crown on Sonnetica", 174, "Expert.dat")})
	write_current_level(t, root, "4685e (Tic! Tac! Toe! - GalaxyMaster)", "Tic! Tac! Toe!", "x")
	write_level(t, root, "no info", map[string]string{"song.egg": ""})
	write_level(t, root, "bad info", map[string]string{"Info.dat": "not json"})

	level_list, err := read_level_bpms(root)
	require.NoError(t, err)

	expected := []LevelBPM{
		{"3036 (Milk Crown on Sonnetica - hexagonial)", 174},
		{"4685e (Tic! Tac! Toe! - GalaxyMaster)", 150},
	}
	assert.Equal(t, expected, level_list)
}
