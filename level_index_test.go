package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func new_level_index(t *testing.T) *LevelIndex {
	idx, err := NewLevelIndex(filepath.Join(t.TempDir(), "nested", "levels.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func Test_LevelIndex__empty(t *testing.T) {
	idx := new_level_index(t)
	ctx := context.Background()

	scan_id, err := idx.LatestScanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", scan_id)

	level_list, err := idx.LevelsByHash(ctx, "29ca353c17029d69f7c021f831ba0bc16030ec09")
	require.NoError(t, err)
	assert.Empty(t, level_list)
}

func Test_indexed_level(t *testing.T) {
	root := t.TempDir()
	path := write_level(t, root, "3036", map[string]string{
		"info.dat":   legacy_info(t, "Milk Crown on Sonnetica", 174, "Expert.dat"),
		"Expert.dat": "notes",
	})

	level, err := indexed_level(HashedLevel{Path: path, Hash: "abc"})
	require.NoError(t, err)
	expected := IndexedLevel{
		Hash:   "abc",
		Path:   path,
		Title:  "Milk Crown on Sonnetica",
		Author: "nameless",
		Mapper: "Hexagonial",
		BPM:    174,
		Legacy: true,
	}
	assert.Equal(t, expected, level)
}

func Test_index_levels(t *testing.T) {
	idx := new_level_index(t)
	ctx := context.Background()
	pool := NewPool(DEFAULT_POOL_WIDTH)

	root := t.TempDir()
	a := write_current_level(t, root, "a", "Tic! Tac! Toe!", "same")
	b := write_current_level(t, root, "b", "Tic! Tac! Toe!", "same")
	write_current_level(t, root, "c", "Something Else", "different")
	write_level(t, root, "d", map[string]string{"readme.txt": "not a level"})

	first_scan, report, err := index_levels(ctx, pool, idx, root)
	require.NoError(t, err)
	assert.Equal(t, ScanReport{Scanned: 4, Skipped: 1}, report)

	latest, err := idx.LatestScanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first_scan, latest)

	hash, _, err := level_hash(a)
	require.NoError(t, err)

	// lookups are case insensitive
	level_list, err := idx.LevelsByHash(ctx, strings.ToUpper(hash))
	require.NoError(t, err)
	require.Len(t, level_list, 2)
	assert.Equal(t, a, level_list[0].Path)
	assert.Equal(t, b, level_list[1].Path)
	for _, level := range level_list {
		assert.Equal(t, first_scan, level.ScanID)
		assert.Equal(t, hash, level.Hash)
		assert.Equal(t, "Tic! Tac! Toe!", level.Title)
		assert.Equal(t, "GalaxyMaster", level.Mapper)
		assert.Equal(t, float64(150), level.BPM)
		assert.False(t, level.Legacy)
	}

	// a second scan sorts after the first and its levels come first
	second_scan, _, err := index_levels(ctx, pool, idx, root)
	require.NoError(t, err)
	assert.Greater(t, second_scan, first_scan)

	latest, err = idx.LatestScanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second_scan, latest)

	level_list, err = idx.LevelsByHash(ctx, hash)
	require.NoError(t, err)
	require.Len(t, level_list, 4)
	assert.Equal(t, second_scan, level_list[0].ScanID)
	assert.Equal(t, second_scan, level_list[1].ScanID)
	assert.Equal(t, first_scan, level_list[2].ScanID)
	assert.Equal(t, a, level_list[2].Path)
}
