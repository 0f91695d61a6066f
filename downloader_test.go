package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_extract_map_ids(t *testing.T) {
	cases := map[string][]string{
		"":                               {},
		"1008d (Gypsytronic - Emir)":     {"1008d"},
		"1008d\n100e6\n":                 {"1008d", "100e6"},
		"  1008d indented\r\n100e6\r\n":  {"1008d", "100e6"},
		"not an id\n1008d":               {"1008d"},
		"1008d (Gypsytronic)\n\n100e6 x": {"1008d", "100e6"},
	}
	for given, expected := range cases {
		assert.Equal(t, expected, extract_map_ids(given), given)
	}
}

func Test_disposition_filename(t *testing.T) {
	cases := map[string]string{
		`attachment; filename="1008d (Gypsytronic - Emir).zip"`: "1008d (Gypsytronic - Emir).zip",
		`attachment; filename="100e6 (What? - Who).zip"`:        "100e6 (What_ - Who).zip",
		`attachment; filename="../../etc/passwd"`:               "passwd",
	}
	for given, expected := range cases {
		actual, ok := disposition_filename(given)
		assert.True(t, ok, given)
		assert.Equal(t, expected, actual)
	}

	for _, given := range []string{"", "attachment", `attachment; filename=""`} {
		_, ok := disposition_filename(given)
		assert.False(t, ok, given)
	}
}

func Test_download_all(t *testing.T) {
	fake := new_fake_beatsaver(t)
	fake.add_map(t, "1008d", "Gypsytronic", "Emir", "aaaa", map[string]string{"Info.dat": "1008d"})
	fake.add_map(t, "100e6", "Flowering", "Bloodcloak", "bbbb", map[string]string{"Info.dat": "100e6"})
	ctx := context.Background()

	t.Run("single map", func(t *testing.T) {
		result_list, err := download_all(ctx, NewPool(DOWNLOAD_POOL_WIDTH), []string{"1008d"}, download_map)
		require.NoError(t, err)
		require.Len(t, result_list, 1)
		require.NoError(t, result_list[0].Err)
		assert.Equal(t, "1008d (Gypsytronic - Emir).zip", result_list[0].Name)
		assert.Equal(t, fake.zips["1008d"], result_list[0].Bytes)
	})

	t.Run("unpublished map", func(t *testing.T) {
		result_list, err := download_all(ctx, NewPool(DOWNLOAD_POOL_WIDTH), []string{"10000"}, download_map)
		require.NoError(t, err)
		require.Len(t, result_list, 1)
		assert.ErrorContains(t, result_list[0].Err, "id 10000 download failure")
		assert.ErrorIs(t, result_list[0].Err, ErrMapNotFound)
	})

	t.Run("multiple maps", func(t *testing.T) {
		result_list, err := download_all(ctx, NewPool(DOWNLOAD_POOL_WIDTH), extract_map_ids("1008d (Gypsytronic - Emir)\n10000\n100e6 (Flowering - Bloodcloak)"), download_map)
		require.NoError(t, err)
		require.Len(t, result_list, 3)
		assert.Equal(t, "1008d (Gypsytronic - Emir).zip", result_list[0].Name)
		assert.Error(t, result_list[1].Err)
		assert.Equal(t, "100e6 (Flowering - Bloodcloak).zip", result_list[2].Name)
	})
}

func Test_download_map__not_sole_version(t *testing.T) {
	fake := new_fake_beatsaver(t)
	m := fake.add_map(t, "1008d", "Gypsytronic", "Emir", "aaaa", map[string]string{})
	m.Versions = append(m.Versions, BeatsaverVersion{Hash: "cccc"})
	fake.maps["1008d"] = m

	_, err := download_map(context.Background(), "1008d")
	assert.ErrorContains(t, err, "not sole version: 1008d")
}

func Test_save_map(t *testing.T) {
	output_dir := t.TempDir()
	path, err := save_map(DownloadedMap{ID: "1008d", Name: "1008d (Gypsytronic - Emir).zip", Bytes: []byte("zip")}, output_dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(output_dir, "1008d (Gypsytronic - Emir).zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zip", string(data))
}

func Test_extract_map(t *testing.T) {
	fake := new_fake_beatsaver(t)
	info := current_info(t, "Gypsytronic", "song.dat", [2]string{"Expert.dat", "Lights.dat"})
	fake.add_map(t, "1008d", "Gypsytronic", "Emir", "aaaa", map[string]string{
		"Info.dat":   info,
		"song.dat":   "audio",
		"Expert.dat": "notes",
		"Lights.dat": "lights",
	})
	levels_dir := t.TempDir()

	result, err := extract_map(context.Background(), "1008d", levels_dir)
	require.NoError(t, err)
	assert.Equal(t, "1008d (Gypsytronic - Emir)", result.Name)

	level_path := filepath.Join(levels_dir, "1008d (Gypsytronic - Emir)")
	assert.Equal(t, level_path, result.Path)

	hash, found, err := level_hash(level_path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sha1_of_files([]byte(info), []byte("audio"), []byte("notes"), []byte("lights")), hash)

	// a second extraction doesn't clobber the first.
	_, err = extract_map(context.Background(), "1008d", levels_dir)
	assert.ErrorContains(t, err, "already exists")
}

func Test_extract_map__zip_slip(t *testing.T) {
	fake := new_fake_beatsaver(t)
	fake.add_map(t, "1008d", "Gypsytronic", "Emir", "aaaa", map[string]string{"../escaped.dat": "nope"})
	levels_dir := t.TempDir()

	_, err := extract_map(context.Background(), "1008d", levels_dir)
	assert.Error(t, err)
	assert.False(t, path_exists(filepath.Join(levels_dir, "escaped.dat")))
	assert.False(t, path_exists(filepath.Join(levels_dir, "1008d (Gypsytronic - Emir)")))
}
