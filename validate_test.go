package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_validate_levels(t *testing.T) {
	root := t.TempDir()
	write_current_level(t, root, "current", "Song", "x")
	write_level(t, root, "legacy", map[string]string{"info.dat": legacy_info(t, "Song", 120, "Expert.dat")})
	write_level(t, root, "not a level", map[string]string{"readme.txt": "hi"})
	empty := write_level(t, root, "empty object", map[string]string{"Info.dat": "{}"})
	garbage := write_level(t, root, "garbage", map[string]string{"Info.dat": "not json"})

	invalid_list, checked, err := validate_levels(root)
	require.NoError(t, err)
	assert.Equal(t, 4, checked)
	require.Len(t, invalid_list, 2)
	assert.Equal(t, empty, invalid_list[0].Path)
	assert.Error(t, invalid_list[0].Err)
	assert.Equal(t, garbage, invalid_list[1].Path)
	assert.Error(t, invalid_list[1].Err)
}

func Test_validate_levels__missing_root(t *testing.T) {
	_, _, err := validate_levels(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
