package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_path_to_keep(t *testing.T) {
	dupe := Duplication{Name: "37483 (Moon Halo - Pleo)", Paths: []string{"/levels/37483 (Pleo - Moon Halo)", "/levels/37483 (Moon Halo - Pleo)"}}
	assert.Equal(t, "/levels/37483 (Moon Halo - Pleo)", path_to_keep(dupe))

	dupe.Name = "something else"
	assert.Equal(t, "/levels/37483 (Pleo - Moon Halo)", path_to_keep(dupe))
}

func Test_remove_duplicates(t *testing.T) {
	root := t.TempDir()
	ingame := write_current_level(t, root, "37483 (Pleo - Moon Halo)", "Moon Halo", "x")
	preferred := write_current_level(t, root, "37483 (Moon Halo - Pleo)", "Moon Halo", "x")
	copied := write_current_level(t, root, "Moon Halo", "Moon Halo", "x")
	dupe_list := []Duplication{{Name: "37483 (Moon Halo - Pleo)", Paths: []string{ingame, preferred, copied}}}

	t.Run("dry run", func(t *testing.T) {
		var out bytes.Buffer
		total := remove_duplicates(&out, dupe_list, true)
		assert.Equal(t, 2, total)

		expected := "> 37483 (Moon Halo - Pleo) (keeping)\n" +
			"  37483 (Pleo - Moon Halo) (would remove)\n" +
			"  Moon Halo (would remove)\n"
		assert.Equal(t, expected, out.String())
		assert.True(t, path_exists(ingame))
		assert.True(t, path_exists(preferred))
		assert.True(t, path_exists(copied))
	})

	t.Run("for real", func(t *testing.T) {
		var out bytes.Buffer
		total := remove_duplicates(&out, dupe_list, false)
		assert.Equal(t, 2, total)

		expected := "> 37483 (Moon Halo - Pleo) (keeping)\n" +
			"  37483 (Pleo - Moon Halo) (removing)\n" +
			"  Moon Halo (removing)\n"
		assert.Equal(t, expected, out.String())
		assert.False(t, path_exists(ingame))
		assert.True(t, path_exists(preferred))
		assert.False(t, path_exists(copied))
	})
}

func Test_remove_duplicates__failure(t *testing.T) {
	root := t.TempDir()
	keep := write_current_level(t, root, "37483 (Moon Halo - Pleo)", "Moon Halo", "x")
	other := write_current_level(t, root, "Moon Halo", "Moon Halo", "x")
	// RemoveAll refuses paths ending in "."
	unremovable := write_current_level(t, root, "37483 (Pleo - Moon Halo)", "Moon Halo", "x") + "/."
	dupe_list := []Duplication{{Name: "37483 (Moon Halo - Pleo)", Paths: []string{keep, unremovable, other}}}

	var out bytes.Buffer
	total := remove_duplicates(&out, dupe_list, false)
	assert.Equal(t, 1, total)

	expected := "> 37483 (Moon Halo - Pleo) (keeping)\n" +
		"  . (removing)\n" +
		"  Failed to remove " + unremovable + "\n" +
		"  Moon Halo (removing)\n"
	assert.Equal(t, expected, out.String())
	assert.True(t, path_exists(unremovable))
	assert.False(t, path_exists(other))
}
