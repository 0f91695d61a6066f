package main

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// the name of the manifest at the top of a level directory.
// checked in order, the first one found wins.
var INFO_FILENAMES = []string{"info.dat", "Info.dat"}

// reads the info file of the level at `level_path`.
// `found` is false when the level has no info file at all, which is not an error.
func read_info_file(level_path string) (raw []byte, found bool, err error) {
	for _, filename := range INFO_FILENAMES {
		raw, err = os.ReadFile(filepath.Join(level_path, filename))
		if err == nil {
			return raw, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to read info file: %w", err)
		}
	}
	return nil, false, nil
}

// returns the hex SHA-1 digest of `file_list` as if it were one contiguous buffer.
func sha1_of_files(file_list ...[]byte) string {
	h := sha1.New()
	for _, file_bytes := range file_list {
		h.Write(file_bytes)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// an info file must at least declare where its data files are.
// the rest of the document is not needed to hash a level.
func check_data_file_declarations(raw []byte) error {
	if is_legacy_info(raw) {
		if !gjson.GetBytes(raw, "_difficultyBeatmapSets").IsArray() {
			return errors.New("info file has no difficulty beatmap sets")
		}
		return nil
	}
	if gjson.GetBytes(raw, "audio.audioDataFilename").Type != gjson.String {
		return errors.New("info file has no audio data file")
	}
	if !gjson.GetBytes(raw, "difficultyBeatmaps").IsArray() {
		return errors.New("info file has no difficulty beatmaps")
	}
	return nil
}

// computes the content hash of the level at `level_path`.
// the info file is hashed byte-for-byte, followed by the data files it declares.
// only the data file declarations are required, other fields may be missing or mistyped.
// `found` is false (and `err` nil) when there is no info file.
// a declared data file that can't be read is an error.
func level_hash(level_path string) (hash string, found bool, err error) {
	info_bytes, found, err := read_info_file(level_path)
	if err != nil || !found {
		return "", found, err
	}

	info, err := parse_info_dat(info_bytes)
	if err != nil {
		return "", true, err
	}

	err = check_data_file_declarations(elide_bom(info_bytes))
	if err != nil {
		return "", true, err
	}

	file_list := [][]byte{info_bytes}
	for _, filename := range data_file_names(info) {
		if filename == "" {
			return "", true, errors.New("info file declares a data file without a name")
		}
		file_bytes, err := os.ReadFile(filepath.Join(level_path, filename))
		if err != nil {
			return "", true, fmt.Errorf("failed to read data file '%s': %w", filename, err)
		}
		file_list = append(file_list, file_bytes)
	}

	return sha1_of_files(file_list...), true, nil
}
