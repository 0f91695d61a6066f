package main

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// the number of maps downloaded at once.
const DOWNLOAD_POOL_WIDTH = 3

// a leading hex id per line, anything after it is ignored.
// "1008d (Gypsytronic - Emir)" => "1008d"
var map_id_pattern = regexp.MustCompile(`(?m)^\s*?([0-9a-f]+)\b`)

type DownloadedMap struct {
	ID    string
	Name  string // "1008d (Gypsytronic - Emir).zip"
	Bytes []byte
	Path  string // where it was written, if it was
	Err   error
}

// returns the map ids in `text`, one per line, in order.
func extract_map_ids(text string) []string {
	id_list := []string{}
	for _, match := range map_id_pattern.FindAllStringSubmatch(text, -1) {
		id_list = append(id_list, match[1])
	}
	return id_list
}

// returns the only version of map `id`.
// maps with more than one version are ambiguous, maps with none are unpublished.
func sole_version(ctx context.Context, id string) (BeatsaverMap, BeatsaverVersion, error) {
	m, err := beatsaver_map_by_id(ctx, id)
	if err != nil {
		return m, BeatsaverVersion{}, err
	}
	if len(m.Versions) != 1 {
		return m, BeatsaverVersion{}, fmt.Errorf("not sole version: %s", id)
	}
	return m, m.Versions[0], nil
}

// the filename from a `Content-Disposition` header, with `?` made filesystem safe.
func disposition_filename(header string) (string, bool) {
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", false
	}
	name, present := params["filename"]
	if !present || name == "" {
		return "", false
	}
	return strings.ReplaceAll(basename(name), "?", "_"), true
}

// downloads the zip of the latest version of map `id`.
func download_map(ctx context.Context, id string) (DownloadedMap, error) {
	empty_response := DownloadedMap{ID: id}

	m, version, err := sole_version(ctx, id)
	if err != nil {
		return empty_response, err
	}

	resp, err := download(ctx, STATE.ZipClient, version.DownloadURL)
	if err != nil {
		return empty_response, err
	}
	if resp.StatusCode != 200 {
		return empty_response, fmt.Errorf("unsuccessful response downloading zip: %d", resp.StatusCode)
	}

	name, ok := disposition_filename(resp.Header.Get("Content-Disposition"))
	if !ok {
		name = beatsaver_directory_name(m) + ".zip"
	}

	return DownloadedMap{ID: id, Name: name, Bytes: resp.Bytes}, nil
}

// downloads every map in `id_list` using `pool`.
// results are in the same order as `id_list`, a failed download carries its error in `Err`.
func download_all(ctx context.Context, pool *Pool, id_list []string, fn func(context.Context, string) (DownloadedMap, error)) ([]DownloadedMap, error) {
	return pooled_map(ctx, pool, id_list, func(id string) DownloadedMap {
		result, err := fn(ctx, id)
		if err != nil {
			return DownloadedMap{ID: id, Err: fmt.Errorf("id %s download failure: %w", id, err)}
		}
		return result
	})
}

// writes the zip of `dm` to `output_dir`.
func save_map(dm DownloadedMap, output_dir string) (string, error) {
	path := filepath.Join(output_dir, dm.Name)
	err := os.WriteFile(path, dm.Bytes, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to save zip: %w", err)
	}
	return path, nil
}

// writes a single zip entry beneath `dest`.
// entries that would escape `dest` are refused.
func extract_zip_entry(zipped_file *zip.File, dest string) error {
	if !filepath.IsLocal(zipped_file.Name) {
		return fmt.Errorf("refusing to extract zip entry outside of level directory: %s", zipped_file.Name)
	}
	path := filepath.Join(dest, zipped_file.Name)
	if zipped_file.FileInfo().IsDir() {
		return os.MkdirAll(path, 0o755)
	}

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}

	fh, err := zipped_file.Open()
	if err != nil {
		return fmt.Errorf("failed to open zipped file entry: %w", err)
	}
	defer fh.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, fh)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to read zipped file entry: %w", err)
	}
	return out.Close()
}

// extracts the latest version of map `id` straight into a new directory beneath `levels_dir`,
// named the way BeatSaver names it.
// the zip is read remotely, it is never written to disk.
func extract_map(ctx context.Context, id string, levels_dir string) (DownloadedMap, error) {
	empty_response := DownloadedMap{ID: id}

	m, version, err := sole_version(ctx, id)
	if err != nil {
		return empty_response, err
	}

	dest := filepath.Join(levels_dir, beatsaver_directory_name(m))
	if path_exists(dest) {
		return empty_response, fmt.Errorf("level directory already exists: %s", dest)
	}

	every_file := func(string) bool { return true }
	err = download_zip(ctx, STATE.ZipClient, version.DownloadURL, every_file, func(zipped_file *zip.File) error {
		return extract_zip_entry(zipped_file, dest)
	})
	if err != nil {
		os.RemoveAll(dest)
		return empty_response, err
	}

	_, found, err := read_info_file(dest)
	if err == nil && !found {
		err = errors.New("zip contained no info file")
	}
	if err != nil {
		slog.Warn("extracted level looks incomplete", "path", dest, "error", err)
	}

	return DownloadedMap{ID: id, Name: basename(dest), Path: dest}, nil
}
