package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var DEFAULT_API_URL = "https://beatsaver.com/api"

type BeatsaverMetadata struct {
	BPM             float64 `json:"bpm"`
	Duration        int     `json:"duration"`
	SongName        string  `json:"songName"`
	SongSubName     string  `json:"songSubName"`
	SongAuthorName  string  `json:"songAuthorName"`
	LevelAuthorName string  `json:"levelAuthorName"`
}

type BeatsaverVersion struct {
	Hash        string `json:"hash"`
	Key         string `json:"key"`
	State       string `json:"state"`
	CreatedAt   string `json:"createdAt"`
	DownloadURL string `json:"downloadURL"`
	CoverURL    string `json:"coverURL"`
	PreviewURL  string `json:"previewURL"`
}

// a map as returned by the BeatSaver API.
// only the fields we use are captured.
type BeatsaverMap struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Metadata    BeatsaverMetadata  `json:"metadata"`
	Uploaded    string             `json:"uploaded"`
	Automapper  bool               `json:"automapper"`
	Ranked      bool               `json:"ranked"`
	Qualified   bool               `json:"qualified"`
	Versions    []BeatsaverVersion `json:"versions"`
}

var ErrMapNotFound = errors.New("map not found")

// fetches `path` from the BeatSaver API and returns the body.
// a 404 is `ErrMapNotFound`, any other non-200 is an error.
func beatsaver_get(ctx context.Context, path string) (string, error) {
	url := STATE.APIURL + path
	resp, err := download(ctx, STATE.Client, url)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == 404 {
		return "", fmt.Errorf("%w: %s", ErrMapNotFound, url)
	}
	if resp.StatusCode != 200 {
		return "", fmt.Errorf("unsuccessful response from BeatSaver: %s: %d", url, resp.StatusCode)
	}
	return resp.Text, nil
}

func beatsaver_map(ctx context.Context, path string) (BeatsaverMap, error) {
	var m BeatsaverMap
	body, err := beatsaver_get(ctx, path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal([]byte(body), &m)
	if err != nil {
		return m, fmt.Errorf("failed to parse BeatSaver map as JSON: %w", err)
	}
	return m, nil
}

// "https://beatsaver.com/api/maps/hash/39ea1c7f8ecf7f927e2acd072378bc08c94f230a"
func beatsaver_map_by_hash(ctx context.Context, hash string) (BeatsaverMap, error) {
	return beatsaver_map(ctx, "/maps/hash/"+hash)
}

// "https://beatsaver.com/api/maps/id/1694f"
func beatsaver_map_by_id(ctx context.Context, id string) (BeatsaverMap, error) {
	return beatsaver_map(ctx, "/maps/id/"+id)
}

// "https://beatsaver.com/api/maps/ids/1008d,100e6"
// the response is an object keyed by id, maps are returned in the order they appear in it.
// ids BeatSaver doesn't know are absent.
func beatsaver_maps_by_ids(ctx context.Context, id_list []string) ([]BeatsaverMap, error) {
	body, err := beatsaver_get(ctx, "/maps/ids/"+strings.Join(id_list, ","))
	if err != nil {
		return nil, err
	}

	result := gjson.Parse(body)
	if !result.IsObject() {
		return nil, fmt.Errorf("expected an object of maps keyed by id: %s", body)
	}

	map_list := []BeatsaverMap{}
	result.ForEach(func(id, value gjson.Result) bool {
		var m BeatsaverMap
		err = json.Unmarshal([]byte(value.Raw), &m)
		if err != nil {
			err = fmt.Errorf("failed to parse BeatSaver map '%s' as JSON: %w", id.String(), err)
			return false
		}
		map_list = append(map_list, m)
		return true
	})
	if err != nil {
		return nil, err
	}
	return map_list, nil
}

var unsafe_filename_chars = regexp.MustCompile(`[/\\:*?"<>|]`)

// the directory name BeatSaver's own downloaders use for a map,
// minus characters that aren't allowed in filenames.
// "1694f (Ringed Genesis - That_Narwhal)"
func beatsaver_directory_name(m BeatsaverMap) string {
	raw_name := fmt.Sprintf("%s (%s - %s)", m.ID, m.Metadata.SongName, m.Metadata.LevelAuthorName)
	return unsafe_filename_chars.ReplaceAllString(raw_name, "")
}
