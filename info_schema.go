package main

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// the parts of a v2/v3 `Info.dat` a level's hash depends on.
var INFO_LEGACY_SCHEMA = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["_version", "_songName", "_difficultyBeatmapSets"],
	"properties": {
		"_version": {"type": "string"},
		"_songName": {"type": "string"},
		"_beatsPerMinute": {"type": "number"},
		"_difficultyBeatmapSets": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["_difficultyBeatmaps"],
				"properties": {
					"_beatmapCharacteristicName": {"type": "string"},
					"_difficultyBeatmaps": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["_beatmapFilename"],
							"properties": {
								"_difficulty": {"type": "string"},
								"_beatmapFilename": {"type": "string", "minLength": 1}
							}
						}
					}
				}
			}
		}
	}
}`

// the parts of a v4 `Info.dat` a level's hash depends on.
var INFO_CURRENT_SCHEMA = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["version", "song", "audio", "difficultyBeatmaps"],
	"properties": {
		"version": {"type": "string"},
		"song": {
			"type": "object",
			"required": ["title"],
			"properties": {
				"title": {"type": "string"},
				"subTitle": {"type": "string"},
				"author": {"type": "string"}
			}
		},
		"audio": {
			"type": "object",
			"required": ["audioDataFilename"],
			"properties": {
				"audioDataFilename": {"type": "string", "minLength": 1},
				"bpm": {"type": "number"}
			}
		},
		"difficultyBeatmaps": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["beatmapDataFilename", "lightshowDataFilename"],
				"properties": {
					"beatmapDataFilename": {"type": "string", "minLength": 1},
					"lightshowDataFilename": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var (
	info_legacy_schema  = jsonschema.MustCompileString("info-legacy.json", INFO_LEGACY_SCHEMA)
	info_current_schema = jsonschema.MustCompileString("info-current.json", INFO_CURRENT_SCHEMA)
)

// validates the bytes of an `Info.dat` file against the schema its `_version` field selects.
// stricter than hashing, which only needs the data file declarations.
func validate_info(raw []byte) error {
	if len(raw) == 0 {
		return fmt.Errorf("info file is empty")
	}

	raw = elide_bom(raw)

	var doc any
	err := json.Unmarshal(raw, &doc)
	if err != nil {
		return fmt.Errorf("failed to parse info file as JSON: %w", err)
	}

	schema := info_current_schema
	if is_legacy_info(raw) {
		schema = info_legacy_schema
	}

	err = schema.Validate(doc)
	if err != nil {
		return fmt.Errorf("info file failed validation: %w", err)
	}
	return nil
}
