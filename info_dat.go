package main

import (
	"errors"

	"github.com/tidwall/gjson"
)

// an `Info.dat` from a v2 or v3 level.
// every field is prefixed with an underscore.
type InfoDatLegacy struct {
	Version            string  `json:"_version"`
	SongName           string  `json:"_songName"`
	SongSubName        string  `json:"_songSubName"`
	SongAuthorName     string  `json:"_songAuthorName"`
	LevelAuthorName    string  `json:"_levelAuthorName"`
	BeatsPerMinute     float64 `json:"_beatsPerMinute"`
	SongTimeOffset     float64 `json:"_songTimeOffset"`
	PreviewStartTime   float64 `json:"_previewStartTime"`
	PreviewDuration    float64 `json:"_previewDuration"`
	SongFilename       string  `json:"_songFilename"`
	CoverImageFilename string  `json:"_coverImageFilename"`
	EnvironmentName    string  `json:"_environmentName"`

	DifficultyBeatmapSets []LegacyBeatmapSet `json:"_difficultyBeatmapSets"`
}

type LegacyBeatmapSet struct {
	BeatmapCharacteristicName string          `json:"_beatmapCharacteristicName"`
	DifficultyBeatmaps        []LegacyBeatmap `json:"_difficultyBeatmaps"`
}

type LegacyBeatmap struct {
	Difficulty              string  `json:"_difficulty"`
	DifficultyRank          int     `json:"_difficultyRank"`
	BeatmapFilename         string  `json:"_beatmapFilename"`
	NoteJumpMovementSpeed   float64 `json:"_noteJumpMovementSpeed"`
	NoteJumpStartBeatOffset float64 `json:"_noteJumpStartBeatOffset"`
}

// an `Info.dat` from a v4 level.
type InfoDatCurrent struct {
	Version             string           `json:"version"`
	Song                InfoSong         `json:"song"`
	Audio               InfoAudio        `json:"audio"`
	SongPreviewFilename string           `json:"songPreviewFilename"`
	CoverImageFilename  string           `json:"coverImageFilename"`
	EnvironmentNames    []string         `json:"environmentNames"`
	DifficultyBeatmaps  []CurrentBeatmap `json:"difficultyBeatmaps"`
}

type InfoSong struct {
	Title    string `json:"title"`
	SubTitle string `json:"subTitle"`
	Author   string `json:"author"`
}

type InfoAudio struct {
	SongFilename      string  `json:"songFilename"`
	SongDuration      float64 `json:"songDuration"`
	AudioDataFilename string  `json:"audioDataFilename"`
	BPM               float64 `json:"bpm"`
	LUFS              float64 `json:"lufs"`
	PreviewStartTime  float64 `json:"previewStartTime"`
	PreviewDuration   float64 `json:"previewDuration"`
}

type BeatmapAuthors struct {
	Mappers  []string `json:"mappers"`
	Lighters []string `json:"lighters"`
}

type CurrentBeatmap struct {
	Characteristic          string         `json:"characteristic"`
	Difficulty              string         `json:"difficulty"`
	BeatmapAuthors          BeatmapAuthors `json:"beatmapAuthors"`
	NoteJumpMovementSpeed   float64        `json:"noteJumpMovementSpeed"`
	NoteJumpStartBeatOffset float64        `json:"noteJumpStartBeatOffset"`
	BeatmapDataFilename     string         `json:"beatmapDataFilename"`
	LightshowDataFilename   string         `json:"lightshowDataFilename"`
}

// exactly one of `Legacy` or `Current` is set.
type InfoDat struct {
	Legacy  *InfoDatLegacy
	Current *InfoDatCurrent
}

func (i InfoDat) IsLegacy() bool {
	return i.Legacy != nil
}

// a legacy document carries a top-level `_version` field, a current one carries `version`.
func is_legacy_info(raw []byte) bool {
	return gjson.GetBytes(raw, "_version").Exists()
}

// parses the bytes of an `Info.dat` file into whichever schema it uses.
// fields are read leniently, a missing field is left empty and a number written as a string
// is still a number. only bytes that aren't a JSON object are an error.
func parse_info_dat(raw []byte) (InfoDat, error) {
	empty_response := InfoDat{}

	if len(raw) == 0 {
		return empty_response, errors.New("info file is empty")
	}

	raw = elide_bom(raw)
	if !gjson.ValidBytes(raw) {
		return empty_response, errors.New("info file is not valid JSON")
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return empty_response, errors.New("info file is not a JSON object")
	}

	if is_legacy_info(raw) {
		legacy := parse_legacy_info(doc)
		return InfoDat{Legacy: &legacy}, nil
	}
	current := parse_current_info(doc)
	return InfoDat{Current: &current}, nil
}

func string_list(r gjson.Result) []string {
	str_list := []string{}
	for _, item := range r.Array() {
		str_list = append(str_list, item.String())
	}
	return str_list
}

func parse_legacy_info(doc gjson.Result) InfoDatLegacy {
	set_list := []LegacyBeatmapSet{}
	for _, set := range doc.Get("_difficultyBeatmapSets").Array() {
		beatmap_list := []LegacyBeatmap{}
		for _, beatmap := range set.Get("_difficultyBeatmaps").Array() {
			beatmap_list = append(beatmap_list, LegacyBeatmap{
				Difficulty:              beatmap.Get("_difficulty").String(),
				DifficultyRank:          int(beatmap.Get("_difficultyRank").Int()),
				BeatmapFilename:         beatmap.Get("_beatmapFilename").String(),
				NoteJumpMovementSpeed:   beatmap.Get("_noteJumpMovementSpeed").Float(),
				NoteJumpStartBeatOffset: beatmap.Get("_noteJumpStartBeatOffset").Float(),
			})
		}
		set_list = append(set_list, LegacyBeatmapSet{
			BeatmapCharacteristicName: set.Get("_beatmapCharacteristicName").String(),
			DifficultyBeatmaps:        beatmap_list,
		})
	}

	return InfoDatLegacy{
		Version:               doc.Get("_version").String(),
		SongName:              doc.Get("_songName").String(),
		SongSubName:           doc.Get("_songSubName").String(),
		SongAuthorName:        doc.Get("_songAuthorName").String(),
		LevelAuthorName:       doc.Get("_levelAuthorName").String(),
		BeatsPerMinute:        doc.Get("_beatsPerMinute").Float(),
		SongTimeOffset:        doc.Get("_songTimeOffset").Float(),
		PreviewStartTime:      doc.Get("_previewStartTime").Float(),
		PreviewDuration:       doc.Get("_previewDuration").Float(),
		SongFilename:          doc.Get("_songFilename").String(),
		CoverImageFilename:    doc.Get("_coverImageFilename").String(),
		EnvironmentName:       doc.Get("_environmentName").String(),
		DifficultyBeatmapSets: set_list,
	}
}

func parse_current_info(doc gjson.Result) InfoDatCurrent {
	beatmap_list := []CurrentBeatmap{}
	for _, beatmap := range doc.Get("difficultyBeatmaps").Array() {
		beatmap_list = append(beatmap_list, CurrentBeatmap{
			Characteristic: beatmap.Get("characteristic").String(),
			Difficulty:     beatmap.Get("difficulty").String(),
			BeatmapAuthors: BeatmapAuthors{
				Mappers:  string_list(beatmap.Get("beatmapAuthors.mappers")),
				Lighters: string_list(beatmap.Get("beatmapAuthors.lighters")),
			},
			NoteJumpMovementSpeed:   beatmap.Get("noteJumpMovementSpeed").Float(),
			NoteJumpStartBeatOffset: beatmap.Get("noteJumpStartBeatOffset").Float(),
			BeatmapDataFilename:     beatmap.Get("beatmapDataFilename").String(),
			LightshowDataFilename:   beatmap.Get("lightshowDataFilename").String(),
		})
	}

	audio := doc.Get("audio")
	return InfoDatCurrent{
		Version: doc.Get("version").String(),
		Song: InfoSong{
			Title:    doc.Get("song.title").String(),
			SubTitle: doc.Get("song.subTitle").String(),
			Author:   doc.Get("song.author").String(),
		},
		Audio: InfoAudio{
			SongFilename:      audio.Get("songFilename").String(),
			SongDuration:      audio.Get("songDuration").Float(),
			AudioDataFilename: audio.Get("audioDataFilename").String(),
			BPM:               audio.Get("bpm").Float(),
			LUFS:              audio.Get("lufs").Float(),
			PreviewStartTime:  audio.Get("previewStartTime").Float(),
			PreviewDuration:   audio.Get("previewDuration").Float(),
		},
		SongPreviewFilename: doc.Get("songPreviewFilename").String(),
		CoverImageFilename:  doc.Get("coverImageFilename").String(),
		EnvironmentNames:    string_list(doc.Get("environmentNames")),
		DifficultyBeatmaps:  beatmap_list,
	}
}

// maps a legacy document onto the current shape.
// only the fields used elsewhere are carried: song, bpm, filenames and the flattened difficulties.
// legacy levels have no lightshow files and no lighters.
func normalize(info InfoDat) InfoDatCurrent {
	if !info.IsLegacy() {
		ensure(info.Current != nil, "info has neither schema")
		return *info.Current
	}

	v2 := info.Legacy
	beatmap_list := []CurrentBeatmap{}
	for _, set := range v2.DifficultyBeatmapSets {
		for _, beatmap := range set.DifficultyBeatmaps {
			beatmap_list = append(beatmap_list, CurrentBeatmap{
				Characteristic:          set.BeatmapCharacteristicName,
				Difficulty:              beatmap.Difficulty,
				BeatmapAuthors:          BeatmapAuthors{Mappers: []string{v2.LevelAuthorName}},
				NoteJumpMovementSpeed:   beatmap.NoteJumpMovementSpeed,
				NoteJumpStartBeatOffset: beatmap.NoteJumpStartBeatOffset,
				BeatmapDataFilename:     beatmap.BeatmapFilename,
			})
		}
	}

	return InfoDatCurrent{
		Version: v2.Version,
		Song: InfoSong{
			Title:    v2.SongName,
			SubTitle: v2.SongSubName,
			Author:   v2.SongAuthorName,
		},
		Audio: InfoAudio{
			SongFilename:     v2.SongFilename,
			BPM:              v2.BeatsPerMinute,
			PreviewStartTime: v2.PreviewStartTime,
			PreviewDuration:  v2.PreviewDuration,
		},
		SongPreviewFilename: v2.SongFilename,
		CoverImageFilename:  v2.CoverImageFilename,
		EnvironmentNames:    []string{v2.EnvironmentName},
		DifficultyBeatmaps:  beatmap_list,
	}
}

// the data files a level's hash covers, in declaration order.
// legacy: every beatmap of every set.
// current: the audio data, then each difficulty's beatmap and lightshow.
func data_file_names(info InfoDat) []string {
	if info.IsLegacy() {
		name_list := []string{}
		for _, set := range info.Legacy.DifficultyBeatmapSets {
			for _, beatmap := range set.DifficultyBeatmaps {
				name_list = append(name_list, beatmap.BeatmapFilename)
			}
		}
		return name_list
	}

	per_difficulty := [][]string{}
	for _, beatmap := range info.Current.DifficultyBeatmaps {
		per_difficulty = append(per_difficulty, []string{beatmap.BeatmapDataFilename, beatmap.LightshowDataFilename})
	}
	return flatten(append([][]string{{info.Current.Audio.AudioDataFilename}}, per_difficulty...)...)
}
