package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// a level as recorded by a scan.
type IndexedLevel struct {
	ScanID   string  `json:"scan_id"`
	Hash     string  `json:"hash"`
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	SubTitle string  `json:"sub_title"`
	Author   string  `json:"author"`
	Mapper   string  `json:"mapper"`
	BPM      float64 `json:"bpm"`
	Legacy   bool    `json:"legacy"`
}

// a SQLite database of scanned levels.
// every scan gets a ULID so scans sort by the order they were made.
type LevelIndex struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// opens or creates the index at `db_path`.
func NewLevelIndex(db_path string) (*LevelIndex, error) {
	err := os.MkdirAll(filepath.Dir(db_path), 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", db_path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	idx := &LevelIndex{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	err = idx.migrate()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate index: %w", err)
	}
	return idx, nil
}

func (idx *LevelIndex) Close() error {
	return idx.db.Close()
}

func (idx *LevelIndex) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), idx.entropy).String()
}

func (idx *LevelIndex) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id          TEXT PRIMARY KEY,
		root        TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		scanned     INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		failed      INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS levels (
		scan_id     TEXT NOT NULL REFERENCES scans(id),
		hash        TEXT NOT NULL,
		path        TEXT NOT NULL,
		title       TEXT NOT NULL,
		sub_title   TEXT NOT NULL,
		author      TEXT NOT NULL,
		mapper      TEXT NOT NULL,
		bpm         REAL NOT NULL,
		legacy      INTEGER NOT NULL,
		PRIMARY KEY (scan_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_levels_hash ON levels(hash);
	`
	_, err := idx.db.Exec(schema)
	return err
}

// records a scan of `root` and its levels, returning the new scan id.
func (idx *LevelIndex) RecordScan(ctx context.Context, root string, report ScanReport, level_list []IndexedLevel) (string, error) {
	scan_id := idx.newID()

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, root, created_at, scanned, skipped, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		scan_id, root, time.Now().UTC().Format(time.RFC3339), report.Scanned, report.Skipped, report.Failed)
	if err != nil {
		return "", fmt.Errorf("failed to insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO levels (scan_id, hash, path, title, sub_title, author, mapper, bpm, legacy) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare level insert: %w", err)
	}
	defer stmt.Close()

	for _, level := range level_list {
		_, err = stmt.ExecContext(ctx, scan_id, level.Hash, level.Path, level.Title, level.SubTitle, level.Author, level.Mapper, level.BPM, level.Legacy)
		if err != nil {
			return "", fmt.Errorf("failed to insert level '%s': %w", level.Path, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return "", fmt.Errorf("failed to commit scan: %w", err)
	}
	return scan_id, nil
}

// every recorded level with content hash `hash`, newest scan first.
func (idx *LevelIndex) LevelsByHash(ctx context.Context, hash string) ([]IndexedLevel, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT scan_id, hash, path, title, sub_title, author, mapper, bpm, legacy
		FROM levels WHERE hash = ? ORDER BY scan_id DESC, path`, normalize_level_hash(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to query levels: %w", err)
	}
	defer rows.Close()

	level_list := []IndexedLevel{}
	for rows.Next() {
		var level IndexedLevel
		err = rows.Scan(&level.ScanID, &level.Hash, &level.Path, &level.Title, &level.SubTitle, &level.Author, &level.Mapper, &level.BPM, &level.Legacy)
		if err != nil {
			return nil, fmt.Errorf("failed to read level: %w", err)
		}
		level_list = append(level_list, level)
	}
	return level_list, rows.Err()
}

// the id of the most recent scan, or "" if there are none.
func (idx *LevelIndex) LatestScanID(ctx context.Context) (string, error) {
	var scan_id sql.NullString
	err := idx.db.QueryRowContext(ctx, `SELECT MAX(id) FROM scans`).Scan(&scan_id)
	if err != nil {
		return "", fmt.Errorf("failed to query scans: %w", err)
	}
	return scan_id.String, nil
}

// describes a hashed level for the index.
func indexed_level(level HashedLevel) (IndexedLevel, error) {
	info_bytes, _, err := read_info_file(level.Path)
	if err != nil {
		return IndexedLevel{}, err
	}
	info, err := parse_info_dat(info_bytes)
	if err != nil {
		return IndexedLevel{}, err
	}
	current := normalize(info)

	mapper := ""
	if len(current.DifficultyBeatmaps) > 0 && len(current.DifficultyBeatmaps[0].BeatmapAuthors.Mappers) > 0 {
		mapper = current.DifficultyBeatmaps[0].BeatmapAuthors.Mappers[0]
	}

	return IndexedLevel{
		Hash:     level.Hash,
		Path:     level.Path,
		Title:    current.Song.Title,
		SubTitle: current.Song.SubTitle,
		Author:   current.Song.Author,
		Mapper:   mapper,
		BPM:      current.Audio.BPM,
		Legacy:   info.IsLegacy(),
	}, nil
}

// hashes every level beneath `root` and records them in `idx` as a new scan.
func index_levels(ctx context.Context, pool *Pool, idx *LevelIndex, root string) (string, ScanReport, error) {
	hashed_list, report, err := scan_levels(ctx, pool, root)
	if err != nil {
		return "", report, err
	}

	level_list := []IndexedLevel{}
	for _, level := range hashed_list {
		indexed, err := indexed_level(level)
		if err != nil {
			report.Failed += 1
			continue
		}
		level_list = append(level_list, indexed)
	}

	scan_id, err := idx.RecordScan(ctx, root, report, level_list)
	return scan_id, report, err
}
