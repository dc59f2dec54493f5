package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"imagedup/logging"
	"imagedup/types"

	_ "github.com/mattn/go-sqlite3"
)

// FormatVersion is stored in PRAGMA user_version and in the meta table.
// Files carrying any other version are not read.
const FormatVersion = 1

const (
	metaFormatVersion = "format_version"
	metaHashAlgorithm = "hash_algorithm"
	metaRoot          = "root"
	metaWrittenAt     = "written_at"
)

// ErrIncompatibleFormat is returned for SQLite files that are not hash
// caches of the current format version
var ErrIncompatibleFormat = errors.New("incompatible cache format")

// Snapshot is the full content of one cache file
type Snapshot struct {
	Root      string
	Algorithm string
	WrittenAt time.Time
	Entries   []types.CacheEntry
}

// InitDatabase creates the cache schema in the file at dbPath and returns
// a connection to it
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS entries (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		mod_time INTEGER NOT NULL,
		hash TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating cache schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", FormatVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting format version: %w", err)
	}

	return db, nil
}

// OpenDatabase opens an existing cache file read-only
func OpenDatabase(dbPath string) (*sql.DB, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, err
	}
	dsn := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}).String()
	return sql.Open("sqlite3", dsn)
}

// CheckFormat verifies the file's format version
func CheckFormat(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("cannot read format version: %w", err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrIncompatibleFormat, version, FormatVersion)
	}
	return nil
}

// StoreEntries writes metadata and all entries in a single transaction
func StoreEntries(db *sql.DB, snap Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	meta := map[string]string{
		metaFormatVersion: strconv.Itoa(FormatVersion),
		metaHashAlgorithm: snap.Algorithm,
		metaRoot:          snap.Root,
		metaWrittenAt:     snap.WrittenAt.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("cannot write meta %s: %w", k, err)
		}
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO entries (path, size, mod_time, hash) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range snap.Entries {
		if _, err := stmt.Exec(e.Path, e.Size, e.ModTime, e.Hash.String()); err != nil {
			return fmt.Errorf("cannot insert data for %s: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit cache: %w", err)
	}
	return nil
}

// QueryEntries returns every cache entry ordered by path
func QueryEntries(db *sql.DB) ([]types.CacheEntry, error) {
	rows, err := db.Query(`SELECT path, size, mod_time, hash FROM entries ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("cannot query entries: %w", err)
	}
	defer rows.Close()

	entries := []types.CacheEntry{}
	for rows.Next() {
		var (
			e       types.CacheEntry
			hashHex string
		)
		if err := rows.Scan(&e.Path, &e.Size, &e.ModTime, &hashHex); err != nil {
			return nil, fmt.Errorf("cannot scan entry: %w", err)
		}
		e.Hash, err = types.ParseImageHash(hashHex)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.Path, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// QueryMeta returns the key/value metadata table
func QueryMeta(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("cannot query meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("cannot scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// WriteSnapshot writes snap into the (new or empty) file at dbPath
func WriteSnapshot(dbPath string, snap Snapshot) error {
	db, err := InitDatabase(dbPath)
	if err != nil {
		return err
	}

	if err := StoreEntries(db, snap); err != nil {
		db.Close()
		return err
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("cannot close cache: %w", err)
	}

	logging.DebugLog("Wrote %d entries to %s", len(snap.Entries), dbPath)
	return nil
}

// ReadSnapshot reads a whole cache file
func ReadSnapshot(dbPath string) (*Snapshot, error) {
	db, err := OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := CheckFormat(db); err != nil {
		return nil, err
	}

	meta, err := QueryMeta(db)
	if err != nil {
		return nil, err
	}
	if meta[metaFormatVersion] != strconv.Itoa(FormatVersion) {
		return nil, fmt.Errorf("%w: meta version %q", ErrIncompatibleFormat, meta[metaFormatVersion])
	}

	entries, err := QueryEntries(db)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Root:      meta[metaRoot],
		Algorithm: meta[metaHashAlgorithm],
		Entries:   entries,
	}
	if ts, err := time.Parse(time.RFC3339Nano, meta[metaWrittenAt]); err == nil {
		snap.WrittenAt = ts
	}
	return snap, nil
}

// CacheStats contains statistics about a cache file
type CacheStats struct {
	TotalEntries int
	UniqueHashes int
	Algorithm    string
	Root         string
	WrittenAt    string
}

// GetCacheStats retrieves statistics about the cache file at dbPath
func GetCacheStats(dbPath string) (*CacheStats, error) {
	db, err := OpenDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := CheckFormat(db); err != nil {
		return nil, err
	}

	var stats CacheStats
	if err := db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&stats.TotalEntries); err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(DISTINCT hash) FROM entries").Scan(&stats.UniqueHashes); err != nil {
		return nil, fmt.Errorf("failed to count unique hashes: %w", err)
	}

	meta, err := QueryMeta(db)
	if err != nil {
		return nil, err
	}
	stats.Algorithm = meta[metaHashAlgorithm]
	stats.Root = meta[metaRoot]
	stats.WrittenAt = meta[metaWrittenAt]

	return &stats, nil
}
