package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imagedup/database"
	"imagedup/imageprocessor"
	"imagedup/logging"
)

// LoadError reports a cache file that exists but could not be used. The
// accompanying store is always empty and usable.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load cache %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// WriteError reports a failed save. The previous cache file is untouched.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write cache %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// temp files of saves that have not been renamed into place yet
var (
	inflightMu sync.Mutex
	inflight   = make(map[string]struct{})
)

// Load reads the cache for root from loc. A missing file yields an empty
// store and no error.
func Load(loc Location, root string) (*Store, error) {
	path, err := loc.Resolve(root)
	if err != nil {
		return New(), &LoadError{Path: root, Err: err}
	}
	return LoadFile(path)
}

// LoadFile reads the cache file at path
func LoadFile(path string) (*Store, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.DebugLog("No cache at %s, starting empty", path)
		return New(), nil
	}
	if err != nil {
		return New(), &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return New(), &LoadError{Path: path, Err: errors.New("is a directory")}
	}

	snap, err := database.ReadSnapshot(path)
	if err != nil {
		return New(), &LoadError{Path: path, Err: err}
	}
	if snap.Algorithm != imageprocessor.HashAlgorithm {
		return New(), &LoadError{
			Path: path,
			Err:  fmt.Errorf("%w: hash algorithm %q", database.ErrIncompatibleFormat, snap.Algorithm),
		}
	}

	store := New()
	for _, e := range snap.Entries {
		store.Insert(e)
	}
	logging.DebugLog("Loaded %d cached hashes from %s", store.Len(), path)
	return store, nil
}

// Save persists the store for root to loc
func (s *Store) Save(loc Location, root string) error {
	path, err := loc.Resolve(root)
	if err != nil {
		return &WriteError{Path: root, Err: err}
	}
	return s.SaveFile(path, root)
}

// SaveFile writes the store to a temporary file next to path and renames it
// into place, so readers only ever see a complete cache
func (s *Store) SaveFile(path, root string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".image_hash-*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	trackTemp(tmpName)
	defer untrackTemp(tmpName)

	if err := tmp.Close(); err != nil {
		removeTemp(tmpName)
		return &WriteError{Path: path, Err: fmt.Errorf("close temp file: %w", err)}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	snap := database.Snapshot{
		Root:      absRoot,
		Algorithm: imageprocessor.HashAlgorithm,
		WrittenAt: time.Now(),
		Entries:   s.Entries(),
	}
	if err := database.WriteSnapshot(tmpName, snap); err != nil {
		removeTemp(tmpName)
		return &WriteError{Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		removeTemp(tmpName)
		return &WriteError{Path: path, Err: fmt.Errorf("rename temp file: %w", err)}
	}

	logging.DebugLog("Saved %d hashes to %s", len(snap.Entries), path)
	return nil
}

// RemovePartialSaves deletes the temp files of saves still in progress. It
// is meant for an interrupt handler that is about to exit the process.
func RemovePartialSaves() {
	inflightMu.Lock()
	defer inflightMu.Unlock()

	for name := range inflight {
		removeTemp(name)
		delete(inflight, name)
	}
}

func trackTemp(name string) {
	inflightMu.Lock()
	inflight[name] = struct{}{}
	inflightMu.Unlock()
}

func untrackTemp(name string) {
	inflightMu.Lock()
	delete(inflight, name)
	inflightMu.Unlock()
}

// removeTemp deletes a temp file and any journal SQLite left beside it
func removeTemp(name string) {
	os.Remove(name)
	os.Remove(name + "-journal")
}
