// Package cache keeps perceptual hashes between runs and reconciles them
// against the files currently on disk.
package cache

import (
	"sort"
	"sync"

	"imagedup/types"
)

// Store maps relative image paths to their cached hash. It is normally
// owned by one goroutine; the mutex only keeps misuse from corrupting the map.
type Store struct {
	mu      sync.RWMutex
	entries map[string]types.CacheEntry
}

// ReconcileStats counts what Reconcile did
type ReconcileStats struct {
	Evicted int // cached paths no longer on disk
	Stale   int // cached paths whose size or mtime changed
	Pending int // paths that need hashing, new or stale
	Kept    int // entries reused as is
}

// New returns an empty store
func New() *Store {
	return &Store{entries: make(map[string]types.CacheEntry)}
}

// Len returns the number of entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the entry for path
func (s *Store) Get(path string) (types.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[path]
	return e, ok
}

// Insert adds or replaces the entry for e.Path
func (s *Store) Insert(e types.CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Path] = e
}

// Entries returns a copy of all entries sorted by path
func (s *Store) Entries() []types.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Reconcile brings the store in line with onDisk. Entries whose path is
// absent are evicted; entries whose signature changed are evicted and
// returned for rehashing together with paths the store has never seen.
// The returned identities are sorted by path.
func (s *Store) Reconcile(onDisk []types.FileIdentity) ([]types.FileIdentity, ReconcileStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ReconcileStats
	present := make(map[string]types.FileIdentity, len(onDisk))
	for _, id := range onDisk {
		present[id.Path] = id
	}

	for path := range s.entries {
		if _, ok := present[path]; !ok {
			delete(s.entries, path)
			stats.Evicted++
		}
	}

	pending := make([]types.FileIdentity, 0)
	for path, id := range present {
		cached, ok := s.entries[path]
		switch {
		case !ok:
			pending = append(pending, id)
		case !cached.SameSignature(id):
			delete(s.entries, path)
			stats.Stale++
			pending = append(pending, id)
		default:
			stats.Kept++
		}
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].Path < pending[j].Path })
	stats.Pending = len(pending)
	return pending, stats
}
