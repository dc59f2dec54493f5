package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"imagedup/database"
	"imagedup/types"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries []types.CacheEntry
	}{
		{"empty", nil},
		{"single", []types.CacheEntry{cached("a.jpg", 1, 2, 0x0123456789abcdef)}},
		{"many", []types.CacheEntry{
			cached("a.jpg", 1, 2, 0x1),
			cached("sub/b.png", 3, 4, 0xfedcba9876543210),
			cached("sub/deeper/c.gif", 5, 6, 0x0),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			s := New()
			for _, e := range tt.entries {
				s.Insert(e)
			}

			if err := s.Save(InRoot{}, root); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, DefaultFileName)); err != nil {
				t.Fatalf("cache file missing: %v", err)
			}

			loaded, err := Load(InRoot{}, root)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			got := loaded.Entries()
			if len(got) != len(tt.entries) {
				t.Fatalf("loaded %d entries, want %d", len(got), len(tt.entries))
			}
			want := s.Entries()
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("entry %d = %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(InRoot{}, t.TempDir())
	if err != nil {
		t.Fatalf("Load of missing cache returned error: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, DefaultFileName)
	if err := os.WriteFile(path, []byte(strings.Repeat("garbage ", 200)), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(InRoot{}, root)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got %T: %v", err, err)
	}
	if s == nil || s.Len() != 0 {
		t.Fatal("expected an empty usable store alongside LoadError")
	}
}

func TestLoadWrongAlgorithm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	snap := database.Snapshot{Algorithm: "ahash-v0", Entries: []types.CacheEntry{cached("a.jpg", 1, 1, 1)}}
	if err := database.WriteSnapshot(path, snap); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFile(path)
	if !errors.Is(err, database.ErrIncompatibleFormat) {
		t.Fatalf("got %v, want ErrIncompatibleFormat", err)
	}
	if s.Len() != 0 {
		t.Fatal("entries from an incompatible cache were kept")
	}
}

func TestSaveFailureKeepsDirectoryClean(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "cache.db")
	// A directory at the target path makes the final rename fail
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}

	s := New()
	s.Insert(cached("a.jpg", 1, 1, 1))
	err := s.Save(File{Path: target}, root)

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected *WriteError, got %T: %v", err, err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(root, ".image_hash-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v", leftovers)
	}
}

func TestRemovePartialSaves(t *testing.T) {
	root := t.TempDir()
	tmp := filepath.Join(root, ".image_hash-123.tmp")
	for _, name := range []string{tmp, tmp + "-journal"} {
		if err := os.WriteFile(name, []byte("partial"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	trackTemp(tmp)

	RemovePartialSaves()

	leftovers, _ := filepath.Glob(filepath.Join(root, ".image_hash-*"))
	if len(leftovers) != 0 {
		t.Fatalf("partial save not removed: %v", leftovers)
	}

	// a finished save is no longer tracked and survives
	s := New()
	s.Insert(cached("a.jpg", 1, 1, 1))
	if err := s.Save(InRoot{}, root); err != nil {
		t.Fatal(err)
	}
	RemovePartialSaves()
	if _, err := os.Stat(filepath.Join(root, DefaultFileName)); err != nil {
		t.Fatalf("saved cache removed: %v", err)
	}
	inflightMu.Lock()
	n := len(inflight)
	inflightMu.Unlock()
	if n != 0 {
		t.Fatalf("%d temp files still tracked after save", n)
	}
}

func TestSaveReplacesPreviousCache(t *testing.T) {
	root := t.TempDir()
	first := New()
	first.Insert(cached("old.jpg", 1, 1, 1))
	if err := first.Save(InRoot{}, root); err != nil {
		t.Fatal(err)
	}

	second := New()
	second.Insert(cached("new.jpg", 2, 2, 2))
	if err := second.Save(InRoot{}, root); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(InRoot{}, root)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Get("old.jpg"); ok || loaded.Len() != 1 {
		t.Fatalf("cache not replaced: %+v", loaded.Entries())
	}
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	info, err := Inspect(InRoot{}, root)
	if err != nil || info.Exists {
		t.Fatalf("Inspect on empty root = %+v, %v", info, err)
	}

	s := New()
	s.Insert(cached("a.jpg", 1, 1, 1))
	s.Insert(cached("b.jpg", 1, 1, 1))
	if err := s.Save(InRoot{}, root); err != nil {
		t.Fatal(err)
	}

	info, err = Inspect(InRoot{}, root)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Exists || info.Stats.TotalEntries != 2 || info.Stats.UniqueHashes != 1 {
		t.Fatalf("Inspect = %+v stats=%+v", info, info.Stats)
	}
}
