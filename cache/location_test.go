package cache

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLocations(t *testing.T) {
	root := t.TempDir()

	got, err := InRoot{}.Resolve(root)
	if err != nil || got != filepath.Join(root, DefaultFileName) {
		t.Fatalf("InRoot{}.Resolve = %q, %v", got, err)
	}
	if _, err := (InRoot{Name: "../escape.db"}).Resolve(root); err == nil {
		t.Fatal("expected error for name with directory")
	}

	explicit := filepath.Join(t.TempDir(), "x.db")
	got, err = File{Path: explicit}.Resolve(root)
	if err != nil || got != explicit {
		t.Fatalf("File.Resolve = %q, %v", got, err)
	}
	if _, err := (File{}).Resolve(root); err == nil {
		t.Fatal("expected error for empty path")
	}

	cacheDir := t.TempDir()
	a, err := Dir{Dir: cacheDir}.Resolve(root)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Dir{Dir: cacheDir}.Resolve(root + string(filepath.Separator))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("same root resolved to %q and %q", a, b)
	}
	if filepath.Dir(a) != cacheDir || !strings.HasSuffix(a, ".db") || len(filepath.Base(a)) != 19 {
		t.Fatalf("Dir.Resolve = %q", a)
	}

	other, err := Dir{Dir: cacheDir}.Resolve(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if other == a {
		t.Fatal("different roots share a cache file")
	}
}
