package cache

import (
	"errors"
	"fmt"
	"path/filepath"

	"imagedup/utils"

	"github.com/zeebo/xxh3"
)

// DefaultFileName is the cache file kept inside the scanned root
const DefaultFileName = ".image_hash.db"

// Location decides where the cache file for a root directory lives
type Location interface {
	Resolve(root string) (string, error)
}

// InRoot keeps the cache inside the scanned directory
type InRoot struct {
	Name string // defaults to DefaultFileName
}

func (l InRoot) Resolve(root string) (string, error) {
	name := l.Name
	if name == "" {
		name = DefaultFileName
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("cache file name %q must not contain a directory", name)
	}
	return filepath.Join(root, name), nil
}

// File uses an explicit cache path regardless of the root
type File struct {
	Path string
}

func (l File) Resolve(string) (string, error) {
	if l.Path == "" {
		return "", errors.New("empty cache file path")
	}
	return filepath.Abs(l.Path)
}

// Dir keeps one cache file per root in a shared directory, named after a
// hash of the root's absolute path
type Dir struct {
	Dir string // defaults to the per-user cache directory
}

func (l Dir) Resolve(root string) (string, error) {
	dir := l.Dir
	if dir == "" {
		var err error
		if dir, err = utils.GetDefaultCacheDir(); err != nil {
			return "", err
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("cannot resolve root %s: %w", root, err)
	}
	name := fmt.Sprintf("%016x.db", xxh3.HashString(filepath.Clean(abs)))
	return filepath.Join(dir, name), nil
}
