package cache

import (
	"errors"
	"io/fs"
	"os"

	"imagedup/database"
)

// Info describes a cache file without loading it into a Store
type Info struct {
	Path   string
	Exists bool
	Size   int64
	Stats  *database.CacheStats
}

// Inspect resolves loc for root and reads the cache file's statistics
func Inspect(loc Location, root string) (*Info, error) {
	path, err := loc.Resolve(root)
	if err != nil {
		return nil, err
	}

	info := &Info{Path: path}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, &LoadError{Path: path, Err: err}
	}
	info.Exists = true
	info.Size = fi.Size()

	stats, err := database.GetCacheStats(path)
	if err != nil {
		return info, &LoadError{Path: path, Err: err}
	}
	info.Stats = stats
	return info, nil
}
