package scanner

import (
	"fmt"
	"time"

	"imagedup/cache"
	"imagedup/imageprocessor"
	"imagedup/types"
)

// ScanOptions defines the options for scanning
type ScanOptions struct {
	Root      string
	Location  cache.Location // defaults to cache.InRoot{}
	Workers   int            // <= 0 means one per available CPU
	Recursive bool
	Rebuild   bool // ignore any existing cache
	NoUpdate  bool // use the cache as loaded, without touching the filesystem
	NoDump    bool // do not write the cache back
	Progress  bool // show a progress bar when stderr is a terminal

	// Registry decodes images; a private one is created and closed when nil
	Registry *imageprocessor.ImageLoaderRegistry
}

// HashResult is what a worker reports for one file
type HashResult struct {
	Identity types.FileIdentity
	Hash     types.ImageHash
	Err      error
}

// Stats summarises one scan
type Stats struct {
	Found    int           `json:"found"`
	Cached   int           `json:"cached"`
	Evicted  int           `json:"evicted"`
	Stale    int           `json:"stale"`
	Hashed   int           `json:"hashed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

// ScanResult holds the reconciled store and what happened on the way
type ScanResult struct {
	Root      string
	CachePath string
	Store     *cache.Store
	Stats     Stats
	Failures  []imageprocessor.DecodeError
}

// DirectoryAccessError reports a root that is missing, not a directory, or
// unreadable
type DirectoryAccessError struct {
	Path string
	Err  error
}

func (e *DirectoryAccessError) Error() string {
	return fmt.Sprintf("cannot access directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryAccessError) Unwrap() error { return e.Err }
