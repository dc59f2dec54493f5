package scanner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"imagedup/cache"
	"imagedup/imageprocessor"
	"imagedup/logging"
	"imagedup/scanner/processor"
	"imagedup/signalhandler"
	"imagedup/types"

	"golang.org/x/sync/errgroup"
)

// ErrConflictingOptions is returned when Rebuild and NoUpdate are both set
var ErrConflictingOptions = errors.New("rebuild and no-update cannot be combined")

var errNotDirectory = errors.New("not a directory")

// Scan enumerates the images under opts.Root, reconciles them with the
// cache, hashes new and changed files in parallel and saves the cache.
// DirectoryAccessError and cache.WriteError are fatal; unreadable images
// are reported in ScanResult.Failures and left out of the store.
func Scan(opts ScanOptions) (*ScanResult, error) {
	startTime := time.Now()

	if opts.Rebuild && opts.NoUpdate {
		return nil, ErrConflictingOptions
	}

	root, err := resolveRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	loc := opts.Location
	if loc == nil {
		loc = cache.InRoot{}
	}
	cachePath, err := loc.Resolve(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve cache location: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = signalhandler.GetOptimalProcs()
	}

	logging.DebugLog("Starting scan of %s (recursive=%v, workers=%d, cache=%s)", root, opts.Recursive, workers, cachePath)

	var store *cache.Store
	if opts.Rebuild {
		logging.DebugLog("Rebuild requested, ignoring existing cache")
		store = cache.New()
	} else {
		store, err = cache.Load(loc, root)
		if err != nil {
			logging.LogWarning("Discarding unusable cache: %v", err)
		}
	}

	result := &ScanResult{Root: root, CachePath: cachePath, Store: store}

	if opts.NoUpdate {
		result.Stats.Cached = store.Len()
		result.Stats.Duration = time.Since(startTime)
		logCompletion(result)
		return result, nil
	}

	proc := processor.NewImageProcessor(opts.Registry)
	defer proc.Close()

	onDisk, err := listImageFiles(root, opts.Recursive, proc.CanHash, cachePath)
	if err != nil {
		return nil, &DirectoryAccessError{Path: root, Err: err}
	}

	pending, rstats := store.Reconcile(onDisk)
	result.Stats.Found = len(onDisk)
	result.Stats.Cached = rstats.Kept
	result.Stats.Evicted = rstats.Evicted
	result.Stats.Stale = rstats.Stale

	logging.DebugLog("Found %d images: %d cached, %d to hash, %d evicted", len(onDisk), rstats.Kept, len(pending), rstats.Evicted)

	result.Failures = hashPending(root, pending, workers, proc, store, opts.Progress)
	result.Stats.Failed = len(result.Failures)
	result.Stats.Hashed = len(pending) - len(result.Failures)

	if !opts.NoDump {
		if err := store.Save(loc, root); err != nil {
			return result, err
		}
	}

	result.Stats.Duration = time.Since(startTime)
	logCompletion(result)
	return result, nil
}

// resolveRoot returns the absolute, symlink-free form of root. WalkDir does
// not follow a symlinked root.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &DirectoryAccessError{Path: root, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &DirectoryAccessError{Path: abs, Err: err}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", &DirectoryAccessError{Path: resolved, Err: err}
	}
	if !info.IsDir() {
		return "", &DirectoryAccessError{Path: resolved, Err: errNotDirectory}
	}
	return resolved, nil
}

// hashPending hashes every pending file on a bounded pool of workers. Only
// this goroutine touches the store; workers just send results back.
func hashPending(root string, pending []types.FileIdentity, workers int, proc *processor.ImageProcessor, store *cache.Store, progress bool) []imageprocessor.DecodeError {
	failures := make([]imageprocessor.DecodeError, 0)
	if len(pending) == 0 {
		return failures
	}

	results := make(chan HashResult, workers)

	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, id := range pending {
			g.Go(func() error {
				hash, err := proc.HashImage(filepath.Join(root, filepath.FromSlash(id.Path)))
				results <- HashResult{Identity: id, Hash: hash, Err: err}
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	tracker := NewProgressTracker(len(pending), progress)
	defer tracker.Stop()

	for res := range results {
		tracker.Record(res)

		if res.Err != nil {
			var decodeErr *imageprocessor.DecodeError
			if !errors.As(res.Err, &decodeErr) {
				decodeErr = &imageprocessor.DecodeError{Path: res.Identity.Path, Err: res.Err}
			}
			failures = append(failures, *decodeErr)
			continue
		}

		store.Insert(types.CacheEntry{FileIdentity: res.Identity, Hash: res.Hash})
	}

	return failures
}

func logCompletion(result *ScanResult) {
	s := result.Stats
	logging.Logger().Info("scan complete",
		slog.String("root", result.Root),
		slog.Int("found", s.Found),
		slog.Int("cached", s.Cached),
		slog.Int("evicted", s.Evicted),
		slog.Int("stale", s.Stale),
		slog.Int("hashed", s.Hashed),
		slog.Int("failed", s.Failed),
		slog.Duration("elapsed", s.Duration.Round(time.Millisecond)),
	)
	if s.Failed > 0 {
		logging.LogWarning("%d images could not be decoded and were skipped", s.Failed)
	}
}
