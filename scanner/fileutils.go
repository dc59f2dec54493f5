package scanner

import (
	"io/fs"
	"path/filepath"

	"imagedup/logging"
	"imagedup/types"
	"imagedup/utils"
)

// listImageFiles returns the identity of every regular file under root that
// accept allows, in walk order. Without recursive only the top level is
// read. Unreadable entries below root are logged and skipped; an unreadable
// root is returned as an error.
func listImageFiles(root string, recursive bool, accept func(path string) bool, skip string) ([]types.FileIdentity, error) {
	files := make([]types.FileIdentity, 0)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logging.LogWarning("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && !recursive {
				return fs.SkipDir
			}
			return nil
		}

		// Symlinks and special files are not followed
		if !d.Type().IsRegular() || path == skip || !accept(path) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.LogWarning("Skipping %s: %v", path, err)
			return nil
		}

		rel, err := utils.RelativeSlashPath(root, path)
		if err != nil {
			logging.LogWarning("Skipping %s: %v", path, err)
			return nil
		}

		files = append(files, types.FileIdentity{
			Path:    rel,
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
		})
		return nil
	})

	return files, err
}
