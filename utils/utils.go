package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName is used for per-user config and cache directories
const AppName = "imagedup"

// GetDefaultCacheDir returns the per-user directory for caches kept outside
// the scanned tree
func GetDefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user cache directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// GetDefaultConfigPath returns the config file location, or "" if the user
// config directory cannot be determined
func GetDefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, AppName, "config.toml")
}

// ExpandHome replaces a leading "~" with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// RelativeSlashPath returns path relative to root using forward slashes, so
// cache keys are the same on every platform
func RelativeSlashPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
