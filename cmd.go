package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"imagedup/cache"
	"imagedup/config"
	"imagedup/logging"
)

type rootOptions struct {
	configFlag string
	debug      bool
	logFile    string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "imagedup",
		Short:         "Find near-duplicate images using cached perceptual hashes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "logfile", "", "Also write log output to this file")

	rootCmd.AddCommand(newScanCommand(opts))
	rootCmd.AddCommand(newSearchCommand(opts))
	rootCmd.AddCommand(newCacheCommand(opts))

	return rootCmd
}

// setup loads configuration and points logging at the command's stderr
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, path, exists, err := config.Load(o.configFlag)
	if err != nil {
		return err
	}
	o.cfg = cfg

	logging.SetOutput(cmd.ErrOrStderr())
	level, _ := logging.ParseLevel(cfg.Logging.Level)
	if o.debug {
		level = slog.LevelDebug
	}
	logging.SetLevel(level)

	logPath := cfg.Logging.File
	if o.logFile != "" {
		logPath = o.logFile
	}
	if logPath != "" {
		if err := logging.SetupLogger(logPath); err != nil {
			return err
		}
	}

	if exists {
		logging.DebugLog("Loaded configuration from %s", path)
	}
	return nil
}

// locationFlags lets a command override the configured cache location
type locationFlags struct {
	file string
	dir  string
}

func (l *locationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&l.file, "db", "D", "", "Cache file path (overrides the configured location)")
	cmd.Flags().StringVar(&l.dir, "cache-dir", "", "Keep the cache in this directory, one file per root")
	cmd.MarkFlagsMutuallyExclusive("db", "cache-dir")
}

func (l *locationFlags) location(cfg *config.Config) cache.Location {
	switch {
	case l.file != "":
		return cache.File{Path: l.file}
	case l.dir != "":
		return cache.Dir{Dir: l.dir}
	default:
		return cfg.Location()
	}
}

// absRoot resolves path the way the scanner does, so every command maps a
// symlinked root to the same cache. Paths that do not resolve are returned
// as is for the scanner to report.
func absRoot(path string) (string, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return root, nil
}

// realPath turns a cache key back into a filesystem path
func realPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
