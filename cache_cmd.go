package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"imagedup/cache"
)

type cacheStatsReport struct {
	Path         string `json:"path"`
	Exists       bool   `json:"exists"`
	Size         int64  `json:"size"`
	Entries      int    `json:"entries"`
	UniqueHashes int    `json:"unique_hashes"`
	Algorithm    string `json:"algorithm,omitempty"`
	Root         string `json:"root,omitempty"`
	WrittenAt    string `json:"written_at,omitempty"`
}

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the hash cache of a directory",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(opts))
	cacheCmd.AddCommand(newCacheListCommand(opts))
	return cacheCmd
}

func newCacheStatsCommand(opts *rootOptions) *cobra.Command {
	var loc locationFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats PATH",
		Short: "Show where the cache for PATH lives and what it holds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(args[0])
			if err != nil {
				return err
			}

			info, err := cache.Inspect(loc.location(opts.cfg), root)
			if err != nil {
				return err
			}

			report := cacheStatsReport{Path: info.Path, Exists: info.Exists, Size: info.Size}
			if info.Stats != nil {
				report.Entries = info.Stats.TotalEntries
				report.UniqueHashes = info.Stats.UniqueHashes
				report.Algorithm = info.Stats.Algorithm
				report.Root = info.Stats.Root
				report.WrittenAt = info.Stats.WrittenAt
			}

			if asJSON {
				return writeJSON(cmd, report)
			}

			rows := [][]string{
				{"Path", report.Path},
				{"Exists", strconv.FormatBool(report.Exists)},
			}
			if report.Exists {
				rows = append(rows,
					[]string{"Size", strconv.FormatInt(report.Size, 10)},
					[]string{"Entries", strconv.Itoa(report.Entries)},
					[]string{"Unique hashes", strconv.Itoa(report.UniqueHashes)},
					[]string{"Algorithm", report.Algorithm},
					[]string{"Root", report.Root},
					[]string{"Written", report.WrittenAt},
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	loc.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCacheListCommand(opts *rootOptions) *cobra.Command {
	var loc locationFlags

	cmd := &cobra.Command{
		Use:   "list PATH",
		Short: "Print every cached hash and path, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(args[0])
			if err != nil {
				return err
			}

			store, err := cache.Load(loc.location(opts.cfg), root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range store.Entries() {
				fmt.Fprintf(out, "%s\t%s\n", e.Hash, e.Path)
			}
			return nil
		},
	}

	loc.register(cmd)
	return cmd
}
