package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"imagedup/imageprocessor"
	"imagedup/scanner"
	"imagedup/similarity"
	"imagedup/types"
)

type pairReport struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Distance int    `json:"distance"`
}

type failureReport struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type scanReport struct {
	Root     string          `json:"root"`
	Cache    string          `json:"cache"`
	Stats    scanner.Stats   `json:"stats"`
	Pairs    []pairReport    `json:"pairs"`
	Groups   [][]string      `json:"groups,omitempty"`
	Failures []failureReport `json:"failures"`
}

type scanFlags struct {
	loc       locationFlags
	recursive bool
	rebuild   bool
	noDump    bool
	noUpdate  bool
	workers   int
	json      bool
	groups    bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	f.loc.register(cmd)
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "R", false, "Descend into subdirectories")
	cmd.Flags().BoolVarP(&f.rebuild, "rebuild", "b", false, "Ignore the existing cache and rehash everything")
	cmd.Flags().BoolVarP(&f.noDump, "no-dump", "d", false, "Do not write the cache back to disk")
	cmd.Flags().BoolVarP(&f.noUpdate, "no-update", "u", false, "Use the cache as is without rescanning")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Number of hashing workers (0 uses the configured default)")
	cmd.MarkFlagsMutuallyExclusive("rebuild", "no-update")
}

func (f *scanFlags) options(cmd *cobra.Command, opts *rootOptions, root string) scanner.ScanOptions {
	cfg := opts.cfg

	recursive := cfg.Scan.Recursive
	if cmd.Flags().Changed("recursive") {
		recursive = f.recursive
	}
	workers := cfg.Workers()
	if f.workers > 0 {
		workers = f.workers
	}

	return scanner.ScanOptions{
		Root:      root,
		Location:  f.loc.location(cfg),
		Workers:   workers,
		Recursive: recursive,
		Rebuild:   f.rebuild,
		NoUpdate:  f.noUpdate,
		NoDump:    f.noDump,
		Progress:  !f.json,
	}
}

func newScanCommand(opts *rootOptions) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan PATH",
		Short: "Hash the images under PATH and list near-duplicate pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(args[0])
			if err != nil {
				return err
			}

			res, err := scanner.Scan(flags.options(cmd, opts, root))
			if err != nil {
				return err
			}

			pairs := similarity.FindDuplicates(res.Store, similarity.Threshold)
			report := buildScanReport(res, pairs, flags.groups)

			if flags.json {
				return writeJSON(cmd, report)
			}
			printScanReport(cmd, report, flags.groups)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.json, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&flags.groups, "groups", false, "Also merge pairs into groups of similar images")

	return cmd
}

func buildScanReport(res *scanner.ScanResult, pairs []types.SimilarPair, groups bool) scanReport {
	report := scanReport{
		Root:     res.Root,
		Cache:    res.CachePath,
		Stats:    res.Stats,
		Pairs:    make([]pairReport, 0, len(pairs)),
		Failures: make([]failureReport, 0, len(res.Failures)),
	}

	for _, p := range pairs {
		report.Pairs = append(report.Pairs, pairReport{
			A:        realPath(res.Root, p.A),
			B:        realPath(res.Root, p.B),
			Distance: p.Distance,
		})
	}

	if groups {
		report.Groups = make([][]string, 0)
		for _, g := range similarity.Groups(pairs) {
			members := make([]string, len(g))
			for i, rel := range g {
				members[i] = realPath(res.Root, rel)
			}
			report.Groups = append(report.Groups, members)
		}
	}

	for _, f := range res.Failures {
		report.Failures = append(report.Failures, failureReport{Path: f.Path, Error: errString(&f)})
	}

	return report
}

func errString(e *imageprocessor.DecodeError) string {
	if e.Err == nil {
		return e.Error()
	}
	return e.Err.Error()
}

func printScanReport(cmd *cobra.Command, report scanReport, groups bool) {
	out := cmd.OutOrStdout()

	if len(report.Pairs) == 0 {
		fmt.Fprintln(out, "No similar images found.")
	} else {
		rows := make([][]string, 0, len(report.Pairs))
		for _, p := range report.Pairs {
			rows = append(rows, []string{strconv.Itoa(p.Distance), p.A, p.B})
		}
		fmt.Fprintln(out, renderTable([]string{"Distance", "Image", "Similar To"}, rows, []columnAlignment{alignRight}))
	}

	if groups && len(report.Groups) > 0 {
		rows := make([][]string, 0)
		for i, g := range report.Groups {
			for _, path := range g {
				rows = append(rows, []string{strconv.Itoa(i + 1), path})
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Group", "Image"}, rows, []columnAlignment{alignRight}))
	}

	for _, f := range report.Failures {
		fmt.Fprintf(out, "Skipped %s: %s\n", f.Path, f.Error)
	}

	s := report.Stats
	fmt.Fprintf(out, "\n%d images, %d hashed, %d cached, %d evicted, %d failed in %v\n",
		s.Found, s.Hashed, s.Cached, s.Evicted, s.Failed, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Cache: %s\n", report.Cache)
}
