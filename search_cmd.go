package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"imagedup/imageprocessor"
	"imagedup/scanner"
	"imagedup/scanner/processor"
	"imagedup/similarity"
	"imagedup/types"
)

type searchReport struct {
	Query   string             `json:"query"`
	Hash    string             `json:"hash"`
	Root    string             `json:"root"`
	Matches []types.ImageMatch `json:"matches"`
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	flags := &scanFlags{}
	var imagePath string

	cmd := &cobra.Command{
		Use:   "search PATH --image IMAGE",
		Short: "Find images under PATH that look like IMAGE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := absRoot(args[0])
			if err != nil {
				return err
			}
			query, err := filepath.Abs(imagePath)
			if err != nil {
				return fmt.Errorf("cannot resolve %s: %w", imagePath, err)
			}

			registry := imageprocessor.NewImageLoaderRegistry()
			defer registry.Close()

			proc := processor.NewImageProcessor(registry)
			if !proc.CanHash(query) {
				return fmt.Errorf("unsupported image format: %s", query)
			}
			hash, err := proc.HashImage(query)
			if err != nil {
				return err
			}

			scanOpts := flags.options(cmd, opts, root)
			scanOpts.Registry = registry
			res, err := scanner.Scan(scanOpts)
			if err != nil {
				return err
			}
			if res.Store.Len() == 0 && flags.noUpdate {
				return errors.New("the cache is empty; run scan first or drop --no-update")
			}

			matches := similarity.FindMatches(res.Store.Entries(), hash, similarity.Threshold)
			for i := range matches {
				matches[i].Path = realPath(res.Root, matches[i].Path)
			}
			report := searchReport{Query: query, Hash: hash.String(), Root: res.Root, Matches: matches}

			if flags.json {
				return writeJSON(cmd, report)
			}
			printSearchReport(cmd, report)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Query image")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("image")

	return cmd
}

func printSearchReport(cmd *cobra.Command, report searchReport) {
	out := cmd.OutOrStdout()

	if len(report.Matches) == 0 {
		fmt.Fprintf(out, "No images under %s look like %s\n", report.Root, report.Query)
		return
	}

	rows := make([][]string, 0, len(report.Matches))
	for _, m := range report.Matches {
		rows = append(rows, []string{strconv.Itoa(m.Distance), m.Hash, m.Path})
	}
	fmt.Fprintln(out, renderTable([]string{"Distance", "Hash", "Image"}, rows, []columnAlignment{alignRight}))
}
