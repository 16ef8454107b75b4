package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the input and refresh the cache without building reports",
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, err := setup(cmd)
	if err != nil {
		return err
	}

	p := newPipeline(cfg, nil, nil, logger, metrics)
	ds, err := p.Prepare(cmd.Context())
	if err != nil {
		logger.Error("clean failed", "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "read      %s\n", humanize.Comma(int64(ds.Stats.Input)))
	fmt.Fprintf(out, "kept      %s\n", humanize.Comma(int64(ds.Stats.Kept)))
	fmt.Fprintf(out, "dropped   %s (no location %s, out of bounds %s)\n",
		humanize.Comma(int64(ds.Stats.Dropped())),
		humanize.Comma(int64(ds.Stats.NoLocation)), humanize.Comma(int64(ds.Stats.OutOfBounds)))
	fmt.Fprintf(out, "corrected %s\n", humanize.Comma(int64(ds.Stats.AnomaliesFixed)))
	for _, y := range cfg.Years().Years() {
		fmt.Fprintf(out, "  %d  %s\n", y, humanize.Comma(int64(len(ds.Year(y)))))
	}
	return nil
}
