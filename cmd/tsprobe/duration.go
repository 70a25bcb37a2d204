package main

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsprobe/internal/batch"
	"github.com/zsiec/tsprobe/internal/mpegts"
)

func (a *app) durationCmd() *cobra.Command {
	var (
		input       string
		dir         string
		kind        string
		skipCorrupt bool
		jobs        int
		metricsFile string
		sel         selectorFlags
	)
	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Print the PTS or DTS duration of a file or of every .ts file in a folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" && dir == "" {
				return errors.New("need an input file (-i) or a batch folder (-b)")
			}
			k, ok := mpegts.ParseTimestampKind(kind)
			if !ok {
				return fmt.Errorf("unknown timestamp type %q", kind)
			}
			selector, err := sel.selector()
			if err != nil {
				return err
			}
			q := mpegts.Query{Selector: selector, Kind: k, SkipCorrupt: skipCorrupt}

			if input != "" {
				s, err := a.open(input)
				if err != nil {
					return err
				}
				defer s.Close()
				res, err := mpegts.Duration(cmd.Context(), s, q)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", res.Seconds())
				return nil
			}

			if !cmd.Flags().Changed("jobs") {
				jobs, err = strconv.Atoi(envOr("TSPROBE_JOBS", strconv.Itoa(runtime.GOMAXPROCS(0))))
				if err != nil {
					return fmt.Errorf("invalid TSPROBE_JOBS: %w", err)
				}
			}
			paths, err := batch.Discover(dir)
			if err != nil {
				return err
			}
			r := &batch.Runner{Jobs: jobs, Logger: a.logger}
			if metricsFile != "" {
				r.Metrics = batch.NewMetrics()
			}
			results, err := r.Durations(cmd.Context(), paths, q)
			if err != nil {
				return err
			}
			if r.Metrics != nil {
				if err := r.Metrics.WriteFile(metricsFile); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					a.logger.Error("duration failed", "path", res.Path, "error", res.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.6f\n", res.Path, res.Duration.Seconds())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input transport stream file")
	cmd.Flags().StringVarP(&dir, "batch", "b", "", "folder of .ts files to process")
	cmd.Flags().StringVarP(&kind, "type", "t", "pts", "measure by pts or dts")
	cmd.Flags().BoolVar(&skipCorrupt, "skip-corrupt", false, "skip records that fail to decode")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files measured concurrently in batch mode (default $TSPROBE_JOBS or GOMAXPROCS)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write batch metrics in Prometheus text format to this file")
	cmd.MarkFlagsMutuallyExclusive("input", "batch")
	sel.register(cmd, "video")
	return cmd
}
