package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsprobe/internal/mpegts"
)

func (a *app) shiftCmd() *cobra.Command {
	var (
		input  string
		output string
		delta  int64
		pcr    bool
		sel    selectorFlags
	)
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Copy a file with PTS/DTS shifted by a fixed number of 90 kHz ticks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := distinctFiles(input, output); err != nil {
				return err
			}
			selector, err := sel.selector()
			if err != nil {
				return err
			}

			s, err := a.open(input)
			if err != nil {
				return err
			}
			defer s.Close()

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(f)
			opts := []func(*mpegts.Rewriter){mpegts.RewriterOptPCR(pcr)}
			if selector != nil {
				opts = append(opts, mpegts.RewriterOptSelector(selector))
			}
			rw := mpegts.NewRewriter(bw, delta, opts...)

			err = mpegts.Copy(cmd.Context(), rw, s)
			if err == nil {
				err = bw.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("shift %s: %w", output, err)
			}

			st := rw.Stats()
			a.logger.Info("shift complete",
				"output", output,
				"delta", delta,
				"records", st.Records,
				"pts", st.PTS,
				"dts", st.DTS,
				"pcr", st.PCR,
				"passthrough", st.Passthrough,
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input transport stream file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, must differ from the input")
	cmd.Flags().Int64Var(&delta, "delta", 0, "shift in 90 kHz ticks, may be negative")
	cmd.Flags().BoolVar(&pcr, "pcr", false, "also shift PCR")
	sel.register(cmd, "")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	cmd.MarkFlagRequired("delta")
	return cmd
}

// distinctFiles refuses to rewrite a file in place.
func distinctFiles(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if in == out {
		return errors.New("output must differ from input")
	}
	ist, ierr := os.Stat(in)
	ost, oerr := os.Stat(out)
	if ierr == nil && oerr == nil && os.SameFile(ist, ost) {
		return errors.New("output must differ from input")
	}
	return nil
}
