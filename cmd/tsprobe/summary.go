package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsprobe/internal/mpegts"
)

func (a *app) summaryCmd() *cobra.Command {
	var (
		input  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print per-PID statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(input)
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := mpegts.Summarize(cmd.Context(), s)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			return writeSummary(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input transport stream file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	cmd.MarkFlagRequired("input")
	return cmd
}

func writeSummary(w io.Writer, sum *mpegts.Summary) error {
	fmt.Fprintf(w, "packets: %d  corrupt: %d  truncated: %v\n\n", sum.Packets, sum.Corrupt, sum.Truncated)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tCLASS\tSTREAM\tPACKETS\tPES\tPTS\tDTS\tPCR\tFIRST PTS\tLAST PTS\tCC ERR\tDUP")
	for _, st := range sum.PIDs {
		stream := "-"
		if st.PESHeaders > 0 {
			stream = fmt.Sprintf("0x%02X", st.StreamID)
		}
		fmt.Fprintf(tw, "0x%04X\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\t%d\t%d\n",
			st.PID, st.Class, stream, st.Packets, st.PESHeaders,
			st.PTSCount, st.DTSCount, st.PCRCount,
			optTimestamp(st.FirstPTS), optTimestamp(st.LastPTS),
			st.ContinuityErrors, st.Duplicates)
	}
	return tw.Flush()
}

func optTimestamp(ts *mpegts.Timestamp) string {
	if ts == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f", ts.Seconds())
}
