package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsprobe/internal/mpegts"
)

// record is one line of inspect output.
type record struct {
	Index  int            `json:"index"`
	Offset int64          `json:"offset"`
	Packet *mpegts.Packet `json:"packet,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (a *app) inspectCmd() *cobra.Command {
	var (
		input          string
		start          int
		count          int
		timestampsOnly bool
		asJSON         bool
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List decoded packets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(input)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.Total() == 0 {
				return nil
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			emit := func(rec record) error {
				if asJSON {
					return enc.Encode(rec)
				}
				return writeRecord(out, rec)
			}

			shown := 0
			p, err := s.Goto(start)
			for ; !errors.Is(err, io.EOF) && (count <= 0 || shown < count); p, err = s.Next() {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				pos := s.Position()
				rec := record{Index: pos.Index, Offset: pos.Offset}
				if err != nil {
					var pe *mpegts.PacketError
					if !errors.As(err, &pe) {
						return err
					}
					rec.Error = pe.Err.Error()
				} else {
					if timestampsOnly && p.PES == nil {
						continue
					}
					rec.Packet = p
				}
				if err := emit(rec); err != nil {
					return err
				}
				shown++
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input transport stream file")
	cmd.Flags().IntVar(&start, "start", 1, "first record to show (1-based)")
	cmd.Flags().IntVar(&count, "count", 0, "number of records to show, 0 for all")
	cmd.Flags().BoolVar(&timestampsOnly, "timestamps-only", false, "only show packets carrying a PES header")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON object per line")
	cmd.MarkFlagRequired("input")
	return cmd
}

func writeRecord(w io.Writer, rec record) error {
	if rec.Packet == nil {
		_, err := fmt.Fprintf(w, "%8d  error: %s\n", rec.Index, rec.Error)
		return err
	}
	p := rec.Packet
	pts, dts := "-", "-"
	if ts, ok := p.Timestamp(mpegts.KindPTS); ok {
		pts = ts.String()
	}
	if ts, ok := p.Timestamp(mpegts.KindDTS); ok {
		dts = ts.String()
	}
	_, err := fmt.Fprintf(w, "%8d  pid=0x%04X  class=%-5s  control=%-10s  cc=%2d  pts=%s  dts=%s\n",
		rec.Index, p.Header.PID, p.Class(), p.Header.AdaptationFieldControl, p.Header.ContinuityCounter, pts, dts)
	return err
}
