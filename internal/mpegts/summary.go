package mpegts

import (
	"context"
	"errors"
	"io"
	"sort"
)

// PIDStats aggregates what a forward scan saw on one PID.
type PIDStats struct {
	PID              uint16      `json:"pid"`
	Class            StreamClass `json:"class"`
	StreamID         uint8       `json:"stream_id,omitempty"`
	Packets          int         `json:"packets"`
	PESHeaders       int         `json:"pes_headers"`
	PTSCount         int         `json:"pts_count"`
	DTSCount         int         `json:"dts_count"`
	PCRCount         int         `json:"pcr_count"`
	FirstPTS         *Timestamp  `json:"first_pts,omitempty"`
	LastPTS          *Timestamp  `json:"last_pts,omitempty"`
	Scrambled        int         `json:"scrambled"`
	TransportErrors  int         `json:"transport_errors"`
	ContinuityErrors int         `json:"continuity_errors"`
	Duplicates       int         `json:"duplicates"`
	Anomalies        int         `json:"anomalies"`
}

// Summary is the result of Summarize.
type Summary struct {
	Packets   int         `json:"packets"`
	Corrupt   int         `json:"corrupt"`
	Truncated bool        `json:"truncated"`
	PIDs      []*PIDStats `json:"pids"`
}

// Summarize scans s from the first record to the last and collects per-PID
// statistics. Records that fail to decode are counted and skipped.
func Summarize(ctx context.Context, s *Stream) (*Summary, error) {
	sum := &Summary{Truncated: s.Truncated()}
	byPID := make(map[uint16]*PIDStats)
	cc := NewContinuityChecker()

	p, err := s.First()
	for ; !errors.Is(err, io.EOF); p, err = s.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err != nil {
			var pe *PacketError
			if !errors.As(err, &pe) {
				return nil, err
			}
			sum.Corrupt++
			s.logger.Debug("skipping corrupt packet", "name", s.name, "index", pe.Index, "error", pe.Err)
			continue
		}
		sum.Packets++

		st, ok := byPID[p.Header.PID]
		if !ok {
			st = &PIDStats{PID: p.Header.PID}
			byPID[p.Header.PID] = st
		}
		st.add(p)
		switch cc.Check(p) {
		case ContinuityDuplicate:
			st.Duplicates++
		case ContinuityDiscontinuity:
			st.ContinuityErrors++
		}
	}

	for _, st := range byPID {
		sum.PIDs = append(sum.PIDs, st)
	}
	sort.Slice(sum.PIDs, func(i, j int) bool {
		return sum.PIDs[i].PID < sum.PIDs[j].PID
	})
	return sum, nil
}

func (st *PIDStats) add(p *Packet) {
	st.Packets++
	if p.Header.ScramblingControl != 0 {
		st.Scrambled++
	}
	if p.Header.TransportErrorIndicator {
		st.TransportErrors++
	}
	if p.Anomalies != 0 {
		st.Anomalies++
	}
	if _, ok := p.PCR(); ok {
		st.PCRCount++
	}
	if p.PES == nil || !p.Header.PayloadUnitStartIndicator {
		return
	}
	st.PESHeaders++
	st.Class = p.PES.Class
	st.StreamID = p.PES.StreamID
	if p.PES.PTS != nil {
		st.PTSCount++
		pts := *p.PES.PTS
		if st.FirstPTS == nil {
			st.FirstPTS = &pts
		}
		st.LastPTS = &pts
	}
	if p.PES.DTS != nil {
		st.DTSCount++
	}
}
