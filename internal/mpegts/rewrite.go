package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// RewriteStats counts what a Rewriter did.
type RewriteStats struct {
	Records     int
	Passthrough int // records that failed to decode and were copied as-is
	PTS         int
	DTS         int
	PCR         int
}

// Rewriter copies transport stream records to a sink, shifting PTS/DTS
// (and optionally PCR) by an explicit number of 90 kHz ticks. Shifted
// values wrap modulo 2^33. The source records are never modified.
type Rewriter struct {
	w     io.Writer
	delta int64
	sel   Selector
	pcr   bool
	buf   [PacketSize]byte
	stats RewriteStats
}

// RewriterOptSelector restricts PTS/DTS shifting to matching packets. By
// default every PES header on a payload unit start is shifted.
func RewriterOptSelector(sel Selector) func(*Rewriter) {
	return func(rw *Rewriter) {
		rw.sel = sel
	}
}

// RewriterOptPCR also shifts the PCR base of every packet carrying one.
func RewriterOptPCR(enabled bool) func(*Rewriter) {
	return func(rw *Rewriter) {
		rw.pcr = enabled
	}
}

// NewRewriter returns a Rewriter writing to w with the given tick delta.
// A zero delta copies records unchanged.
func NewRewriter(w io.Writer, delta int64, opts ...func(*Rewriter)) *Rewriter {
	rw := &Rewriter{w: w, delta: delta}
	for _, opt := range opts {
		opt(rw)
	}
	return rw
}

// Stats returns the counters accumulated so far.
func (rw *Rewriter) Stats() RewriteStats {
	return rw.stats
}

// WriteRecord shifts and writes one record. Records that do not decode are
// written unchanged.
func (rw *Rewriter) WriteRecord(raw []byte) error {
	if len(raw) != PacketSize {
		return fmt.Errorf("%w: %d bytes, expected %d", ErrPacketSize, len(raw), PacketSize)
	}
	copy(rw.buf[:], raw)
	rw.stats.Records++

	if p, err := Decode(rw.buf[:]); err != nil {
		rw.stats.Passthrough++
	} else if rw.delta != 0 {
		if err := rw.shift(p); err != nil {
			return err
		}
	}

	if _, err := rw.w.Write(rw.buf[:]); err != nil {
		return fmt.Errorf("mpegts: write record: %w", err)
	}
	return nil
}

func (rw *Rewriter) shift(p *Packet) error {
	c := NewCursor(rw.buf[:])
	// A start code on a continuation packet is elementary stream data.
	pes := p.PES
	if !p.Header.PayloadUnitStartIndicator {
		pes = nil
	}
	if pes != nil && (rw.sel == nil || rw.sel.Match(p)) {
		if pes.PTS != nil {
			if err := EncodeTimestamp(c, pes.PTS.Add(rw.delta), pes.ptsAt); err != nil {
				return fieldErr("PTS", err)
			}
			rw.stats.PTS++
		}
		if pes.DTS != nil {
			if err := EncodeTimestamp(c, pes.DTS.Add(rw.delta), pes.dtsAt); err != nil {
				return fieldErr("DTS", err)
			}
			rw.stats.DTS++
		}
	}
	if af := p.AdaptationField; rw.pcr && af != nil && af.PCR != nil {
		base := Timestamp(af.PCR.Base()).Add(rw.delta)
		if err := EncodePCRBase(c, uint64(base), af.pcrAt); err != nil {
			return fieldErr("PCR", err)
		}
		rw.stats.PCR++
	}
	return nil
}

// Copy writes every record of s, in order, through rw. Records that fail
// to decode are passed through; read errors stop the copy.
func Copy(ctx context.Context, rw *Rewriter, s *Stream) error {
	_, err := s.First()
	for {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var pe *PacketError
		if err != nil && !errors.As(err, &pe) {
			return err
		}
		if err := rw.WriteRecord(s.Raw()); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err = s.Next()
	}
}
