package mpegts

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Selector picks the packets a query is interested in.
type Selector interface {
	Match(p *Packet) bool
	String() string
}

// ClassSelector matches packets whose PES header has the given class.
type ClassSelector StreamClass

func (c ClassSelector) Match(p *Packet) bool {
	return p.PES != nil && p.PES.Class == StreamClass(c)
}

func (c ClassSelector) String() string {
	return StreamClass(c).String()
}

// PIDSelector matches packets with the given PID.
type PIDSelector uint16

func (s PIDSelector) Match(p *Packet) bool {
	return p.Header.PID == uint16(s)
}

func (s PIDSelector) String() string {
	return fmt.Sprintf("pid %d", uint16(s))
}

// Query describes a duration measurement.
type Query struct {
	Selector Selector
	Kind     TimestampKind

	// SkipCorrupt steps over records that fail to decode instead of
	// returning their error.
	SkipCorrupt bool
}

func (q Query) match(p *Packet) (Timestamp, bool) {
	if !q.Selector.Match(p) {
		return 0, false
	}
	return p.Timestamp(q.Kind)
}

// TimestampMatch is a packet that satisfied a query.
type TimestampMatch struct {
	Index     int
	Timestamp Timestamp
}

// DurationResult is the outcome of a duration query.
type DurationResult struct {
	First TimestampMatch
	Last  TimestampMatch
	// Ticks is the forward distance from First to Last modulo 2^33.
	Ticks Timestamp
	// Wrapped is set when the last timestamp is numerically below the
	// first, which is read as one wrap of the 33-bit counter.
	Wrapped bool
}

// Seconds returns the duration in seconds.
func (r DurationResult) Seconds() float64 {
	return r.Ticks.Seconds()
}

// Duration measures the distance between the first matching timestamp
// scanning forward from the first record and the last one scanning
// backward from the last record. It fails with ErrNotFound when no record
// matches. The stream is left positioned on the last match.
func Duration(ctx context.Context, s *Stream, q Query) (DurationResult, error) {
	if q.Selector == nil {
		return DurationResult{}, fmt.Errorf("%w: query without selector", ErrInvalidValue)
	}

	first, ok, err := scan(ctx, s, q, s.First, s.Next)
	if err != nil {
		return DurationResult{}, err
	}
	if !ok {
		return DurationResult{}, fmt.Errorf("%w: no %s %s in %s", ErrNotFound, q.Selector, q.Kind, s.name)
	}
	last, ok, err := scan(ctx, s, q, s.Last, s.Previous)
	if err != nil {
		return DurationResult{}, err
	}
	if !ok {
		// Only reachable if the source changed between the two scans.
		return DurationResult{}, fmt.Errorf("%w: no %s %s scanning backward in %s", ErrNotFound, q.Selector, q.Kind, s.name)
	}

	res := DurationResult{First: first, Last: last}
	if first.Index == last.Index {
		return res, nil
	}
	res.Ticks = last.Timestamp.Sub(first.Timestamp)
	res.Wrapped = last.Timestamp < first.Timestamp
	if res.Wrapped {
		s.logger.Warn("timestamp wrapped between first and last match",
			"name", s.name,
			"first", uint64(first.Timestamp),
			"last", uint64(last.Timestamp),
		)
	}
	return res, nil
}

func scan(ctx context.Context, s *Stream, q Query, start, step func() (*Packet, error)) (TimestampMatch, bool, error) {
	p, err := start()
	for {
		if errors.Is(err, io.EOF) {
			return TimestampMatch{}, false, nil
		}
		if err != nil {
			var pe *PacketError
			if !q.SkipCorrupt || !errors.As(err, &pe) {
				return TimestampMatch{}, false, err
			}
			s.logger.Debug("skipping corrupt packet", "name", s.name, "index", pe.Index, "error", pe.Err)
		} else if ts, ok := q.match(p); ok {
			return TimestampMatch{Index: s.index, Timestamp: ts}, true, nil
		}
		if err := ctx.Err(); err != nil {
			return TimestampMatch{}, false, err
		}
		p, err = step()
	}
}
