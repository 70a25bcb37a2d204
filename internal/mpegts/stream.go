package mpegts

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// PositionState is where a Stream sits relative to its records.
type PositionState uint8

const (
	BeforeFirst PositionState = iota
	AtPacket
	AfterLast
)

func (s PositionState) String() string {
	switch s {
	case AtPacket:
		return "at"
	case AfterLast:
		return "after-last"
	default:
		return "before-first"
	}
}

// Position describes the current record of a Stream. Offset and Index are
// meaningful only in the AtPacket state.
type Position struct {
	State  PositionState
	Offset int64 // byte offset, a multiple of PacketSize
	Index  int   // 1-based
	Total  int
}

// Stream is a random-access iterator over a source of fixed-size transport
// stream records. It owns the source for its lifetime; Close releases it.
// A Stream is not safe for concurrent use; open one per goroutine.
type Stream struct {
	r         io.ReaderAt
	closer    io.Closer
	name      string
	logger    *slog.Logger
	size      int64
	total     int
	truncated bool

	// index is 0 before the first record and total+1 after the last.
	index int
	buf   [PacketSize]byte
	valid bool
}

// StreamOptLogger sets the logger used for stream-level warnings.
func StreamOptLogger(l *slog.Logger) func(*Stream) {
	return func(s *Stream) {
		s.logger = l
	}
}

// StreamOptName labels the stream in log output.
func StreamOptName(name string) func(*Stream) {
	return func(s *Stream) {
		s.name = name
	}
}

// Open opens the file at path as a Stream.
func Open(path string, opts ...func(*Stream)) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mpegts: open: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mpegts: stat: %w", err)
	}
	opts = append([]func(*Stream){StreamOptName(path)}, opts...)
	s := NewStream(f, fi.Size(), opts...)
	s.closer = f
	return s, nil
}

// NewStream wraps r, which holds size bytes of transport stream records.
// If size is not a multiple of PacketSize the stream is marked truncated
// and the trailing partial record is ignored.
func NewStream(r io.ReaderAt, size int64, opts ...func(*Stream)) *Stream {
	s := &Stream{
		r:    r,
		size: size,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.total = int(size / PacketSize)
	if rem := size % PacketSize; rem != 0 {
		s.truncated = true
		s.logger.Warn("transport stream size is not a multiple of the packet size",
			"name", s.name,
			"size", size,
			"trailing_bytes", rem,
			"packets", s.total,
		)
	}
	return s
}

// Total returns the number of whole records.
func (s *Stream) Total() int {
	return s.total
}

// Truncated reports whether the source ended with a partial record.
func (s *Stream) Truncated() bool {
	return s.truncated
}

// Name returns the label given at open time.
func (s *Stream) Name() string {
	return s.name
}

// Position returns the current position.
func (s *Stream) Position() Position {
	pos := Position{Total: s.total}
	switch {
	case s.index <= 0:
		pos.State = BeforeFirst
	case s.index > s.total:
		pos.State = AfterLast
	default:
		pos.State = AtPacket
		pos.Index = s.index
		pos.Offset = int64(s.index-1) * PacketSize
	}
	return pos
}

// Raw returns the bytes of the current record, or nil when the stream is
// not positioned on one. The slice is overwritten by the next positioning
// call. It stays valid when the record failed to decode.
func (s *Stream) Raw() []byte {
	if !s.valid {
		return nil
	}
	return s.buf[:]
}

// Next advances to the following record. Past the last record it returns
// io.EOF and stays there until First, Last or Goto.
func (s *Stream) Next() (*Packet, error) {
	if s.index >= s.total {
		s.index = s.total + 1
		s.valid = false
		return nil, io.EOF
	}
	return s.at(s.index + 1)
}

// Previous steps back one record. Before the first record it returns
// io.EOF.
func (s *Stream) Previous() (*Packet, error) {
	if s.index <= 1 {
		s.index = 0
		s.valid = false
		return nil, io.EOF
	}
	return s.at(s.index - 1)
}

// Goto positions the stream on the 1-based record index.
func (s *Stream) Goto(index int) (*Packet, error) {
	if index < 1 || index > s.total {
		return nil, fmt.Errorf("%w: packet index %d not in [1, %d]", ErrOutOfRange, index, s.total)
	}
	return s.at(index)
}

// First positions the stream on the first record. It returns io.EOF for an
// empty stream.
func (s *Stream) First() (*Packet, error) {
	if s.total == 0 {
		s.index = 0
		s.valid = false
		return nil, io.EOF
	}
	return s.at(1)
}

// Last positions the stream on the last whole record. It returns io.EOF for
// an empty stream.
func (s *Stream) Last() (*Packet, error) {
	if s.total == 0 {
		s.index = 0
		s.valid = false
		return nil, io.EOF
	}
	return s.at(s.total)
}

func (s *Stream) at(index int) (*Packet, error) {
	s.index = index
	s.valid = false
	off := int64(index-1) * PacketSize
	n, err := s.r.ReadAt(s.buf[:], off)
	if n < PacketSize {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("mpegts: read packet %d at offset %d: %w", index, off, err)
	}
	s.valid = true

	p, err := Decode(s.buf[:])
	if err != nil {
		return nil, &PacketError{Index: index, Offset: off, Err: err}
	}
	return p, nil
}

// Close releases the underlying source. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
