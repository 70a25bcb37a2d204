package mpegts

import (
	"errors"
	"fmt"
)

// Sentinel errors for transport stream decoding. Every error returned by
// this package wraps one of these so callers can use errors.Is.
var (
	ErrBadSync        = errors.New("mpegts: bad sync byte")
	ErrOutOfRange     = errors.New("mpegts: out of range")
	ErrMalformedField = errors.New("mpegts: malformed field")
	ErrInvalidValue   = errors.New("mpegts: invalid value")
	ErrPacketSize     = errors.New("mpegts: wrong packet size")
	ErrNotFound       = errors.New("mpegts: no matching packet")
)

// FieldError records which header field was being decoded when a failure
// occurred.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("mpegts: decode %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// PacketError locates a decode failure within a stream.
type PacketError struct {
	Index  int   // 1-based packet index
	Offset int64 // byte offset of the record
	Err    error
}

func (e *PacketError) Error() string {
	return fmt.Sprintf("mpegts: packet %d (offset %d): %v", e.Index, e.Offset, e.Err)
}

func (e *PacketError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	if err == nil {
		return nil
	}
	return &FieldError{Field: field, Err: err}
}
