package mpegts

import (
	"fmt"
	"time"
)

const (
	// ClockRate is the PTS/DTS tick rate.
	ClockRate = 90000
	// TimestampBits is the width of a PTS/DTS value.
	TimestampBits = 33
	// MaxTimestamp is the largest representable 33-bit tick count.
	MaxTimestamp Timestamp = 1<<TimestampBits - 1

	// timestampFieldBits is the on-wire width of a PES PTS/DTS field.
	timestampFieldBits = 40
)

// Timestamp is a 33-bit tick count of the 90 kHz system clock.
type Timestamp uint64

// Seconds converts ticks to seconds.
func (t Timestamp) Seconds() float64 {
	return float64(t) / ClockRate
}

// Duration converts ticks to a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t) * time.Second / ClockRate
}

// Add shifts t by delta ticks modulo 2^33.
func (t Timestamp) Add(delta int64) Timestamp {
	return Timestamp((int64(t) + delta) & int64(MaxTimestamp))
}

// Sub returns the forward distance from u to t modulo 2^33, so a counter
// that wrapped once between u and t still yields a positive delta.
func (t Timestamp) Sub(u Timestamp) Timestamp {
	return (t - u) & MaxTimestamp
}

// TimestampKind selects PTS or DTS.
type TimestampKind uint8

const (
	KindPTS TimestampKind = iota
	KindDTS
)

func (k TimestampKind) String() string {
	if k == KindDTS {
		return "dts"
	}
	return "pts"
}

// ParseTimestampKind accepts "pts" or "dts".
func ParseTimestampKind(s string) (TimestampKind, bool) {
	switch s {
	case "pts", "PTS":
		return KindPTS, true
	case "dts", "DTS":
		return KindDTS, true
	}
	return KindPTS, false
}

// DecodeTimestamp consumes one 40-bit PES timestamp field:
//
//	prefix       [4b] ignored
//	ts[32..30]   [3b]
//	marker       [1b] ignored
//	ts[29..15]  [15b]
//	marker       [1b] ignored
//	ts[14..0]   [15b]
//	marker       [1b] ignored
func DecodeTimestamp(c *Cursor) (Timestamp, error) {
	if err := c.need(timestampFieldBits); err != nil {
		return 0, err
	}
	c.bitPos += 4
	high, _ := c.ReadUint(3)
	c.bitPos++
	mid, _ := c.ReadUint(15)
	c.bitPos++
	low, _ := c.ReadUint(15)
	c.bitPos++
	return Timestamp(high<<30 | mid<<15 | low), nil
}

// EncodeTimestamp writes ts into the 40-bit field starting at bit offset
// at. The prefix nibble and marker bits already in the buffer are left
// untouched. On success the cursor sits at at+40.
func EncodeTimestamp(c *Cursor, ts Timestamp, at int) error {
	if ts > MaxTimestamp {
		return fmt.Errorf("%w: timestamp %d exceeds 33 bits", ErrInvalidValue, ts)
	}
	if err := c.Seek(at); err != nil {
		return err
	}
	if err := c.need(timestampFieldBits); err != nil {
		return err
	}
	v := uint64(ts)
	c.bitPos += 4
	_ = c.WriteUint(3, v>>30)
	c.bitPos++
	_ = c.WriteUint(15, v>>15&0x7FFF)
	c.bitPos++
	_ = c.WriteUint(15, v&0x7FFF)
	c.bitPos++
	return nil
}

// EncodePCRBase rewrites the 33-bit base of the 48-bit PCR field starting
// at bit offset at, keeping the reserved bits and the extension.
func EncodePCRBase(c *Cursor, base uint64, at int) error {
	if base > uint64(MaxTimestamp) {
		return fmt.Errorf("%w: PCR base %d exceeds 33 bits", ErrInvalidValue, base)
	}
	if err := c.Seek(at); err != nil {
		return err
	}
	if err := c.need(48); err != nil {
		return err
	}
	_ = c.WriteUint(33, base)
	c.bitPos += 15
	return nil
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d (%.6fs)", uint64(t), t.Seconds())
}
