package mpegts

import (
	"encoding/hex"
	"fmt"
)

// Cursor reads and writes bits MSB-first at arbitrary bit offsets within a
// fixed-size byte slice. It never aligns implicitly and never pads: any
// access that would run past the end fails with ErrOutOfRange.
//
// A Cursor is owned by a single decode call and must not be shared.
type Cursor struct {
	data   []byte
	bitPos int
}

// NewCursor returns a cursor positioned at bit 0 of data. Writes go to data
// directly.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the buffer length in bits.
func (c *Cursor) Len() int {
	return len(c.data) * 8
}

// Pos returns the current bit offset.
func (c *Cursor) Pos() int {
	return c.bitPos
}

// Remaining returns the number of bits between the position and the end.
func (c *Cursor) Remaining() int {
	return c.Len() - c.bitPos
}

// Seek moves the cursor to an absolute bit offset. Seeking to Len() is
// allowed; any further read fails.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > c.Len() {
		return fmt.Errorf("%w: seek to bit %d of %d", ErrOutOfRange, pos, c.Len())
	}
	c.bitPos = pos
	return nil
}

// Skip advances the cursor by n bits.
func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.bitPos += n
	return nil
}

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: %d bits at bit %d of %d", ErrOutOfRange, n, c.bitPos, c.Len())
	}
	return nil
}

func (c *Cursor) bit(pos int) uint64 {
	return uint64(c.data[pos/8]>>uint(7-pos%8)) & 1
}

// ReadUint reads n bits (0 ≤ n ≤ 64) as an unsigned integer.
func (c *Cursor) ReadUint(n int) (uint64, error) {
	if n > 64 {
		return 0, fmt.Errorf("%w: cannot read %d bits into uint64", ErrInvalidValue, n)
	}
	if err := c.need(n); err != nil {
		return 0, err
	}
	var val uint64
	for i := 0; i < n; i++ {
		val = val<<1 | c.bit(c.bitPos)
		c.bitPos++
	}
	return val, nil
}

// ReadFlag reads a single bit.
func (c *Cursor) ReadFlag() (bool, error) {
	v, err := c.ReadUint(1)
	return v == 1, err
}

// ReadBits reads n raw bits and returns them left-aligned in
// ceil(n/8) bytes; unused trailing bits of the last byte are zero.
func (c *Cursor) ReadBits(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, (n+7)/8)
	for i := 0; i < n; i++ {
		if c.bit(c.bitPos) == 1 {
			out[i/8] |= 1 << uint(7-i%8)
		}
		c.bitPos++
	}
	return out, nil
}

// ReadHex reads n bits and renders them as lowercase hex. n must be a
// multiple of 4.
func (c *Cursor) ReadHex(n int) (string, error) {
	if n%4 != 0 {
		return "", fmt.Errorf("%w: hex read of %d bits", ErrInvalidValue, n)
	}
	b, err := c.ReadBits(n)
	if err != nil {
		return "", err
	}
	s := hex.EncodeToString(b)
	return s[:n/4], nil
}

// WriteUint writes the low n bits of v at the current position and
// advances past them. v must fit in n bits.
func (c *Cursor) WriteUint(n int, v uint64) error {
	if n > 64 || (n < 64 && v>>uint(n) != 0) {
		return fmt.Errorf("%w: %d does not fit in %d bits", ErrInvalidValue, v, n)
	}
	if err := c.need(n); err != nil {
		return err
	}
	for i := n - 1; i >= 0; i-- {
		idx := c.bitPos / 8
		mask := byte(1) << uint(7-c.bitPos%8)
		if (v>>uint(i))&1 == 1 {
			c.data[idx] |= mask
		} else {
			c.data[idx] &^= mask
		}
		c.bitPos++
	}
	return nil
}

// Overwrite writes the low n bits of v at bit offset pos, leaving the
// cursor just past the written bits.
func (c *Cursor) Overwrite(pos, n int, v uint64) error {
	if err := c.Seek(pos); err != nil {
		return err
	}
	return c.WriteUint(n, v)
}
