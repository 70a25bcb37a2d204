package mpegts

import (
	"errors"
	"testing"
)

func TestCursorReadFlags(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xA5}) // 10100101
	expected := []bool{true, false, true, false, false, true, false, true}
	for i, want := range expected {
		got, err := c.ReadFlag()
		if err != nil {
			t.Fatalf("bit %d: %v", i, err)
		}
		if got != want {
			t.Errorf("bit %d: got %v, want %v", i, got, want)
		}
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining: got %d, want 0", c.Remaining())
	}
}

func TestCursorReadUint(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xAB, 0xCD})
	got, err := c.ReadUint(12)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xABC {
		t.Errorf("ReadUint(12): got 0x%X, want 0xABC", got)
	}
	got, _ = c.ReadUint(4)
	if got != 0xD {
		t.Errorf("ReadUint(4): got 0x%X, want 0xD", got)
	}
}

func TestCursorReadUint64(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x80, 0, 0, 0, 0})
	got, err := c.ReadUint(33)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x1FFFFFFFF {
		t.Errorf("ReadUint(33): got 0x%X, want 0x1FFFFFFFF", got)
	}

	c = NewCursor([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01})
	got, _ = c.ReadUint(64)
	if got != ^uint64(0) {
		t.Errorf("ReadUint(64): got 0x%X", got)
	}
	if _, err := c.ReadUint(65); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("ReadUint(65): got %v, want ErrInvalidValue", err)
	}
}

func TestCursorReadPastEnd(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xFF})
	if err := c.Skip(8); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ReadFlag(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReadFlag past end: got %v, want ErrOutOfRange", err)
	}

	c = NewCursor([]byte{0xFF})
	if _, err := c.ReadUint(9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReadUint(9): got %v, want ErrOutOfRange", err)
	}
	if c.Pos() != 0 {
		t.Errorf("failed read moved cursor to %d", c.Pos())
	}
	if err := c.Skip(9); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Skip(9): got %v, want ErrOutOfRange", err)
	}
	if _, err := c.ReadBits(16); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReadBits(16): got %v, want ErrOutOfRange", err)
	}
}

func TestCursorSeek(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0xFF, 0x00, 0xAB})
	if err := c.Seek(16); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.ReadUint(8); got != 0xAB {
		t.Errorf("got 0x%02X, want 0xAB", got)
	}
	if err := c.Seek(24); err != nil {
		t.Errorf("Seek to end: %v", err)
	}
	if err := c.Seek(25); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Seek(25): got %v, want ErrOutOfRange", err)
	}
	if err := c.Seek(-1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Seek(-1): got %v, want ErrOutOfRange", err)
	}
}

func TestCursorReadBitsAndHex(t *testing.T) {
	t.Parallel()
	c := NewCursor([]byte{0x47, 0x1F, 0xFF})
	h, err := c.ReadHex(8)
	if err != nil {
		t.Fatal(err)
	}
	if h != "47" {
		t.Errorf("ReadHex(8) = %q, want 47", h)
	}
	if h, _ := c.ReadHex(12); h != "1ff" {
		t.Errorf("ReadHex(12) = %q, want 1ff", h)
	}
	if _, err := c.ReadHex(3); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("ReadHex(3): got %v, want ErrInvalidValue", err)
	}

	c = NewCursor([]byte{0xB6, 0xC0})
	c.Skip(1)
	b, err := c.ReadBits(10) // 0110110 110
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 2 || b[0] != 0x6D || b[1] != 0x80 {
		t.Errorf("ReadBits(10) = %X, want 6D80", b)
	}
}

func TestCursorWriteUint(t *testing.T) {
	t.Parallel()
	buf := []byte{0xFF, 0x00}
	c := NewCursor(buf)
	if err := c.WriteUint(4, 0x0); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteUint(8, 0xA5); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x0A || buf[1] != 0x50 {
		t.Errorf("got %02X %02X, want 0A 50", buf[0], buf[1])
	}
	if c.Pos() != 12 {
		t.Errorf("Pos = %d, want 12", c.Pos())
	}
	if err := c.WriteUint(2, 4); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("WriteUint(2, 4): got %v, want ErrInvalidValue", err)
	}
	if err := c.WriteUint(5, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("WriteUint(5): got %v, want ErrOutOfRange", err)
	}
}

func TestCursorOverwrite(t *testing.T) {
	t.Parallel()
	buf := []byte{0x00, 0x00, 0x00}
	c := NewCursor(buf)
	if err := c.Overwrite(6, 4, 0xF); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x03 || buf[1] != 0xC0 || buf[2] != 0x00 {
		t.Errorf("got %X, want 03C000", buf)
	}
	if c.Pos() != 10 {
		t.Errorf("Pos = %d, want 10", c.Pos())
	}
	if err := c.Overwrite(30, 1, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Overwrite past end: got %v, want ErrOutOfRange", err)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()
	buf := make([]byte, 8)
	w := NewCursor(buf)
	w.WriteUint(8, 0xFC)
	w.WriteUint(1, 0)
	w.WriteUint(1, 0)
	w.WriteUint(2, 3)
	w.WriteUint(12, 0x123)
	w.WriteUint(33, 900000)

	r := NewCursor(buf)
	if got, _ := r.ReadUint(8); got != 0xFC {
		t.Errorf("got 0x%X, want 0xFC", got)
	}
	if got, _ := r.ReadFlag(); got {
		t.Errorf("got %v, want false", got)
	}
	if got, _ := r.ReadFlag(); got {
		t.Errorf("got %v, want false", got)
	}
	if got, _ := r.ReadUint(2); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
	if got, _ := r.ReadUint(12); got != 0x123 {
		t.Errorf("got 0x%X, want 0x123", got)
	}
	if got, _ := r.ReadUint(33); got != 900000 {
		t.Errorf("got %d, want 900000", got)
	}
}
