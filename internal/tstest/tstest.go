// Package tstest builds synthetic MPEG-TS packets and files for tests.
package tstest

import (
	"os"
	"path/filepath"
	"testing"
)

// PacketSize is the fixed size of an MPEG-TS packet.
const PacketSize = 188

// Absent marks an optional timestamp as not present.
const Absent int64 = -1

// Packet builds a payload-only packet (adaptation_field_control = 1).
// The remainder after payload is filled with 0xFF.
func Packet(pid uint16, cc uint8, pusi bool, payload []byte) []byte {
	return build(pid, cc, pusi, 0x1, nil, payload)
}

// PacketWithAF builds a packet carrying the adaptation field af, as
// produced by AdaptationField, followed by payload. With a nil payload the
// control is adaptation-only (2), otherwise both (3).
func PacketWithAF(pid uint16, cc uint8, pusi bool, af, payload []byte) []byte {
	control := byte(0x3)
	if payload == nil {
		control = 0x2
	}
	return build(pid, cc, pusi, control, af, payload)
}

// PacketWithControl builds a packet with an arbitrary 2-bit control value
// and raw bytes after the 4-byte header.
func PacketWithControl(pid uint16, cc uint8, control byte, body []byte) []byte {
	return build(pid, cc, false, control, nil, body)
}

func build(pid uint16, cc uint8, pusi bool, control byte, af, payload []byte) []byte {
	buf := make([]byte, PacketSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	buf[0] = 0x47
	buf[1] = byte(pid>>8) & 0x1F
	if pusi {
		buf[1] |= 0x40
	}
	buf[2] = byte(pid)
	buf[3] = control<<4 | cc&0x0F
	off := 4
	off += copy(buf[off:], af)
	copy(buf[off:], payload)
	return buf
}

// AdaptationField returns a complete adaptation field, length byte
// included. pcr and opcr are raw 48-bit values written when non-negative.
// stuffing 0xFF bytes follow.
func AdaptationField(flags byte, pcr, opcr int64, stuffing int) []byte {
	body := []byte{flags}
	if pcr >= 0 {
		body = append(body, put48(uint64(pcr))...)
		body[0] |= 0x10
	}
	if opcr >= 0 {
		body = append(body, put48(uint64(opcr))...)
		body[0] |= 0x08
	}
	for i := 0; i < stuffing; i++ {
		body = append(body, 0xFF)
	}
	return append([]byte{byte(len(body))}, body...)
}

// FillAdaptationField returns an adaptation field sized so that exactly
// payloadLen payload bytes fit after it.
func FillAdaptationField(flags byte, payloadLen int) []byte {
	return AdaptationField(flags, Absent, Absent, PacketSize-4-payloadLen-2)
}

// PCR packs a base and extension into the raw 48-bit PCR layout.
func PCR(base, ext uint64) int64 {
	return int64(base<<15 | 0x3F<<9 | ext&0x1FF)
}

func put48(v uint64) []byte {
	return []byte{byte(v >> 40), byte(v >> 32), byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// EncodeTimestamp encodes a 33-bit PTS/DTS into the 5-byte PES field with
// the given 4-bit prefix and marker bits set.
func EncodeTimestamp(prefix byte, value int64) []byte {
	bs := make([]byte, 5)
	bs[0] = prefix<<4 | byte((value>>29)&0x0E) | 0x01
	bs[1] = byte(value >> 22)
	bs[2] = byte((value>>14)&0xFE) | 0x01
	bs[3] = byte(value >> 7)
	bs[4] = byte((value<<1)&0xFE) | 0x01
	return bs
}

// PES builds a PES header for streamID with optional PTS and DTS (Absent
// to omit) followed by data.
func PES(streamID byte, pts, dts int64, data []byte) []byte {
	var opt []byte
	var indicator byte
	switch {
	case pts >= 0 && dts >= 0:
		indicator = 3
		opt = append(opt, EncodeTimestamp(0x3, pts)...)
		opt = append(opt, EncodeTimestamp(0x1, dts)...)
	case pts >= 0:
		indicator = 2
		opt = append(opt, EncodeTimestamp(0x2, pts)...)
	case dts >= 0:
		indicator = 1
		opt = append(opt, EncodeTimestamp(0x1, dts)...)
	}

	buf := make([]byte, 0, 9+len(opt)+len(data))
	buf = append(buf, 0x00, 0x00, 0x01, streamID)
	buf = append(buf, 0x00, 0x00) // PES_packet_length: unbounded
	buf = append(buf, 0x80)       // marker bits
	buf = append(buf, indicator<<6)
	buf = append(buf, byte(len(opt)))
	buf = append(buf, opt...)
	buf = append(buf, data...)
	return buf
}

// Concat joins packets into one byte slice.
func Concat(packets ...[]byte) []byte {
	var out []byte
	for _, p := range packets {
		out = append(out, p...)
	}
	return out
}

// WriteFile writes data to name in a fresh temporary directory and returns
// its path.
func WriteFile(tb testing.TB, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}
