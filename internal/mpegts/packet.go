package mpegts

import "fmt"

// Decode parses one 188-byte transport stream record. A first byte other
// than 0x47 fails with ErrBadSync whatever follows; recovery is left to
// the caller.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) != PacketSize {
		return nil, fmt.Errorf("%w: %d bytes, expected %d", ErrPacketSize, len(raw), PacketSize)
	}
	if raw[0] != SyncByte {
		return nil, fieldErr("sync_byte", fmt.Errorf("%w: 0x%02X", ErrBadSync, raw[0]))
	}

	c := NewCursor(raw)
	p := &Packet{}
	h := &p.Header

	// The fixed header is 32 bits and the buffer is 1504, so these reads
	// cannot fail.
	sync, _ := c.ReadUint(8)
	h.SyncByte = uint8(sync)
	h.TransportErrorIndicator, _ = c.ReadFlag()
	h.PayloadUnitStartIndicator, _ = c.ReadFlag()
	h.TransportPriority, _ = c.ReadFlag()
	pid, _ := c.ReadUint(13)
	h.PID = uint16(pid)
	sc, _ := c.ReadUint(2)
	h.ScramblingControl = uint8(sc)
	afc, _ := c.ReadUint(2)
	h.AdaptationFieldControl = AdaptationFieldControl(afc)
	cc, _ := c.ReadUint(4)
	h.ContinuityCounter = uint8(cc)

	if h.AdaptationFieldControl.HasAdaptationField() {
		af, err := DecodeAdaptationField(c)
		if err != nil {
			return nil, err
		}
		p.AdaptationField = af
	}

	if h.AdaptationFieldControl.HasPayload() && c.Remaining()/8 >= minPESBytes {
		pes, anomalies, err := DecodePESHeader(c)
		if err != nil {
			return nil, err
		}
		p.PES = pes
		p.Anomalies |= anomalies
	}

	return p, nil
}
