package mpegts

const pesStartCode = 0x000001

// minPESBytes is the smallest payload that can hold a PES header prefix.
const minPESBytes = 6

// ------------------------------------------------------------
// packet_start_code_prefix [24b] 0x000001
// stream_id                 [8b]
// PES_packet_length        [16b] skipped
// '10' scrambling .. orig   [8b] skipped
// PTS_DTS_flags             [2b]
// ESCR .. extension flags   [6b] skipped
// PES_header_data_length    [8b] skipped
// PTS                      [40b] if PTS flag
// DTS                      [40b] if DTS flag
// ------------------------------------------------------------

// DecodePESHeader decodes a PES header at the cursor. It returns nil
// without error when the payload does not start with a PES start code,
// as on continuation packets. The header must lie entirely within the
// cursor's buffer; a header split across packets fails with ErrOutOfRange.
//
// When only the DTS flag is set the reserved bits after the flags are
// still skipped, DTS is read from the first timestamp slot and
// AnomalyDTSWithoutPTS is reported.
func DecodePESHeader(c *Cursor) (*PESHeader, Anomaly, error) {
	prefix, err := c.ReadUint(24)
	if err != nil {
		return nil, 0, fieldErr("packet_start_code_prefix", err)
	}
	if prefix != pesStartCode {
		return nil, 0, nil
	}
	id, err := c.ReadUint(8)
	if err != nil {
		return nil, 0, fieldErr("stream_id", err)
	}
	h := &PESHeader{
		StreamID: uint8(id),
		Class:    ClassifyStreamID(uint8(id)),
	}

	if err := c.Skip(24); err != nil {
		return nil, 0, fieldErr("PES_packet_length", err)
	}
	hasPTS, err := c.ReadFlag()
	if err != nil {
		return nil, 0, fieldErr("PTS_DTS_flags", err)
	}
	hasDTS, err := c.ReadFlag()
	if err != nil {
		return nil, 0, fieldErr("PTS_DTS_flags", err)
	}
	if !hasPTS && !hasDTS {
		return h, 0, nil
	}
	if err := c.Skip(14); err != nil {
		return nil, 0, fieldErr("PES_header_data_length", err)
	}

	var anomalies Anomaly
	if hasPTS {
		h.ptsAt = c.Pos()
		pts, err := DecodeTimestamp(c)
		if err != nil {
			return nil, 0, fieldErr("PTS", err)
		}
		h.PTS = &pts
	} else {
		anomalies |= AnomalyDTSWithoutPTS
	}
	if hasDTS {
		h.dtsAt = c.Pos()
		dts, err := DecodeTimestamp(c)
		if err != nil {
			return nil, 0, fieldErr("DTS", err)
		}
		h.DTS = &dts
	}
	return h, anomalies, nil
}
