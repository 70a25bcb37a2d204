package mpegts

import "fmt"

const pcrFieldBytes = 6

// ------------------------------------------------------------
// adaptation_field_length              [8b] bytes after this one
// discontinuity_indicator              [1b]
// random_access_indicator              [1b]
// elementary_stream_priority_indicator [1b]
// PCR_flag                             [1b]
// OPCR_flag                            [1b]
// splicing_point_flag                  [1b]
// transport_private_data_flag          [1b]
// adaptation_field_extension_flag      [1b]
// PCR                                 [48b] if PCR_flag
// OPCR                                [48b] if OPCR_flag
// splice countdown, private data, extension, stuffing: skipped
// ------------------------------------------------------------

// DecodeAdaptationField decodes an adaptation field at the cursor and
// leaves the cursor on the first byte after it.
func DecodeAdaptationField(c *Cursor) (*AdaptationField, error) {
	length, err := c.ReadUint(8)
	if err != nil {
		return nil, fieldErr("adaptation_field_length", err)
	}
	af := &AdaptationField{Length: uint8(length)}
	if int(length)*8 > c.Remaining() {
		return nil, fieldErr("adaptation_field_length",
			fmt.Errorf("%w: length %d exceeds %d remaining bytes", ErrMalformedField, length, c.Remaining()/8))
	}
	// A zero length is a single stuffing byte with no flags.
	if length == 0 {
		return af, nil
	}

	flags, _ := c.ReadUint(8)
	af.Discontinuity = flags&0x80 != 0
	af.RandomAccess = flags&0x40 != 0
	af.ElementaryStreamPriority = flags&0x20 != 0
	af.PCRFlag = flags&0x10 != 0
	af.OPCRFlag = flags&0x08 != 0
	af.SplicingPoint = flags&0x04 != 0
	af.TransportPrivateData = flags&0x02 != 0
	af.Extension = flags&0x01 != 0

	remaining := int(length) - 1
	if af.PCRFlag {
		remaining -= pcrFieldBytes
	}
	if af.OPCRFlag {
		remaining -= pcrFieldBytes
	}
	if remaining < 0 {
		return nil, fieldErr("adaptation_field_length",
			fmt.Errorf("%w: length %d too short for flagged clock references", ErrMalformedField, length))
	}

	if af.PCRFlag {
		af.pcrAt = c.Pos()
		v, err := c.ReadUint(48)
		if err != nil {
			return nil, fieldErr("PCR", err)
		}
		pcr := PCR(v)
		af.PCR = &pcr
	}
	if af.OPCRFlag {
		v, err := c.ReadUint(48)
		if err != nil {
			return nil, fieldErr("OPCR", err)
		}
		opcr := PCR(v)
		af.OPCR = &opcr
	}

	if err := c.Skip(remaining * 8); err != nil {
		return nil, fieldErr("adaptation_field_stuffing", err)
	}
	return af, nil
}
