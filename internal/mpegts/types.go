// Package mpegts decodes MPEG-2 transport stream packet headers, adaptation
// fields and PES headers down to their PTS/DTS timestamps, without touching
// the elementary stream payload.
//
// [Decode] turns one 188-byte record into a [Packet]. [Stream] iterates a
// file of such records forward, backward or by index, and [Duration]
// derives a stream duration from the first and last matching timestamps.
package mpegts

import (
	"fmt"
	"strings"
)

const (
	// PacketSize is the size of one transport stream record.
	PacketSize = 188
	// SyncByte starts every transport stream packet.
	SyncByte = 0x47
	// NullPID carries stuffing packets.
	NullPID = 0x1FFF
	// MaxPID is the largest 13-bit packet identifier.
	MaxPID = 0x1FFF
)

// Packet is one decoded transport stream packet. The decoder does not keep
// a reference to it.
type Packet struct {
	Header          Header           `json:"header"`
	AdaptationField *AdaptationField `json:"adaptation_field,omitempty"`
	PES             *PESHeader       `json:"pes,omitempty"`
	Anomalies       Anomaly          `json:"anomalies,omitempty"`
}

// Header is the fixed 4-byte transport packet header.
type Header struct {
	SyncByte                  uint8                  `json:"sync_byte"`
	TransportErrorIndicator   bool                   `json:"transport_error_indicator"`
	PayloadUnitStartIndicator bool                   `json:"payload_unit_start_indicator"`
	TransportPriority         bool                   `json:"transport_priority"`
	PID                       uint16                 `json:"pid"`
	ScramblingControl         uint8                  `json:"scrambling_control"`
	AdaptationFieldControl    AdaptationFieldControl `json:"adaptation_field_control"`
	ContinuityCounter         uint8                  `json:"continuity_counter"`
}

// AdaptationFieldControl is the 2-bit adaptation_field_control value.
type AdaptationFieldControl uint8

const (
	ControlReserved       AdaptationFieldControl = 0
	ControlPayloadOnly    AdaptationFieldControl = 1
	ControlAdaptationOnly AdaptationFieldControl = 2
	ControlBoth           AdaptationFieldControl = 3
)

// HasAdaptationField reports whether an adaptation field follows the header.
func (c AdaptationFieldControl) HasAdaptationField() bool {
	return c == ControlAdaptationOnly || c == ControlBoth
}

// HasPayload reports whether the packet carries payload bytes.
func (c AdaptationFieldControl) HasPayload() bool {
	return c == ControlPayloadOnly || c == ControlBoth
}

func (c AdaptationFieldControl) String() string {
	switch c {
	case ControlPayloadOnly:
		return "payload"
	case ControlAdaptationOnly:
		return "adaptation"
	case ControlBoth:
		return "adaptation+payload"
	default:
		return "reserved"
	}
}

// AdaptationField holds the decoded adaptation field flags and clock
// references. Stuffing and private bytes are skipped, not kept.
type AdaptationField struct {
	Length                   uint8 `json:"length"`
	Discontinuity            bool  `json:"discontinuity"`
	RandomAccess             bool  `json:"random_access"`
	ElementaryStreamPriority bool  `json:"es_priority"`
	PCRFlag                  bool  `json:"pcr_flag"`
	OPCRFlag                 bool  `json:"opcr_flag"`
	SplicingPoint            bool  `json:"splicing_point"`
	TransportPrivateData     bool  `json:"transport_private_data"`
	Extension                bool  `json:"extension"`
	PCR                      *PCR  `json:"pcr,omitempty"`
	OPCR                     *PCR  `json:"opcr,omitempty"`

	pcrAt int
}

// PCR is a raw 48-bit program clock reference field: a 33-bit base at
// 90 kHz, 6 reserved bits and a 9-bit extension at 27 MHz.
type PCR uint64

// Base returns the 90 kHz base.
func (p PCR) Base() uint64 {
	return uint64(p) >> 15
}

// Extension returns the 27 MHz remainder.
func (p PCR) Extension() uint64 {
	return uint64(p) & 0x1FF
}

// Ticks27MHz returns the full clock value, base*300 + extension.
func (p PCR) Ticks27MHz() uint64 {
	return p.Base()*300 + p.Extension()
}

// Seconds converts the clock value to seconds.
func (p PCR) Seconds() float64 {
	return float64(p.Ticks27MHz()) / 27_000_000.0
}

// StreamClass is the coarse elementary stream kind derived from stream_id.
type StreamClass uint8

const (
	ClassOther StreamClass = iota
	ClassVideo
	ClassAudio
)

// ClassifyStreamID maps a PES stream_id onto a StreamClass.
func ClassifyStreamID(id uint8) StreamClass {
	switch {
	case id >= 0xE0 && id <= 0xEF:
		return ClassVideo
	case id >= 0xC0 && id <= 0xDF:
		return ClassAudio
	default:
		return ClassOther
	}
}

func (c StreamClass) String() string {
	switch c {
	case ClassVideo:
		return "video"
	case ClassAudio:
		return "audio"
	default:
		return "other"
	}
}

// MarshalText renders the class name in JSON output.
func (c StreamClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (c *StreamClass) UnmarshalText(text []byte) error {
	class, ok := ParseStreamClass(string(text))
	if !ok {
		return fmt.Errorf("%w: stream class %q", ErrInvalidValue, text)
	}
	*c = class
	return nil
}

// ParseStreamClass is the inverse of StreamClass.String.
func ParseStreamClass(s string) (StreamClass, bool) {
	switch strings.ToLower(s) {
	case "video":
		return ClassVideo, true
	case "audio":
		return ClassAudio, true
	case "other":
		return ClassOther, true
	}
	return ClassOther, false
}

// PESHeader is the part of a PES packet header this package decodes.
type PESHeader struct {
	StreamID uint8       `json:"stream_id"`
	Class    StreamClass `json:"class"`
	PTS      *Timestamp  `json:"pts,omitempty"`
	DTS      *Timestamp  `json:"dts,omitempty"`

	// bit offsets of the 40-bit timestamp fields within the packet
	ptsAt int
	dtsAt int
}

// Anomaly is a set of soft irregularities found while decoding. They do not
// fail the decode.
type Anomaly uint8

const (
	// AnomalyDTSWithoutPTS marks a PES header whose DTS flag is set while
	// its PTS flag is not.
	AnomalyDTSWithoutPTS Anomaly = 1 << iota
)

func (a Anomaly) String() string {
	var parts []string
	if a&AnomalyDTSWithoutPTS != 0 {
		parts = append(parts, "dts-without-pts")
	}
	return strings.Join(parts, ",")
}

// MarshalText renders the anomaly names in JSON output.
func (a Anomaly) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Class returns the PES stream class, or ClassOther without a PES header.
func (p *Packet) Class() StreamClass {
	if p.PES == nil {
		return ClassOther
	}
	return p.PES.Class
}

// Timestamp returns the requested timestamp if the packet carries one.
func (p *Packet) Timestamp(kind TimestampKind) (Timestamp, bool) {
	if p.PES == nil {
		return 0, false
	}
	ts := p.PES.PTS
	if kind == KindDTS {
		ts = p.PES.DTS
	}
	if ts == nil {
		return 0, false
	}
	return *ts, true
}

// PCR returns the packet's program clock reference if present.
func (p *Packet) PCR() (PCR, bool) {
	if p.AdaptationField == nil || p.AdaptationField.PCR == nil {
		return 0, false
	}
	return *p.AdaptationField.PCR, true
}
