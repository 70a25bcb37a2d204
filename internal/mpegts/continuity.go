package mpegts

// ContinuityResult classifies a packet's continuity counter.
type ContinuityResult uint8

const (
	ContinuityOK ContinuityResult = iota
	ContinuityDuplicate
	ContinuityDiscontinuity
)

func (r ContinuityResult) String() string {
	switch r {
	case ContinuityDuplicate:
		return "duplicate"
	case ContinuityDiscontinuity:
		return "discontinuity"
	default:
		return "ok"
	}
}

// ContinuityChecker tracks continuity counters per PID.
type ContinuityChecker struct {
	last map[uint16]uint8
}

func NewContinuityChecker() *ContinuityChecker {
	return &ContinuityChecker{last: make(map[uint16]uint8)}
}

// Check records p and reports whether its counter follows the previous
// payload-carrying packet on the same PID.
func (cc *ContinuityChecker) Check(p *Packet) ContinuityResult {
	h := p.Header
	if h.PID == NullPID {
		return ContinuityOK
	}
	if h.TransportErrorIndicator {
		delete(cc.last, h.PID)
		return ContinuityOK
	}
	// The counter only increments on packets with payload.
	if !h.AdaptationFieldControl.HasPayload() {
		return ContinuityOK
	}

	prev, seen := cc.last[h.PID]
	cc.last[h.PID] = h.ContinuityCounter
	if !seen {
		return ContinuityOK
	}
	// A signaled discontinuity means the jump is expected.
	if p.AdaptationField != nil && p.AdaptationField.Discontinuity {
		return ContinuityOK
	}
	switch h.ContinuityCounter {
	case (prev + 1) & 0x0F:
		return ContinuityOK
	case prev:
		return ContinuityDuplicate
	default:
		return ContinuityDiscontinuity
	}
}

// Reset forgets all PIDs.
func (cc *ContinuityChecker) Reset() {
	clear(cc.last)
}
