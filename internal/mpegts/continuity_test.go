package mpegts

import (
	"testing"

	"github.com/zsiec/tsprobe/internal/tstest"
)

func mustDecode(t *testing.T, raw []byte) *Packet {
	t.Helper()
	p, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestContinuityChecker(t *testing.T) {
	t.Parallel()
	discontinuity := tstest.AdaptationField(0x80, tstest.Absent, tstest.Absent, 0)
	tests := []struct {
		name    string
		packets [][]byte
		want    []ContinuityResult
	}{
		{
			"sequential_with_wrap",
			[][]byte{tstest.Packet(0x100, 14, false, nil), tstest.Packet(0x100, 15, false, nil), tstest.Packet(0x100, 0, false, nil)},
			[]ContinuityResult{ContinuityOK, ContinuityOK, ContinuityOK},
		},
		{
			"duplicate",
			[][]byte{tstest.Packet(0x100, 3, false, nil), tstest.Packet(0x100, 3, false, nil)},
			[]ContinuityResult{ContinuityOK, ContinuityDuplicate},
		},
		{
			"gap",
			[][]byte{tstest.Packet(0x100, 3, false, nil), tstest.Packet(0x100, 5, false, nil), tstest.Packet(0x100, 6, false, nil)},
			[]ContinuityResult{ContinuityOK, ContinuityDiscontinuity, ContinuityOK},
		},
		{
			"signaled_discontinuity",
			[][]byte{tstest.Packet(0x100, 3, false, nil), tstest.PacketWithAF(0x100, 9, false, discontinuity, []byte{0})},
			[]ContinuityResult{ContinuityOK, ContinuityOK},
		},
		{
			"adaptation_only_does_not_increment",
			[][]byte{tstest.Packet(0x100, 3, false, nil), tstest.PacketWithAF(0x100, 3, false, tstest.AdaptationField(0, tstest.Absent, tstest.Absent, 0), nil), tstest.Packet(0x100, 4, false, nil)},
			[]ContinuityResult{ContinuityOK, ContinuityOK, ContinuityOK},
		},
		{
			"independent_pids",
			[][]byte{tstest.Packet(0x100, 3, false, nil), tstest.Packet(0x101, 9, false, nil), tstest.Packet(0x100, 4, false, nil)},
			[]ContinuityResult{ContinuityOK, ContinuityOK, ContinuityOK},
		},
		{
			"null_pid_ignored",
			[][]byte{tstest.Packet(NullPID, 0, false, nil), tstest.Packet(NullPID, 0, false, nil)},
			[]ContinuityResult{ContinuityOK, ContinuityOK},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cc := NewContinuityChecker()
			for i, raw := range tc.packets {
				if got := cc.Check(mustDecode(t, raw)); got != tc.want[i] {
					t.Errorf("packet %d: got %v, want %v", i, got, tc.want[i])
				}
			}
		})
	}
}

func TestContinuityCheckerTransportError(t *testing.T) {
	t.Parallel()
	cc := NewContinuityChecker()
	cc.Check(mustDecode(t, tstest.Packet(0x100, 3, false, nil)))
	tei := tstest.Packet(0x100, 7, false, nil)
	tei[1] |= 0x80
	cc.Check(mustDecode(t, tei))
	if got := cc.Check(mustDecode(t, tstest.Packet(0x100, 9, false, nil))); got != ContinuityOK {
		t.Errorf("after transport error: got %v, want ok", got)
	}
	cc.Reset()
	if got := cc.Check(mustDecode(t, tstest.Packet(0x100, 2, false, nil))); got != ContinuityOK {
		t.Errorf("after Reset: got %v, want ok", got)
	}
}
