package mpegts

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/zsiec/tsprobe/internal/tstest"
)

func decodeAll(t *testing.T, data []byte) []*Packet {
	t.Helper()
	var out []*Packet
	for off := 0; off+PacketSize <= len(data); off += PacketSize {
		p, err := Decode(data[off : off+PacketSize])
		if err != nil {
			t.Fatalf("packet at %d: %v", off, err)
		}
		out = append(out, p)
	}
	return out
}

func TestRewriterShiftsTimestamps(t *testing.T) {
	t.Parallel()
	video := tstest.Packet(0x100, 0, true, tstest.PES(0xE0, 90000, 87000, nil))
	audio := tstest.Packet(0x101, 0, true, tstest.PES(0xC0, 1000, tstest.Absent, nil))
	orig := append([]byte(nil), video...)

	var out bytes.Buffer
	rw := NewRewriter(&out, 1, RewriterOptSelector(ClassSelector(ClassVideo)))
	if err := rw.WriteRecord(video); err != nil {
		t.Fatal(err)
	}
	if err := rw.WriteRecord(audio); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(video, orig) {
		t.Error("source record was modified")
	}

	pkts := decodeAll(t, out.Bytes())
	if len(pkts) != 2 {
		t.Fatalf("wrote %d records, want 2", len(pkts))
	}
	if *pkts[0].PES.PTS != 90001 || *pkts[0].PES.DTS != 87001 {
		t.Errorf("video PTS/DTS = %d/%d, want 90001/87001", *pkts[0].PES.PTS, *pkts[0].PES.DTS)
	}
	if *pkts[1].PES.PTS != 1000 {
		t.Errorf("audio PTS = %d, want unchanged 1000", *pkts[1].PES.PTS)
	}

	// Only the timestamp payload bits may differ; prefix and markers stay.
	want := tstest.Packet(0x100, 0, true, tstest.PES(0xE0, 90001, 87001, nil))
	if !bytes.Equal(out.Bytes()[:PacketSize], want) {
		t.Errorf("rewritten record differs from reference encoding")
	}

	st := rw.Stats()
	if st.Records != 2 || st.PTS != 1 || st.DTS != 1 || st.Passthrough != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestRewriterWraps(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	rw := NewRewriter(&out, -10)
	if err := rw.WriteRecord(tstest.Packet(0x100, 0, true, tstest.PES(0xE0, 5, tstest.Absent, nil))); err != nil {
		t.Fatal(err)
	}
	p := decodeAll(t, out.Bytes())[0]
	if *p.PES.PTS != MaxTimestamp-4 {
		t.Errorf("PTS = %d, want %d", *p.PES.PTS, MaxTimestamp-4)
	}
}

func TestRewriterPCR(t *testing.T) {
	t.Parallel()
	af := tstest.AdaptationField(0, tstest.PCR(1000, 123), tstest.Absent, 0)
	pkt := tstest.PacketWithAF(0x100, 0, false, af, nil)

	var out bytes.Buffer
	rw := NewRewriter(&out, 90000, RewriterOptPCR(true))
	if err := rw.WriteRecord(pkt); err != nil {
		t.Fatal(err)
	}
	p := decodeAll(t, out.Bytes())[0]
	pcr, ok := p.PCR()
	if !ok {
		t.Fatal("PCR missing after rewrite")
	}
	if pcr.Base() != 91000 || pcr.Extension() != 123 {
		t.Errorf("PCR base/ext = %d/%d, want 91000/123", pcr.Base(), pcr.Extension())
	}
	if rw.Stats().PCR != 1 {
		t.Errorf("stats = %+v", rw.Stats())
	}

	// PCR stays untouched unless enabled.
	out.Reset()
	rw = NewRewriter(&out, 90000)
	rw.WriteRecord(pkt)
	if !bytes.Equal(out.Bytes(), pkt) {
		t.Error("PCR shifted without RewriterOptPCR")
	}
}

func TestRewriterPassthrough(t *testing.T) {
	t.Parallel()
	bad := tstest.Packet(0x100, 0, true, tstest.PES(0xE0, 5, tstest.Absent, nil))
	bad[0] = 0x00
	var out bytes.Buffer
	rw := NewRewriter(&out, 100)
	if err := rw.WriteRecord(bad); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), bad) {
		t.Error("undecodable record was not copied as-is")
	}
	if rw.Stats().Passthrough != 1 {
		t.Errorf("stats = %+v", rw.Stats())
	}
	if err := rw.WriteRecord(bad[:10]); !errors.Is(err, ErrPacketSize) {
		t.Errorf("got %v, want ErrPacketSize", err)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRewriterWriteError(t *testing.T) {
	t.Parallel()
	rw := NewRewriter(failWriter{}, 0)
	if err := rw.WriteRecord(videoPTS(1)); err == nil {
		t.Error("expected write error")
	}
}

func TestCopy(t *testing.T) {
	t.Parallel()
	bad := videoPTS(0)
	bad[0] = 0x00
	data := tstest.Concat(videoPTS(90000), bad, videoPTS(180000))
	trailing := append(append([]byte(nil), data...), 0x47, 0x00)
	s := NewStream(bytes.NewReader(trailing), int64(len(trailing)))

	var out bytes.Buffer
	rw := NewRewriter(&out, 90000)
	if err := Copy(context.Background(), rw, s); err != nil {
		t.Fatal(err)
	}
	if out.Len() != len(data) {
		t.Fatalf("wrote %d bytes, want %d", out.Len(), len(data))
	}
	if !bytes.Equal(out.Bytes()[PacketSize:2*PacketSize], bad) {
		t.Error("corrupt record not passed through")
	}
	first, _ := Decode(out.Bytes()[:PacketSize])
	last, _ := Decode(out.Bytes()[2*PacketSize:])
	if *first.PES.PTS != 180000 || *last.PES.PTS != 270000 {
		t.Errorf("PTS = %d, %d, want 180000, 270000", *first.PES.PTS, *last.PES.PTS)
	}
}

// nalContinuation is a continuation packet whose payload starts with an
// Annex-B start code that also parses as a PES header with PTS and DTS.
func nalContinuation() []byte {
	nal := []byte{0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x00, 0xC0, 0x12, 0x34, 0x56, 0x78, 0x9A, 0xBC, 0xDE, 0xF0, 0x11, 0x22, 0x33, 0x44}
	return tstest.Packet(0x100, 1, false, nal)
}

func TestRewriterLeavesContinuationPayload(t *testing.T) {
	t.Parallel()
	raw := nalContinuation()
	if p, err := Decode(raw); err != nil || p.PES == nil {
		t.Fatalf("fixture should decode with a PES header: %v, %v", p, err)
	}

	for _, opts := range [][]func(*Rewriter){nil, {RewriterOptSelector(PIDSelector(0x100))}} {
		var out bytes.Buffer
		rw := NewRewriter(&out, 1, opts...)
		if err := rw.WriteRecord(raw); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out.Bytes(), raw) {
			t.Error("continuation payload was modified")
		}
		if st := rw.Stats(); st.PTS != 0 || st.DTS != 0 {
			t.Errorf("stats = %+v", st)
		}
	}
}
