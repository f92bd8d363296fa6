package packet

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/logger"
)

func TestWrapHeaderFields(t *testing.T) {
	g, err := NewHeaderGenerator(0x123, nil)
	if err != nil {
		t.Fatalf("NewHeaderGenerator: %v", err)
	}
	body := []byte{1, 2, 3, 4}
	pkt, err := g.Wrap(body)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	want := []byte{0x01, 0x23, 0xC0, 0x00, 0x00, 0x03, 1, 2, 3, 4}
	if !bytes.Equal(pkt.Bytes, want) {
		t.Fatalf("packet\n got %x\nwant %x", pkt.Bytes, want)
	}
	pkt, _ = g.Wrap(body)
	h, err := ParseHeader(pkt.Bytes)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h != pkt.Header || h.APID != 0x123 || h.Sequence != 1 || h.DataLength != len(body) || h.Secondary {
		t.Fatalf("unexpected header %+v (wrapped %+v)", h, pkt.Header)
	}
	if g.APID() != 0x123 {
		t.Fatalf("APID()=%#x", g.APID())
	}
}

func TestWrapWithSclk(t *testing.T) {
	clk := NewSclkGenerator(Sclk{Coarse: 0x01020304, Fine: 0x0506}, Sclk{Fine: 0x8000})
	g, _ := NewHeaderGenerator(0x123, clk)
	body := []byte{0xAA, 0xBB}

	pkt, err := g.Wrap(body)
	if err != nil {
		t.Fatalf("Wrap: %v", err)
	}
	want := []byte{
		0x09, 0x23, 0xC0, 0x00, 0x00, 0x07,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
		0xAA, 0xBB,
	}
	if !bytes.Equal(pkt.Bytes, want) {
		t.Fatalf("packet\n got %x\nwant %x", pkt.Bytes, want)
	}
	h, err := ParseHeader(pkt.Bytes)
	if err != nil || !h.Secondary || h.DataLength != SclkLength+len(body) {
		t.Fatalf("header %+v err %v", h, err)
	}

	var got []string
	for i := 0; i < 2; i++ {
		pkt, _ = g.Wrap(body)
		s, ok := ParseSclk(pkt.Bytes)
		if !ok || s != pkt.Sclk {
			t.Fatalf("ParseSclk=%v,%v want %v", s, ok, pkt.Sclk)
		}
		got = append(got, s.String())
	}
	// 0x0506+0x8000 stays in the fine field; the next delta carries.
	if diff := cmp.Diff([]string{"16909060.34054", "16909061.01286"}, got); diff != "" {
		t.Fatalf("sclk sequence (-want +got):\n%s", diff)
	}
}

func TestSclkExhaustion(t *testing.T) {
	clk := NewSclkGenerator(Sclk{Coarse: math.MaxUint32, Fine: 0xFFFF}, Sclk{})
	g, _ := NewHeaderGenerator(1, clk)
	pkt, err := g.Wrap([]byte{0})
	if err != nil {
		t.Fatalf("last clock value should still wrap: %v", err)
	}
	if pkt.Sclk.Coarse != math.MaxUint32 || !clk.Exhausted() {
		t.Fatalf("sclk %v exhausted=%v", pkt.Sclk, clk.Exhausted())
	}
	if _, err := g.Wrap([]byte{0}); !errors.Is(err, ErrSclkExhausted) || !generrors.IsStateError(err) {
		t.Fatalf("expected exhausted StateError, got %v", err)
	}
}

func TestSequenceWraps(t *testing.T) {
	g, _ := NewHeaderGenerator(1, nil)
	g.seq = MaxSequence
	a, _ := g.Wrap([]byte{0})
	b, _ := g.Wrap([]byte{0})
	if a.Header.Sequence != MaxSequence || b.Header.Sequence != 0 {
		t.Fatalf("sequence %d then %d", a.Header.Sequence, b.Header.Sequence)
	}
}

func TestWrapRejectsBadLengths(t *testing.T) {
	g, _ := NewHeaderGenerator(1, nil)
	if _, err := g.Wrap(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
	if _, err := g.Wrap(make([]byte, MaxDataLength+1)); err == nil {
		t.Fatalf("expected error for oversized body")
	}
	withClock, _ := NewHeaderGenerator(1, NewSclkGenerator(Sclk{}, Sclk{}))
	if _, err := withClock.Wrap(make([]byte, MaxDataLength-SclkLength+1)); !generrors.IsCodecError(err) {
		t.Fatalf("expected CodecError when body and SCLK overflow, got %v", err)
	}
	if _, err := NewHeaderGenerator(MaxAPID+1, nil); !generrors.IsConfigError(err) {
		t.Fatalf("expected ConfigError for apid, got %v", err)
	}
}

// limitedWriter simulates disk full by failing after N bytes.
type limitedWriter struct {
	limit  int
	buf    bytes.Buffer
	closed bool
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(p) > l.limit {
		p = p[:l.limit]
	}
	n, _ := l.buf.Write(p)
	l.limit -= n
	if l.limit == 0 {
		return n, io.ErrShortWrite
	}
	return n, nil
}
func (l *limitedWriter) Close() error { l.closed = true; return nil }

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evr_data.bin")
	fw, err := Create(path, logger.Logger())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	g, _ := NewHeaderGenerator(7, nil)
	for i := 0; i < 3; i++ {
		pkt, _ := g.Wrap([]byte{byte(i), 0xAA})
		if err := fw.Write(pkt.Bytes); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if n, b := fw.Counts(); n != 3 || b != 24 {
		t.Fatalf("counts packets=%d bytes=%d", n, b)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(data) != 24 {
		t.Fatalf("file size %d want 24", len(data))
	}
	for off, seq := 0, uint16(0); off < len(data); seq++ {
		h, err := ParseHeader(data[off:])
		if err != nil || h.Sequence != seq || h.APID != 7 {
			t.Fatalf("packet %d header %+v err %v", seq, h, err)
		}
		off += HeaderLength + h.DataLength
	}
}

func TestFileWriterDisablesOnError(t *testing.T) {
	lw := &limitedWriter{limit: 10}
	fw := NewWriter(lw, nil)
	if err := fw.Write(make([]byte, 8)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	err := fw.Write(make([]byte, 8))
	var se *generrors.SinkError
	if !generrors.IsFatal(err) || !errors.As(err, &se) {
		t.Fatalf("expected SinkError, got %v", err)
	}
	if !fw.Disabled() || !lw.closed {
		t.Fatalf("writer should be disabled and closed")
	}
	if err2 := fw.Write([]byte{1}); err2 != err {
		t.Fatalf("expected sticky error, got %v", err2)
	}
}
