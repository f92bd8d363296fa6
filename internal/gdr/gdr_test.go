package gdr

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
)

func TestWriterFields(t *testing.T) {
	buf := make([]byte, 64)
	w := NewWriter(buf)
	w.PaddedString("FSW", 6)
	w.U32(42)
	w.U16(0xBEEF)
	w.U8(7)
	w.I8(-1)
	w.I16(-2)
	w.I32(-3)
	w.I64(-4)
	w.F32(1.5)
	w.F64(-2.25)
	w.U64(1 << 40)
	w.RawString("ab")
	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{
		'F', 'S', 'W', ' ', ' ', ' ',
		0x00, 0x00, 0x00, 0x2A,
		0xBE, 0xEF,
		0x07,
		0xFF,
		0xFF, 0xFE,
		0xFF, 0xFF, 0xFF, 0xFD,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFC,
		0x3F, 0xC0, 0x00, 0x00,
		0xC0, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
		'a', 'b',
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("encoded bytes mismatch\n got: %x\nwant: %x", w.Bytes(), want)
	}
	if w.Offset() != len(want) {
		t.Fatalf("offset %d want %d", w.Offset(), len(want))
	}
}

func TestPaddedStringTruncates(t *testing.T) {
	w := NewWriter(make([]byte, 6))
	w.PaddedString("LONGTASKNAME", 6)
	if got := string(w.Bytes()); got != "LONGTA" {
		t.Fatalf("got %q", got)
	}
}

func TestWriterOverflowIsSticky(t *testing.T) {
	w := NewWriter(make([]byte, 5))
	w.U32(1)
	w.U32(2)
	w.U8(3)
	if !errors.Is(w.Err(), io.ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", w.Err())
	}
	if w.Offset() != 4 {
		t.Fatalf("offset advanced past failure: %d", w.Offset())
	}
}

func TestReaderRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	w := NewWriter(buf)
	w.U8(1)
	w.U16(2)
	w.U32(3)
	w.U64(4)
	w.F32(float32(math.Inf(1)))
	w.F64(math.Pi)

	r := NewReader(w.Bytes())
	if r.U8() != 1 || r.U16() != 2 || r.U32() != 3 || r.U64() != 4 {
		t.Fatalf("integer mismatch")
	}
	if !math.IsInf(float64(r.F32()), 1) {
		t.Fatalf("float32 mismatch")
	}
	if r.F64() != math.Pi {
		t.Fatalf("float64 mismatch")
	}
	if r.Remaining() != 0 || r.Err() != nil {
		t.Fatalf("remaining=%d err=%v", r.Remaining(), r.Err())
	}
	_ = r.U8()
	if !errors.Is(r.Err(), io.ErrUnexpectedEOF) {
		t.Fatalf("expected ErrUnexpectedEOF, got %v", r.Err())
	}
}
