// Package gdr provides fixed-offset field access over byte buffers for the
// EVR wire format. Every multi-byte field is big-endian; this is the byte
// order contract for all generated bodies.
package gdr

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer writes fields at an advancing offset into a caller-owned buffer.
// The first write that does not fit records io.ErrShortBuffer; subsequent
// writes are ignored and Err reports the failure.
type Writer struct {
	buf []byte
	off int
	err error
}

// NewWriter returns a Writer positioned at the start of buf.
func NewWriter(buf []byte) *Writer { return &Writer{buf: buf} }

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int { return w.off }

// Err returns the first overflow error, if any.
func (w *Writer) Err() error { return w.err }

// Bytes returns the written prefix. It aliases the underlying buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.off] }

func (w *Writer) reserve(n int) []byte {
	if w.err != nil {
		return nil
	}
	if w.off+n > len(w.buf) {
		w.err = fmt.Errorf("write %d bytes at offset %d (cap %d): %w", n, w.off, len(w.buf), io.ErrShortBuffer)
		return nil
	}
	b := w.buf[w.off : w.off+n]
	w.off += n
	return b
}

func (w *Writer) U8(v uint8) {
	if b := w.reserve(1); b != nil {
		b[0] = v
	}
}

func (w *Writer) U16(v uint16) {
	if b := w.reserve(2); b != nil {
		binary.BigEndian.PutUint16(b, v)
	}
}

func (w *Writer) U32(v uint32) {
	if b := w.reserve(4); b != nil {
		binary.BigEndian.PutUint32(b, v)
	}
}

func (w *Writer) U64(v uint64) {
	if b := w.reserve(8); b != nil {
		binary.BigEndian.PutUint64(b, v)
	}
}

func (w *Writer) I8(v int8)   { w.U8(uint8(v)) }
func (w *Writer) I16(v int16) { w.U16(uint16(v)) }
func (w *Writer) I32(v int32) { w.U32(uint32(v)) }
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// F32 writes an IEEE 754 single.
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

// F64 writes an IEEE 754 double.
func (w *Writer) F64(v float64) { w.U64(math.Float64bits(v)) }

// PaddedString writes s into exactly n bytes, truncating or padding with
// spaces on the right.
func (w *Writer) PaddedString(s string, n int) {
	b := w.reserve(n)
	if b == nil {
		return
	}
	c := copy(b, s)
	for i := c; i < n; i++ {
		b[i] = ' '
	}
}

// RawString writes the bytes of s with no terminator or padding.
func (w *Writer) RawString(s string) {
	if b := w.reserve(len(s)); b != nil {
		copy(b, s)
	}
}

// Reader reads fields at an advancing offset. Like Writer, the first short
// read is sticky.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

func (r *Reader) Offset() int    { return r.off }
func (r *Reader) Remaining() int { return len(r.buf) - r.off }
func (r *Reader) Err() error     { return r.err }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.err = fmt.Errorf("read %d bytes at offset %d (len %d): %w", n, r.off, len(r.buf), io.ErrUnexpectedEOF)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) U16() uint16 {
	if b := r.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) U32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) U64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }
func (r *Reader) F64() float64 { return math.Float64frombits(r.U64()) }

// Bytes returns the next n bytes (aliasing the buffer).
func (r *Reader) Bytes(n int) []byte { return r.take(n) }
