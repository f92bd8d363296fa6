// Package packet wraps EVR bodies in CCSDS space packets and persists them.
//
// Primary header (6 bytes, big-endian):
//
//	bits 0-2   version (0)
//	bit  3     type (0 = telemetry)
//	bit  4     secondary header flag (1 when an SCLK follows)
//	bits 5-15  APID
//	bits 16-17 sequence flags (0b11, unsegmented)
//	bits 18-31 sequence count (wraps at 0x3FFF)
//	bits 32-47 data length - 1
//
// The optional secondary header is the SCLK: u32 coarse, u16 fine.
package packet

import (
	"errors"
	"fmt"

	"github.com/alxayo/go-evrgen/internal/bufpool"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/gdr"
)

const (
	HeaderLength  = 6
	MaxAPID       = 0x7FF
	MaxSequence   = 0x3FFF
	MaxDataLength = 0x10000
	secondaryFlag = 1 << 11
	seqFlagsUnseg = 0b11
)

// ErrSclkExhausted is reported once the clock has run out of coarse range.
var ErrSclkExhausted = errors.New("SCLK generator exhausted")

// Header is a decoded primary header. DataLength counts the secondary
// header and the body.
type Header struct {
	APID       uint16
	Sequence   uint16
	DataLength int
	Secondary  bool
}

// Packet is one wrapped body.
type Packet struct {
	Header Header
	// Sclk is the secondary header value; zero when Header.Secondary is false.
	Sclk  Sclk
	Bytes []byte
}

// HeaderGenerator stamps consecutive primary headers for one APID and, when
// it has a clock, the SCLK secondary header. Not safe for concurrent use.
type HeaderGenerator struct {
	apid uint16
	seq  uint16
	sclk *SclkGenerator
}

// NewHeaderGenerator returns a generator whose first packet has sequence 0.
// A nil sclk produces packets without a secondary header.
func NewHeaderGenerator(apid uint16, sclk *SclkGenerator) (*HeaderGenerator, error) {
	if apid > MaxAPID {
		return nil, generrors.NewConfigError("packet.apid", fmt.Errorf("apid %d exceeds %d", apid, MaxAPID))
	}
	return &HeaderGenerator{apid: apid, sclk: sclk}, nil
}

// APID returns the configured application process ID.
func (g *HeaderGenerator) APID() uint16 { return g.apid }

// Wrap returns a packet holding header, SCLK and body and advances the
// sequence count and the clock.
func (g *HeaderGenerator) Wrap(body []byte) (Packet, error) {
	sec := 0
	if g.sclk != nil {
		sec = SclkLength
	}
	dataLen := sec + len(body)
	if len(body) == 0 || dataLen > MaxDataLength {
		return Packet{}, generrors.NewCodecError("packet.wrap", fmt.Errorf("body length %d outside [1,%d]", len(body), MaxDataLength-sec))
	}
	var clk Sclk
	if g.sclk != nil {
		var ok bool
		if clk, ok = g.sclk.Next(); !ok {
			return Packet{}, generrors.NewStateError("packet.wrap", ErrSclkExhausted)
		}
	}

	n := HeaderLength + dataLen
	scratch := bufpool.Get(n)
	defer bufpool.Put(scratch)

	w := gdr.NewWriter(scratch)
	id := g.apid & MaxAPID
	if sec > 0 {
		id |= secondaryFlag
	}
	w.U16(id)
	w.U16(seqFlagsUnseg<<14 | g.seq&MaxSequence)
	w.U16(uint16(dataLen - 1))
	if sec > 0 {
		clk.put(w)
	}
	copy(scratch[HeaderLength+sec:n], body)
	if err := w.Err(); err != nil {
		return Packet{}, generrors.NewCodecError("packet.wrap", err)
	}
	pkt := Packet{
		Header: Header{APID: g.apid, Sequence: g.seq, DataLength: dataLen, Secondary: sec > 0},
		Sclk:   clk,
		Bytes:  bufpool.CopyOut(scratch, n),
	}
	g.seq = (g.seq + 1) & MaxSequence
	return pkt, nil
}

// ParseHeader decodes the primary header at the start of pkt.
func ParseHeader(pkt []byte) (Header, error) {
	r := gdr.NewReader(pkt)
	id := r.U16()
	sc := r.U16()
	l := r.U16()
	if err := r.Err(); err != nil {
		return Header{}, generrors.NewCodecError("packet.header", err)
	}
	if id>>13 != 0 {
		return Header{}, generrors.NewCodecError("packet.header", fmt.Errorf("unsupported version %d", id>>13))
	}
	return Header{
		APID:       id & MaxAPID,
		Sequence:   sc & MaxSequence,
		DataLength: int(l) + 1,
		Secondary:  id&secondaryFlag != 0,
	}, nil
}
