package packet

import (
	"fmt"
	"math"

	"github.com/alxayo/go-evrgen/internal/gdr"
)

// SclkLength is the size of the secondary header: a 4-byte coarse count
// followed by a 2-byte fine count.
const SclkLength = 6

// FineModulus is the number of fine ticks per coarse tick.
const FineModulus = 1 << 16

// Sclk is a spacecraft clock value.
type Sclk struct {
	Coarse uint32
	Fine   uint16
}

// String renders coarse.fine with the fine count zero padded to five digits.
func (s Sclk) String() string { return fmt.Sprintf("%d.%05d", s.Coarse, s.Fine) }

// Ticks returns the clock as a single fine-tick count.
func (s Sclk) Ticks() uint64 { return uint64(s.Coarse)*FineModulus + uint64(s.Fine) }

func (s Sclk) put(w *gdr.Writer) {
	w.U32(s.Coarse)
	w.U16(s.Fine)
}

// ParseSclk decodes the secondary header that follows the primary header.
func ParseSclk(pkt []byte) (Sclk, bool) {
	if len(pkt) < HeaderLength+SclkLength {
		return Sclk{}, false
	}
	r := gdr.NewReader(pkt[HeaderLength:])
	return Sclk{Coarse: r.U32(), Fine: r.U16()}, true
}

// SclkGenerator hands out a monotonically increasing clock, starting at a
// configured value and advancing by a fixed delta per packet. It is
// exhausted once the next value would overflow the coarse field. Not safe
// for concurrent use; data and fill packets share one generator so their
// clocks interleave in packet order.
type SclkGenerator struct {
	next      uint64
	delta     uint64
	exhausted bool
}

// NewSclkGenerator returns a generator whose first value is start. A zero
// delta advances one coarse tick per packet.
func NewSclkGenerator(start, delta Sclk) *SclkGenerator {
	d := delta.Ticks()
	if d == 0 {
		d = FineModulus
	}
	return &SclkGenerator{next: start.Ticks(), delta: d}
}

// Exhausted reports whether the clock has run past the coarse range.
func (g *SclkGenerator) Exhausted() bool { return g.exhausted }

// Next returns the current clock and advances it.
func (g *SclkGenerator) Next() (Sclk, bool) {
	if g.exhausted {
		return Sclk{}, false
	}
	v := Sclk{Coarse: uint32(g.next / FineModulus), Fine: uint16(g.next % FineModulus)}
	const limit = uint64(math.MaxUint32)*FineModulus + FineModulus - 1
	if limit-g.next < g.delta {
		g.exhausted = true
	} else {
		g.next += g.delta
	}
	return v, true
}
