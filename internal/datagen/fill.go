package datagen

import (
	"bytes"
	"fmt"
	"math/rand/v2"

	"github.com/alxayo/go-evrgen/internal/packet"
	"github.com/alxayo/go-evrgen/internal/stats"
)

// StartingFillSize is the fill body length used before any EVR body has
// been emitted.
const StartingFillSize = 512

// fillByte pads every fill body.
const fillByte = 0xFF

// streamFill is the random stream of the run seed that drives fill
// decisions. It is disjoint from the body generator's streams.
const streamFill uint64 = 0xF111

// filler interleaves fill packets on their own APID. A fill packet is due
// when a uniform draw lands within percent and the run's fill share has not
// yet exceeded it. Fill bodies average the size of the EVR bodies emitted
// so far.
type filler struct {
	hdr     *packet.HeaderGenerator
	percent float64
	rnd     *rand.Rand
}

func newFiller(hdr *packet.HeaderGenerator, percent float64, seed uint64) *filler {
	return &filler{hdr: hdr, percent: percent, rnd: rand.New(rand.NewPCG(seed, streamFill))}
}

// next returns a fill packet when one is due.
func (f *filler) next(st *stats.Statistics) (packet.Packet, bool, error) {
	if f.rnd.Float64()*100 > f.percent || st.FillPercent() > f.percent {
		return packet.Packet{}, false, nil
	}
	size := st.AverageBodySize()
	if size == 0 {
		size = StartingFillSize
	}
	pkt, err := f.hdr.Wrap(bytes.Repeat([]byte{fillByte}, size))
	if err != nil {
		return packet.Packet{}, false, err
	}
	return pkt, true, nil
}

// fillTruthLine records a fill packet in the truth file.
func fillTruthLine(p packet.Packet) string {
	return fmt.Sprintf("Fill Packet: APID=%d,Sequence=%d,SCLK=%s,Length=%d",
		p.Header.APID, p.Header.Sequence, p.Sclk, len(p.Bytes))
}
