package evr

import (
	"github.com/alxayo/go-evrgen/internal/bufpool"
	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/gdr"
	"github.com/alxayo/go-evrgen/internal/generators"
)

// InvalidBodyLength is the size of an invalid-ID body: task name + event ID.
const InvalidBodyLength = TaskNameLength + 4

// InvalidName is the definition name recorded for invalid-ID bodies.
const InvalidName = "UNKNOWN"

// invalidPolicy decides when an invalid-ID body replaces a normal one. The
// first consultation after seeding always fires; later ones fire with
// probability percent/100. IDs are consumed round-robin.
type invalidPolicy struct {
	ids          []uint32
	percent      float64
	next         int
	firstEmitted bool
	tracker      *generators.UsageTracker
}

func newInvalidPolicy(ids []uint32, percent float64) invalidPolicy {
	return invalidPolicy{
		ids:     ids,
		percent: percent,
		tracker: generators.NewUsageTracker(len(ids)),
	}
}

func (p *invalidPolicy) fire(draw func() float64) bool {
	if len(p.ids) == 0 {
		return false
	}
	if !p.firstEmitted {
		p.firstEmitted = true
		return true
	}
	return draw()*100 < p.percent
}

// take returns the next invalid ID and its slot.
func (p *invalidPolicy) take() (uint32, int) {
	i := p.next
	p.next = (p.next + 1) % len(p.ids)
	return p.ids[i], i
}

// invalidBody applies the invalid-ID policy. fired is false when the caller
// should proceed with normal selection.
func (g *BodyGenerator) invalidBody() (b *Body, fired bool, err error) {
	if !g.invalid.fire(g.rnd.Float64) {
		return nil, false, nil
	}
	id, slot := g.invalid.take()

	scratch := bufpool.Get(InvalidBodyLength)
	defer bufpool.Put(scratch)
	w := gdr.NewWriter(scratch)
	w.PaddedString(g.taskName, TaskNameLength)
	w.U32(id)
	if err := w.Err(); err != nil {
		return nil, true, generrors.NewCodecError("encode.invalid", err)
	}

	factory := g.seed.NewDefinition
	if factory == nil {
		factory = dictionary.NewDefinition
	}
	def := factory()
	def.ID = id
	def.Level = g.seed.Levels[g.rnd.IntN(len(g.seed.Levels))].Name
	def.Name = InvalidName

	if err := g.writeTruth(def, nil, false, nil); err != nil {
		return nil, true, err
	}
	g.stats.IncrementInvalidForID(id)
	g.stats.AddBytes(w.Offset())
	g.invalid.tracker.Mark(slot)
	return &Body{Definition: def, Bytes: bufpool.CopyOut(scratch, w.Offset()), Invalid: true}, true, nil
}
