package evr

import (
	"testing"

	"github.com/alxayo/go-evrgen/internal/dictionary"
	"github.com/alxayo/go-evrgen/internal/generators"
	"github.com/alxayo/go-evrgen/internal/stats"
	"github.com/alxayo/go-evrgen/internal/truth"
)

var testLevels = dictionary.Levels{
	{Name: "COMMAND"},
	{Name: "WARNING_LO"},
	{Name: "FATAL", Fatal: true},
}

// testSeed returns a seed with single-value pools so encoded values are
// predictable.
func testSeed(defs ...*dictionary.Definition) *Seed {
	s := &Seed{
		Definitions: defs,
		Levels:      testLevels,
		TaskName:    "TASK",
		Integers: map[int]generators.Seed[int64]{
			1: {Values: []int64{-5}},
			2: {Values: []int64{-300}},
			4: {Values: []int64{-70000}},
			8: {Values: []int64{-1 << 40}},
		},
		Unsigned: map[int]generators.Seed[uint64]{
			1: {Values: []uint64{200}},
			2: {Values: []uint64{60000}},
			4: {Values: []uint64{123456789}},
			8: {Values: []uint64{1 << 40}},
		},
		Floats: map[int]generators.Seed[float64]{
			4: {Values: []float64{1.5}},
			8: {Values: []float64{2.25}},
		},
		Enums: map[string]generators.Seed[int64]{
			"MODE": {Values: []int64{3}},
		},
		Strings: &generators.Seed[string]{Values: []string{"hello"}},
		Opcodes: &generators.Seed[generators.Opcode]{Values: []generators.Opcode{{Number: 0x00012345, Stem: "CMD_NO_OP"}}},
		SeqIDs:  &generators.Seed[uint32]{Values: []uint32{0xCAFEBABE}},
	}
	return s
}

func def(id uint32, name, level string, args ...dictionary.ArgType) *dictionary.Definition {
	d := &dictionary.Definition{ID: id, Name: name, Level: level}
	for i, a := range args {
		arg := dictionary.ArgumentDefinition{Index: i, Name: a.String(), Type: a}
		switch a {
		case dictionary.ArgEnum:
			arg.EnumTable = "MODE"
		case dictionary.ArgOpcode, dictionary.ArgSeqID:
			arg.Length = 4
		}
		d.Args = append(d.Args, arg)
	}
	return d
}

type harness struct {
	gen   *BodyGenerator
	sink  *truth.Memory
	stats *stats.Statistics
}

func newHarness(t *testing.T, s *Seed) *harness {
	t.Helper()
	h := &harness{sink: &truth.Memory{}, stats: stats.New("test-run")}
	h.gen = New(WithTruth(h.sink), WithStatistics(h.stats))
	if err := h.gen.SetSeed(s); err != nil {
		t.Fatalf("SetSeed: %v", err)
	}
	return h
}

func (h *harness) next(t *testing.T) *Body {
	t.Helper()
	b, err := h.gen.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return b
}
