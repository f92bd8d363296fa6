package evr

import (
	"fmt"

	"github.com/alxayo/go-evrgen/internal/dictionary"
	"github.com/alxayo/go-evrgen/internal/generators"
)

// MaxStackDepth bounds the fatal address stack so its byte length fits the
// one-byte length field.
const MaxStackDepth = 63

// RandomStackDepthMax is the upper bound of the random stack depth drawn
// when no fixed depth is configured.
const RandomStackDepthMax = 6

// Seed configures a BodyGenerator for one generation run.
type Seed struct {
	// Definitions are emitted in this order by Next.
	Definitions []*dictionary.Definition
	Levels      dictionary.Levels

	// TaskName is space-padded or truncated to six characters on the wire.
	TaskName string
	// StackDepth fixes the fatal address-stack depth; 0 draws from [1,6].
	StackDepth int
	// Traversal selects Next (sequential) or Random for Get.
	Traversal generators.Traversal

	// InvalidIDs enables invalid-ID injection when non-empty.
	InvalidIDs       []uint32
	InvalidIDPercent float64

	// Numeric pools keyed by byte width. Every width in
	// generators.IntegerWidths / FloatWidths must be present.
	Integers map[int]generators.Seed[int64]
	Unsigned map[int]generators.Seed[uint64]
	Floats   map[int]generators.Seed[float64]
	// Enums keyed by enumeration table name.
	Enums map[string]generators.Seed[int64]

	// Optional pools; required only when a definition uses the type.
	Strings *generators.Seed[string]
	Opcodes *generators.Seed[generators.Opcode]
	SeqIDs  *generators.Seed[uint32]

	// RandomSeed drives every random stream of the run.
	RandomSeed uint64

	// NewDefinition builds placeholder definitions for invalid IDs.
	// Defaults to dictionary.NewDefinition.
	NewDefinition dictionary.Factory
}

// SeedKind identifies the seed for generators.SeededGenerator.
func (*Seed) SeedKind() string { return "evr_body" }

func (s *Seed) validate() error {
	if s.StackDepth < 0 || s.StackDepth > MaxStackDepth {
		return fmt.Errorf("stack depth %d outside [0,%d]", s.StackDepth, MaxStackDepth)
	}
	if s.InvalidIDPercent < 0 || s.InvalidIDPercent > 100 {
		return fmt.Errorf("invalid-ID percentage %v outside [0,100]", s.InvalidIDPercent)
	}
	if len(s.InvalidIDs) > 0 && len(s.Levels) == 0 {
		return fmt.Errorf("invalid IDs configured but no EVR levels to assign them")
	}
	return nil
}
