package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/evr"
	"github.com/alxayo/go-evrgen/internal/generators"
)

// SeedMaker combines a dictionary with mission and run configuration into
// the seed for one body generator. Pools absent from the run file fall back
// to boundary values for their width.
type SeedMaker struct {
	Dictionary *dictionary.Dictionary
	Mission    *Mission
	Run        *Run
	// NewDefinition overrides the placeholder factory for invalid IDs.
	NewDefinition dictionary.Factory
}

// MakeSeed builds the seed. Invalid IDs that collide with dictionary IDs
// are rejected.
func (sm SeedMaker) MakeSeed() (*evr.Seed, error) {
	if sm.Dictionary == nil || sm.Mission == nil || sm.Run == nil {
		return nil, generrors.NewConfigError("seed.make", fmt.Errorf("dictionary, mission and run are all required"))
	}
	ids := sm.Dictionary.IDs()
	for _, id := range sm.Run.InvalidIDs {
		if _, ok := ids[id]; ok {
			return nil, generrors.NewConfigError("seed.make", fmt.Errorf("invalid ID %d is defined in the dictionary", id))
		}
	}

	run := sm.Run
	t := run.Traversal
	s := &evr.Seed{
		Definitions:      sm.Dictionary.Definitions,
		Levels:           sm.Mission.Levels,
		TaskName:         sm.Mission.TaskName,
		StackDepth:       run.StackDepth,
		Traversal:        t,
		InvalidIDs:       run.InvalidIDs,
		InvalidIDPercent: run.InvalidIDPercent,
		Integers:         make(map[int]generators.Seed[int64], len(generators.IntegerWidths)),
		Unsigned:         make(map[int]generators.Seed[uint64], len(generators.IntegerWidths)),
		Floats:           make(map[int]generators.Seed[float64], len(generators.FloatWidths)),
		Enums:            make(map[string]generators.Seed[int64], len(sm.Dictionary.Enums)),
		RandomSeed:       run.RandomSeed,
		NewDefinition:    sm.NewDefinition,
	}

	for _, w := range generators.IntegerWidths {
		if p, ok := run.Pools.Integers[w]; ok {
			s.Integers[w] = p.seed(t)
		} else {
			s.Integers[w] = generators.Seed[int64]{Values: DefaultIntegers(w), Traversal: t}
		}
		if p, ok := run.Pools.Unsigned[w]; ok {
			s.Unsigned[w] = p.seed(t)
		} else {
			s.Unsigned[w] = generators.Seed[uint64]{Values: DefaultUnsigned(w), Traversal: t}
		}
	}
	for _, w := range generators.FloatWidths {
		if p, ok := run.Pools.Floats[w]; ok {
			s.Floats[w] = p.seed(t)
		} else {
			s.Floats[w] = generators.Seed[float64]{Values: DefaultFloats(w), Traversal: t}
		}
	}

	for name, tbl := range sm.Dictionary.Enums {
		if p, ok := run.Pools.Enums[name]; ok {
			s.Enums[name] = p.seed(t)
			continue
		}
		if len(tbl.Values) == 0 {
			continue
		}
		s.Enums[name] = generators.Seed[int64]{Values: tbl.Ordinals(), Traversal: t}
	}
	for name := range run.Pools.Enums {
		if _, ok := sm.Dictionary.Enums[name]; !ok {
			return nil, generrors.NewConfigError("seed.make", fmt.Errorf("enum pool %q has no dictionary table", name))
		}
	}

	if run.Pools.Strings != nil {
		p := run.Pools.Strings.seed(t)
		s.Strings = &p
	} else {
		s.Strings = &generators.Seed[string]{Values: DefaultStrings(), Traversal: t}
	}
	if run.Pools.Opcodes != nil {
		p := run.Pools.Opcodes.seed(t)
		s.Opcodes = &p
	}
	if run.Pools.SeqIDs != nil {
		p := run.Pools.SeqIDs.seed(t)
		s.SeqIDs = &p
	}
	return s, nil
}

// DefaultIntegers returns the signed boundary values for width bytes.
func DefaultIntegers(width int) []int64 {
	lo, hi := generators.SignedRange(width)
	return []int64{lo, -1, 0, 1, hi}
}

// DefaultUnsigned returns the unsigned boundary values for width bytes.
func DefaultUnsigned(width int) []uint64 {
	return []uint64{0, 1, generators.UnsignedMax(width)}
}

// DefaultFloats returns representative values that fit width bytes.
func DefaultFloats(width int) []float64 {
	if width == 4 {
		return []float64{0, 1.5, -2.25, math.MaxFloat32, math.SmallestNonzeroFloat32}
	}
	return []float64{0, 1.5, -2.25, math.MaxFloat64, math.SmallestNonzeroFloat64}
}

// DefaultStrings covers the empty string and the longest encodable string.
func DefaultStrings() []string {
	return []string{"", "nominal", strings.Repeat("x", generators.MaxStringLength)}
}
