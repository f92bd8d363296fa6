package generators

import (
	"errors"
	"fmt"
	"math/rand/v2"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// ErrEmptyPool is the cause reported when a seed carries no valid values.
var ErrEmptyPool = errors.New("seed has no valid values")

// Generator produces values from a Seed. It is not safe for concurrent use;
// each generation run owns its own instances.
type Generator[T any] struct {
	seed      Seed[T]
	rnd       *rand.Rand
	cursor    int
	invCursor int
	valid     *UsageTracker
	invalid   *UsageTracker
}

// New builds a generator from seed, drawing randomness from src. A nil src
// gets a fixed default so output stays reproducible.
func New[T any](seed Seed[T], src rand.Source) (*Generator[T], error) {
	return newGenerator("seed.value", seed, src)
}

func newGenerator[T any](op string, seed Seed[T], src rand.Source) (*Generator[T], error) {
	if len(seed.Values) == 0 {
		return nil, generrors.NewConfigError(op, ErrEmptyPool)
	}
	if seed.InvalidPercent < 0 || seed.InvalidPercent > 100 {
		return nil, generrors.NewConfigError(op, fmt.Errorf("invalid percentage %v outside [0,100]", seed.InvalidPercent))
	}
	if seed.Traversal != Sequential && seed.Traversal != Random {
		return nil, generrors.NewConfigError(op, fmt.Errorf("unknown traversal %v", seed.Traversal))
	}
	if src == nil {
		src = rand.NewPCG(0, 0)
	}
	return &Generator[T]{
		seed:    seed,
		rnd:     rand.New(src),
		valid:   NewUsageTracker(len(seed.Values)),
		invalid: NewUsageTracker(len(seed.InvalidValues)),
	}, nil
}

// Next returns the next value in sequence, wrapping to the start.
func (g *Generator[T]) Next() T {
	if v, ok := g.injectInvalid(false); ok {
		return v
	}
	i := g.cursor
	g.cursor = (g.cursor + 1) % len(g.seed.Values)
	g.valid.Mark(i)
	return g.seed.Values[i]
}

// Random returns a uniformly drawn value.
func (g *Generator[T]) Random() T {
	if v, ok := g.injectInvalid(true); ok {
		return v
	}
	i := g.rnd.IntN(len(g.seed.Values))
	g.valid.Mark(i)
	return g.seed.Values[i]
}

// Get dispatches to Next or Random according to the seed's traversal.
func (g *Generator[T]) Get() T {
	if g.seed.Traversal == Random {
		return g.Random()
	}
	return g.Next()
}

func (g *Generator[T]) injectInvalid(random bool) (T, bool) {
	var zero T
	n := len(g.seed.InvalidValues)
	if n == 0 || g.seed.InvalidPercent <= 0 {
		return zero, false
	}
	if g.rnd.Float64()*100 >= g.seed.InvalidPercent {
		return zero, false
	}
	var i int
	if random {
		i = g.rnd.IntN(n)
	} else {
		i = g.invCursor
		g.invCursor = (g.invCursor + 1) % n
	}
	g.invalid.Mark(i)
	return g.seed.InvalidValues[i], true
}

// Reset rewinds cursors and clears usage. The random stream is not rewound.
func (g *Generator[T]) Reset() {
	g.cursor = 0
	g.invCursor = 0
	g.valid.Clear()
	g.invalid.Clear()
}

// Traversal returns the configured traversal mode.
func (g *Generator[T]) Traversal() Traversal { return g.seed.Traversal }

// Len is the number of valid values.
func (g *Generator[T]) Len() int { return len(g.seed.Values) }

// ValidUsage tracks which valid values have been emitted.
func (g *Generator[T]) ValidUsage() *UsageTracker { return g.valid }

// InvalidUsage tracks which invalid values have been emitted.
func (g *Generator[T]) InvalidUsage() *UsageTracker { return g.invalid }
