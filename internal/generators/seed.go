// Package generators implements the seeded value generators that feed EVR
// argument encoding. Each generator cycles through, or draws uniformly from,
// a closed set of valid values and may inject values from an invalid set at
// a configured percentage.
package generators

import (
	"fmt"
	"strings"
)

// Traversal selects how a generator walks its value set.
type Traversal uint8

const (
	Sequential Traversal = iota
	Random
)

func (t Traversal) String() string {
	switch t {
	case Sequential:
		return "SEQUENTIAL"
	case Random:
		return "RANDOM"
	}
	return fmt.Sprintf("Traversal(%d)", uint8(t))
}

// ParseTraversal accepts SEQUENTIAL or RANDOM in any case.
func ParseTraversal(s string) (Traversal, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SEQUENTIAL", "":
		return Sequential, nil
	case "RANDOM":
		return Random, nil
	}
	return Sequential, fmt.Errorf("unknown traversal %q", s)
}

func (t *Traversal) UnmarshalText(b []byte) error {
	v, err := ParseTraversal(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t Traversal) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// SeedData is implemented by every seed object a SeededGenerator accepts.
// SeedKind names the concrete seed so a generator can reject the wrong kind.
type SeedData interface {
	SeedKind() string
}

// SeededGenerator is a generator configured from a seed object after
// construction.
type SeededGenerator interface {
	SetSeed(seed SeedData) error
	Reset()
}

// Seed configures a value generator. Values must be non-empty.
// InvalidPercent is in [0,100] and only applies when InvalidValues is
// non-empty.
type Seed[T any] struct {
	Values         []T
	InvalidValues  []T
	InvalidPercent float64
	Traversal      Traversal
}

func (Seed[T]) SeedKind() string { return "value" }
