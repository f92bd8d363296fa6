package generators

import (
	"fmt"
	"math/rand/v2"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// MaxStringLength is the longest VAR_STRING value; its length must fit the
// single-byte prefix.
const MaxStringLength = 255

// StringGenerator produces VAR_STRING argument values.
type StringGenerator struct {
	*Generator[string]
}

func NewString(seed Seed[string], src rand.Source) (*StringGenerator, error) {
	for _, s := range append(append([]string{}, seed.Values...), seed.InvalidValues...) {
		if len(s) > MaxStringLength {
			return nil, generrors.NewConfigError("seed.string", fmt.Errorf("string of %d bytes exceeds %d", len(s), MaxStringLength))
		}
	}
	g, err := newGenerator("seed.string", seed, src)
	if err != nil {
		return nil, err
	}
	return &StringGenerator{Generator: g}, nil
}

// EnumGenerator produces ordinals of one enumeration table. Ordinals must fit
// the 4-byte signed wire field.
type EnumGenerator struct {
	*Generator[int64]
	table string
}

func NewEnum(table string, seed Seed[int64], src rand.Source) (*EnumGenerator, error) {
	op := "seed.enum." + table
	lo, hi := signedRange(4)
	for _, v := range append(append([]int64{}, seed.Values...), seed.InvalidValues...) {
		if v < lo || v > hi {
			return nil, generrors.NewConfigError(op, fmt.Errorf("ordinal %d does not fit 32 bits", v))
		}
	}
	g, err := newGenerator(op, seed, src)
	if err != nil {
		return nil, err
	}
	return &EnumGenerator{Generator: g, table: table}, nil
}

// Table is the enumeration table name.
func (g *EnumGenerator) Table() string { return g.table }
