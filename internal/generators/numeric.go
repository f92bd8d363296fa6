package generators

import (
	"fmt"
	"math"
	"math/rand/v2"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// IntegerWidths are the byte widths supported for integer arguments.
var IntegerWidths = []int{1, 2, 4, 8}

// FloatWidths are the byte widths supported for float arguments.
var FloatWidths = []int{4, 8}

// IntegerGenerator produces signed integers that fit a fixed byte width.
type IntegerGenerator struct {
	*Generator[int64]
	width int
}

// NewInteger validates that every seed value fits in width bytes.
func NewInteger(width int, seed Seed[int64], src rand.Source) (*IntegerGenerator, error) {
	op := fmt.Sprintf("seed.integer.%d", width)
	if !validWidth(width, IntegerWidths) {
		return nil, generrors.NewConfigError(op, fmt.Errorf("unsupported width %d", width))
	}
	lo, hi := signedRange(width)
	for _, v := range append(append([]int64{}, seed.Values...), seed.InvalidValues...) {
		if v < lo || v > hi {
			return nil, generrors.NewConfigError(op, fmt.Errorf("value %d outside [%d,%d]", v, lo, hi))
		}
	}
	g, err := newGenerator(op, seed, src)
	if err != nil {
		return nil, err
	}
	return &IntegerGenerator{Generator: g, width: width}, nil
}

// Width is the encoded size in bytes.
func (g *IntegerGenerator) Width() int { return g.width }

// UnsignedGenerator produces unsigned integers that fit a fixed byte width.
type UnsignedGenerator struct {
	*Generator[uint64]
	width int
}

// NewUnsigned validates that every seed value fits in width bytes.
func NewUnsigned(width int, seed Seed[uint64], src rand.Source) (*UnsignedGenerator, error) {
	op := fmt.Sprintf("seed.unsigned.%d", width)
	if !validWidth(width, IntegerWidths) {
		return nil, generrors.NewConfigError(op, fmt.Errorf("unsupported width %d", width))
	}
	hi := unsignedMax(width)
	for _, v := range append(append([]uint64{}, seed.Values...), seed.InvalidValues...) {
		if v > hi {
			return nil, generrors.NewConfigError(op, fmt.Errorf("value %d exceeds %d", v, hi))
		}
	}
	g, err := newGenerator(op, seed, src)
	if err != nil {
		return nil, err
	}
	return &UnsignedGenerator{Generator: g, width: width}, nil
}

func (g *UnsignedGenerator) Width() int { return g.width }

// FloatGenerator produces IEEE floats for a 4 or 8 byte width. Values for
// width 4 must be representable as float32 (infinities and NaN allowed).
type FloatGenerator struct {
	*Generator[float64]
	width int
}

func NewFloat(width int, seed Seed[float64], src rand.Source) (*FloatGenerator, error) {
	op := fmt.Sprintf("seed.float.%d", width)
	if !validWidth(width, FloatWidths) {
		return nil, generrors.NewConfigError(op, fmt.Errorf("unsupported width %d", width))
	}
	if width == 4 {
		for _, v := range append(append([]float64{}, seed.Values...), seed.InvalidValues...) {
			if !math.IsInf(v, 0) && !math.IsNaN(v) && math.Abs(v) > math.MaxFloat32 {
				return nil, generrors.NewConfigError(op, fmt.Errorf("value %g overflows float32", v))
			}
		}
	}
	g, err := newGenerator(op, seed, src)
	if err != nil {
		return nil, err
	}
	return &FloatGenerator{Generator: g, width: width}, nil
}

func (g *FloatGenerator) Width() int { return g.width }

// SignedRange returns the inclusive range of a signed integer of width bytes.
func SignedRange(width int) (int64, int64) { return signedRange(width) }

// UnsignedMax returns the largest unsigned integer of width bytes.
func UnsignedMax(width int) uint64 { return unsignedMax(width) }

func signedRange(width int) (int64, int64) {
	if width >= 8 {
		return math.MinInt64, math.MaxInt64
	}
	bitsN := uint(width * 8)
	return -(int64(1) << (bitsN - 1)), int64(1)<<(bitsN-1) - 1
}

func unsignedMax(width int) uint64 {
	if width >= 8 {
		return math.MaxUint64
	}
	return uint64(1)<<uint(width*8) - 1
}

func validWidth(w int, allowed []int) bool {
	for _, a := range allowed {
		if a == w {
			return true
		}
	}
	return false
}
