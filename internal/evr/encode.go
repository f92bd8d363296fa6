package evr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alxayo/go-evrgen/internal/bufpool"
	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/gdr"
	"github.com/alxayo/go-evrgen/internal/generators"
)

// HeaderLength is the fixed EVR header size.
const HeaderLength = TaskNameLength + 4 + 4 + 4 + 1

// integerWidth maps the fixed-width numeric argument types to the width of
// the generator that serves them.
var integerWidth = map[dictionary.ArgType]int{
	dictionary.ArgU8: 1, dictionary.ArgU16: 2, dictionary.ArgU32: 4, dictionary.ArgU64: 8,
	dictionary.ArgI8: 1, dictionary.ArgI16: 2, dictionary.ArgI32: 4, dictionary.ArgI64: 8,
	dictionary.ArgF32: 4, dictionary.ArgF64: 8,
}

// maxArgumentLength is the largest encoded unit (prefix included) arg can
// produce.
func maxArgumentLength(arg dictionary.ArgumentDefinition) int {
	switch arg.Type {
	case dictionary.ArgVarString:
		return 1 + generators.MaxStringLength
	case dictionary.ArgEnum:
		return 1 + 4
	case dictionary.ArgOpcode, dictionary.ArgSeqID:
		return 1 + 4
	}
	return 1 + integerWidth[arg.Type]
}

// encodeBody builds header, optional stack and argument block for def into
// a pooled scratch buffer and copies out the used prefix. Truth lines are
// written once the body is complete; the sequence counters advance only
// after that succeeds.
func (g *BodyGenerator) encodeBody(def *dictionary.Definition, fatal bool) ([]byte, error) {
	depth := 0
	if fatal {
		depth = g.seed.StackDepth
		if depth == 0 {
			depth = g.rnd.IntN(RandomStackDepthMax) + 1
		}
	}
	size := HeaderLength
	if fatal {
		size += 1 + 4*depth
	}
	for _, arg := range def.Args {
		size += maxArgumentLength(arg)
	}

	scratch := bufpool.Get(size)
	defer bufpool.Put(scratch)
	w := gdr.NewWriter(scratch)

	catSeq, overallSeq := g.seq.peek(def.Level)

	nargs := def.NArgs()
	if fatal {
		nargs++
	}
	w.PaddedString(g.taskName, TaskNameLength)
	w.U32(def.ID)
	w.U32(overallSeq)
	w.U32(catSeq)
	w.U8(uint8(nargs))

	metadata := make([]string, 0, 4)
	if fatal {
		w.U8(uint8(4 * depth))
		stack := make([]byte, 0, depth*11)
		for i := 0; i < depth; i++ {
			addr := g.rnd.Uint32()
			w.U32(addr)
			if i > 0 {
				stack = append(stack, ',')
			}
			stack = fmt.Appendf(stack, "0x%08x", addr)
		}
		metadata = append(metadata, string(stack))
	}
	metadata = append(metadata,
		strconv.FormatUint(uint64(catSeq), 10),
		strconv.FormatUint(uint64(overallSeq), 10),
		trimTaskName(g.taskName),
	)

	argTruth := make([]string, 0, len(def.Args))
	for _, arg := range def.Args {
		t, err := g.encodeArgument(w, def, arg)
		if err != nil {
			return nil, err
		}
		argTruth = append(argTruth, t)
	}
	if err := w.Err(); err != nil {
		return nil, generrors.NewCodecError("encode.body", fmt.Errorf("EVR %d: %w", def.ID, err))
	}

	if err := g.writeTruth(def, metadata, fatal, argTruth); err != nil {
		return nil, err
	}
	g.seq.commit(def.Level)
	return bufpool.CopyOut(scratch, w.Offset()), nil
}

// encodeArgument writes one length-prefixed argument unit and returns its
// truth representation.
func (g *BodyGenerator) encodeArgument(w *gdr.Writer, def *dictionary.Definition, arg dictionary.ArgumentDefinition) (string, error) {
	switch arg.Type {
	case dictionary.ArgU8, dictionary.ArgU16, dictionary.ArgU32, dictionary.ArgU64:
		gen := g.uints[integerWidth[arg.Type]]
		v := gen.Get()
		w.U8(uint8(gen.Width()))
		putUnsigned(w, gen.Width(), v)
		return strconv.FormatUint(v, 10), nil

	case dictionary.ArgI8, dictionary.ArgI16, dictionary.ArgI32, dictionary.ArgI64:
		gen := g.ints[integerWidth[arg.Type]]
		v := gen.Get()
		w.U8(uint8(gen.Width()))
		putUnsigned(w, gen.Width(), uint64(v))
		return strconv.FormatInt(v, 10), nil

	case dictionary.ArgF32, dictionary.ArgF64:
		gen := g.floats[integerWidth[arg.Type]]
		v := gen.Get()
		w.U8(uint8(gen.Width()))
		if gen.Width() == 4 {
			f := float32(v)
			w.F32(f)
			return formatFloat(float64(f)), nil
		}
		w.F64(v)
		return formatFloat(v), nil

	case dictionary.ArgVarString:
		s := g.strs.Get()
		w.U8(uint8(len(s)))
		w.RawString(s)
		return s, nil

	case dictionary.ArgEnum:
		gen, ok := g.enums[arg.EnumTable]
		if !ok {
			return "", generrors.NewCodecError("encode.argument", fmt.Errorf("EVR %d: no generator for enum table %q", def.ID, arg.EnumTable))
		}
		v := int32(gen.Get())
		w.U8(4)
		w.I32(v)
		return strconv.FormatInt(int64(v), 10), nil

	case dictionary.ArgOpcode:
		op := g.opcodes.Get()
		return putShortOrWord(w, arg.Length, op.Number), nil

	case dictionary.ArgSeqID:
		return putShortOrWord(w, arg.Length, g.seqIDs.Get()), nil
	}
	return "", generrors.NewCodecError("encode.argument",
		fmt.Errorf("EVR %d argument %d: unrecognized EVR argument type %s", def.ID, arg.Index, arg.Type))
}

func putUnsigned(w *gdr.Writer, width int, v uint64) {
	switch width {
	case 1:
		w.U8(uint8(v))
	case 2:
		w.U16(uint16(v))
	case 4:
		w.U32(uint32(v))
	default:
		w.U64(v)
	}
}

// putShortOrWord writes a 2-byte field when length is 2 and a 4-byte field
// otherwise.
func putShortOrWord(w *gdr.Writer, length int, v uint32) string {
	if length == 2 {
		w.U8(2)
		w.U16(uint16(v))
		return strconv.FormatUint(uint64(uint16(v)), 10)
	}
	w.U8(4)
	w.U32(v)
	return strconv.FormatUint(uint64(v), 10)
}

// formatFloat renders v the way EVR truth consumers expect decimal values:
// plain notation with at least one fractional digit for magnitudes in
// [1e-3, 1e7), otherwise "d.dddE<exp>". Digits are the shortest that
// round-trip. F32 values are widened first, so the truth shows the exact
// wire value.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	if a := math.Abs(v); a >= 1e-3 && a < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}
