// Package evr generates binary EVR packet bodies and the matching truth
// lines. A BodyGenerator is seeded once per run, then repeatedly asked for
// the next body; it owns the run's sequence counters and invalid-ID cursor.
//
// Body layout (all multi-byte fields big-endian):
//
//	task name   6 bytes, space padded
//	event ID    u32
//	overall seq u32
//	category    u32
//	arg count   u8 (+1 when the level is fatal)
//	[fatal]     u8 stack length (4*depth), depth * u32 addresses
//	arguments   per argument: u8 length prefix, payload
//
// Invalid-ID bodies carry only the task name and event ID (10 bytes).
package evr

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/generators"
	"github.com/alxayo/go-evrgen/internal/logger"
	"github.com/alxayo/go-evrgen/internal/stats"
	"github.com/alxayo/go-evrgen/internal/truth"
)

// TaskNameLength is the fixed wire width of the task name field.
const TaskNameLength = 6

// Body is one generated EVR body and the definition it was built from.
type Body struct {
	Definition *dictionary.Definition
	Bytes      []byte
	// Invalid marks a synthesized body for an ID outside the dictionary.
	Invalid bool
	Fatal   bool
}

var (
	errNotSeeded      = errors.New("EVR body generator is not seeded")
	errNoDefinitions  = errors.New("EVR body generator contains no EVR definitions")
	errLevelNotConfig = errors.New("EVR level is not configured")
)

// Random stream identifiers; each sub-generator draws from its own stream
// of the run seed.
const (
	streamSelector uint64 = iota + 1
	streamStrings
	streamOpcodes
	streamSeqIDs
	streamIntegers = 0x100
	streamUnsigned = 0x200
	streamFloats   = 0x300
	streamEnums    = 0x1000
)

// BodyGenerator builds EVR bodies. It is not safe for concurrent use; run
// independent generation runs on independent instances.
type BodyGenerator struct {
	seed   *Seed
	sink   truth.Sink
	stats  *stats.Statistics
	logger *slog.Logger

	rnd      *rand.Rand
	cursor   int
	taskName string
	seq      sequenceCounters
	invalid  invalidPolicy

	ints    map[int]*generators.IntegerGenerator
	uints   map[int]*generators.UnsignedGenerator
	floats  map[int]*generators.FloatGenerator
	enums   map[string]*generators.EnumGenerator
	strs    *generators.StringGenerator
	opcodes *generators.OpcodeGenerator
	seqIDs  *generators.SeqIDGenerator
}

var _ generators.SeededGenerator = (*BodyGenerator)(nil)

// Option customizes a BodyGenerator.
type Option func(*BodyGenerator)

// WithTruth sets the truth sink. Without one, truth output is discarded.
func WithTruth(s truth.Sink) Option { return func(g *BodyGenerator) { g.sink = s } }

// WithStatistics shares a run statistics context with the caller.
func WithStatistics(s *stats.Statistics) Option { return func(g *BodyGenerator) { g.stats = s } }

// WithLogger sets the logger used for dictionary-gap reports.
func WithLogger(l *slog.Logger) Option { return func(g *BodyGenerator) { g.logger = l } }

// New returns an unseeded generator.
func New(opts ...Option) *BodyGenerator {
	g := &BodyGenerator{seq: newSequenceCounters()}
	for _, o := range opts {
		o(g)
	}
	if g.sink == nil {
		g.sink = truth.Nop{}
	}
	if g.stats == nil {
		g.stats = stats.New("")
	}
	if g.logger == nil {
		g.logger = logger.WithComponent(logger.Logger(), "evr_body_generator")
	}
	return g
}

// SetTruth redirects truth output, for example when a run moves on to its
// next file set. A nil sink discards.
func (g *BodyGenerator) SetTruth(s truth.Sink) {
	if s == nil {
		s = truth.Nop{}
	}
	g.sink = s
}

// Statistics returns the run statistics context.
func (g *BodyGenerator) Statistics() *stats.Statistics { return g.stats }

// Seeded reports whether SetSeed has succeeded since the last Reset.
func (g *BodyGenerator) Seeded() bool { return g.seed != nil }

// SetSeed validates data and installs every sub-generator. data must be an
// *evr.Seed. On error the generator is left unseeded.
func (g *BodyGenerator) SetSeed(data generators.SeedData) error {
	g.Reset()
	s, ok := data.(*Seed)
	if !ok || s == nil {
		return generrors.NewConfigError("seed", fmt.Errorf("seed must be *evr.Seed, got %T", data))
	}
	if err := s.validate(); err != nil {
		return generrors.NewConfigError("seed", err)
	}
	if err := g.install(s); err != nil {
		g.Reset()
		return err
	}
	if err := g.checkDefinitions(s); err != nil {
		g.Reset()
		return err
	}
	g.seed = s
	return nil
}

func (g *BodyGenerator) install(s *Seed) error {
	src := func(stream uint64) rand.Source { return rand.NewPCG(s.RandomSeed, stream) }

	for _, w := range generators.IntegerWidths {
		gen, err := generators.NewInteger(w, s.Integers[w], src(streamIntegers+uint64(w)))
		if err != nil {
			return fmt.Errorf("could not initialize %d byte integer generator: %w", w, err)
		}
		g.ints[w] = gen
	}
	for _, w := range generators.IntegerWidths {
		gen, err := generators.NewUnsigned(w, s.Unsigned[w], src(streamUnsigned+uint64(w)))
		if err != nil {
			return fmt.Errorf("could not initialize %d byte unsigned generator: %w", w, err)
		}
		g.uints[w] = gen
	}
	for _, w := range generators.FloatWidths {
		gen, err := generators.NewFloat(w, s.Floats[w], src(streamFloats+uint64(w)))
		if err != nil {
			return fmt.Errorf("could not initialize %d byte float generator: %w", w, err)
		}
		g.floats[w] = gen
	}

	tables := make([]string, 0, len(s.Enums))
	for name := range s.Enums {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for i, name := range tables {
		gen, err := generators.NewEnum(name, s.Enums[name], src(streamEnums+uint64(i)))
		if err != nil {
			return fmt.Errorf("could not initialize enum generator: %w", err)
		}
		g.enums[name] = gen
		g.logger.Debug("enum generator ready", "table", gen.Table(), "ordinals", gen.Len(), "traversal", gen.Traversal().String())
	}

	if s.Strings != nil {
		gen, err := generators.NewString(*s.Strings, src(streamStrings))
		if err != nil {
			return err
		}
		g.strs = gen
	}
	if s.Opcodes != nil {
		gen, err := generators.NewOpcode(*s.Opcodes, src(streamOpcodes))
		if err != nil {
			return err
		}
		g.opcodes = gen
		g.stats.Trackers().Add(stats.TrackerValidOpcode, gen.ValidUsage())
		g.stats.Trackers().Add(stats.TrackerInvalidOpcode, gen.InvalidUsage())
	}
	if s.SeqIDs != nil {
		gen, err := generators.NewSeqID(*s.SeqIDs, src(streamSeqIDs))
		if err != nil {
			return err
		}
		g.seqIDs = gen
		g.stats.Trackers().Add(stats.TrackerValidSeqID, gen.ValidUsage())
		g.stats.Trackers().Add(stats.TrackerInvalidSeqID, gen.InvalidUsage())
	}

	g.rnd = rand.New(src(streamSelector))
	g.taskName = padTaskName(s.TaskName)
	g.invalid = newInvalidPolicy(s.InvalidIDs, s.InvalidIDPercent)
	if len(s.InvalidIDs) > 0 {
		g.stats.Trackers().Add(stats.TrackerInvalidID, g.invalid.tracker)
	}
	return nil
}

// checkDefinitions rejects definitions the encoder could not handle, so a
// codec/dictionary mismatch fails at seed time instead of mid-run.
func (g *BodyGenerator) checkDefinitions(s *Seed) error {
	for _, def := range s.Definitions {
		if def == nil {
			return generrors.NewConfigError("seed.definitions", errors.New("nil EVR definition"))
		}
		if def.NArgs() > 254 {
			return generrors.NewConfigError("seed.definitions", fmt.Errorf("EVR %d declares %d arguments; at most 254 fit the header", def.ID, def.NArgs()))
		}
		for _, arg := range def.Args {
			if err := g.checkArgument(def, arg); err != nil {
				return generrors.NewConfigError("seed.definitions", err)
			}
		}
	}
	return nil
}

func (g *BodyGenerator) checkArgument(def *dictionary.Definition, arg dictionary.ArgumentDefinition) error {
	switch arg.Type {
	case dictionary.ArgU8, dictionary.ArgU16, dictionary.ArgU32, dictionary.ArgU64,
		dictionary.ArgI8, dictionary.ArgI16, dictionary.ArgI32, dictionary.ArgI64,
		dictionary.ArgF32, dictionary.ArgF64:
		return nil
	case dictionary.ArgVarString:
		if g.strs == nil {
			return fmt.Errorf("EVR %d argument %d is VAR_STRING but no string seed is configured", def.ID, arg.Index)
		}
	case dictionary.ArgEnum:
		if _, ok := g.enums[arg.EnumTable]; !ok {
			return fmt.Errorf("EVR %d argument %d references enum table %q with no generator", def.ID, arg.Index, arg.EnumTable)
		}
	case dictionary.ArgOpcode, dictionary.ArgSeqID:
		if arg.Length != 2 && arg.Length != 4 {
			return fmt.Errorf("EVR %d argument %d: %s length %d must be 2 or 4", def.ID, arg.Index, arg.Type, arg.Length)
		}
		if arg.Type == dictionary.ArgOpcode && g.opcodes == nil {
			return fmt.Errorf("EVR %d argument %d is OPCODE but no opcode seed is configured", def.ID, arg.Index)
		}
		if arg.Type == dictionary.ArgSeqID && g.seqIDs == nil {
			return fmt.Errorf("EVR %d argument %d is SEQID but no seqid seed is configured", def.ID, arg.Index)
		}
	default:
		return fmt.Errorf("EVR %d argument %d: unrecognized EVR argument type %s", def.ID, arg.Index, arg.Type)
	}
	return nil
}

// Reset returns the generator to the unseeded state. The truth sink,
// statistics context and logger are kept.
func (g *BodyGenerator) Reset() {
	g.seed = nil
	g.rnd = nil
	g.cursor = 0
	g.taskName = ""
	g.seq.reset()
	g.invalid = invalidPolicy{}
	g.ints = make(map[int]*generators.IntegerGenerator, 4)
	g.uints = make(map[int]*generators.UnsignedGenerator, 4)
	g.floats = make(map[int]*generators.FloatGenerator, 2)
	g.enums = make(map[string]*generators.EnumGenerator)
	g.strs = nil
	g.opcodes = nil
	g.seqIDs = nil
}

func (g *BodyGenerator) ready(op string) error {
	if g.seed == nil {
		return generrors.NewStateError(op, errNotSeeded)
	}
	if len(g.seed.Definitions) == 0 {
		return generrors.NewStateError(op, errNoDefinitions)
	}
	return nil
}

// Next builds the body for the next definition in dictionary order,
// wrapping to the first after the last. The invalid-ID policy is consulted
// first and, when it fires, its body is returned instead.
//
// A definition whose level is not configured yields a DictionaryError; the
// emission is skipped and the run may continue.
func (g *BodyGenerator) Next() (*Body, error) {
	if err := g.ready("select.next"); err != nil {
		return nil, err
	}
	if b, fired, err := g.invalidBody(); fired || err != nil {
		return b, err
	}
	def := g.seed.Definitions[g.cursor]
	g.cursor = (g.cursor + 1) % len(g.seed.Definitions)
	return g.build("select.next", def)
}

// Random builds the body for a uniformly drawn definition.
func (g *BodyGenerator) Random() (*Body, error) {
	if err := g.ready("select.random"); err != nil {
		return nil, err
	}
	if b, fired, err := g.invalidBody(); fired || err != nil {
		return b, err
	}
	def := g.seed.Definitions[g.rnd.IntN(len(g.seed.Definitions))]
	return g.build("select.random", def)
}

// Get dispatches to Next or Random per the seed's traversal.
func (g *BodyGenerator) Get() (*Body, error) {
	if err := g.ready("select.get"); err != nil {
		return nil, err
	}
	if g.seed.Traversal == generators.Random {
		return g.Random()
	}
	return g.Next()
}

func (g *BodyGenerator) build(op string, def *dictionary.Definition) (*Body, error) {
	level, ok := g.seed.Levels.Lookup(def.Level)
	if !ok {
		logger.WithEVR(g.logger, def.ID, def.Name, def.Level).
			Error("found EVR level which is not configured in the mission configuration; skipping EVR")
		g.stats.IncrementSkipped()
		return nil, generrors.NewDictionaryError(op, fmt.Errorf("EVR %d level %q: %w", def.ID, def.Level, errLevelNotConfig))
	}
	b, err := g.encodeBody(def, level.Fatal)
	if err != nil {
		return nil, err
	}
	g.stats.IncrementTotalForID(def.ID)
	g.stats.AddBytes(len(b))
	return &Body{Definition: def, Bytes: b, Fatal: level.Fatal}, nil
}

func padTaskName(name string) string {
	if len(name) >= TaskNameLength {
		return name[:TaskNameLength]
	}
	return fmt.Sprintf("%-6s", name)
}
