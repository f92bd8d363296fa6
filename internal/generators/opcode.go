package generators

import (
	"math/rand/v2"
)

// Opcode is a mission command opcode substituted into OPCODE arguments.
type Opcode struct {
	Number uint32 `yaml:"number"`
	Stem   string `yaml:"stem,omitempty"`
}

// OpcodeGenerator produces opcodes. Valid and invalid usage are tracked
// separately for coverage reporting. A 2-byte OPCODE argument carries the
// low 16 bits of Number.
type OpcodeGenerator struct {
	*Generator[Opcode]
}

func NewOpcode(seed Seed[Opcode], src rand.Source) (*OpcodeGenerator, error) {
	g, err := newGenerator("seed.opcode", seed, src)
	if err != nil {
		return nil, err
	}
	return &OpcodeGenerator{Generator: g}, nil
}

// SeqIDGenerator produces command sequence IDs for SEQID arguments. A
// 2-byte SEQID argument carries the low 16 bits.
type SeqIDGenerator struct {
	*Generator[uint32]
}

func NewSeqID(seed Seed[uint32], src rand.Source) (*SeqIDGenerator, error) {
	g, err := newGenerator("seed.seqid", seed, src)
	if err != nil {
		return nil, err
	}
	return &SeqIDGenerator{Generator: g}, nil
}
