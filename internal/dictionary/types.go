// Package dictionary holds the read-only EVR dictionary model consumed by the
// body generator: definitions, argument definitions, enumeration tables and
// EVR levels.
package dictionary

import (
	"fmt"
	"strings"
)

// ArgType is the declared type of an EVR argument.
type ArgType uint8

const (
	ArgUnknown ArgType = iota
	ArgU8
	ArgU16
	ArgU32
	ArgU64
	ArgI8
	ArgI16
	ArgI32
	ArgI64
	ArgF32
	ArgF64
	ArgVarString
	ArgEnum
	ArgOpcode
	ArgSeqID
)

var argTypeNames = map[ArgType]string{
	ArgU8:        "U8",
	ArgU16:       "U16",
	ArgU32:       "U32",
	ArgU64:       "U64",
	ArgI8:        "I8",
	ArgI16:       "I16",
	ArgI32:       "I32",
	ArgI64:       "I64",
	ArgF32:       "F32",
	ArgF64:       "F64",
	ArgVarString: "VAR_STRING",
	ArgEnum:      "ENUM",
	ArgOpcode:    "OPCODE",
	ArgSeqID:     "SEQID",
}

func (t ArgType) String() string {
	if n, ok := argTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("ArgType(%d)", uint8(t))
}

// Valid reports whether t is one of the encodable argument types.
func (t ArgType) Valid() bool {
	_, ok := argTypeNames[t]
	return ok
}

// ParseArgType maps a dictionary type name (case-insensitive) to an ArgType.
func ParseArgType(s string) (ArgType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range argTypeNames {
		if n == want {
			return t, nil
		}
	}
	return ArgUnknown, fmt.Errorf("unknown argument type %q", s)
}

// UnmarshalText lets ArgType be decoded directly from YAML scalars.
func (t *ArgType) UnmarshalText(b []byte) error {
	v, err := ParseArgType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (t ArgType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// ArgumentDefinition describes one EVR argument. Length is meaningful only
// for OPCODE and SEQID arguments (2 or 4 bytes). EnumTable names the
// enumeration for ENUM arguments.
type ArgumentDefinition struct {
	Index     int     `yaml:"-"`
	Name      string  `yaml:"name"`
	Type      ArgType `yaml:"type"`
	Length    int     `yaml:"length,omitempty"`
	EnumTable string  `yaml:"enum,omitempty"`
}

// Definition is a single EVR dictionary entry.
type Definition struct {
	ID     uint32               `yaml:"id"`
	Name   string               `yaml:"name"`
	Level  string               `yaml:"level"`
	Format string               `yaml:"format,omitempty"`
	Args   []ArgumentDefinition `yaml:"args,omitempty"`
}

// NArgs returns the declared argument count.
func (d *Definition) NArgs() int { return len(d.Args) }

// Factory creates an empty, mutable definition. The body generator uses it to
// synthesize placeholder definitions for invalid event IDs.
type Factory func() *Definition

// NewDefinition is the default Factory.
func NewDefinition() *Definition { return &Definition{} }

// EnumTable is a named enumeration: ordinal -> symbolic value.
type EnumTable struct {
	Name   string           `yaml:"-"`
	Values map[int64]string `yaml:"values"`
}

// Level is a configured EVR level. Fatal levels carry an address stack in the
// encoded body.
type Level struct {
	Name  string `yaml:"name"`
	Fatal bool   `yaml:"fatal"`
}

// Levels is an ordered set of configured levels.
type Levels []Level

// Lookup finds a level by name, ignoring case.
func (ls Levels) Lookup(name string) (Level, bool) {
	for _, l := range ls {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Level{}, false
}
