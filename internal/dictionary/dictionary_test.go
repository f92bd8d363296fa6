package dictionary

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

const sampleDictionary = `
evrs:
  - id: 42
    name: FSW_HEARTBEAT
    level: WARNING_LO
    format: "count=%u"
    args:
      - {name: count, type: U32}
  - id: 100
    name: FSW_MODE
    level: fatal
    args:
      - {name: mode, type: enum, enum: ModeTable}
      - {name: op, type: OPCODE, length: 2}
  - id: 7
    name: FSW_NOARGS
    level: ACTIVITY_LO
enums:
  ModeTable:
    values: {2: SAFE, 0: OFF, 1: ON}
`

func TestParseDictionary(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleDictionary))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(d.Definitions) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(d.Definitions))
	}
	mode := d.Definitions[1]
	want := []ArgumentDefinition{
		{Index: 0, Name: "mode", Type: ArgEnum, EnumTable: "ModeTable"},
		{Index: 1, Name: "op", Type: ArgOpcode, Length: 2},
	}
	if diff := cmp.Diff(want, mode.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if d.Definitions[2].NArgs() != 0 {
		t.Fatalf("expected no args")
	}
	tbl, ok := d.Enum("ModeTable")
	if !ok || tbl.Name != "ModeTable" {
		t.Fatalf("enum table missing: %+v", tbl)
	}
	if diff := cmp.Diff([]int64{0, 1, 2}, tbl.Ordinals()); diff != "" {
		t.Fatalf("ordinals (-want +got):\n%s", diff)
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	doc := `
evrs:
  - {id: 1, name: A, level: X}
  - {id: 1, name: B, level: X}
`
	_, err := Parse(strings.NewReader(doc))
	if !generrors.IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestParseRejectsUnknownArgType(t *testing.T) {
	doc := `
evrs:
  - id: 1
    name: A
    level: X
    args: [{name: a, type: BITFIELD}]
`
	if _, err := Parse(strings.NewReader(doc)); err == nil {
		t.Fatalf("expected error for unknown argument type")
	}
}

func TestArgTypeNames(t *testing.T) {
	for _, name := range []string{"U8", "u16", "U32", "U64", "I8", "I16", "I32", "I64", "F32", "F64", "var_string", "ENUM", "OPCODE", "SEQID"} {
		at, err := ParseArgType(name)
		if err != nil {
			t.Fatalf("ParseArgType(%s): %v", name, err)
		}
		if !at.Valid() || !strings.EqualFold(at.String(), name) {
			t.Fatalf("round trip %s -> %s", name, at)
		}
	}
	if ArgUnknown.Valid() {
		t.Fatalf("ArgUnknown must not be valid")
	}
}

func TestLevelLookupIgnoresCase(t *testing.T) {
	levels := Levels{{Name: "WARNING_LO"}, {Name: "FATAL", Fatal: true}}
	l, ok := levels.Lookup("fatal")
	if !ok || !l.Fatal {
		t.Fatalf("lookup fatal: %+v %v", l, ok)
	}
	if _, ok := levels.Lookup("COMMAND"); ok {
		t.Fatalf("unexpected match")
	}
}
