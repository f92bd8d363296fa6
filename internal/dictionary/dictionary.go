package dictionary

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	generrors "github.com/alxayo/go-evrgen/internal/errors"
)

// Dictionary is an ordered set of EVR definitions plus the enumeration
// tables they reference. It is read, never mutated, by the generator.
type Dictionary struct {
	Definitions []*Definition         `yaml:"evrs"`
	Enums       map[string]*EnumTable `yaml:"enums,omitempty"`
}

// Load reads a YAML dictionary file.
func Load(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, generrors.NewConfigError("dictionary.open", err)
	}
	defer f.Close()
	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a YAML dictionary and fills derived fields (argument
// indices, enum table names). It rejects duplicate EVR IDs.
func Parse(r io.Reader) (*Dictionary, error) {
	var d Dictionary
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, generrors.NewConfigError("dictionary.decode", err)
	}
	for name, tbl := range d.Enums {
		if tbl == nil {
			return nil, generrors.NewConfigError("dictionary.enum", fmt.Errorf("enum table %q has no values", name))
		}
		tbl.Name = name
	}
	for _, def := range d.Definitions {
		for i := range def.Args {
			def.Args[i].Index = i
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the dictionary invariant the generator relies on: IDs are
// unique within the definition set.
func (d *Dictionary) Validate() error {
	seen := make(map[uint32]string, len(d.Definitions))
	for _, def := range d.Definitions {
		if def == nil {
			return generrors.NewConfigError("dictionary.validate", fmt.Errorf("nil definition"))
		}
		if prev, dup := seen[def.ID]; dup {
			return generrors.NewConfigError("dictionary.validate", fmt.Errorf("duplicate EVR id %d (%s, %s)", def.ID, prev, def.Name))
		}
		seen[def.ID] = def.Name
	}
	return nil
}

// Enum returns the named enumeration table.
func (d *Dictionary) Enum(name string) (*EnumTable, bool) {
	t, ok := d.Enums[name]
	return t, ok
}

// Ordinals returns the table's ordinals in ascending order.
func (t *EnumTable) Ordinals() []int64 {
	out := make([]int64, 0, len(t.Values))
	for k := range t.Values {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IDs returns the set of defined EVR IDs.
func (d *Dictionary) IDs() map[uint32]struct{} {
	ids := make(map[uint32]struct{}, len(d.Definitions))
	for _, def := range d.Definitions {
		ids[def.ID] = struct{}{}
	}
	return ids
}
