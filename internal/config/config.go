// Package config loads the mission and run configuration files, applies the
// EVRGEN_* environment overlay, and turns the result plus a dictionary into
// an evr.Seed.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/evr"
	"github.com/alxayo/go-evrgen/internal/generators"
)

const (
	// MaxAPID is the largest value the 11-bit CCSDS APID field holds.
	MaxAPID = 0x7FF
	// IdleAPID is the fill packet APID used when the mission names none.
	IdleAPID = 0x7FF
	// DefaultReportInterval spaces time-based progress reports.
	DefaultReportInterval = 5 * time.Minute
)

// Mission describes the spacecraft-side context: which EVR levels exist,
// which are fatal, and the identity stamped on every packet.
type Mission struct {
	Name     string            `yaml:"name"`
	TaskName string            `yaml:"task_name"`
	APID     uint16            `yaml:"apid"`
	Levels   dictionary.Levels `yaml:"levels"`
	// FillAPID stamps fill packets; nil selects IdleAPID.
	FillAPID *uint16 `yaml:"fill_apid"`
}

// FillPacketAPID returns the APID for fill packets.
func (m *Mission) FillPacketAPID() uint16 {
	if m.FillAPID == nil {
		return IdleAPID
	}
	return *m.FillAPID
}

// Run describes one generation run. DesiredCount and DesiredBytes bound
// each data file; whichever is reached first closes it. At least one of
// them must be positive once command-line overrides are applied.
type Run struct {
	DesiredCount     int                  `yaml:"desired_count"`
	DesiredBytes     int64                `yaml:"desired_bytes"`
	DesiredNumFiles  int                  `yaml:"desired_num_files"`
	RandomSeed       uint64               `yaml:"random_seed"`
	Traversal        generators.Traversal `yaml:"traversal"`
	StackDepth       int                  `yaml:"stack_depth"`
	InvalidIDs       []uint32             `yaml:"invalid_ids"`
	InvalidIDPercent float64              `yaml:"invalid_id_percent"`
	FillPercent      float64              `yaml:"fill_percent"`
	ReportInterval   time.Duration        `yaml:"report_interval"`
	Sclk             Sclk                 `yaml:"sclk"`
	Pools            Pools                `yaml:"pools"`
}

// Sclk seeds the delta SCLK stamped into every packet's secondary header.
// A zero delta advances one coarse tick per packet.
type Sclk struct {
	StartCoarse uint32 `yaml:"start_coarse"`
	StartFine   uint16 `yaml:"start_fine"`
	DeltaCoarse uint32 `yaml:"delta_coarse"`
	DeltaFine   uint16 `yaml:"delta_fine"`
}

// Files returns the number of data files to write, at least 1.
func (r *Run) Files() int {
	if r.DesiredNumFiles < 1 {
		return 1
	}
	return r.DesiredNumFiles
}

// Interval returns the time between progress reports.
func (r *Run) Interval() time.Duration {
	if r.ReportInterval <= 0 {
		return DefaultReportInterval
	}
	return r.ReportInterval
}

// CheckLimits fails when nothing would stop the run.
func (r *Run) CheckLimits() error {
	if r.DesiredCount <= 0 && r.DesiredBytes <= 0 {
		return generrors.NewConfigError("config.run", errors.New("desired_count or desired_bytes must be positive"))
	}
	return nil
}

// Pool is the file form of a generators.Seed. A nil Traversal inherits the
// run traversal.
type Pool[T any] struct {
	Values         []T                   `yaml:"values"`
	Invalid        []T                   `yaml:"invalid"`
	InvalidPercent float64               `yaml:"invalid_percent"`
	Traversal      *generators.Traversal `yaml:"traversal"`
}

func (p Pool[T]) seed(def generators.Traversal) generators.Seed[T] {
	t := def
	if p.Traversal != nil {
		t = *p.Traversal
	}
	return generators.Seed[T]{
		Values:         p.Values,
		InvalidValues:  p.Invalid,
		InvalidPercent: p.InvalidPercent,
		Traversal:      t,
	}
}

// Pools overrides the default value pools. Numeric pools are keyed by byte
// width; enum pools by table name.
type Pools struct {
	Integers map[int]Pool[int64]      `yaml:"integers"`
	Unsigned map[int]Pool[uint64]     `yaml:"unsigned"`
	Floats   map[int]Pool[float64]    `yaml:"floats"`
	Strings  *Pool[string]            `yaml:"strings"`
	Enums    map[string]Pool[int64]   `yaml:"enums"`
	Opcodes  *Pool[generators.Opcode] `yaml:"opcodes"`
	SeqIDs   *Pool[uint32]            `yaml:"seqids"`
}

// Load reads the mission and run files, applies the environment overlay
// and validates both.
func Load(missionPath, runPath string) (*Mission, *Run, error) {
	var m Mission
	if err := decodeFile("config.mission", missionPath, &m); err != nil {
		return nil, nil, err
	}
	var r Run
	if err := decodeFile("config.run", runPath, &r); err != nil {
		return nil, nil, err
	}
	if err := ApplyEnv(&m, &r); err != nil {
		return nil, nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}
	return &m, &r, nil
}

// ParseMission decodes and validates a mission document.
func ParseMission(rd io.Reader) (*Mission, error) {
	var m Mission
	if err := decode("config.mission", rd, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseRun decodes and validates a run document.
func ParseRun(rd io.Reader) (*Run, error) {
	var r Run
	if err := decode("config.run", rd, &r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// overlay lists the settings that may come from the environment. Fields are
// pre-filled from the files so unset variables leave them unchanged.
type overlay struct {
	TaskName         string               `env:"EVRGEN_TASK_NAME"`
	DesiredCount     int                  `env:"EVRGEN_DESIRED_COUNT"`
	RandomSeed       uint64               `env:"EVRGEN_RANDOM_SEED"`
	Traversal        generators.Traversal `env:"EVRGEN_TRAVERSAL"`
	InvalidIDPercent float64              `env:"EVRGEN_INVALID_PERCENT"`
	StackDepth       int                  `env:"EVRGEN_STACK_DEPTH"`
	DesiredBytes     int64                `env:"EVRGEN_DESIRED_BYTES"`
	DesiredNumFiles  int                  `env:"EVRGEN_NUM_FILES"`
	FillPercent      float64              `env:"EVRGEN_FILL_PERCENT"`
	ReportInterval   time.Duration        `env:"EVRGEN_REPORT_INTERVAL"`
}

// ApplyEnv overrides m and r with any EVRGEN_* variables that are set.
func ApplyEnv(m *Mission, r *Run) error {
	o := overlay{
		TaskName:         m.TaskName,
		DesiredCount:     r.DesiredCount,
		RandomSeed:       r.RandomSeed,
		Traversal:        r.Traversal,
		InvalidIDPercent: r.InvalidIDPercent,
		StackDepth:       r.StackDepth,
		DesiredBytes:     r.DesiredBytes,
		DesiredNumFiles:  r.DesiredNumFiles,
		FillPercent:      r.FillPercent,
		ReportInterval:   r.ReportInterval,
	}
	if err := env.Parse(&o); err != nil {
		return generrors.NewConfigError("config.env", err)
	}
	m.TaskName = o.TaskName
	r.DesiredCount = o.DesiredCount
	r.RandomSeed = o.RandomSeed
	r.Traversal = o.Traversal
	r.InvalidIDPercent = o.InvalidIDPercent
	r.StackDepth = o.StackDepth
	r.DesiredBytes = o.DesiredBytes
	r.DesiredNumFiles = o.DesiredNumFiles
	r.FillPercent = o.FillPercent
	r.ReportInterval = o.ReportInterval
	return nil
}

func decodeFile(op, path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return generrors.NewConfigError(op, err)
	}
	defer f.Close()
	if err := decode(op, f, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func decode(op string, r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return generrors.NewConfigError(op, err)
	}
	return nil
}

// Validate checks the mission invariants.
func (m *Mission) Validate() error {
	if strings.TrimSpace(m.TaskName) == "" {
		return generrors.NewConfigError("config.mission", errors.New("task_name is required"))
	}
	if m.APID > MaxAPID {
		return generrors.NewConfigError("config.mission", fmt.Errorf("apid %d exceeds %d", m.APID, MaxAPID))
	}
	if fill := m.FillPacketAPID(); fill > MaxAPID {
		return generrors.NewConfigError("config.mission", fmt.Errorf("fill_apid %d exceeds %d", fill, MaxAPID))
	}
	if len(m.Levels) == 0 {
		return generrors.NewConfigError("config.mission", errors.New("at least one EVR level is required"))
	}
	seen := make(map[string]struct{}, len(m.Levels))
	for _, l := range m.Levels {
		key := strings.ToUpper(l.Name)
		if key == "" {
			return generrors.NewConfigError("config.mission", errors.New("level with empty name"))
		}
		if _, dup := seen[key]; dup {
			return generrors.NewConfigError("config.mission", fmt.Errorf("duplicate level %q", l.Name))
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Validate checks the run invariants. Pool contents are checked when the
// generators are built; the run limits once overrides are known, through
// CheckLimits.
func (r *Run) Validate() error {
	if r.DesiredCount < 0 {
		return generrors.NewConfigError("config.run", fmt.Errorf("desired_count must not be negative, got %d", r.DesiredCount))
	}
	if r.DesiredBytes < 0 {
		return generrors.NewConfigError("config.run", fmt.Errorf("desired_bytes must not be negative, got %d", r.DesiredBytes))
	}
	if r.DesiredNumFiles < 0 {
		return generrors.NewConfigError("config.run", fmt.Errorf("desired_num_files must not be negative, got %d", r.DesiredNumFiles))
	}
	if r.StackDepth < 0 || r.StackDepth > evr.MaxStackDepth {
		return generrors.NewConfigError("config.run", fmt.Errorf("stack_depth %d outside [0,%d]", r.StackDepth, evr.MaxStackDepth))
	}
	if r.InvalidIDPercent < 0 || r.InvalidIDPercent > 100 {
		return generrors.NewConfigError("config.run", fmt.Errorf("invalid_id_percent %v outside [0,100]", r.InvalidIDPercent))
	}
	if r.FillPercent < 0 || r.FillPercent >= 100 {
		return generrors.NewConfigError("config.run", fmt.Errorf("fill_percent %v outside [0,100)", r.FillPercent))
	}
	if r.ReportInterval < 0 {
		return generrors.NewConfigError("config.run", fmt.Errorf("negative report_interval %v", r.ReportInterval))
	}
	return nil
}
