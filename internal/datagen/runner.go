package datagen

// EVR data generation run
// -----------------------
// Drives one generation run end to end:
//   * loads dictionary, mission and run configuration
//   * seeds an EVR body generator, a delta SCLK and the CCSDS header
//     generators for EVR and fill packets
//   * fills evr_data.bin until the desired EVR count or byte size is reached,
//     repeating for each requested file set (".1", ".2", ... suffixes when
//     more than one)
//   * optionally writes the truth file next to each data file
//   * writes the statistics report as JSON and optionally into a bbolt store
// A dictionary gap skips one emission; any other error aborts the run. An
// exhausted SCLK ends the run early without error.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/alxayo/go-evrgen/internal/config"
	"github.com/alxayo/go-evrgen/internal/dictionary"
	generrors "github.com/alxayo/go-evrgen/internal/errors"
	"github.com/alxayo/go-evrgen/internal/evr"
	"github.com/alxayo/go-evrgen/internal/logger"
	"github.com/alxayo/go-evrgen/internal/packet"
	"github.com/alxayo/go-evrgen/internal/stats"
	"github.com/alxayo/go-evrgen/internal/truth"
)

// Output file names inside Config.OutputDir.
const (
	DataFile  = "evr_data.bin"
	TruthFile = "evr_truth.txt"
	StatsFile = "evr_stats.json"
)

// Config holds the inputs of one run.
type Config struct {
	DictionaryPath string
	MissionPath    string
	RunPath        string
	OutputDir      string
	WriteTruth     bool
	// DesiredCount, DesiredBytes and RandomSeed override the run file when
	// set.
	DesiredCount int
	DesiredBytes int64
	RandomSeed   *uint64
	// StatsDB, when set, is a bbolt file the report is saved into.
	StatsDB string
	// RunID defaults to a random UUID.
	RunID string
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
}

func (c *Config) validate() error {
	if c.DictionaryPath == "" || c.MissionPath == "" || c.RunPath == "" {
		return generrors.NewConfigError("datagen.config", errors.New("dictionary, mission and run paths are required"))
	}
	if c.DesiredCount < 0 {
		return generrors.NewConfigError("datagen.config", fmt.Errorf("negative count %d", c.DesiredCount))
	}
	if c.DesiredBytes < 0 {
		return generrors.NewConfigError("datagen.config", fmt.Errorf("negative byte size %d", c.DesiredBytes))
	}
	return nil
}

// Runner executes generation runs.
type Runner struct {
	cfg Config
	log *slog.Logger
	// now is the progress clock.
	now func() time.Time
}

// New validates cfg and returns a runner.
func New(cfg Config) (*Runner, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.WithRun(logger.WithComponent(logger.Logger(), "datagen"), cfg.RunID)
	return &Runner{cfg: cfg, log: log, now: time.Now}, nil
}

// RunID identifies the run in logs, the report and the store.
func (r *Runner) RunID() string { return r.cfg.RunID }

// FileNames returns the data and truth file names of file set n (1-based)
// in a run of total sets. A single set keeps the bare names.
func FileNames(n, total int) (data, truthFile string) {
	if total == 1 {
		return DataFile, TruthFile
	}
	suffix := "." + strconv.Itoa(n)
	return DataFile + suffix, TruthFile + suffix
}

// pipeline holds the generators shared by every file set of a run.
type pipeline struct {
	gen   *evr.BodyGenerator
	data  *packet.HeaderGenerator
	fill  *filler
	clock *packet.SclkGenerator
	stats *stats.Statistics
	prog  *progress
	// per file set limits; zero disables one
	count int
	bytes int64
}

// Run performs the generation. It stops between emissions when ctx is done
// and returns ctx.Err(); files written so far are flushed and closed.
func (r *Runner) Run(ctx context.Context) (rep stats.Report, err error) {
	dict, err := dictionary.Load(r.cfg.DictionaryPath)
	if err != nil {
		return rep, err
	}
	mission, run, err := config.Load(r.cfg.MissionPath, r.cfg.RunPath)
	if err != nil {
		return rep, err
	}
	if r.cfg.DesiredCount > 0 {
		run.DesiredCount = r.cfg.DesiredCount
	}
	if r.cfg.DesiredBytes > 0 {
		run.DesiredBytes = r.cfg.DesiredBytes
	}
	if r.cfg.RandomSeed != nil {
		run.RandomSeed = *r.cfg.RandomSeed
	}
	if err := run.CheckLimits(); err != nil {
		return rep, err
	}
	if err := checkEmittable(dict, mission.Levels); err != nil {
		return rep, err
	}
	seed, err := config.SeedMaker{Dictionary: dict, Mission: mission, Run: run}.MakeSeed()
	if err != nil {
		return rep, err
	}

	clock := packet.NewSclkGenerator(
		packet.Sclk{Coarse: run.Sclk.StartCoarse, Fine: run.Sclk.StartFine},
		packet.Sclk{Coarse: run.Sclk.DeltaCoarse, Fine: run.Sclk.DeltaFine})
	hdr, err := packet.NewHeaderGenerator(mission.APID, clock)
	if err != nil {
		return rep, err
	}
	var fill *filler
	if run.FillPercent > 0 {
		fhdr, err := packet.NewHeaderGenerator(mission.FillPacketAPID(), clock)
		if err != nil {
			return rep, err
		}
		fill = newFiller(fhdr, run.FillPercent, run.RandomSeed)
	}

	st := stats.New(r.cfg.RunID)
	gen := evr.New(evr.WithStatistics(st), evr.WithLogger(r.log))
	if err := gen.SetSeed(seed); err != nil {
		return rep, err
	}
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return rep, generrors.NewSinkError("datagen.mkdir", err)
	}

	files := run.Files()
	p := &pipeline{
		gen: gen, data: hdr, fill: fill, clock: clock, stats: st,
		prog: newProgress(r.log, int64(run.DesiredCount)*int64(files), run.DesiredBytes*int64(files),
			run.Interval(), r.now),
		count: run.DesiredCount,
		bytes: run.DesiredBytes,
	}

	r.log.Info("EVR generation started",
		"definitions", len(dict.Definitions), "desired_count", run.DesiredCount,
		"desired_bytes", run.DesiredBytes, "files", files, "apid", hdr.APID(),
		"fill_percent", run.FillPercent, "traversal", run.Traversal.String(),
		"random_seed", run.RandomSeed)

	for n := 1; n <= files; n++ {
		if files > 1 {
			r.log.Info("starting file set", "file_set", n, "of", files)
		}
		if err := r.writeFileSet(ctx, p, n, files); err != nil {
			return rep, err
		}
		if clock.Exhausted() {
			r.log.Warn("SCLK exhausted; ending run early", "file_set", n, "of", files)
			break
		}
	}

	rep = st.Report()
	if err := r.writeReport(rep); err != nil {
		return rep, err
	}
	r.logCoverage(rep)
	r.log.Info("EVR generation complete",
		"packets", p.prog.evrs+p.prog.fills, "bytes", p.prog.bytes, "valid_evrs", rep.ValidEVRs,
		"invalid_evrs", rep.InvalidEVRs, "fill_packets", rep.FillPackets, "skipped", rep.Skipped)
	return rep, nil
}

// writeFileSet opens the data and truth files of set n, fills them and
// closes them.
func (r *Runner) writeFileSet(ctx context.Context, p *pipeline, n, total int) (err error) {
	dataName, truthName := FileNames(n, total)
	var sink truth.Sink = truth.Nop{}
	if r.cfg.WriteTruth {
		fs, ferr := truth.Create(filepath.Join(r.cfg.OutputDir, truthName), r.log)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := fs.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		sink = fs
	}
	p.gen.SetTruth(sink)
	defer p.gen.SetTruth(nil)

	out, err := packet.Create(filepath.Join(r.cfg.OutputDir, dataName), r.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = generrors.NewSinkError("datagen.close", cerr)
		}
	}()

	if err := r.emit(ctx, p, out, sink); err != nil {
		return err
	}
	packets, bytes := out.Counts()
	r.log.Info("file set complete", "file", dataName, "packets", packets, "bytes", bytes)
	return nil
}

// emit writes packets into out until the file set's EVR count or byte size
// is reached or the clock runs out.
func (r *Runner) emit(ctx context.Context, p *pipeline, out *packet.FileWriter, sink truth.Sink) error {
	for emitted := 0; ; {
		if err := ctx.Err(); err != nil {
			r.log.Warn("EVR generation cancelled", "emitted", emitted, "err", err)
			return err
		}
		if p.count > 0 && emitted >= p.count {
			return nil
		}
		if _, written := out.Counts(); p.bytes > 0 && int64(written) >= p.bytes {
			return nil
		}
		if p.clock.Exhausted() {
			return nil
		}

		if p.fill != nil {
			pkt, due, err := p.fill.next(p.stats)
			if err != nil {
				return fmt.Errorf("fill after %d: %w", emitted, err)
			}
			if due {
				if err := out.Write(pkt.Bytes); err != nil {
					return err
				}
				if err := sink.WriteLine(fillTruthLine(pkt)); err != nil {
					return generrors.NewSinkError("truth.fill", err)
				}
				p.stats.IncrementFill(len(pkt.Bytes))
				p.prog.fill(len(pkt.Bytes))
				continue
			}
		}

		b, err := p.gen.Get()
		if err != nil {
			if !generrors.IsFatal(err) {
				continue
			}
			return fmt.Errorf("emit %d: %w", emitted, err)
		}
		pkt, err := p.data.Wrap(b.Bytes)
		if err != nil {
			return fmt.Errorf("emit %d: %w", emitted, err)
		}
		if err := out.Write(pkt.Bytes); err != nil {
			return err
		}
		p.prog.evr(len(pkt.Bytes))
		emitted++
	}
}

func (r *Runner) writeReport(rep stats.Report) error {
	buf, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return generrors.NewSinkError("datagen.report", err)
	}
	if err := os.WriteFile(filepath.Join(r.cfg.OutputDir, StatsFile), buf, 0o644); err != nil {
		return generrors.NewSinkError("datagen.report", err)
	}
	if r.cfg.StatsDB == "" {
		return nil
	}
	store, err := stats.OpenBoltStore(r.cfg.StatsDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(rep)
}

// logCoverage reports trackers whose value sets were not fully exercised.
// Incomplete coverage is not an error; short runs commonly leave gaps.
func (r *Runner) logCoverage(rep stats.Report) {
	for _, c := range rep.Incomplete() {
		r.log.Warn("value set not fully exercised", "tracker", string(c.Type), "used", c.Used, "size", c.Size)
	}
}

// checkEmittable fails when no definition has a configured level, since
// every emission would then be skipped.
func checkEmittable(d *dictionary.Dictionary, levels dictionary.Levels) error {
	if len(d.Definitions) == 0 {
		return generrors.NewConfigError("datagen.dictionary", errors.New("dictionary has no EVR definitions"))
	}
	for _, def := range d.Definitions {
		if _, ok := levels.Lookup(def.Level); ok {
			return nil
		}
	}
	return generrors.NewConfigError("datagen.dictionary", errors.New("no EVR definition has a configured level"))
}
