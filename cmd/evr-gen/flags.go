package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// version is injected at build time with -ldflags "-X main.version=...". Defaults to dev.
var version = "dev"

// cliConfig holds user supplied flag values prior to translation into
// datagen.Config so main.go can validate and map.
type cliConfig struct {
	dictionary string
	mission    string
	run        string
	outputDir  string
	truth      bool
	count      int
	bytes      int64
	seed       uint64
	seedSet    bool
	statsDB    string
	logLevel   string

	// logLevelSet is true when --log-level was given; otherwise
	// EVRGEN_LOG_LEVEL decides.
	logLevelSet bool
}

func (c *cliConfig) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&c.dictionary, "dictionary", "", "EVR dictionary YAML file")
	fs.StringVar(&c.mission, "mission", "", "Mission configuration YAML file")
	fs.StringVar(&c.run, "run", "", "Run configuration YAML file")
	fs.StringVarP(&c.outputDir, "output-dir", "o", ".", "Directory for evr_data.bin, evr_truth.txt and evr_stats.json")
	fs.BoolVar(&c.truth, "truth", true, "Write the truth file")
	fs.IntVarP(&c.count, "count", "n", 0, "Number of EVRs to generate (overrides the run file)")
	fs.Int64Var(&c.bytes, "bytes", 0, "Bytes per data file to generate (overrides the run file)")
	fs.Uint64Var(&c.seed, "seed", 0, "Random seed (overrides the run file)")
	fs.StringVar(&c.statsDB, "stats-db", "", "bbolt database to record the run statistics in")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug|info|warn|error (default $EVRGEN_LOG_LEVEL or info)")
}

func (c *cliConfig) validate(cmd *cobra.Command) error {
	if c.dictionary == "" || c.mission == "" || c.run == "" {
		return errors.New("--dictionary, --mission and --run are required")
	}
	if c.count < 0 {
		return fmt.Errorf("count must not be negative, got %d", c.count)
	}
	if c.bytes < 0 {
		return fmt.Errorf("bytes must not be negative, got %d", c.bytes)
	}
	switch c.logLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q", c.logLevel)
	}
	c.seedSet = cmd.Flags().Changed("seed")
	c.logLevelSet = cmd.Flags().Changed("log-level")
	return nil
}
