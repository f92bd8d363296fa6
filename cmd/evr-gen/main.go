package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alxayo/go-evrgen/internal/datagen"
	"github.com/alxayo/go-evrgen/internal/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "evr-gen",
		Short:        "Generate EVR telemetry packets and their truth data",
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func newGenerateCommand() *cobra.Command {
	cfg := &cliConfig{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate EVR packets from a dictionary, mission and run configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validate(cmd); err != nil {
				return err
			}
			return generate(cmd.Context(), cfg)
		},
	}
	cfg.bind(cmd)
	return cmd
}

func generate(parent context.Context, cfg *cliConfig) error {
	logger.Init()
	level := ""
	if cfg.logLevelSet {
		level = cfg.logLevel
	}
	if err := logger.Configure(level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.WithComponent(logger.Logger(), "cli")

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dc := datagen.Config{
		DictionaryPath: cfg.dictionary,
		MissionPath:    cfg.mission,
		RunPath:        cfg.run,
		OutputDir:      cfg.outputDir,
		WriteTruth:     cfg.truth,
		DesiredCount:   cfg.count,
		DesiredBytes:   cfg.bytes,
		StatsDB:        cfg.statsDB,
	}
	if cfg.seedSet {
		dc.RandomSeed = &cfg.seed
	}
	runner, err := datagen.New(dc)
	if err != nil {
		return err
	}
	log.Info("starting generation", "run_id", runner.RunID(), "version", version)
	rep, err := runner.Run(ctx)
	if err != nil {
		log.Error("generation failed", "run_id", runner.RunID(), "error", err)
		return err
	}
	return rep.WriteText(os.Stdout)
}
