// cmd/jobnorm/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/jobnorm/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jobnorm",
		Short: "Canonicalize job-posting records and project them into entity tables",
		Long: `
Reads denormalized job-posting CSV files, fills missing fields from the free-text
description, resolves every value against closed reference vocabularies and
projects the result into companies, locations, roles, skills and job postings
linked by integer surrogate keys.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(c *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (overrides $"+config.ConfigFileEnv+")")

	root.AddCommand(
		newRunCommand(a),
		newStageCommand(a, "extract", "Fill unknown fields from the job description"),
		newStageCommand(a, "canonicalize", "Resolve values against the reference vocabularies"),
		newStageCommand(a, "project", "Project canonical records into entity tables"),
		newCombineCommand(a),
		newLoadCommand(a),
		newCheckReferencesCommand(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("Configuration warning", zap.String("warning", w))
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// newLogger builds a production JSON logger or a development console logger
func newLogger(level, format string) (*zap.Logger, error) {
	var zcfg zap.Config
	if strings.EqualFold(format, "console") {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
