// cmd/jobnorm/commands.go
package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/connector"
	"github.com/David-Botos/jobnorm/pkg/loader"
	"github.com/David-Botos/jobnorm/pkg/pipeline"
	"github.com/David-Botos/jobnorm/pkg/reference"
)

func (a *app) runner() (*pipeline.Runner, error) {
	reg, err := reference.LoadDir(a.cfg.ReferenceDir, a.logger)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(reg, pipeline.Options{
		InputDir:  a.cfg.InputDir,
		WorkDir:   a.cfg.WorkDir,
		OutputDir: a.cfg.OutputDir,
		AuditDir:  a.cfg.AuditDir,
		BatchSize: a.cfg.BatchSize,
	}, a.logger)
}

func newRunCommand(a *app) *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run extract, canonicalize and project in order",
		RunE: func(c *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			if err := r.Run(c.Context()); err != nil {
				return err
			}
			if !load {
				return nil
			}
			return a.load(c, r.Metrics().RunID)
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "load the entity tables into the configured sink afterwards")
	return cmd
}

func newStageCommand(a *app, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(c *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			switch name {
			case "extract":
				err = r.Extract(c.Context())
			case "canonicalize":
				err = r.Canonicalize(c.Context())
			case "project":
				_, err = r.Project(c.Context())
			}
			if err != nil {
				return err
			}
			return r.Finish()
		},
	}
}

func newCombineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Concatenate the canonical files into one CSV",
		RunE: func(c *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			path, err := r.Combine(c.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), path)
			return nil
		},
	}
}

func newLoadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Truncate and reload the entity tables into the configured sink",
		RunE: func(c *cobra.Command, args []string) error {
			return a.load(c, "")
		},
	}
}

func (a *app) load(c *cobra.Command, runID string) error {
	conn, err := connector.NewConnectorFactory(a.cfg, a.logger).CreateSinkConnector(c.Context())
	if errors.Is(err, connector.ErrNoSink) {
		return fmt.Errorf("%w: set SINK_DRIVER to postgres or sqlite", err)
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	opts := loader.DefaultOptions()
	opts.BatchSize = a.cfg.BatchSize
	opts.RunID = runID
	l, err := loader.New(conn, a.cfg.OutputDir, opts, a.logger)
	if err != nil {
		return err
	}
	summary, err := l.Load(c.Context())
	if summary != nil {
		summary.Log(a.logger)
		if _, werr := summary.WriteSummary(a.cfg.AuditDir); werr != nil {
			a.logger.Warn("Failed to write load summary", zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	v, err := loader.NewVerifier(conn, a.cfg.OutputDir, a.logger)
	if err != nil {
		return err
	}
	reports, err := v.VerifyAll(c.Context())
	if err != nil {
		return err
	}
	var failed []string
	for _, r := range reports {
		if !r.Verified() {
			failed = append(failed, r.Table)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("verification failed for %v", failed)
	}
	return nil
}

func newCheckReferencesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-references",
		Short: "Load the reference tables and report their coverage",
		RunE: func(c *cobra.Command, args []string) error {
			reg, err := reference.LoadDir(a.cfg.ReferenceDir, a.logger)
			if err != nil {
				return err
			}
			printCoverage(c.OutOrStdout(), reg.Check())
			return nil
		},
	}
}

func printCoverage(w io.Writer, cov reference.Coverage) {
	fmt.Fprintf(w, "cities:           %d (%d aliases)\n", cov.Cities, cov.CityAliases)
	fmt.Fprintf(w, "countries:        %d (%d with ISO code)\n", cov.Countries, cov.CountriesWithISO)
	fmt.Fprintf(w, "skills:           %d (%d categories)\n", cov.Skills, cov.SkillCategories)
	fmt.Fprintf(w, "currencies:       %d\n", cov.Currencies)
	fmt.Fprintf(w, "skill levels:     %d\n", cov.SkillLevels)

	names := make([]string, 0, len(cov.KeywordTables))
	for name := range cov.KeywordTables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%-17s %d\n", name+":", cov.KeywordTables[name])
	}

	if len(cov.Warnings) == 0 {
		fmt.Fprintln(w, "no warnings")
		return
	}
	fmt.Fprintf(w, "%d warnings:\n", len(cov.Warnings))
	for _, warning := range cov.Warnings {
		fmt.Fprintln(w, "  -", warning)
	}
}
