// suitecompare compares test-suite metrics between manually written and
// IA-generated suites.
//
// Usage:
//
//	suitecompare run [--config suitecompare.yaml] [--out results]
//	suitecompare consolidate | normality | variance | compare | describe
//	suitecompare report | plot | verify | config
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"suitecompare/adapters/cache"
	"suitecompare/adapters/excel"
	"suitecompare/app"
	"suitecompare/internal/config"
	"suitecompare/internal/logging"
	"suitecompare/internal/reporting"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cliOptions holds the persistent flags shared by every subcommand
type cliOptions struct {
	configPath string
	outDir     string
	strict     bool
	quiet      bool
	noColor    bool
}

// loadConfig reads the configuration and applies flag overrides
func (o *cliOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.outDir != "" {
		cfg.OutputDir = o.outDir
	}
	if o.strict {
		cfg.MissingSources = config.Strict
	}
	return cfg, nil
}

// setup loads configuration, initialises logging and builds the pipeline
func (o *cliOptions) setup(cmd *cobra.Command) (*app.PipelineService, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	level := logging.ParseLevel(cfg.LogLevel)
	if o.quiet && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	logging.Init(level, cfg.LogFormat, cmd.ErrOrStderr())
	return app.NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), version), nil
}

func (o *cliOptions) console(w io.Writer) *reporting.Console {
	return reporting.NewConsole(w, !o.noColor && !color.NoColor)
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:   "suitecompare",
		Short: "Compare coverage, mutation and time metrics of Manual and IA test suites",
		Long: `suitecompare consolidates per-test-case metric files, aggregates them per test,
and compares the Manual and IA groups with normality, variance-homogeneity and
location tests at raw and aggregated granularity.

Each stage has its own subcommand; "run" executes all of them and verifies the
written workbooks against a fresh computation.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file (default ./suitecompare.yaml)")
	flags.StringVar(&opts.outDir, "out", "", "Output directory, overrides output_dir")
	flags.BoolVar(&opts.strict, "strict", false, "Fail when a configured source is missing")
	flags.BoolVar(&opts.quiet, "quiet", false, "Only log warnings and errors")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored console output")

	rootCmd.AddCommand(
		newConsolidateCmd(opts),
		newStageCmd(opts, app.StageNormality, "Shapiro-Wilk normality per group and metric", (*reporting.Console).Normality),
		newStageCmd(opts, app.StageVariance, "Levene variance homogeneity per metric", (*reporting.Console).Variance),
		newStageCmd(opts, app.StageLocation, "Location tests, effect sizes and concordance", (*reporting.Console).Location),
		newStageCmd(opts, app.StageDescriptives, "Descriptive statistics per group and category", (*reporting.Console).Descriptives),
		newStageCmd(opts, app.StageReport, "Thesis tables and markdown/HTML summary", nil),
		newStageCmd(opts, app.StagePlot, "Box-plot grids per granularity", nil),
		newVerifyCmd(opts),
		newRunCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}
