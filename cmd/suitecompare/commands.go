package main

import (
	"fmt"

	"suitecompare/app"
	"suitecompare/domain/stats"
	"suitecompare/internal/dataset"
	"suitecompare/internal/errors"
	"suitecompare/internal/reporting"
	"suitecompare/internal/validation"

	"github.com/spf13/cobra"
)

func newConsolidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "consolidate",
		Short: "Merge the source files into the consolidated dataset cache",
		Long: `Discover every source file of the configured collections, merge their rows
into one dataset and write it to cache_path (.csv or .parquet).

Missing sources fail the command unless missing_sources is "lenient".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			loaded, err := svc.Consolidate(cmd.Context())
			if err != nil {
				return err
			}
			summaries, err := dataset.Aggregate(loaded.Dataset)
			if err != nil {
				return errors.Wrap(err, "aggregation")
			}
			if err := opts.console(cmd.OutOrStdout()).Dataset(loaded.Dataset, len(summaries)); err != nil {
				return err
			}
			for _, path := range loaded.Skipped {
				cmd.Printf("skipped missing source: %s\n", path)
			}
			if cache := svc.Config().CachePath; cache != "" {
				cmd.Printf("dataset cache: %s\n", cache)
			}
			return nil
		},
	}
}

// newStageCmd builds the command of one publishing stage. show renders
// the stage's results to the terminal and may be nil.
func newStageCmd(opts *cliOptions, stage app.Stage, short string, show func(*reporting.Console, *stats.ResultSet) error) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   string(stage),
		Short: short,
		Long: fmt.Sprintf(`%s.

Loads the consolidated dataset cache (or consolidates the sources when it is
absent), runs the comparison and writes this stage's artifacts to the output
directory together with manifest.yaml.`, short),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			a, err := svc.Prepare(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			if _, err := svc.Publish(a, stage); err != nil {
				return err
			}
			if show != nil {
				if err := show(opts.console(cmd.OutOrStdout()), a.Results); err != nil {
					return err
				}
			}
			for _, art := range a.Manifest.Artifacts {
				cmd.Printf("wrote %s\n", art.Path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-read the sources instead of the dataset cache")
	return cmd
}

func newVerifyCmd(opts *cliOptions) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Recompute every p-value and compare it with the written workbooks",
		Long: fmt.Sprintf(`Re-read the normality, variance and location workbooks in the output
directory and compare each recorded p-value with a fresh computation from the
dataset. Differences above %g fail the command.`, validation.DefaultTolerance),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			a, err := svc.Prepare(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			report, err := svc.Verify(cmd.Context(), a)
			if err != nil {
				return err
			}
			return printVerification(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-read the sources instead of the dataset cache")
	return cmd
}

func printVerification(cmd *cobra.Command, report *validation.Report) error {
	for _, m := range report.Mismatches {
		cmd.Printf("MISMATCH %s: recorded %g, recomputed %g\n", m, m.Recorded, m.Recomputed)
	}
	for _, p := range report.Problems {
		cmd.Printf("PROBLEM %s\n", p)
	}
	cmd.Printf("verified %d p-values, max difference %.2e\n", len(report.Checks), report.MaxDifference())
	if !report.OK() {
		return fmt.Errorf("verification failed: %d mismatches, %d problems", len(report.Mismatches), len(report.Problems))
	}
	return nil
}

func newRunCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every stage and verify the results",
		Long: `Consolidate the sources, run the full comparison, write every artifact
(workbooks, thesis tables, charts, summary, manifest) and verify the written
p-values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			res, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := opts.console(cmd.OutOrStdout()).Location(res.Analysis.Results); err != nil {
				return err
			}
			cmd.Printf("run %s: %d artifacts, manifest %s\n",
				res.Analysis.Manifest.RunID, len(res.Analysis.Manifest.Artifacts), res.ManifestPath)
			return printVerification(cmd, res.Verification)
		},
	}
}

func newConfigCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
