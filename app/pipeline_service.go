package app

import (
	"context"
	"fmt"
	"log/slog"

	"suitecompare/adapters/chart"
	"suitecompare/domain/core"
	"suitecompare/domain/metrics"
	"suitecompare/domain/run"
	"suitecompare/domain/stats"
	"suitecompare/internal/analysis"
	"suitecompare/internal/config"
	"suitecompare/internal/dataset"
	"suitecompare/internal/errors"
	"suitecompare/internal/logging"
	"suitecompare/internal/reporting"
	"suitecompare/internal/validation"
	"suitecompare/ports"
)

// Stage names one publishable step of the pipeline
type Stage string

const (
	StageNormality    Stage = "normality"
	StageVariance     Stage = "variance"
	StageLocation     Stage = "compare"
	StageDescriptives Stage = "describe"
	StageReport       Stage = "report"
	StagePlot         Stage = "plot"
)

// AllStages lists every stage in the order a full run publishes them
var AllStages = []Stage{StageNormality, StageVariance, StageLocation, StageDescriptives, StagePlot, StageReport}

// LoadedDataset is the consolidated dataset with where it came from
type LoadedDataset struct {
	Dataset   *metrics.Dataset
	FromCache bool
	// CacheSaved is true when consolidation wrote the dataset cache.
	CacheSaved bool
	// Skipped lists sources that were missing under the lenient policy.
	Skipped []string
}

// Analysis is everything one run computed, ready to be published
type Analysis struct {
	Units     analysis.Units
	Results   *stats.ResultSet
	Manifest  *run.Manifest
	Skipped   []string
	FromCache bool
}

// RunResult summarises a complete pipeline run
type RunResult struct {
	Analysis     *Analysis
	Verification *validation.Report
	ManifestPath string
}

// PipelineService wires configuration, consolidation, comparison and
// reporting into the stage operations the CLI exposes.
type PipelineService struct {
	cfg          *config.Config
	reader       ports.SourceReader
	cache        ports.DatasetCache
	codeVersion  string
	chartOptions chart.Options
	logger       *slog.Logger
}

// NewPipelineService creates a pipeline service for a validated configuration
func NewPipelineService(cfg *config.Config, reader ports.SourceReader, cache ports.DatasetCache, codeVersion string) *PipelineService {
	if codeVersion == "" {
		codeVersion = "dev"
	}
	return &PipelineService{
		cfg:          cfg,
		reader:       reader,
		cache:        cache,
		codeVersion:  codeVersion,
		chartOptions: chart.DefaultOptions(),
		logger:       logging.New("pipeline"),
	}
}

// Config returns the configuration the service runs with
func (s *PipelineService) Config() *config.Config { return s.cfg }

// Comparator builds the comparison stage from the configuration
func (s *PipelineService) Comparator() (*analysis.Comparator, error) {
	ms, err := s.cfg.MetricList()
	if err != nil {
		return nil, err
	}
	grans, err := s.cfg.GranularityList()
	if err != nil {
		return nil, err
	}
	primary, err := s.cfg.Primary()
	if err != nil {
		return nil, err
	}
	return analysis.NewComparator(analysis.Options{
		Alpha:         s.cfg.Alpha,
		Metrics:       ms,
		Granularities: grans,
		Primary:       primary,
	}), nil
}

func (s *PipelineService) collections() ([]dataset.Collection, *dataset.GroupResolver, error) {
	cols := make([]dataset.Collection, 0, len(s.cfg.Sources))
	for _, src := range s.cfg.Sources {
		cat, err := metrics.ParseCategory(src.Category)
		if err != nil {
			return nil, nil, errors.ConfigInvalid(err.Error())
		}
		var grp metrics.Group
		if src.Group != "" {
			if grp, err = metrics.ParseGroup(src.Group); err != nil {
				return nil, nil, errors.ConfigInvalid(err.Error())
			}
		}
		cols = append(cols, dataset.Collection{
			Path:     src.Path,
			Pattern:  src.Pattern,
			Category: cat,
			Group:    grp,
			Sheet:    src.Sheet,
		})
	}

	rules := make([]dataset.PrefixRule, 0, len(s.cfg.GroupPrefixes))
	for _, r := range s.cfg.GroupPrefixes {
		grp, err := metrics.ParseGroup(r.Group)
		if err != nil {
			return nil, nil, errors.ConfigInvalid(err.Error())
		}
		rules = append(rules, dataset.PrefixRule{Prefix: r.Prefix, Group: grp})
	}
	var fallback metrics.Group
	if s.cfg.DefaultGroup != "" {
		g, err := metrics.ParseGroup(s.cfg.DefaultGroup)
		if err != nil {
			return nil, nil, errors.ConfigInvalid(err.Error())
		}
		fallback = g
	}
	return cols, dataset.NewGroupResolver(rules, fallback), nil
}

// Consolidate discovers and reads every configured source, then persists
// the dataset to the cache path when one is configured.
func (s *PipelineService) Consolidate(ctx context.Context) (*LoadedDataset, error) {
	cols, resolver, err := s.collections()
	if err != nil {
		return nil, err
	}
	found, err := dataset.Discover(cols, resolver)
	if err != nil {
		return nil, errors.Wrap(err, "consolidation: discovery")
	}
	s.logger.Info("discovered sources", "sources", len(found.Sources), "missing", len(found.Missing))

	ms, err := s.cfg.MetricList()
	if err != nil {
		return nil, err
	}
	policy := dataset.FailOnMissing
	if !s.cfg.IsStrict() {
		policy = dataset.SkipMissing
	}
	ds, report, err := dataset.NewConsolidator(s.reader, ms, policy).Consolidate(ctx, found.Sources, found.Missing...)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, errors.Wrap(core.ErrEmptyDataset, "consolidation")
	}

	loaded := &LoadedDataset{Dataset: ds, Skipped: report.Skipped}
	if s.cfg.CachePath != "" {
		if err := s.cache.Save(ctx, s.cfg.CachePath, ds); err != nil {
			return nil, errors.Wrap(err, "consolidation: cache")
		}
		loaded.CacheSaved = true
		s.logger.Info("saved dataset cache", "path", s.cfg.CachePath, "records", ds.Len())
	}
	return loaded, nil
}

// LoadDataset returns the cached dataset when present, otherwise it
// consolidates from the sources. refresh always re-reads the sources.
func (s *PipelineService) LoadDataset(ctx context.Context, refresh bool) (*LoadedDataset, error) {
	if !refresh && s.cfg.CachePath != "" && s.cache.Exists(s.cfg.CachePath) {
		ds, err := s.cache.Load(ctx, s.cfg.CachePath)
		if err != nil {
			return nil, errors.Wrapf(err, "loading cache %s", s.cfg.CachePath)
		}
		if ds.Len() == 0 {
			return nil, errors.Wrapf(core.ErrEmptyDataset, "cache %s", s.cfg.CachePath)
		}
		s.logger.Info("loaded dataset cache", "path", s.cfg.CachePath, "records", ds.Len())
		return &LoadedDataset{Dataset: ds, FromCache: true}, nil
	}
	return s.Consolidate(ctx)
}

// Prepare loads the dataset, aggregates it and runs the comparison
func (s *PipelineService) Prepare(ctx context.Context, refresh bool) (*Analysis, error) {
	loaded, err := s.LoadDataset(ctx, refresh)
	if err != nil {
		return nil, err
	}
	summaries, err := dataset.Aggregate(loaded.Dataset)
	if err != nil {
		return nil, errors.Wrap(err, "aggregation")
	}
	units := analysis.NewUnits(loaded.Dataset, summaries)

	comparator, err := s.Comparator()
	if err != nil {
		return nil, err
	}
	rs, err := comparator.Compare(ctx, units)
	if err != nil {
		return nil, errors.Wrap(err, "comparison")
	}

	manifest, err := s.newManifest(loaded, len(summaries))
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Units:     units,
		Results:   rs,
		Manifest:  manifest,
		Skipped:   loaded.Skipped,
		FromCache: loaded.FromCache,
	}, nil
}

// newManifest describes the run. The cache is listed as an artifact only
// when this run wrote it.
func (s *PipelineService) newManifest(loaded *LoadedDataset, tests int) (*run.Manifest, error) {
	ds := loaded.Dataset
	data, err := s.cfg.YAML()
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("encode config: %w", err))
	}
	m := run.NewManifest(s.codeVersion, core.NewConfigHash(data), ds.Hash())
	m.Alpha = s.cfg.Alpha
	m.Metrics = append([]string(nil), s.cfg.Metrics...)
	m.Granularities = append([]string(nil), s.cfg.Granularities...)
	m.Records = ds.Len()
	m.Tests = tests
	m.Skipped = loaded.Skipped
	if loaded.CacheSaved {
		m.Add(run.ArtifactCache, s.cfg.CachePath)
	}
	return m, nil
}

// Publish writes the artifacts of the given stages in order, then the
// manifest describing them.
func (s *PipelineService) Publish(a *Analysis, stages ...Stage) (string, error) {
	r := reporting.NewReporter(s.cfg.OutputDir, a.Manifest)
	for _, st := range stages {
		var err error
		switch st {
		case StageNormality:
			_, err = r.WriteNormality(a.Results)
		case StageVariance:
			_, err = r.WriteVariance(a.Results)
		case StageLocation:
			_, err = r.WriteLocation(a.Results)
		case StageDescriptives:
			_, err = r.WriteDescriptives(a.Results, a.Units)
		case StagePlot:
			_, err = r.WriteCharts(a.Results, a.Units, s.chartOptions)
		case StageReport:
			if _, err = r.WriteThesisTables(a.Results); err == nil {
				err = r.WriteSummary(a.Results)
			}
		default:
			err = errors.InternalError(fmt.Sprintf("unknown stage %q", st))
		}
		if err != nil {
			return "", errors.Wrapf(err, "stage %s", st)
		}
	}
	return r.WriteManifest()
}

// Verify re-reads the published stage workbooks and compares their
// p-values with a fresh computation.
func (s *PipelineService) Verify(ctx context.Context, a *Analysis) (*validation.Report, error) {
	comparator, err := s.Comparator()
	if err != nil {
		return nil, err
	}
	return validation.NewVerifier(s.cfg.OutputDir, comparator, validation.DefaultTolerance).Verify(ctx, a.Units)
}

// Run executes the whole pipeline: consolidation from the sources, every
// stage's artifacts and a final verification of the written workbooks.
func (s *PipelineService) Run(ctx context.Context) (*RunResult, error) {
	a, err := s.Prepare(ctx, true)
	if err != nil {
		return nil, err
	}

	stages := make([]Stage, 0, len(AllStages))
	for _, st := range AllStages {
		if st == StagePlot && !s.cfg.Charts {
			continue
		}
		stages = append(stages, st)
	}
	manifestPath, err := s.Publish(a, stages...)
	if err != nil {
		return nil, err
	}

	report, err := s.Verify(ctx, a)
	if err != nil {
		return nil, err
	}
	s.logger.Info("pipeline complete",
		"run_id", a.Manifest.RunID,
		"records", a.Manifest.Records,
		"tests", a.Manifest.Tests,
		"artifacts", len(a.Manifest.Artifacts),
		"verified", report.OK())
	return &RunResult{Analysis: a, Verification: report, ManifestPath: manifestPath}, nil
}
