package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"suitecompare/adapters/cache"
	"suitecompare/adapters/excel"
	"suitecompare/domain/metrics"
	"suitecompare/domain/run"
	"suitecompare/internal/config"
	"suitecompare/internal/errors"
	"suitecompare/internal/reporting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDatasetCache is a testify mock of ports.DatasetCache
type MockDatasetCache struct {
	mock.Mock
}

func (m *MockDatasetCache) Exists(path string) bool {
	return m.Called(path).Bool(0)
}

func (m *MockDatasetCache) Load(ctx context.Context, path string) (*metrics.Dataset, error) {
	args := m.Called(path)
	if ds, ok := args.Get(0).(*metrics.Dataset); ok {
		return ds, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatasetCache) Save(ctx context.Context, path string, ds *metrics.Dataset) error {
	return m.Called(path, ds.Len()).Error(0)
}

// studyConfig writes four tests per group and category, three iterations
// each, and returns a configuration reading them.
func studyConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	dirs := map[metrics.Category]string{
		metrics.CategoryUnit:       filepath.Join(root, "unitarias"),
		metrics.CategoryFunctional: filepath.Join(root, "funcionales"),
	}
	for ci, cat := range metrics.Categories {
		require.NoError(t, os.MkdirAll(dirs[cat], 0o755))
		for gi, prefix := range []string{"Manual_", "IA_"} {
			for k := 0; k < 4; k++ {
				var b strings.Builder
				b.WriteString("instr_pct,branch_pct,mutation_score,time_seconds\n")
				for it := 0; it < 3; it++ {
					base := 50 + 8*float64(gi) + float64(k*k) + 2*float64(ci) + 0.5*float64(it)
					fmt.Fprintf(&b, "%g,%g,%g,%g\n", base, base-10, base-20, 1+base/100)
				}
				name := fmt.Sprintf("%sT%d_%s.csv", prefix, k, cat)
				require.NoError(t, os.WriteFile(filepath.Join(dirs[cat], name), []byte(b.String()), 0o644))
			}
		}
	}

	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{
		{Path: dirs[metrics.CategoryUnit], Pattern: "*.csv", Category: string(metrics.CategoryUnit)},
		{Path: dirs[metrics.CategoryFunctional], Pattern: "*.csv", Category: string(metrics.CategoryFunctional)},
	}
	cfg.OutputDir = filepath.Join(root, "results")
	cfg.CachePath = filepath.Join(root, "results", "datos_consolidados.parquet")
	return cfg
}

func TestPipelineService_Run(t *testing.T) {
	cfg := studyConfig(t)
	svc := NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), "test")

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	a := res.Analysis
	assert.Equal(t, 48, a.Manifest.Records)
	assert.Equal(t, 16, a.Manifest.Tests)
	assert.False(t, a.FromCache)
	assert.True(t, res.Verification.OK(), "mismatches %v problems %v", res.Verification.Mismatches, res.Verification.Problems)
	assert.NotEmpty(t, res.Verification.Checks)

	for _, name := range []string{
		reporting.NormalityWorkbook, reporting.VarianceWorkbook, reporting.LocationWorkbook,
		reporting.DescriptivesWorkbook, reporting.ThesisWorkbook,
		reporting.SummaryMarkdown, reporting.SummaryHTML, reporting.ManifestFile,
		filepath.Join(reporting.PlotDir, "boxplots_aggregated.png"),
	} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name))
	}
	assert.FileExists(t, cfg.CachePath)
	assert.Equal(t, filepath.Join(cfg.OutputDir, reporting.ManifestFile), res.ManifestPath)
	assert.NoError(t, a.Manifest.Validate())
}

func TestPipelineService_ChartsDisabled(t *testing.T) {
	cfg := studyConfig(t)
	cfg.Charts = false

	_, err := NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), "test").Run(context.Background())
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(cfg.OutputDir, reporting.PlotDir))
}

func TestPipelineService_SecondPrepareUsesCache(t *testing.T) {
	cfg := studyConfig(t)
	svc := NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), "test")

	first, err := svc.Prepare(context.Background(), true)
	require.NoError(t, err)
	second, err := svc.Prepare(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Manifest.DatasetHash, second.Manifest.DatasetHash)
	assert.Equal(t, first.Manifest.ConfigHash, second.Manifest.ConfigHash)
	assert.NotEqual(t, first.Manifest.RunID, second.Manifest.RunID)

	assert.Contains(t, artifactKinds(first.Manifest), run.ArtifactCache)
	assert.NotContains(t, artifactKinds(second.Manifest), run.ArtifactCache, "a cache that was only read is not an artifact")
}

func artifactKinds(m *run.Manifest) []run.ArtifactKind {
	kinds := make([]run.ArtifactKind, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		kinds = append(kinds, a.Kind)
	}
	return kinds
}

func TestPipelineService_LoadDatasetFromMockCache(t *testing.T) {
	cfg := studyConfig(t)
	cached := &metrics.Dataset{Records: []metrics.Record{{TestID: "T", Group: metrics.GroupIA, Category: metrics.CategoryUnit, Iteration: 1}}}

	store := new(MockDatasetCache)
	store.On("Exists", cfg.CachePath).Return(true)
	store.On("Load", cfg.CachePath).Return(cached, nil)

	loaded, err := NewPipelineService(cfg, excel.NewSourceReader(), store, "test").LoadDataset(context.Background(), false)
	require.NoError(t, err)
	assert.Same(t, cached, loaded.Dataset)
	assert.True(t, loaded.FromCache)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPipelineService_ConsolidateSavesCache(t *testing.T) {
	cfg := studyConfig(t)
	store := new(MockDatasetCache)
	store.On("Save", cfg.CachePath, 48).Return(nil)

	loaded, err := NewPipelineService(cfg, excel.NewSourceReader(), store, "test").Consolidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 48, loaded.Dataset.Len())
	store.AssertExpectations(t)
}

func TestPipelineService_MissingCollection(t *testing.T) {
	cfg := studyConfig(t)
	missing := filepath.Join(t.TempDir(), "absent")
	cfg.Sources = append(cfg.Sources, config.SourceConfig{Path: missing, Category: string(metrics.CategoryUnit)})
	cfg.CachePath = ""

	svc := NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), "test")
	_, err := svc.Consolidate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsMissingSource(err))

	cfg.MissingSources = config.Lenient
	loaded, err := svc.Consolidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, loaded.Skipped)
	assert.Equal(t, 48, loaded.Dataset.Len())
}

func TestPipelineService_EmptySources(t *testing.T) {
	cfg := studyConfig(t)
	empty := t.TempDir()
	cfg.Sources = []config.SourceConfig{{Path: empty, Pattern: "*.csv", Category: string(metrics.CategoryUnit)}}

	_, err := NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), "test").Consolidate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset is empty")
}

func TestPipelineService_PublishSingleStage(t *testing.T) {
	cfg := studyConfig(t)
	svc := NewPipelineService(cfg, excel.NewSourceReader(), cache.NewStore(), "test")
	a, err := svc.Prepare(context.Background(), true)
	require.NoError(t, err)

	_, err = svc.Publish(a, StageNormality)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, reporting.NormalityWorkbook))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, reporting.LocationWorkbook))

	_, err = svc.Verify(context.Background(), a)
	require.Error(t, err, "location workbook was never written")
	assert.True(t, errors.IsMissingSource(err))

	_, err = svc.Publish(a, Stage("bogus"))
	assert.Error(t, err)
}
