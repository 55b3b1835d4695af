package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"suitecompare/adapters/cache"
	"suitecompare/adapters/excel"
	"suitecompare/domain/metrics"
	"suitecompare/internal/errors"
	"suitecompare/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSourceReader is a testify mock of ports.SourceReader
type MockSourceReader struct {
	mock.Mock
}

func (m *MockSourceReader) ReadSource(ctx context.Context, src metrics.Source) (*ports.SourceTable, error) {
	args := m.Called(ctx, src.Path)
	if t, ok := args.Get(0).(*ports.SourceTable); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

const header = "instr_pct,branch_pct,mutation_score,time_seconds\n"

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func studyLayout(t *testing.T) (string, []Collection) {
	t.Helper()
	root := t.TempDir()
	unit := filepath.Join(root, "unitarias")
	functional := filepath.Join(root, "funcionales")

	writeSource(t, unit, "IA_LoginTest.csv", header+"80,70,50,1.0\n82,72,52,1.2\n84,74,54,1.4\n")
	writeSource(t, unit, "LoginTest.csv", header+"60,50,40,2.0\n62,52,42,2.2\n")
	writeSource(t, functional, "IA_Checkout.csv", header+"90,80,60,10\n")
	writeSource(t, functional, "Manual_Checkout.csv", header+"70,60,45,20\n72,61,46,21\n")
	writeSource(t, functional, "notes.txt", "ignored")

	return root, []Collection{
		{Path: unit, Pattern: "*.csv", Category: metrics.CategoryUnit},
		{Path: functional, Pattern: "*.csv", Category: metrics.CategoryFunctional},
	}
}

func studyResolver() *GroupResolver {
	return NewGroupResolver([]PrefixRule{
		{Prefix: "IA_", Group: metrics.GroupIA},
		{Prefix: "Manual_", Group: metrics.GroupManual},
	}, metrics.GroupManual)
}

func TestDiscover_SortedAndLabelled(t *testing.T) {
	_, collections := studyLayout(t)

	found, err := Discover(collections, studyResolver())
	require.NoError(t, err)
	assert.Empty(t, found.Missing)
	require.Len(t, found.Sources, 4)

	for i := 1; i < len(found.Sources); i++ {
		assert.Less(t, found.Sources[i-1].Path, found.Sources[i].Path)
	}

	byID := make(map[string]metrics.Source)
	for _, s := range found.Sources {
		byID[s.TestID] = s
	}
	assert.Equal(t, metrics.GroupIA, byID["IA_LoginTest"].Group)
	assert.Equal(t, metrics.GroupManual, byID["LoginTest"].Group, "unmatched names use the default group")
	assert.Equal(t, metrics.GroupManual, byID["Manual_Checkout"].Group)
	assert.Equal(t, metrics.CategoryFunctional, byID["IA_Checkout"].Category)
}

func TestDiscover_MissingCollection(t *testing.T) {
	_, collections := studyLayout(t)
	collections = append(collections, Collection{Path: "/definitely/not/here", Category: metrics.CategoryUnit})

	found, err := Discover(collections, studyResolver())
	require.NoError(t, err)
	assert.Equal(t, []string{"/definitely/not/here"}, found.Missing)
}

func TestDiscover_SkipsUnreadableFiles(t *testing.T) {
	root, _ := studyLayout(t)
	functional := filepath.Join(root, "funcionales")

	found, err := Discover([]Collection{
		{Path: functional, Pattern: "*", Category: metrics.CategoryFunctional},
	}, studyResolver())
	require.NoError(t, err)
	require.Len(t, found.Sources, 2)
	for _, s := range found.Sources {
		assert.NotEqual(t, "notes.txt", filepath.Base(s.Path))
	}
}

func TestGroupResolver_NoFallback(t *testing.T) {
	r := NewGroupResolver([]PrefixRule{{Prefix: "IA_", Group: metrics.GroupIA}}, "")

	g, err := r.Resolve("dir/ia_thing.csv")
	require.NoError(t, err)
	assert.Equal(t, metrics.GroupIA, g)

	_, err = r.Resolve("dir/Other.csv")
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
}

func TestGroupResolver_LongestPrefixWins(t *testing.T) {
	r := NewGroupResolver([]PrefixRule{
		{Prefix: "IA_", Group: metrics.GroupIA},
		{Prefix: "IA_Manual_", Group: metrics.GroupManual},
	}, "")
	g, err := r.Resolve("IA_Manual_Port.csv")
	require.NoError(t, err)
	assert.Equal(t, metrics.GroupManual, g)
}

func TestConsolidate_FromFiles(t *testing.T) {
	_, collections := studyLayout(t)
	found, err := Discover(collections, studyResolver())
	require.NoError(t, err)

	c := NewConsolidator(excel.NewSourceReader(), metrics.AllMetrics, FailOnMissing)
	ds, report, err := c.Consolidate(context.Background(), found.Sources)
	require.NoError(t, err)

	assert.Equal(t, 8, ds.Len())
	assert.Equal(t, 8, report.Records)
	assert.Len(t, report.Loaded, 4)
	for _, r := range ds.Records {
		assert.NotEmpty(t, r.Group)
		assert.NotEmpty(t, r.TestID)
		assert.GreaterOrEqual(t, r.Iteration, 1)
	}
	assert.Len(t, ds.Values(metrics.GroupIA, metrics.MutationScore), 4)
}

func TestConsolidate_Idempotent(t *testing.T) {
	root, collections := studyLayout(t)
	found, err := Discover(collections, studyResolver())
	require.NoError(t, err)

	c := NewConsolidator(excel.NewSourceReader(), metrics.AllMetrics, FailOnMissing)
	first, _, err := c.Consolidate(context.Background(), found.Sources)
	require.NoError(t, err)

	// reversed input order must not change the result
	reversed := make([]metrics.Source, len(found.Sources))
	for i, s := range found.Sources {
		reversed[len(found.Sources)-1-i] = s
	}
	second, _, err := c.Consolidate(context.Background(), reversed)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// and neither does a trip through the cache
	cachePath := filepath.Join(root, "datos_consolidados.csv")
	require.NoError(t, cache.Save(cachePath, first))
	loaded, err := cache.Load(cachePath)
	require.NoError(t, err)
	assert.Equal(t, first, loaded)
}

func TestConsolidate_MissingSourcePolicy(t *testing.T) {
	reader := new(MockSourceReader)
	table := &ports.SourceTable{
		Headers: []string{"instr_pct", "branch_pct", "mutation_score", "time_seconds"},
		Rows:    []map[string]string{{"instr_pct": "1", "branch_pct": "2", "mutation_score": "3", "time_seconds": "4"}},
	}
	reader.On("ReadSource", mock.Anything, "a.csv").Return(table, nil)
	reader.On("ReadSource", mock.Anything, "b.csv").Return(nil, errors.MissingSource("b.csv"))

	sources := []metrics.Source{
		{Path: "b.csv", Group: metrics.GroupIA, Category: metrics.CategoryUnit},
		{Path: "a.csv", Group: metrics.GroupManual, Category: metrics.CategoryUnit},
	}

	strict := NewConsolidator(reader, metrics.AllMetrics, FailOnMissing)
	_, _, err := strict.Consolidate(context.Background(), sources)
	require.Error(t, err)
	assert.True(t, errors.IsMissingSource(err))
	assert.Contains(t, err.Error(), "b.csv")

	lenient := NewConsolidator(reader, metrics.AllMetrics, SkipMissing)
	ds, report, err := lenient.Consolidate(context.Background(), sources, "missing-dir")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, []string{"a.csv"}, report.Loaded)
	assert.Equal(t, []string{"missing-dir", "b.csv"}, report.Skipped)
	assert.Equal(t, "a", ds.Records[0].TestID)

	reader.AssertExpectations(t)
}

func TestConsolidate_SchemaErrors(t *testing.T) {
	tests := map[string]*ports.SourceTable{
		"missing column": {
			Headers: []string{"instr_pct", "branch_pct", "mutation_score"},
			Rows:    []map[string]string{{"instr_pct": "1", "branch_pct": "2", "mutation_score": "3"}},
		},
		"non numeric": {
			Headers: []string{"instr_pct", "branch_pct", "mutation_score", "time_seconds"},
			Rows:    []map[string]string{{"instr_pct": "n/a", "branch_pct": "2", "mutation_score": "3", "time_seconds": "4"}},
		},
		"empty cell": {
			Headers: []string{"instr_pct", "branch_pct", "mutation_score", "time_seconds"},
			Rows:    []map[string]string{{"instr_pct": "1", "branch_pct": "", "mutation_score": "3", "time_seconds": "4"}},
		},
	}
	for name, table := range tests {
		t.Run(name, func(t *testing.T) {
			reader := new(MockSourceReader)
			reader.On("ReadSource", mock.Anything, "x.csv").Return(table, nil)

			c := NewConsolidator(reader, metrics.AllMetrics, FailOnMissing)
			_, _, err := c.Consolidate(context.Background(), []metrics.Source{
				{Path: "x.csv", Group: metrics.GroupIA, Category: metrics.CategoryUnit},
			})
			require.Error(t, err)
			assert.True(t, errors.IsSchema(err))
			assert.Contains(t, err.Error(), "x.csv")
		})
	}
}

func TestConsolidate_OptionalMetricsMayBeAbsent(t *testing.T) {
	reader := new(MockSourceReader)
	reader.On("ReadSource", mock.Anything, "x.csv").Return(&ports.SourceTable{
		Headers: []string{"Mutation_Score"},
		Rows:    []map[string]string{{"Mutation_Score": "55,5%"}},
	}, nil)

	c := NewConsolidator(reader, []metrics.Metric{metrics.MutationScore}, FailOnMissing)
	ds, _, err := c.Consolidate(context.Background(), []metrics.Source{
		{Path: "x.csv", Group: metrics.GroupIA, Category: metrics.CategoryUnit},
	})
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, 55.5, ds.Records[0].MutationScore)
	assert.True(t, math.IsNaN(ds.Records[0].TimeSeconds))
}

func TestConsolidate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewConsolidator(new(MockSourceReader), metrics.AllMetrics, FailOnMissing)
	_, _, err := c.Consolidate(ctx, []metrics.Source{{Path: "x.csv", Group: metrics.GroupIA}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregate_MeansPerTest(t *testing.T) {
	_, collections := studyLayout(t)
	found, err := Discover(collections, studyResolver())
	require.NoError(t, err)
	ds, _, err := NewConsolidator(excel.NewSourceReader(), metrics.AllMetrics, FailOnMissing).
		Consolidate(context.Background(), found.Sources)
	require.NoError(t, err)

	summaries, err := Aggregate(ds)
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	// one summary per TestID, mean equal to the arithmetic mean of its records
	for _, s := range summaries {
		records := ds.Filter(func(r metrics.Record) bool { return r.TestID == s.TestID })
		assert.Equal(t, records.Len(), s.Iterations)
		for _, m := range metrics.AllMetrics {
			var sum float64
			for _, r := range records.Records {
				sum += r.Value(m)
			}
			assert.InDelta(t, sum/float64(records.Len()), s.Value(m), 1e-9, "%s %s", s.TestID, m)
		}
	}

	parts := summaries.Partition()
	assert.Len(t, parts[metrics.GroupIA], 2)
	assert.Len(t, parts[metrics.GroupManual], 2)
}

func TestAggregate_FirstAppearanceOrder(t *testing.T) {
	ds := &metrics.Dataset{Records: []metrics.Record{
		{TestID: "b", Group: metrics.GroupIA, Category: metrics.CategoryUnit, MutationScore: 1},
		{TestID: "a", Group: metrics.GroupManual, Category: metrics.CategoryUnit, MutationScore: 2},
		{TestID: "b", Group: metrics.GroupIA, Category: metrics.CategoryUnit, MutationScore: 3},
	}}
	summaries, err := Aggregate(ds)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "b", summaries[0].TestID)
	assert.Equal(t, 2.0, summaries[0].MutationScore)
	assert.Equal(t, 2, summaries[0].Iterations)
	assert.Equal(t, "a", summaries[1].TestID)
}

func TestAggregate_GroupConflict(t *testing.T) {
	ds := &metrics.Dataset{Records: []metrics.Record{
		{TestID: "Login", Group: metrics.GroupIA, Category: metrics.CategoryUnit},
		{TestID: "Login", Group: metrics.GroupManual, Category: metrics.CategoryUnit},
	}}
	_, err := Aggregate(ds)
	require.Error(t, err)
	assert.True(t, errors.IsSchema(err))
	assert.Contains(t, err.Error(), "Login")
	assert.Contains(t, err.Error(), "IA")
	assert.Contains(t, err.Error(), "Manual")
}

func TestAggregate_Empty(t *testing.T) {
	summaries, err := Aggregate(&metrics.Dataset{})
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.NotNil(t, summaries)
}
