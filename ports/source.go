package ports

import (
	"context"

	"suitecompare/domain/metrics"
)

// SourceTable is the raw content of one source file: trimmed headers and
// one header -> cell map per data row.
type SourceTable struct {
	Headers []string
	Rows    []map[string]string
}

// SourceReader loads the raw rows of a per-test-case source file. A
// missing file is reported as a MISSING_SOURCE error.
type SourceReader interface {
	ReadSource(ctx context.Context, src metrics.Source) (*SourceTable, error)
}

// DatasetCache persists the consolidated dataset between runs
type DatasetCache interface {
	Exists(path string) bool
	Load(ctx context.Context, path string) (*metrics.Dataset, error)
	Save(ctx context.Context, path string, ds *metrics.Dataset) error
}
