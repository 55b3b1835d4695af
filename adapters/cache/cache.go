// Package cache persists the consolidated dataset so later stages can skip
// re-reading every source file. The format follows the file extension:
// .parquet uses Parquet, anything else CSV.
package cache

import (
	"os"
	"path/filepath"
	"strings"

	"suitecompare/domain/metrics"
	"suitecompare/internal/errors"
)

// Column names of the cache layout, after the metric columns
const (
	ColumnCategory  = "category"
	ColumnGroup     = "group"
	ColumnTestName  = "test_name"
	ColumnIteration = "iteration"
)

// Format identifies a cache encoding
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// FormatFor picks the encoding from the path's extension
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Exists reports whether a cache file is present at path
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes the dataset to path atomically
func Save(path string, ds *metrics.Dataset) error {
	if ds == nil {
		ds = &metrics.Dataset{}
	}
	switch FormatFor(path) {
	case FormatParquet:
		return saveParquet(path, ds)
	default:
		return saveCSV(path, ds)
	}
}

// Load reads a dataset previously written by Save
func Load(path string) (*metrics.Dataset, error) {
	if !Exists(path) {
		return nil, errors.MissingSource(path)
	}
	switch FormatFor(path) {
	case FormatParquet:
		return loadParquet(path)
	default:
		return loadCSV(path)
	}
}
