package excel

import (
	"context"

	"suitecompare/domain/metrics"
	"suitecompare/ports"
)

// SourceReader reads per-test-case CSV and workbook files
type SourceReader struct{}

// NewSourceReader creates a SourceReader
func NewSourceReader() *SourceReader { return &SourceReader{} }

// ReadSource implements ports.SourceReader
func (SourceReader) ReadSource(ctx context.Context, src metrics.Source) (*ports.SourceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := NewDataReader(src.Path, src.Sheet).ReadData()
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = r
	}
	return &ports.SourceTable{Headers: table.Headers, Rows: rows}, nil
}

var _ ports.SourceReader = SourceReader{}
