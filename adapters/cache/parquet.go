package cache

import (
	"fmt"
	"io"
	"os"

	"suitecompare/domain/metrics"
	"suitecompare/internal/artifact"
	"suitecompare/internal/errors"

	"github.com/parquet-go/parquet-go"
)

// recordRow is the Parquet schema of one consolidated record
type recordRow struct {
	InstrPct      float64 `parquet:"instr_pct,snappy"`
	BranchPct     float64 `parquet:"branch_pct,snappy"`
	MutationScore float64 `parquet:"mutation_score,snappy"`
	TimeSeconds   float64 `parquet:"time_seconds,snappy"`
	Category      string  `parquet:"category,snappy,dict"`
	Group         string  `parquet:"group,snappy,dict"`
	TestName      string  `parquet:"test_name,snappy,dict"`
	Iteration     int32   `parquet:"iteration,snappy"`
}

func toRow(r metrics.Record) recordRow {
	return recordRow{
		InstrPct:      r.InstructionCoverage,
		BranchPct:     r.BranchCoverage,
		MutationScore: r.MutationScore,
		TimeSeconds:   r.TimeSeconds,
		Category:      string(r.Category),
		Group:         string(r.Group),
		TestName:      r.TestID,
		Iteration:     int32(r.Iteration),
	}
}

func (row recordRow) record() (metrics.Record, error) {
	category, err := metrics.ParseCategory(row.Category)
	if err != nil {
		return metrics.Record{}, errors.Schema("%v", err)
	}
	group, err := metrics.ParseGroup(row.Group)
	if err != nil {
		return metrics.Record{}, errors.Schema("%v", err)
	}
	if row.TestName == "" {
		return metrics.Record{}, errors.Schema("column %q is empty", ColumnTestName)
	}
	return metrics.Record{
		TestID:              row.TestName,
		Group:               group,
		Category:            category,
		Iteration:           int(row.Iteration),
		InstructionCoverage: row.InstrPct,
		BranchCoverage:      row.BranchPct,
		MutationScore:       row.MutationScore,
		TimeSeconds:         row.TimeSeconds,
	}, nil
}

func saveParquet(path string, ds *metrics.Dataset) error {
	rows := make([]recordRow, len(ds.Records))
	for i, r := range ds.Records {
		rows[i] = toRow(r)
	}
	return artifact.WriteFile(path, func(w io.Writer) error {
		writer := parquet.NewGenericWriter[recordRow](w)
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write data to parquet file: %w", err)
		}
		return writer.Close()
	})
}

func loadParquet(path string) (*metrics.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeMissingSource, err)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[recordRow](file)
	defer reader.Close()

	rows := make([]recordRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		return nil, errors.WithCode(errors.CodeSchema, fmt.Errorf("read cache %s: %w", path, err))
	}

	ds := &metrics.Dataset{Records: make([]metrics.Record, 0, n)}
	for i, row := range rows[:n] {
		rec, err := row.record()
		if err != nil {
			return nil, errors.Wrapf(err, "cache %s row %d", path, i+1)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}
