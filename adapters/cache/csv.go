package cache

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"suitecompare/domain/metrics"
	"suitecompare/internal/artifact"
	"suitecompare/internal/errors"
)

func csvHeader() []string {
	header := make([]string, 0, len(metrics.AllMetrics)+4)
	for _, m := range metrics.AllMetrics {
		header = append(header, string(m))
	}
	return append(header, ColumnCategory, ColumnGroup, ColumnTestName, ColumnIteration)
}

func saveCSV(path string, ds *metrics.Dataset) error {
	return artifact.WriteFile(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(csvHeader()); err != nil {
			return err
		}
		row := make([]string, 0, len(metrics.AllMetrics)+4)
		for _, r := range ds.Records {
			row = row[:0]
			for _, m := range metrics.AllMetrics {
				row = append(row, strconv.FormatFloat(r.Value(m), 'g', -1, 64))
			}
			row = append(row, string(r.Category), string(r.Group), r.TestID, strconv.Itoa(r.Iteration))
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func loadCSV(path string) (*metrics.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeMissingSource, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.WithCode(errors.CodeSchema, fmt.Errorf("read cache %s: %w", path, err))
	}
	if len(rows) == 0 {
		return nil, errors.Schema("cache %s: missing header row", path)
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[h] = i
	}
	for _, col := range csvHeader() {
		if _, ok := index[col]; !ok {
			return nil, errors.Schema("cache %s: missing column %q", path, col)
		}
	}

	ds := &metrics.Dataset{Records: make([]metrics.Record, 0, len(rows)-1)}
	for line, row := range rows[1:] {
		rec, err := parseCacheRow(row, index)
		if err != nil {
			return nil, errors.Wrapf(err, "cache %s line %d", path, line+2)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func parseCacheRow(row []string, index map[string]int) (metrics.Record, error) {
	var rec metrics.Record
	for _, m := range metrics.AllMetrics {
		v, err := strconv.ParseFloat(row[index[string(m)]], 64)
		if err != nil {
			return rec, errors.Schema("column %q: %q is not numeric", m, row[index[string(m)]])
		}
		rec.SetValue(m, v)
	}

	category, err := metrics.ParseCategory(row[index[ColumnCategory]])
	if err != nil {
		return rec, errors.Schema("%v", err)
	}
	group, err := metrics.ParseGroup(row[index[ColumnGroup]])
	if err != nil {
		return rec, errors.Schema("%v", err)
	}
	iteration, err := strconv.Atoi(row[index[ColumnIteration]])
	if err != nil {
		return rec, errors.Schema("column %q: %q is not an integer", ColumnIteration, row[index[ColumnIteration]])
	}

	rec.Category = category
	rec.Group = group
	rec.TestID = row[index[ColumnTestName]]
	rec.Iteration = iteration
	if rec.TestID == "" {
		return rec, errors.Schema("column %q is empty", ColumnTestName)
	}
	return rec, nil
}
