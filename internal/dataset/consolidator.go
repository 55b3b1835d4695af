// Package dataset builds the two analysis units of a comparison run: the
// consolidated raw dataset and its per-test aggregation.
package dataset

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"suitecompare/domain/metrics"
	"suitecompare/internal/errors"
	"suitecompare/internal/logging"
	"suitecompare/ports"
)

// MissingPolicy decides what happens when an expected source is absent
type MissingPolicy int

const (
	// FailOnMissing aborts consolidation with a MISSING_SOURCE error
	FailOnMissing MissingPolicy = iota
	// SkipMissing logs a warning and continues with the remaining sources
	SkipMissing
)

// Consolidator merges per-test-case source files into one Dataset
type Consolidator struct {
	reader  ports.SourceReader
	metrics []metrics.Metric
	policy  MissingPolicy
	logger  *slog.Logger
}

// ConsolidationReport describes what a consolidation run read and skipped
type ConsolidationReport struct {
	Loaded  []string
	Skipped []string
	Records int
}

// NewConsolidator creates a consolidator requiring the given metric columns
func NewConsolidator(reader ports.SourceReader, required []metrics.Metric, policy MissingPolicy) *Consolidator {
	return &Consolidator{
		reader:  reader,
		metrics: append([]metrics.Metric(nil), required...),
		policy:  policy,
		logger:  logging.New("consolidation"),
	}
}

// Consolidate reads every source in path order and returns the merged
// dataset. Each source row becomes one record carrying the source's group,
// category and test id, and its 1-based row position as iteration.
// missing lists collection paths that discovery could not find; they are
// subject to the same policy as missing files.
func (c *Consolidator) Consolidate(ctx context.Context, sources []metrics.Source, missing ...string) (*metrics.Dataset, *ConsolidationReport, error) {
	report := &ConsolidationReport{}

	for _, path := range missing {
		if err := c.handleMissing(errors.MissingSource(path), report, path); err != nil {
			return nil, nil, err
		}
	}

	ordered := append([]metrics.Source(nil), sources...)
	SortSources(ordered)

	ds := &metrics.Dataset{}
	for _, src := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		table, err := c.reader.ReadSource(ctx, src)
		if errors.IsMissingSource(err) {
			if err := c.handleMissing(err, report, src.Path); err != nil {
				return nil, nil, err
			}
			continue
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "consolidation: reading %s", src.Path)
		}

		records, err := c.toRecords(src, table)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "consolidation: %s", src.Path)
		}
		if len(records) == 0 {
			c.logger.Warn("source has no data rows", "path", src.Path)
		}
		ds.Records = append(ds.Records, records...)
		report.Loaded = append(report.Loaded, src.Path)
	}

	report.Records = ds.Len()
	c.logger.Info("consolidated dataset",
		"sources", len(report.Loaded),
		"skipped", len(report.Skipped),
		"records", report.Records)
	return ds, report, nil
}

func (c *Consolidator) handleMissing(err error, report *ConsolidationReport, path string) error {
	if c.policy == FailOnMissing {
		return errors.Wrap(err, "consolidation")
	}
	c.logger.Warn("skipping missing source", "path", path)
	report.Skipped = append(report.Skipped, path)
	return nil
}

func (c *Consolidator) toRecords(src metrics.Source, table *ports.SourceTable) ([]metrics.Record, error) {
	if src.Group == "" {
		return nil, errors.Schema("source has no group label")
	}
	testID := src.ID()
	if testID == "" {
		return nil, errors.Schema("source has no test identifier")
	}

	columns := make(map[metrics.Metric]string, len(metrics.AllMetrics))
	for _, m := range metrics.AllMetrics {
		if h, ok := findHeader(table.Headers, string(m)); ok {
			columns[m] = h
		}
	}
	for _, m := range c.metrics {
		if _, ok := columns[m]; !ok {
			return nil, errors.Schema("missing required column %q", m)
		}
	}

	required := make(map[metrics.Metric]bool, len(c.metrics))
	for _, m := range c.metrics {
		required[m] = true
	}

	records := make([]metrics.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		rec := metrics.Record{
			TestID:    testID,
			Group:     src.Group,
			Category:  src.Category,
			Iteration: i + 1,
		}
		for _, m := range metrics.AllMetrics {
			header, ok := columns[m]
			if !ok {
				rec.SetValue(m, math.NaN())
				continue
			}
			v, err := parseCell(row[header])
			if err != nil {
				if !required[m] {
					rec.SetValue(m, math.NaN())
					continue
				}
				return nil, errors.Schema("row %d column %q: %v", i+2, header, err)
			}
			rec.SetValue(m, v)
		}
		records = append(records, rec)
	}
	return records, nil
}

func findHeader(headers []string, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return h, true
		}
	}
	return "", false
}

// parseCell accepts plain decimals, a decimal comma and a trailing percent
// sign, as produced by spreadsheet exports of coverage reports.
func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Schema("empty cell")
	}
	s = strings.TrimSuffix(s, "%")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Schema("%q is not numeric", s)
	}
	return v, nil
}
