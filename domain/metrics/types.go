package metrics

import (
	"fmt"
	"strings"

	"suitecompare/domain/core"
)

// Group identifies which cohort of test suites a record belongs to
type Group string

const (
	GroupManual Group = "Manual"
	GroupIA     Group = "IA"
)

// Groups lists the compared cohorts in reporting order
var Groups = []Group{GroupManual, GroupIA}

// ParseGroup accepts the labels used in source files and cache artifacts
func ParseGroup(s string) (Group, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manual":
		return GroupManual, nil
	case "ia", "ai":
		return GroupIA, nil
	}
	return "", fmt.Errorf("unknown group label %q", s)
}

func (g Group) String() string { return string(g) }

// Category distinguishes unit from functional test collections
type Category string

const (
	CategoryUnit       Category = "Unit"
	CategoryFunctional Category = "Functional"
)

// Categories lists the test collections in reporting order
var Categories = []Category{CategoryUnit, CategoryFunctional}

// ParseCategory accepts both the English labels and the ones found in
// existing consolidated files ("Unitarias", "Funcionales").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unit", "unitarias", "unitaria":
		return CategoryUnit, nil
	case "functional", "funcionales", "funcional":
		return CategoryFunctional, nil
	}
	return "", fmt.Errorf("unknown category label %q", s)
}

func (c Category) String() string { return string(c) }

// Metric names one measured test-quality indicator. The value is the
// column name used in source files and in the consolidated cache.
type Metric string

const (
	InstructionCoverage Metric = "instr_pct"
	BranchCoverage      Metric = "branch_pct"
	MutationScore       Metric = "mutation_score"
	TimeSeconds         Metric = "time_seconds"
)

// AllMetrics is the default metric list in reporting order
var AllMetrics = []Metric{InstructionCoverage, BranchCoverage, MutationScore, TimeSeconds}

var metricLabels = map[Metric]string{
	InstructionCoverage: "Instruction Coverage (%)",
	BranchCoverage:      "Branch Coverage (%)",
	MutationScore:       "Mutation Score (%)",
	TimeSeconds:         "Time (seconds)",
}

// ParseMetric validates a metric column name
func ParseMetric(s string) (Metric, error) {
	m := Metric(strings.TrimSpace(s))
	if _, ok := metricLabels[m]; !ok {
		return "", fmt.Errorf("unknown metric %q", s)
	}
	return m, nil
}

// Label returns the human-readable name used in charts and thesis tables
func (m Metric) Label() string {
	if l, ok := metricLabels[m]; ok {
		return l
	}
	return string(m)
}

func (m Metric) String() string { return string(m) }

// Record is one measured observation: one iteration of one test case.
// Records are immutable after load.
type Record struct {
	TestID    string
	Group     Group
	Category  Category
	Iteration int

	InstructionCoverage float64
	BranchCoverage      float64
	MutationScore       float64
	TimeSeconds         float64
}

// Value returns the record's value for a metric
func (r Record) Value(m Metric) float64 {
	switch m {
	case InstructionCoverage:
		return r.InstructionCoverage
	case BranchCoverage:
		return r.BranchCoverage
	case MutationScore:
		return r.MutationScore
	case TimeSeconds:
		return r.TimeSeconds
	}
	panic(fmt.Sprintf("metrics: unknown metric %q", m))
}

// SetValue assigns the value of a metric; used only while a record is built
func (r *Record) SetValue(m Metric, v float64) {
	switch m {
	case InstructionCoverage:
		r.InstructionCoverage = v
	case BranchCoverage:
		r.BranchCoverage = v
	case MutationScore:
		r.MutationScore = v
	case TimeSeconds:
		r.TimeSeconds = v
	default:
		panic(fmt.Sprintf("metrics: unknown metric %q", m))
	}
}

// HashKey is the canonical text of the record used for dataset digests
func (r Record) HashKey() string {
	return core.JoinKey(r.TestID, r.Group, r.Category, r.Iteration,
		r.InstructionCoverage, r.BranchCoverage, r.MutationScore, r.TimeSeconds)
}

// Dataset is the consolidated, ordered collection of records
type Dataset struct {
	Records []Record
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Values returns the metric values of every record in the group, in order
func (d *Dataset) Values(g Group, m Metric) []float64 {
	var out []float64
	for _, r := range d.Records {
		if r.Group == g {
			out = append(out, r.Value(m))
		}
	}
	return out
}

// Hash digests the records in order
func (d *Dataset) Hash() core.DatasetHash {
	if d == nil {
		return core.ComputeDatasetHash[Record](nil)
	}
	return core.ComputeDatasetHash(d.Records)
}

// Filter returns a dataset holding only the records that satisfy keep
func (d *Dataset) Filter(keep func(Record) bool) *Dataset {
	out := &Dataset{}
	for _, r := range d.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// TestSummary is the per-test mean of every metric over its iterations
type TestSummary struct {
	TestID     string
	Group      Group
	Category   Category
	Iterations int

	InstructionCoverage float64
	BranchCoverage      float64
	MutationScore       float64
	TimeSeconds         float64
}

// Value returns the summary's mean for a metric
func (s TestSummary) Value(m Metric) float64 {
	return Record{
		InstructionCoverage: s.InstructionCoverage,
		BranchCoverage:      s.BranchCoverage,
		MutationScore:       s.MutationScore,
		TimeSeconds:         s.TimeSeconds,
	}.Value(m)
}

// Summaries is an ordered collection of per-test summaries
type Summaries []TestSummary

// Values returns the metric means of every summary in the group, in order
func (s Summaries) Values(g Group, m Metric) []float64 {
	var out []float64
	for _, t := range s {
		if t.Group == g {
			out = append(out, t.Value(m))
		}
	}
	return out
}

// Partition splits the summaries by group, preserving order
func (s Summaries) Partition() map[Group]Summaries {
	out := make(map[Group]Summaries, len(Groups))
	for _, t := range s {
		out[t.Group] = append(out[t.Group], t)
	}
	return out
}
