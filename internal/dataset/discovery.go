package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"suitecompare/adapters/excel"
	"suitecompare/domain/metrics"
	"suitecompare/internal/errors"
)

// Collection is a directory (or single file) of per-test-case sources that
// share a category.
type Collection struct {
	Path     string
	Pattern  string
	Category metrics.Category
	// Group, when set, labels every file and skips prefix detection.
	Group metrics.Group
	Sheet string
}

// PrefixRule assigns Group to files whose base name starts with Prefix
type PrefixRule struct {
	Prefix string
	Group  metrics.Group
}

// GroupResolver labels a source file with its group from the file name
type GroupResolver struct {
	rules []PrefixRule
	// fallback is used when no rule matches; empty means "reject".
	fallback metrics.Group
}

// NewGroupResolver creates a resolver. Longer prefixes are tried first so
// that "IA_v2_" wins over "IA_".
func NewGroupResolver(rules []PrefixRule, fallback metrics.Group) *GroupResolver {
	sorted := append([]PrefixRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].Prefix) > len(sorted[j].Prefix) })
	return &GroupResolver{rules: sorted, fallback: fallback}
}

// Resolve returns the group for a file path. Prefixes match the base name,
// ignoring case.
func (r *GroupResolver) Resolve(path string) (metrics.Group, error) {
	base := strings.ToLower(filepath.Base(path))
	for _, rule := range r.rules {
		if strings.HasPrefix(base, strings.ToLower(rule.Prefix)) {
			return rule.Group, nil
		}
	}
	if r.fallback != "" {
		return r.fallback, nil
	}
	return "", errors.Schema("cannot determine group of %s: no prefix rule matches", path)
}

// Discovery is the outcome of scanning the configured collections
type Discovery struct {
	Sources []metrics.Source
	// Missing lists collection paths that do not exist.
	Missing []string
}

// Discover expands collections into sources sorted by path. Files the
// reader cannot parse are skipped even when the pattern matches them. Absent
// collection paths are reported in Missing rather than failing, so the
// caller can apply its strict or lenient policy.
func Discover(collections []Collection, resolver *GroupResolver) (*Discovery, error) {
	out := &Discovery{}
	seen := make(map[string]bool)

	for _, c := range collections {
		info, err := os.Stat(c.Path)
		if os.IsNotExist(err) {
			out.Missing = append(out.Missing, c.Path)
			continue
		}
		if err != nil {
			return nil, errors.WithCode(errors.CodeMissingSource, fmt.Errorf("stat %s: %w", c.Path, err))
		}

		var files []string
		if info.IsDir() {
			pattern := c.Pattern
			if pattern == "" {
				pattern = "*.csv"
			}
			files, err = filepath.Glob(filepath.Join(c.Path, pattern))
			if err != nil {
				return nil, errors.ConfigInvalid(fmt.Sprintf("bad pattern %q: %v", pattern, err))
			}
		} else {
			files = []string{c.Path}
		}

		for _, f := range files {
			if seen[f] || isHidden(f) || !excel.IsSupported(f) {
				continue
			}
			seen[f] = true

			group := c.Group
			if group == "" {
				group, err = resolver.Resolve(f)
				if err != nil {
					return nil, err
				}
			}
			out.Sources = append(out.Sources, metrics.Source{
				Path:     f,
				Group:    group,
				Category: c.Category,
				TestID:   metrics.TestIDFromPath(f),
				Sheet:    c.Sheet,
			})
		}
	}

	SortSources(out.Sources)
	return out, nil
}

// SortSources orders sources by path, the order consolidation reads them in
func SortSources(sources []metrics.Source) {
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Path < sources[j].Path })
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$")
}
