package metrics

import (
	"path/filepath"
	"strings"
)

// Source is one per-test-case input file together with the labels every
// record read from it receives.
type Source struct {
	Path     string
	Group    Group
	Category Category
	TestID   string
	// Sheet selects the worksheet of a workbook source; empty means the first.
	Sheet string
}

// TestIDFromPath derives a test identifier from a file name by dropping
// the directory and extension.
func TestIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ID returns the explicit TestID, or one derived from the path
func (s Source) ID() string {
	if s.TestID != "" {
		return s.TestID
	}
	return TestIDFromPath(s.Path)
}
