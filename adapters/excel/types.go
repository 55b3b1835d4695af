package excel

import "strings"

// RawRowData represents a row of raw data as header -> cell text
type RawRowData map[string]string

// Table is the content of one CSV file or worksheet
type Table struct {
	Headers []string     // Column headers, trimmed
	Rows    []RawRowData // Data rows in file order
}

// HasColumn reports whether the header row contains name, ignoring case
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Column returns the header spelling matching name, ignoring case
func (t *Table) Column(name string) (string, bool) {
	for _, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}
