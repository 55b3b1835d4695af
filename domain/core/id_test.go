package core

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid.String(), false},
		{"  " + valid.String() + " ", false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		got, err := ParseRunID(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("ParseRunID(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRunID(%q) unexpected error: %v", tt.input, err)
		}
		if got != valid {
			t.Errorf("ParseRunID(%q) = %s, want %s", tt.input, got, valid)
		}
	}
}

type hashRow struct {
	id string
	v  float64
}

func (r hashRow) HashKey() string { return JoinKey(r.id, r.v) }

// TestComputeDatasetHash tests that the dataset hash is order sensitive and
// exact on floats
func TestComputeDatasetHash(t *testing.T) {
	a := []hashRow{{"T1", 0.1}, {"T2", 2}}
	b := []hashRow{{"T2", 2}, {"T1", 0.1}}
	c := []hashRow{{"T1", 0.1 + 1e-15}, {"T2", 2}}

	if ComputeDatasetHash(a) != ComputeDatasetHash(a) {
		t.Error("Expected identical rows to hash identically")
	}
	if ComputeDatasetHash(a) == ComputeDatasetHash(b) {
		t.Error("Expected row order to change the hash")
	}
	if ComputeDatasetHash(a) == ComputeDatasetHash(c) {
		t.Error("Expected a one-ulp float change to change the hash")
	}
	if len(ComputeDatasetHash(a).String()) != 64 {
		t.Errorf("Expected a sha256 hex digest, got %q", ComputeDatasetHash(a))
	}
}

// TestHashShort tests the abbreviated form
func TestHashShort(t *testing.T) {
	h := NewHash([]byte("suitecompare"))
	if len(h.Short()) != 12 || string(h)[:12] != h.Short() {
		t.Errorf("Short() = %q", h.Short())
	}
	if Hash("abc").Short() != "abc" {
		t.Error("Expected short hashes to be returned unchanged")
	}
}

// TestTimestampYAML tests the RFC 3339 round trip
func TestTimestampYAML(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))

	out, err := yaml.Marshal(map[string]Timestamp{"at": ts})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "at: \"2026-03-14T09:26:53Z\"\n" {
		t.Errorf("unexpected yaml %q", out)
	}

	var back map[string]Timestamp
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if !back["at"].Time().Equal(ts.Time()) {
		t.Errorf("round trip changed time: %s", back["at"])
	}
}
