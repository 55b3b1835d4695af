package run

import (
	"errors"
	"testing"

	"suitecompare/domain/core"

	"gopkg.in/yaml.v3"
)

func TestComputeFingerprint_Deterministic(t *testing.T) {
	configHash := core.ConfigHash("test-config")
	datasetHash := core.DatasetHash("test-dataset")

	fp1 := ComputeFingerprint(configHash, datasetHash, "1.0.0")
	fp2 := ComputeFingerprint(configHash, datasetHash, "1.0.0")

	if fp1 != fp2 {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1, fp2)
	}
}

func TestComputeFingerprint_Unique(t *testing.T) {
	base := ComputeFingerprint("test-config", "test-dataset", "1.0.0")

	testCases := []struct {
		name string
		fp   core.Hash
	}{
		{"different config", ComputeFingerprint("other-config", "test-dataset", "1.0.0")},
		{"different dataset", ComputeFingerprint("test-config", "other-dataset", "1.0.0")},
		{"different code", ComputeFingerprint("test-config", "test-dataset", "1.0.1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp == base {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestManifest_Complete(t *testing.T) {
	m := NewManifest("1.0.0", "test-config", "test-dataset")
	m.Add(ArtifactWorkbook, "03_location.xlsx")
	m.Add(ArtifactWorkbook, "01_normality.xlsx")

	if core.ID(m.RunID).IsEmpty() {
		t.Error("RunID not set")
	}
	if m.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Manifest validation failed: %v", err)
	}

	paths := m.Paths()
	if len(paths) != 2 || paths[0] != "01_normality.xlsx" {
		t.Errorf("unexpected artifact paths %v", paths)
	}
}

func TestManifest_ValidateTampered(t *testing.T) {
	m := NewManifest("1.0.0", "test-config", "test-dataset")
	m.DatasetHash = "edited"

	err := m.Validate()
	if !errors.Is(err, core.ErrHashMismatch) {
		t.Errorf("expected hash mismatch, got %v", err)
	}

	m = NewManifest("", "test-config", "test-dataset")
	if m.Validate() == nil {
		t.Error("expected missing code version to fail validation")
	}
}

func TestManifest_YAMLRoundTrip(t *testing.T) {
	m := NewManifest("1.0.0", "test-config", "test-dataset")
	m.Alpha = 0.05
	m.Metrics = []string{"instr_pct", "mutation_score"}
	m.Add(ArtifactChart, "plots/boxplots_aggregated.png")

	data, err := yaml.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}

	var back Manifest
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.RunID != m.RunID || back.Fingerprint != m.Fingerprint {
		t.Errorf("identity changed in round trip: %+v", back)
	}
	if !back.CreatedAt.Time().Equal(m.CreatedAt.Time()) {
		t.Errorf("created_at changed: %s vs %s", back.CreatedAt, m.CreatedAt)
	}
	if err := back.Validate(); err != nil {
		t.Errorf("round-tripped manifest invalid: %v", err)
	}
}
