package run

import (
	"fmt"
	"sort"

	"suitecompare/domain/core"
)

// ArtifactKind classifies a file written by a run
type ArtifactKind string

const (
	ArtifactWorkbook ArtifactKind = "workbook"
	ArtifactChart    ArtifactKind = "chart"
	ArtifactSummary  ArtifactKind = "summary"
	ArtifactCache    ArtifactKind = "cache"
)

// Artifact is one written file, relative to the output directory
type Artifact struct {
	Kind ArtifactKind `yaml:"kind"`
	Path string       `yaml:"path"`
}

// Manifest describes one run: its identity, the inputs it saw and the
// artifacts it wrote. It is the last file written by a run.
type Manifest struct {
	RunID         core.RunID       `yaml:"run_id"`
	CreatedAt     core.Timestamp   `yaml:"created_at"`
	CodeVersion   string           `yaml:"code_version"`
	ConfigHash    core.ConfigHash  `yaml:"config_hash"`
	DatasetHash   core.DatasetHash `yaml:"dataset_hash"`
	Fingerprint   core.Hash        `yaml:"fingerprint"`
	Alpha         float64          `yaml:"alpha"`
	Metrics       []string         `yaml:"metrics"`
	Granularities []string         `yaml:"granularities"`
	Records       int              `yaml:"records"`
	Tests         int              `yaml:"tests"`
	Skipped       []string         `yaml:"skipped_sources,omitempty"`
	Artifacts     []Artifact       `yaml:"artifacts"`
}

// NewManifest creates a manifest for a new run
func NewManifest(codeVersion string, configHash core.ConfigHash, datasetHash core.DatasetHash) *Manifest {
	return &Manifest{
		RunID:       core.NewRunID(),
		CreatedAt:   core.Now(),
		CodeVersion: codeVersion,
		ConfigHash:  configHash,
		DatasetHash: datasetHash,
		Fingerprint: ComputeFingerprint(configHash, datasetHash, codeVersion),
	}
}

// ComputeFingerprint hashes everything that determines a run's numbers.
// Two runs with equal fingerprints produce identical result tables.
func ComputeFingerprint(configHash core.ConfigHash, datasetHash core.DatasetHash, codeVersion string) core.Hash {
	data := fmt.Sprintf("config:%s|dataset:%s|code:%s", configHash, datasetHash, codeVersion)
	return core.NewHash([]byte(data))
}

// Add records a written artifact
func (m *Manifest) Add(kind ArtifactKind, path string) {
	m.Artifacts = append(m.Artifacts, Artifact{Kind: kind, Path: path})
}

// Paths returns the artifact paths in sorted order
func (m *Manifest) Paths() []string {
	out := make([]string, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		out = append(out, a.Path)
	}
	sort.Strings(out)
	return out
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("manifest", "run_id cannot be empty")
	}
	if m.ConfigHash == "" {
		return core.NewValidationError("manifest", "config_hash cannot be empty")
	}
	if m.DatasetHash == "" {
		return core.NewValidationError("manifest", "dataset_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewValidationError("manifest", "code_version cannot be empty")
	}
	if want := ComputeFingerprint(m.ConfigHash, m.DatasetHash, m.CodeVersion); want != m.Fingerprint {
		return core.NewHashMismatchError("fingerprint", want, m.Fingerprint)
	}
	return nil
}
