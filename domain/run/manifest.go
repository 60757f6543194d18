package run

import (
	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
)

// RunManifest records every input of a run so it can be replayed
type RunManifest struct {
	RunID             core.RunID         `json:"run_id"`
	Seed              int64              `json:"seed"`
	SampleCount       int                `json:"sample_count"`
	Scheme            sensitivity.Scheme `json:"scheme"`
	Sampler           string             `json:"sampler"`
	Resamples         int                `json:"resamples"`
	Confidence        float64            `json:"confidence"`
	MeasurementOffset float64            `json:"measurement_offset"`
	CodeVersion       string             `json:"code_version"`
	Fingerprint       RunFingerprint     `json:"fingerprint"`
	CreatedAt         core.Timestamp     `json:"created_at"`
}

// NewRunManifest creates a manifest for a design that has already been drawn
func NewRunManifest(
	runID core.RunID,
	design *sensitivity.DesignMatrix,
	seed int64,
	sampler string,
	resamples int,
	confidence float64,
	measurementOffset float64,
	codeVersion string,
) *RunManifest {
	fingerprint := NewRunFingerprint(design.Fingerprint(), seed, design.N(), string(design.Scheme()), sampler, resamples, codeVersion)

	return &RunManifest{
		RunID:             runID,
		Seed:              seed,
		SampleCount:       design.N(),
		Scheme:            design.Scheme(),
		Sampler:           sampler,
		Resamples:         resamples,
		Confidence:        confidence,
		MeasurementOffset: measurementOffset,
		CodeVersion:       codeVersion,
		Fingerprint:       fingerprint,
		CreatedAt:         core.Now(),
	}
}

// Validate checks if the manifest is complete
func (r *RunManifest) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if r.SampleCount <= 0 {
		return core.NewValidationError("run_manifest", "sample_count must be positive")
	}
	if r.Fingerprint.DesignHash.IsEmpty() {
		return core.NewValidationError("run_manifest", "design_hash cannot be empty")
	}
	if r.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	return nil
}
