package run

import (
	"crypto/sha256"
	"fmt"

	"gosobol/domain/core"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
)

// RunFingerprint ensures deterministic replay: two runs with the same
// fingerprint produce the same design and the same indices.
type RunFingerprint struct {
	DesignHash  core.Hash `json:"design_hash"`
	Seed        int64     `json:"seed"`
	SampleCount int       `json:"sample_count"`
	Scheme      string    `json:"scheme"`
	Sampler     string    `json:"sampler"`
	Resamples   int       `json:"resamples"`
	CodeVersion string    `json:"code_version"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(designHash core.Hash, seed int64, sampleCount int, scheme, sampler string, resamples int, codeVersion string) RunFingerprint {
	return RunFingerprint{
		DesignHash:  designHash,
		Seed:        seed,
		SampleCount: sampleCount,
		Scheme:      scheme,
		Sampler:     sampler,
		Resamples:   resamples,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(designHash, seed, sampleCount, scheme, sampler, resamples, codeVersion),
	}
}

func computeRunFingerprint(designHash core.Hash, seed int64, sampleCount int, scheme, sampler string, resamples int, codeVersion string) core.Hash {
	data := fmt.Sprintf("design:%s|seed:%d|n:%d|scheme:%s|sampler:%s|resamples:%d|code:%s",
		designHash, seed, sampleCount, scheme, sampler, resamples, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// Histogram is a binned count of one sample column
type Histogram struct {
	Column   string    `json:"column"`
	Dividers []float64 `json:"dividers"`
	Counts   []float64 `json:"counts"`
}

// Summary describes the distribution of model outputs
type Summary struct {
	Count     int     `json:"count"`
	NonFinite int     `json:"non_finite"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Median    float64 `json:"median"`
	Q25       float64 `json:"q25"`
	Q75       float64 `json:"q75"`
	Skewness  float64 `json:"skewness"`
	Kurtosis  float64 `json:"kurtosis"`
	// NormalityP is an approximate p-value from a skewness/kurtosis test
	NormalityP  float64 `json:"normality_p"`
	LooksNormal bool    `json:"looks_normal"`
}

// Profile holds the descriptive view of one scenario: what the original
// notebook drew as histograms, a density and a scatter.
type Profile struct {
	UnitHistograms      []Histogram `json:"unit_histograms"`
	ParameterHistograms []Histogram `json:"parameter_histograms"`
	Output              Summary     `json:"output"`
	OutputHistogram     Histogram   `json:"output_histogram"`
	// DominantParameter is the top total-effect parameter and Correlation its
	// Pearson correlation with the output over the A block.
	DominantParameter sensitivity.Parameter `json:"dominant_parameter"`
	Correlation       float64               `json:"correlation"`
}

// ScenarioReport is everything computed for one scenario
type ScenarioReport struct {
	Scenario scenario.Scenario   `json:"scenario"`
	Result   *sensitivity.Result `json:"result"`
	Profile  *Profile            `json:"profile,omitempty"`
}

// Report is the terminal artifact of one pipeline execution
type Report struct {
	Manifest  *RunManifest     `json:"manifest"`
	Scenarios []ScenarioReport `json:"scenarios"`
}

// Scenario returns the report for id
func (r *Report) Scenario(id core.ScenarioID) (*ScenarioReport, bool) {
	for i := range r.Scenarios {
		if r.Scenarios[i].Scenario.ID == id {
			return &r.Scenarios[i], true
		}
	}
	return nil, false
}
