package models

import (
	"database/sql"
	"time"
)

// RunRecord is one archived run manifest
type RunRecord struct {
	RunID             string    `json:"run_id" db:"run_id"`
	Seed              int64     `json:"seed" db:"seed"`
	SampleCount       int       `json:"sample_count" db:"sample_count"`
	Scheme            string    `json:"scheme" db:"scheme"`
	Sampler           string    `json:"sampler" db:"sampler"`
	Resamples         int       `json:"resamples" db:"resamples"`
	Confidence        float64   `json:"confidence" db:"confidence"`
	MeasurementOffset float64   `json:"measurement_offset" db:"measurement_offset"`
	CodeVersion       string    `json:"code_version" db:"code_version"`
	DesignHash        string    `json:"design_hash" db:"design_hash"`
	Fingerprint       string    `json:"fingerprint" db:"fingerprint"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// ScenarioRecord is one scenario evaluated within a run
type ScenarioRecord struct {
	RunID          string          `json:"run_id" db:"run_id"`
	ScenarioID     string          `json:"scenario_id" db:"scenario_id"`
	Description    string          `json:"description" db:"description"`
	Distributions  string          `json:"distributions" db:"distributions"`
	OutputMean     sql.NullFloat64 `json:"output_mean" db:"output_mean"`
	OutputVariance sql.NullFloat64 `json:"output_variance" db:"output_variance"`
}

// IndexRecord is one estimated index row. Non-finite values are stored as NULL.
type IndexRecord struct {
	RunID       string          `json:"run_id" db:"run_id"`
	ScenarioID  string          `json:"scenario_id" db:"scenario_id"`
	IndexOrder  string          `json:"index_order" db:"index_order"`
	Parameters  string          `json:"parameters" db:"parameters"`
	Rank        int             `json:"row_rank" db:"row_rank"`
	Estimate    sql.NullFloat64 `json:"estimate" db:"estimate"`
	CIMin       sql.NullFloat64 `json:"ci_min" db:"ci_min"`
	CIMax       sql.NullFloat64 `json:"ci_max" db:"ci_max"`
	Influential bool            `json:"influential" db:"influential"`
}
