package ports

import (
	"context"

	"gosobol/domain/sensitivity"
)

// NonFinitePolicy decides what happens when model outputs contain NaN or Inf
type NonFinitePolicy string

const (
	// NonFiniteFail aborts estimation
	NonFiniteFail NonFinitePolicy = "fail"
	// NonFinitePropagate lets non-finite values flow into the indices
	NonFinitePropagate NonFinitePolicy = "propagate"
)

// EstimateOptions tunes one estimation
type EstimateOptions struct {
	Resamples   int
	Confidence  float64
	Seed        int64
	ScenarioKey string
	NonFinite   NonFinitePolicy
}

// EstimatorPort computes Sobol indices with bootstrap intervals
type EstimatorPort interface {
	Estimate(ctx context.Context, design *sensitivity.DesignMatrix, outputs sensitivity.Outputs, opts EstimateOptions) (*sensitivity.Result, error)
}
