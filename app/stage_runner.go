package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"gosobol/domain/conductance"
	"gosobol/domain/run"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/errors"
	"gosobol/ports"
)

// StageName identifies one step of the per-scenario pipeline
type StageName string

const (
	StageMap      StageName = "map"
	StageEvaluate StageName = "evaluate"
	StageEstimate StageName = "estimate"
	StageProfile  StageName = "profile"
)

// StageOptions carries the run-wide settings every scenario shares
type StageOptions struct {
	Seed              int64
	Resamples         int
	Confidence        float64
	NonFinite         ports.NonFinitePolicy
	MeasurementOffset float64 // zero selects conductance.DefaultMeasurementOffset
	Policy            sensitivity.SignificancePolicy
}

// StageRunner executes mapping, evaluation, estimation and profiling for one
// scenario against a shared design.
type StageRunner struct {
	mapper    ports.DistributionMapperPort
	estimator ports.EstimatorPort
	profiler  ports.ProfilerPort
	logger    *internal.Logger
}

// NewStageRunner creates a new stage runner
func NewStageRunner(mapper ports.DistributionMapperPort, estimator ports.EstimatorPort, profiler ports.ProfilerPort, logger *internal.Logger) *StageRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &StageRunner{
		mapper:    mapper,
		estimator: estimator,
		profiler:  profiler,
		logger:    logger,
	}
}

// RunScenario executes every stage for sc. The design is only read.
func (r *StageRunner) RunScenario(ctx context.Context, design *sensitivity.DesignMatrix, sc scenario.Scenario, opts StageOptions) (*run.ScenarioReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := r.logger.With("scenario", sc.ID.String())

	start := time.Now()
	params, err := r.mapper.Map(design, sc)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %s stage failed: %w", sc.ID, StageMap, err)
	}
	log.Debug("stage %s completed in %s", StageMap, time.Since(start))

	start = time.Now()
	offset := opts.MeasurementOffset
	if offset == 0 {
		offset = conductance.DefaultMeasurementOffset
	}
	if err := checkOffset(offset); err != nil {
		return nil, fmt.Errorf("scenario %s: %s stage failed: %w", sc.ID, StageEvaluate, err)
	}
	outputs := sensitivity.Outputs(conductance.EvaluateRows(params.Rows(), offset))
	log.Debug("stage %s completed in %s (%d rows, %d non-finite)", StageEvaluate, time.Since(start), len(outputs), outputs.NonFinite())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start = time.Now()
	result, err := r.estimator.Estimate(ctx, design, outputs, ports.EstimateOptions{
		Resamples:   opts.Resamples,
		Confidence:  opts.Confidence,
		Seed:        opts.Seed,
		ScenarioKey: sc.ID.String(),
		NonFinite:   opts.NonFinite,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %s stage failed: %w", sc.ID, StageEstimate, err)
	}
	policy := opts.Policy
	if policy == nil {
		policy = sensitivity.ExcludesZero
	}
	result.Classify(policy)
	log.Debug("stage %s completed in %s", StageEstimate, time.Since(start))

	report := &run.ScenarioReport{Scenario: sc, Result: result}
	if r.profiler == nil {
		return report, nil
	}

	start = time.Now()
	profile, err := r.profiler.Profile(design, params, outputs, result)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %s stage failed: %w", sc.ID, StageProfile, err)
	}
	report.Profile = profile
	log.Debug("stage %s completed in %s", StageProfile, time.Since(start))

	return report, nil
}

// checkOffset rejects measurement offsets the conductance model cannot use
func checkOffset(offset float64) error {
	if offset <= 0 || math.IsNaN(offset) || math.IsInf(offset, 0) {
		return errors.ConfigInvalid(fmt.Sprintf("measurement offset must be a positive finite height, got %v", offset))
	}
	return nil
}
