package profiling

import (
	"fmt"
	"math"

	"gosobol/domain/core"
	"gosobol/domain/run"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"

	"gonum.org/v1/gonum/stat"
)

// ScenarioProfiler builds the descriptive view of one scenario's samples
type ScenarioProfiler struct {
	Bins int
}

// NewScenarioProfiler creates a profiler with the default bin count
func NewScenarioProfiler() *ScenarioProfiler {
	return &ScenarioProfiler{Bins: DefaultBins}
}

// Profile histograms the unit and mapped A-block columns, summarizes every
// output and correlates the output with the top total-effect parameter.
func (p *ScenarioProfiler) Profile(design *sensitivity.DesignMatrix, params *scenario.ParameterSet, outputs sensitivity.Outputs, result *sensitivity.Result) (*run.Profile, error) {
	if params.Len() != design.Rows() || len(outputs) != design.Rows() {
		return nil, fmt.Errorf("%w: design has %d rows, parameters %d, outputs %d",
			core.ErrLengthMismatch, design.Rows(), params.Len(), len(outputs))
	}

	n := design.N()
	profile := &run.Profile{}

	for col := 0; col < design.Dim(); col++ {
		name := string(sensitivity.Parameters[col])
		profile.UnitHistograms = append(profile.UnitHistograms, Histogram(name, design.Column(col)[:n], p.Bins))
		profile.ParameterHistograms = append(profile.ParameterHistograms, Histogram(name, params.Column(col)[:n], p.Bins))
	}

	summary, err := Summarize(outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize outputs: %w", err)
	}
	profile.Output = summary
	profile.OutputHistogram = Histogram("conductance", outputs, p.Bins)

	profile.Correlation = math.NaN()
	if result == nil {
		return profile, nil
	}
	top, ok := result.Total.Top()
	if !ok || len(top.Parameters) != 1 {
		return profile, nil
	}
	profile.DominantParameter = top.Parameters[0]
	col := parameterColumn(top.Parameters[0])
	if col < 0 {
		return profile, nil
	}

	x := params.Column(col)[:n]
	y := []float64(outputs[:n])
	xs, ys := make([]float64, 0, n), make([]float64, 0, n)
	for i := range y {
		if math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) > 1 {
		profile.Correlation = stat.Correlation(xs, ys, nil)
	}
	return profile, nil
}

func parameterColumn(p sensitivity.Parameter) int {
	for i, q := range sensitivity.Parameters {
		if q == p {
			return i
		}
	}
	return -1
}
