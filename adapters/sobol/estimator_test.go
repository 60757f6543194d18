package sobol

import (
	"context"
	"fmt"
	"math"
	"testing"

	"gosobol/adapters/rng"
	"gosobol/adapters/sampler"
	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"
	"gosobol/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDesign(t *testing.T, n int, scheme sensitivity.Scheme, kind ports.SamplerKind) *sensitivity.DesignMatrix {
	t.Helper()
	s := sampler.NewSampler(rng.NewStreamAdapter(), nil)
	design, err := s.Sample(context.Background(), ports.SampleRequest{
		N: n, Dim: sensitivity.Dimension, Seed: 42, Scheme: scheme, Kind: kind,
	})
	require.NoError(t, err)
	return design
}

func evaluate(design *sensitivity.DesignMatrix, f func(x []float64) float64) sensitivity.Outputs {
	out := make(sensitivity.Outputs, design.Rows())
	for i := range out {
		out[i] = f(design.Row(i))
	}
	return out
}

func newTestEstimator() *Estimator {
	return NewEstimator(rng.NewStreamAdapter(), nil)
}

func TestEstimateAdditiveModel(t *testing.T) {
	design := sampleDesign(t, 4096, sensitivity.SchemeSecondOrder, ports.SamplerSobol)
	y := evaluate(design, func(x []float64) float64 { return 4*x[0] + 2*x[1] + x[2] })

	result, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{Seed: 42, ScenarioKey: "linear"})
	require.NoError(t, err)

	want := map[string]float64{
		"windspeed":           16.0 / 21,
		"height":              4.0 / 21,
		"displacement_scalar": 1.0 / 21,
		"roughness_scalar":    0,
	}
	for name, w := range want {
		first, ok := result.First.Lookup(name)
		require.True(t, ok, name)
		assert.InDelta(t, w, first.Estimate, 0.02, "first %s", name)

		total, ok := result.Total.Lookup(name)
		require.True(t, ok, name)
		assert.InDelta(t, w, total.Estimate, 0.02, "total %s", name)
	}

	require.NotNil(t, result.Second)
	assert.Len(t, result.Second.Rows, 6)
	for _, row := range result.Second.Rows {
		assert.InDelta(t, 0, row.Estimate, 0.02, row.Name())
	}

	top, _ := result.Total.Top()
	assert.Equal(t, "windspeed", top.Name())
	assert.Equal(t, DefaultResamples, result.Resamples)
	assert.Equal(t, DefaultConfidence, result.Confidence)
}

func TestEstimateInteractionModel(t *testing.T) {
	// y = x0·x1: S0 = S1 = 3/7, S01 = 1/7, T0 = T1 = 4/7
	design := sampleDesign(t, 8192, sensitivity.SchemeSecondOrder, ports.SamplerSobol)
	y := evaluate(design, func(x []float64) float64 { return x[0] * x[1] })

	result, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{Resamples: 50})
	require.NoError(t, err)

	for _, name := range []string{"windspeed", "height"} {
		first, _ := result.First.Lookup(name)
		total, _ := result.Total.Lookup(name)
		assert.InDelta(t, 3.0/7, first.Estimate, 0.03, name)
		assert.InDelta(t, 4.0/7, total.Estimate, 0.03, name)
	}
	pair, ok := result.Second.Lookup("windspeed:height")
	require.True(t, ok)
	assert.InDelta(t, 1.0/7, pair.Estimate, 0.03)
	assert.Equal(t, "windspeed:height", result.Second.Rows[0].Name())
}

func TestEstimateFirstTotalSchemeHasNoSecondOrder(t *testing.T) {
	design := sampleDesign(t, 256, sensitivity.SchemeFirstTotal, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return x[0] + x[1] })

	result, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{})
	require.NoError(t, err)
	assert.Nil(t, result.Second)
	assert.Len(t, result.Tables(), 2)
}

func TestEstimateTablesSortedDescending(t *testing.T) {
	design := sampleDesign(t, 512, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return x[3]*5 + x[0] })

	result, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{})
	require.NoError(t, err)

	for _, table := range result.Tables() {
		for i := 1; i < len(table.Rows); i++ {
			assert.GreaterOrEqual(t, table.Rows[i-1].Estimate, table.Rows[i].Estimate, table.Order)
		}
	}
	top, _ := result.Total.Top()
	assert.Equal(t, "roughness_scalar", top.Name())
}

func TestEstimateBootstrapDeterministic(t *testing.T) {
	design := sampleDesign(t, 300, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return x[0] + x[1]*x[2] })
	opts := ports.EstimateOptions{Seed: 42, ScenarioKey: "A"}

	r1, err := newTestEstimator().Estimate(context.Background(), design, y, opts)
	require.NoError(t, err)
	r2, err := newTestEstimator().Estimate(context.Background(), design, y, opts)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	opts.ScenarioKey = "B"
	r3, err := newTestEstimator().Estimate(context.Background(), design, y, opts)
	require.NoError(t, err)
	assert.Equal(t, r1.First.Rows[0].Estimate, r3.First.Rows[0].Estimate)
	assert.NotEqual(t, r1.First.Rows[0].Interval, r3.First.Rows[0].Interval)
}

func TestEstimateIntervalsBracketEstimates(t *testing.T) {
	design := sampleDesign(t, 1000, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return 3*x[0] + x[1] })

	result, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{Resamples: 200})
	require.NoError(t, err)

	ws, _ := result.Total.Lookup("windspeed")
	assert.True(t, ws.Interval.Min <= ws.Estimate && ws.Estimate <= ws.Interval.Max, "%+v", ws)
	assert.Less(t, ws.Interval.Min, ws.Interval.Max)
	assert.True(t, sensitivity.ExcludesZero(ws.Interval))
}

func TestEstimateLengthMismatch(t *testing.T) {
	design := sampleDesign(t, 10, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := make(sensitivity.Outputs, design.Rows()-1)

	_, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeLengthMismatch, errors.GetCode(err))
	assert.Contains(t, err.Error(), fmt.Sprintf("expected %d model outputs, got %d", design.Rows(), design.Rows()-1))
}

func TestEstimateNonFinitePolicy(t *testing.T) {
	design := sampleDesign(t, 50, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return x[0] })
	y[3] = math.NaN()

	_, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeNonFiniteOutput, errors.GetCode(err))

	result, err := newTestEstimator().Estimate(context.Background(), design, y, ports.EstimateOptions{NonFinite: ports.NonFinitePropagate})
	require.NoError(t, err)
	ws, _ := result.First.Lookup("windspeed")
	assert.True(t, math.IsNaN(ws.Estimate))
	assert.True(t, math.IsNaN(ws.Interval.Min))
}

func TestEstimateRejectsBadOptions(t *testing.T) {
	design := sampleDesign(t, 10, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return x[0] })

	tests := []ports.EstimateOptions{
		{Resamples: -1},
		{Confidence: 1.5},
		{Confidence: -0.1},
		{NonFinite: "ignore"},
	}
	for _, opts := range tests {
		_, err := newTestEstimator().Estimate(context.Background(), design, y, opts)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err), "%+v", opts)
	}
}

func TestEstimateHonoursCancellation(t *testing.T) {
	design := sampleDesign(t, 10, sensitivity.SchemeSecondOrder, ports.SamplerRandom)
	y := evaluate(design, func(x []float64) float64 { return x[0] })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestEstimator().Estimate(ctx, design, y, ports.EstimateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPercentileInterval(t *testing.T) {
	replicates := make([]float64, 100)
	for i := range replicates {
		replicates[i] = float64(100 - i)
	}
	iv := percentileInterval(replicates, 0.9)
	assert.Equal(t, 5.0, iv.Min)
	assert.Equal(t, 95.0, iv.Max)
}
