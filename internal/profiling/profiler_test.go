package profiling

import (
	"context"
	"math"
	"testing"

	"gosobol/adapters/distribution"
	"gosobol/adapters/rng"
	"gosobol/adapters/sampler"
	"gosobol/domain/conductance"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
	"gosobol/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogramCountsEveryFiniteValue(t *testing.T) {
	data := []float64{0.1, 0.2, 0.2, 0.9, 1.0, math.NaN(), math.Inf(1)}
	h := Histogram("x", data, 4)

	assert.Equal(t, "x", h.Column)
	require.Len(t, h.Dividers, 5)
	require.Len(t, h.Counts, 4)
	assert.Equal(t, 5, Total(h))
	assert.Equal(t, 0.1, h.Dividers[0])
	assert.Greater(t, h.Dividers[4], 1.0)
	assert.Equal(t, 3.0, h.Counts[0])
	assert.Equal(t, 2.0, h.Counts[3])
}

func TestHistogramConstantColumn(t *testing.T) {
	h := Histogram("c", []float64{2, 2, 2}, 10)
	require.Len(t, h.Counts, 1)
	assert.Equal(t, 3.0, h.Counts[0])

	empty := Histogram("e", []float64{math.NaN()}, 10)
	assert.Empty(t, empty.Counts)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{1, 2, 3, 4, 5, math.NaN()})
	require.NoError(t, err)

	assert.Equal(t, 6, s.Count)
	assert.Equal(t, 1, s.NonFinite)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.InDelta(t, math.Sqrt(2), s.StdDev, 1e-12)
	assert.InDelta(t, 0, s.Skewness, 1e-12)

	empty, err := Summarize([]float64{math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, 1, empty.NonFinite)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestSummarizeSkewedData(t *testing.T) {
	data := make([]float64, 500)
	for i := range data {
		data[i] = math.Exp(float64(i) / 100)
	}
	s, err := Summarize(data)
	require.NoError(t, err)
	assert.Greater(t, s.Skewness, 1.0)
	assert.False(t, s.LooksNormal)
	assert.Less(t, s.NormalityP, 0.05)
}

func TestSummarizeUniformData(t *testing.T) {
	data := make([]float64, 1000)
	for i := range data {
		data[i] = float64(i) / 999
	}
	s, err := Summarize(data)
	require.NoError(t, err)
	assert.InDelta(t, 0, s.Skewness, 1e-9)
	assert.InDelta(t, 1.8, s.Kurtosis, 0.01)
	assert.False(t, s.LooksNormal)
	assert.Less(t, s.NormalityP, 0.05)
}

func TestProfileScenario(t *testing.T) {
	smp := sampler.NewSampler(rng.NewStreamAdapter(), nil)
	design, err := smp.Sample(context.Background(), ports.SampleRequest{N: 500, Dim: sensitivity.Dimension, Seed: 42})
	require.NoError(t, err)

	sc := scenario.Builtins()[0]
	params, err := distribution.NewMapper().Map(design, sc)
	require.NoError(t, err)
	outputs := sensitivity.Outputs(conductance.EvaluateRows(params.Rows(), conductance.DefaultMeasurementOffset))

	result := &sensitivity.Result{
		Total: sensitivity.IndexTable{Order: sensitivity.OrderTotal, Rows: []sensitivity.Index{
			{Parameters: []sensitivity.Parameter{sensitivity.Windspeed}, Estimate: 0.8},
			{Parameters: []sensitivity.Parameter{sensitivity.Height}, Estimate: 0.2},
		}},
	}

	profile, err := NewScenarioProfiler().Profile(design, params, outputs, result)
	require.NoError(t, err)

	require.Len(t, profile.UnitHistograms, 4)
	require.Len(t, profile.ParameterHistograms, 4)
	for i, h := range profile.UnitHistograms {
		assert.Equal(t, 500, Total(h), h.Column)
		assert.Equal(t, 500, Total(profile.ParameterHistograms[i]), h.Column)
	}
	assert.Equal(t, design.Rows(), profile.Output.Count)
	assert.Equal(t, design.Rows(), Total(profile.OutputHistogram))
	assert.Equal(t, sensitivity.Windspeed, profile.DominantParameter)
	assert.Greater(t, profile.Correlation, 0.8)

	_, err = NewScenarioProfiler().Profile(design, params, outputs[:10], result)
	assert.Error(t, err)
}
