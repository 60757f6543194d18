package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(t *testing.T, n int, get func() float64) []float64 {
	t.Helper()
	out := make([]float64, n)
	for i := range out {
		out[i] = get()
	}
	return out
}

func TestSeededStreamDeterministic(t *testing.T) {
	ctx := context.Background()
	adapter := NewStreamAdapter()

	s1, err := adapter.SeededStream(ctx, "sampler", 42)
	require.NoError(t, err)
	s2, err := adapter.SeededStream(ctx, "sampler", 42)
	require.NoError(t, err)
	assert.Equal(t, draw(t, 16, s1.Float64), draw(t, 16, s2.Float64))

	s3, _ := adapter.SeededStream(ctx, "sampler", 43)
	s4, _ := adapter.SeededStream(ctx, "sampler", 42)
	assert.NotEqual(t, draw(t, 16, s3.Float64), draw(t, 16, s4.Float64))
}

func TestStreamSeparatesScenarios(t *testing.T) {
	ctx := context.Background()
	adapter := NewStreamAdapter()

	a, _ := adapter.Stream(ctx, "run", "bootstrap", "A", 42)
	b, _ := adapter.Stream(ctx, "run", "bootstrap", "B", 42)
	assert.NotEqual(t, draw(t, 8, a.Float64), draw(t, 8, b.Float64))

	again, _ := adapter.Stream(ctx, "run", "bootstrap", "A", 42)
	first, _ := adapter.Stream(ctx, "run", "bootstrap", "A", 42)
	assert.Equal(t, draw(t, 8, first.Float64), draw(t, 8, again.Float64))
}

func TestValidateSeed(t *testing.T) {
	ctx := context.Background()
	adapter := NewStreamAdapter()

	s, _ := adapter.SeededStream(ctx, "check", 7)
	expected := draw(t, 4, s.Float64)
	assert.NoError(t, adapter.ValidateSeed(ctx, "check", 7, expected))

	expected[2] += 0.5
	assert.Error(t, adapter.ValidateSeed(ctx, "check", 7, expected))
}
