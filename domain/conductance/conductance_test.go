package conductance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConductanceReferencePoint(t *testing.T) {
	// zd = 3.15, zo = 0.45, zm = 6.5
	got := Conductance(3.0, 4.5, DefaultParams())
	assert.InDelta(t, 119.10882952794213, got, 1e-9)
}

func TestConductanceMatchesClosedForm(t *testing.T) {
	tests := []struct {
		v, h, kd, ko float64
	}{
		{3.0, 4.5, 0.7, 0.1},
		{2.5, 10.0, 0.7, 0.1},
		{0.4, 3.6, 0.69, 0.101},
		{5.2, 5.4, 0.71, 0.099},
	}
	for _, tt := range tests {
		p := Params{MeasurementOffset: 2.0, DisplacementScalar: tt.kd, RoughnessScalar: tt.ko}
		zd := tt.kd * tt.h
		zo := tt.ko * tt.h
		zm := tt.h + 2.0
		l := math.Log((zm - zd) / zo)
		want := 1000 * tt.v / (6.25 * l * l)
		assert.InDelta(t, want, Conductance(tt.v, tt.h, p), 1e-9)
	}
}

func TestConductanceZeroRoughness(t *testing.T) {
	p := DefaultParams()
	p.RoughnessScalar = 0
	assert.Equal(t, 0.0, Conductance(3.0, 4.5, p))

	assert.Equal(t, 0.0, Conductance(3.0, 0, DefaultParams()))
	assert.Equal(t, 0.0, Conductance(-7.0, 0, DefaultParams()))

	p.RoughnessScalar = -0.1
	assert.Equal(t, 0.0, Conductance(3.0, 4.5, p))
}

func TestConductanceClampsNegativeDisplacement(t *testing.T) {
	// kd*h < 0 must behave as zd = 0
	p := Params{MeasurementOffset: 2.0, DisplacementScalar: -0.5, RoughnessScalar: 0.1}
	l := math.Log((4.5 + 2.0) / 0.45)
	want := 1000 * 3.0 / (6.25 * l * l)
	assert.InDelta(t, want, Conductance(3.0, 4.5, p), 1e-9)
}

func TestConductanceDisplacementAboveMeasurementIsNaN(t *testing.T) {
	// zd = 2.0*4.5 = 9 > zm = 6.5, log of a negative number
	p := Params{MeasurementOffset: 2.0, DisplacementScalar: 2.0, RoughnessScalar: 0.1}
	assert.True(t, math.IsNaN(Conductance(3.0, 4.5, p)))
}

func TestConductanceMonotonicInWindspeed(t *testing.T) {
	p := DefaultParams()
	prev := Conductance(0, 4.5, p)
	for v := 0.25; v <= 10; v += 0.25 {
		cur := Conductance(v, 4.5, p)
		assert.Greater(t, cur, prev, "v=%v", v)
		prev = cur
	}
}

func TestConductanceNegativeWindspeedPassesThrough(t *testing.T) {
	assert.InDelta(t, -Conductance(3.0, 4.5, DefaultParams()), Conductance(-3.0, 4.5, DefaultParams()), 1e-12)
}

func TestEvaluateRows(t *testing.T) {
	rows := [][]float64{
		{3.0, 4.5, 0.7, 0.1},
		{3.0, 4.5, 0.7, 0.0},
	}
	out := EvaluateRows(rows, DefaultMeasurementOffset)
	assert.Len(t, out, 2)
	assert.InDelta(t, 119.10882952794213, out[0], 1e-9)
	assert.Equal(t, 0.0, out[1])
}
