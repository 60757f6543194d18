// Package conductance holds the closed-form atmospheric conductance model.
//
// Inputs are windspeed in m/s and vegetation height in m; the result is in mm/s.
package conductance

import "math"

const (
	// DefaultMeasurementOffset is the height of the wind measurement above the canopy, in m.
	DefaultMeasurementOffset = 2.0
	// DefaultDisplacementScalar scales height into zero-plane displacement.
	DefaultDisplacementScalar = 0.7
	// DefaultRoughnessScalar scales height into roughness length.
	DefaultRoughnessScalar = 0.1

	vonKarmanFactor = 6.25 // 1/k^2 with k = 0.4
	mmPerMetre      = 1000
)

// Params are the geometric constants of the model
type Params struct {
	MeasurementOffset  float64
	DisplacementScalar float64
	RoughnessScalar    float64
}

// DefaultParams returns the reference constants
func DefaultParams() Params {
	return Params{
		MeasurementOffset:  DefaultMeasurementOffset,
		DisplacementScalar: DefaultDisplacementScalar,
		RoughnessScalar:    DefaultRoughnessScalar,
	}
}

// Conductance returns the atmospheric conductance in mm/s.
//
// A non-positive roughness length yields exactly 0. Displacement is floored at
// 0 but not capped, so when it reaches the measurement height the logarithm's
// argument is non-positive and the result is NaN; callers decide what to do with it.
func Conductance(v, h float64, p Params) float64 {
	zd := math.Max(p.DisplacementScalar*h, 0)
	zo := p.RoughnessScalar * h
	zm := h + p.MeasurementOffset

	if zo <= 0 {
		return 0
	}
	l := math.Log((zm - zd) / zo)
	return mmPerMetre * v / (vonKarmanFactor * l * l)
}

// Inputs is one row of model inputs in design column order
type Inputs struct {
	Windspeed          float64
	Height             float64
	DisplacementScalar float64
	RoughnessScalar    float64
}

// Evaluate applies Conductance to one row with the given measurement offset
func (in Inputs) Evaluate(measurementOffset float64) float64 {
	return Conductance(in.Windspeed, in.Height, Params{
		MeasurementOffset:  measurementOffset,
		DisplacementScalar: in.DisplacementScalar,
		RoughnessScalar:    in.RoughnessScalar,
	})
}

// EvaluateRows applies the model element-wise over rows laid out as
// (windspeed, height, displacement scalar, roughness scalar).
func EvaluateRows(rows [][]float64, measurementOffset float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = Inputs{
			Windspeed:          r[0],
			Height:             r[1],
			DisplacementScalar: r[2],
			RoughnessScalar:    r[3],
		}.Evaluate(measurementOffset)
	}
	return out
}
