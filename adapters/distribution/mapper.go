package distribution

import (
	"fmt"
	"math"

	"gosobol/domain/core"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"
	"gosobol/ports"

	"gonum.org/v1/gonum/stat/distuv"
)

// Quantiler is the inverse CDF of a marginal
type Quantiler interface {
	Quantile(p float64) float64
}

// NewQuantiler builds the gonum distribution for d
func NewQuantiler(d scenario.Distribution, param sensitivity.Parameter) (Quantiler, error) {
	if err := d.Validate(param); err != nil {
		return nil, errors.Classify(err)
	}
	switch d.Kind {
	case scenario.KindNormal:
		return distuv.Normal{Mu: d.Mean, Sigma: d.StdDev}, nil
	case scenario.KindUniform:
		return distuv.Uniform{Min: d.Min, Max: d.Max}, nil
	}
	return nil, errors.Classify(core.NewDistributionError(string(param), fmt.Sprintf("unknown kind %q", d.Kind)))
}

// Mapper applies per-column inverse-CDF transforms
type Mapper struct{}

// NewMapper creates a new distribution mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

var _ ports.DistributionMapperPort = (*Mapper)(nil)

// Map converts every evaluation row of design into scenario parameters
func (m *Mapper) Map(design *sensitivity.DesignMatrix, sc scenario.Scenario) (*scenario.ParameterSet, error) {
	if design.Dim() != sensitivity.Dimension {
		return nil, errors.Classify(fmt.Errorf("%w: scenario %s needs %d columns, design has %d", core.ErrInvalidDesign, sc.ID, sensitivity.Dimension, design.Dim()))
	}
	unit := make([][]float64, design.Rows())
	for i := range unit {
		unit[i] = design.Row(i)
	}
	return m.MapMatrix(unit, sc)
}

// MapMatrix converts an arbitrary unit matrix. Values outside [0,1] fail the
// whole mapping with INVALID_INPUT; nothing is clamped.
func (m *Mapper) MapMatrix(unit [][]float64, sc scenario.Scenario) (*scenario.ParameterSet, error) {
	quantilers, err := quantilersFor(sc)
	if err != nil {
		return nil, errors.Classify(err)
	}
	rows := make([][]float64, len(unit))
	for i, u := range unit {
		if len(u) != sensitivity.Dimension {
			return nil, errors.Classify(fmt.Errorf("%w: row %d has %d columns", core.ErrMalformedRow, i, len(u)))
		}
		out, err := MapRow(i, u, quantilers)
		if err != nil {
			return nil, errors.Classify(fmt.Errorf("scenario %s: %w", sc.ID, err))
		}
		rows[i] = out
	}
	return scenario.NewParameterSet(sc.ID, rows), nil
}

func quantilersFor(sc scenario.Scenario) ([]Quantiler, error) {
	quantilers := make([]Quantiler, sensitivity.Dimension)
	for j, d := range sc.Distributions {
		q, err := NewQuantiler(d, sensitivity.Parameters[j])
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.ID, err)
		}
		quantilers[j] = q
	}
	return quantilers, nil
}

// MapRow transforms one unit row
func MapRow(row int, u []float64, quantilers []Quantiler) ([]float64, error) {
	out := make([]float64, len(u))
	for j, p := range u {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, core.NewUnitRangeError(row, j, p)
		}
		out[j] = quantilers[j].Quantile(p)
	}
	return out, nil
}
