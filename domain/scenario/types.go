package scenario

import (
	"fmt"
	"math"
	"strings"

	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
)

// DistributionKind names a supported marginal distribution
type DistributionKind string

const (
	KindNormal  DistributionKind = "normal"
	KindUniform DistributionKind = "uniform"
)

// Distribution is a marginal for one parameter. Normal uses (Mean, StdDev);
// uniform uses (Min, Max).
type Distribution struct {
	Kind   DistributionKind `yaml:"kind" json:"kind"`
	Mean   float64          `yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev float64          `yaml:"sd,omitempty" json:"sd,omitempty"`
	Min    float64          `yaml:"min,omitempty" json:"min,omitempty"`
	Max    float64          `yaml:"max,omitempty" json:"max,omitempty"`
}

// Normal builds a normal marginal
func Normal(mean, sd float64) Distribution {
	return Distribution{Kind: KindNormal, Mean: mean, StdDev: sd}
}

// Uniform builds a uniform marginal
func Uniform(min, max float64) Distribution {
	return Distribution{Kind: KindUniform, Min: min, Max: max}
}

// Validate rejects malformed parameters
func (d Distribution) Validate(param sensitivity.Parameter) error {
	switch d.Kind {
	case KindNormal:
		if !finite(d.Mean) || !finite(d.StdDev) || d.StdDev <= 0 {
			return core.NewDistributionError(string(param), fmt.Sprintf("normal needs finite mean and sd > 0, got mean=%v sd=%v", d.Mean, d.StdDev))
		}
	case KindUniform:
		if !finite(d.Min) || !finite(d.Max) || d.Min >= d.Max {
			return core.NewDistributionError(string(param), fmt.Sprintf("uniform needs finite min < max, got min=%v max=%v", d.Min, d.Max))
		}
	default:
		return core.NewDistributionError(string(param), fmt.Sprintf("unknown kind %q", d.Kind))
	}
	return nil
}

func (d Distribution) String() string {
	switch d.Kind {
	case KindNormal:
		return fmt.Sprintf("Normal(%g, %g)", d.Mean, d.StdDev)
	case KindUniform:
		return fmt.Sprintf("Uniform(%g, %g)", d.Min, d.Max)
	}
	return string(d.Kind)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Scenario assigns a marginal to every parameter, in design column order
type Scenario struct {
	ID            core.ScenarioID
	Description   string
	Distributions [sensitivity.Dimension]Distribution
}

// Validate checks every marginal
func (s Scenario) Validate() error {
	if s.ID.String() == "" {
		return fmt.Errorf("%w: scenario has no id", core.ErrInvalidDistribution)
	}
	for i, d := range s.Distributions {
		if err := d.Validate(sensitivity.Parameters[i]); err != nil {
			return fmt.Errorf("scenario %s: %w", s.ID, err)
		}
	}
	return nil
}

// Marginal returns the distribution assigned to param
func (s Scenario) Marginal(param sensitivity.Parameter) (Distribution, bool) {
	for i, p := range sensitivity.Parameters {
		if p == param {
			return s.Distributions[i], true
		}
	}
	return Distribution{}, false
}

// Summary renders "windspeed ~ Normal(3, 0.5); ..."
func (s Scenario) Summary() string {
	parts := make([]string, len(s.Distributions))
	for i, d := range s.Distributions {
		parts[i] = fmt.Sprintf("%s ~ %s", sensitivity.Parameters[i], d)
	}
	return strings.Join(parts, "; ")
}

// Built-in scenario identifiers
const (
	ScenarioA core.ScenarioID = "A"
	ScenarioB core.ScenarioID = "B"
)

// Builtins returns the two reference scenarios. Windspeed is in m/s and height in m.
func Builtins() []Scenario {
	return []Scenario{
		{
			ID:          ScenarioA,
			Description: "short canopy, moderate wind",
			Distributions: [sensitivity.Dimension]Distribution{
				Normal(3.00, 0.50),
				Uniform(3.5, 5.5),
				Normal(0.7, 0.007),
				Normal(0.1, 0.001),
			},
		},
		{
			ID:          ScenarioB,
			Description: "tall canopy, light wind",
			Distributions: [sensitivity.Dimension]Distribution{
				Normal(2.50, 0.30),
				Uniform(9.5, 10.5),
				Normal(0.7, 0.007),
				Normal(0.1, 0.001),
			},
		},
	}
}

// Find returns the scenario with the given id
func Find(scenarios []Scenario, id core.ScenarioID) (Scenario, error) {
	for _, s := range scenarios {
		if s.ID.Key() == id.Key() {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: %s", core.ErrScenarioNotFound, id)
}

// ParameterSet is the real-valued counterpart of a design's evaluation matrix
// for one scenario. Rows follow the design's row order.
type ParameterSet struct {
	Scenario core.ScenarioID
	rows     [][]float64
}

// NewParameterSet takes ownership of rows
func NewParameterSet(id core.ScenarioID, rows [][]float64) *ParameterSet {
	return &ParameterSet{Scenario: id, rows: rows}
}

// Len returns the number of rows
func (p *ParameterSet) Len() int { return len(p.rows) }

// Row returns a copy of one row
func (p *ParameterSet) Row(i int) []float64 {
	return append([]float64(nil), p.rows[i]...)
}

// Column returns a copy of one parameter column
func (p *ParameterSet) Column(col int) []float64 {
	out := make([]float64, len(p.rows))
	for i, row := range p.rows {
		out[i] = row[col]
	}
	return out
}

// Rows returns a deep copy of all rows
func (p *ParameterSet) Rows() [][]float64 {
	out := make([][]float64, len(p.rows))
	for i, row := range p.rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
