package sensitivity

import (
	"fmt"
	"math"
	"strings"

	"gosobol/domain/core"
)

// Parameter names one input column of the design
type Parameter string

const (
	Windspeed          Parameter = "windspeed"
	Height             Parameter = "height"
	DisplacementScalar Parameter = "displacement_scalar"
	RoughnessScalar    Parameter = "roughness_scalar"
)

// Parameters is the fixed column order of every design and parameter set
var Parameters = []Parameter{Windspeed, Height, DisplacementScalar, RoughnessScalar}

// Dimension is the number of model parameters
const Dimension = 4

// Scheme selects the evaluation layout built from the two base matrices
type Scheme string

const (
	// SchemeFirstTotal evaluates A, AB_1..AB_d, B: N(d+2) rows, first and total indices.
	SchemeFirstTotal Scheme = "first-total"
	// SchemeSecondOrder adds BA_1..BA_d: N(2d+2) rows, first, total and second-order indices.
	SchemeSecondOrder Scheme = "second"
)

// ParseScheme parses a scheme name
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeFirstTotal, "first", "a":
		return SchemeFirstTotal, nil
	case SchemeSecondOrder, "", "second-order", "b":
		return SchemeSecondOrder, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownScheme, s)
}

// Valid reports whether s is a known scheme
func (s Scheme) Valid() bool {
	return s == SchemeFirstTotal || s == SchemeSecondOrder
}

// Blocks returns the number of N-row blocks in the evaluation matrix
func (s Scheme) Blocks(dim int) int {
	if s == SchemeSecondOrder {
		return 2*dim + 2
	}
	return dim + 2
}

// Rows returns the number of model evaluations the scheme needs
func (s Scheme) Rows(n, dim int) int {
	return n * s.Blocks(dim)
}

// DesignMatrix holds the two base unit-uniform matrices and the evaluation
// matrix derived from them. It is immutable after construction.
type DesignMatrix struct {
	n           int
	dim         int
	scheme      Scheme
	a           [][]float64
	b           [][]float64
	rows        [][]float64
	fingerprint core.Hash
}

// NewDesignMatrix validates A and B and builds the evaluation matrix for scheme.
// Row order is A, AB_1..AB_d, [BA_1..BA_d,] B where AB_i is A with column i
// taken from B and BA_i is B with column i taken from A.
func NewDesignMatrix(a, b [][]float64, scheme Scheme) (*DesignMatrix, error) {
	if !scheme.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownScheme, scheme)
	}
	n := len(a)
	if n == 0 || len(b) != n {
		return nil, fmt.Errorf("%w: base matrices have %d and %d rows", core.ErrInvalidSize, len(a), len(b))
	}
	dim := len(a[0])
	if dim == 0 {
		return nil, core.ErrInvalidSize
	}

	d := &DesignMatrix{
		n:      n,
		dim:    dim,
		scheme: scheme,
		a:      cloneMatrix(a),
		b:      cloneMatrix(b),
	}
	for i := 0; i < n; i++ {
		if len(d.a[i]) != dim || len(d.b[i]) != dim {
			return nil, fmt.Errorf("%w: row %d is not %d wide", core.ErrInvalidDesign, i, dim)
		}
		for j := 0; j < dim; j++ {
			if err := checkUnit(d.a[i][j], i, j); err != nil {
				return nil, err
			}
			if err := checkUnit(d.b[i][j], n+i, j); err != nil {
				return nil, err
			}
		}
	}

	d.rows = make([][]float64, 0, scheme.Rows(n, dim))
	d.rows = append(d.rows, d.a...)
	for i := 0; i < dim; i++ {
		d.rows = append(d.rows, swapColumn(d.a, d.b, i)...)
	}
	if scheme == SchemeSecondOrder {
		for i := 0; i < dim; i++ {
			d.rows = append(d.rows, swapColumn(d.b, d.a, i)...)
		}
	}
	d.rows = append(d.rows, d.b...)
	d.fingerprint = core.HashFloats(d.a, d.b)

	return d, nil
}

func checkUnit(v float64, row, col int) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return core.NewUnitRangeError(row, col, v)
	}
	return nil
}

func swapColumn(base, donor [][]float64, col int) [][]float64 {
	out := make([][]float64, len(base))
	for i := range base {
		row := make([]float64, len(base[i]))
		copy(row, base[i])
		row[col] = donor[i][col]
		out[i] = row
	}
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// N returns the base sample count
func (d *DesignMatrix) N() int { return d.n }

// Dim returns the number of parameters
func (d *DesignMatrix) Dim() int { return d.dim }

// Scheme returns the evaluation layout
func (d *DesignMatrix) Scheme() Scheme { return d.scheme }

// Rows returns the number of evaluation rows
func (d *DesignMatrix) Rows() int { return len(d.rows) }

// Value returns one cell of the evaluation matrix
func (d *DesignMatrix) Value(row, col int) float64 { return d.rows[row][col] }

// Row returns a copy of one evaluation row
func (d *DesignMatrix) Row(row int) []float64 {
	return append([]float64(nil), d.rows[row]...)
}

// Column returns a copy of one evaluation column
func (d *DesignMatrix) Column(col int) []float64 {
	out := make([]float64, len(d.rows))
	for i, row := range d.rows {
		out[i] = row[col]
	}
	return out
}

// A returns a copy of base matrix A
func (d *DesignMatrix) A() [][]float64 { return cloneMatrix(d.a) }

// B returns a copy of base matrix B
func (d *DesignMatrix) B() [][]float64 { return cloneMatrix(d.b) }

// Fingerprint identifies the base matrices bit-for-bit
func (d *DesignMatrix) Fingerprint() core.Hash { return d.fingerprint }

// BlockLabel names the block an evaluation row belongs to: "A", "B",
// "AB_i" or "BA_i" with i counted from 1.
func (d *DesignMatrix) BlockLabel(row int) string {
	k := row / d.n
	switch {
	case k == 0:
		return "A"
	case k == d.scheme.Blocks(d.dim)-1:
		return "B"
	case k <= d.dim:
		return fmt.Sprintf("AB_%d", k)
	default:
		return fmt.Sprintf("BA_%d", k-d.dim)
	}
}

// Outputs is one model value per evaluation row
type Outputs []float64

// NonFinite counts NaN and infinite entries
func (o Outputs) NonFinite() int {
	count := 0
	for _, v := range o {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			count++
		}
	}
	return count
}

// Blocks is the model output split along the design's block layout
type Blocks struct {
	A  []float64
	B  []float64
	AB [][]float64
	BA [][]float64 // nil under SchemeFirstTotal
}

// Split slices outputs into per-block vectors. The length must equal Rows().
func (d *DesignMatrix) Split(y Outputs) (*Blocks, error) {
	if len(y) != len(d.rows) {
		return nil, fmt.Errorf("%w: expected %d outputs, got %d", core.ErrLengthMismatch, len(d.rows), len(y))
	}
	n := d.n
	block := func(k int) []float64 { return y[k*n : (k+1)*n] }

	blocks := &Blocks{
		A:  block(0),
		AB: make([][]float64, d.dim),
	}
	for i := 0; i < d.dim; i++ {
		blocks.AB[i] = block(1 + i)
	}
	if d.scheme == SchemeSecondOrder {
		blocks.BA = make([][]float64, d.dim)
		for i := 0; i < d.dim; i++ {
			blocks.BA[i] = block(1 + d.dim + i)
		}
	}
	blocks.B = block(d.scheme.Blocks(d.dim) - 1)
	return blocks, nil
}
