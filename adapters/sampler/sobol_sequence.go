package sampler

import (
	"fmt"
	"math/bits"

	"gosobol/domain/core"
)

const sobolBits = 32

// directionParams are the primitive polynomial degree s, coefficients a and
// initial direction numbers m for dimensions 2 and up (Joe & Kuo, 2008).
var directionParams = []struct {
	s int
	a uint32
	m []uint32
}{
	{1, 0, []uint32{1}},
	{2, 1, []uint32{1, 3}},
	{3, 1, []uint32{1, 3, 1}},
	{3, 2, []uint32{1, 1, 1}},
	{4, 1, []uint32{1, 1, 3, 3}},
	{4, 4, []uint32{1, 3, 5, 13}},
	{5, 2, []uint32{1, 1, 5, 5, 17}},
}

// maxSobolDim is the widest point the direction table supports
var maxSobolDim = len(directionParams) + 1

// sobolSequence generates a Sobol low-discrepancy sequence in Gray-code order
type sobolSequence struct {
	dim   int
	v     [][sobolBits + 1]uint32
	x     []uint32
	index uint32
}

func newSobolSequence(dim int) (*sobolSequence, error) {
	if dim <= 0 || dim > maxSobolDim {
		return nil, fmt.Errorf("%w: sobol sequence supports 1..%d dimensions, got %d", core.ErrDimensionTooBig, maxSobolDim, dim)
	}
	seq := &sobolSequence{
		dim: dim,
		v:   make([][sobolBits + 1]uint32, dim),
		x:   make([]uint32, dim),
	}

	// first dimension is van der Corput in base 2
	for i := 1; i <= sobolBits; i++ {
		seq.v[0][i] = 1 << (sobolBits - i)
	}

	for j := 1; j < dim; j++ {
		p := directionParams[j-1]
		v := &seq.v[j]
		for i := 1; i <= p.s && i <= sobolBits; i++ {
			v[i] = p.m[i-1] << (sobolBits - i)
		}
		for i := p.s + 1; i <= sobolBits; i++ {
			v[i] = v[i-p.s] ^ (v[i-p.s] >> p.s)
			for k := 1; k < p.s; k++ {
				v[i] ^= ((p.a >> (p.s - 1 - k)) & 1) * v[i-k]
			}
		}
	}
	return seq, nil
}

// next advances to the following point and returns its raw 32-bit coordinates.
// The all-zero starting point is never returned.
func (s *sobolSequence) next() []uint32 {
	// c is the 1-based position of the lowest zero bit of the current index
	c := bits.TrailingZeros32(^s.index) + 1
	s.index++
	for j := 0; j < s.dim; j++ {
		s.x[j] ^= s.v[j][c]
	}
	return s.x
}

func toUnit(x uint32) float64 {
	return float64(x) / (1 << sobolBits)
}
