package sobol

import (
	"gosobol/domain/sensitivity"

	"gonum.org/v1/gonum/stat"
)

// pointEstimates holds one evaluation of every index
type pointEstimates struct {
	mean     float64
	variance float64
	first    []float64
	total    []float64
	second   [][]float64 // upper triangle only, nil without BA blocks
}

// gathered is the output blocks restricted to one set of base-row indices
type gathered struct {
	a, b   []float64
	ab, ba [][]float64
}

func gather(blocks *sensitivity.Blocks, idx []int) *gathered {
	pick := func(y []float64) []float64 {
		out := make([]float64, len(idx))
		for k, i := range idx {
			out[k] = y[i]
		}
		return out
	}
	g := &gathered{a: pick(blocks.A), b: pick(blocks.B)}
	g.ab = make([][]float64, len(blocks.AB))
	for i, y := range blocks.AB {
		g.ab[i] = pick(y)
	}
	if blocks.BA != nil {
		g.ba = make([][]float64, len(blocks.BA))
		for i, y := range blocks.BA {
			g.ba[i] = pick(y)
		}
	}
	return g
}

// computeIndices evaluates the estimators on one (possibly resampled) set of rows.
//
// With f0 and V the mean and population variance of f(A) ∪ f(B):
//
//	S_i  = mean((f(B) - f0)·(f(AB_i) - f(A))) / V                    (Saltelli 2010)
//	T_i  = mean((f(A) - f(AB_i))²) / 2V                               (Jansen 1999)
//	S_ij = mean((f(BA_i) - f0)·(f(AB_j) - f0) - (f(A) - f0)·(f(B) - f0)) / V - S_i - S_j
//
// Centring on f0 leaves every expectation unchanged and cuts the variance of
// the first and second-order estimators when the output mean is large.
func computeIndices(g *gathered) pointEstimates {
	n := len(g.a)
	dim := len(g.ab)

	pooled := make([]float64, 0, 2*n)
	pooled = append(pooled, g.a...)
	pooled = append(pooled, g.b...)
	f0, v := stat.PopMeanVariance(pooled, nil)

	est := pointEstimates{
		mean:     f0,
		variance: v,
		first:    make([]float64, dim),
		total:    make([]float64, dim),
	}

	term := make([]float64, n)
	for i := 0; i < dim; i++ {
		for k := 0; k < n; k++ {
			term[k] = (g.b[k] - f0) * (g.ab[i][k] - g.a[k])
		}
		est.first[i] = stat.Mean(term, nil) / v

		for k := 0; k < n; k++ {
			d := g.a[k] - g.ab[i][k]
			term[k] = d * d
		}
		est.total[i] = stat.Mean(term, nil) / (2 * v)
	}

	if g.ba == nil {
		return est
	}
	est.second = make([][]float64, dim)
	for i := 0; i < dim; i++ {
		est.second[i] = make([]float64, dim)
		for j := i + 1; j < dim; j++ {
			for k := 0; k < n; k++ {
				term[k] = (g.ba[i][k]-f0)*(g.ab[j][k]-f0) - (g.a[k]-f0)*(g.b[k]-f0)
			}
			est.second[i][j] = stat.Mean(term, nil)/v - est.first[i] - est.first[j]
		}
	}
	return est
}
