package profiling

import (
	"math"
	"sort"

	"gosobol/domain/run"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins matches the 50-bin histograms of the parameter plots
const DefaultBins = 50

// Histogram bins the finite values of data into equal-width bins spanning
// [min, max]. A constant column collapses to a single bin.
func Histogram(column string, data []float64, bins int) run.Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	x := finiteOnly(data)
	h := run.Histogram{Column: column}
	if len(x) == 0 {
		return h
	}
	sort.Float64s(x)

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		bins = 1
	}
	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// stat.Histogram treats the upper divider as exclusive
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	h.Dividers = dividers
	h.Counts = stat.Histogram(nil, dividers, x, nil)
	return h
}

// Total returns the number of values binned
func Total(h run.Histogram) int {
	return int(floats.Sum(h.Counts))
}
