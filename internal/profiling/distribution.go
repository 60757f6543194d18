package profiling

import (
	"math"

	"gosobol/domain/run"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summarize describes the finite values of data. Non-finite values are
// counted and otherwise ignored.
func Summarize(data []float64) (run.Summary, error) {
	finite := finiteOnly(data)
	summary := run.Summary{Count: len(data), NonFinite: len(data) - len(finite)}
	if len(finite) == 0 {
		nan := math.NaN()
		summary.Mean, summary.StdDev, summary.Min, summary.Max = nan, nan, nan, nan
		summary.Median, summary.Q25, summary.Q75 = nan, nan, nan
		summary.NormalityP = 1
		return summary, nil
	}

	// Calculate basic summary statistics
	mean, err := stats.Mean(finite)
	if err != nil {
		return summary, err
	}

	stdDev, err := stats.StandardDeviation(finite)
	if err != nil {
		return summary, err
	}

	min, err := stats.Min(finite)
	if err != nil {
		return summary, err
	}

	max, err := stats.Max(finite)
	if err != nil {
		return summary, err
	}

	median, err := stats.Median(finite)
	if err != nil {
		return summary, err
	}

	q25, err := stats.Percentile(finite, 25)
	if err != nil {
		return summary, err
	}

	q75, err := stats.Percentile(finite, 75)
	if err != nil {
		return summary, err
	}

	summary.Mean = mean
	summary.StdDev = stdDev
	summary.Min = min
	summary.Max = max
	summary.Median = median
	summary.Q25 = q25
	summary.Q75 = q75

	if stdDev > 0 {
		summary.Skewness = calculateSkewness(finite)
		summary.Kurtosis = calculateKurtosis(finite)
		summary.LooksNormal, summary.NormalityP = testNormality(summary.Skewness, summary.Kurtosis, len(finite))
	}
	return summary, nil
}

func finiteOnly(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// calculateSkewness computes the bias-corrected sample skewness
func calculateSkewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	return stat.Skew(data, nil)
}

// calculateKurtosis computes sample kurtosis (3 for a normal)
func calculateKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 3
	}
	return stat.ExKurtosis(data, nil) + 3
}

// testNormality is a Jarque-Bera style check on skewness and excess kurtosis.
// The statistic is chi-squared with two degrees of freedom under normality.
func testNormality(skewness, kurtosis float64, n int) (isNormal bool, pValue float64) {
	if n < 4 {
		return false, 1.0
	}
	excess := kurtosis - 3
	jb := float64(n) / 6 * (skewness*skewness + excess*excess/4)

	chiDist := distuv.ChiSquared{K: 2}
	pValue = 1 - chiDist.CDF(jb)

	return pValue > 0.05, pValue
}
