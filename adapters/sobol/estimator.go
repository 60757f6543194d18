package sobol

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"

	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/errors"
	"gosobol/ports"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultResamples  = 100
	DefaultConfidence = 0.95
)

// Estimator computes Sobol indices with percentile-bootstrap intervals
type Estimator struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewEstimator creates a new estimator drawing resamples from rng
func NewEstimator(rng ports.RNGPort, logger *internal.Logger) *Estimator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Estimator{rng: rng, logger: logger}
}

var _ ports.EstimatorPort = (*Estimator)(nil)

// Estimate computes first-order, total-effect and (under the second-order
// scheme) second-order indices. outputs must be aligned to the design's
// evaluation rows. Influence is left unset; callers apply a SignificancePolicy.
func (e *Estimator) Estimate(ctx context.Context, design *sensitivity.DesignMatrix, outputs sensitivity.Outputs, opts ports.EstimateOptions) (*sensitivity.Result, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return nil, err
	}

	if len(outputs) != design.Rows() {
		return nil, errors.LengthMismatch(design.Rows(), len(outputs))
	}
	blocks, err := design.Split(outputs)
	if err != nil {
		return nil, errors.WithCode(errors.CodeLengthMismatch, err)
	}

	if bad := outputs.NonFinite(); bad > 0 {
		if opts.NonFinite == ports.NonFiniteFail {
			return nil, errors.NonFiniteOutput(bad, len(outputs))
		}
		e.logger.Warn("Scenario %s: %d of %d outputs are not finite, indices may be NaN", opts.ScenarioKey, bad, len(outputs))
	}

	n := design.N()
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	point := computeIndices(gather(blocks, all))

	stream, err := e.rng.Stream(ctx, design.Fingerprint().String(), "bootstrap", opts.ScenarioKey, opts.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bootstrap stream")
	}
	samples, err := bootstrap(ctx, blocks, n, opts.Resamples, stream)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Scenario %s: %d bootstrap resamples over %d base rows", opts.ScenarioKey, opts.Resamples, n)

	dim := design.Dim()
	result := &sensitivity.Result{
		First:      sensitivity.IndexTable{Order: sensitivity.OrderFirst, Confidence: opts.Confidence},
		Total:      sensitivity.IndexTable{Order: sensitivity.OrderTotal, Confidence: opts.Confidence},
		Mean:       point.mean,
		Variance:   point.variance,
		Resamples:  opts.Resamples,
		Confidence: opts.Confidence,
	}

	for i := 0; i < dim; i++ {
		params := []sensitivity.Parameter{parameterName(i)}
		result.First.Rows = append(result.First.Rows, sensitivity.Index{
			Parameters: params,
			Estimate:   point.first[i],
			Interval:   percentileInterval(column(samples, func(p pointEstimates) float64 { return p.first[i] }), opts.Confidence),
		})
		result.Total.Rows = append(result.Total.Rows, sensitivity.Index{
			Parameters: params,
			Estimate:   point.total[i],
			Interval:   percentileInterval(column(samples, func(p pointEstimates) float64 { return p.total[i] }), opts.Confidence),
		})
	}

	if point.second != nil {
		second := sensitivity.IndexTable{Order: sensitivity.OrderSecond, Confidence: opts.Confidence}
		for i := 0; i < dim; i++ {
			for j := i + 1; j < dim; j++ {
				second.Rows = append(second.Rows, sensitivity.Index{
					Parameters: []sensitivity.Parameter{parameterName(i), parameterName(j)},
					Estimate:   point.second[i][j],
					Interval:   percentileInterval(column(samples, func(p pointEstimates) float64 { return p.second[i][j] }), opts.Confidence),
				})
			}
		}
		result.Second = &second
	}

	for _, t := range result.Tables() {
		t.Sort()
	}
	return result, nil
}

func normalizeOptions(opts ports.EstimateOptions) (ports.EstimateOptions, error) {
	if opts.Resamples == 0 {
		opts.Resamples = DefaultResamples
	}
	if opts.Resamples < 0 {
		return opts, errors.ConfigInvalid("bootstrap resamples must be positive")
	}
	if opts.Confidence == 0 {
		opts.Confidence = DefaultConfidence
	}
	if !(opts.Confidence > 0 && opts.Confidence < 1) {
		return opts, errors.ConfigInvalid("confidence level must be in (0,1)")
	}
	switch opts.NonFinite {
	case "":
		opts.NonFinite = ports.NonFiniteFail
	case ports.NonFiniteFail, ports.NonFinitePropagate:
	default:
		return opts, errors.Newf(errors.CodeConfigInvalid, "unknown non-finite policy %q", opts.NonFinite)
	}
	return opts, nil
}

// bootstrap recomputes every index on resamples of the base rows drawn with replacement
func bootstrap(ctx context.Context, blocks *sensitivity.Blocks, n, resamples int, stream *rand.Rand) ([]pointEstimates, error) {
	out := make([]pointEstimates, resamples)
	idx := make([]int, n)
	for r := 0; r < resamples; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for k := range idx {
			idx[k] = stream.IntN(n)
		}
		out[r] = computeIndices(gather(blocks, idx))
	}
	return out, nil
}

func column(samples []pointEstimates, get func(pointEstimates) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = get(s)
	}
	return out
}

// percentileInterval returns the empirical (1-c)/2 and (1+c)/2 quantiles.
// Any NaN among the replicates makes the interval NaN.
func percentileInterval(replicates []float64, confidence float64) sensitivity.Interval {
	for _, v := range replicates {
		if math.IsNaN(v) {
			return sensitivity.Interval{Min: math.NaN(), Max: math.NaN()}
		}
	}
	sorted := append([]float64(nil), replicates...)
	sort.Float64s(sorted)
	alpha := (1 - confidence) / 2
	return sensitivity.Interval{
		Min: stat.Quantile(alpha, stat.Empirical, sorted, nil),
		Max: stat.Quantile(1-alpha, stat.Empirical, sorted, nil),
	}
}

func parameterName(i int) sensitivity.Parameter {
	if i < len(sensitivity.Parameters) {
		return sensitivity.Parameters[i]
	}
	return sensitivity.Parameter("x" + strconv.Itoa(i+1))
}
