package sampler

import (
	"context"
	"fmt"
	"strings"

	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/errors"
	"gosobol/ports"
)

// Sampler draws design matrices for Sobol estimation
type Sampler struct {
	rng    ports.RNGPort
	logger *internal.Logger
}

// NewSampler creates a new sampler backed by rng
func NewSampler(rng ports.RNGPort, logger *internal.Logger) *Sampler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Sampler{rng: rng, logger: logger}
}

var _ ports.SamplerPort = (*Sampler)(nil)

// ParseKind parses a sampler kind name
func ParseKind(s string) (ports.SamplerKind, error) {
	switch ports.SamplerKind(strings.ToLower(strings.TrimSpace(s))) {
	case ports.SamplerRandom, "":
		return ports.SamplerRandom, nil
	case ports.SamplerSobol, "quasi":
		return ports.SamplerSobol, nil
	}
	return "", errors.Classify(fmt.Errorf("%w: %q", core.ErrUnknownSampler, s))
}

// Sample draws two independent N×Dim unit matrices and builds the evaluation
// design. Invalid sizes, schemes and kinds fail with CONFIG_INVALID.
func (s *Sampler) Sample(ctx context.Context, req ports.SampleRequest) (*sensitivity.DesignMatrix, error) {
	design, err := s.sample(ctx, req)
	return design, errors.Classify(err)
}

func (s *Sampler) sample(ctx context.Context, req ports.SampleRequest) (*sensitivity.DesignMatrix, error) {
	if req.N <= 0 || req.Dim <= 0 {
		return nil, fmt.Errorf("%w: n=%d dim=%d", core.ErrInvalidSize, req.N, req.Dim)
	}
	if req.Scheme == "" {
		req.Scheme = sensitivity.SchemeSecondOrder
	}

	var a, b [][]float64
	var err error
	switch req.Kind {
	case ports.SamplerRandom, "":
		a, b, err = s.pseudoRandom(ctx, req)
	case ports.SamplerSobol:
		a, b, err = s.quasiRandom(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSampler, req.Kind)
	}
	if err != nil {
		return nil, err
	}

	design, err := sensitivity.NewDesignMatrix(a, b, req.Scheme)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Sampled %s design: n=%d dim=%d rows=%d fingerprint=%s",
		req.Kind, design.N(), design.Dim(), design.Rows(), design.Fingerprint().Short())
	return design, nil
}

// pseudoRandom fills A then B row-major from a single seeded stream
func (s *Sampler) pseudoRandom(ctx context.Context, req ports.SampleRequest) ([][]float64, [][]float64, error) {
	stream, err := s.rng.SeededStream(ctx, "design", req.Seed)
	if err != nil {
		return nil, nil, err
	}
	fill := func() [][]float64 {
		m := make([][]float64, req.N)
		for i := range m {
			m[i] = make([]float64, req.Dim)
			for j := range m[i] {
				m[i][j] = stream.Float64()
			}
		}
		return m
	}
	a := fill()
	b := fill()
	return a, b, nil
}

// quasiRandom draws a 2·Dim Sobol sequence; A takes the first Dim coordinates
// and B the rest. A seeded digital shift keeps runs reproducible per seed.
func (s *Sampler) quasiRandom(ctx context.Context, req ports.SampleRequest) ([][]float64, [][]float64, error) {
	seq, err := newSobolSequence(2 * req.Dim)
	if err != nil {
		return nil, nil, err
	}
	stream, err := s.rng.SeededStream(ctx, "design-shift", req.Seed)
	if err != nil {
		return nil, nil, err
	}
	shift := make([]uint32, 2*req.Dim)
	for j := range shift {
		shift[j] = stream.Uint32()
	}

	a := make([][]float64, req.N)
	b := make([][]float64, req.N)
	for i := 0; i < req.N; i++ {
		point := seq.next()
		a[i] = make([]float64, req.Dim)
		b[i] = make([]float64, req.Dim)
		for j := 0; j < req.Dim; j++ {
			a[i][j] = toUnit(point[j] ^ shift[j])
			b[i][j] = toUnit(point[req.Dim+j] ^ shift[req.Dim+j])
		}
	}
	return a, b, nil
}
