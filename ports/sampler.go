package ports

import (
	"context"

	"gosobol/domain/sensitivity"
)

// SamplerKind selects how unit-hypercube points are drawn
type SamplerKind string

const (
	SamplerRandom SamplerKind = "random"
	SamplerSobol  SamplerKind = "sobol"
)

// SampleRequest describes one design to draw
type SampleRequest struct {
	N      int
	Dim    int
	Seed   int64
	Scheme sensitivity.Scheme
	Kind   SamplerKind
}

// SamplerPort draws the two base matrices and builds the evaluation design
type SamplerPort interface {
	Sample(ctx context.Context, req SampleRequest) (*sensitivity.DesignMatrix, error)
}
