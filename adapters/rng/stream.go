package rng

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gosobol/ports"
)

// StreamAdapter implements ports.RNGPort on PCG streams. Every stream is a
// pure function of its inputs so a run replays bit-for-bit.
type StreamAdapter struct{}

// NewStreamAdapter creates a new RNG adapter
func NewStreamAdapter() *StreamAdapter {
	return &StreamAdapter{}
}

var _ ports.RNGPort = (*StreamAdapter)(nil)

// SeededStream creates a deterministic random number generator for a named operation
func (r *StreamAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewPCG(uint64(seed), hashString(name))), nil
}

// Stream creates a deterministic RNG stream for one stage of one scenario
func (r *StreamAdapter) Stream(ctx context.Context, runKey, stageName, scenarioKey string, baseSeed int64) (*rand.Rand, error) {
	seq := hashString(runKey)
	seq = seq*31 + hashString(stageName)
	seq = seq*31 + hashString(scenarioKey)
	return rand.New(rand.NewPCG(uint64(baseSeed), seq)), nil
}

// ValidateSeed draws len(expected) uniforms from the named stream and compares them
func (r *StreamAdapter) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	stream, err := r.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		got := stream.Float64()
		if math.Abs(got-want) > 1e-15 {
			return fmt.Errorf("seed %d stream %q diverged at draw %d: got %v, want %v", seed, name, i, got, want)
		}
	}
	return nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c) // djb2 algorithm
	}
	return hash
}
