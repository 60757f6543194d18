package testkit

import (
	"context"
	"sort"
	"sync"
	"testing"

	"gosobol/adapters/distribution"
	"gosobol/adapters/rng"
	"gosobol/adapters/sampler"
	"gosobol/adapters/sobol"
	"gosobol/domain/conductance"
	"gosobol/domain/core"
	"gosobol/domain/run"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"
	"gosobol/internal/profiling"
	"gosobol/ports"

	"github.com/stretchr/testify/require"
)

// CodeVersion stamped on fixture manifests
const CodeVersion = "1.0.0-test"

// TestKit provides testing utilities and fixtures
type TestKit struct {
	ledger *InMemoryLedgerAdapter // Shared ledger instance
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{ledger: NewInMemoryLedgerAdapter()}
}

// RNGAdapter returns the deterministic stream adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return rng.NewStreamAdapter()
}

// LedgerAdapter returns the shared in-memory run archive
func (t *TestKit) LedgerAdapter() ports.LedgerPort {
	return t.ledger
}

// SampleDesign draws a pseudo-random design with seed 42
func SampleDesign(tb testing.TB, n int, scheme sensitivity.Scheme) *sensitivity.DesignMatrix {
	tb.Helper()
	s := sampler.NewSampler(rng.NewStreamAdapter(), nil)
	design, err := s.Sample(context.Background(), ports.SampleRequest{
		N: n, Dim: sensitivity.Dimension, Seed: 42, Scheme: scheme, Kind: ports.SamplerRandom,
	})
	require.NoError(tb, err)
	return design
}

// SampleReport runs both built-in scenarios end to end on a small design
// and returns the report together with the design it was computed from.
func SampleReport(tb testing.TB, n int, scheme sensitivity.Scheme) (*run.Report, *sensitivity.DesignMatrix) {
	tb.Helper()
	ctx := context.Background()
	design := SampleDesign(tb, n, scheme)

	mapper := distribution.NewMapper()
	estimator := sobol.NewEstimator(rng.NewStreamAdapter(), nil)
	profiler := profiling.NewScenarioProfiler()

	report := &run.Report{
		Manifest: run.NewRunManifest(core.NewRunID(), design, 42, string(ports.SamplerRandom), 20, 0.95, conductance.DefaultMeasurementOffset, CodeVersion),
	}
	for _, sc := range scenario.Builtins() {
		params, err := mapper.Map(design, sc)
		require.NoError(tb, err)
		outputs := sensitivity.Outputs(conductance.EvaluateRows(params.Rows(), conductance.DefaultMeasurementOffset))

		result, err := estimator.Estimate(ctx, design, outputs, ports.EstimateOptions{
			Resamples: 20, Seed: 42, ScenarioKey: sc.ID.String(),
		})
		require.NoError(tb, err)
		result.Classify(sensitivity.ExcludesZero)

		profile, err := profiler.Profile(design, params, outputs, result)
		require.NoError(tb, err)

		report.Scenarios = append(report.Scenarios, run.ScenarioReport{Scenario: sc, Result: result, Profile: profile})
	}
	return report, design
}

// InMemoryLedgerAdapter implements LedgerPort with in-memory storage
type InMemoryLedgerAdapter struct {
	manifests map[core.RunID]run.RunManifest
	indices   map[core.RunID][]ports.ArchivedIndex
	mu        sync.RWMutex
}

func NewInMemoryLedgerAdapter() *InMemoryLedgerAdapter {
	return &InMemoryLedgerAdapter{
		manifests: make(map[core.RunID]run.RunManifest),
		indices:   make(map[core.RunID][]ports.ArchivedIndex),
	}
}

var _ ports.LedgerPort = (*InMemoryLedgerAdapter)(nil)

func (s *InMemoryLedgerAdapter) StoreRun(ctx context.Context, report *run.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := report.Manifest.RunID
	s.manifests[id] = *report.Manifest
	var rows []ports.ArchivedIndex
	for _, sr := range report.Scenarios {
		for _, table := range sr.Result.Tables() {
			for _, ix := range table.Rows {
				rows = append(rows, ports.ArchivedIndex{
					Scenario:    sr.Scenario.ID,
					Order:       string(table.Order),
					Parameters:  ix.Name(),
					Estimate:    ix.Estimate,
					Min:         ix.Interval.Min,
					Max:         ix.Interval.Max,
					Influential: ix.Influential,
				})
			}
		}
	}
	s.indices[id] = rows
	return nil
}

func (s *InMemoryLedgerAdapter) ListRuns(ctx context.Context, filters ports.RunFilters) ([]run.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []run.RunManifest
	for _, m := range s.manifests {
		if filters.Seed != nil && m.Seed != *filters.Seed {
			continue
		}
		if filters.Scheme != "" && string(m.Scheme) != filters.Scheme {
			continue
		}
		results = append(results, m)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.Time().After(results[j].CreatedAt.Time())
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(results) {
			return nil, nil
		}
		results = results[filters.Offset:]
	}
	if filters.Limit > 0 && len(results) > filters.Limit {
		results = results[:filters.Limit]
	}
	return results, nil
}

func (s *InMemoryLedgerAdapter) GetRunManifest(ctx context.Context, runID core.RunID) (*run.RunManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.manifests[runID]
	if !ok {
		return nil, errors.Classify(core.NewNotFoundError("run", runID.String()))
	}
	return &m, nil
}

func (s *InMemoryLedgerAdapter) GetRunIndices(ctx context.Context, runID core.RunID) ([]ports.ArchivedIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.indices[runID]
	if !ok {
		return nil, errors.Classify(core.NewNotFoundError("run", runID.String()))
	}
	return append([]ports.ArchivedIndex(nil), rows...), nil
}

func (s *InMemoryLedgerAdapter) Close() error { return nil }
