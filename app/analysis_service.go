package app

import (
	"context"
	"fmt"
	"time"

	"gosobol/domain/conductance"
	"gosobol/domain/core"
	"gosobol/domain/run"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/errors"
	"gosobol/ports"

	"golang.org/x/sync/errgroup"
)

// Defaults recorded in the manifest when a request leaves them unset
const (
	DefaultResamples  = 100
	DefaultConfidence = 0.95
)

// AnalysisRequest describes one sensitivity run
type AnalysisRequest struct {
	RunID             core.RunID // generated when empty
	SampleCount       int
	Seed              int64
	Scheme            sensitivity.Scheme
	Sampler           ports.SamplerKind
	Resamples         int
	Confidence        float64
	NonFinite         ports.NonFinitePolicy
	MeasurementOffset float64 // zero selects conductance.DefaultMeasurementOffset
	// Scenarios to run; empty means the built-in pair
	Scenarios []scenario.Scenario
	Parallel  bool
	Policy    sensitivity.SignificancePolicy
}

// AnalysisResult is a completed run together with the design it used
type AnalysisResult struct {
	Report    *run.Report
	Design    *sensitivity.DesignMatrix
	RuntimeMs int64
}

// AnalysisService orchestrates sampling, the per-scenario stages, archiving
// and exports for a full run.
type AnalysisService struct {
	sampler     ports.SamplerPort
	stageRunner *StageRunner
	ledger      ports.LedgerWriterPort
	exporters   []ports.ExporterPort
	codeVersion string
	logger      *internal.Logger
}

// NewAnalysisService creates a new analysis service. ledger may be nil to
// skip archiving.
func NewAnalysisService(
	sampler ports.SamplerPort,
	stageRunner *StageRunner,
	ledger ports.LedgerWriterPort,
	codeVersion string,
	logger *internal.Logger,
) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		sampler:     sampler,
		stageRunner: stageRunner,
		ledger:      ledger,
		codeVersion: codeVersion,
		logger:      logger,
	}
}

// AddExporter registers an output target run after every successful analysis
func (s *AnalysisService) AddExporter(e ports.ExporterPort) {
	s.exporters = append(s.exporters, e)
}

// Run draws one shared design, runs every scenario against it and, only when
// all of them succeed, archives and exports the report.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	started := time.Now()

	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Starting run %s: N=%d seed=%d scheme=%s sampler=%s scenarios=%d",
		req.RunID, req.SampleCount, req.Seed, req.Scheme, req.Sampler, len(req.Scenarios))

	design, err := s.sampler.Sample(ctx, ports.SampleRequest{
		N:      req.SampleCount,
		Dim:    sensitivity.Dimension,
		Seed:   req.Seed,
		Scheme: req.Scheme,
		Kind:   req.Sampler,
	})
	if err != nil {
		return nil, fmt.Errorf("sampling failed: %w", err)
	}
	s.logger.Debug("Design %s has %d evaluation rows", design.Fingerprint().Short(), design.Rows())

	scenarioReports, err := s.runScenarios(ctx, design, req)
	if err != nil {
		return nil, err
	}

	report := &run.Report{
		Manifest: run.NewRunManifest(req.RunID, design, req.Seed, string(req.Sampler),
			req.Resamples, req.Confidence, req.MeasurementOffset, s.codeVersion),
		Scenarios: scenarioReports,
	}
	if err := report.Manifest.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeInternalError, err)
	}

	if s.ledger != nil {
		if err := s.ledger.StoreRun(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to archive run %s: %w", req.RunID, err)
		}
		s.logger.Info("Archived run %s", req.RunID)
	}

	for _, e := range s.exporters {
		if err := e.Export(report, design); err != nil {
			return nil, fmt.Errorf("%s export failed: %w", e.Name(), err)
		}
		s.logger.Debug("Exported run %s as %s", req.RunID, e.Name())
	}

	runtime := time.Since(started)
	s.logger.Info("Run %s completed in %s", req.RunID, runtime)
	return &AnalysisResult{Report: report, Design: design, RuntimeMs: runtime.Milliseconds()}, nil
}

// runScenarios fills one slot per scenario so the report order never depends
// on scheduling.
func (s *AnalysisService) runScenarios(ctx context.Context, design *sensitivity.DesignMatrix, req AnalysisRequest) ([]run.ScenarioReport, error) {
	opts := StageOptions{
		Seed:              req.Seed,
		Resamples:         req.Resamples,
		Confidence:        req.Confidence,
		NonFinite:         req.NonFinite,
		MeasurementOffset: req.MeasurementOffset,
		Policy:            req.Policy,
	}
	slots := make([]*run.ScenarioReport, len(req.Scenarios))

	if !req.Parallel {
		for i, sc := range req.Scenarios {
			sr, err := s.stageRunner.RunScenario(ctx, design, sc, opts)
			if err != nil {
				return nil, err
			}
			slots[i] = sr
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, sc := range req.Scenarios {
			g.Go(func() error {
				sr, err := s.stageRunner.RunScenario(gctx, design, sc, opts)
				if err != nil {
					return err
				}
				slots[i] = sr
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]run.ScenarioReport, len(slots))
	for i, sr := range slots {
		out[i] = *sr
	}
	return out, nil
}

func normalizeRequest(req AnalysisRequest) (AnalysisRequest, error) {
	if req.SampleCount <= 0 {
		return req, errors.ConfigInvalid(fmt.Sprintf("sample count must be positive, got %d", req.SampleCount))
	}
	if req.Scheme == "" {
		req.Scheme = sensitivity.SchemeSecondOrder
	}
	if !req.Scheme.Valid() {
		return req, errors.ConfigInvalid(fmt.Sprintf("unknown scheme %q", req.Scheme))
	}
	if req.Sampler == "" {
		req.Sampler = ports.SamplerRandom
	}
	if req.Resamples == 0 {
		req.Resamples = DefaultResamples
	}
	if req.Confidence == 0 {
		req.Confidence = DefaultConfidence
	}
	if req.MeasurementOffset == 0 {
		req.MeasurementOffset = conductance.DefaultMeasurementOffset
	}
	if err := checkOffset(req.MeasurementOffset); err != nil {
		return req, err
	}
	if req.NonFinite == "" {
		req.NonFinite = ports.NonFiniteFail
	}
	if len(req.Scenarios) == 0 {
		req.Scenarios = scenario.Builtins()
	}
	seen := make(map[string]bool, len(req.Scenarios))
	for _, sc := range req.Scenarios {
		if seen[sc.ID.Key()] {
			return req, errors.ConfigInvalid(fmt.Sprintf("scenario %s listed twice", sc.ID))
		}
		seen[sc.ID.Key()] = true
		if err := sc.Validate(); err != nil {
			return req, errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}
	if core.ID(req.RunID).IsEmpty() {
		req.RunID = core.NewRunID()
	}
	return req, nil
}
