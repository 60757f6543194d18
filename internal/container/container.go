package container

import (
	"context"
	"fmt"

	"gosobol/adapters/db"
	"gosobol/adapters/distribution"
	"gosobol/adapters/excel"
	"gosobol/adapters/report"
	"gosobol/adapters/rng"
	"gosobol/adapters/sampler"
	"gosobol/adapters/sobol"
	"gosobol/app"
	"gosobol/domain/core"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/config"
	"gosobol/internal/errors"
	"gosobol/internal/profiling"
	"gosobol/ports"
)

// CodeVersion is stamped on every run manifest
const CodeVersion = "1.0.0"

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Pipeline adapters
	RNG       ports.RNGPort
	Sampler   ports.SamplerPort
	Mapper    ports.DistributionMapperPort
	Estimator ports.EstimatorPort
	Profiler  ports.ProfilerPort

	// Services
	StageRunner     *app.StageRunner
	AnalysisService *app.AnalysisService

	// Archive is nil unless ARCHIVE_DATABASE_URL is set
	Archive *db.Archive
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.Runtime.LogLevel))
	}

	c := &Container{Config: cfg, Logger: logger}
	c.RNG = rng.NewStreamAdapter()
	c.Sampler = sampler.NewSampler(c.RNG, logger)
	c.Mapper = distribution.NewMapper()
	c.Estimator = sobol.NewEstimator(c.RNG, logger)
	c.Profiler = profiling.NewScenarioProfiler()
	c.StageRunner = app.NewStageRunner(c.Mapper, c.Estimator, c.Profiler, logger)
	return c, nil
}

// InitArchive opens the run archive when one is configured
func (c *Container) InitArchive(ctx context.Context) error {
	if !c.Config.Archive.Enabled() || c.Archive != nil {
		return nil
	}
	archive, err := db.Open(ctx, c.Config.Archive.DatabaseURL, c.Logger)
	if err != nil {
		return err
	}
	c.Archive = archive
	c.Logger.Info("Run archive connected")
	return nil
}

// RequireArchive opens the archive and fails when none is configured
func (c *Container) RequireArchive(ctx context.Context) (*db.Archive, error) {
	if !c.Config.Archive.Enabled() {
		return nil, errors.ConfigInvalid("ARCHIVE_DATABASE_URL is required")
	}
	if err := c.InitArchive(ctx); err != nil {
		return nil, err
	}
	return c.Archive, nil
}

// InitAnalysis builds the analysis service with the configured archive and
// export targets
func (c *Container) InitAnalysis(ctx context.Context) error {
	if err := c.InitArchive(ctx); err != nil {
		return err
	}

	var ledger ports.LedgerWriterPort
	if c.Archive != nil {
		ledger = c.Archive
	}
	c.AnalysisService = app.NewAnalysisService(c.Sampler, c.StageRunner, ledger, CodeVersion, c.Logger)

	for _, e := range c.Exporters() {
		c.AnalysisService.AddExporter(e)
	}
	return nil
}

// Exporters returns one exporter per configured output target
func (c *Container) Exporters() []ports.ExporterPort {
	out := c.Config.Output
	var exporters []ports.ExporterPort
	if out.XLSX != "" {
		cfg := excel.DefaultExportConfig()
		cfg.FilePath = out.XLSX
		exporters = append(exporters, excel.NewWriter(cfg, c.Logger))
	}
	if out.CSVDir != "" {
		exporters = append(exporters, excel.CSVExporter{Dir: out.CSVDir})
	}
	if out.Markdown != "" {
		exporters = append(exporters, report.MarkdownExporter{Path: out.Markdown})
	}
	if out.HTML != "" {
		exporters = append(exporters, report.HTMLExporter{Path: out.HTML})
	}
	return exporters
}

// Scenarios returns the built-in scenarios merged with the scenarios file and
// restricted to the configured ids
func (c *Container) Scenarios() ([]scenario.Scenario, error) {
	all := scenario.Builtins()
	if path := c.Config.Analysis.ScenariosFile; path != "" {
		extra, err := scenario.LoadFile(path)
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		all = scenario.Merge(all, extra)
		c.Logger.Debug("Loaded %d scenarios from %s", len(extra), path)
	}

	ids := c.Config.Analysis.Scenarios
	if len(ids) == 0 {
		return all, nil
	}
	selected := make([]scenario.Scenario, 0, len(ids))
	for _, id := range ids {
		sc, err := scenario.Find(all, core.ScenarioID(id))
		if err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, err)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

// AnalysisRequest translates the analysis configuration into a request
func (c *Container) AnalysisRequest() (app.AnalysisRequest, error) {
	a := c.Config.Analysis

	scheme, err := sensitivity.ParseScheme(a.Scheme)
	if err != nil {
		return app.AnalysisRequest{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	kind, err := sampler.ParseKind(a.Sampler)
	if err != nil {
		return app.AnalysisRequest{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	scenarios, err := c.Scenarios()
	if err != nil {
		return app.AnalysisRequest{}, err
	}

	return app.AnalysisRequest{
		SampleCount:       a.SampleCount,
		Seed:              a.Seed,
		Scheme:            scheme,
		Sampler:           kind,
		Resamples:         a.Resamples,
		Confidence:        a.Confidence,
		NonFinite:         ports.NonFinitePolicy(a.NonFinitePolicy),
		MeasurementOffset: a.MeasurementOffset,
		Scenarios:         scenarios,
		Parallel:          c.Config.Runtime.ParallelScenarios,
		Policy:            sensitivity.ExcludesZero,
	}, nil
}

// Run executes one analysis from the current configuration
func (c *Container) Run(ctx context.Context) (*app.AnalysisResult, error) {
	if c.AnalysisService == nil {
		if err := c.InitAnalysis(ctx); err != nil {
			return nil, err
		}
	}
	req, err := c.AnalysisRequest()
	if err != nil {
		return nil, err
	}
	return c.AnalysisService.Run(ctx, req)
}

// Shutdown releases the archive connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Archive != nil {
		return c.Archive.Close()
	}
	return nil
}
