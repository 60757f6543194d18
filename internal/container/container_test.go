package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gosobol/domain/core"
	"gosobol/domain/sensitivity"
	"gosobol/internal/config"
	"gosobol/internal/errors"
	"gosobol/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extraScenarios = `scenarios:
  - id: C
    description: tall canopy
    parameters:
      windspeed: {kind: normal, mean: 2.8, sd: 0.4}
      height: {kind: uniform, min: 6, max: 7}
      displacement_scalar: {kind: normal, mean: 0.7, sd: 0.007}
      roughness_scalar: {kind: normal, mean: 0.1, sd: 0.001}
`

func TestScenariosMergeAndFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(extraScenarios), 0o644))

	cfg := config.Default()
	cfg.Analysis.ScenariosFile = path
	c, err := New(cfg, nil)
	require.NoError(t, err)

	all, err := c.Scenarios()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.ScenarioID("C"), all[2].ID)

	cfg.Analysis.Scenarios = []string{"c", "A"}
	selected, err := c.Scenarios()
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, core.ScenarioID("C"), selected[0].ID)

	cfg.Analysis.Scenarios = []string{"Q"}
	_, err = c.Scenarios()
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestAnalysisRequestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Scheme = "first-total"
	cfg.Analysis.Sampler = "sobol"
	cfg.Analysis.NonFinitePolicy = "propagate"
	cfg.Runtime.ParallelScenarios = false
	c, err := New(cfg, nil)
	require.NoError(t, err)

	req, err := c.AnalysisRequest()
	require.NoError(t, err)
	assert.Equal(t, sensitivity.SchemeFirstTotal, req.Scheme)
	assert.Equal(t, ports.SamplerSobol, req.Sampler)
	assert.Equal(t, ports.NonFinitePropagate, req.NonFinite)
	assert.Equal(t, 1000, req.SampleCount)
	assert.False(t, req.Parallel)
	assert.Len(t, req.Scenarios, 2)
	assert.NotNil(t, req.Policy)
}

func TestExportersFollowOutputConfig(t *testing.T) {
	cfg := config.Default()
	c, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Exporters())

	cfg.Output = config.OutputConfig{XLSX: "a.xlsx", CSVDir: "out", Markdown: "r.md", HTML: "r.html"}
	var names []string
	for _, e := range c.Exporters() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"xlsx", "csv", "markdown", "html"}, names)
}

func TestRunArchivesAndExports(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Analysis.SampleCount = 64
	cfg.Analysis.Resamples = 10
	cfg.Archive.DatabaseURL = filepath.Join(dir, "runs.db")
	cfg.Output.CSVDir = filepath.Join(dir, "csv")
	cfg.Output.Markdown = filepath.Join(dir, "report.md")

	c, err := New(cfg, nil)
	require.NoError(t, err)
	defer c.Shutdown(context.Background())

	ctx := context.Background()
	res, err := c.Run(ctx)
	require.NoError(t, err)

	archive, err := c.RequireArchive(ctx)
	require.NoError(t, err)
	m, err := archive.GetRunManifest(ctx, res.Report.Manifest.RunID)
	require.NoError(t, err)
	assert.Equal(t, CodeVersion, m.CodeVersion)

	assert.FileExists(t, cfg.Output.Markdown)
	assert.FileExists(t, filepath.Join(cfg.Output.CSVDir, "A_second.csv"))
}

func TestRequireArchiveWithoutURL(t *testing.T) {
	c, err := New(config.Default(), nil)
	require.NoError(t, err)
	_, err = c.RequireArchive(context.Background())
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
