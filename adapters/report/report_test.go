package report

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gosobol/domain/sensitivity"
	"gosobol/domain/run"
	"gosobol/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() *sensitivity.IndexTable {
	return &sensitivity.IndexTable{
		Order:      sensitivity.OrderTotal,
		Confidence: 0.95,
		Rows: []sensitivity.Index{
			{Parameters: []sensitivity.Parameter{sensitivity.Windspeed}, Estimate: 0.81234, Interval: sensitivity.Interval{Min: 0.7, Max: 0.9}, Influential: true},
			{Parameters: []sensitivity.Parameter{sensitivity.Height}, Estimate: math.NaN(), Interval: sensitivity.Interval{Min: math.NaN(), Max: math.NaN()}},
		},
	}
}

func TestTableRows(t *testing.T) {
	rows := TableRows(sampleTable())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"windspeed", "0.8123", "0.7000", "0.9000", "yes"}, rows[0])
	assert.Equal(t, []string{"height", "NaN", "NaN", "NaN", "no"}, rows[1])
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(sampleTable())
	for _, col := range Columns {
		assert.Contains(t, out, col)
	}
	assert.Contains(t, out, "windspeed")
	assert.Contains(t, out, "0.8123")
}

func TestRenderTerminal(t *testing.T) {
	r, _ := testkit.SampleReport(t, 32, sensitivity.SchemeSecondOrder)
	out := RenderTerminal(r)

	assert.Contains(t, out, "Scenario A")
	assert.Contains(t, out, "Scenario B")
	assert.Contains(t, out, "Second-order indices")
	assert.Contains(t, out, "windspeed:height")
}

func TestMarkdown(t *testing.T) {
	r, _ := testkit.SampleReport(t, 32, sensitivity.SchemeFirstTotal)
	md := Markdown(r)

	assert.True(t, strings.HasPrefix(md, "# Aerodynamic conductance sensitivity"))
	assert.Contains(t, md, "## Scenario A")
	assert.Contains(t, md, "### Total-effect indices")
	assert.Contains(t, md, "| parameter | estimate | ci_min | ci_max | influential |")
	assert.Contains(t, md, "- windspeed ~ Normal(3, 0.5)")
	assert.NotContains(t, md, "Second-order")
	assert.Contains(t, md, r.Manifest.Fingerprint.Fingerprint.Short())
}

func TestHTML(t *testing.T) {
	page := string(HTML("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n", "Report"))
	assert.Contains(t, page, "<title>Report</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<td>1</td>")
}

func TestWriteReports(t *testing.T) {
	r, _ := testkit.SampleReport(t, 16, sensitivity.SchemeFirstTotal)
	dir := t.TempDir()

	mdPath := filepath.Join(dir, "report.md")
	htmlPath := filepath.Join(dir, "report.html")
	require.NoError(t, WriteMarkdown(mdPath, r))
	require.NoError(t, WriteHTML(htmlPath, r))

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Scenario A")

	assert.Error(t, WriteMarkdown(filepath.Join(dir, "missing", "report.md"), r))
}

func TestArchivedRunRoundTrip(t *testing.T) {
	r, _ := testkit.SampleReport(t, 16, sensitivity.SchemeSecondOrder)
	ledger := testkit.NewTestKit().LedgerAdapter()
	ctx := context.Background()
	require.NoError(t, ledger.StoreRun(ctx, r))

	rows, err := ledger.GetRunIndices(ctx, r.Manifest.RunID)
	require.NoError(t, err)

	tables := ArchivedTables(rows, r.Manifest.Confidence)
	require.Len(t, tables, 6)
	assert.Equal(t, "A", tables[0].Scenario)
	assert.Equal(t, sensitivity.OrderFirst, tables[0].Table.Order)
	assert.Equal(t, TableRows(&r.Scenarios[0].Result.First), TableRows(tables[0].Table))
	assert.Equal(t, TableRows(r.Scenarios[1].Result.Second), TableRows(tables[5].Table))

	out := RenderArchivedRun(r.Manifest, rows)
	assert.Contains(t, out, "Scenario B")
	assert.Contains(t, out, "Second-order indices")
	assert.Contains(t, out, r.Manifest.Fingerprint.Fingerprint.String())

	list := RenderRunList([]run.RunManifest{*r.Manifest})
	assert.Contains(t, list, r.Manifest.RunID.String())
	for _, col := range RunColumns {
		assert.Contains(t, list, col)
	}
}
