package report

import (
	"fmt"
	"strings"

	"gosobol/domain/run"
	"gosobol/domain/sensitivity"
	"gosobol/ports"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RunColumns of the archived run listing
var RunColumns = []string{"run", "created", "samples", "scheme", "sampler", "seed", "fingerprint"}

// RenderRunList draws one row per archived run
func RenderRunList(manifests []run.RunManifest) string {
	rows := make([][]string, len(manifests))
	for i, m := range manifests {
		rows[i] = []string{
			m.RunID.String(),
			m.CreatedAt.String(),
			fmt.Sprint(m.SampleCount),
			string(m.Scheme),
			m.Sampler,
			fmt.Sprint(m.Seed),
			m.Fingerprint.Fingerprint.Short(),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorTeal)).
		Headers(RunColumns...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return Styles.Header
			}
			return Styles.Cell
		}).
		String()
}

// ArchivedTables regroups archived index rows into tables, keeping the
// stored scenario and row order
func ArchivedTables(rows []ports.ArchivedIndex, confidence float64) []ArchivedTable {
	var out []ArchivedTable
	for _, r := range rows {
		n := len(out)
		if n == 0 || out[n-1].Scenario != r.Scenario.String() || string(out[n-1].Table.Order) != r.Order {
			out = append(out, ArchivedTable{
				Scenario: r.Scenario.String(),
				Table:    &sensitivity.IndexTable{Order: sensitivity.Order(r.Order), Confidence: confidence},
			})
			n++
		}
		var params []sensitivity.Parameter
		for _, p := range strings.Split(r.Parameters, ":") {
			params = append(params, sensitivity.Parameter(p))
		}
		out[n-1].Table.Rows = append(out[n-1].Table.Rows, sensitivity.Index{
			Parameters:  params,
			Estimate:    r.Estimate,
			Interval:    sensitivity.Interval{Min: r.Min, Max: r.Max},
			Influential: r.Influential,
		})
	}
	return out
}

// ArchivedTable is one index table read back from the archive
type ArchivedTable struct {
	Scenario string
	Table    *sensitivity.IndexTable
}

// RenderArchivedRun draws a stored manifest and its index tables
func RenderArchivedRun(m *run.RunManifest, rows []ports.ArchivedIndex) string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render(fmt.Sprintf("Run %s", m.RunID)))
	b.WriteString("\n")
	b.WriteString(Styles.Muted.Render(fmt.Sprintf("created %s, N=%d scheme=%s sampler=%s seed=%d resamples=%d confidence=%.2f code=%s",
		m.CreatedAt, m.SampleCount, m.Scheme, m.Sampler, m.Seed, m.Resamples, m.Confidence, m.CodeVersion)))
	b.WriteString("\n")
	b.WriteString(Styles.Muted.Render(fmt.Sprintf("fingerprint %s", m.Fingerprint.Fingerprint)))
	b.WriteString("\n\n")

	scenario := ""
	for _, at := range ArchivedTables(rows, m.Confidence) {
		if at.Scenario != scenario {
			scenario = at.Scenario
			b.WriteString(Styles.Title.Render(fmt.Sprintf("Scenario %s", scenario)))
			b.WriteString("\n")
		}
		b.WriteString(Styles.Subtitle.Render(OrderTitle(at.Table.Order)))
		b.WriteString("\n")
		b.WriteString(RenderTable(at.Table))
		b.WriteString("\n")
	}
	return b.String()
}
