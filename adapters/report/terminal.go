package report

import (
	"fmt"
	"strings"

	"gosobol/domain/run"
	"gosobol/domain/sensitivity"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorTeal  = lipgloss.Color("#20B9B4")
	colorBrite = lipgloss.Color("#2CD7C7")
	colorSlate = lipgloss.Color("#2C4A54")
)

// Styles used by the terminal renderer
var Styles = struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Header      lipgloss.Style
	Cell        lipgloss.Style
	Influential lipgloss.Style
	Muted       lipgloss.Style
}{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(colorBrite),
	Subtitle:    lipgloss.NewStyle().Foreground(colorTeal),
	Header:      lipgloss.NewStyle().Bold(true).Padding(0, 1),
	Cell:        lipgloss.NewStyle().Padding(0, 1),
	Influential: lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorBrite),
	Muted:       lipgloss.NewStyle().Foreground(colorSlate),
}

// Columns of every rendered index table
var Columns = []string{"parameter", "estimate", "ci_min", "ci_max", "influential"}

// TableRows formats an index table as string cells in Columns order
func TableRows(t *sensitivity.IndexTable) [][]string {
	rows := make([][]string, len(t.Rows))
	for i, ix := range t.Rows {
		rows[i] = []string{
			ix.Name(),
			FormatFloat(ix.Estimate),
			FormatFloat(ix.Interval.Min),
			FormatFloat(ix.Interval.Max),
			yesNo(ix.Influential),
		}
	}
	return rows
}

// RenderTable draws one index table with lipgloss
func RenderTable(t *sensitivity.IndexTable) string {
	influential := make([]bool, len(t.Rows))
	for i, ix := range t.Rows {
		influential[i] = ix.Influential
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorTeal)).
		Headers(Columns...).
		Rows(TableRows(t)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return Styles.Header
			case row >= 0 && row < len(influential) && influential[row]:
				return Styles.Influential
			default:
				return Styles.Cell
			}
		})
	return tbl.String()
}

// RenderTerminal draws every table of every scenario in the report
func RenderTerminal(r *run.Report) string {
	var b strings.Builder
	if m := r.Manifest; m != nil {
		b.WriteString(Styles.Title.Render(fmt.Sprintf("Run %s", m.RunID)))
		b.WriteString("\n")
		b.WriteString(Styles.Muted.Render(fmt.Sprintf("N=%d scheme=%s sampler=%s seed=%d resamples=%d confidence=%.2f",
			m.SampleCount, m.Scheme, m.Sampler, m.Seed, m.Resamples, m.Confidence)))
		b.WriteString("\n\n")
	}

	for _, sr := range r.Scenarios {
		b.WriteString(Styles.Title.Render(fmt.Sprintf("Scenario %s", sr.Scenario.ID)))
		b.WriteString("\n")
		b.WriteString(Styles.Muted.Render(sr.Scenario.Summary()))
		b.WriteString("\n")
		for _, t := range sr.Result.Tables() {
			b.WriteString(Styles.Subtitle.Render(OrderTitle(t.Order)))
			b.WriteString("\n")
			b.WriteString(RenderTable(t))
			b.WriteString("\n")
		}
		if p := sr.Profile; p != nil {
			b.WriteString(Styles.Muted.Render(fmt.Sprintf("conductance mean %s mm/s, sd %s, range [%s, %s]; corr(%s) = %s",
				FormatFloat(p.Output.Mean), FormatFloat(p.Output.StdDev),
				FormatFloat(p.Output.Min), FormatFloat(p.Output.Max),
				p.DominantParameter, FormatFloat(p.Correlation))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// OrderTitle is the human heading for an index order
func OrderTitle(o sensitivity.Order) string {
	switch o {
	case sensitivity.OrderFirst:
		return "First-order indices"
	case sensitivity.OrderTotal:
		return "Total-effect indices"
	case sensitivity.OrderSecond:
		return "Second-order indices"
	}
	return string(o)
}

// FormatFloat renders four decimals, or NaN
func FormatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
