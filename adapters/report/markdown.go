package report

import (
	"fmt"
	"os"
	"strings"

	"gosobol/domain/run"
	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"
	"gosobol/ports"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown renders the report as a GitHub-flavoured markdown document
func Markdown(r *run.Report) string {
	var b strings.Builder
	b.WriteString("# Aerodynamic conductance sensitivity\n\n")

	if m := r.Manifest; m != nil {
		b.WriteString("| run | samples | scheme | sampler | seed | resamples | confidence | fingerprint |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %d | %d | %.2f | %s |\n\n",
			m.RunID, m.SampleCount, m.Scheme, m.Sampler, m.Seed, m.Resamples, m.Confidence, m.Fingerprint.Fingerprint.Short())
	}

	for _, sr := range r.Scenarios {
		fmt.Fprintf(&b, "## Scenario %s\n\n", sr.Scenario.ID)
		if sr.Scenario.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", sr.Scenario.Description)
		}
		for _, d := range strings.Split(sr.Scenario.Summary(), "; ") {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")

		for _, t := range sr.Result.Tables() {
			fmt.Fprintf(&b, "### %s\n\n", OrderTitle(t.Order))
			b.WriteString("| " + strings.Join(Columns, " | ") + " |\n")
			b.WriteString(strings.Repeat("|---", len(Columns)) + "|\n")
			for _, row := range TableRows(t) {
				b.WriteString("| " + strings.Join(row, " | ") + " |\n")
			}
			b.WriteString("\n")
		}

		if p := sr.Profile; p != nil {
			b.WriteString("### Output distribution\n\n")
			fmt.Fprintf(&b, "Conductance over %d evaluations (%d non-finite): mean %s mm/s, sd %s, median %s, IQR [%s, %s], range [%s, %s].\n\n",
				p.Output.Count, p.Output.NonFinite,
				FormatFloat(p.Output.Mean), FormatFloat(p.Output.StdDev), FormatFloat(p.Output.Median),
				FormatFloat(p.Output.Q25), FormatFloat(p.Output.Q75),
				FormatFloat(p.Output.Min), FormatFloat(p.Output.Max))
			if p.DominantParameter != "" {
				fmt.Fprintf(&b, "The dominant parameter is **%s** with correlation %s against conductance.\n\n",
					p.DominantParameter, FormatFloat(p.Correlation))
			}
		}
	}
	return b.String()
}

// HTML converts rendered markdown into a standalone HTML page
func HTML(md string, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage | html.HrefTargetBlank,
		Title: title,
	})
	return markdown.Render(doc, renderer)
}

// MarkdownExporter writes the markdown report to Path
type MarkdownExporter struct {
	Path string
}

// Name identifies the exporter in logs
func (e MarkdownExporter) Name() string { return "markdown" }

// Export writes the report
func (e MarkdownExporter) Export(r *run.Report, _ *sensitivity.DesignMatrix) error {
	return WriteMarkdown(e.Path, r)
}

// HTMLExporter writes the HTML report to Path
type HTMLExporter struct {
	Path string
}

// Name identifies the exporter in logs
func (e HTMLExporter) Name() string { return "html" }

// Export writes the report
func (e HTMLExporter) Export(r *run.Report, _ *sensitivity.DesignMatrix) error {
	return WriteHTML(e.Path, r)
}

var (
	_ ports.ExporterPort = MarkdownExporter{}
	_ ports.ExporterPort = HTMLExporter{}
)

// WriteMarkdown writes the markdown report to path
func WriteMarkdown(path string, r *run.Report) error {
	if err := os.WriteFile(path, []byte(Markdown(r)), 0o644); err != nil {
		return errors.ExportError(path, err)
	}
	return nil
}

// WriteHTML writes the HTML report to path
func WriteHTML(path string, r *run.Report) error {
	title := "Sensitivity report"
	if r.Manifest != nil {
		title = fmt.Sprintf("Sensitivity report %s", r.Manifest.RunID)
	}
	if err := os.WriteFile(path, HTML(Markdown(r), title), 0o644); err != nil {
		return errors.ExportError(path, err)
	}
	return nil
}
