package excel

import (
	"fmt"
	"math"
	"strings"

	"gosobol/domain/run"
	"gosobol/domain/sensitivity"
	"gosobol/internal"
	"gosobol/internal/errors"
	"gosobol/ports"

	"github.com/xuri/excelize/v2"
)

var _ ports.ExporterPort = (*Writer)(nil)

// IndexHeaders is the column layout of every index sheet
var IndexHeaders = []interface{}{"parameter", "estimate", "ci_min", "ci_max", "influential"}

// Writer exports a run report to an xlsx workbook
type Writer struct {
	config ExportConfig
	logger *internal.Logger
}

// NewWriter creates a workbook writer
func NewWriter(config ExportConfig, logger *internal.Logger) *Writer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Writer{config: config, logger: logger}
}

// Name identifies the exporter in logs
func (w *Writer) Name() string { return "xlsx" }

// Export builds the workbook and saves it to the configured path
func (w *Writer) Export(report *run.Report, design *sensitivity.DesignMatrix) error {
	if w.config.FilePath == "" {
		return errors.ExportError("xlsx", fmt.Errorf("no output path configured"))
	}
	f, err := w.Build(report, design)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(w.config.FilePath); err != nil {
		return errors.ExportError(w.config.FilePath, err)
	}
	w.logger.Info("Wrote workbook %s (%d sheets)", w.config.FilePath, f.SheetCount)
	return nil
}

// Build assembles the workbook in memory: a manifest sheet, the unit design,
// and one sheet per scenario and index order.
func (w *Writer) Build(report *run.Report, design *sensitivity.DesignMatrix) (*excelize.File, error) {
	f := excelize.NewFile()
	fail := func(err error) (*excelize.File, error) {
		f.Close()
		return nil, errors.ExportError("xlsx", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fail(err)
	}
	sb := &sheetBuilder{f: f, bold: bold}

	if err := sb.manifest(w.sheet(w.config.ManifestSheet, "Manifest"), report.Manifest); err != nil {
		return fail(err)
	}
	if w.config.IncludeDesign && design != nil {
		if err := sb.design(w.sheet(w.config.DesignSheet, "Design"), design); err != nil {
			return fail(err)
		}
	}
	for _, sr := range report.Scenarios {
		for _, table := range sr.Result.Tables() {
			name := sheetName(fmt.Sprintf("%s_%s", sr.Scenario.ID, table.Order))
			if err := sb.indices(name, table); err != nil {
				return fail(err)
			}
		}
		if w.config.IncludeProfile && sr.Profile != nil {
			if err := sb.profile(sheetName(fmt.Sprintf("%s_profile", sr.Scenario.ID)), sr.Profile); err != nil {
				return fail(err)
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fail(err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (w *Writer) sheet(configured, fallback string) string {
	if configured != "" {
		return sheetName(configured)
	}
	return fallback
}

type sheetBuilder struct {
	f    *excelize.File
	bold int
}

func (sb *sheetBuilder) newSheet(name string, headers []interface{}) error {
	if _, err := sb.f.NewSheet(name); err != nil {
		return err
	}
	if err := sb.f.SetSheetRow(name, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return sb.f.SetCellStyle(name, "A1", last, sb.bold)
}

func (sb *sheetBuilder) row(name string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return sb.f.SetSheetRow(name, cell, &values)
}

func (sb *sheetBuilder) manifest(name string, m *run.RunManifest) error {
	if err := sb.newSheet(name, []interface{}{"key", "value"}); err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	pairs := [][]interface{}{
		{"run_id", m.RunID.String()},
		{"seed", m.Seed},
		{"sample_count", m.SampleCount},
		{"scheme", string(m.Scheme)},
		{"sampler", m.Sampler},
		{"resamples", m.Resamples},
		{"confidence", m.Confidence},
		{"measurement_offset", m.MeasurementOffset},
		{"code_version", m.CodeVersion},
		{"design_hash", m.Fingerprint.DesignHash.String()},
		{"fingerprint", m.Fingerprint.Fingerprint.String()},
		{"created_at", m.CreatedAt.String()},
	}
	for i, p := range pairs {
		if err := sb.row(name, i+2, p); err != nil {
			return err
		}
	}
	return nil
}

func (sb *sheetBuilder) design(name string, d *sensitivity.DesignMatrix) error {
	headers := []interface{}{"row", "block"}
	for j := 0; j < d.Dim(); j++ {
		headers = append(headers, string(sensitivity.Parameters[j]))
	}
	if err := sb.newSheet(name, headers); err != nil {
		return err
	}
	for i := 0; i < d.Rows(); i++ {
		values := []interface{}{i, d.BlockLabel(i)}
		for _, v := range d.Row(i) {
			values = append(values, v)
		}
		if err := sb.row(name, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (sb *sheetBuilder) indices(name string, t *sensitivity.IndexTable) error {
	if err := sb.newSheet(name, IndexHeaders); err != nil {
		return err
	}
	for i, ix := range t.Rows {
		values := []interface{}{ix.Name(), cellValue(ix.Estimate), cellValue(ix.Interval.Min), cellValue(ix.Interval.Max), ix.Influential}
		if err := sb.row(name, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (sb *sheetBuilder) profile(name string, p *run.Profile) error {
	if err := sb.newSheet(name, []interface{}{"statistic", "value"}); err != nil {
		return err
	}
	s := p.Output
	stats := [][]interface{}{
		{"count", s.Count},
		{"non_finite", s.NonFinite},
		{"mean", cellValue(s.Mean)},
		{"std_dev", cellValue(s.StdDev)},
		{"min", cellValue(s.Min)},
		{"q25", cellValue(s.Q25)},
		{"median", cellValue(s.Median)},
		{"q75", cellValue(s.Q75)},
		{"max", cellValue(s.Max)},
		{"skewness", cellValue(s.Skewness)},
		{"kurtosis", cellValue(s.Kurtosis)},
		{"dominant_parameter", string(p.DominantParameter)},
		{"correlation", cellValue(p.Correlation)},
	}
	row := 2
	for _, values := range stats {
		if err := sb.row(name, row, values); err != nil {
			return err
		}
		row++
	}

	row++
	if err := sb.row(name, row, []interface{}{"bin_low", "bin_high", "count"}); err != nil {
		return err
	}
	h := p.OutputHistogram
	for i, c := range h.Counts {
		row++
		if err := sb.row(name, row, []interface{}{h.Dividers[i], h.Dividers[i+1], c}); err != nil {
			return err
		}
	}
	return nil
}

// cellValue writes non-finite numbers as text so the workbook stays valid
func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	return v
}

// sheetName strips characters Excel rejects and truncates to 31 runes
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, s)
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}
