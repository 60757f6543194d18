package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gosobol/domain/run"
	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"
	"gosobol/ports"
)

// CSVExporter writes index tables as CSV files into Dir
type CSVExporter struct {
	Dir string
}

var _ ports.ExporterPort = CSVExporter{}

// Name identifies the exporter in logs
func (c CSVExporter) Name() string { return "csv" }

// Export writes every index table of report into Dir
func (c CSVExporter) Export(report *run.Report, _ *sensitivity.DesignMatrix) error {
	_, err := WriteCSV(c.Dir, report)
	return err
}

// WriteCSV writes one file per scenario and index order into dir, named
// <scenario>_<order>.csv. It returns the paths written.
func WriteCSV(dir string, report *run.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.ExportError(dir, err)
	}

	var written []string
	for _, sr := range report.Scenarios {
		for _, table := range sr.Result.Tables() {
			path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", sr.Scenario.ID, table.Order))
			if err := writeTableCSV(path, table); err != nil {
				return written, errors.ExportError(path, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeTableCSV(path string, t *sensitivity.IndexTable) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"parameter", "estimate", "ci_min", "ci_max", "influential"}); err != nil {
		return err
	}
	for _, ix := range t.Rows {
		record := []string{
			ix.Name(),
			formatFloat(ix.Estimate),
			formatFloat(ix.Interval.Min),
			formatFloat(ix.Interval.Max),
			strconv.FormatBool(ix.Influential),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
