package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gosobol/domain/sensitivity"
	"gosobol/internal/errors"

	"github.com/xuri/excelize/v2"
)

// WriteDesign saves the unit evaluation matrix with its block labels. The
// format follows the extension: .xlsx writes a workbook, anything else CSV.
func WriteDesign(path string, design *sensitivity.DesignMatrix) error {
	if path == "" {
		return errors.ExportError("design", fmt.Errorf("no output path configured"))
	}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		err = writeDesignWorkbook(path, design)
	} else {
		err = writeDesignCSV(path, design)
	}
	if err != nil {
		return errors.ExportError(path, err)
	}
	return nil
}

func writeDesignWorkbook(path string, design *sensitivity.DesignMatrix) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	sb := &sheetBuilder{f: f, bold: bold}
	if err := sb.design("Design", design); err != nil {
		return err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func writeDesignCSV(path string, design *sensitivity.DesignMatrix) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"row", "block"}
	for j := 0; j < design.Dim(); j++ {
		header = append(header, string(sensitivity.Parameters[j]))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < design.Rows(); i++ {
		record := []string{strconv.Itoa(i), design.BlockLabel(i)}
		for _, v := range design.Row(i) {
			record = append(record, formatFloat(v))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
