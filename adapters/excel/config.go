package excel

// ExportConfig holds configuration for workbook and CSV exports
type ExportConfig struct {
	FilePath string `json:"file_path"`
	// IncludeDesign adds the unit design matrix sheet
	IncludeDesign bool `json:"include_design"`
	// IncludeProfile adds per-scenario output summary and histogram sheets
	IncludeProfile bool   `json:"include_profile"`
	DesignSheet    string `json:"design_sheet"`
	ManifestSheet  string `json:"manifest_sheet"`
}

// DefaultExportConfig returns sensible defaults for workbook exports
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		IncludeDesign:  true,
		IncludeProfile: true,
		DesignSheet:    "Design",
		ManifestSheet:  "Manifest",
	}
}
