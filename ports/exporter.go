package ports

import (
	"gosobol/domain/run"
	"gosobol/domain/sensitivity"
)

// ExporterPort writes a finished report to one output target
type ExporterPort interface {
	Name() string
	Export(report *run.Report, design *sensitivity.DesignMatrix) error
}
