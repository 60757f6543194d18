package ports

import (
	"context"

	"gosobol/domain/core"
	"gosobol/domain/run"
)

// LedgerWriterPort provides append-only write access to archived runs
type LedgerWriterPort interface {
	StoreRun(ctx context.Context, report *run.Report) error
}

// LedgerReaderPort provides read-only access to archived runs
type LedgerReaderPort interface {
	ListRuns(ctx context.Context, filters RunFilters) ([]run.RunManifest, error)
	GetRunManifest(ctx context.Context, runID core.RunID) (*run.RunManifest, error)
	GetRunIndices(ctx context.Context, runID core.RunID) ([]ArchivedIndex, error)
}

// RunFilters for querying archived runs
type RunFilters struct {
	Seed   *int64
	Scheme string
	Limit  int
	Offset int
}

// ArchivedIndex is one stored index row
type ArchivedIndex struct {
	Scenario    core.ScenarioID
	Order       string
	Parameters  string
	Estimate    float64
	Min         float64
	Max         float64
	Influential bool
}

// LedgerPort combines read and write access to the run archive
type LedgerPort interface {
	LedgerWriterPort
	LedgerReaderPort
	Close() error
}
