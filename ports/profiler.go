package ports

import (
	"gosobol/domain/run"
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
)

// ProfilerPort builds the descriptive profile of one scenario's samples
type ProfilerPort interface {
	Profile(design *sensitivity.DesignMatrix, params *scenario.ParameterSet, outputs sensitivity.Outputs, result *sensitivity.Result) (*run.Profile, error)
}
