package ports

import (
	"gosobol/domain/scenario"
	"gosobol/domain/sensitivity"
)

// DistributionMapperPort turns a unit design into a scenario's parameter set
type DistributionMapperPort interface {
	Map(design *sensitivity.DesignMatrix, sc scenario.Scenario) (*scenario.ParameterSet, error)
}
