package scenario

import (
	"fmt"
	"io"
	"os"

	"gosobol/domain/core"
	"gosobol/domain/sensitivity"

	"gopkg.in/yaml.v3"
)

// fileFormat mirrors a scenarios YAML document:
//
//	scenarios:
//	  - id: C
//	    description: mid canopy
//	    parameters:
//	      windspeed: {kind: normal, mean: 2.8, sd: 0.4}
//	      height: {kind: uniform, min: 6, max: 7}
//	      displacement_scalar: {kind: normal, mean: 0.7, sd: 0.007}
//	      roughness_scalar: {kind: normal, mean: 0.1, sd: 0.001}
type fileFormat struct {
	Scenarios []struct {
		ID          string                  `yaml:"id"`
		Description string                  `yaml:"description"`
		Parameters  map[string]Distribution `yaml:"parameters"`
	} `yaml:"scenarios"`
}

// Decode reads scenarios from YAML. Every parameter must be present and valid.
func Decode(r io.Reader) ([]Scenario, error) {
	var doc fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}

	out := make([]Scenario, 0, len(doc.Scenarios))
	seen := make(map[string]bool)
	for _, raw := range doc.Scenarios {
		id, err := core.ParseScenarioID(raw.ID)
		if err != nil {
			return nil, err
		}
		if seen[id.Key()] {
			return nil, fmt.Errorf("duplicate scenario id %q", raw.ID)
		}
		seen[id.Key()] = true

		sc := Scenario{ID: id, Description: raw.Description}
		for i, p := range sensitivity.Parameters {
			d, ok := raw.Parameters[string(p)]
			if !ok {
				return nil, core.NewDistributionError(string(p), fmt.Sprintf("missing from scenario %s", raw.ID))
			}
			sc.Distributions[i] = d
		}
		for name := range raw.Parameters {
			if !isParameter(name) {
				return nil, core.NewDistributionError(name, "unknown parameter")
			}
		}
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// LoadFile reads scenarios from a YAML file
func LoadFile(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenarios file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Merge appends extra scenarios to base, replacing any with the same id.
// Ids match case-insensitively, as in Find.
func Merge(base, extra []Scenario) []Scenario {
	out := append([]Scenario(nil), base...)
	for _, e := range extra {
		replaced := false
		for i := range out {
			if out[i].ID.Key() == e.ID.Key() {
				out[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, e)
		}
	}
	return out
}

func isParameter(name string) bool {
	for _, p := range sensitivity.Parameters {
		if string(p) == name {
			return true
		}
	}
	return false
}
