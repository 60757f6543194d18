package sensitivity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcludesZero(t *testing.T) {
	tests := []struct {
		name string
		iv   Interval
		want bool
	}{
		{"strictly positive", Interval{Min: 0.01, Max: 0.4}, true},
		{"strictly negative", Interval{Min: -0.3, Max: -0.01}, true},
		{"straddles zero", Interval{Min: -0.01, Max: 0.2}, false},
		{"touches zero", Interval{Min: 0, Max: 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExcludesZero(tt.iv))
		})
	}
}

func TestIndexTableSort(t *testing.T) {
	table := IndexTable{
		Order: OrderTotal,
		Rows: []Index{
			{Parameters: []Parameter{Height}, Estimate: 0.2},
			{Parameters: []Parameter{RoughnessScalar}, Estimate: math.NaN()},
			{Parameters: []Parameter{Windspeed}, Estimate: 0.7},
			{Parameters: []Parameter{DisplacementScalar}, Estimate: 0.2},
		},
	}
	table.Sort()

	names := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		names[i] = r.Name()
	}
	assert.Equal(t, []string{"windspeed", "displacement_scalar", "height", "roughness_scalar"}, names)

	top, ok := table.Top()
	assert.True(t, ok)
	assert.Equal(t, Windspeed, top.Parameters[0])
}

func TestClassifyWithCustomPolicy(t *testing.T) {
	table := IndexTable{Rows: []Index{
		{Parameters: []Parameter{Windspeed, Height}, Interval: Interval{Min: -0.1, Max: 0.5}},
		{Parameters: []Parameter{Height}, Interval: Interval{Min: 0.1, Max: 0.5}},
	}}

	table.Classify(nil)
	assert.False(t, table.Rows[0].Influential)
	assert.True(t, table.Rows[1].Influential)

	wide := func(iv Interval) bool { return iv.Max-iv.Min > 0.5 }
	table.Classify(wide)
	assert.True(t, table.Rows[0].Influential)
	assert.False(t, table.Rows[1].Influential)

	row, ok := table.Lookup("windspeed:height")
	assert.True(t, ok)
	assert.True(t, row.Influential)
}
