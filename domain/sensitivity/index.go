package sensitivity

import (
	"math"
	"sort"
	"strings"
)

// Order identifies which family of Sobol index a table holds
type Order string

const (
	OrderFirst  Order = "first"
	OrderTotal  Order = "total"
	OrderSecond Order = "second"
)

// Interval is a bootstrap confidence interval
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the closed interval
func (iv Interval) Contains(v float64) bool {
	return v >= iv.Min && v <= iv.Max
}

// SignificancePolicy decides whether an index counts as influential from its interval
type SignificancePolicy func(Interval) bool

// ExcludesZero marks an index influential when its interval does not contain zero.
// This is a reporting convention, not a hypothesis test.
func ExcludesZero(iv Interval) bool {
	return iv.Min > 0 || iv.Max < 0
}

// Index is one estimated Sobol index
type Index struct {
	Parameters  []Parameter `json:"parameters"`
	Estimate    float64     `json:"estimate"`
	Interval    Interval    `json:"interval"`
	Influential bool        `json:"influential"`
}

// Name is the parameter name, or "a:b" for a pair
func (ix Index) Name() string {
	names := make([]string, len(ix.Parameters))
	for i, p := range ix.Parameters {
		names[i] = string(p)
	}
	return strings.Join(names, ":")
}

// IndexTable is the terminal artifact for one order of one scenario
type IndexTable struct {
	Order      Order   `json:"order"`
	Confidence float64 `json:"confidence"`
	Rows       []Index `json:"rows"`
}

// Sort orders rows by descending estimate. NaN estimates sink to the bottom
// and equal estimates fall back to name order.
func (t *IndexTable) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		aNaN, bNaN := math.IsNaN(a.Estimate), math.IsNaN(b.Estimate)
		switch {
		case aNaN && bNaN:
			return a.Name() < b.Name()
		case aNaN:
			return false
		case bNaN:
			return true
		case a.Estimate != b.Estimate:
			return a.Estimate > b.Estimate
		default:
			return a.Name() < b.Name()
		}
	})
}

// Classify sets Influential on every row using policy
func (t *IndexTable) Classify(policy SignificancePolicy) {
	if policy == nil {
		policy = ExcludesZero
	}
	for i := range t.Rows {
		t.Rows[i].Influential = policy(t.Rows[i].Interval)
	}
}

// Top returns the highest-ranked row after sorting
func (t IndexTable) Top() (Index, bool) {
	if len(t.Rows) == 0 {
		return Index{}, false
	}
	return t.Rows[0], true
}

// Lookup finds a row by name
func (t IndexTable) Lookup(name string) (Index, bool) {
	for _, row := range t.Rows {
		if row.Name() == name {
			return row, true
		}
	}
	return Index{}, false
}

// Result bundles every table estimated for one scenario
type Result struct {
	First      IndexTable  `json:"first"`
	Total      IndexTable  `json:"total"`
	Second     *IndexTable `json:"second,omitempty"`
	Mean       float64     `json:"mean"`
	Variance   float64     `json:"variance"`
	Resamples  int         `json:"resamples"`
	Confidence float64     `json:"confidence"`
}

// Tables returns the populated tables in first, total, second order
func (r *Result) Tables() []*IndexTable {
	tables := []*IndexTable{&r.First, &r.Total}
	if r.Second != nil {
		tables = append(tables, r.Second)
	}
	return tables
}

// Classify applies policy to every table
func (r *Result) Classify(policy SignificancePolicy) {
	for _, t := range r.Tables() {
		t.Classify(policy)
	}
}
