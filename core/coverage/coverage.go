// Package coverage aggregates served trips against area demand and
// classifies areas as fully, partially or not covered.
package coverage

import "github.com/kilianp07/chargeplan/core/model"

// Class is the coverage class of an area.
type Class int

const (
	NotCovered Class = iota
	PartiallyCovered
	FullyCovered
)

func (c Class) String() string {
	switch c {
	case FullyCovered:
		return "fully_covered"
	case PartiallyCovered:
		return "partially_covered"
	default:
		return "not_covered"
	}
}

// ClassStats summarises the areas of one class. Served fields are only
// meaningful for partially covered areas but are filled for every class.
type ClassStats struct {
	Count       int     `json:"count"`
	TotalDemand float64 `json:"total_demand"`
	MeanDemand  float64 `json:"mean_demand"`
	TotalServed float64 `json:"total_served"`
	MeanServed  float64 `json:"mean_served"`
}

// Report is the read-only coverage view of a run.
type Report struct {
	TotalDemand     float64    `json:"total_demand"`
	DemandCovered   float64    `json:"demand_covered"`
	CoveragePercent float64    `json:"coverage_percent"`
	Fully           ClassStats `json:"fully_covered"`
	Partial         ClassStats `json:"partially_covered"`
	NotCovered      ClassStats `json:"not_covered"`
}

// Classify returns the class of an area given its served total and demand.
// An unserved zero-demand area meets both the fully covered rule (served >=
// demand) and the not covered rule (served == 0); it is classed fully covered
// so every area lands in exactly one class.
func Classify(served, demand float64) Class {
	switch {
	case served >= demand:
		return FullyCovered
	case served > 0:
		return PartiallyCovered
	default:
		return NotCovered
	}
}

// Analyze computes the coverage report for served against the areas of m.
func Analyze(m *model.DemandModel, served model.Served) Report {
	var r Report
	if m == nil {
		return r
	}
	totals := served.ByArea()
	for _, a := range m.Areas {
		got := totals[a.ID]
		r.TotalDemand += a.Demand
		r.DemandCovered += min(got, a.Demand)

		var st *ClassStats
		switch Classify(got, a.Demand) {
		case FullyCovered:
			st = &r.Fully
		case PartiallyCovered:
			st = &r.Partial
		default:
			st = &r.NotCovered
		}
		st.Count++
		st.TotalDemand += a.Demand
		st.TotalServed += got
	}
	r.CoveragePercent = percent(r.DemandCovered, r.TotalDemand)
	for _, st := range []*ClassStats{&r.Fully, &r.Partial, &r.NotCovered} {
		st.MeanDemand = ratio(st.TotalDemand, float64(st.Count))
		st.MeanServed = ratio(st.TotalServed, float64(st.Count))
	}
	return r
}

// Saturation returns served_total/demand per area capped at 1. Areas with
// zero demand report 0.
func Saturation(m *model.DemandModel, served model.Served) map[string]float64 {
	out := make(map[string]float64)
	if m == nil {
		return out
	}
	totals := served.ByArea()
	for _, a := range m.Areas {
		out[a.ID] = min(ratio(totals[a.ID], a.Demand), 1)
	}
	return out
}

// Classes returns the class of every area keyed by area id.
func Classes(m *model.DemandModel, served model.Served) map[string]Class {
	out := make(map[string]Class)
	if m == nil {
		return out
	}
	totals := served.ByArea()
	for _, a := range m.Areas {
		out[a.ID] = Classify(totals[a.ID], a.Demand)
	}
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percent(num, den float64) float64 { return 100 * ratio(num, den) }
