package solver

import (
	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/coverage"
	"github.com/kilianp07/chargeplan/core/model"
)

// SiteDelta compares the charger count at one site.
type SiteDelta struct {
	Site      string  `json:"site"`
	Heuristic int     `json:"heuristic"`
	Solver    float64 `json:"solver"`
	Delta     float64 `json:"delta"`
}

// AreaDelta compares the saturation of one area.
type AreaDelta struct {
	Area      string  `json:"area"`
	Heuristic float64 `json:"heuristic"`
	Solver    float64 `json:"solver"`
	Delta     float64 `json:"delta"`
}

// Comparison reports how far a heuristic result is from a solver solution.
// Deltas are solver minus heuristic.
type Comparison struct {
	HeuristicCovered float64     `json:"heuristic_covered"`
	SolverCovered    float64     `json:"solver_covered"`
	Gap              float64     `json:"gap"`
	GapPercent       float64     `json:"gap_percent"`
	Sites            []SiteDelta `json:"sites"`
	Areas            []AreaDelta `json:"areas"`
}

// Compare lines up res and sol site by site and area by area in model order.
func Compare(m *model.DemandModel, res allocation.Result, sol Solution) Comparison {
	cmp := Comparison{
		HeuristicCovered: res.Coverage.DemandCovered,
		SolverCovered:    sol.DemandCovered,
	}
	cmp.Gap = cmp.SolverCovered - cmp.HeuristicCovered
	cmp.GapPercent = sol.CoveragePercent - res.Coverage.CoveragePercent
	if m == nil {
		return cmp
	}

	for _, site := range m.Sites {
		h := res.Allocation[site]
		s := sol.Chargers[site]
		cmp.Sites = append(cmp.Sites, SiteDelta{Site: site, Heuristic: h, Solver: s, Delta: s - float64(h)})
	}
	sat := coverage.Saturation(m, res.Served)
	for _, a := range m.Areas {
		h := sat[a.ID]
		s := sol.Saturation[a.ID]
		cmp.Areas = append(cmp.Areas, AreaDelta{Area: a.ID, Heuristic: h, Solver: s, Delta: s - h})
	}
	return cmp
}
