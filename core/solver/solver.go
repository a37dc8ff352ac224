// Package solver defines the contract of the exact allocation solver the
// heuristic is validated against, a bundled LP relaxation bound and the
// comparison between the two.
package solver

import (
	"context"
	"errors"
	"math"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/model"
)

var (
	// ErrInfeasible indicates no allocation satisfies the budget and floors.
	ErrInfeasible = errors.New("solver: infeasible")
	// ErrTooLarge indicates the model exceeds the solver size limit.
	ErrTooLarge = errors.New("solver: model too large")
)

// Solver solves the allocation problem equivalent to a heuristic run. floor
// holds per-site lower bounds on chargers (warm start from a previous
// allocation); nil means no floor.
type Solver interface {
	Solve(ctx context.Context, m *model.DemandModel, cfg allocation.Config, floor model.Allocation) (Solution, error)
}

// Solution is the solver output in a shape comparable to allocation.Result.
type Solution struct {
	// Chargers may be fractional for relaxations.
	Chargers        map[string]float64 `json:"chargers"`
	Saturation      map[string]float64 `json:"saturation"`
	DemandCovered   float64            `json:"demand_covered"`
	CoveragePercent float64            `json:"coverage_percent"`
	CostUsed        float64            `json:"cost_used"`
	Relaxed         bool               `json:"relaxed"`
}

// Floor rounds the charger counts down. It is the warm-start floor handed to
// the next solve of a sweep.
func (s Solution) Floor() model.Allocation {
	out := make(model.Allocation, len(s.Chargers))
	for site, v := range s.Chargers {
		n := int(math.Floor(v + 1e-6))
		if n > 0 {
			out[site] = n
		}
	}
	return out
}

// Stations counts sites with a non-zero charger value.
func (s Solution) Stations() int {
	var n int
	for _, v := range s.Chargers {
		if v > 1e-6 {
			n++
		}
	}
	return n
}
