// Package sweep runs the allocator across a range of budgets, optionally
// alongside a solver bound warm-started from the previous budget.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/solver"
)

// ErrInvalidRange is returned by Budgets for unusable ranges.
var ErrInvalidRange = errors.New("sweep: invalid budget range")

// Budgets returns start, start+step, ... up to and including end.
func Budgets(start, end, step float64) ([]float64, error) {
	switch {
	case step <= 0 || math.IsNaN(step):
		return nil, fmt.Errorf("%w: step must be > 0", ErrInvalidRange)
	case start < 0 || math.IsNaN(start):
		return nil, fmt.Errorf("%w: start must be >= 0", ErrInvalidRange)
	case end < start || math.IsInf(end, 0):
		return nil, fmt.Errorf("%w: end must be >= start", ErrInvalidRange)
	}
	n := int(math.Floor((end-start)/step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out, nil
}

// Point is the outcome of one budget.
type Point struct {
	Budget          float64 `json:"budget"`
	BudgetUsed      float64 `json:"budget_used"`
	Stations        int     `json:"stations"`
	Chargers        int     `json:"chargers"`
	DemandCovered   float64 `json:"demand_covered"`
	CoveragePercent float64 `json:"coverage_percent"`
	HaltedAt        string  `json:"halted_at,omitempty"`

	// Bound fields are set when a solver ran for this point.
	Bounded      bool    `json:"bounded"`
	BoundCovered float64 `json:"bound_covered,omitempty"`
	BoundPercent float64 `json:"bound_percent,omitempty"`
}

// Runner sweeps budgets for a fixed configuration. Solver is optional.
type Runner struct {
	Config allocation.Config
	Solver solver.Solver
	Log    logger.Logger
	// OnPoint, if set, is called after each point.
	OnPoint func(Point, allocation.Result)
}

// Run evaluates every budget in order. Cancellation is checked between
// points; the points computed so far are returned with the context error.
func (r *Runner) Run(ctx context.Context, m *model.DemandModel, budgets []float64) ([]Point, error) {
	log := logger.OrNop(r.Log)
	cfg := r.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	useBound := r.Solver != nil
	var floor model.Allocation
	points := make([]Point, 0, len(budgets))
	for _, b := range budgets {
		if err := ctx.Err(); err != nil {
			return points, err
		}
		cfg.BudgetValue = b
		res, err := allocation.Allocate(m, cfg, log)
		if err != nil {
			return points, fmt.Errorf("budget %v: %w", b, err)
		}
		p := Point{
			Budget:          b,
			BudgetUsed:      res.BudgetUsed,
			Stations:        res.StationsBuilt,
			Chargers:        res.ChargersBuilt,
			DemandCovered:   res.Coverage.DemandCovered,
			CoveragePercent: res.Coverage.CoveragePercent,
			HaltedAt:        res.HaltedAt,
		}

		if useBound {
			sol, err := r.bound(ctx, m, cfg, floor, log)
			switch {
			case errors.Is(err, solver.ErrTooLarge):
				log.Warnf("sweep: disabling bound: %v", err)
				useBound = false
			case err != nil:
				return points, fmt.Errorf("budget %v: %w", b, err)
			default:
				p.Bounded = true
				p.BoundCovered = sol.DemandCovered
				p.BoundPercent = sol.CoveragePercent
				floor = sol.Floor()
			}
		}

		log.Debugw("sweep point", map[string]any{
			"budget":   b,
			"coverage": p.CoveragePercent,
			"bound":    p.BoundPercent,
		})
		points = append(points, p)
		if r.OnPoint != nil {
			r.OnPoint(p, res)
		}
	}
	return points, nil
}

// bound solves with the warm-start floor and retries without it when the
// floor no longer fits the budget.
func (r *Runner) bound(ctx context.Context, m *model.DemandModel, cfg allocation.Config, floor model.Allocation, log logger.Logger) (solver.Solution, error) {
	sol, err := r.Solver.Solve(ctx, m, cfg, floor)
	if errors.Is(err, solver.ErrInfeasible) && len(floor) > 0 {
		log.Warnf("sweep: warm start infeasible at budget %v, solving cold", cfg.BudgetValue)
		return r.Solver.Solve(ctx, m, cfg, nil)
	}
	return sol, err
}
