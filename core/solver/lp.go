package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/model"
)

// DefaultMaxVariables bounds the LP size. The simplex works on a dense
// tableau so memory grows with the square of the variable count.
const DefaultMaxVariables = 600

// LPRelaxation solves the continuous relaxation of the allocation problem:
// charger counts and station openings may be fractional. Its objective is an
// upper bound on the demand any integer allocation under the same budget can
// cover.
//
// Variables: build_i (chargers at site i), open_i (cost policy only),
// served_ij per trip edge, cover_j per area and a budget slack.
type LPRelaxation struct {
	MaxVariables int
	Tolerance    float64
}

// NewLPRelaxation returns a relaxation solver limited to maxVars variables.
// Non-positive values select DefaultMaxVariables.
func NewLPRelaxation(maxVars int) *LPRelaxation {
	if maxVars <= 0 {
		maxVars = DefaultMaxVariables
	}
	return &LPRelaxation{MaxVariables: maxVars, Tolerance: 1e-7}
}

// solveLP runs the simplex on min c·x subject to g·x <= h and a·x = b.
func solveLP(c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64, tol float64) ([]float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, err
	}
	// Convert splits each variable into x+ and x-.
	n := len(c)
	x := make([]float64, n)
	for i := range x {
		x[i] = sol[i] - sol[n+i]
	}
	return x, nil
}

// lpSolve points to the function used to solve the LP. It can be overridden in
// tests to simulate solver failures.
var lpSolve = solveLP

// Solve implements Solver.
func (s *LPRelaxation) Solve(ctx context.Context, m *model.DemandModel, cfg allocation.Config, floor model.Allocation) (Solution, error) {
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Solution{}, err
	}
	if m == nil || m.Empty() {
		return Solution{Chargers: map[string]float64{}, Saturation: map[string]float64{}, Relaxed: true}, nil
	}
	for site := range floor {
		if !contains(m.Sites, site) {
			return Solution{}, fmt.Errorf("solver: floor references unknown site %q", site)
		}
	}

	p := newProblem(m, cfg, floor)
	limit := s.MaxVariables
	if limit <= 0 {
		limit = DefaultMaxVariables
	}
	if p.n > limit {
		return Solution{}, fmt.Errorf("%w: %d variables exceed limit %d", ErrTooLarge, p.n, limit)
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = 1e-7
	}

	c, g, h, a, b := p.matrices()
	x, err := lpSolve(c, g, h, a, b, tol)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return Solution{}, fmt.Errorf("%w: %v", ErrInfeasible, err)
		}
		return Solution{}, fmt.Errorf("solver: simplex: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}
	return p.solution(x), nil
}

type problem struct {
	m     *model.DemandModel
	cfg   allocation.Config
	floor model.Allocation
	edges []model.TripEdge

	build, open, served, cover, slack int
	n                                 int
}

func newProblem(m *model.DemandModel, cfg allocation.Config, floor model.Allocation) *problem {
	p := &problem{m: m, cfg: cfg, floor: floor}
	for _, e := range m.Edges() {
		if e.Volume > 0 {
			p.edges = append(p.edges, e)
		}
	}
	nS := len(m.Sites)
	p.build = 0
	p.open = nS
	if p.cfg.BudgetPolicy == allocation.BudgetCost {
		p.served = p.open + nS
	} else {
		p.served = p.open
	}
	p.cover = p.served + len(p.edges)
	p.slack = p.cover + len(m.Areas)
	p.n = p.slack + 1
	return p
}

func (p *problem) cost() bool { return p.cfg.BudgetPolicy == allocation.BudgetCost }

func (p *problem) budget() float64 {
	if p.cost() {
		return p.cfg.BudgetValue
	}
	return math.Floor(p.cfg.BudgetValue)
}

// bounds returns the box constraints of every variable.
func (p *problem) bounds() (lo, hi []float64) {
	lo = make([]float64, p.n)
	hi = make([]float64, p.n)
	maxPer := float64(p.cfg.MaxChargersPerSite)
	for i, site := range p.m.Sites {
		hi[p.build+i] = maxPer
		lo[p.build+i] = float64(p.floor[site])
		if p.cost() {
			hi[p.open+i] = 1
			if p.floor[site] > 0 {
				lo[p.open+i] = 1
			}
		}
	}
	for k, e := range p.edges {
		hi[p.served+k] = e.Volume
	}
	for j, a := range p.m.Areas {
		hi[p.cover+j] = a.Demand
	}
	hi[p.slack] = max(p.budget(), 0)
	return lo, hi
}

func (p *problem) matrices() (c []float64, g *mat.Dense, h []float64, a *mat.Dense, b []float64) {
	nS, nA := len(p.m.Sites), len(p.m.Areas)
	rows := 2*p.n + nS + nA
	if p.cost() {
		rows += nS
	}

	c = make([]float64, p.n)
	for j := 0; j < nA; j++ {
		c[p.cover+j] = -1
	}

	g = mat.NewDense(rows, p.n, nil)
	h = make([]float64, rows)
	lo, hi := p.bounds()
	r := 0
	for v := 0; v < p.n; v++ {
		g.Set(r, v, 1)
		h[r] = hi[v]
		r++
		g.Set(r, v, -1)
		h[r] = -lo[v]
		r++
	}

	siteIdx := make(map[string]int, nS)
	for i, s := range p.m.Sites {
		siteIdx[s] = i
	}
	areaIdx := make(map[string]int, nA)
	for j, a := range p.m.Areas {
		areaIdx[a.ID] = j
	}

	// served at a site never exceeds its charger capacity.
	for i := range p.m.Sites {
		g.Set(r+i, p.build+i, -p.cfg.CapacityPerCharger)
	}
	for k, e := range p.edges {
		g.Set(r+siteIdx[e.Site], p.served+k, 1)
	}
	r += nS

	// cover_j <= sum of trips served into area j.
	for j := range p.m.Areas {
		g.Set(r+j, p.cover+j, 1)
	}
	for k, e := range p.edges {
		g.Set(r+areaIdx[e.Area], p.served+k, -1)
	}
	r += nA

	if p.cost() {
		// chargers only at opened stations.
		for i := range p.m.Sites {
			g.Set(r+i, p.build+i, 1)
			g.Set(r+i, p.open+i, -float64(p.cfg.MaxChargersPerSite))
		}
	}

	a = mat.NewDense(1, p.n, nil)
	for i := range p.m.Sites {
		if p.cost() {
			a.Set(0, p.build+i, p.cfg.ChargerCost)
			a.Set(0, p.open+i, p.cfg.StationCost)
		} else {
			a.Set(0, p.build+i, 1)
		}
	}
	a.Set(0, p.slack, 1)
	b = []float64{p.budget()}
	return c, g, h, a, b
}

func (p *problem) solution(x []float64) Solution {
	sol := Solution{
		Chargers:   make(map[string]float64, len(p.m.Sites)),
		Saturation: make(map[string]float64, len(p.m.Areas)),
		Relaxed:    true,
	}
	for i, site := range p.m.Sites {
		v := clamp(x[p.build+i], 0, float64(p.cfg.MaxChargersPerSite))
		sol.Chargers[site] = v
		if p.cost() {
			sol.CostUsed += p.cfg.ChargerCost*v + p.cfg.StationCost*clamp(x[p.open+i], 0, 1)
		} else {
			sol.CostUsed += v
		}
	}
	var total float64
	for j, a := range p.m.Areas {
		v := clamp(x[p.cover+j], 0, a.Demand)
		sol.DemandCovered += v
		total += a.Demand
		if a.Demand > 0 {
			sol.Saturation[a.ID] = v / a.Demand
		} else {
			sol.Saturation[a.ID] = 0
		}
	}
	if total > 0 {
		sol.CoveragePercent = 100 * sol.DemandCovered / total
	}
	return sol
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
