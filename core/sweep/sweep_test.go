package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/solver"
)

func referenceModel(t *testing.T) *model.DemandModel {
	t.Helper()
	m, err := model.NewDemandModel(
		[]model.Area{{ID: "A1", Demand: 100}, {ID: "A2", Demand: 50}},
		[]string{"S1", "S2"},
		[]model.TripEdge{
			{Site: "S1", Area: "A1", Volume: 80},
			{Site: "S1", Area: "A2", Volume: 40},
			{Site: "S2", Area: "A1", Volume: 20},
			{Site: "S2", Area: "A2", Volume: 10},
		},
	)
	require.NoError(t, err)
	return m
}

func countConfig() allocation.Config {
	return allocation.Config{
		CapacityPerCharger: 50,
		MaxChargersPerSite: 2,
		BudgetPolicy:       allocation.BudgetCount,
		DistributionPolicy: allocation.DistributePriority,
	}
}

func TestBudgets(t *testing.T) {
	got, err := Budgets(0, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, got)

	got, err = Budgets(100, 350, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 300}, got)

	got, err = Budgets(0, 0.3, 0.1)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	for _, tc := range []struct{ start, end, step float64 }{
		{0, 1, 0}, {0, 1, -1}, {-1, 1, 1}, {2, 1, 1},
	} {
		_, err := Budgets(tc.start, tc.end, tc.step)
		assert.ErrorIs(t, err, ErrInvalidRange, "%+v", tc)
	}
}

func TestRunner_HeuristicAndBound(t *testing.T) {
	m := referenceModel(t)
	budgets, err := Budgets(0, 3, 1)
	require.NoError(t, err)

	var seen int
	r := &Runner{
		Config:  countConfig(),
		Solver:  solver.NewLPRelaxation(0),
		OnPoint: func(Point, allocation.Result) { seen++ },
	}
	points, err := r.Run(context.Background(), m, budgets)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, 4, seen)

	covered := []float64{0, 50, 100, 100}
	bound := []float64{0, 50, 100, 130}
	for i, p := range points {
		assert.Equal(t, budgets[i], p.Budget)
		assert.InDelta(t, covered[i], p.DemandCovered, 1e-9, "budget %v", p.Budget)
		assert.True(t, p.Bounded)
		assert.InDelta(t, bound[i], p.BoundCovered, 1e-6, "budget %v", p.Budget)
		assert.GreaterOrEqual(t, p.BoundCovered, p.DemandCovered-1e-6)
	}
	assert.Equal(t, 2, points[3].Chargers)
	assert.Equal(t, 1, points[3].Stations)
}

type fakeSolver struct {
	floors     []model.Allocation
	infeasible bool
}

func (f *fakeSolver) Solve(_ context.Context, _ *model.DemandModel, cfg allocation.Config, floor model.Allocation) (solver.Solution, error) {
	f.floors = append(f.floors, floor)
	if f.infeasible && len(floor) > 0 {
		return solver.Solution{}, solver.ErrInfeasible
	}
	return solver.Solution{
		Chargers:      map[string]float64{"S1": cfg.BudgetValue * 0.75},
		DemandCovered: cfg.BudgetValue,
	}, nil
}

func TestRunner_WarmStartFloor(t *testing.T) {
	m := referenceModel(t)
	fs := &fakeSolver{}
	r := &Runner{Config: countConfig(), Solver: fs}

	_, err := r.Run(context.Background(), m, []float64{2, 4})
	require.NoError(t, err)
	require.Len(t, fs.floors, 2)
	assert.Nil(t, fs.floors[0])
	// 2 * 0.75 = 1.5 floors to 1.
	assert.Equal(t, model.Allocation{"S1": 1}, fs.floors[1])
}

func TestRunner_InfeasibleWarmStartRetriesCold(t *testing.T) {
	m := referenceModel(t)
	fs := &fakeSolver{infeasible: true}
	r := &Runner{Config: countConfig(), Solver: fs}

	points, err := r.Run(context.Background(), m, []float64{2, 4})
	require.NoError(t, err)
	require.Len(t, fs.floors, 3)
	assert.Nil(t, fs.floors[2])
	assert.Equal(t, 4.0, points[1].BoundCovered)
}

func TestRunner_TooLargeDisablesBound(t *testing.T) {
	m := referenceModel(t)
	r := &Runner{Config: countConfig(), Solver: solver.NewLPRelaxation(2)}

	points, err := r.Run(context.Background(), m, []float64{1, 2})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.False(t, points[0].Bounded)
	assert.False(t, points[1].Bounded)
	assert.Equal(t, 100.0, points[1].DemandCovered)
}

func TestRunner_Cancelled(t *testing.T) {
	m := referenceModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		Config:  countConfig(),
		OnPoint: func(Point, allocation.Result) { cancel() },
	}
	points, err := r.Run(ctx, m, []float64{1, 2, 3})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, points, 1)
}

func TestRunner_InvalidConfig(t *testing.T) {
	cfg := countConfig()
	cfg.CapacityPerCharger = -1
	_, err := (&Runner{Config: cfg}).Run(context.Background(), referenceModel(t), []float64{1})
	assert.ErrorIs(t, err, allocation.ErrInvalidConfiguration)
}
