package allocation

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/model"
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

func TestAllocator_ReferenceScenario(t *testing.T) {
	m := referenceModel(t)
	res, err := Allocate(m, validCountConfig(), nil)
	require.NoError(t, err)

	require.Len(t, res.Order, 2)
	assert.Equal(t, "S1", res.Order[0].ID)
	assert.Equal(t, 120.0, res.Order[0].Traffic)
	assert.Equal(t, 30.0, res.Order[1].Traffic)

	assert.Equal(t, model.Allocation{"S1": 2, "S2": 0}, res.Allocation)
	assert.Equal(t, 0.0, res.BudgetRemaining)
	assert.Equal(t, 2.0, res.BudgetUsed)
	assert.Equal(t, "S2", res.HaltedAt)

	assert.Equal(t, 80.0, res.Served.Get("S1", "A1"))
	assert.Equal(t, 20.0, res.Served.Get("S1", "A2"))
	assert.Equal(t, 0.0, res.Served.Get("S2", "A1"))

	cov := res.Coverage
	assert.Equal(t, 150.0, cov.TotalDemand)
	assert.Equal(t, 100.0, cov.DemandCovered)
	assert.InDelta(t, 66.67, cov.CoveragePercent, 0.01)
	assert.Equal(t, 0, cov.Fully.Count)
	assert.Equal(t, 2, cov.Partial.Count)
	assert.Equal(t, 0, cov.NotCovered.Count)
}

func TestAllocator_CountPolicyZeroSiteDoesNotHalt(t *testing.T) {
	m, err := model.NewDemandModel(
		[]model.Area{{ID: "A1", Demand: 500}},
		[]string{"big", "small", "mid"},
		[]model.TripEdge{
			{Site: "big", Area: "A1", Volume: 200},
			{Site: "small", Area: "A1", Volume: 30},
			{Site: "mid", Area: "A1", Volume: 100},
		},
	)
	require.NoError(t, err)
	cfg := validCountConfig()
	cfg.MaxChargersPerSite = 10
	cfg.BudgetValue = 10

	res, err := Allocate(m, cfg, nil)
	require.NoError(t, err)
	// small has floor(30/50)=0 utilisable chargers but is ranked last anyway.
	assert.Equal(t, model.Allocation{"big": 4, "mid": 2, "small": 0}, res.Allocation)
	assert.Empty(t, res.HaltedAt)
	assert.Equal(t, 4.0, res.BudgetRemaining)

	// A zero-charger site in the middle does not stop later sites.
	m2, err := model.NewDemandModel(
		[]model.Area{{ID: "A1", Demand: 500}, {ID: "A2", Demand: 500}},
		[]string{"a", "b", "c"},
		[]model.TripEdge{
			{Site: "a", Area: "A1", Volume: 40},
			{Site: "a", Area: "A2", Volume: 40},
			{Site: "b", Area: "A1", Volume: 45},
			{Site: "c", Area: "A2", Volume: 60},
		},
	)
	require.NoError(t, err)
	res, err = Allocate(m2, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(res.Order))
	assert.Equal(t, model.Allocation{"a": 1, "b": 0, "c": 1}, res.Allocation)
}

func TestAllocator_CountPolicyPartialCharger(t *testing.T) {
	m := referenceModel(t)
	cfg := validCountConfig()
	cfg.AllowPartialCharger = true
	cfg.MaxChargersPerSite = 5
	cfg.BudgetValue = 10

	res, err := Allocate(m, cfg, nil)
	require.NoError(t, err)
	// floor(120/50)+1 = 3, floor(30/50)+1 = 1
	assert.Equal(t, model.Allocation{"S1": 3, "S2": 1}, res.Allocation)
	assert.Equal(t, 80.0, res.Served.Get("S1", "A1"))
	assert.Equal(t, 40.0, res.Served.Get("S1", "A2"))
	assert.Equal(t, 20.0, res.Served.Get("S2", "A1"))
	assert.Equal(t, 10.0, res.Served.Get("S2", "A2"))
}

func costConfig(budget float64) Config {
	return Config{
		CapacityPerCharger: 50,
		MaxChargersPerSite: 3,
		BudgetPolicy:       BudgetCost,
		BudgetValue:        budget,
		StationCost:        100,
		ChargerCost:        10,
		DistributionPolicy: DistributePriority,
	}
}

func TestAllocator_CostPolicy(t *testing.T) {
	m := referenceModel(t)

	res, err := Allocate(m, costConfig(1000), nil)
	require.NoError(t, err)
	// S1: min(floor(120/50)+1=3, min(3, floor(900/10))) = 3 -> cost 130
	// S2: min(floor(30/50)+1=1, 3) = 1 -> cost 110
	assert.Equal(t, model.Allocation{"S1": 3, "S2": 1}, res.Allocation)
	assert.Equal(t, 240.0, res.BudgetUsed)
	assert.Equal(t, 760.0, res.BudgetRemaining)
	assert.Empty(t, res.HaltedAt)
	assert.Equal(t, 2, res.StationsBuilt)
	assert.Equal(t, 4, res.ChargersBuilt)
}

func TestAllocator_CostPolicyClampsToBudget(t *testing.T) {
	m := referenceModel(t)
	// 125 leaves room for one station and two chargers only.
	res, err := Allocate(m, costConfig(125), nil)
	require.NoError(t, err)
	assert.Equal(t, model.Allocation{"S1": 2, "S2": 0}, res.Allocation)
	assert.Equal(t, 5.0, res.BudgetRemaining)
	assert.Equal(t, "S2", res.HaltedAt)
}

func TestAllocator_CostPolicyHaltsWhenUnaffordable(t *testing.T) {
	m := referenceModel(t)
	res, err := Allocate(m, costConfig(109), nil)
	require.NoError(t, err)
	assert.Equal(t, model.Allocation{"S1": 0, "S2": 0}, res.Allocation)
	assert.Equal(t, "S1", res.HaltedAt)
	assert.Equal(t, 0.0, res.BudgetUsed)
	assert.Equal(t, 0.0, res.Coverage.CoveragePercent)
}

func TestAllocator_CostPolicyZeroTrafficSiteGetsOneCharger(t *testing.T) {
	m, err := model.NewDemandModel(
		[]model.Area{{ID: "A1", Demand: 10}},
		[]string{"busy", "idle"},
		[]model.TripEdge{{Site: "busy", Area: "A1", Volume: 10}},
	)
	require.NoError(t, err)
	res, err := Allocate(m, costConfig(1000), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allocation["idle"])
	assert.Equal(t, 1, res.Allocation["busy"])
}

func TestAllocator_ProportionalRespectsDemand(t *testing.T) {
	m, err := model.NewDemandModel(
		[]model.Area{{ID: "A1", Demand: 30}, {ID: "A2", Demand: 100}},
		[]string{"S1", "S2"},
		[]model.TripEdge{
			{Site: "S1", Area: "A1", Volume: 60},
			{Site: "S1", Area: "A2", Volume: 40},
			{Site: "S2", Area: "A1", Volume: 50},
			{Site: "S2", Area: "A2", Volume: 30},
		},
	)
	require.NoError(t, err)
	cfg := Config{
		CapacityPerCharger: 50,
		MaxChargersPerSite: 2,
		BudgetPolicy:       BudgetCount,
		BudgetValue:        4,
		DistributionPolicy: DistributeProportional,
	}
	res, err := Allocate(m, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, model.Allocation{"S1": 2, "S2": 1}, res.Allocation)

	// S1 capacity 100 split 60/40, A1 capped at its demand of 30.
	assert.InDelta(t, 30, res.Served.Get("S1", "A1"), 1e-9)
	assert.InDelta(t, 40, res.Served.Get("S1", "A2"), 1e-9)
	// S2 capacity 50 split 31.25/18.75; A1 is already full.
	assert.InDelta(t, 0, res.Served.Get("S2", "A1"), 1e-9)
	assert.InDelta(t, 18.75, res.Served.Get("S2", "A2"), 1e-9)

	byArea := res.Served.ByArea()
	for _, a := range m.Areas {
		assert.LessOrEqual(t, byArea[a.ID], a.Demand+1e-9, a.ID)
	}
}

func TestAllocator_EmptyInput(t *testing.T) {
	empty, err := model.NewDemandModel(nil, nil, nil)
	require.NoError(t, err)
	a, err := New(validCountConfig(), nil)
	require.NoError(t, err)

	res := a.Run(empty)
	assert.Empty(t, res.Allocation)
	assert.Empty(t, res.Served)
	assert.Equal(t, 0.0, res.Coverage.CoveragePercent)

	noSites, err := model.NewDemandModel([]model.Area{{ID: "A", Demand: 10}}, nil, nil)
	require.NoError(t, err)
	res = a.Run(noSites)
	assert.Empty(t, res.Allocation)
	assert.Equal(t, 1, res.Coverage.NotCovered.Count)

	res = a.Run(nil)
	assert.Empty(t, res.Allocation)
}

func TestAllocator_IsStatelessBetweenRuns(t *testing.T) {
	m := referenceModel(t)
	a, err := New(validCountConfig(), nil)
	require.NoError(t, err)
	first := a.Run(m)
	second := a.Run(m)
	assert.Equal(t, first.Allocation, second.Allocation)
	assert.Equal(t, first.Served, second.Served)
	assert.Equal(t, first.Coverage, second.Coverage)
}

func randomModel(t *testing.T, r *rand.Rand, areas, sites int) *model.DemandModel {
	t.Helper()
	var as []model.Area
	for i := 0; i < areas; i++ {
		as = append(as, model.Area{ID: fmt.Sprintf("A%d", i), Demand: float64(r.Intn(400))})
	}
	var ss []string
	var trips []model.TripEdge
	for i := 0; i < sites; i++ {
		s := fmt.Sprintf("S%d", i)
		ss = append(ss, s)
		for _, a := range as {
			if r.Intn(3) == 0 {
				continue
			}
			trips = append(trips, model.TripEdge{Site: s, Area: a.ID, Volume: float64(r.Intn(300))})
		}
	}
	m, err := model.NewDemandModel(as, ss, trips)
	require.NoError(t, err)
	return m
}

func TestAllocator_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	policies := []Config{
		{CapacityPerCharger: 60, MaxChargersPerSite: 4, BudgetPolicy: BudgetCount, BudgetValue: 12, DistributionPolicy: DistributePriority},
		{CapacityPerCharger: 60, MaxChargersPerSite: 4, BudgetPolicy: BudgetCount, BudgetValue: 12, DistributionPolicy: DistributeProportional, AllowPartialCharger: true},
		{CapacityPerCharger: 80, MaxChargersPerSite: 5, BudgetPolicy: BudgetCost, BudgetValue: 900, StationCost: 120, ChargerCost: 35, DistributionPolicy: DistributePriority},
		{CapacityPerCharger: 80, MaxChargersPerSite: 5, BudgetPolicy: BudgetCost, BudgetValue: 900, StationCost: 120, ChargerCost: 35, DistributionPolicy: DistributeProportional},
	}
	for i := 0; i < 20; i++ {
		m := randomModel(t, r, 8, 6)
		for _, cfg := range policies {
			res, err := Allocate(m, cfg, nil)
			require.NoError(t, err)

			bySite := res.Served.BySite()
			for site, n := range res.Allocation {
				assert.LessOrEqual(t, n, cfg.MaxChargersPerSite)
				assert.LessOrEqual(t, bySite[site], float64(n)*cfg.CapacityPerCharger+1e-6, "capacity %s", site)
			}
			for e, v := range res.Served {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, m.Trips[e]+1e-9, "oversell %v", e)
			}
			if cfg.DistributionPolicy == DistributeProportional {
				byArea := res.Served.ByArea()
				for _, a := range m.Areas {
					assert.LessOrEqual(t, byArea[a.ID], a.Demand+1e-6, "demand %s", a.ID)
				}
			}
			cov := res.Coverage
			assert.Equal(t, len(m.Areas), cov.Fully.Count+cov.Partial.Count+cov.NotCovered.Count)
			assert.LessOrEqual(t, res.BudgetUsed, cfg.BudgetValue+1e-9)
		}
	}
}

func TestAllocator_BudgetMonotonicity(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 10; i++ {
		m := randomModel(t, r, 10, 6)
		prev := -1.0
		for budget := 0; budget <= 30; budget++ {
			cfg := Config{
				CapacityPerCharger: 50,
				MaxChargersPerSite: 4,
				BudgetPolicy:       BudgetCount,
				BudgetValue:        float64(budget),
				DistributionPolicy: DistributePriority,
			}
			res, err := Allocate(m, cfg, nil)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Coverage.DemandCovered, prev-1e-9, "budget %d", budget)
			prev = res.Coverage.DemandCovered
		}
	}
}

func ids(sites []RankedSite) []string {
	out := make([]string, len(sites))
	for i, s := range sites {
		out[i] = s.ID
	}
	return out
}
