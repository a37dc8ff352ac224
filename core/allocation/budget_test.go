package allocation

import (
	"errors"
	"math"
	"testing"

	"github.com/kilianp07/chargeplan/core/model"
)

func TestCountBudget(t *testing.T) {
	b := newBudget(Config{BudgetPolicy: BudgetCount, BudgetValue: 5.9, CapacityPerCharger: 10, MaxChargersPerSite: 3})
	steps := []struct {
		traffic float64
		want    int
		halt    bool
	}{
		{100, 3, false}, // capped per site
		{15, 1, false},
		{0, 0, false}, // zero utilisable does not halt
		{100, 1, false},
		{100, 0, true},
	}
	for i, s := range steps {
		n, halt := b.grant(s.traffic)
		if n != s.want || halt != s.halt {
			t.Fatalf("step %d: got (%d,%v) want (%d,%v)", i, n, halt, s.want, s.halt)
		}
	}
	if b.used() != 5 || b.remaining() != 0 {
		t.Fatalf("unexpected totals used=%v remaining=%v", b.used(), b.remaining())
	}
}

func TestCostBudget(t *testing.T) {
	b := newBudget(Config{
		BudgetPolicy: BudgetCost, BudgetValue: 500, StationCost: 100, ChargerCost: 50,
		CapacityPerCharger: 10, MaxChargersPerSite: 4,
	})
	// floor(25/10)+1 = 3 chargers -> 250
	if n, halt := b.grant(25); n != 3 || halt {
		t.Fatalf("first grant got %d halt=%v", n, halt)
	}
	// 250 left: at most floor(150/50)=3, utilisable 1 -> 150
	if n, halt := b.grant(0); n != 1 || halt {
		t.Fatalf("second grant got %d halt=%v", n, halt)
	}
	// 100 left < 150 for one station and one charger
	if n, halt := b.grant(1000); n != 0 || !halt {
		t.Fatalf("third grant got %d halt=%v", n, halt)
	}
	if b.used() != 400 || b.remaining() != 100 {
		t.Fatalf("unexpected totals used=%v remaining=%v", b.used(), b.remaining())
	}
}

func TestCountBudget_BeyondMaxInt(t *testing.T) {
	for _, v := range []float64{1e18, 1e19, 1e30, float64(math.MaxInt)} {
		b := newBudget(Config{BudgetPolicy: BudgetCount, BudgetValue: v, CapacityPerCharger: 50, MaxChargersPerSite: 5})
		if n, halt := b.grant(100); n != 2 || halt {
			t.Fatalf("budget %g: got (%d,%v) want (2,false)", v, n, halt)
		}
		if b.used() != 2 {
			t.Fatalf("budget %g: used=%v", v, b.used())
		}
	}
}

func TestAllocate_HugeCountBudgetKeepsCoverage(t *testing.T) {
	m, err := model.NewDemandModel(
		[]model.Area{{ID: "A", Demand: 100}},
		[]string{"S"},
		[]model.TripEdge{{Site: "S", Area: "A", Volume: 100}},
	)
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	cfg := Config{CapacityPerCharger: 50, MaxChargersPerSite: 5, BudgetPolicy: BudgetCount, DistributionPolicy: DistributePriority}
	prev := -1.0
	for _, v := range []float64{1, 2, 1e18, 1e19, 1e30} {
		cfg.BudgetValue = v
		res, err := Allocate(m, cfg, nil)
		if err != nil {
			t.Fatalf("budget %g: %v", v, err)
		}
		if res.Coverage.DemandCovered < prev {
			t.Fatalf("budget %g covers %v, less than %v", v, res.Coverage.DemandCovered, prev)
		}
		prev = res.Coverage.DemandCovered
	}
	if prev != 100 {
		t.Fatalf("expected full coverage, got %v", prev)
	}

	cfg.BudgetValue = math.Inf(1)
	if _, err := Allocate(m, cfg, nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected invalid configuration, got %v", err)
	}
}
