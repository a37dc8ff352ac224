package scenarios

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/chargeplan/core/allocation"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/metrics"
)

const tolerance = 1e-6

// RunScenario allocates the scenario, checks the expected outcome and the
// allocation invariants, and verifies the run is exported to Prometheus.
func RunScenario(t *testing.T, sc *Scenario) {
	m, err := sc.Model()
	if err != nil {
		t.Fatalf("model: %v", err)
	}
	res, err := allocation.Allocate(m, sc.Config, logger.NopLogger{})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	exp := sc.Expected
	for _, site := range m.Sites {
		if got, want := res.Allocation[site], exp.Chargers[site]; got != want {
			t.Errorf("site %s: expected %d chargers, got %d", site, want, got)
		}
	}
	if math.Abs(res.Coverage.DemandCovered-exp.DemandCovered) > tolerance {
		t.Errorf("expected %.3f demand covered, got %.3f", exp.DemandCovered, res.Coverage.DemandCovered)
	}
	if res.Coverage.Fully.Count != exp.FullyCovered ||
		res.Coverage.Partial.Count != exp.PartiallyCovered ||
		res.Coverage.NotCovered.Count != exp.NotCovered {
		t.Errorf("expected classes %d/%d/%d, got %d/%d/%d",
			exp.FullyCovered, exp.PartiallyCovered, exp.NotCovered,
			res.Coverage.Fully.Count, res.Coverage.Partial.Count, res.Coverage.NotCovered.Count)
	}
	if res.HaltedAt != exp.HaltedAt {
		t.Errorf("expected halt at %q, got %q", exp.HaltedAt, res.HaltedAt)
	}
	checkInvariants(t, m, res)
	checkExported(t, res)
}

// checkInvariants verifies capacity, trip and partition bounds.
func checkInvariants(t *testing.T, m *model.DemandModel, res allocation.Result) {
	bySite := res.Served.BySite()
	for _, site := range m.Sites {
		limit := float64(res.Allocation[site]) * res.Config.CapacityPerCharger
		if bySite[site] > limit+tolerance {
			t.Errorf("site %s serves %.3f over capacity %.3f", site, bySite[site], limit)
		}
	}
	for e, v := range res.Served {
		if v > m.Trip(e.Site, e.Area)+tolerance {
			t.Errorf("relation %s->%s serves %.3f over %.3f trips", e.Site, e.Area, v, m.Trip(e.Site, e.Area))
		}
	}
	cov := res.Coverage
	if n := cov.Fully.Count + cov.Partial.Count + cov.NotCovered.Count; n != len(m.Areas) {
		t.Errorf("classes cover %d of %d areas", n, len(m.Areas))
	}
}

func checkExported(t *testing.T, res allocation.Result) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry("qa", reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	ev := coremetrics.NewRunEvent(coremetrics.KindAllocate, "qa", res, time.Unix(0, 0))
	if err := sink.RecordRun(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	want := fmt.Sprintf(`# HELP qa_chargers_built Chargers allocated by the last run
# TYPE qa_chargers_built gauge
qa_chargers_built{budget_policy=%q,distribution_policy=%q,kind="allocate"} %d
`, ev.BudgetPolicy, ev.DistributionPolicy, res.ChargersBuilt)
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "qa_chargers_built"); err != nil {
		t.Errorf("exported metrics: %v", err)
	}
}
