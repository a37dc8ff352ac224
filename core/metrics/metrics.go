package metrics

import (
	"time"

	"github.com/kilianp07/chargeplan/core/allocation"
)

// Run kinds.
const (
	KindAllocate = "allocate"
	KindSweep    = "sweep"
	KindCompare  = "compare"
)

// RunEvent summarises one allocation run for observability purposes.
type RunEvent struct {
	RunID              string
	Kind               string
	BudgetPolicy       string
	DistributionPolicy string
	Budget             float64
	BudgetUsed         float64
	BudgetRemaining    float64
	Stations           int
	Chargers           int
	TotalDemand        float64
	DemandCovered      float64
	CoveragePercent    float64
	FullyCovered       int
	PartiallyCovered   int
	NotCovered         int
	HaltedAt           string
	// Bound fields are set when a solver bound accompanies the run.
	Bounded      bool
	BoundPercent float64
	Duration     time.Duration
	Time         time.Time
}

// NewRunEvent fills a RunEvent from an allocation result.
func NewRunEvent(kind, runID string, res allocation.Result, at time.Time) RunEvent {
	cov := res.Coverage
	return RunEvent{
		RunID:              runID,
		Kind:               kind,
		BudgetPolicy:       string(res.Config.BudgetPolicy),
		DistributionPolicy: string(res.Config.DistributionPolicy),
		Budget:             res.Config.BudgetValue,
		BudgetUsed:         res.BudgetUsed,
		BudgetRemaining:    res.BudgetRemaining,
		Stations:           res.StationsBuilt,
		Chargers:           res.ChargersBuilt,
		TotalDemand:        cov.TotalDemand,
		DemandCovered:      cov.DemandCovered,
		CoveragePercent:    cov.CoveragePercent,
		FullyCovered:       cov.Fully.Count,
		PartiallyCovered:   cov.Partial.Count,
		NotCovered:         cov.NotCovered.Count,
		HaltedAt:           res.HaltedAt,
		Time:               at,
	}
}

// RunSink records run summaries.
type RunSink interface {
	RecordRun(ev RunEvent) error
}

// SiteAllocation is the per-site outcome of a run.
type SiteAllocation struct {
	Site     string
	Rank     int
	Traffic  float64
	Chargers int
	Served   float64
}

// SiteRecorder is implemented by sinks able to record per-site allocations.
type SiteRecorder interface {
	RecordSites(ev RunEvent, sites []SiteAllocation) error
}

// SiteAllocations lists the ranked sites of res with their chargers and the
// volume they served.
func SiteAllocations(res allocation.Result) []SiteAllocation {
	bySite := res.Served.BySite()
	out := make([]SiteAllocation, len(res.Order))
	for i, rs := range res.Order {
		out[i] = SiteAllocation{
			Site:     rs.ID,
			Rank:     i + 1,
			Traffic:  rs.Traffic,
			Chargers: res.Allocation[rs.ID],
			Served:   bySite[rs.ID],
		}
	}
	return out
}

// NopSink implements RunSink and SiteRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunEvent) error                      { return nil }
func (NopSink) RecordSites(RunEvent, []SiteAllocation) error { return nil }
