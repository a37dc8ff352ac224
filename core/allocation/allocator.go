package allocation

import (
	"github.com/kilianp07/chargeplan/core/coverage"
	"github.com/kilianp07/chargeplan/core/logger"
	"github.com/kilianp07/chargeplan/core/model"
)

// Result is the output of one allocation run.
type Result struct {
	Config          Config           `json:"config"`
	Order           []RankedSite     `json:"order"`
	Allocation      model.Allocation `json:"allocation"`
	Served          model.Served     `json:"-"`
	BudgetUsed      float64          `json:"budget_used"`
	BudgetRemaining float64          `json:"budget_remaining"`
	StationsBuilt   int              `json:"stations_built"`
	ChargersBuilt   int              `json:"chargers_built"`
	// HaltedAt is the first site left unprocessed because the budget ran
	// out, empty when every site was visited.
	HaltedAt string          `json:"halted_at,omitempty"`
	Coverage coverage.Report `json:"coverage"`
}

// Allocator is the greedy capacitated allocation heuristic. It holds no
// state between runs.
type Allocator struct {
	cfg  Config
	dist Distributor
	log  logger.Logger
}

// New validates cfg and returns an Allocator. A nil logger discards output.
func New(cfg Config, log logger.Logger) (*Allocator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Allocator{cfg: cfg, dist: NewDistributor(cfg.DistributionPolicy), log: logger.OrNop(log)}, nil
}

// Config returns the normalised configuration of the allocator.
func (a *Allocator) Config() Config { return a.cfg }

// Run allocates chargers over the ranked sites of m and distributes the
// built capacity. A nil or empty model yields an empty allocation with zero
// coverage.
func (a *Allocator) Run(m *model.DemandModel) Result {
	res := Result{Config: a.cfg, Allocation: model.Allocation{}, Served: model.Served{}}
	if m == nil {
		return res
	}
	for _, s := range m.Sites {
		res.Allocation[s] = 0
	}
	res.Order = RankSites(m)
	b := newBudget(a.cfg)
	ledger := NewLedger(m)

	for _, site := range res.Order {
		n, halt := b.grant(site.Traffic)
		if halt {
			res.HaltedAt = site.ID
			a.log.Debugw("allocation halted", map[string]any{
				"site":             site.ID,
				"remaining_budget": b.remaining(),
			})
			break
		}
		res.Allocation[site.ID] = n
		if n == 0 {
			continue
		}
		capacity := float64(n) * a.cfg.CapacityPerCharger
		a.dist.Distribute(site.ID, capacity, m.SiteEdges(site.ID), ledger)
		a.log.Debugw("site allocated", map[string]any{
			"site":             site.ID,
			"traffic":          site.Traffic,
			"chargers":         n,
			"capacity":         capacity,
			"remaining_budget": b.remaining(),
		})
	}

	res.Served = ledger.Served()
	res.BudgetUsed = b.used()
	res.BudgetRemaining = b.remaining()
	res.StationsBuilt = res.Allocation.Stations()
	res.ChargersBuilt = res.Allocation.Total()
	res.Coverage = coverage.Analyze(m, res.Served)
	a.log.Infof("allocated %d chargers on %d stations, coverage %.2f%%",
		res.ChargersBuilt, res.StationsBuilt, res.Coverage.CoveragePercent)
	return res
}

// Allocate is a convenience wrapper validating cfg and running once.
func Allocate(m *model.DemandModel, cfg Config, log logger.Logger) (Result, error) {
	a, err := New(cfg, log)
	if err != nil {
		return Result{}, err
	}
	return a.Run(m), nil
}
