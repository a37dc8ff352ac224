package allocation

import (
	"sort"

	"github.com/kilianp07/chargeplan/core/model"
)

// Ledger accumulates served trips across the ranked-site iteration. Areas
// filled by earlier sites accept less from later ones.
type Ledger struct {
	served     model.Served
	areaServed map[string]float64
	demand     func(area string) float64
}

// NewLedger returns an empty ledger for m.
func NewLedger(m *model.DemandModel) *Ledger {
	return &Ledger{
		served:     model.Served{},
		areaServed: make(map[string]float64),
		demand:     m.Demand,
	}
}

// Serve records volume served from site to area.
func (l *Ledger) Serve(site, area string, volume float64) {
	if volume <= 0 {
		return
	}
	l.served.Add(site, area, volume)
	l.areaServed[area] += volume
}

// AreaServed returns the volume already served to area by any site.
func (l *Ledger) AreaServed(area string) float64 { return l.areaServed[area] }

// RemainingDemand returns the unmet demand of area, never negative.
func (l *Ledger) RemainingDemand(area string) float64 {
	return max(0, l.demand(area)-l.areaServed[area])
}

// Served returns the accumulated served mapping.
func (l *Ledger) Served() model.Served { return l.served }

// Distributor assigns a site's newly built capacity to the areas it has
// trips to.
type Distributor interface {
	Distribute(site string, capacity float64, edges []model.TripEdge, l *Ledger)
}

// NewDistributor returns the distributor implementing policy.
func NewDistributor(policy DistributionPolicy) Distributor {
	if policy == DistributeProportional {
		return ProportionalDistributor{}
	}
	return PriorityDistributor{}
}

// PriorityDistributor visits areas by descending trip volume and serves
// each one up to its trip edge until the site capacity is exhausted. It does
// not look at area demand; the coverage report caps at demand instead.
type PriorityDistributor struct{}

func (PriorityDistributor) Distribute(site string, capacity float64, edges []model.TripEdge, l *Ledger) {
	ordered := append([]model.TripEdge(nil), edges...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Volume > ordered[j].Volume })
	left := capacity
	for _, e := range ordered {
		if left <= 0 {
			break
		}
		v := min(e.Volume, left)
		l.Serve(site, e.Area, v)
		left -= v
	}
}

// ProportionalDistributor splits capacity by each area's share of the site
// traffic and never serves beyond an area's remaining demand.
type ProportionalDistributor struct{}

func (ProportionalDistributor) Distribute(site string, capacity float64, edges []model.TripEdge, l *Ledger) {
	var total float64
	for _, e := range edges {
		total += e.Volume
	}
	if total <= 0 || capacity <= 0 {
		return
	}
	for _, e := range edges {
		if e.Volume <= 0 {
			continue
		}
		share := capacity * (e.Volume / total)
		l.Serve(site, e.Area, min(share, e.Volume, l.RemainingDemand(e.Area)))
	}
}
