package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidDemand is returned when a demand model violates its shape
// invariants (negative volumes, unknown identifiers, duplicates).
var ErrInvalidDemand = errors.New("invalid demand model")

// Area is a demand zone whose trips may be served by one or more sites.
type Area struct {
	ID     string  `json:"id" yaml:"id"`
	Demand float64 `json:"demand" yaml:"demand"` // trip volume the area needs served
}

// Edge identifies a site to area trip relation.
type Edge struct {
	Site string `json:"site" yaml:"site"`
	Area string `json:"area" yaml:"area"`
}

// TripEdge is a sparse trip volume entry. Absent pairs imply zero trips.
type TripEdge struct {
	Site   string  `json:"site" yaml:"site"`
	Area   string  `json:"area" yaml:"area"`
	Volume float64 `json:"volume" yaml:"volume"`
}

// DemandModel is the read-only input of an allocation run. Areas and Sites
// keep their input order, which is the tie-break order used by the ranker.
type DemandModel struct {
	Areas []Area
	Sites []string
	Trips map[Edge]float64

	demand  map[string]float64
	bySite  map[string][]TripEdge
	siteSum map[string]float64
}

// NewDemandModel builds an indexed DemandModel from its raw parts. The
// returned model does not share its maps with the caller.
func NewDemandModel(areas []Area, sites []string, trips []TripEdge) (*DemandModel, error) {
	m := &DemandModel{
		Areas:   append([]Area(nil), areas...),
		Sites:   append([]string(nil), sites...),
		Trips:   make(map[Edge]float64, len(trips)),
		demand:  make(map[string]float64, len(areas)),
		bySite:  make(map[string][]TripEdge, len(sites)),
		siteSum: make(map[string]float64, len(sites)),
	}
	for _, a := range areas {
		if a.ID == "" {
			return nil, fmt.Errorf("%w: area with empty id", ErrInvalidDemand)
		}
		if _, dup := m.demand[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate area %s", ErrInvalidDemand, a.ID)
		}
		if a.Demand < 0 || math.IsNaN(a.Demand) || math.IsInf(a.Demand, 0) {
			return nil, fmt.Errorf("%w: area %s demand %v", ErrInvalidDemand, a.ID, a.Demand)
		}
		m.demand[a.ID] = a.Demand
	}
	for _, s := range sites {
		if s == "" {
			return nil, fmt.Errorf("%w: site with empty id", ErrInvalidDemand)
		}
		if _, dup := m.siteSum[s]; dup {
			return nil, fmt.Errorf("%w: duplicate site %s", ErrInvalidDemand, s)
		}
		m.siteSum[s] = 0
	}
	for _, t := range trips {
		if _, ok := m.siteSum[t.Site]; !ok {
			return nil, fmt.Errorf("%w: trip references unknown site %s", ErrInvalidDemand, t.Site)
		}
		if _, ok := m.demand[t.Area]; !ok {
			return nil, fmt.Errorf("%w: trip references unknown area %s", ErrInvalidDemand, t.Area)
		}
		if t.Volume < 0 || math.IsNaN(t.Volume) || math.IsInf(t.Volume, 0) {
			return nil, fmt.Errorf("%w: trip %s->%s volume %v", ErrInvalidDemand, t.Site, t.Area, t.Volume)
		}
		e := Edge{Site: t.Site, Area: t.Area}
		if _, dup := m.Trips[e]; dup {
			return nil, fmt.Errorf("%w: duplicate trip %s->%s", ErrInvalidDemand, t.Site, t.Area)
		}
		m.Trips[e] = t.Volume
		m.siteSum[t.Site] += t.Volume
	}
	// Per-site edges follow area input order so area iteration is stable.
	for _, s := range m.Sites {
		for _, a := range m.Areas {
			if v, ok := m.Trips[Edge{Site: s, Area: a.ID}]; ok {
				m.bySite[s] = append(m.bySite[s], TripEdge{Site: s, Area: a.ID, Volume: v})
			}
		}
	}
	return m, nil
}

// Demand returns the demand of an area, 0 for unknown areas.
func (m *DemandModel) Demand(area string) float64 { return m.demand[area] }

// Trip returns the trip volume between site and area.
func (m *DemandModel) Trip(site, area string) float64 {
	return m.Trips[Edge{Site: site, Area: area}]
}

// SiteEdges returns a copy of the trip edges leaving site, in area input order.
func (m *DemandModel) SiteEdges(site string) []TripEdge {
	return append([]TripEdge(nil), m.bySite[site]...)
}

// SiteTraffic returns the total outbound trip volume of site.
func (m *DemandModel) SiteTraffic(site string) float64 { return m.siteSum[site] }

// TotalDemand sums the demand of every area.
func (m *DemandModel) TotalDemand() float64 {
	var total float64
	for _, a := range m.Areas {
		total += a.Demand
	}
	return total
}

// Edges returns every trip edge, ordered by site then area input order.
func (m *DemandModel) Edges() []TripEdge {
	var out []TripEdge
	for _, s := range m.Sites {
		out = append(out, m.bySite[s]...)
	}
	return out
}

// Empty reports whether the model has no area or no site.
func (m *DemandModel) Empty() bool { return len(m.Areas) == 0 || len(m.Sites) == 0 }
