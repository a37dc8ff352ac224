package model

// Allocation maps a site to the number of chargers built there.
type Allocation map[string]int

// Total returns the number of chargers across all sites.
func (a Allocation) Total() int {
	var n int
	for _, c := range a {
		n += c
	}
	return n
}

// Stations returns the number of sites with at least one charger.
func (a Allocation) Stations() int {
	var n int
	for _, c := range a {
		if c > 0 {
			n++
		}
	}
	return n
}

// Clone returns a copy of the allocation.
func (a Allocation) Clone() Allocation {
	cp := make(Allocation, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// Served maps a site to area relation to the trip volume served on it.
type Served map[Edge]float64

// Add accumulates volume on the site to area relation.
func (s Served) Add(site, area string, volume float64) {
	if volume <= 0 {
		return
	}
	s[Edge{Site: site, Area: area}] += volume
}

// Get returns the served volume for the relation.
func (s Served) Get(site, area string) float64 {
	return s[Edge{Site: site, Area: area}]
}

// ByArea aggregates served volume per area.
func (s Served) ByArea() map[string]float64 {
	out := make(map[string]float64)
	for e, v := range s {
		out[e.Area] += v
	}
	return out
}

// BySite aggregates served volume per site.
func (s Served) BySite() map[string]float64 {
	out := make(map[string]float64)
	for e, v := range s {
		out[e.Site] += v
	}
	return out
}
