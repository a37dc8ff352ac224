package allocation

import (
	"sort"

	"github.com/kilianp07/chargeplan/core/model"
)

// RankedSite is a candidate site with its total outbound trip volume.
type RankedSite struct {
	ID      string  `json:"id"`
	Traffic float64 `json:"traffic"`
}

// Rank orders sites by descending outbound trip volume. Ties keep their
// relative order from sites.
func Rank(sites []string, trips map[model.Edge]float64) []RankedSite {
	traffic := make(map[string]float64, len(sites))
	for e, v := range trips {
		traffic[e.Site] += v
	}
	out := make([]RankedSite, len(sites))
	for i, s := range sites {
		out[i] = RankedSite{ID: s, Traffic: traffic[s]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Traffic > out[j].Traffic })
	return out
}

// RankSites ranks the candidate sites of m.
func RankSites(m *model.DemandModel) []RankedSite {
	if m == nil {
		return nil
	}
	return Rank(m.Sites, m.Trips)
}
