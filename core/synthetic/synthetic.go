// Package synthetic generates reproducible hub/residential demand models.
//
// Areas are named Area1..AreaN. The first half are hubs with low resident
// demand, the second half residential areas with high demand. Candidate sites
// are a random sample of the areas and trip volumes depend on the kind of
// the site and of the destination area.
package synthetic

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/kilianp07/chargeplan/core/model"
)

// ErrInvalidParams is returned for unusable generator parameters.
var ErrInvalidParams = errors.New("synthetic: invalid parameters")

// Params configures Generate.
type Params struct {
	Areas int   `json:"areas" yaml:"areas"`
	Sites int   `json:"sites" yaml:"sites"`
	Seed  int64 `json:"seed" yaml:"seed"`
}

type span struct{ lo, hi int }

func (s span) draw(r *rand.Rand) float64 { return float64(s.lo + r.Intn(s.hi-s.lo+1)) }

var (
	hubToResidential = span{800, 1200}
	hubToHub         = span{700, 1100}
	residentialToHub = span{800, 1200}
	residentialToRes = span{150, 300}
	residentialDem   = span{800, 1000}
	hubDem           = span{100, 200}
)

// Generate builds a demand model. The same params always yield the same model.
func Generate(p Params) (*model.DemandModel, error) {
	if p.Areas < 1 {
		return nil, fmt.Errorf("%w: areas must be >= 1", ErrInvalidParams)
	}
	if p.Sites < 0 || p.Sites > p.Areas {
		return nil, fmt.Errorf("%w: sites must be within [0, %d]", ErrInvalidParams, p.Areas)
	}
	r := rand.New(rand.NewSource(p.Seed))

	ids := make([]string, p.Areas)
	for i := range ids {
		ids[i] = fmt.Sprintf("Area%d", i+1)
	}
	half := p.Areas / 2
	hub := func(idx int) bool { return idx < half }

	perm := r.Perm(p.Areas)[:p.Sites]
	sites := make([]string, len(perm))
	var trips []model.TripEdge
	for k, si := range perm {
		sites[k] = ids[si]
		for aj, area := range ids {
			var s span
			switch {
			case hub(si) && hub(aj):
				s = hubToHub
			case hub(si):
				s = hubToResidential
			case hub(aj):
				s = residentialToHub
			default:
				s = residentialToRes
			}
			trips = append(trips, model.TripEdge{Site: sites[k], Area: area, Volume: s.draw(r)})
		}
	}

	areas := make([]model.Area, p.Areas)
	for j, id := range ids {
		s := residentialDem
		if hub(j) {
			s = hubDem
		}
		areas[j] = model.Area{ID: id, Demand: s.draw(r)}
	}
	return model.NewDemandModel(areas, sites, trips)
}
