package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/model"
)

func demandModel(t *testing.T, areas ...model.Area) *model.DemandModel {
	t.Helper()
	m, err := model.NewDemandModel(areas, []string{"S1", "S2"}, nil)
	require.NoError(t, err)
	return m
}

func TestAnalyze_ReferenceScenario(t *testing.T) {
	m := demandModel(t, model.Area{ID: "A1", Demand: 100}, model.Area{ID: "A2", Demand: 50})
	served := model.Served{}
	served.Add("S1", "A1", 80)
	served.Add("S1", "A2", 20)

	r := Analyze(m, served)
	assert.Equal(t, 150.0, r.TotalDemand)
	assert.Equal(t, 100.0, r.DemandCovered)
	assert.InDelta(t, 66.6667, r.CoveragePercent, 1e-3)
	assert.Equal(t, 0, r.Fully.Count)
	assert.Equal(t, 2, r.Partial.Count)
	assert.Equal(t, 0, r.NotCovered.Count)
	assert.Equal(t, 150.0, r.Partial.TotalDemand)
	assert.Equal(t, 75.0, r.Partial.MeanDemand)
	assert.Equal(t, 100.0, r.Partial.TotalServed)
	assert.Equal(t, 50.0, r.Partial.MeanServed)
}

func TestAnalyze_CapsAtDemand(t *testing.T) {
	m := demandModel(t, model.Area{ID: "A1", Demand: 10}, model.Area{ID: "A2", Demand: 40})
	served := model.Served{}
	served.Add("S1", "A1", 25)
	served.Add("S2", "A1", 5)

	r := Analyze(m, served)
	assert.Equal(t, 10.0, r.DemandCovered)
	assert.Equal(t, 1, r.Fully.Count)
	assert.Equal(t, 1, r.NotCovered.Count)
	assert.Equal(t, 40.0, r.NotCovered.MeanDemand)
	assert.Equal(t, 20.0, r.CoveragePercent)
}

func TestAnalyze_PartitionIsComplete(t *testing.T) {
	m := demandModel(t,
		model.Area{ID: "A1", Demand: 10},
		model.Area{ID: "A2", Demand: 0},
		model.Area{ID: "A3", Demand: 30},
		model.Area{ID: "A4", Demand: 5},
	)
	served := model.Served{}
	served.Add("S1", "A1", 10)
	served.Add("S1", "A3", 12)

	r := Analyze(m, served)
	assert.Equal(t, len(m.Areas), r.Fully.Count+r.Partial.Count+r.NotCovered.Count)

	classes := Classes(m, served)
	assert.Equal(t, FullyCovered, classes["A1"])
	assert.Equal(t, FullyCovered, classes["A2"])
	assert.Equal(t, PartiallyCovered, classes["A3"])
	assert.Equal(t, NotCovered, classes["A4"])
}

func TestAnalyze_Degenerate(t *testing.T) {
	empty, err := model.NewDemandModel(nil, nil, nil)
	require.NoError(t, err)
	r := Analyze(empty, model.Served{})
	assert.Equal(t, 0.0, r.CoveragePercent)
	assert.Equal(t, 0, r.Fully.Count+r.Partial.Count+r.NotCovered.Count)

	zero := demandModel(t, model.Area{ID: "A1", Demand: 0})
	r = Analyze(zero, model.Served{})
	assert.Equal(t, 0.0, r.CoveragePercent)
	// Unserved zero-demand areas are fully covered, never counted twice.
	assert.Equal(t, FullyCovered, Classify(0, 0))
	assert.Equal(t, 1, r.Fully.Count)
	assert.Equal(t, 0, r.NotCovered.Count)
	assert.Equal(t, 0.0, r.Fully.MeanServed)

	assert.Equal(t, Report{}, Analyze(nil, nil))
}

func TestSaturation(t *testing.T) {
	m := demandModel(t,
		model.Area{ID: "A1", Demand: 100},
		model.Area{ID: "A2", Demand: 50},
		model.Area{ID: "A3", Demand: 0},
	)
	served := model.Served{}
	served.Add("S1", "A1", 80)
	served.Add("S1", "A2", 75)

	sat := Saturation(m, served)
	assert.InDelta(t, 0.8, sat["A1"], 1e-9)
	assert.Equal(t, 1.0, sat["A2"])
	assert.Equal(t, 0.0, sat["A3"])
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "fully_covered", FullyCovered.String())
	assert.Equal(t, "partially_covered", PartiallyCovered.String())
	assert.Equal(t, "not_covered", NotCovered.String())
}
