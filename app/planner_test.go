package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/allocation"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/runlog"
	"github.com/kilianp07/chargeplan/core/solver"
	"github.com/kilianp07/chargeplan/core/sweep"
	"github.com/kilianp07/chargeplan/infra/dataset"
	"github.com/kilianp07/chargeplan/pkg/export"
)

type recordingSink struct {
	runs  []coremetrics.RunEvent
	sites int
	err   error
}

func (s *recordingSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs = append(s.runs, ev)
	return s.err
}

func (s *recordingSink) RecordSites(_ coremetrics.RunEvent, sites []coremetrics.SiteAllocation) error {
	s.sites += len(sites)
	return nil
}

func referenceModel(t *testing.T) *model.DemandModel {
	t.Helper()
	m, err := model.NewDemandModel(
		[]model.Area{{ID: "A1", Demand: 100}, {ID: "A2", Demand: 50}},
		[]string{"S1", "S2"},
		[]model.TripEdge{
			{Site: "S1", Area: "A1", Volume: 80},
			{Site: "S1", Area: "A2", Volume: 40},
			{Site: "S2", Area: "A1", Volume: 20},
			{Site: "S2", Area: "A2", Volume: 10},
		},
	)
	require.NoError(t, err)
	return m
}

func request(t *testing.T, budget float64) Request {
	return Request{
		Dataset: "reference",
		Model:   referenceModel(t),
		Config: allocation.Config{
			CapacityPerCharger: 50,
			MaxChargersPerSite: 2,
			BudgetPolicy:       allocation.BudgetCount,
			BudgetValue:        budget,
		},
	}
}

func newTestPlanner(t *testing.T) (*Planner, *recordingSink) {
	t.Helper()
	dir := t.TempDir()
	store, err := runlog.NewJSONLStore(filepath.Join(dir, "runs.jsonl"))
	require.NoError(t, err)
	exp, err := export.New(filepath.Join(dir, "out"), []string{"csv", "json"})
	require.NoError(t, err)
	sink := &recordingSink{}
	p := &Planner{
		Config:   &config.Config{},
		Sink:     sink,
		Store:    store,
		Solver:   solver.NewLPRelaxation(0),
		Exporter: exp,
		now:      func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	t.Cleanup(func() { _ = p.Close() })
	return p, sink
}

func TestPlanner_Allocate(t *testing.T) {
	p, sink := newTestPlanner(t)
	out, err := p.Allocate(context.Background(), request(t, 2))
	require.NoError(t, err)

	assert.Equal(t, 2, out.Result.ChargersBuilt)
	assert.Equal(t, 100.0, out.Result.Coverage.DemandCovered)
	require.Len(t, sink.runs, 1)
	assert.Equal(t, coremetrics.KindAllocate, sink.runs[0].Kind)
	assert.Equal(t, out.RunID, sink.runs[0].RunID)
	assert.Equal(t, 2, sink.sites)
	assert.Len(t, out.Files, 4)

	recs, err := p.History(context.Background(), runlog.Query{Kind: coremetrics.KindAllocate})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, out.RunID, recs[0].ID)
	assert.Equal(t, "reference", recs[0].Dataset)
	assert.Equal(t, model.Allocation{"S1": 2, "S2": 0}, recs[0].Allocation)
}

func TestPlanner_AllocateInvalidConfig(t *testing.T) {
	p, sink := newTestPlanner(t)
	req := request(t, 2)
	req.Config.CapacityPerCharger = 0
	_, err := p.Allocate(context.Background(), req)
	assert.ErrorIs(t, err, allocation.ErrInvalidConfiguration)
	assert.Empty(t, sink.runs)
}

func TestPlanner_SinkErrorDoesNotFailRun(t *testing.T) {
	p, sink := newTestPlanner(t)
	sink.err = errors.New("sink down")
	_, err := p.Allocate(context.Background(), request(t, 1))
	assert.NoError(t, err)
}

func TestPlanner_Sweep(t *testing.T) {
	p, sink := newTestPlanner(t)
	budgets, err := sweep.Budgets(0, 3, 1)
	require.NoError(t, err)

	out, err := p.Sweep(context.Background(), request(t, 0), budgets, true)
	require.NoError(t, err)
	require.Len(t, out.Points, 4)
	assert.Equal(t, 100.0, out.Points[3].DemandCovered)
	assert.True(t, out.Points[3].Bounded)
	assert.InDelta(t, 130, out.Points[3].BoundCovered, 1e-6)
	require.Len(t, sink.runs, 4)
	for _, ev := range sink.runs {
		assert.Equal(t, out.RunID, ev.RunID)
		assert.Equal(t, coremetrics.KindSweep, ev.Kind)
	}
	assert.Len(t, out.Files, 2)

	recs, err := p.History(context.Background(), runlog.Query{Kind: coremetrics.KindSweep})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Sweep, 4)
	assert.True(t, recs[0].Bounded)
	assert.Equal(t, 3.0, recs[0].Config.BudgetValue)
}

func TestPlanner_SweepCancelled(t *testing.T) {
	p, _ := newTestPlanner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Sweep(ctx, request(t, 0), []float64{1, 2}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlanner_Compare(t *testing.T) {
	p, sink := newTestPlanner(t)
	out, err := p.Compare(context.Background(), request(t, 3))
	require.NoError(t, err)
	assert.InDelta(t, 30, out.Comparison.Gap, 1e-6)
	require.Len(t, sink.runs, 1)
	assert.True(t, sink.runs[0].Bounded)
	assert.Len(t, out.Files, 2)

	recs, err := p.History(context.Background(), runlog.Query{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.InDelta(t, out.Solution.CoveragePercent, recs[0].BoundPercent, 1e-9)
}

func TestPlanner_CompareSolverError(t *testing.T) {
	p, _ := newTestPlanner(t)
	p.Solver = solver.NewLPRelaxation(2)
	_, err := p.Compare(context.Background(), request(t, 3))
	assert.ErrorIs(t, err, solver.ErrTooLarge)
}

func TestPlanner_LoadRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demand.yaml")
	require.NoError(t, dataset.Save(path, "ref", referenceModel(t)))

	p := &Planner{Config: &config.Config{}}
	p.Config.Allocation.CapacityPerCharger = 50
	_, err := p.LoadRequest("")
	assert.ErrorIs(t, err, ErrNoDataset)

	p.Config.Dataset.Path = path
	req, err := p.LoadRequest("")
	require.NoError(t, err)
	assert.Equal(t, path, req.Dataset)
	assert.Equal(t, 50.0, req.Config.CapacityPerCharger)
	assert.Equal(t, []string{"S1", "S2"}, req.Model.Sites)
}

func TestNew(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	cfg := &config.Config{}
	cfg.Store = runlog.Config{Backend: runlog.BackendJSONL, Path: filepath.Join(t.TempDir(), "runs.jsonl")}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	p, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, p.Sink)
	assert.NotNil(t, p.Solver)
	require.NoError(t, p.Close())

	cfg.Export.Formats = []string{"pdf"}
	_, err = New(cfg)
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)
}
