// Package app wires the dataset, the allocator, the solver bound, the run
// sinks, the run store and the exporter into the planning operations exposed
// by the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/allocation"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/model"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/runlog"
	"github.com/kilianp07/chargeplan/core/solver"
	"github.com/kilianp07/chargeplan/core/sweep"
	"github.com/kilianp07/chargeplan/infra/dataset"
	"github.com/kilianp07/chargeplan/infra/logger"
	_ "github.com/kilianp07/chargeplan/infra/metrics" // registers the builtin run sinks
	inframon "github.com/kilianp07/chargeplan/infra/monitoring"
	"github.com/kilianp07/chargeplan/pkg/export"
)

// ErrNoDataset is returned when neither a flag nor the configuration names a dataset.
var ErrNoDataset = errors.New("app: no dataset configured")

// Planner runs planning operations and records their outcome.
type Planner struct {
	Config   *config.Config
	Sink     coremetrics.RunSink
	Store    runlog.Store
	Solver   solver.Solver
	Exporter *export.Exporter
	Log      logger.Logger

	now func() time.Time
}

// New builds a Planner and its collaborators from cfg. The Sentry monitor
// is installed when a DSN is configured.
func New(cfg *config.Config) (*Planner, error) {
	cfg.Logging.Apply()
	log := logger.New("planner")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewRunSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.Open(cfg.Store)
	if err != nil {
		coremetrics.Close(sink)
		return nil, fmt.Errorf("run store: %w", err)
	}
	exp, err := export.New(cfg.Export.Dir, cfg.Export.Formats)
	if err != nil {
		coremetrics.Close(sink)
		_ = store.Close()
		return nil, fmt.Errorf("export: %w", err)
	}
	return &Planner{
		Config:   cfg,
		Sink:     sink,
		Store:    store,
		Solver:   solver.NewLPRelaxation(cfg.Solver.MaxVariables),
		Exporter: exp,
		Log:      log,
	}, nil
}

// Close releases the store and the sinks.
func (p *Planner) Close() error {
	if p.Sink != nil {
		coremetrics.Close(p.Sink)
	}
	if p.Store != nil {
		return p.Store.Close()
	}
	return nil
}

func (p *Planner) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Planner) lg() logger.Logger {
	if p.Log == nil {
		return logger.NopLogger{}
	}
	return p.Log
}

// Request is the input of a planning operation.
type Request struct {
	// Dataset names the source of Model in run records.
	Dataset string
	Model   *model.DemandModel
	Config  allocation.Config
}

// LoadRequest loads the dataset at path, or the configured one when path is
// empty, and pairs it with the configured allocation settings.
func (p *Planner) LoadRequest(path string) (Request, error) {
	if path == "" {
		path = p.Config.Dataset.Path
	}
	if path == "" {
		return Request{}, ErrNoDataset
	}
	m, err := dataset.Load(path)
	if err != nil {
		return Request{}, err
	}
	return Request{Dataset: path, Model: m, Config: p.Config.Allocation}, nil
}

// AllocateOutcome is the result of Allocate.
type AllocateOutcome struct {
	RunID  string
	Result allocation.Result
	Report export.Report
	Files  []string
}

// Allocate runs the heuristic once, persists the run, records its metrics
// and exports the report.
func (p *Planner) Allocate(ctx context.Context, req Request) (AllocateOutcome, error) {
	start := p.clock()
	res, err := allocation.Allocate(req.Model, req.Config, p.lg())
	if err != nil {
		return AllocateOutcome{}, err
	}
	rec := runlog.NewRunRecord(coremetrics.KindAllocate, req.Dataset, res, start)
	out := AllocateOutcome{RunID: rec.ID, Result: res, Report: export.NewReport(rec.ID, req.Model, res)}

	if err := p.persist(ctx, rec); err != nil {
		return out, err
	}
	ev := coremetrics.NewRunEvent(coremetrics.KindAllocate, rec.ID, res, start)
	ev.Duration = p.clock().Sub(start)
	p.record(ev, coremetrics.SiteAllocations(res))

	out.Files, err = p.Exporter.Report(runName(coremetrics.KindAllocate, rec.ID), out.Report)
	if err != nil {
		return out, p.fail("export", err)
	}
	p.lg().Infof("allocation %s: %d chargers at %d sites, %.2f%% covered",
		rec.ID, res.ChargersBuilt, res.StationsBuilt, res.Coverage.CoveragePercent)
	return out, nil
}

// SweepOutcome is the result of Sweep.
type SweepOutcome struct {
	RunID  string
	Points []sweep.Point
	Files  []string
}

// Sweep evaluates the heuristic for every budget and, when bound is set, the
// solver bound with warm-start floors. Each point is recorded to the sinks;
// the sweep is persisted as one run record.
func (p *Planner) Sweep(ctx context.Context, req Request, budgets []float64, bound bool) (SweepOutcome, error) {
	start := p.clock()
	var last allocation.Result
	r := &sweep.Runner{Config: req.Config, Log: p.lg()}
	if bound {
		r.Solver = p.Solver
	}
	id := uuid.NewString()
	r.OnPoint = func(pt sweep.Point, res allocation.Result) {
		last = res
		ev := coremetrics.NewRunEvent(coremetrics.KindSweep, id, res, p.clock())
		ev.Bounded = pt.Bounded
		ev.BoundPercent = pt.BoundPercent
		p.record(ev, nil)
	}

	points, err := r.Run(ctx, req.Model, budgets)
	if err != nil {
		return SweepOutcome{RunID: id, Points: points}, p.fail("sweep", err)
	}
	rec := runlog.NewRunRecord(coremetrics.KindSweep, req.Dataset, last, start)
	rec.ID = id
	rec.Sweep = points
	if n := len(points); n > 0 && points[n-1].Bounded {
		rec.Bounded = true
		rec.BoundPercent = points[n-1].BoundPercent
	}
	out := SweepOutcome{RunID: rec.ID, Points: points}
	if err := p.persist(ctx, rec); err != nil {
		return out, err
	}
	out.Files, err = p.Exporter.Sweep(runName(coremetrics.KindSweep, rec.ID), points)
	if err != nil {
		return out, p.fail("export", err)
	}
	p.lg().Infof("sweep %s: %d budgets", rec.ID, len(points))
	return out, nil
}

// CompareOutcome is the result of Compare.
type CompareOutcome struct {
	RunID      string
	Result     allocation.Result
	Solution   solver.Solution
	Comparison solver.Comparison
	Files      []string
}

// Compare runs the heuristic and the solver bound on the same request and
// reports their differences.
func (p *Planner) Compare(ctx context.Context, req Request) (CompareOutcome, error) {
	start := p.clock()
	res, err := allocation.Allocate(req.Model, req.Config, p.lg())
	if err != nil {
		return CompareOutcome{}, err
	}
	sol, err := p.Solver.Solve(ctx, req.Model, req.Config, nil)
	if err != nil {
		return CompareOutcome{}, p.fail("solver", err)
	}
	cmp := solver.Compare(req.Model, res, sol)
	rec := runlog.NewRunRecord(coremetrics.KindCompare, req.Dataset, res, start)
	rec.Bounded = true
	rec.BoundPercent = sol.CoveragePercent
	out := CompareOutcome{RunID: rec.ID, Result: res, Solution: sol, Comparison: cmp}

	if err := p.persist(ctx, rec); err != nil {
		return out, err
	}
	ev := coremetrics.NewRunEvent(coremetrics.KindCompare, rec.ID, res, start)
	ev.Bounded = true
	ev.BoundPercent = sol.CoveragePercent
	ev.Duration = p.clock().Sub(start)
	p.record(ev, coremetrics.SiteAllocations(res))

	out.Files, err = p.Exporter.Comparison(runName(coremetrics.KindCompare, rec.ID), cmp)
	if err != nil {
		return out, p.fail("export", err)
	}
	p.lg().Infof("compare %s: heuristic %.2f%%, bound %.2f%%", rec.ID, res.Coverage.CoveragePercent, sol.CoveragePercent)
	return out, nil
}

// History lists stored runs matching q.
func (p *Planner) History(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	recs, err := p.Store.Query(ctx, q)
	if err != nil {
		return nil, p.fail("history", err)
	}
	return recs, nil
}

func (p *Planner) persist(ctx context.Context, rec runlog.RunRecord) error {
	if p.Store == nil {
		return nil
	}
	if err := p.Store.Append(ctx, rec); err != nil {
		return p.fail("store", fmt.Errorf("store run %s: %w", rec.ID, err))
	}
	return nil
}

// record sends ev to the sinks. Sink failures never fail a run.
func (p *Planner) record(ev coremetrics.RunEvent, sites []coremetrics.SiteAllocation) {
	if p.Sink == nil {
		return
	}
	if err := p.Sink.RecordRun(ev); err != nil {
		p.lg().Warnf("record run %s: %v", ev.RunID, err)
		coremon.CaptureException(err, map[string]string{"module": "metrics", "run_id": ev.RunID})
	}
	if len(sites) == 0 {
		return
	}
	if sr, ok := p.Sink.(coremetrics.SiteRecorder); ok {
		if err := sr.RecordSites(ev, sites); err != nil {
			p.lg().Warnf("record sites %s: %v", ev.RunID, err)
			coremon.CaptureException(err, map[string]string{"module": "metrics", "run_id": ev.RunID})
		}
	}
}

func (p *Planner) fail(op string, err error) error {
	if !errors.Is(err, context.Canceled) {
		coremon.CaptureException(err, map[string]string{"module": "app", "op": op})
	}
	return err
}

func runName(kind, id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return kind + "-" + id
}
