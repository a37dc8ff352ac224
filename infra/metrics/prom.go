package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
)

var runLabels = []string{"kind", "budget_policy", "distribution_policy"}

// PromSink records run summaries in Prometheus metrics. With a pusher set
// the registry is pushed to a Pushgateway after every run, since planning
// runs are too short-lived to be scraped.
type PromSink struct {
	runs       *prometheus.CounterVec
	coverage   *prometheus.GaugeVec
	bound      *prometheus.GaugeVec
	budgetUsed *prometheus.GaugeVec
	chargers   *prometheus.GaugeVec
	stations   *prometheus.GaugeVec
	areas      *prometheus.GaugeVec
	duration   *prometheus.HistogramVec
	site       *prometheus.GaugeVec

	pusher *push.Pusher
}

// NewPromSinkWithRegistry registers run metrics on reg. A nil registerer
// defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(namespace string, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Total number of planning runs",
		}, runLabels),
		coverage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "coverage_percent",
			Help: "Share of demand covered by the last run",
		}, runLabels),
		bound: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "bound_coverage_percent",
			Help: "Coverage upper bound computed by the solver for the last run",
		}, runLabels),
		budgetUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "budget_used",
			Help: "Budget consumed by the last run (chargers or money)",
		}, runLabels),
		chargers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "chargers_built",
			Help: "Chargers allocated by the last run",
		}, runLabels),
		stations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stations_built",
			Help: "Sites with at least one charger in the last run",
		}, runLabels),
		areas: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "areas",
			Help: "Areas per coverage class in the last run",
		}, []string{"kind", "class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of planning runs",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		site: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "site_chargers",
			Help: "Chargers allocated per site in the last run",
		}, []string{"site"}),
	}

	if err := register(reg, &s.runs); err != nil {
		return nil, err
	}
	for _, g := range []**prometheus.GaugeVec{&s.coverage, &s.bound, &s.budgetUsed, &s.chargers, &s.stations, &s.areas, &s.site} {
		if err := register(reg, g); err != nil {
			return nil, err
		}
	}
	if err := register(reg, &s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an already registered identical collector.
func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return fmt.Errorf("prometheus: collector type mismatch: %w", err)
		}
		*c = existing
	}
	return nil
}

// WithPusher pushes the gatherer to url under job after every recorded run.
func (s *PromSink) WithPusher(url, job string, g prometheus.Gatherer) *PromSink {
	s.pusher = push.New(url, job).Gatherer(g)
	return s
}

// RecordRun updates the run metrics.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	l := prometheus.Labels{"kind": ev.Kind, "budget_policy": ev.BudgetPolicy, "distribution_policy": ev.DistributionPolicy}
	s.runs.With(l).Inc()
	s.coverage.With(l).Set(ev.CoveragePercent)
	if ev.Bounded {
		s.bound.With(l).Set(ev.BoundPercent)
	}
	s.budgetUsed.With(l).Set(ev.BudgetUsed)
	s.chargers.With(l).Set(float64(ev.Chargers))
	s.stations.With(l).Set(float64(ev.Stations))
	s.areas.WithLabelValues(ev.Kind, "fully_covered").Set(float64(ev.FullyCovered))
	s.areas.WithLabelValues(ev.Kind, "partially_covered").Set(float64(ev.PartiallyCovered))
	s.areas.WithLabelValues(ev.Kind, "not_covered").Set(float64(ev.NotCovered))
	if ev.Duration > 0 {
		s.duration.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
	}
	return s.push()
}

// RecordSites sets the per-site charger gauge.
func (s *PromSink) RecordSites(_ coremetrics.RunEvent, sites []coremetrics.SiteAllocation) error {
	s.site.Reset()
	for _, a := range sites {
		s.site.WithLabelValues(a.Site).Set(float64(a.Chargers))
	}
	return s.push()
}

func (s *PromSink) push() error {
	if s.pusher == nil {
		return nil
	}
	if err := s.pusher.Push(); err != nil {
		return fmt.Errorf("pushgateway: %w", err)
	}
	return nil
}
