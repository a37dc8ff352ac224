package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// InfluxSink writes run summaries to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.RunSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one chargeplan_run point.
func (s *InfluxSink) RecordRun(ev coremetrics.RunEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("chargeplan_run").
		AddTag("run_id", ev.RunID).
		AddTag("kind", ev.Kind).
		AddTag("budget_policy", ev.BudgetPolicy).
		AddTag("distribution_policy", ev.DistributionPolicy).
		AddField("budget", round3(ev.Budget)).
		AddField("budget_used", round3(ev.BudgetUsed)).
		AddField("budget_remaining", round3(ev.BudgetRemaining)).
		AddField("stations", ev.Stations).
		AddField("chargers", ev.Chargers).
		AddField("total_demand", round3(ev.TotalDemand)).
		AddField("demand_covered", round3(ev.DemandCovered)).
		AddField("coverage_percent", round3(ev.CoveragePercent)).
		AddField("fully_covered", ev.FullyCovered).
		AddField("partially_covered", ev.PartiallyCovered).
		AddField("not_covered", ev.NotCovered).
		SetTime(ev.Time)
	if ev.Bounded {
		p = p.AddField("bound_percent", round3(ev.BoundPercent))
	}
	if ev.Duration > 0 {
		p = p.AddField("duration_ms", round3(ev.Duration.Seconds()*1000))
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSites writes one chargeplan_site point per ranked site.
func (s *InfluxSink) RecordSites(ev coremetrics.RunEvent, sites []coremetrics.SiteAllocation) error {
	if len(sites) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, len(sites))
	for i, a := range sites {
		points[i] = write.NewPointWithMeasurement("chargeplan_site").
			AddTag("run_id", ev.RunID).
			AddTag("site", a.Site).
			AddField("rank", a.Rank).
			AddField("traffic", round3(a.Traffic)).
			AddField("chargers", a.Chargers).
			AddField("served", round3(a.Served)).
			SetTime(ev.Time)
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
