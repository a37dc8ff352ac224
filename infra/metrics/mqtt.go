package metrics

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	coremqtt "github.com/kilianp07/chargeplan/core/mqtt"
)

// MQTTSink publishes run summaries as JSON on <prefix>/runs/<kind> and the
// per-site allocation on <prefix>/runs/<kind>/sites.
type MQTTSink struct {
	pub    coremqtt.Publisher
	prefix string
}

// NewMQTTSink publishes through pub. An empty prefix selects "chargeplan".
func NewMQTTSink(pub coremqtt.Publisher, prefix string) *MQTTSink {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "chargeplan"
	}
	return &MQTTSink{pub: pub, prefix: prefix}
}

type runMessage struct {
	RunID              string    `json:"run_id"`
	Kind               string    `json:"kind"`
	BudgetPolicy       string    `json:"budget_policy"`
	DistributionPolicy string    `json:"distribution_policy"`
	Budget             float64   `json:"budget"`
	BudgetUsed         float64   `json:"budget_used"`
	Stations           int       `json:"stations"`
	Chargers           int       `json:"chargers"`
	DemandCovered      float64   `json:"demand_covered"`
	CoveragePercent    float64   `json:"coverage_percent"`
	BoundPercent       *float64  `json:"bound_percent,omitempty"`
	HaltedAt           string    `json:"halted_at,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

type siteMessage struct {
	Site     string  `json:"site"`
	Rank     int     `json:"rank"`
	Chargers int     `json:"chargers"`
	Served   float64 `json:"served"`
}

func (s *MQTTSink) topic(kind string) string {
	return fmt.Sprintf("%s/runs/%s", s.prefix, kind)
}

// RecordRun publishes the run summary.
func (s *MQTTSink) RecordRun(ev coremetrics.RunEvent) error {
	msg := runMessage{
		RunID:              ev.RunID,
		Kind:               ev.Kind,
		BudgetPolicy:       ev.BudgetPolicy,
		DistributionPolicy: ev.DistributionPolicy,
		Budget:             ev.Budget,
		BudgetUsed:         ev.BudgetUsed,
		Stations:           ev.Stations,
		Chargers:           ev.Chargers,
		DemandCovered:      ev.DemandCovered,
		CoveragePercent:    ev.CoveragePercent,
		HaltedAt:           ev.HaltedAt,
		Timestamp:          ev.Time,
	}
	if ev.Bounded {
		b := ev.BoundPercent
		msg.BoundPercent = &b
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.pub.Publish(s.topic(ev.Kind), payload)
}

// RecordSites publishes the sites holding chargers.
func (s *MQTTSink) RecordSites(ev coremetrics.RunEvent, sites []coremetrics.SiteAllocation) error {
	msgs := make([]siteMessage, 0, len(sites))
	for _, a := range sites {
		if a.Chargers == 0 {
			continue
		}
		msgs = append(msgs, siteMessage{Site: a.Site, Rank: a.Rank, Chargers: a.Chargers, Served: a.Served})
	}
	payload, err := json.Marshal(struct {
		RunID string        `json:"run_id"`
		Sites []siteMessage `json:"sites"`
	}{ev.RunID, msgs})
	if err != nil {
		return err
	}
	return s.pub.Publish(s.topic(ev.Kind)+"/sites", payload)
}

// Close closes the publisher.
func (s *MQTTSink) Close() { s.pub.Close() }
