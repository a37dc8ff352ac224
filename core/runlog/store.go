// Package runlog persists a record of every planning run so past results can
// be listed and compared. Records are stored as JSON documents in JSONL
// files, SQLite or PostgreSQL.
package runlog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeplan/core/allocation"
	"github.com/kilianp07/chargeplan/core/coverage"
	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/sweep"
)

// RunRecord captures one planning run and its outcome.
type RunRecord struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Kind            string            `json:"kind"`
	Dataset         string            `json:"dataset,omitempty"`
	Config          allocation.Config `json:"config"`
	Allocation      model.Allocation  `json:"allocation,omitempty"`
	BudgetUsed      float64           `json:"budget_used"`
	BudgetRemaining float64           `json:"budget_remaining"`
	HaltedAt        string            `json:"halted_at,omitempty"`
	Coverage        coverage.Report   `json:"coverage"`
	Bounded         bool              `json:"bounded,omitempty"`
	BoundPercent    float64           `json:"bound_percent,omitempty"`
	Sweep           []sweep.Point     `json:"sweep,omitempty"`
}

// NewRunRecord builds a record with a fresh id from an allocation result.
func NewRunRecord(kind, dataset string, res allocation.Result, at time.Time) RunRecord {
	return RunRecord{
		ID:              uuid.NewString(),
		Timestamp:       at.UTC(),
		Kind:            kind,
		Dataset:         dataset,
		Config:          res.Config,
		Allocation:      res.Allocation,
		BudgetUsed:      res.BudgetUsed,
		BudgetRemaining: res.BudgetRemaining,
		HaltedAt:        res.HaltedAt,
		Coverage:        res.Coverage,
	}
}

// Query filters records. Zero values match everything. Limit keeps the most
// recent records.
type Query struct {
	Start  time.Time
	End    time.Time
	Kind   string
	Policy allocation.BudgetPolicy
	Limit  int
}

// Match reports whether rec satisfies the filters of q.
func (q Query) Match(rec RunRecord) bool {
	if !q.Start.IsZero() && rec.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && rec.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && rec.Kind != q.Kind {
		return false
	}
	if q.Policy != "" && rec.Config.BudgetPolicy != q.Policy {
		return false
	}
	return true
}

// finish orders records by time and applies the limit.
func (q Query) finish(recs []RunRecord) []RunRecord {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, RunRecord) error             { return nil }
func (NopStore) Query(context.Context, Query) ([]RunRecord, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }
