package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// dialect captures the differences between the SQL backends.
type dialect struct {
	driver string
	schema string
	// bind returns the placeholder of the n-th argument, starting at 1.
	bind func(n int) string
}

// sqlStore persists records as JSON documents next to indexed columns.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func openSQL(d dialect, dsn string) (*sqlStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(d.schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &sqlStore{db: db, d: d}, nil
}

// Append writes the record to the database.
func (s *sqlStore) Append(ctx context.Context, rec RunRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO chargeplan_runs (id, ts, kind, budget_policy, record) VALUES (%s, %s, %s, %s, %s)`,
		s.d.bind(1), s.d.bind(2), s.d.bind(3), s.d.bind(4), s.d.bind(5))
	_, err = s.db.ExecContext(ctx, q,
		rec.ID, rec.Timestamp.UnixNano(), rec.Kind, string(rec.Config.BudgetPolicy), string(b))
	return err
}

// Query returns records matching q ordered by time.
func (s *sqlStore) Query(ctx context.Context, q Query) ([]RunRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, s.d.bind(len(args))))
	}
	if !q.Start.IsZero() {
		add("ts >= %s", q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		add("ts <= %s", q.End.UnixNano())
	}
	if q.Kind != "" {
		add("kind = %s", q.Kind)
	}
	if q.Policy != "" {
		add("budget_policy = %s", string(q.Policy))
	}
	query := `SELECT record FROM chargeplan_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []RunRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var rec RunRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.finish(res), nil
}

// Close closes the underlying database.
func (s *sqlStore) Close() error { return s.db.Close() }
