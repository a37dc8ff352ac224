package runlog

import (
	"context"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

var postgresDialect = dialect{
	driver: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS chargeplan_runs (
        id TEXT PRIMARY KEY,
        ts BIGINT NOT NULL,
        kind TEXT NOT NULL,
        budget_policy TEXT NOT NULL,
        record TEXT NOT NULL
    );
    CREATE INDEX IF NOT EXISTS chargeplan_runs_ts ON chargeplan_runs (ts);`,
	bind: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// PostgresStore persists records to PostgreSQL.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects with dsn, checks the connection and ensures the
// schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	s, err := openSQL(postgresDialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{sqlStore: s}, nil
}
