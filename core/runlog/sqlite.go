package runlog

import (
	"strings"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS chargeplan_runs (
        id TEXT PRIMARY KEY,
        ts INTEGER NOT NULL,
        kind TEXT NOT NULL,
        budget_policy TEXT NOT NULL,
        record TEXT NOT NULL
    );`,
	bind: func(int) string { return "?" },
}

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if !strings.HasPrefix(path, "file:") {
		if err := ensureDir(path); err != nil {
			return nil, err
		}
	}
	s, err := openSQL(sqliteDialect, path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore: s}, nil
}
