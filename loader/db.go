package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/kmkamyk/Ansible-Facts-Explorer/facts"
)

// CacheLoader reads snapshots from a relational fact cache: one row per
// host holding its facts as a JSON document plus a modification timestamp.
// The same code serves Postgres (lib/pq) and SQLite (modernc) — drivers are
// selected by OpenCache.
//
// Expected table shape:
//
//	CREATE TABLE host_facts (
//	    hostname TEXT PRIMARY KEY,
//	    facts    TEXT NOT NULL,   -- JSON document
//	    modified TEXT             -- ISO-8601, nullable
//	);
type CacheLoader struct {
	db    *sqlx.DB
	table string
}

// OpenCache connects to the fact cache. driver is "postgres" or "sqlite";
// dsn is the connection string or database path respectively.
func OpenCache(driver, dsn, table string) (*CacheLoader, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: connect %s: %w", driver, err)
	}
	return NewCacheLoader(db, table), nil
}

// NewCacheLoader wraps an existing connection; used by tests and callers
// that manage their own pool.
func NewCacheLoader(db *sqlx.DB, table string) *CacheLoader {
	if table == "" {
		table = "host_facts"
	}
	return &CacheLoader{db: db, table: table}
}

// Name implements Loader.
func (l *CacheLoader) Name() string { return "db" }

// Close releases the underlying connection pool.
func (l *CacheLoader) Close() error { return l.db.Close() }

type cachedHost struct {
	Hostname string  `db:"hostname"`
	Facts    string  `db:"facts"`
	Modified *string `db:"modified"`
}

// Load reads every cached host in hostname order. A row whose facts column
// fails to parse is loaded as a factless host rather than aborting the
// whole snapshot.
func (l *CacheLoader) Load(ctx context.Context) ([]facts.HostFacts, error) {
	var rows []cachedHost
	query := fmt.Sprintf(`SELECT hostname, facts, modified FROM %s ORDER BY hostname`, l.table)
	if err := l.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("cache: select: %w", err)
	}

	out := make([]facts.HostFacts, 0, len(rows))
	for _, row := range rows {
		factMap := make(map[string]any)
		if err := json.Unmarshal([]byte(row.Facts), &factMap); err != nil {
			factMap = map[string]any{}
		}
		if row.Modified != nil && *row.Modified != "" {
			factMap[facts.ModifiedFactKey] = *row.Modified
		}
		out = append(out, facts.HostFacts{Host: row.Hostname, Facts: factMap})
	}
	return out, nil
}
