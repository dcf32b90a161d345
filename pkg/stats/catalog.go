package stats

import (
	"database/sql"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// Catalog is the persistent statistics store. Writers upsert counts collected
// by analysis jobs; readers load the whole catalog into a MemoryProvider so
// the optimizer never touches sqlite on the query path.
type Catalog struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open stats catalog")
	}

	schema := `
	CREATE TABLE IF NOT EXISTS label_stats (
		label TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		row_count REAL NOT NULL,
		avg_degree REAL NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS column_buckets (
		label TEXT NOT NULL,
		col TEXT NOT NULL,
		upper_bound REAL NOT NULL,
		bucket_count REAL NOT NULL,
		distinct_count REAL NOT NULL,
		PRIMARY KEY (label, col, upper_bound)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init stats schema")
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("Warning: Failed to set PRAGMA: %v", err)
	}

	return &Catalog{db: db}, nil
}

// UpsertLabel records the row count for a vertex tag (kind "vertex") or an
// edge type (kind "edge"). avgDegree only means anything for edges.
func (c *Catalog) UpsertLabel(label, kind string, rowCount, avgDegree float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO label_stats (label, kind, row_count, avg_degree) VALUES (?, ?, ?, ?)",
		label, kind, rowCount, avgDegree)
	return errors.Wrapf(err, "upsert label %s", label)
}

// UpsertBuckets replaces the histogram of one column in a single transaction.
func (c *Catalog) UpsertBuckets(label, column string, buckets []HistBucket) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM column_buckets WHERE label = ? AND col = ?", label, column); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO column_buckets (label, col, upper_bound, bucket_count, distinct_count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range buckets {
		if _, err := stmt.Exec(label, column, b.UpperBound, b.Count, b.Distinct); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// HistBucket is the wire form of one histogram bucket.
type HistBucket struct {
	UpperBound float64
	Count      float64
	Distinct   float64
}

// Load materializes the whole catalog as a MemoryProvider.
func (c *Catalog) Load() (*MemoryProvider, error) {
	provider := NewMemoryProvider()

	rows, err := c.db.Query("SELECT label, kind, row_count, avg_degree FROM label_stats")
	if err != nil {
		return nil, errors.Wrap(err, "load label stats")
	}
	defer rows.Close()
	for rows.Next() {
		var label, kind string
		var count, degree float64
		if err := rows.Scan(&label, &kind, &count, &degree); err != nil {
			return nil, err
		}
		provider.SetRowCount(label, count)
		if kind == "edge" {
			provider.SetAverageDegree(label, degree)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	brows, err := c.db.Query(
		"SELECT label, col, upper_bound, bucket_count, distinct_count FROM column_buckets ORDER BY label, col, upper_bound ASC")
	if err != nil {
		return nil, errors.Wrap(err, "load column buckets")
	}
	defer brows.Close()

	hists := make(map[string]map[string]*Histogram)
	for brows.Next() {
		var label, column string
		var upper, count, distinct float64
		if err := brows.Scan(&label, &column, &upper, &count, &distinct); err != nil {
			return nil, err
		}
		cols, ok := hists[label]
		if !ok {
			cols = make(map[string]*Histogram)
			hists[label] = cols
		}
		h, ok := cols[column]
		if !ok {
			h = NewHistogram()
			cols[column] = h
		}
		h.AddBucket(upper, count, distinct)
	}
	if err := brows.Err(); err != nil {
		return nil, err
	}
	for label, cols := range hists {
		for column, h := range cols {
			provider.SetHistogram(label, column, h)
		}
	}

	return provider, nil
}

func (c *Catalog) Truncate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec("DELETE FROM label_stats"); err != nil {
		return err
	}
	_, err := c.db.Exec("DELETE FROM column_buckets")
	return err
}

func (c *Catalog) Close() {
	c.db.Close()
}
