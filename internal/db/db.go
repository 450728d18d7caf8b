// Package db persists quote history in SQLite. The order summary cache itself
// is intentionally not persisted; only the final quotes are recorded for
// later inspection.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"eve-buyback/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS quote_history (
				id         TEXT PRIMARY KEY,
				created_at TEXT NOT NULL,
				station    TEXT NOT NULL,
				refined    INTEGER NOT NULL,
				tax        REAL NOT NULL,
				efficiency REAL NOT NULL,
				amount     TEXT NOT NULL,
				item_count INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_quote_history_created ON quote_history(created_at);

			INSERT INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}
	return nil
}

// QuoteRecord is one row of the quote history.
type QuoteRecord struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Station    string    `json:"station"`
	Refined    bool      `json:"refined"`
	Tax        float64   `json:"tax"`
	Efficiency float64   `json:"efficiency"`
	Amount     string    `json:"amount"`
	ItemCount  int       `json:"item_count"`
}

// SaveQuote records one computed quote.
func (d *DB) SaveQuote(r QuoteRecord) error {
	_, err := d.sql.Exec(`
		INSERT INTO quote_history (id, created_at, station, refined, tax, efficiency, amount, item_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339), r.Station, boolToInt(r.Refined),
		r.Tax, r.Efficiency, r.Amount, r.ItemCount)
	return err
}

// RecentQuotes returns the most recent quotes, newest first.
func (d *DB) RecentQuotes(limit int) ([]QuoteRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(`
		SELECT id, created_at, station, refined, tax, efficiency, amount, item_count
		FROM quote_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []QuoteRecord
	for rows.Next() {
		var r QuoteRecord
		var createdAt string
		var refined int
		if err := rows.Scan(&r.ID, &createdAt, &r.Station, &refined, &r.Tax, &r.Efficiency, &r.Amount, &r.ItemCount); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.Refined = refined != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
