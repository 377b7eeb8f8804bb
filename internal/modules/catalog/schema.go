package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Base tables. Asset rows are created by an external onboarding process;
// the worker only ensures the shape it writes to exists.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS market_quotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_id INTEGER NOT NULL REFERENCES assets(id),
		trade_date TEXT NOT NULL,
		open_price REAL,
		high_price REAL,
		low_price REAL,
		close_price REAL,
		volume INTEGER,
		UNIQUE(asset_id, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS market_news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_id INTEGER REFERENCES assets(id),
		title TEXT NOT NULL,
		url TEXT UNIQUE,
		published_at TEXT,
		source TEXT,
		sentiment_score REAL,
		sentiment_summary TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_date ON market_news(published_at DESC)`,
}

// Columns added to assets over time. Kept additive so the worker can run
// against a database created by any earlier version.
var assetColumns = []struct {
	name string
	typ  string
}{
	{"price", "REAL"},
	{"pe_ratio", "REAL"},
	{"dy_percentage", "REAL"},
	{"roe_percentage", "REAL"},
	{"p_vp", "REAL"},
	{"ai_analysis", "TEXT"},
	{"full_report", "TEXT"},
	{"news_summary", "TEXT"},
	{"ai_status", "TEXT"},
	{"last_update", "TEXT"},
}

// EnsureSchema idempotently evolves the schema the worker writes to.
// Evolution failures are logged as warnings, never fatal: "already exists"
// is the common case, and for anything else the pipeline proceeds assuming
// the columns are present.
func EnsureSchema(db *sql.DB, log zerolog.Logger) {
	log = log.With().Str("component", "schema").Logger()

	for _, stmt := range createStatements {
		if _, err := db.Exec(stmt); err != nil {
			log.Warn().Err(err).Msg("Schema create statement failed")
		}
	}

	for _, col := range assetColumns {
		stmt := fmt.Sprintf("ALTER TABLE assets ADD COLUMN %s %s", col.name, col.typ)
		if _, err := db.Exec(stmt); err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			log.Warn().Err(err).Str("column", col.name).Msg("Schema column evolution failed")
		}
	}
}

// isDuplicateColumn matches SQLite's error for re-adding an existing column
func isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
