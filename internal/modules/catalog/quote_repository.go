package catalog

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/domain"
)

// QuoteRepository handles daily OHLCV rows
type QuoteRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, log zerolog.Logger) *QuoteRepository {
	return &QuoteRepository{
		db:  db,
		log: log.With().Str("repo", "quote").Logger(),
	}
}

// UpsertBars inserts daily bars with insert-or-ignore semantics keyed on
// (asset_id, trade_date). A duplicate is a no-op, not an error. Returns
// the number of newly inserted rows.
func (r *QuoteRepository) UpsertBars(assetID int64, bars []domain.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	query := `
		INSERT OR IGNORE INTO market_quotes
		(asset_id, trade_date, open_price, high_price, low_price, close_price, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	inserted := 0
	for _, bar := range bars {
		res, err := r.db.Exec(query,
			assetID, bar.Date.Format("2006-01-02"),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		if err != nil {
			return inserted, fmt.Errorf("failed to upsert quote bar: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

// CountForAsset returns the number of stored bars for an asset
func (r *QuoteRepository) CountForAsset(assetID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM market_quotes WHERE asset_id = ?", assetID).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}
