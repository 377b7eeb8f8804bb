package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/domain"
)

// NewsRepository handles ingested headline rows
type NewsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db *sql.DB, log zerolog.Logger) *NewsRepository {
	return &NewsRepository{
		db:  db,
		log: log.With().Str("repo", "news").Logger(),
	}
}

// ExistsByURL reports whether an article with this URL was already
// ingested. Checked before any generative call so quota is never spent on
// an already-seen item.
func (r *NewsRepository) ExistsByURL(url string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM market_news WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check news existence: %w", err)
	}
	return true, nil
}

// Insert stores a headline with insert-or-ignore semantics on the URL.
// Sentiment fields are written only when the item carries them.
func (r *NewsRepository) Insert(item domain.NewsItem) error {
	query := `
		INSERT OR IGNORE INTO market_news
		(asset_id, title, url, published_at, source, sentiment_score, sentiment_summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var publishedAt interface{}
	if !item.PublishedAt.IsZero() {
		publishedAt = item.PublishedAt.UTC().Format(time.RFC3339)
	}

	_, err := r.db.Exec(query,
		item.AssetID, item.Title, item.URL, publishedAt, item.Source,
		item.SentimentScore, item.SentimentSummary)
	if err != nil {
		return fmt.Errorf("failed to insert news item: %w", err)
	}

	return nil
}

// RecentScores returns the latest stored sentiment scores for an asset,
// newest first. Rows without a score are excluded.
func (r *NewsRepository) RecentScores(assetID int64, limit int) ([]float64, error) {
	query := `
		SELECT sentiment_score FROM market_news
		WHERE asset_id = ? AND sentiment_score IS NOT NULL
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment scores: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment score: %w", err)
		}
		scores = append(scores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sentiment scores: %w", err)
	}

	return scores, nil
}
