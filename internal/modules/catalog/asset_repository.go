package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/domain"
)

// AssetRepository handles asset database operations
type AssetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *sql.DB, log zerolog.Logger) *AssetRepository {
	return &AssetRepository{
		db:  db,
		log: log.With().Str("repo", "asset").Logger(),
	}
}

// GetAllActive returns all active assets
func (r *AssetRepository) GetAllActive() ([]domain.Asset, error) {
	query := `
		SELECT id, ticker, name, is_active,
		       price, pe_ratio, dy_percentage, roe_percentage, p_vp,
		       ai_analysis, full_report, news_summary, ai_status, last_update
		FROM assets
		WHERE is_active = 1
		ORDER BY ticker
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// GetByTicker returns one asset by raw ticker, or nil when absent
func (r *AssetRepository) GetByTicker(ticker string) (*domain.Asset, error) {
	query := `
		SELECT id, ticker, name, is_active,
		       price, pe_ratio, dy_percentage, roe_percentage, p_vp,
		       ai_analysis, full_report, news_summary, ai_status, last_update
		FROM assets
		WHERE ticker = ?
	`

	rows, err := r.db.Query(query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset by ticker: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	asset, err := scanAsset(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	return &asset, nil
}

// UpdateMarketData is the phase-1 save: price, ratios and news summary are
// written immediately after the fetch, independent of the AI outcome, so
// partial data survives a later failure or crash. last_update moves here
// and only here.
func (r *AssetRepository) UpdateMarketData(id int64, snap *domain.QuoteSnapshot, newsSummary string) error {
	query := `
		UPDATE assets
		SET price = ?, pe_ratio = ?, dy_percentage = ?, roe_percentage = ?, p_vp = ?,
		    news_summary = ?, last_update = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		snap.Price, snap.TrailingPE, snap.DividendYield, snap.ROE, snap.PriceToBook,
		newsSummary, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update market data: %w", err)
	}

	return nil
}

// UpdateAnalysis is the phase-2 save: AI fields are written only after the
// analysis requester returned.
func (r *AssetRepository) UpdateAnalysis(id int64, analysis domain.Analysis) error {
	query := `
		UPDATE assets
		SET ai_analysis = ?, full_report = ?, ai_status = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, analysis.Summary, analysis.FullReport, string(analysis.Status), id)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}

	return nil
}

func scanAsset(rows *sql.Rows) (domain.Asset, error) {
	var a domain.Asset
	var price, peRatio, dy, roe, pvp sql.NullFloat64
	var aiAnalysis, fullReport, newsSummary, aiStatus, lastUpdate sql.NullString

	err := rows.Scan(&a.ID, &a.Ticker, &a.Name, &a.IsActive,
		&price, &peRatio, &dy, &roe, &pvp,
		&aiAnalysis, &fullReport, &newsSummary, &aiStatus, &lastUpdate)
	if err != nil {
		return domain.Asset{}, err
	}

	a.Price = price.Float64
	a.PERatio = peRatio.Float64
	a.DYPercentage = dy.Float64
	a.ROEPercentage = roe.Float64
	a.PVP = pvp.Float64
	a.AIAnalysis = aiAnalysis.String
	a.FullReport = fullReport.String
	a.NewsSummary = newsSummary.String
	a.AIStatus = domain.AnalysisStatus(aiStatus.String)

	if lastUpdate.Valid && lastUpdate.String != "" {
		if t, err := time.Parse(time.RFC3339, lastUpdate.String); err == nil {
			a.LastUpdate = t
		}
	}

	return a, nil
}
