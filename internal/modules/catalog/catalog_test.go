package catalog

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/b3radar/b3radar/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// In-memory databases are per-connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	EnsureSchema(db, zerolog.Nop())
	return db
}

func insertAsset(t *testing.T, db *sql.DB, ticker, name string) int64 {
	t.Helper()

	res, err := db.Exec("INSERT INTO assets (ticker, name, is_active) VALUES (?, ?, 1)", ticker, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	// Second run must be a no-op, not an error source
	EnsureSchema(db, zerolog.Nop())

	insertAsset(t, db, "PETR4", "Petrobras")

	repo := NewAssetRepository(db, zerolog.Nop())
	assets, err := repo.GetAllActive()
	require.NoError(t, err)
	assert.Len(t, assets, 1)
	assert.Equal(t, "PETR4", assets[0].Ticker)
}

func TestQuoteUpsertIgnoresDuplicates(t *testing.T) {
	db := openTestDB(t)
	assetID := insertAsset(t, db, "VALE3", "Vale")

	repo := NewQuoteRepository(db, zerolog.Nop())
	bar := domain.Bar{
		Date:  time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC),
		Open:  60.1, High: 61.0, Low: 59.8, Close: 60.5, Volume: 1000,
	}

	inserted, err := repo.UpsertBars(assetID, []domain.Bar{bar})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	inserted, err = repo.UpsertBars(assetID, []domain.Bar{bar})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := repo.CountForAsset(assetID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewsURLUniqueness(t *testing.T) {
	db := openTestDB(t)
	assetID := insertAsset(t, db, "ITUB4", "Itau")

	repo := NewNewsRepository(db, zerolog.Nop())

	exists, err := repo.ExistsByURL("https://example.com/a")
	require.NoError(t, err)
	assert.False(t, exists)

	score := 0.7
	summary := "Positive quarter"
	item := domain.NewsItem{
		AssetID:          assetID,
		Title:            "Itau beats estimates",
		URL:              "https://example.com/a",
		Source:           "GoogleNews",
		SentimentScore:   &score,
		SentimentSummary: &summary,
	}

	require.NoError(t, repo.Insert(item))

	exists, err = repo.ExistsByURL("https://example.com/a")
	require.NoError(t, err)
	assert.True(t, exists)

	// Duplicate URL is silently ignored
	require.NoError(t, repo.Insert(item))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM market_news").Scan(&count))
	assert.Equal(t, 1, count)

	// A new URL succeeds
	item.URL = "https://example.com/b"
	require.NoError(t, repo.Insert(item))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM market_news").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestTwoPhaseAssetSave(t *testing.T) {
	db := openTestDB(t)
	assetID := insertAsset(t, db, "PETR4", "Petrobras")

	repo := NewAssetRepository(db, zerolog.Nop())

	snap := &domain.QuoteSnapshot{
		Price:      38.50,
		TrailingPE: 9.2,
	}

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, repo.UpdateMarketData(assetID, snap, "Headline"))

	asset, err := repo.GetByTicker("PETR4")
	require.NoError(t, err)
	require.NotNil(t, asset)

	// Phase 1 persists price and moves last_update even when no AI call
	// will follow
	assert.Equal(t, 38.50, asset.Price)
	assert.Equal(t, "Headline", asset.NewsSummary)
	assert.Empty(t, asset.AIAnalysis)
	assert.True(t, asset.LastUpdate.After(before))

	phase1Update := asset.LastUpdate

	require.NoError(t, repo.UpdateAnalysis(assetID, domain.Analysis{
		Status:     domain.AnalysisOK,
		Summary:    "Undervalued against peers",
		FullReport: "Long report",
	}))

	asset, err = repo.GetByTicker("PETR4")
	require.NoError(t, err)
	require.NotNil(t, asset)

	assert.Equal(t, "Undervalued against peers", asset.AIAnalysis)
	assert.Equal(t, "Long report", asset.FullReport)
	assert.Equal(t, domain.AnalysisOK, asset.AIStatus)
	// Phase 2 does not move last_update
	assert.Equal(t, phase1Update, asset.LastUpdate)
}

func TestRecentScoresAndMean(t *testing.T) {
	db := openTestDB(t)
	assetID := insertAsset(t, db, "BBAS3", "Banco do Brasil")

	repo := NewNewsRepository(db, zerolog.Nop())

	for i, score := range []float64{0.5, -0.3, 0.1} {
		s := score
		require.NoError(t, repo.Insert(domain.NewsItem{
			AssetID:        assetID,
			Title:          "headline",
			URL:            "https://example.com/" + string(rune('a'+i)),
			SentimentScore: &s,
		}))
	}

	scores, err := repo.RecentScores(assetID, 10)
	require.NoError(t, err)
	assert.Len(t, scores, 3)

	mean, ok := MeanSentiment(scores)
	assert.True(t, ok)
	assert.InDelta(t, 0.1, mean, 1e-9)

	_, ok = MeanSentiment(nil)
	assert.False(t, ok)
}
