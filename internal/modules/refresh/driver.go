package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/domain"
)

// minAnalysisLength is the shortest stored analysis considered real
// enough for the skip policy.
const minAnalysisLength = 10

// recentScoreWindow caps how many stored sentiment scores feed the
// prompt context.
const recentScoreWindow = 10

// AssetState tracks an asset's progress through one refresh cycle
type AssetState string

const (
	StatePending      AssetState = "pending"
	StatePriceFetched AssetState = "price_fetched"
	StateSkipped      AssetState = "skipped"
	StateAIRequested  AssetState = "ai_requested"
	StatePersisted    AssetState = "persisted"
)

// QuoteProvider fetches market data for a normalized symbol
type QuoteProvider interface {
	Snapshot(ctx context.Context, symbol string) (*domain.QuoteSnapshot, error)
	RecentBars(ctx context.Context, symbol string) ([]domain.Bar, error)
}

// AssetStore persists asset rows in two phases
type AssetStore interface {
	GetAllActive() ([]domain.Asset, error)
	UpdateMarketData(id int64, snap *domain.QuoteSnapshot, newsSummary string) error
	UpdateAnalysis(id int64, analysis domain.Analysis) error
}

// QuoteStore persists daily OHLCV bars
type QuoteStore interface {
	UpsertBars(assetID int64, bars []domain.Bar) (int, error)
}

// NewsStore persists ingested headlines
type NewsStore interface {
	ExistsByURL(url string) (bool, error)
	Insert(item domain.NewsItem) error
	RecentScores(assetID int64, limit int) ([]float64, error)
}

// HeadlineFetcher retrieves one headline per asset
type HeadlineFetcher interface {
	Fetch(ctx context.Context, ticker, name string) Headline
}

// AnalysisRequester produces analyses and headline sentiment scores
type AnalysisRequester interface {
	Available() bool
	Analyze(ctx context.Context, input AnalysisInput) domain.Analysis
	ScoreHeadline(ctx context.Context, name, title string) HeadlineScore
}

// SentimentMean aggregates stored scores; split out so the driver does
// not depend on the persistence package directly.
type SentimentMean func(scores []float64) (float64, bool)

// AssetOutcome records how one asset ended the cycle
type AssetOutcome struct {
	Ticker   string     `json:"ticker"`
	State    AssetState `json:"state"`
	AICalled bool       `json:"ai_called"`
	Note     string     `json:"note,omitempty"`
}

// CycleReport summarizes one full refresh cycle for logging and the
// status endpoint.
type CycleReport struct {
	ID             string         `json:"id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	BreakerTripped bool           `json:"breaker_tripped"`
	Assets         []AssetOutcome `json:"assets"`
}

// Driver iterates the active asset set once per cycle, strictly
// sequentially: one asset is fully handled before the next begins. The
// external AI provider enforces per-minute quotas that a single
// serialized stream is easiest to respect.
type Driver struct {
	quotes   QuoteProvider
	assets   AssetStore
	bars     QuoteStore
	news     NewsStore
	fetcher  HeadlineFetcher
	analyst  AnalysisRequester
	meanFn   SentimentMean
	sleeper  Sleeper
	pace     time.Duration
	fresh    time.Duration
	log      zerolog.Logger

	mu         sync.Mutex
	lastReport *CycleReport
}

// DriverConfig holds driver dependencies
type DriverConfig struct {
	Quotes          QuoteProvider
	Assets          AssetStore
	Bars            QuoteStore
	News            NewsStore
	Fetcher         HeadlineFetcher
	Analyst         AnalysisRequester
	SentimentMean   SentimentMean
	Sleeper         Sleeper
	AssetPace       time.Duration
	FreshnessWindow time.Duration
	Log             zerolog.Logger
}

// NewDriver creates a new refresh driver
func NewDriver(cfg DriverConfig) *Driver {
	sleeper := cfg.Sleeper
	if sleeper == nil {
		sleeper = NewSleeper()
	}

	fresh := cfg.FreshnessWindow
	if fresh <= 0 {
		fresh = 4 * time.Hour
	}

	return &Driver{
		quotes:  cfg.Quotes,
		assets:  cfg.Assets,
		bars:    cfg.Bars,
		news:    cfg.News,
		fetcher: cfg.Fetcher,
		analyst: cfg.Analyst,
		meanFn:  cfg.SentimentMean,
		sleeper: sleeper,
		pace:    cfg.AssetPace,
		fresh:   fresh,
		log:     cfg.Log.With().Str("component", "refresh").Logger(),
	}
}

// LastReport returns the most recent cycle report, or nil before the
// first cycle completes.
func (d *Driver) LastReport() *CycleReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastReport
}

// Run executes one refresh cycle over all active assets. Per-asset
// failures are logged and never abort the batch; only a failure to load
// the asset set is an error.
func (d *Driver) Run(ctx context.Context) (*CycleReport, error) {
	report := &CycleReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	assets, err := d.assets.GetAllActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load active assets: %w", err)
	}

	log := d.log.With().Str("cycle", report.ID).Logger()
	log.Info().Int("assets", len(assets)).Msg("Starting refresh cycle")

	// Cycle-scoped circuit breaker: once any asset reports quota
	// exhaustion, no further AI calls are issued this cycle. Price and
	// news refreshes continue unaffected.
	breakerOpen := false

	for i := range assets {
		outcome := d.refreshAsset(ctx, log, &assets[i], &breakerOpen)
		report.Assets = append(report.Assets, outcome)
	}

	report.BreakerTripped = breakerOpen
	report.FinishedAt = time.Now().UTC()

	log.Info().
		Int("assets", len(report.Assets)).
		Bool("breaker_tripped", breakerOpen).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Refresh cycle completed")

	d.mu.Lock()
	d.lastReport = report
	d.mu.Unlock()

	return report, nil
}

// refreshAsset runs the per-asset state machine:
// Pending -> PriceFetched -> (Skipped | AIRequested) -> Persisted
func (d *Driver) refreshAsset(ctx context.Context, log zerolog.Logger, asset *domain.Asset, breakerOpen *bool) AssetOutcome {
	outcome := AssetOutcome{Ticker: asset.Ticker, State: StatePending}
	alog := log.With().Str("ticker", asset.Ticker).Logger()

	symbol := NormalizeTicker(asset.Ticker)

	snap, err := d.quotes.Snapshot(ctx, symbol)
	if err != nil {
		alog.Warn().Err(err).Msg("Quote fetch failed, skipping asset")
		outcome.State = StateSkipped
		outcome.Note = "quote fetch failed"
		return outcome
	}

	if !snap.HasPrice() {
		// No price, no downstream calls; prior values stay untouched
		alog.Warn().Msg("No usable price, skipping asset")
		outcome.State = StateSkipped
		outcome.Note = "no price"
		return outcome
	}

	outcome.State = StatePriceFetched

	d.refreshBars(ctx, alog, asset.ID, symbol)

	headline := d.fetcher.Fetch(ctx, symbol, asset.Name)

	// Phase 1: price, ratios and news persist immediately so partial
	// data survives an AI failure or a crash
	if err := d.assets.UpdateMarketData(asset.ID, snap, headline.Summary); err != nil {
		alog.Error().Err(err).Msg("Phase-1 persist failed")
		outcome.State = StateSkipped
		outcome.Note = "persist failed"
		return outcome
	}

	d.ingestHeadline(ctx, alog, asset, headline, breakerOpen)

	if d.shouldSkipAnalysis(asset) {
		alog.Debug().Msg("Analysis is fresh, skipping AI call")
		outcome.State = StatePersisted
		outcome.Note = "analysis fresh"
		return outcome
	}

	if *breakerOpen {
		alog.Debug().Msg("Circuit breaker open, skipping AI call")
		outcome.State = StatePersisted
		outcome.Note = "breaker open"
		return outcome
	}

	outcome.State = StateAIRequested
	outcome.AICalled = true

	input := AnalysisInput{
		Ticker:       symbol,
		Name:         asset.Name,
		Price:        snap.Price,
		TrailingPE:   snap.TrailingPE,
		ROE:          snap.ROE,
		FiftyTwoHigh: snap.FiftyTwoHigh,
		FiftyTwoLow:  snap.FiftyTwoLow,
	}

	if d.meanFn != nil {
		if scores, err := d.news.RecentScores(asset.ID, recentScoreWindow); err == nil {
			if mean, ok := d.meanFn(scores); ok {
				input.AvgSentiment = mean
				input.HasSentiment = true
			}
		}
	}

	analysis := d.analyst.Analyze(ctx, input)

	if analysis.Status == domain.AnalysisQuotaExceeded {
		alog.Warn().Msg("Quota exceeded, opening circuit breaker for this cycle")
		*breakerOpen = true
	}

	// Phase 2: AI fields are written whatever the status; the stored
	// text is either a genuine analysis or a recognizable sentinel
	if err := d.assets.UpdateAnalysis(asset.ID, analysis); err != nil {
		alog.Error().Err(err).Msg("Phase-2 persist failed")
		outcome.Note = "analysis persist failed"
		return outcome
	}

	// Inter-asset pacing keeps the serialized stream under the
	// provider's per-minute limits
	if d.pace > 0 {
		d.sleeper.Sleep(d.pace)
	}

	outcome.State = StatePersisted
	return outcome
}

// refreshBars tops up the current trading days. Non-critical: errors are
// logged and the cycle continues.
func (d *Driver) refreshBars(ctx context.Context, log zerolog.Logger, assetID int64, symbol string) {
	bars, err := d.quotes.RecentBars(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Msg("Recent bars fetch failed")
		return
	}

	if len(bars) == 0 {
		return
	}

	inserted, err := d.bars.UpsertBars(assetID, bars)
	if err != nil {
		log.Warn().Err(err).Msg("Quote upsert failed")
		return
	}

	if inserted > 0 {
		log.Debug().Int("inserted", inserted).Msg("Upserted quote bars")
	}
}

// ingestHeadline stores a newly seen article, scoring its sentiment when
// AI is available and the breaker is closed. The URL existence check runs
// before any generative call so quota is never spent on a seen item.
func (d *Driver) ingestHeadline(ctx context.Context, log zerolog.Logger, asset *domain.Asset, headline Headline, breakerOpen *bool) {
	if headline.URL == "" || headline.Title == "" {
		return
	}

	exists, err := d.news.ExistsByURL(headline.URL)
	if err != nil {
		log.Warn().Err(err).Msg("News existence check failed")
		return
	}
	if exists {
		return
	}

	item := domain.NewsItem{
		AssetID:     asset.ID,
		Title:       headline.Title,
		URL:         headline.URL,
		PublishedAt: time.Now().UTC(),
		Source:      "GoogleSearch",
	}

	if d.analyst.Available() && !*breakerOpen {
		score := d.analyst.ScoreHeadline(ctx, asset.Name, headline.Title)
		switch score.Status {
		case domain.AnalysisOK:
			item.SentimentScore = &score.Score
			item.SentimentSummary = &score.Summary
		case domain.AnalysisQuotaExceeded:
			log.Warn().Msg("Quota exceeded on sentiment, opening circuit breaker")
			*breakerOpen = true
		}
	}

	if err := d.news.Insert(item); err != nil {
		log.Warn().Err(err).Msg("News insert failed")
	}
}

// shouldSkipAnalysis applies the freshness policy: a recent, genuinely
// successful analysis of non-trivial length is not recomputed, conserving
// external quota. Price and news still refreshed regardless.
func (d *Driver) shouldSkipAnalysis(asset *domain.Asset) bool {
	if asset.AIStatus != domain.AnalysisOK {
		return false
	}

	if len(asset.AIAnalysis) <= minAnalysisLength {
		return false
	}

	return time.Since(asset.LastUpdate) < d.fresh
}
