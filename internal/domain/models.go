package domain

import "time"

// AnalysisStatus classifies the outcome of the last generative analysis
// for an asset. Stored in assets.ai_status so the refresh driver can make
// skip decisions without parsing the analysis text.
type AnalysisStatus string

const (
	AnalysisOK            AnalysisStatus = "ok"
	AnalysisError         AnalysisStatus = "error"
	AnalysisQuotaExceeded AnalysisStatus = "quota_exceeded"
)

// Sentinel strings written into text fields when a provider call could not
// produce a real result. A consumer reading the store sees either a genuine
// result or one of these, never a blank field after a cycle touched the row.
const (
	SentinelNoAICredential   = "AI analysis unavailable: no API credential configured"
	SentinelQuotaExceeded    = "AI analysis unavailable: provider quota exceeded"
	SentinelAnalysisFailed   = "AI analysis unavailable: provider request failed"
	SentinelNoNewsCredential = "News unavailable: no API credential configured"
	SentinelNewsFailed       = "News unavailable: provider request failed"
)

// Asset is a tracked financial instrument. Rows are created by an external
// onboarding process and mutated in place by the refresh driver.
type Asset struct {
	ID            int64
	Ticker        string
	Name          string
	IsActive      bool
	Price         float64
	PERatio       float64
	DYPercentage  float64
	ROEPercentage float64
	PVP           float64
	AIAnalysis    string
	FullReport    string
	NewsSummary   string
	AIStatus      AnalysisStatus
	LastUpdate    time.Time
}

// QuoteSnapshot is a single fundamentals/price snapshot from the quote
// provider. Price == 0 means no usable price was available.
type QuoteSnapshot struct {
	Symbol        string
	Price         float64
	TrailingPE    float64
	DividendYield float64
	ROE           float64
	PriceToBook   float64
	FiftyTwoHigh  float64
	FiftyTwoLow   float64
}

// HasPrice reports whether the snapshot carries a usable current price.
func (q *QuoteSnapshot) HasPrice() bool {
	return q != nil && q.Price > 0
}

// Bar is one trading day of OHLCV data.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// NewsItem is a single ingested headline. URL uniqueness prevents spending
// AI quota on an article that was already scored.
type NewsItem struct {
	ID               int64
	AssetID          int64
	Title            string
	URL              string
	PublishedAt      time.Time
	Source           string
	SentimentScore   *float64
	SentimentSummary *string
}

// Analysis is the typed result of one generative analysis request.
// Provider failures are reported through Status, never as an error escape.
type Analysis struct {
	Status     AnalysisStatus
	Summary    string
	FullReport string
}
