package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/b3radar/b3radar/internal/domain"
)

const (
	// quoteURL is the Yahoo Finance quote API endpoint
	quoteURL = "https://query1.finance.yahoo.com/v7/finance/quote"

	// chartURL is the Yahoo Finance chart API endpoint (daily OHLCV)
	chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

	// defaultRequestsPerSecond keeps the client under Yahoo's informal limits
	defaultRequestsPerSecond = 2
)

// Client is a Yahoo Finance API client
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// yahooQuoteResponse represents the response from Yahoo Finance quote API
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// Snapshot fetches a fundamentals/price snapshot for a normalized symbol.
// A snapshot without a usable current price is a valid response; the caller
// decides to skip the asset, not to treat it as an error.
func (c *Client) Snapshot(ctx context.Context, symbol string) (*domain.QuoteSnapshot, error) {
	info, err := c.getQuoteInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote info: %w", err)
	}

	snap := scanSnapshot(info)
	snap.Symbol = symbol
	return snap, nil
}

// scanSnapshot builds a snapshot from the raw quote payload
func scanSnapshot(info map[string]interface{}) *domain.QuoteSnapshot {
	price := asFloat(info, "currentPrice")
	if price == 0 {
		price = asFloat(info, "regularMarketPrice")
	}

	return &domain.QuoteSnapshot{
		Price:         price,
		TrailingPE:    asFloat(info, "trailingPE"),
		DividendYield: asFloat(info, "dividendYield"),
		ROE:           asFloat(info, "returnOnEquity") * 100,
		PriceToBook:   asFloat(info, "priceToBook"),
		FiftyTwoHigh:  asFloat(info, "fiftyTwoWeekHigh"),
		FiftyTwoLow:   asFloat(info, "fiftyTwoWeekLow"),
	}
}

// getQuoteInfo fetches quote information from Yahoo Finance API
func (c *Client) getQuoteInfo(ctx context.Context, symbol string) (map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", "symbol,regularMarketPrice,currentPrice,trailingPE,priceToBook,"+
		"returnOnEquity,dividendYield,fiftyTwoWeekHigh,fiftyTwoWeekLow,longName,shortName")

	reqURL := quoteURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result yahooQuoteResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.QuoteResponse.Error)
	}

	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("no quote data returned for symbol %s", symbol)
	}

	return result.QuoteResponse.Result[0], nil
}

// asFloat extracts a numeric field defensively. Yahoo returns some fields
// as plain scalars and some as one-element series; both normalize to a
// plain float64. A missing or unusable value reads as zero.
func asFloat(m map[string]interface{}, key string) float64 {
	val, ok := m[key]
	if !ok || val == nil {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case []interface{}:
		if len(v) == 0 {
			return 0
		}
		if f, ok := v[0].(float64); ok {
			return f
		}
	case map[string]interface{}:
		// {"raw": 12.3, "fmt": "12.30"} wrapper
		if raw, ok := v["raw"].(float64); ok {
			return raw
		}
	}

	return 0
}

// RecentBars fetches the last few daily OHLCV bars for a symbol.
// Used to keep the current trading days topped up; deep historical
// backfill is handled elsewhere.
func (c *Client) RecentBars(ctx context.Context, symbol string) ([]domain.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "5d")

	reqURL := chartURL + url.QueryEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("Yahoo Finance API error: %v", result.Chart.Error)
	}

	if len(result.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No chart data returned")
		return nil, nil
	}

	chartData := result.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No quote data in chart response")
		return nil, nil
	}

	quote := chartData.Indicators.Quote[0]

	var bars []domain.Bar
	for i, ts := range chartData.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}

		// Yahoo sometimes returns null rows as zeros
		if quote.Open[i] == 0 && quote.High[i] == 0 && quote.Low[i] == 0 && quote.Close[i] == 0 {
			continue
		}

		volume := int64(0)
		if i < len(quote.Volume) {
			volume = quote.Volume[i]
		}

		bars = append(bars, domain.Bar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: volume,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("count", len(bars)).
		Msg("Fetched recent bars")

	return bars, nil
}
