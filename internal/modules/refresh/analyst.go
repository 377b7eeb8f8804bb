package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/clients/gemini"
	"github.com/b3radar/b3radar/internal/domain"
)

// quotaBackoffUnit is the base delay between quota retries; attempt N
// waits N of these.
const quotaBackoffUnit = 60 * time.Second

// fallbackSummary is stored when the model answered with unstructured
// text; the raw answer goes into the full report instead.
const fallbackSummary = "Automated analysis returned unstructured text; see full report"

// fallbackModels are progressively older stable aliases tried when the
// resolved model is rejected with a not-found error.
var fallbackModels = []string{
	gemini.DefaultModel,
	"gemini-2.0-flash",
	"gemini-1.5-flash",
}

// Generator produces text from a prompt against a specific model
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelResolver yields the preferred model identifier for this credential
type ModelResolver interface {
	Resolve(ctx context.Context) string
}

// AnalysisInput carries the fundamentals embedded into the prompt
type AnalysisInput struct {
	Ticker       string
	Name         string
	Price        float64
	TrailingPE   float64
	ROE          float64
	FiftyTwoHigh float64
	FiftyTwoLow  float64
	AvgSentiment float64
	HasSentiment bool
}

// HeadlineScore is the typed result of scoring one headline
type HeadlineScore struct {
	Status  domain.AnalysisStatus
	Score   float64
	Summary string
}

// Analyst produces generated valuation analyses and headline sentiment
// scores. A nil generator means no credential is configured; every request
// then degrades to a sentinel result.
type Analyst struct {
	gen          Generator
	resolver     ModelResolver
	sleeper      Sleeper
	quotaRetries int
	log          zerolog.Logger
}

// AnalystConfig holds analyst dependencies
type AnalystConfig struct {
	Generator    Generator
	Resolver     ModelResolver
	Sleeper      Sleeper
	QuotaRetries int
	Log          zerolog.Logger
}

// NewAnalyst creates a new analysis requester
func NewAnalyst(cfg AnalystConfig) *Analyst {
	retries := cfg.QuotaRetries
	if retries <= 0 {
		retries = 3
	}

	sleeper := cfg.Sleeper
	if sleeper == nil {
		sleeper = NewSleeper()
	}

	return &Analyst{
		gen:          cfg.Generator,
		resolver:     cfg.Resolver,
		sleeper:      sleeper,
		quotaRetries: retries,
		log:          cfg.Log.With().Str("component", "analyst").Logger(),
	}
}

// Available reports whether a generative credential is configured
func (a *Analyst) Available() bool {
	return a.gen != nil
}

// Analyze produces a short summary and an optional full report for an
// asset's valuation. Failures never escape as errors; the result status
// tells the driver what happened.
func (a *Analyst) Analyze(ctx context.Context, input AnalysisInput) domain.Analysis {
	if a.gen == nil {
		return domain.Analysis{
			Status:  domain.AnalysisError,
			Summary: domain.SentinelNoAICredential,
		}
	}

	text, status := a.generate(ctx, a.buildPrompt(input))
	if status != domain.AnalysisOK {
		return sentinelAnalysis(status)
	}

	return parseAnalysis(text)
}

// ScoreHeadline classifies the sentiment of one headline from -1.0
// (pessimistic) to +1.0 (optimistic).
func (a *Analyst) ScoreHeadline(ctx context.Context, name, title string) HeadlineScore {
	if a.gen == nil {
		return HeadlineScore{Status: domain.AnalysisError}
	}

	prompt := fmt.Sprintf(`Analyze the headline: %q (company: %s)
Classify the sentiment from -1.0 (pessimistic) to +1.0 (optimistic).
Answer ONLY with JSON: {"score": 0.0, "summary": "short summary"}`, title, name)

	text, status := a.generate(ctx, prompt)
	if status != domain.AnalysisOK {
		return HeadlineScore{Status: status}
	}

	var parsed struct {
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &parsed); err != nil {
		a.log.Warn().Err(err).Str("title", title).Msg("Unparseable sentiment response")
		return HeadlineScore{Status: domain.AnalysisError}
	}

	return HeadlineScore{
		Status:  domain.AnalysisOK,
		Score:   parsed.Score,
		Summary: parsed.Summary,
	}
}

// generate walks the model fallback list, retrying quota errors with
// increasing backoff and advancing to the next candidate on a not-found
// error.
func (a *Analyst) generate(ctx context.Context, prompt string) (string, domain.AnalysisStatus) {
	for _, model := range a.candidates(ctx) {
		for attempt := 1; ; attempt++ {
			text, err := a.gen.Generate(ctx, model, prompt)
			if err == nil {
				return text, domain.AnalysisOK
			}

			if gemini.IsModelNotFound(err) {
				a.log.Warn().Str("model", model).Msg("Model not found, trying next candidate")
				break
			}

			if gemini.IsQuotaExceeded(err) {
				if attempt > a.quotaRetries {
					a.log.Warn().Str("model", model).Msg("Quota retries exhausted")
					return "", domain.AnalysisQuotaExceeded
				}

				wait := time.Duration(attempt) * quotaBackoffUnit
				a.log.Warn().
					Str("model", model).
					Int("attempt", attempt).
					Dur("wait", wait).
					Msg("Quota exceeded, backing off")
				a.sleeper.Sleep(wait)
				continue
			}

			a.log.Error().Err(err).Str("model", model).Msg("Generation failed")
			return "", domain.AnalysisError
		}
	}

	return "", domain.AnalysisError
}

// candidates builds the ordered model list: the resolved model first,
// then the stable aliases, without duplicates.
func (a *Analyst) candidates(ctx context.Context) []string {
	var models []string
	seen := make(map[string]bool)

	add := func(m string) {
		if m != "" && !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}

	if a.resolver != nil {
		add(a.resolver.Resolve(ctx))
	}
	for _, m := range fallbackModels {
		add(m)
	}

	return models
}

func (a *Analyst) buildPrompt(input AnalysisInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an equity analyst. Evaluate the stock %s (%s).\n", input.Ticker, input.Name)
	fmt.Fprintf(&b, "Current price: %.2f\n", input.Price)
	if input.TrailingPE > 0 {
		fmt.Fprintf(&b, "Trailing P/E: %.2f\n", input.TrailingPE)
	}
	if input.ROE != 0 {
		fmt.Fprintf(&b, "ROE: %.2f%%\n", input.ROE)
	}
	if input.FiftyTwoHigh > 0 && input.FiftyTwoLow > 0 {
		fmt.Fprintf(&b, "52-week range: %.2f - %.2f\n", input.FiftyTwoLow, input.FiftyTwoHigh)
		fmt.Fprintf(&b, "Trend: %s\n", trendLabel(input.Price, input.FiftyTwoHigh, input.FiftyTwoLow))
	}
	if input.HasSentiment {
		fmt.Fprintf(&b, "Average recent news sentiment: %.2f (-1.0 to +1.0)\n", input.AvgSentiment)
	}

	b.WriteString(`Respond ONLY with JSON: {"summary": "one short paragraph on valuation", "full_report": "detailed analysis"}`)

	return b.String()
}

// trendLabel derives a coarse trend from the price position within the
// 52-week range.
func trendLabel(price, high, low float64) string {
	switch {
	case price >= 0.9*high:
		return "strong uptrend"
	case price <= 1.1*low:
		return "downtrend"
	default:
		return "sideways"
	}
}

// parseAnalysis decodes the JSON-shaped response. Unstructured answers
// fall back to the raw text as the full report.
func parseAnalysis(text string) domain.Analysis {
	clean := stripCodeFences(text)

	var parsed struct {
		Summary    string `json:"summary"`
		FullReport string `json:"full_report"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil || parsed.Summary == "" {
		return domain.Analysis{
			Status:     domain.AnalysisOK,
			Summary:    fallbackSummary,
			FullReport: strings.TrimSpace(text),
		}
	}

	return domain.Analysis{
		Status:     domain.AnalysisOK,
		Summary:    parsed.Summary,
		FullReport: parsed.FullReport,
	}
}

// stripCodeFences removes markdown code-fence wrapping from a model reply
func stripCodeFences(text string) string {
	clean := strings.TrimSpace(text)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// sentinelAnalysis maps a failure status to the stored sentinel text
func sentinelAnalysis(status domain.AnalysisStatus) domain.Analysis {
	summary := domain.SentinelAnalysisFailed
	if status == domain.AnalysisQuotaExceeded {
		summary = domain.SentinelQuotaExceeded
	}

	return domain.Analysis{
		Status:  status,
		Summary: summary,
	}
}
