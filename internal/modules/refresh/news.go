package refresh

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/b3radar/b3radar/internal/clients/gemini"
	"github.com/b3radar/b3radar/internal/domain"
)

// Searcher runs a grounded search prompt and returns the generated text
// plus citation sources.
type Searcher interface {
	Search(ctx context.Context, model, prompt string) (string, []gemini.Source, error)
}

// Headline is one fetched news result. Summary is the display text stored
// on the asset (with citation footer); Title and URL identify the article
// for ingestion.
type Headline struct {
	Summary string
	Title   string
	URL     string
}

// NewsFetcher retrieves a single factual headline per asset through the
// news-search provider. A nil searcher means no credential is configured.
type NewsFetcher struct {
	search   Searcher
	resolver ModelResolver
	log      zerolog.Logger
}

// NewNewsFetcher creates a new news requester
func NewNewsFetcher(search Searcher, resolver ModelResolver, log zerolog.Logger) *NewsFetcher {
	return &NewsFetcher{
		search:   search,
		resolver: resolver,
		log:      log.With().Str("component", "news").Logger(),
	}
}

// Fetch returns the latest headline for an asset. Failures yield a short
// human-readable sentinel in Summary, never an error to the caller.
func (f *NewsFetcher) Fetch(ctx context.Context, ticker, name string) Headline {
	if f.search == nil {
		return Headline{Summary: domain.SentinelNoNewsCredential}
	}

	prompt := fmt.Sprintf("Find one recent factual news headline about the company %s (stock %s). "+
		"Reply with the headline on the first line, followed by one sentence of context.", name, ticker)

	model := gemini.DefaultModel
	if f.resolver != nil {
		model = f.resolver.Resolve(ctx)
	}

	text, sources, err := f.search.Search(ctx, model, prompt)
	if err != nil {
		f.log.Warn().Err(err).Str("ticker", ticker).Msg("News search failed")
		return Headline{Summary: domain.SentinelNewsFailed}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Headline{Summary: domain.SentinelNewsFailed}
	}

	headline := Headline{
		Summary: text,
		Title:   firstLine(text),
	}

	if len(sources) > 0 {
		headline.URL = sources[0].URL
		headline.Summary = text + citationFooter(sources)
	}

	return headline
}

// citationFooter formats reference links appended to the stored summary
func citationFooter(sources []gemini.Source) string {
	var b strings.Builder
	b.WriteString("\n\nSources:")
	for i, src := range sources {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, src.URL)
	}
	return b.String()
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[:i])
	}
	return text
}
