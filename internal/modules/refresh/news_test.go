package refresh

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/b3radar/b3radar/internal/clients/gemini"
	"github.com/b3radar/b3radar/internal/domain"
)

type fakeSearcher struct {
	text    string
	sources []gemini.Source
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, model, prompt string) (string, []gemini.Source, error) {
	return f.text, f.sources, f.err
}

func TestFetchAppendsCitationFooter(t *testing.T) {
	searcher := &fakeSearcher{
		text: "Petrobras announces new dividend policy\nThe board approved changes this week.",
		sources: []gemini.Source{
			{URL: "https://news.example.com/petro-dividends", Title: "Example News"},
			{URL: "https://other.example.com/board", Title: "Other"},
		},
	}

	f := NewNewsFetcher(searcher, nil, zerolog.Nop())
	headline := f.Fetch(context.Background(), "PETR4.SA", "Petrobras")

	assert.Equal(t, "Petrobras announces new dividend policy", headline.Title)
	assert.Equal(t, "https://news.example.com/petro-dividends", headline.URL)
	assert.Contains(t, headline.Summary, "Sources:")
	assert.Contains(t, headline.Summary, "[1] https://news.example.com/petro-dividends")
	assert.Contains(t, headline.Summary, "[2] https://other.example.com/board")
}

func TestFetchWithoutSourcesReturnsBareText(t *testing.T) {
	searcher := &fakeSearcher{text: "Vale reports stable production"}

	f := NewNewsFetcher(searcher, nil, zerolog.Nop())
	headline := f.Fetch(context.Background(), "VALE3.SA", "Vale")

	assert.Equal(t, "Vale reports stable production", headline.Summary)
	assert.Empty(t, headline.URL)
	assert.NotContains(t, headline.Summary, "Sources:")
}

func TestFetchFailureYieldsSentinel(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("connection refused")}

	f := NewNewsFetcher(searcher, nil, zerolog.Nop())
	headline := f.Fetch(context.Background(), "ITUB4.SA", "Itau")

	assert.Equal(t, domain.SentinelNewsFailed, headline.Summary)
	assert.Empty(t, headline.URL)
}

func TestFetchWithoutCredentialYieldsSentinel(t *testing.T) {
	f := NewNewsFetcher(nil, nil, zerolog.Nop())
	headline := f.Fetch(context.Background(), "ITUB4.SA", "Itau")

	assert.Equal(t, domain.SentinelNoNewsCredential, headline.Summary)
}

func TestFetchEmptyResponseYieldsSentinel(t *testing.T) {
	searcher := &fakeSearcher{text: "   "}

	f := NewNewsFetcher(searcher, nil, zerolog.Nop())
	headline := f.Fetch(context.Background(), "BBAS3.SA", "Banco do Brasil")

	assert.Equal(t, domain.SentinelNewsFailed, headline.Summary)
}
