package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const (
	// requestTimeout bounds a single generation call so a stalled provider
	// cannot hang the refresh cycle
	requestTimeout = 40 * time.Second
)

// Client wraps the Gemini API for content generation and grounded search
type Client struct {
	client *genai.Client
	log    zerolog.Logger
}

// NewClient creates a new Gemini client. The API key must be non-empty;
// callers decide how to degrade when no credential is configured.
func NewClient(ctx context.Context, apiKey string, log zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &Client{
		client: client,
		log:    log.With().Str("client", "gemini").Logger(),
	}, nil
}

// Generate sends a single prompt to the given model and returns the
// generated text.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return "", fmt.Errorf("no response generated from model %s", model)
	}

	return text, nil
}

// Source is a citation link returned by a grounded search
type Source struct {
	URL   string
	Title string
}

// Search sends a prompt with the GoogleSearch grounding tool enabled and
// returns the generated text plus any citation sources.
func (c *Client) Search(ctx context.Context, model, prompt string) (string, []Source, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", nil, fmt.Errorf("grounded search failed: %w", err)
	}

	text := collectText(resp)
	if text == "" {
		return "", nil, fmt.Errorf("no response generated from model %s", model)
	}

	var sources []Source
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk.Web != nil && chunk.Web.URI != "" {
				sources = append(sources, Source{
					URL:   chunk.Web.URI,
					Title: chunk.Web.Title,
				})
			}
		}
	}

	return text, sources, nil
}

// collectText extracts text parts from the first candidate carrying any
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}

	return b.String()
}
