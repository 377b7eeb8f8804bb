package gemini

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultModel is the stable production alias used when model discovery
// fails or lists nothing usable.
const DefaultModel = "gemini-flash-latest"

// ModelCache is a single-slot memoization of the resolved model identifier.
// Populated once, reused until process restart. Injected explicitly so
// tests can reset it.
type ModelCache struct {
	mu    sync.Mutex
	model string
}

// NewModelCache creates an empty model cache
func NewModelCache() *ModelCache {
	return &ModelCache{}
}

// Reset clears the cached model, forcing re-discovery on next resolve
func (c *ModelCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = ""
}

// ModelLister lists model identifiers that support content generation
type ModelLister interface {
	ListGenerativeModels(ctx context.Context) ([]string, error)
}

// Resolver determines which model identifier can serve generateContent
// requests for the active credential.
type Resolver struct {
	lister ModelLister
	cache  *ModelCache
	log    zerolog.Logger
}

// NewResolver creates a new model resolver
func NewResolver(lister ModelLister, cache *ModelCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		lister: lister,
		cache:  cache,
		log:    log.With().Str("component", "model_resolver").Logger(),
	}
}

// Resolve returns a usable model identifier: the first listed model that
// supports content generation, or DefaultModel when discovery fails or
// lists nothing. The choice is cached for the process lifetime.
func (r *Resolver) Resolve(ctx context.Context) string {
	r.cache.mu.Lock()
	defer r.cache.mu.Unlock()

	if r.cache.model != "" {
		return r.cache.model
	}

	model := DefaultModel
	if r.lister != nil {
		names, err := r.lister.ListGenerativeModels(ctx)
		if err != nil {
			// Discovery errors are swallowed; the default keeps the
			// pipeline running with some model to try
			r.log.Warn().Err(err).Msg("Model discovery failed, using default")
		} else if len(names) > 0 {
			model = names[0]
			r.log.Info().Str("model", model).Msg("Resolved generative model")
		} else {
			r.log.Warn().Msg("Model discovery listed nothing usable, using default")
		}
	}

	r.cache.model = model
	return model
}

// ListGenerativeModels queries the provider's model-listing endpoint and
// returns the identifiers that support generateContent, in listing order.
func (c *Client) ListGenerativeModels(ctx context.Context) ([]string, error) {
	var names []string
	for model, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, err
		}
		for _, action := range model.SupportedActions {
			if action == "generateContent" {
				names = append(names, strings.TrimPrefix(model.Name, "models/"))
				break
			}
		}
	}

	return names, nil
}
