package gemini

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type fakeLister struct {
	names []string
	err   error
	calls int
}

func (f *fakeLister) ListGenerativeModels(ctx context.Context) ([]string, error) {
	f.calls++
	return f.names, f.err
}

func TestResolverPicksFirstListedModel(t *testing.T) {
	lister := &fakeLister{names: []string{"gemini-2.0-flash", "gemini-1.5-pro"}}
	r := NewResolver(lister, NewModelCache(), zerolog.Nop())

	got := r.Resolve(context.Background())
	assert.Equal(t, "gemini-2.0-flash", got)
}

func TestResolverCachesAcrossCalls(t *testing.T) {
	lister := &fakeLister{names: []string{"gemini-2.0-flash"}}
	r := NewResolver(lister, NewModelCache(), zerolog.Nop())

	first := r.Resolve(context.Background())
	second := r.Resolve(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, lister.calls, "second resolve must not re-query")
}

func TestResolverFallsBackOnDiscoveryError(t *testing.T) {
	lister := &fakeLister{err: fmt.Errorf("network unreachable")}
	r := NewResolver(lister, NewModelCache(), zerolog.Nop())

	got := r.Resolve(context.Background())
	assert.Equal(t, DefaultModel, got)
}

func TestResolverFallsBackOnEmptyListing(t *testing.T) {
	lister := &fakeLister{}
	r := NewResolver(lister, NewModelCache(), zerolog.Nop())

	got := r.Resolve(context.Background())
	assert.Equal(t, DefaultModel, got)
}

func TestModelCacheReset(t *testing.T) {
	lister := &fakeLister{names: []string{"gemini-2.0-flash"}}
	cache := NewModelCache()
	r := NewResolver(lister, cache, zerolog.Nop())

	r.Resolve(context.Background())
	cache.Reset()
	r.Resolve(context.Background())

	assert.Equal(t, 2, lister.calls, "reset must force re-discovery")
}
