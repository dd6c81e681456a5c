package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusbot/faq-engine/internal/observability"
)

type fakeStopwordSource struct {
	words       []string
	lastUpdated time.Time
	listErr     error
	listCalls   int
}

func (f *fakeStopwordSource) List(ctx context.Context) ([]string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.words, nil
}

func (f *fakeStopwordSource) LastUpdated(ctx context.Context) (time.Time, error) {
	return f.lastUpdated, nil
}

type fakeKeywordSource struct {
	keywords []string
	err      error
}

func (f *fakeKeywordSource) ListKeywords(ctx context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.keywords, nil
}

func TestStopwordCacheLoadsAndCaches(t *testing.T) {
	src := &fakeStopwordSource{words: []string{"ไหม", "ครับ"}}
	cache := NewStopwordCache(src, &fakeKeywordSource{}, time.Minute, observability.NopLogger())

	set := cache.Active(context.Background())
	assert.Contains(t, set, "ไหม")
	assert.Contains(t, set, "ครับ")
	assert.Equal(t, 1, src.listCalls)

	cache.Active(context.Background())
	assert.Equal(t, 1, src.listCalls, "second read within TTL must not hit the store")
}

func TestStopwordCacheKeywordWhitelist(t *testing.T) {
	src := &fakeStopwordSource{words: []string{"ทุน", "ไหม"}}
	kw := &fakeKeywordSource{keywords: []string{"ทุน"}}
	cache := NewStopwordCache(src, kw, time.Minute, observability.NopLogger())

	set := cache.Active(context.Background())
	assert.NotContains(t, set, "ทุน", "registered keyword must never be a stopword")
	assert.Contains(t, set, "ไหม")
}

func TestStopwordCacheEarlyInvalidation(t *testing.T) {
	src := &fakeStopwordSource{words: []string{"ไหม"}, lastUpdated: time.Now().Add(-time.Hour)}
	cache := NewStopwordCache(src, &fakeKeywordSource{}, time.Hour, observability.NopLogger())

	cache.Active(context.Background())
	assert.Equal(t, 1, src.listCalls)

	// Store modified after the load: next read reloads despite the TTL.
	src.words = []string{"ไหม", "ครับ"}
	src.lastUpdated = time.Now().Add(time.Hour)

	set := cache.Active(context.Background())
	assert.Equal(t, 2, src.listCalls)
	assert.Contains(t, set, "ครับ")
}

func TestStopwordCacheInvalidate(t *testing.T) {
	src := &fakeStopwordSource{words: []string{"ไหม"}}
	cache := NewStopwordCache(src, &fakeKeywordSource{}, time.Hour, observability.NopLogger())

	cache.Active(context.Background())
	cache.Invalidate()
	cache.Active(context.Background())
	assert.Equal(t, 2, src.listCalls)
}

func TestStopwordCacheDegradesOnError(t *testing.T) {
	src := &fakeStopwordSource{words: []string{"ไหม"}}
	cache := NewStopwordCache(src, &fakeKeywordSource{}, time.Hour, observability.NopLogger())

	first := cache.Active(context.Background())
	assert.Contains(t, first, "ไหม")

	cache.Invalidate()
	src.listErr = errors.New("db down")

	second := cache.Active(context.Background())
	assert.Empty(t, second, "no previous set survives an explicit invalidate")

	// With a previous set still cached, a failed reload keeps serving it.
	src.listErr = nil
	cache.Active(context.Background())
	src.listErr = errors.New("db down")
	src.lastUpdated = time.Now().Add(time.Hour)

	third := cache.Active(context.Background())
	assert.Contains(t, third, "ไหม")
}
