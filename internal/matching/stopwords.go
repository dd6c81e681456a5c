package matching

import (
	"context"
	"sync"
	"time"

	"github.com/campusbot/faq-engine/internal/observability"
)

// StopwordSource reads the backing stopword store.
type StopwordSource interface {
	List(ctx context.Context) ([]string, error)
	LastUpdated(ctx context.Context) (time.Time, error)
}

// KeywordSource lists registered FAQ keywords.
type KeywordSource interface {
	ListKeywords(ctx context.Context) ([]string, error)
}

// StopwordCache caches the active stopword set for a TTL and invalidates
// early when the backing store's modification timestamp advances. Any word
// that also exists as a registered keyword is excluded on every reload, so
// domain-significant short tokens are never discarded.
type StopwordCache struct {
	source   StopwordSource
	keywords KeywordSource
	ttl      time.Duration
	logger   *observability.Logger

	mu       sync.RWMutex
	set      map[string]struct{}
	loadedAt time.Time
	lastMod  time.Time
}

// NewStopwordCache creates the stopword cache.
func NewStopwordCache(source StopwordSource, keywords KeywordSource, ttl time.Duration, logger *observability.Logger) *StopwordCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StopwordCache{
		source:   source,
		keywords: keywords,
		ttl:      ttl,
		logger:   logger.WithComponent("stopwords"),
	}
}

// Active returns the current stopword set. Reload failures degrade to the
// last loaded set (or an empty one) rather than failing the request.
func (c *StopwordCache) Active(ctx context.Context) map[string]struct{} {
	c.mu.RLock()
	set := c.set
	loadedAt := c.loadedAt
	lastMod := c.lastMod
	c.mu.RUnlock()

	if set != nil && time.Since(loadedAt) < c.ttl {
		// TTL still valid: verify the store has not been modified since load.
		updated, err := c.source.LastUpdated(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("could not verify stopword store modification time")
			return set
		}
		if !updated.After(lastMod) {
			return set
		}
	}

	return c.reload(ctx, set)
}

// Invalidate drops the cached set. The collaborator's write paths call this
// after mutating the stopword store.
func (c *StopwordCache) Invalidate() {
	c.mu.Lock()
	c.set = nil
	c.loadedAt = time.Time{}
	c.mu.Unlock()
	c.logger.Info().Msg("stopword cache cleared")
}

func (c *StopwordCache) reload(ctx context.Context, previous map[string]struct{}) map[string]struct{} {
	words, err := c.source.List(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("loading stopwords failed, keeping previous set")
		if previous != nil {
			return previous
		}
		return map[string]struct{}{}
	}

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w != "" {
			set[w] = struct{}{}
		}
	}

	// Auto-whitelist: a registered keyword is never a stopword.
	excluded := 0
	if keywords, err := c.keywords.ListKeywords(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("could not auto-whitelist keywords")
	} else {
		for _, kw := range keywords {
			if _, ok := set[kw]; ok {
				delete(set, kw)
				excluded++
			}
		}
	}

	now := time.Now()
	lastMod := now
	if updated, err := c.source.LastUpdated(ctx); err == nil && !updated.IsZero() {
		lastMod = updated
	}

	c.mu.Lock()
	c.set = set
	c.loadedAt = now
	c.lastMod = lastMod
	c.mu.Unlock()

	c.logger.Info().Int("stopwords", len(set)).Int("whitelisted", excluded).Msg("stopwords reloaded")
	return set
}
