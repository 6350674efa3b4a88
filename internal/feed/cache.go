package feed

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/unclebandit/groundzero-backend/internal/errors"
	"github.com/unclebandit/groundzero-backend/internal/logger"
	"github.com/unclebandit/groundzero-backend/internal/metrics"
	"github.com/unclebandit/groundzero-backend/internal/model"
)

const DefaultTTL = 30 * time.Minute

// Snapshot is what callers of Latest get back.
type Snapshot struct {
	Posts       []model.Post `json:"posts"`
	LastUpdated time.Time    `json:"lastUpdated"`
}

type entry struct {
	snapshot  Snapshot
	fetchedAt time.Time
}

// Cache holds the single most recent successful fetch. Entries are replaced
// whole, never edited. Concurrent refreshes are not coalesced; the last one
// to finish wins.
type Cache struct {
	fetcher PostFetcher
	ttl     time.Duration
	now     func() time.Time
	log     logger.Logger

	mu    sync.RWMutex
	entry *entry
}

type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func NewCache(fetcher PostFetcher, log logger.Logger, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Latest returns the cached posts while they are younger than the TTL and
// refetches otherwise. If the refetch fails, any cached posts are returned
// regardless of age; with nothing cached the call fails with
// FeedUnavailableError.
func (c *Cache) Latest(ctx context.Context) (Snapshot, error) {
	c.mu.RLock()
	cur := c.entry
	c.mu.RUnlock()

	if cur != nil && c.now().Sub(cur.fetchedAt) < c.ttl {
		metrics.FeedCacheResults.WithLabelValues("hit").Inc()
		return cur.snapshot, nil
	}

	posts, err := c.fetcher.Fetch(ctx)
	if err != nil {
		if cur != nil {
			c.log.Warn("feed refresh failed, serving stale posts", map[string]interface{}{
				"error":        err,
				"last_updated": cur.snapshot.LastUpdated,
			})
			metrics.FeedCacheResults.WithLabelValues("stale").Inc()
			return cur.snapshot, nil
		}
		metrics.FeedCacheResults.WithLabelValues("error").Inc()
		return Snapshot{}, &appErrors.FeedUnavailableError{Err: err}
	}

	now := c.now()
	next := &entry{
		snapshot:  Snapshot{Posts: posts, LastUpdated: now.UTC()},
		fetchedAt: now,
	}
	c.mu.Lock()
	c.entry = next
	c.mu.Unlock()

	metrics.FeedCacheResults.WithLabelValues("refresh").Inc()
	c.log.Debug("feed refreshed", map[string]interface{}{"posts": len(posts)})
	return next.snapshot, nil
}
