package cache

import (
	"context"
	"time"

	"github.com/tiya001/hw05-final/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// The home feed is memoized under a single fixed key: every page number and
// every caller shares the one entry. The key is deliberately not
// parameterized; the feed is public and the window is short.
const (
	indexKey     = "index_page"
	indexTypeKey = "index_page:type"

	TTL = 20 * time.Second
)

// PageCache memoizes one rendered response for TTL, with manual invalidation
// via Clear. Writes elsewhere in the system do not touch it.
type PageCache struct {
	store Store
}

// NewPageCache uses Redis when a client is configured and an in-process
// store otherwise.
func NewPageCache(client *redis.Client) *PageCache {
	if client == nil {
		return &PageCache{store: NewMemoryStore()}
	}
	return &PageCache{store: NewRedisStore(client)}
}

func NewPageCacheWithStore(store Store) *PageCache {
	return &PageCache{store: store}
}

func (p *PageCache) Get(ctx context.Context) (body []byte, contentType string, ok bool) {
	body, ok, err := p.store.Get(ctx, indexKey)
	if err != nil || !ok {
		return nil, "", false
	}
	ct, _, err := p.store.Get(ctx, indexTypeKey)
	if err != nil {
		return nil, "", false
	}
	return body, string(ct), true
}

func (p *PageCache) Set(ctx context.Context, body []byte, contentType string) error {
	if err := p.store.Set(ctx, indexKey, body, TTL); err != nil {
		return err
	}
	return p.store.Set(ctx, indexTypeKey, []byte(contentType), TTL)
}

// Clear drops the cached page immediately, ahead of TTL expiry.
func (p *PageCache) Clear(ctx context.Context) error {
	return p.store.Del(ctx, indexKey, indexTypeKey)
}

// Middleware serves the memoized response when fresh and otherwise stores
// the handler's successful output. It wraps only the home feed route.
func Middleware(pc *PageCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if body, contentType, ok := pc.Get(c.Context()); ok {
			metrics.CacheHits.Inc()
			if contentType != "" {
				c.Set(fiber.HeaderContentType, contentType)
			}
			return c.Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		if c.Response().StatusCode() == fiber.StatusOK {
			metrics.CacheMisses.Inc()
			body := make([]byte, len(c.Response().Body()))
			copy(body, c.Response().Body())
			_ = pc.Set(c.Context(), body, string(c.Response().Header.ContentType()))
		}
		return nil
	}
}
