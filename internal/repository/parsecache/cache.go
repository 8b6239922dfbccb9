// Package parsecache caches parse and decompose results in a key-value store.
package parsecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/searchlang/internal/db"
	"github.com/kailas-cloud/searchlang/internal/usecase/parser"
)

const keyPrefix = "searchlang:parse:"

// DefaultTTL is used when the configured TTL is not positive.
const DefaultTTL = 10 * time.Minute

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// inner is the decorated parser.
type inner interface {
	Parse(ctx context.Context, req parser.Request) (parser.Result, error)
	Decompose(ctx context.Context, req parser.Request) (parser.Decomposition, error)
}

// Cache is a caching decorator over the parser service. Results that carry a
// resolved time range depend on the clock and are never stored.
type Cache struct {
	inner      inner
	store      store
	ttl        time.Duration
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(
	in inner, s store, ttl time.Duration,
	cacheTotal *prometheus.CounterVec, logger *zap.Logger,
) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{inner: in, store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Parse returns a cached result or delegates to the inner parser.
func (c *Cache) Parse(ctx context.Context, req parser.Request) (parser.Result, error) {
	key, err := cacheKey("parse", req)
	if err != nil {
		return c.inner.Parse(ctx, req)
	}

	var dto resultDTO
	if c.get(ctx, key, &dto) {
		return parser.Result{Raw: dto.Raw, View: dto.View}, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if c.lookup(ctx, key, &dto) == "hit" {
			return parser.Result{Raw: dto.Raw, View: dto.View}, nil
		}
		res, err := c.inner.Parse(ctx, req)
		if err != nil {
			return nil, err
		}
		if res.View == nil || res.View.TimeRange == nil {
			c.put(ctx, key, resultDTO{Raw: res.Raw, View: res.View})
		}
		return res, nil
	})
	if err != nil {
		return parser.Result{}, err //nolint:wrapcheck // inner error is already wrapped
	}
	return v.(parser.Result), nil //nolint:forcetypeassert // group only returns parser.Result
}

// Decompose returns a cached decomposition or delegates to the inner parser.
func (c *Cache) Decompose(ctx context.Context, req parser.Request) (parser.Decomposition, error) {
	key, err := cacheKey("decompose", req)
	if err != nil {
		return c.inner.Decompose(ctx, req)
	}

	var d parser.Decomposition
	if c.get(ctx, key, &d) {
		return d, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if c.lookup(ctx, key, &d) == "hit" {
			return d, nil
		}
		res, err := c.inner.Decompose(ctx, req)
		if err != nil {
			return nil, err
		}
		if res.TimeRange == nil {
			c.put(ctx, key, res)
		}
		return res, nil
	})
	if err != nil {
		return parser.Decomposition{}, err //nolint:wrapcheck // inner error is already wrapped
	}
	return v.(parser.Decomposition), nil //nolint:forcetypeassert // group only returns parser.Decomposition
}

// get counts the lookup under "hit", "miss" or "error".
func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	result := c.lookup(ctx, key, dst)
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
	return result == "hit"
}

// lookup decodes the entry at key into dst. Store failures degrade to a miss.
func (c *Cache) lookup(ctx context.Context, key string, dst any) string {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "miss"
		}
		c.logger.Warn("Failed to get cached parse", zap.String("key", key), zap.Error(err))
		return "error"
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to decode cached parse", zap.String("key", key), zap.Error(err))
		return "error"
	}
	return "hit"
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode parse for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache parse", zap.String("key", key), zap.Error(err))
	}
}

func cacheKey(op string, req parser.Request) (string, error) {
	raw, err := json.Marshal(struct {
		Op         string `json:"op"`
		Namespace  string `json:"ns"`
		Owner      string `json:"owner"`
		Query      string `json:"q"`
		Intentions any    `json:"i"`
	}{op, req.Scope.Namespace, req.Scope.Owner, req.Query, req.Intentions})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	h := sha256.Sum256(raw)
	return keyPrefix + op + ":" + hex.EncodeToString(h[:]), nil
}
