package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shwatanab/steward-go/pkg/core"
	"github.com/shwatanab/steward-go/pkg/logging"
)

// CachedOracle wraps another Oracle and memoizes its completions. Cache
// failures are logged and degrade to a live call; they never surface to the
// caller.
type CachedOracle struct {
	inner core.Oracle
	cache Cache
	keys  *KeyGenerator
	ttl   time.Duration
}

// NewCachedOracle wraps inner with the given cache. A ttl of zero uses the
// cache's default expiry.
func NewCachedOracle(inner core.Oracle, store Cache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{
		inner: inner,
		cache: store,
		keys:  NewKeyGenerator(""),
		ttl:   ttl,
	}
}

// ModelID implements core.Oracle.
func (c *CachedOracle) ModelID() string {
	return c.inner.ModelID()
}

// Generate implements core.Oracle.
func (c *CachedOracle) Generate(ctx context.Context, prompt string, options ...core.GenerateOption) (*core.OracleResponse, error) {
	logger := logging.GetLogger()
	opts := core.NewGenerateOptions(options...)
	key := c.keys.GenerateKey(c.inner.ModelID(), prompt, opts)

	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		logger.Warn(ctx, "cache lookup failed: %v", err)
	} else if ok {
		var resp core.OracleResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			logger.Warn(ctx, "discarding corrupt cache entry %s: %v", key, err)
		} else {
			logger.Debug(ctx, "cache hit for model %s", c.inner.ModelID())
			return &resp, nil
		}
	}

	resp, err := c.inner.Generate(ctx, prompt, options...)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			logger.Warn(ctx, "cache store failed: %v", err)
		}
	}

	return resp, nil
}
