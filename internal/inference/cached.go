// internal/inference/cached.go
package inference

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"readiness-scorer/internal/common/database"
	"readiness-scorer/internal/common/logger"
	"readiness-scorer/internal/common/metrics"
	"readiness-scorer/internal/readiness"
)

const cacheKeyPrefix = "readiness:signal:"

// CachedAnalyzer memoizes usable signals in Redis. UNAVAILABLE results and
// collaborator errors are never cached so a transient outage is retried on
// the next request.
type CachedAnalyzer struct {
	next  readiness.Analyzer
	cache *database.RedisClient
	ttl   time.Duration
	log   logger.Logger
}

func NewCachedAnalyzer(next readiness.Analyzer, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *CachedAnalyzer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedAnalyzer{next: next, cache: cache, ttl: ttl, log: log}
}

// CacheKey is stable for references differing only in case or surrounding space.
func CacheKey(subjectReference string) string {
	ref := strings.ToLower(strings.TrimSpace(subjectReference))
	return cacheKeyPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(ref)).String()
}

func (c *CachedAnalyzer) Analyze(ctx context.Context, subjectReference string) (readiness.InferenceSignal, error) {
	key := CacheKey(subjectReference)

	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var signal readiness.InferenceSignal
		if jsonErr := json.Unmarshal([]byte(raw), &signal); jsonErr == nil && signal.Quality.Usable() {
			metrics.InferenceCacheLookups.WithLabelValues("hit").Inc()
			return signal, nil
		}
		metrics.InferenceCacheLookups.WithLabelValues("corrupt").Inc()
		c.log.Warn("Discarding unreadable cached signal", map[string]interface{}{"key": key})
	case errors.Is(err, database.ErrCacheMiss):
		metrics.InferenceCacheLookups.WithLabelValues("miss").Inc()
	default:
		if ctx.Err() != nil {
			return readiness.Unavailable(ctx.Err().Error()), ctx.Err()
		}
		metrics.InferenceCacheLookups.WithLabelValues("error").Inc()
		c.log.Warn("Signal cache lookup failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	signal, err := c.next.Analyze(ctx, subjectReference)
	if err != nil || !signal.Quality.Usable() {
		return signal, err
	}

	payload, jsonErr := json.Marshal(signal)
	if jsonErr == nil {
		if setErr := c.cache.Set(ctx, key, payload, c.ttl); setErr != nil {
			c.log.Warn("Signal cache write failed", map[string]interface{}{"key": key, "error": setErr.Error()})
		}
	}
	return signal, nil
}
