package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "tts:audio:"

// CachedSynthesizer remembers audio URLs in redis so repeated narrations of the
// same text do not hit the provider again. Redis failures fall through to the
// provider.
type CachedSynthesizer struct {
	inner  Synthesizer
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedSynthesizer(inner Synthesizer, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSynthesizer {
	return &CachedSynthesizer{
		inner:  inner,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedSynthesizer) Synthesize(ctx context.Context, req Request) (*Result, error) {
	key := CacheKey(req)

	url, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && url != "":
		return &Result{AudioURL: url}, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warn("audio cache read failed", zap.String("key", key), zap.Error(err))
	}

	result, err := c.inner.Synthesize(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.rdb.Set(ctx, key, result.AudioURL, c.ttl).Err(); err != nil {
		c.logger.Warn("audio cache write failed", zap.String("key", key), zap.Error(err))
	}
	return result, nil
}

func (c *CachedSynthesizer) GetProviderName() string {
	return c.inner.GetProviderName()
}

// CacheKey derives the redis key for a request.
func CacheKey(req Request) string {
	sum := sha256.Sum256([]byte(req.VoiceID + "\x00" + req.Style + "\x00" + req.Text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
