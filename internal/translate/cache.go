package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedTranslator stores translations in Redis keyed by language pair and text.
type CachedTranslator struct {
	next   Translator
	client *redis.Client
	ttl    time.Duration
}

// NewCachedTranslator wraps next with a Redis cache. A nil client disables
// caching and makes the wrapper a pass-through.
func NewCachedTranslator(next Translator, client *redis.Client, ttl time.Duration) *CachedTranslator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedTranslator{next: next, client: client, ttl: ttl}
}

// Translate returns a cached translation when present, otherwise delegates
// and stores the result. Cache failures never fail the translation.
func (c *CachedTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if c.client == nil {
		return c.next.Translate(ctx, text, source, target)
	}

	key := cacheKey(text, source, target)
	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Warn("translation cache read failed", "error", err)
	}

	translated, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, translated, c.ttl).Err(); err != nil {
		slog.Warn("translation cache write failed", "error", err)
	}
	return translated, nil
}

func cacheKey(text, source, target string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + target + "\x00" + text))
	return "translate:" + hex.EncodeToString(sum[:])
}
