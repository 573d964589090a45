package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	// dedupTTL is the suppression window for identical lead submissions.
	// Form double-submits arrive within seconds; two minutes covers them
	// without hiding a genuine repeat lead later in the day.
	dedupTTL = 2 * time.Minute

	// redisKeyPrefix is the prefix for all dedup keys in Redis.
	redisKeyPrefix = "lead:dedup:"
)

// Deduplicator suppresses byte-identical lead payloads for the same account
// within a short window. Redis errors fail open: a lead is never dropped
// because the cache was unavailable.
type Deduplicator struct {
	rdb     *redis.Client
	logger  *slog.Logger
	counter prometheus.Counter
}

// NewDeduplicator creates a Deduplicator. The counter is incremented each
// time a duplicate is suppressed.
func NewDeduplicator(rdb *redis.Client, logger *slog.Logger, counter prometheus.Counter) *Deduplicator {
	return &Deduplicator{rdb: rdb, logger: logger, counter: counter}
}

// dedupKey builds the cache key for an account + payload hash.
func dedupKey(accountID string, body []byte) string {
	sum := sha256.Sum256(body)
	return redisKeyPrefix + accountID + ":" + hex.EncodeToString(sum[:])
}

// IsDuplicate atomically records the payload and reports whether it was
// already seen inside the window.
func (d *Deduplicator) IsDuplicate(ctx context.Context, accountID string, body []byte) bool {
	key := dedupKey(accountID, body)

	created, err := d.rdb.SetNX(ctx, key, "1", dedupTTL).Result()
	if err != nil {
		d.logger.Warn("redis dedup check failed, treating lead as new", "error", err)
		return false
	}
	if created {
		return false
	}

	if d.counter != nil {
		d.counter.Inc()
	}
	return true
}
