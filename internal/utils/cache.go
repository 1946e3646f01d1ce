package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Version formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// ledgerVersionKey holds a per-user counter baked into every cached read key
// for that user. Bumping the counter orphans all of the user's cached lists
// and analytics at once; the stale entries just expire.
func ledgerVersionKey(userID uint) string {
	return "ledger:version:user:" + strconv.Itoa(int(userID))
}

// LedgerVersion returns the current cache version for a user's ledger.
// A missing counter reads as version 0.
func LedgerVersion(ctx context.Context, rdb *redis.Client, userID uint) int64 {
	v, err := rdb.Get(ctx, ledgerVersionKey(userID)).Int64()
	if err != nil {
		return 0
	}
	return v
}

// BumpLedgerVersion invalidates every cached read for a user's ledger
func BumpLedgerVersion(ctx context.Context, rdb *redis.Client, userID uint) error {
	return rdb.Incr(ctx, ledgerVersionKey(userID)).Err()
}
