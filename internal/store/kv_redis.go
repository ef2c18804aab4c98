// Package store implements C12 (the quota/mapping/cache KV interface) and
// C15 (the relational document/chunk/usage store). The Redis half is
// adapted from the teacher's internal/config/redis.go connection setup;
// fail-open quota semantics are grounded on original_source's
// auth/usage.py (check_quota returns true on any backend error,
// increment_usage swallows its own errors).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"legaldoc-pipeline/models"

	"github.com/redis/go-redis/v9"
)

// KV is the Redis-backed implementation of the C6/C8/C12 narrow store
// interfaces (MappingStore, ResultCache) plus the quota operations C13's
// orchestrator calls directly.
type KV struct {
	rdb *redis.Client
}

func NewKV(rdb *redis.Client) *KV {
	return &KV{rdb: rdb}
}

func piiKey(requestID string) string { return "pii:" + requestID }
func cacheKey(key string) string     { return "cache:" + key }
func usageKey(userID, month string) string {
	return fmt.Sprintf("usage:%s:%s", userID, month)
}

// StoreMapping persists a placeholder->original map under pii:<request_id>,
// TTL pii_mapping_ttl, per spec.md §4.12.
func (k *KV) StoreMapping(ctx context.Context, requestID string, mapping map[string]string, ttlSeconds int) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	return k.rdb.Set(ctx, piiKey(requestID), data, time.Duration(ttlSeconds)*time.Second).Err()
}

func (k *KV) FetchMapping(ctx context.Context, requestID string) (map[string]string, bool, error) {
	data, err := k.rdb.Get(ctx, piiKey(requestID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, false, err
	}
	return mapping, true, nil
}

func (k *KV) DeleteMapping(ctx context.Context, requestID string) error {
	return k.rdb.Del(ctx, piiKey(requestID)).Err()
}

// GetCachedQuery / SetCachedQuery implement vectorstore.ResultCache.
func (k *KV) GetCachedQuery(ctx context.Context, key string) ([]models.RetrievalResult, bool, error) {
	data, err := k.rdb.Get(ctx, cacheKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var results []models.RetrievalResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, err
	}
	return results, true, nil
}

func (k *KV) SetCachedQuery(ctx context.Context, key string, results []models.RetrievalResult, ttlSeconds int) error {
	data, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return k.rdb.Set(ctx, cacheKey(key), data, time.Duration(ttlSeconds)*time.Second).Err()
}

// CheckQuota reports whether bucket[kind] + amount stays within quotaLimit.
// Any backend error fails OPEN (returns true), per spec.md §4.12 / the
// original's check_quota behavior.
func (k *KV) CheckQuota(ctx context.Context, userID string, kind models.QuotaKind, amount int64, quotaLimit int64) bool {
	month := currentMonth()
	field := usageField(kind)

	current, err := k.rdb.HGet(ctx, usageKey(userID, month), field).Int64()
	if err != nil && err != redis.Nil {
		return true
	}
	return current+amount <= quotaLimit
}

// IncrementUsage is additive and non-blocking: errors are swallowed rather
// than surfaced, per spec.md §4.12.
func (k *KV) IncrementUsage(ctx context.Context, userID string, tokens, queries, documents int64) {
	month := currentMonth()
	key := usageKey(userID, month)
	pipe := k.rdb.Pipeline()
	if tokens != 0 {
		pipe.HIncrBy(ctx, key, "tokens_used", tokens)
	}
	if queries != 0 {
		pipe.HIncrBy(ctx, key, "queries_count", queries)
	}
	if documents != 0 {
		pipe.HIncrBy(ctx, key, "documents_indexed", documents)
	}
	_, _ = pipe.Exec(ctx) // non-critical, don't block the request
}

func usageField(kind models.QuotaKind) string {
	switch kind {
	case models.QuotaTokens:
		return "tokens_used"
	case models.QuotaQueries:
		return "queries_count"
	default:
		return "documents_indexed"
	}
}

func currentMonth() string {
	return time.Now().UTC().Format("2006-01")
}
