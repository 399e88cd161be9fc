package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/observe"
	"github.com/flowsmith/flowsmith/internal/workflow"
)

// Cache stores compiled workflows in Redis, keyed by the request text and
// the catalog fingerprint. Sound because compilation is deterministic for
// a fixed model behavior and catalog snapshot; a catalog reload changes
// the fingerprint and so the key. Best-effort: cache errors degrade to
// misses and never fail a run.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache connects a cache to the Redis instance at addr.
func NewCache(addr string, ttl time.Duration) *Cache {
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error { return c.rdb.Close() }

type cacheEntry struct {
	Workflow *workflow.Definition `json:"workflow"`
	Report   *workflow.Report     `json:"report"`
}

// Get returns the cached definition for this request/catalog pair.
func (c *Cache) Get(ctx context.Context, rawText string, snap *catalog.Snapshot) (*workflow.Definition, *workflow.Report, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(rawText, snap)).Bytes()
	if err == redis.Nil {
		observe.CacheHits.WithLabelValues("miss").Inc()
		return nil, nil, false
	}
	if err != nil {
		observe.CacheHits.WithLabelValues("error").Inc()
		log.Printf("cache: get: %v", err)
		return nil, nil, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Workflow == nil {
		observe.CacheHits.WithLabelValues("error").Inc()
		return nil, nil, false
	}
	observe.CacheHits.WithLabelValues("hit").Inc()
	return entry.Workflow, entry.Report, true
}

// Put stores a compiled definition. Failures are logged and dropped.
func (c *Cache) Put(ctx context.Context, rawText string, snap *catalog.Snapshot, def *workflow.Definition, report *workflow.Report) {
	raw, err := json.Marshal(cacheEntry{Workflow: def, Report: report})
	if err != nil {
		log.Printf("cache: marshal: %v", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(rawText, snap), raw, c.ttl).Err(); err != nil {
		log.Printf("cache: put: %v", err)
	}
}

func cacheKey(rawText string, snap *catalog.Snapshot) string {
	h := sha256.New()
	h.Write([]byte(rawText))
	h.Write([]byte{0})
	h.Write([]byte(snap.Fingerprint()))
	return "flowsmith:wf:" + hex.EncodeToString(h.Sum(nil))
}
