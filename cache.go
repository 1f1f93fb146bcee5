package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/gmllt/kanvan/board"
)

// CachedRepository serves reads from Redis and evicts the cached copy on
// every save. Redis failures fall back to the backing repository.
// Filling the cache and save+evict share fillMu, so a slow read can never
// put a list older than the last save back into Redis.
type CachedRepository struct {
	base  Repository
	redis *redis.Client
	ttl   time.Duration
	key   string

	fillMu sync.Mutex
}

func NewCachedRepository(base Repository, client *redis.Client, ttl time.Duration, key string) *CachedRepository {
	if base == nil {
		panic("NewCachedRepository: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &CachedRepository{base: base, redis: client, ttl: ttl, key: "kanvan:" + key}
}

func (c *CachedRepository) Load(ctx context.Context) ([]board.Card, error) {
	if cards, ok := c.loadFromCache(ctx); ok {
		return cards, nil
	}
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	cards, err := c.base.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cards)
	return cards, nil
}

// LoadFresh bypasses the cache. Load-modify-save cycles use it so they never
// build on a cached copy.
func (c *CachedRepository) LoadFresh(ctx context.Context) ([]board.Card, error) {
	return c.base.Load(ctx)
}

func (c *CachedRepository) Save(ctx context.Context, cards []board.Card) error {
	c.fillMu.Lock()
	defer c.fillMu.Unlock()
	if err := c.base.Save(ctx, cards); err != nil {
		return err
	}
	c.evict(ctx)
	return nil
}

func (c *CachedRepository) loadFromCache(ctx context.Context) ([]board.Card, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("redis get failed, reading from storage")
			_ = c.redis.Del(ctx, c.key).Err()
		}
		return nil, false
	}
	var cards []board.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		_ = c.redis.Del(ctx, c.key).Err()
		return nil, false
	}
	return cards, true
}

func (c *CachedRepository) store(ctx context.Context, cards []board.Card) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("redis set failed")
	}
}

func (c *CachedRepository) evict(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key).Err(); err != nil {
		log.WithError(err).Warn("redis evict failed")
	}
}
