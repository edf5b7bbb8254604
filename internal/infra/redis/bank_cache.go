package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"ranczo-quiz/internal/domain"
	"ranczo-quiz/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankCache keeps the question bank in Redis so several processes share one
// copy and the backing store is hit once per TTL.
// Stored as: RPUSH {prefix}bank {question json}... preserving bank order.
type BankCache struct {
	client *redis.Client
	loader memory.BankLoader
	prefix string
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankCache(client *redis.Client, loader memory.BankLoader, prefix string, ttl time.Duration) *BankCache {
	return &BankCache{
		client: client,
		loader: loader,
		prefix: prefix,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *BankCache) Questions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := c.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := c.sf.Do("bank", func() (interface{}, error) {
		// another caller may have filled the cache meanwhile
		if qs, ok := c.cached(ctx); ok {
			return qs, nil
		}

		qs, err := c.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return nil, domain.ErrBankEmpty
		}

		values := make([]interface{}, 0, len(qs))
		for _, q := range qs {
			raw, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			values = append(values, raw)
		}

		key := c.key()
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		// cache fill is best-effort; the loaded bank is still served
		_, _ = pipe.Exec(ctx)

		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached bank.
func (c *BankCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key()).Err()
}

func (c *BankCache) cached(ctx context.Context) ([]domain.Question, bool) {
	raws, err := c.client.LRange(ctx, c.key(), 0, -1).Result()
	if err != nil || len(raws) == 0 {
		return nil, false
	}
	qs := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		qs = append(qs, q)
	}
	return qs, true
}

func (c *BankCache) key() string {
	return c.prefix + "bank"
}

func (c *BankCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
