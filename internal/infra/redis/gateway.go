package redis

import (
	"context"
	"errors"

	"ranczo-quiz/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Gateway stores progress keys as plain Redis strings under an optional
// prefix, e.g. "ranczo:" + "ranczo_history".
type Gateway struct {
	client *redis.Client
	prefix string
}

func NewGateway(client *redis.Client, prefix string) *Gateway {
	return &Gateway{client: client, prefix: prefix}
}

func (g *Gateway) Get(ctx context.Context, key string) (string, error) {
	v, err := g.client.Get(ctx, g.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrKeyNotFound
	}
	return v, err
}

func (g *Gateway) Set(ctx context.Context, key, value string) error {
	return g.client.Set(ctx, g.prefix+key, value, 0).Err()
}

func (g *Gateway) Remove(ctx context.Context, key string) error {
	return g.client.Del(ctx, g.prefix+key).Err()
}
