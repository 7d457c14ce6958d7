package auth

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type redisReplayCache struct {
	client *redis.Client
}

// NewRedisReplayCache shares seen signatures between instances via redis.
func NewRedisReplayCache(client *redis.Client) ReplayCache {
	return &redisReplayCache{
		client: client,
	}
}

func (c *redisReplayCache) SeenOrStore(signature string, ttl time.Duration) (bool, error) {
	stored, err := c.client.SetNX(context.Background(), "relay:sig:"+signature, 1, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check replay cache")
	}

	return !stored, nil
}
