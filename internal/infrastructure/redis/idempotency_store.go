package redisstore

import (
	"context"
	"fmt"
	"time"

	"tickerboard/internal/application"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces manual refresh reservations.
const KeyPrefix = "tickerboard:refresh:"

var _ application.IdempotencyStore = (*Store)(nil)

// Store reserves idempotency keys with SET NX so a repeated manual refresh
// request within TTL is rejected across API replicas.
type Store struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl}
}

func (s *Store) TryReserve(ctx context.Context, key string) (bool, error) {
	ok, err := s.Client.SetNX(ctx, KeyPrefix+key, "1", s.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Ping checks connectivity; used by readiness.
func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
