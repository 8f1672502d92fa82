package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

const redisKeyPrefix = "ndvi:sas:"

// RedisStore shares SAS tokens between service instances. Entries expire with the token.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, now: time.Now}, nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// SaveToken stores token until its expiry. Already expired tokens are not stored.
func (s *RedisStore) SaveToken(ctx context.Context, key string, token ndvi.SASToken) error {
	ttl := token.Expiry.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(key), payload, ttl).Err()
}

// GetToken returns the token stored under key.
func (s *RedisStore) GetToken(ctx context.Context, key string) (ndvi.SASToken, bool, error) {
	payload, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ndvi.SASToken{}, false, nil
	}
	if err != nil {
		return ndvi.SASToken{}, false, err
	}

	var token ndvi.SASToken
	if err := json.Unmarshal(payload, &token); err != nil {
		return ndvi.SASToken{}, false, fmt.Errorf("decode cached token: %w", err)
	}
	return token, true, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
