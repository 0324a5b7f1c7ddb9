// Package sequence hands out human readable display IDs such as PO-2026-00042.
// Counters are scoped by tenant, entity type and calendar year and never go
// backwards, so a display ID is never reused. DatabaseGenerator keeps the
// counters next to the documents; RedisGenerator keeps them in Redis.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/receiving/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var prefixes = map[string]string{
	trade.EntityTypePurchaseOrder: "PO",
	trade.EntityTypeReceive:       "RCV",
}

func format(entityType string, year int, n int64) (string, error) {
	prefix, ok := prefixes[entityType]
	if !ok {
		return "", fmt.Errorf("no display ID prefix for entity type %q", entityType)
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, n), nil
}

// RedisGenerator issues display IDs from Redis INCR counters, one key per
// tenant, entity type and year.
type RedisGenerator struct {
	client    redis.UniversalClient
	keyPrefix string
	now       func() time.Time
}

// NewRedisGenerator creates a generator over an existing client
func NewRedisGenerator(client redis.UniversalClient) *RedisGenerator {
	return &RedisGenerator{
		client:    client,
		keyPrefix: "receiving:seq:",
		now:       time.Now,
	}
}

// NextDisplayID implements trade.DisplayIDGenerator
func (g *RedisGenerator) NextDisplayID(ctx context.Context, tenantID uuid.UUID, entityType string) (string, error) {
	year := g.now().UTC().Year()
	if _, ok := prefixes[entityType]; !ok {
		return format(entityType, year, 0)
	}

	key := fmt.Sprintf("%s%s:%s:%d", g.keyPrefix, tenantID, entityType, year)
	n, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", entityType, err)
	}
	return format(entityType, year, n)
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

var (
	_ trade.DisplayIDGenerator = (*RedisGenerator)(nil)
	_ trade.DisplayIDGenerator = (*DatabaseGenerator)(nil)
)
