package apptcache

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Generations tracks a per-tenant counter. Bumping it orphans every cached
// result stored under an older value.
type Generations interface {
	Current(ctx context.Context, tenantID int64) (int64, error)
	Bump(ctx context.Context, tenantID int64) (int64, error)
}

// MemoryGenerations is process-local; pair it with the kafka consumer when
// more than one instance serves traffic.
type MemoryGenerations struct {
	mu   sync.Mutex
	gens map[int64]int64
}

func NewMemoryGenerations() *MemoryGenerations {
	return &MemoryGenerations{gens: map[int64]int64{}}
}

func (g *MemoryGenerations) Current(_ context.Context, tenantID int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[tenantID], nil
}

func (g *MemoryGenerations) Bump(_ context.Context, tenantID int64) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gens[tenantID]++
	return g.gens[tenantID], nil
}

// RedisGenerations shares counters across instances. Keys carry no TTL.
type RedisGenerations struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisGenerations(rdb redis.UniversalClient, prefix string) *RedisGenerations {
	if prefix == "" {
		prefix = "salondesk"
	}
	return &RedisGenerations{rdb: rdb, prefix: prefix}
}

func (g *RedisGenerations) key(tenantID int64) string {
	return g.prefix + ":appointments_gen_" + strconv.FormatInt(tenantID, 10)
}

func (g *RedisGenerations) Current(ctx context.Context, tenantID int64) (int64, error) {
	n, err := g.rdb.Get(ctx, g.key(tenantID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (g *RedisGenerations) Bump(ctx context.Context, tenantID int64) (int64, error) {
	return g.rdb.Incr(ctx, g.key(tenantID)).Result()
}
