package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/cache"
)

// memCache is a simple in-memory cache for testing.
type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestTiered_L2HitBackfillsL1(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := cache.NewTiered(l1, l2, time.Minute)
	ctx := context.Background()

	l2.data["k"] = []byte("v")
	val, found, err := c.Get(ctx, "k")
	if err != nil || !found || string(val) != "v" {
		t.Fatalf("expected L2 hit, got %q found=%v err=%v", val, found, err)
	}
	if string(l1.data["k"]) != "v" {
		t.Fatal("expected L1 backfill")
	}
	if l1.ttls["k"] != time.Minute {
		t.Fatalf("expected backfill ttl 1m, got %s", l1.ttls["k"])
	}
}

func TestTiered_SetCapsL1TTL(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := cache.NewTiered(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 12*time.Hour); err != nil {
		t.Fatal(err)
	}
	if l1.ttls["k"] != time.Minute {
		t.Fatalf("expected L1 ttl capped at 1m, got %s", l1.ttls["k"])
	}
	if l2.ttls["k"] != 12*time.Hour {
		t.Fatalf("expected L2 ttl 12h, got %s", l2.ttls["k"])
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["k"]; ok {
		t.Fatal("expected L1 delete")
	}
	if _, ok := l2.data["k"]; ok {
		t.Fatal("expected L2 delete")
	}
}

func TestTiered_Miss(t *testing.T) {
	c := cache.NewTiered(newMemCache(), newMemCache(), time.Minute)
	_, found, err := c.Get(context.Background(), "absent")
	if err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}
}
