package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fraghub/metrics-api/internal/models"
)

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failing bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failing {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.failing {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if f.failing {
		return redis.NewIntResult(0, errors.New("connection refused"))
	}
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestProfileCacheRoundTrip(t *testing.T) {
	r := newFakeRedis()
	c := NewProfileCache(r, 15*time.Minute, zap.NewNop())
	ctx := context.Background()

	profile := &models.AggregatedPlayerProfile{
		SteamID: "7656",
		Performance: models.PerformanceSummary{AvgRating: 1.12},
	}
	if !c.SetPlayerProfile(ctx, "aggregation:player:7656:all_time", profile) {
		t.Fatal("set failed")
	}
	if r.ttls["aggregation:player:7656:all_time"] != 15*time.Minute {
		t.Errorf("ttl = %v, want 15m", r.ttls["aggregation:player:7656:all_time"])
	}

	got, ok := c.GetPlayerProfile(ctx, "aggregation:player:7656:all_time")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.SteamID != "7656" || got.Performance.AvgRating != 1.12 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestProfileCacheMissAndErrorBehaveTheSame(t *testing.T) {
	ctx := context.Background()

	r := newFakeRedis()
	c := NewProfileCache(r, time.Minute, zap.NewNop())
	if _, ok := c.GetPlayerProfile(ctx, "missing"); ok {
		t.Error("absent key should miss")
	}

	r.failing = true
	if _, ok := c.GetPlayerProfile(ctx, "any"); ok {
		t.Error("redis error should read as a miss")
	}
	if c.SetPlayerProfile(ctx, "any", &models.AggregatedPlayerProfile{}) {
		t.Error("failed write should report false")
	}
}

func TestProfileCacheCorruptEntryIsAMiss(t *testing.T) {
	r := newFakeRedis()
	c := NewProfileCache(r, time.Minute, zap.NewNop())
	ctx := context.Background()

	r.data["bad"] = "{not json"
	if _, ok := c.GetTeamProfile(ctx, "bad"); ok {
		t.Error("corrupt entry should read as a miss")
	}
}

func TestProfileCacheInvalidate(t *testing.T) {
	r := newFakeRedis()
	c := NewProfileCache(r, time.Minute, zap.NewNop())
	ctx := context.Background()

	c.SetTeamProfile(ctx, "aggregation:team:t1:all_time", &models.AggregatedTeamProfile{TeamID: "t1"})
	c.Invalidate(ctx, "aggregation:team:t1:all_time")
	if _, ok := c.GetTeamProfile(ctx, "aggregation:team:t1:all_time"); ok {
		t.Error("invalidated key should miss")
	}
}
