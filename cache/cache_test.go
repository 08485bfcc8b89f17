package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kwertop/probset"
	"github.com/kwertop/probset/filters"
	"github.com/redis/go-redis/v9"
)

func initMockRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("could not start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	connOptions, err := probset.ParseRedisURI("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("could not parse redis uri: %v", err)
	}
	client := probset.NewRedisClient(*connOptions)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCompareStoresResult(t *testing.T) {
	mr, client := initMockRedis(t)
	c := New(client, time.Minute)
	request := filters.FilterRequest{Elements: 1_000_000, FalsePositiveRate: 0.01}
	got, err := c.Compare(context.Background(), request)
	if err != nil {
		t.Fatalf("should not error, got %v", err)
	}
	if !mr.Exists(Key(request)) {
		t.Errorf("comparison should be stored under %s", Key(request))
	}
	if ttl := mr.TTL(Key(request)); ttl != time.Minute {
		t.Errorf("ttl should be 1m, instead found %v", ttl)
	}
	want, _ := filters.Compare(request)
	if got.Bloom != want.Bloom || got.Cuckoo != want.Cuckoo {
		t.Errorf("cached comparison should match a fresh one, got %+v want %+v", got, want)
	}
}

func TestCompareReadsCachedResult(t *testing.T) {
	_, client := initMockRedis(t)
	c := New(client, 0)
	request := filters.FilterRequest{Elements: 4096, FalsePositiveRate: 0.001, EntriesPerBucket: 8}
	first, err := c.Compare(context.Background(), request)
	if err != nil {
		t.Fatalf("should not error, got %v", err)
	}
	second, err := c.Compare(context.Background(), request)
	if err != nil {
		t.Fatalf("should not error, got %v", err)
	}
	if first.Bloom != second.Bloom || first.Cuckoo != second.Cuckoo || first.Request != second.Request {
		t.Errorf("second lookup should be identical, got %+v and %+v", first, second)
	}
	if *first.LowerBound != *second.LowerBound {
		t.Errorf("lower bound should survive the cache, got %+v and %+v", first.LowerBound, second.LowerBound)
	}
	if first.Recommendation != second.Recommendation {
		t.Errorf("recommendation should survive the cache, got %+v and %+v", first.Recommendation, second.Recommendation)
	}
}

func TestCompareDoesNotCacheErrors(t *testing.T) {
	mr, client := initMockRedis(t)
	c := New(client, time.Minute)
	request := filters.FilterRequest{Elements: -5, FalsePositiveRate: 0.01}
	_, err := c.Compare(context.Background(), request)
	if !errors.Is(err, probset.ErrInvalidInput) {
		t.Errorf("negative elements should be invalid, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Errorf("nothing should be stored, found %v", mr.Keys())
	}
}

func TestCompareWithoutRedis(t *testing.T) {
	client := probset.NewRedisClient(probset.RedisConnOptions{Address: "127.0.0.1:1", ConnectionTimeout: 100 * time.Millisecond})
	defer client.Close()
	c := New(client, time.Minute)
	request := filters.FilterRequest{Elements: 1000, FalsePositiveRate: 0.01}
	got, err := c.Compare(context.Background(), request)
	if err != nil {
		t.Fatalf("redis outage should not fail the comparison, got %v", err)
	}
	want, _ := filters.Compare(request)
	if got.Bloom != want.Bloom {
		t.Errorf("comparison should be computed directly, got %+v want %+v", got.Bloom, want.Bloom)
	}
}

func TestInvalidate(t *testing.T) {
	mr, client := initMockRedis(t)
	c := New(client, 0)
	request := filters.FilterRequest{Elements: 1000, MemoryBudgetBits: 20_000}
	c.Compare(context.Background(), request)
	if err := c.Invalidate(context.Background(), request); err != nil {
		t.Fatalf("should not error, got %v", err)
	}
	if mr.Exists(Key(request)) {
		t.Error("comparison should be gone after invalidation")
	}
}

func TestKey(t *testing.T) {
	a := Key(filters.FilterRequest{Elements: 100, FalsePositiveRate: 0.01})
	b := Key(filters.FilterRequest{Elements: 100, FalsePositiveRate: 0.01, EntriesPerBucket: 4})
	c := Key(filters.FilterRequest{Elements: 100, FalsePositiveRate: 0.01, EntriesPerBucket: 2})
	d := Key(filters.FilterRequest{Elements: 101, FalsePositiveRate: 0.01})
	if a != b {
		t.Errorf("default bucket size should share a key, got %s and %s", a, b)
	}
	if a == c || a == d {
		t.Errorf("different requests should not share a key, got %s %s %s", a, c, d)
	}
}

func TestCompareConcurrent(t *testing.T) {
	mr, client := initMockRedis(t)
	c := New(client, time.Minute)
	request := filters.FilterRequest{Elements: 50_000, FalsePositiveRate: 0.001}
	want, _ := filters.Compare(request)
	var wg sync.WaitGroup
	results := make([]filters.ComparisonResult, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Compare(context.Background(), request)
		}(i)
	}
	wg.Wait()
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("should not error, got %v", errs[i])
		}
		if results[i].Bloom != want.Bloom || results[i].Cuckoo != want.Cuckoo {
			t.Errorf("concurrent lookup %d differs, got %+v", i, results[i])
		}
	}
	if len(mr.Keys()) != 1 {
		t.Errorf("one key should be stored, found %v", mr.Keys())
	}
}
