/*
Package cache memoises filter comparisons in Redis.

Every calculation in package filters is a pure function of its request, so a
cached result is always identical to a fresh one. The cache only saves the
work of recomputing hot requests on a busy server; a Redis failure degrades to
computing the result directly.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/kwertop/probset/filters"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "probset:compare:"

var logger = log.New(os.Stdout, "[cache] ", log.LstdFlags|log.Lmsgprefix)

// ComparisonCache is the Redis backed cache of ComparisonResult values
// _client_ is the Redis connection shared with the rest of the server
// _ttl_ bounds how long a result is kept, zero keeps it forever
// Concurrent misses on the same key share one computation.
type ComparisonCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// New creates a ComparisonCache on top of _client_
func New(client *redis.Client, ttl time.Duration) *ComparisonCache {
	return &ComparisonCache{client: client, ttl: ttl}
}

// Compare returns the cached comparison for _request_, computing and storing
// it on a miss. Validation errors from the calculator are returned as is and
// never cached.
func (c *ComparisonCache) Compare(ctx context.Context, request filters.FilterRequest) (filters.ComparisonResult, error) {
	key := Key(request)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := c.get(ctx, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.Nil) {
			logger.Printf("lookup of %s failed: %v", key, err)
		}
		result, err = filters.Compare(request)
		if err != nil {
			return nil, err
		}
		if err := c.set(ctx, key, result); err != nil {
			logger.Printf("store of %s failed: %v", key, err)
		}
		return result, nil
	})
	if err != nil {
		return filters.ComparisonResult{}, err
	}
	result := v.(filters.ComparisonResult)
	result.Request = request
	return result, nil
}

// Invalidate drops the cached comparison for _request_
func (c *ComparisonCache) Invalidate(ctx context.Context, request filters.FilterRequest) error {
	if err := c.client.Del(ctx, Key(request)).Err(); err != nil {
		return fmt.Errorf("probset: error while invalidating cached comparison: %v", err)
	}
	return nil
}

func (c *ComparisonCache) get(ctx context.Context, key string) (filters.ComparisonResult, error) {
	var result filters.ComparisonResult
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("probset: corrupt cached comparison: %v", err)
	}
	return result, nil
}

func (c *ComparisonCache) set(ctx context.Context, key string, result filters.ComparisonResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Key is the Redis key of the comparison for _request_: the prefix followed
// by the xxhash64 of the request's canonical form. Requests that only differ
// in spelling of a default (bucket size 0 versus 4) map to the same key.
func Key(request filters.FilterRequest) string {
	if request.EntriesPerBucket == 0 {
		request.EntriesPerBucket = filters.DefaultEntriesPerBucket
	}
	d := xxhash.New()
	d.WriteString(strconv.FormatInt(request.Elements, 10))
	d.WriteString("|")
	d.WriteString(strconv.FormatFloat(request.FalsePositiveRate, 'g', -1, 64))
	d.WriteString("|")
	d.WriteString(strconv.FormatInt(request.MemoryBudgetBits, 10))
	d.WriteString("|")
	d.WriteString(strconv.Itoa(request.EntriesPerBucket))
	d.WriteString("|")
	d.WriteString(strconv.FormatFloat(request.LoadFactor, 'g', -1, 64))
	d.WriteString("|")
	d.WriteString(strconv.FormatBool(request.ExactBuckets))
	return keyPrefix + strconv.FormatUint(d.Sum64(), 16)
}
