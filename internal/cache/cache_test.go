/*
Copyright 2024 The Trustpilot Plugin Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := newRedisCache(mr.Addr())
	assert.NoError(t, err)
	return c
}

func TestRedisCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	setValue := map[string]string{"hello": "world"}
	err := c.Set(ctx, "testKey", setValue, 10*time.Minute)
	assert.NoError(t, err)

	var getValue map[string]string
	err = c.Get(ctx, "testKey", &getValue)
	assert.NoError(t, err)
	assert.Equal(t, setValue, getValue)
}

func TestRedisCacheGetMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	var getValue map[string]string
	err := c.Get(ctx, "nonExistentKey", &getValue)
	assert.NoError(t, err) // a miss is not an error
	assert.Empty(t, getValue)
}

func TestRedisCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestRedisCache(t)

	err := c.Set(ctx, "testKey", "value", 10*time.Minute)
	assert.NoError(t, err)

	err = c.Delete(ctx, "testKey")
	assert.NoError(t, err)

	var getValue string
	err = c.Get(ctx, "testKey", &getValue)
	assert.NoError(t, err)
	assert.Empty(t, getValue)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	err := c.Set(ctx, "token", "abc123", 50*time.Millisecond)
	assert.NoError(t, err)

	var value string
	err = c.Get(ctx, "token", &value)
	assert.NoError(t, err)
	assert.Equal(t, "abc123", value)

	time.Sleep(60 * time.Millisecond)

	value = ""
	err = c.Get(ctx, "token", &value)
	assert.NoError(t, err)
	assert.Empty(t, value)
}

func TestMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	assert.NoError(t, c.Set(ctx, "k", 42, time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))

	var value int
	assert.NoError(t, c.Get(ctx, "k", &value))
	assert.Zero(t, value)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "trustpilot:oauth:token", Key("oauth", "token"))
	assert.Equal(t, "trustpilot:bu", Key("bu"))
}
