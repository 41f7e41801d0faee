// Package caching wraps a process-local TTL cache used for dashboard
// aggregates and login throttling counters.
package caching

import (
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	memoryCache *cache.Cache
}

func NewCache() *Cache {
	return &Cache{
		memoryCache: cache.New(10*time.Minute, 10*time.Minute),
	}
}

func (s *Cache) Memory() *cache.Cache {
	return s.memoryCache
}

func (s *Cache) Get(key string) (any, bool) {
	return s.memoryCache.Get(key)
}

func (s *Cache) Set(key string, value any, ttl time.Duration) {
	s.memoryCache.Set(key, value, ttl)
}

func (s *Cache) Delete(key string) {
	s.memoryCache.Delete(key)
}

func (s *Cache) Flush() {
	s.memoryCache.Flush()
}
