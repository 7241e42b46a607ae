package metrics

import (
	"sort"
	"sync"

	"github.com/alekseon/eav/pkg/cache"
	"github.com/alekseon/eav/pkg/cache/memorycache"
)

// Collector aggregates request metrics and exposes the state of registered caches.
type Collector struct {
	mu      sync.Mutex
	methods map[string]*methodStats
	caches  map[string]cache.Cache
}

type methodStats struct {
	requests     uint64
	errors       uint64
	totalSeconds float64
}

// CacheMetrics holds a snapshot of one cache.
type CacheMetrics struct {
	Name        string
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int
	Evictions   uint64
}

// APIMetrics holds API request metrics.
type APIMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		methods: make(map[string]*methodStats),
		caches:  make(map[string]cache.Cache),
	}
}

// RegisterCache adds a cache whose statistics are reported under name.
func (c *Collector) RegisterCache(name string, ch cache.Cache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.caches[name] = ch
}

// RecordCall records one API call, its duration and whether it failed.
func (c *Collector) RecordCall(method string, durationSeconds float64, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.methods[method]
	if !ok {
		s = &methodStats{}
		c.methods[method] = s
	}
	s.requests++
	s.totalSeconds += durationSeconds
	if failed {
		s.errors++
	}
}

// GetAPIMetrics returns current API metrics.
func (c *Collector) GetAPIMetrics() *APIMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := &APIMetrics{
		RequestCounts:        make(map[string]uint64, len(c.methods)),
		ErrorCounts:          make(map[string]uint64, len(c.methods)),
		TotalDurationSeconds: make(map[string]float64, len(c.methods)),
	}
	for method, s := range c.methods {
		result.RequestCounts[method] = s.requests
		result.ErrorCounts[method] = s.errors
		result.TotalDurationSeconds[method] = s.totalSeconds
	}
	return result
}

// GetCacheMetrics returns a snapshot of every registered cache ordered by name.
func (c *Collector) GetCacheMetrics() []*CacheMetrics {
	c.mu.Lock()
	names := make([]string, 0, len(c.caches))
	for name := range c.caches {
		names = append(names, name)
	}
	caches := make(map[string]cache.Cache, len(c.caches))
	for k, v := range c.caches {
		caches[k] = v
	}
	c.mu.Unlock()

	sort.Strings(names)
	result := make([]*CacheMetrics, 0, len(names))
	for _, name := range names {
		m := caches[name].Metrics()
		cm := &CacheMetrics{
			Name:      name,
			Hits:      m.Hits,
			Misses:    m.Misses,
			HitRate:   m.HitRate(),
			Evictions: m.KeysEvicted,
		}
		if mc, ok := caches[name].(*memorycache.Cache); ok {
			cm.KeysCurrent = mc.Len()
		}
		result = append(result, cm)
	}
	return result
}
