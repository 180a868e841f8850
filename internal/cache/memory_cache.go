package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryItem struct {
	value   []byte
	expires time.Time
}

// MemoryCache: кеш в памяти процесса с TTL и ограничением числа ключей.
// При переполнении вытесняется запись, истекающая раньше всех.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time

	requests atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// NewMemoryCache создаёт кеш в памяти
func NewMemoryCache(defaultTTL time.Duration, maxEntries int) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryCache{
		items:      make(map[string]memoryItem),
		defaultTTL: defaultTTL,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	m.requests.Add(1)

	m.mu.Lock()
	item, ok := m.items[key]
	if ok && !m.now().Before(item.expires) {
		delete(m.items, key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		m.misses.Add(1)
		return nil, ErrCacheMiss
	}
	m.hits.Add(1)
	return item.value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evictLocked()
	}
	m.items[key] = memoryItem{value: value, expires: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Close() error {
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Stats() Stats {
	m.mu.Lock()
	keys := int64(len(m.items))
	m.mu.Unlock()

	hits, misses := m.hits.Load(), m.misses.Load()
	return Stats{
		Requests: m.requests.Load(),
		Hits:     hits,
		Misses:   misses,
		Keys:     keys,
		HitRatio: hitRatio(hits, misses),
	}
}

// evictLocked удаляет истёкшие записи, а если таких нет, то самую старую
func (m *MemoryCache) evictLocked() {
	now := m.now()
	var oldestKey string
	var oldest time.Time
	for key, item := range m.items {
		if !now.Before(item.expires) {
			delete(m.items, key)
			continue
		}
		if oldestKey == "" || item.expires.Before(oldest) {
			oldestKey, oldest = key, item.expires
		}
	}
	if len(m.items) >= m.maxEntries && oldestKey != "" {
		delete(m.items, oldestKey)
	}
}
