package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// BlobCache хранит готовые к отдаче бинарные блобы (сжатые меши чанков).
//
// Использование:
//
//	key := cache.MeshKey(instanceID, x, y, z, version)
//	blob, err := c.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		blob = encode(mesh)
//		_ = c.Set(ctx, key, blob, ttl)
//	}
type BlobCache interface {
	// Get возвращает ErrCacheMiss, если ключа нет или он истёк.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с TTL; TTL = 0 означает TTL по умолчанию.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error

	// Stats возвращает счётчики обращений.
	Stats() Stats
}

// Stats содержит счётчики кеша
type Stats struct {
	Requests uint64  `json:"requests"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	Keys     int64   `json:"keys"` // -1, если хранилище не сообщает размер
	HitRatio float64 `json:"hit_ratio"`
}

// Config содержит настройки кеша мешей
type Config struct {
	RedisAddr     string        // пусто: кеш в памяти процесса
	RedisPassword string
	RedisDB       int
	DefaultTTL    time.Duration
	MaxTTL        time.Duration
	MaxEntries    int // только для кеша в памяти
}

var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrInvalidKey = errors.New("invalid key")
)

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// MeshKey формирует ключ меша чанка. Номер установки меняется при каждой
// пересборке, поэтому устаревшие ключи просто истекают по TTL. Номера считает
// каждый процесс сам и после рестарта начинает с единицы, так что ключ включает
// идентификатор экземпляра: иначе общий Redis отдал бы чужую геометрию.
func MeshKey(instance string, x, y, z int, version uint64) string {
	return fmt.Sprintf("voxelworld:mesh:%s:%d:%d:%d:%d", instance, x, y, z, version)
}

func hitRatio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}
