package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisCache хранит блобы в Redis, чтобы их могли разделять несколько
// экземпляров API и внешние потребители мешей.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
	maxTTL     time.Duration

	requests atomic.Uint64
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// NewRedisCache подключается к Redis и проверяет соединение.
//
// Параметры:
//
//	config - адрес, пароль, номер базы и ограничения TTL
//
// Возвращает:
//
//	*RedisCache - готовый к использованию кеш
//	error - ошибка подключения или конфигурации
func NewRedisCache(config Config) (*RedisCache, error) {
	if config.RedisAddr == "" {
		return nil, errors.New("не задан адрес Redis")
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = time.Minute
	}
	if config.MaxTTL <= 0 {
		config.MaxTTL = time.Hour
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisAddr,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("подключение к Redis %s: %w", config.RedisAddr, err)
	}

	logging.Info("🗄️  Кеш мешей в Redis: %s (db %d, TTL %v)", config.RedisAddr, config.RedisDB, config.DefaultTTL)
	return &RedisCache{
		client:     rdb,
		defaultTTL: config.DefaultTTL,
		maxTTL:     config.MaxTTL,
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	r.requests.Add(1)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		r.hits.Add(1)
		return val, nil
	}

	r.misses.Add(1)
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	logging.Error("Redis Get error for key %s: %v", key, err)
	return nil, fmt.Errorf("redis get: %w", err)
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if ttl > r.maxTTL {
		ttl = r.maxTTL
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	if err := r.client.Close(); err != nil {
		logging.Error("Error closing Redis connection: %v", err)
		return err
	}
	logging.Info("Redis cache closed")
	return nil
}

// Stats не считает ключи: в общей базе Redis их число ничего не говорит
func (r *RedisCache) Stats() Stats {
	hits, misses := r.hits.Load(), r.misses.Load()
	return Stats{
		Requests: r.requests.Load(),
		Hits:     hits,
		Misses:   misses,
		Keys:     -1,
		HitRatio: hitRatio(hits, misses),
	}
}
