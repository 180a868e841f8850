package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.World.RenderDistance)
	assert.Equal(t, float32(0.1), cfg.Raycast.Step)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.TickRate)
	assert.Equal(t, 5*time.Millisecond, cfg.Engine.PublishTimeout)
	assert.False(t, cfg.World.NeighborCulling, "по умолчанию грани на границе чанка видимы")
	assert.False(t, cfg.Auth.Enabled(), "без секрета правки открыты")
	assert.Empty(t, cfg.Cache.RedisAddr, "по умолчанию кеш мешей в памяти")
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "WORLD", cfg.Events.Stream)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  seed: 42
  generator: flat
  render_distance: 3
  evict_distance: 1
  neighbor_culling: true
raycast:
  step: 0.05
engine:
  tick_rate: 20ms
cache:
  redis_addr: localhost:6379
  ttl: 30s
events:
  buffer: 0
  nats_url: nats://127.0.0.1:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, "flat", cfg.World.Generator)
	assert.True(t, cfg.World.NeighborCulling)
	assert.Equal(t, 3, cfg.World.EvictDistance, "дистанция выгрузки не может быть меньше дистанции прорисовки")
	assert.Equal(t, float32(0.05), cfg.Raycast.Step)
	assert.Equal(t, float32(100), cfg.Raycast.MaxDistance, "незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.TickRate)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 1, cfg.Events.Buffer, "буфер шины не может быть пустым")
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.NATSURL)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "world:\n  seed: 7\n")
	t.Setenv("GAME_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "raycast:\n  step: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "auth:\n  password_hash: abc\n"))
	assert.Error(t, err, "хеш пароля без секрета бессмыслен")

	_, err = Load(writeConfig(t, "cache:\n  ttl: -1s\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPortFallbacks(t *testing.T) {
	var s ServerConfig
	t.Setenv("GAME_REST_PORT", "9090")
	t.Setenv("GAME_METRICS_PORT", "oops")

	assert.Equal(t, 9090, s.GetRESTPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort())
}
