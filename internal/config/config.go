package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	World     WorldConfig     `yaml:"world"`
	Raycast   RaycastConfig   `yaml:"raycast"`
	Engine    EngineConfig    `yaml:"engine"`
	Blocks    BlocksConfig    `yaml:"blocks"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Auth      AuthConfig      `yaml:"auth"`
	Events    EventsConfig    `yaml:"events"`
	Cache     CacheConfig     `yaml:"cache"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// WorldConfig: генерация и стриминг чанков
type WorldConfig struct {
	Seed            int64  `yaml:"seed"`
	Generator       string `yaml:"generator"`        // procedural | flat
	Fill            string `yaml:"fill"`             // имя блока процедурных чанков; пусто: по биому
	RenderDistance  int    `yaml:"render_distance"`  // радиус стриминга в чанках
	EvictDistance   int    `yaml:"evict_distance"`   // 0: не выгружать
	NeighborCulling bool   `yaml:"neighbor_culling"` // отсекать грани на стыке чанков
}

type RaycastConfig struct {
	Step        float32 `yaml:"step"`
	MaxDistance float32 `yaml:"max_distance"`
}

// EngineConfig: игровой цикл
type EngineConfig struct {
	TickRate    time.Duration `yaml:"tick_rate"`    // период тика, например "50ms"
	StreamEvery int           `yaml:"stream_every"` // стриминг раз в N тиков
	QueueSize   int           `yaml:"queue_size"`   // ёмкость очереди команд

	PublishTimeout time.Duration `yaml:"publish_timeout"` // сколько цикл ждёт места в шине событий
}

type BlocksConfig struct {
	Dir string `yaml:"dir"` // каталог описаний блоков; пусто: встроенный набор
}

type LoggingConfig struct {
	Dir        string            `yaml:"dir"`
	Level      string            `yaml:"level"`
	Components map[string]string `yaml:"components"` // уровень консоли по компонентам: engine, api, events
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// EventsConfig: шина событий мира. Непустой NATSURL включает пересылку в JetStream.
type EventsConfig struct {
	Buffer    int           `yaml:"buffer"`
	NATSURL   string        `yaml:"nats_url"`
	Stream    string        `yaml:"stream"`
	Retention time.Duration `yaml:"retention"`
}

// CacheConfig: кеш сжатых мешей для GET /api/chunks/:x/:y/:z/mesh.
// Пустой RedisAddr оставляет кеш в памяти процесса.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	MaxEntries    int           `yaml:"max_entries"`
}

// AuthConfig: токены правки мира. Пустой Secret отключает проверку.
type AuthConfig struct {
	Secret       string        `yaml:"secret"`        // base64, не короче 32 байт
	PasswordHash string        `yaml:"password_hash"` // bcrypt-хеш пароля оператора для POST /api/token
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Enabled сообщает, защищены ли изменяющие маршруты токеном
func (a AuthConfig) Enabled() bool {
	return a.Secret != ""
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:           1,
			Generator:      "procedural",
			RenderDistance: 2,
		},
		Raycast: RaycastConfig{
			Step:        0.1,
			MaxDistance: 100,
		},
		Engine: EngineConfig{
			TickRate:    50 * time.Millisecond,
			StreamEvery: 5,
			QueueSize:   64,

			PublishTimeout: 5 * time.Millisecond,
		},
		Blocks: BlocksConfig{
			Dir: "assets/blocks",
		},
		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "INFO",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxelworld",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Events: EventsConfig{
			Buffer:    1024,
			Stream:    "WORLD",
			Retention: 24 * time.Hour,
		},
		Cache: CacheConfig{
			TTL:        time.Minute,
			MaxEntries: 1024,
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "GAME_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "GAME_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Validate проверяет значения и приводит зависимые параметры в согласие
func (c *Config) Validate() error {
	var errs []error

	if c.World.RenderDistance < 0 {
		errs = append(errs, fmt.Errorf("world.render_distance не может быть отрицательным: %d", c.World.RenderDistance))
	}
	if c.World.EvictDistance < 0 {
		errs = append(errs, fmt.Errorf("world.evict_distance не может быть отрицательным: %d", c.World.EvictDistance))
	}
	// Выгружать ближе дистанции прорисовки бессмысленно: чанки сразу догрузятся
	if c.World.EvictDistance > 0 && c.World.EvictDistance < c.World.RenderDistance {
		c.World.EvictDistance = c.World.RenderDistance
	}
	if c.Raycast.Step <= 0 {
		errs = append(errs, fmt.Errorf("raycast.step должен быть положительным: %v", c.Raycast.Step))
	}
	if c.Raycast.MaxDistance <= 0 {
		errs = append(errs, fmt.Errorf("raycast.max_distance должен быть положительным: %v", c.Raycast.MaxDistance))
	}
	if c.Engine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.tick_rate должен быть положительным: %v", c.Engine.TickRate))
	}
	if c.Engine.StreamEvery <= 0 {
		c.Engine.StreamEvery = 1
	}
	if c.Engine.QueueSize <= 0 {
		c.Engine.QueueSize = 1
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio вне [0, 1]: %v", c.Telemetry.SampleRatio))
	}
	if c.Events.Buffer <= 0 {
		c.Events.Buffer = 1
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl должен быть положительным: %v", c.Cache.TTL))
	}
	if !c.Auth.Enabled() && c.Auth.PasswordHash != "" {
		errs = append(errs, errors.New("auth.password_hash задан без auth.secret"))
	}

	return errors.Join(errs...)
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV GAME_CONFIG; если и он пуст, возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, cfg.Validate() // конфиг не задан: использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("конфигурация %s: %w", path, err)
	}

	return cfg, nil
}
