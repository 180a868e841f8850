package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxelworld/internal/api"
	"github.com/annel0/voxelworld/internal/auth"
	"github.com/annel0/voxelworld/internal/cache"
	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/engine"
	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/metrics"
	"github.com/annel0/voxelworld/internal/observability"
	"github.com/annel0/voxelworld/internal/render"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yaml (по умолчанию $GAME_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logging.Configure(cfg.Logging.Dir, level)
	if err := logging.GetLoggerManager().ApplyLevels(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск voxelworld (seed=%d, генератор=%s)", cfg.World.Seed, cfg.World.Generator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТРАССИРОВКА ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, observability.Options{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации OpenTelemetry: %v", err)
	}

	// === КАТАЛОГ БЛОКОВ ===
	catalog, err := loadCatalog(cfg.Blocks.Dir)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки каталога блоков: %v", err)
	}
	logging.Info("🧱 Каталог блоков: %d типов", catalog.Len())

	// === МИР ===
	generator, err := newGenerator(cfg.World, catalog)
	if err != nil {
		log.Fatalf("❌ Ошибка настройки генератора: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	worldMetrics := metrics.New("voxel", registry)

	buffers := render.NewBufferCache(render.NewMemoryUploader())
	eng := engine.New(engine.OptionsFromConfig(cfg), world.NewManager(generator), catalog, buffers, worldMetrics)

	// === СОБЫТИЯ МИРА ===
	bus := eventbus.NewMemoryBus(cfg.Events.Buffer)
	var jsBus *eventbus.JetStreamBus
	if err := eventbus.RegisterMetrics(bus, registry); err != nil {
		log.Fatalf("❌ Ошибка регистрации метрик шины событий: %v", err)
	}
	if _, err := eventbus.StartLoggingListener(bus, logging.GetComponentLogger("events")); err != nil {
		log.Fatalf("❌ Ошибка подписки на события: %v", err)
	}
	if cfg.Events.NATSURL != "" {
		jsBus, err = eventbus.NewJetStreamBus(cfg.Events.NATSURL, cfg.Events.Stream, cfg.Events.Retention)
		if err != nil {
			log.Fatalf("❌ Ошибка подключения к NATS JetStream: %v", err)
		}
		_, err = eventbus.Forward(context.Background(), bus, jsBus, eventbus.Filter{}, func(ev *eventbus.Envelope, err error) {
			logging.Warn("Событие %s не переслано в JetStream: %v", ev.EventType, err)
		})
		if err != nil {
			log.Fatalf("❌ Ошибка пересылки событий: %v", err)
		}
		logging.Info("📨 События мира пересылаются в JetStream %s (стрим %s)", cfg.Events.NATSURL, cfg.Events.Stream)
	}
	eng.SetEvents(bus)

	codec, err := render.NewMeshCodec(zstd.SpeedDefault)
	if err != nil {
		log.Fatalf("❌ Ошибка создания кодека мешей: %v", err)
	}
	defer codec.Close()

	// === КЕШ МЕШЕЙ ===
	meshCache, err := newMeshCache(cfg.Cache)
	if err != nil {
		log.Fatalf("❌ Ошибка настройки кеша мешей: %v", err)
	}
	if err := cache.RegisterMetrics(meshCache, registry); err != nil {
		log.Fatalf("❌ Ошибка регистрации метрик кеша: %v", err)
	}

	// === REST API ===
	var issuer *auth.TokenIssuer
	if cfg.Auth.Enabled() {
		issuer, err = auth.NewTokenIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL)
		if err != nil {
			log.Fatalf("❌ Ошибка настройки токенов правки: %v", err)
		}
	} else {
		logging.Warn("⚠️  auth.secret не задан: изменяющие эндпоинты открыты")
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	restServer := api.NewRestServer(api.Config{
		Port:         restPort,
		Engine:       eng,
		Codec:        codec,
		MeshCache:    meshCache,
		Registry:     registry,
		Issuer:       issuer,
		PasswordHash: cfg.Auth.PasswordHash,
	})
	if err := restServer.Start(); err != nil {
		log.Fatalf("❌ Ошибка запуска REST API: %v", err)
	}

	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	metricsServer := metrics.StartHTTP(metricsAddr, registry)

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", metricsAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	// Игровой цикл занимает главную горутину до сигнала или фатальной ошибки
	runErr := eng.Run(ctx)
	if runErr != nil {
		logging.Error("❌ Игровой цикл завершился с ошибкой: %v", runErr)
	} else {
		logging.Info("📡 Получен сигнал завершения, остановка...")
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	if err := meshCache.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия кеша мешей: %v", err)
	}
	// Сначала дренируется локальная шина, чтобы пересылка успела дойти до JetStream
	if err := bus.Close(); err != nil {
		logging.Error("❌ Ошибка закрытия шины событий: %v", err)
	}
	if jsBus != nil {
		if err := jsBus.Close(); err != nil {
			logging.Error("❌ Ошибка закрытия JetStream: %v", err)
		}
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	if runErr != nil {
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// loadCatalog читает описания блоков; без каталога на диске берётся встроенный набор
func loadCatalog(dir string) (*block.Catalog, error) {
	if dir == "" {
		return block.NewDefaultCatalog(), nil
	}
	catalog, err := block.LoadCatalog(dir)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Warn("⚠️  Каталог %s не найден, используется встроенный набор блоков", dir)
		return block.NewDefaultCatalog(), nil
	}
	return catalog, err
}

// newMeshCache выбирает Redis, если задан адрес, иначе кеш в памяти
func newMeshCache(cfg config.CacheConfig) (cache.BlobCache, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.TTL, cfg.MaxEntries), nil
	}
	return cache.NewRedisCache(cache.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		DefaultTTL:    cfg.TTL,
	})
}

// newGenerator настраивает генератор по секции world
func newGenerator(cfg config.WorldConfig, catalog *block.Catalog) (*world.WorldGenerator, error) {
	mode, err := world.ParseGeneratorMode(cfg.Generator)
	if err != nil {
		return nil, err
	}

	gen := world.NewWorldGenerator(cfg.Seed)
	gen.Mode = mode

	if cfg.Fill != "" {
		found := false
		for _, t := range catalog.Types() {
			if t.Name == cfg.Fill {
				gen.Fill = t.ID
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("world.fill: блок %q не найден в каталоге", cfg.Fill)
		}
	}
	if err := gen.CheckCatalog(catalog); err != nil {
		return nil, fmt.Errorf("blocks.dir: %w", err)
	}
	return gen, nil
}
