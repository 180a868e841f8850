package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxelworld/internal/auth"
	"github.com/annel0/voxelworld/internal/cache"
	"github.com/annel0/voxelworld/internal/engine"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/middleware"
	"github.com/annel0/voxelworld/internal/render"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer представляет REST API сервер правки мира
type RestServer struct {
	router       *gin.Engine
	engine       *engine.Engine
	codec        *render.MeshCodec
	meshCache    cache.BlobCache
	instanceID   string
	issuer       *auth.TokenIssuer
	passwordHash string
	port         string
	metrics      *ServerMetrics
	logger       *logging.Logger
	httpServer   *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port         string               // адрес для запуска сервера, например ":8088"
	Engine       *engine.Engine       // игровой цикл
	Codec        *render.MeshCodec    // кодек выгрузки мешей
	MeshCache    cache.BlobCache      // nil: кеш в памяти процесса
	InstanceID   string               // префикс ключей кеша мешей; пусто: случайный UUID
	Registry     *prometheus.Registry // nil: метрики HTTP не регистрируются, /metrics не подключается
	Issuer       *auth.TokenIssuer    // nil: правки без токена
	PasswordHash string               // bcrypt-хеш пароля для POST /api/token
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	logger := logging.GetAPILogger()

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger(logger)
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("rest_api"))

	var reg prometheus.Registerer
	if config.Registry != nil {
		reg = config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("rest_api", reg)
	router.Use(promMw.Handler())
	if config.Registry != nil {
		promMw.RegisterMetricsEndpoint(router, config.Registry)
	}

	meshCache := config.MeshCache
	if meshCache == nil {
		meshCache = cache.NewMemoryCache(time.Minute, 1024)
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.New().String()
	}

	server := &RestServer{
		router:       router,
		engine:       config.Engine,
		codec:        config.Codec,
		meshCache:    meshCache,
		instanceID:   config.InstanceID,
		issuer:       config.Issuer,
		passwordHash: config.PasswordHash,
		port:         config.Port,
		metrics:      NewServerMetrics(),
		logger:       logger,
	}

	server.setupRoutes()

	return server
}

// Router возвращает gin роутер (для тестов и встраивания)
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.POST("/token", rs.handleToken)

		api.GET("/status", rs.handleStatus)
		api.GET("/catalog", rs.handleCatalog)
		api.GET("/blocks", rs.handleGetBlock)
		api.POST("/raycast", rs.handleRaycast)
		api.GET("/chunks", rs.handleChunks)
		api.GET("/chunks/:x/:y/:z/mesh", rs.handleChunkMesh)
	}

	// Изменяющие эндпоинты (требуют токен, если задан секрет)
	edit := api.Group("/")
	edit.Use(rs.editMiddleware())
	{
		edit.PUT("/blocks", rs.handleSetBlock)
		edit.POST("/break", rs.handleBreak)
		edit.POST("/place", rs.handlePlace)
		edit.POST("/focus", rs.handleFocus)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Start запускает HTTP сервер в отдельной горутине
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rs.logger.Error("❌ Ошибка REST API сервера: %v", err)
		}
	}()

	rs.logger.Info("✅ REST API сервер запущен на http://localhost%s", rs.port)
	rs.logger.Info("🆔 Экземпляр кеша мешей: %s", rs.instanceID)
	rs.logger.Info("📋 Доступные эндпоинты:")
	rs.logger.Info("   GET  /health                    - Проверка состояния")
	rs.logger.Info("   GET  /api/catalog               - Каталог блоков")
	rs.logger.Info("   GET  /api/blocks?x=&y=&z=       - Блок в мировых координатах")
	rs.logger.Info("   PUT  /api/blocks                - Установка блока")
	rs.logger.Info("   POST /api/raycast               - Луч до первого блока")
	rs.logger.Info("   POST /api/break, /api/place     - Разрушение и установка по лучу")
	rs.logger.Info("   GET  /api/chunks/:x/:y/:z/mesh  - Меш чанка (zstd)")
	if rs.issuer != nil {
		rs.logger.Info("🔐 Изменяющие эндпоинты требуют токен (POST /api/token)")
	}
	return nil
}

// Stop останавливает HTTP сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	rs.logger.Info("🛑 Остановка REST API сервера...")
	if rs.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := rs.httpServer.Shutdown(ctx); err != nil {
		rs.logger.Error("❌ Ошибка при остановке HTTP сервера: %v", err)
		return err
	}
	rs.logger.Info("✅ REST API сервер остановлен")
	return nil
}

// handleHealth проверяет, что игровой цикл отвечает
func (rs *RestServer) handleHealth(c *gin.Context) {
	var tick uint64
	err := rs.engine.Do(c.Request.Context(), func(e *engine.Engine) error {
		tick = e.TickCount()
		return nil
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Игровой цикл не отвечает",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "OK",
		Data: gin.H{
			"tick":   tick,
			"uptime": formatUptime(time.Since(rs.metrics.StartTime)),
		},
	})
}
