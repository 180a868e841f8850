// Package metrics содержит Prometheus-метрики мира: стриминг чанков,
// сборку мешей, лучи и правки блоков.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты луча для метки result
const (
	RaycastHit  = "hit"
	RaycastMiss = "miss"
)

// WorldMetrics: счётчики и гистограммы игрового цикла
type WorldMetrics struct {
	ChunksLoaded    prometheus.Gauge
	ChunksGenerated prometheus.Counter
	ChunksEvicted   prometheus.Counter
	MeshBuilds      prometheus.Counter
	MeshBuildTime   prometheus.Histogram
	MeshQuads       prometheus.Histogram
	BufferIndices   prometheus.Gauge
	Raycasts        *prometheus.CounterVec
	BlockEdits      *prometheus.CounterVec
	TickDuration    prometheus.Histogram
}

// New создаёт метрики и регистрирует их в reg.
// При reg == nil метрики работают, но не регистрируются (удобно в тестах).
func New(namespace string, reg prometheus.Registerer) *WorldMetrics {
	m := &WorldMetrics{
		ChunksLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_loaded",
			Help:      "Количество загруженных чанков.",
		}),
		ChunksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_generated_total",
			Help:      "Чанков, сгенерированных стримингом.",
		}),
		ChunksEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Чанков, выгруженных за пределами дистанции.",
		}),
		MeshBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mesh_builds_total",
			Help:      "Количество перестроенных мешей чанков.",
		}),
		MeshBuildTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_build_duration_seconds",
			Help:      "Длительность сборки меша одного чанка.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		MeshQuads: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mesh_quads",
			Help:      "Количество граней в меше чанка.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),
		BufferIndices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_indices",
			Help:      "Суммарное число индексов во всех загруженных буферах.",
		}),
		Raycasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "raycasts_total",
			Help:      "Запущенные лучи по результату.",
		}, []string{"result"}),
		BlockEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_edits_total",
			Help:      "Правки блоков по источнику (set, break, place).",
		}, []string{"kind"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика игрового цикла.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ChunksLoaded, m.ChunksGenerated, m.ChunksEvicted,
			m.MeshBuilds, m.MeshBuildTime, m.MeshQuads, m.BufferIndices,
			m.Raycasts, m.BlockEdits, m.TickDuration,
		)
	}
	return m
}

// ObserveRaycast учитывает результат луча
func (m *WorldMetrics) ObserveRaycast(hit bool) {
	if hit {
		m.Raycasts.WithLabelValues(RaycastHit).Inc()
		return
	}
	m.Raycasts.WithLabelValues(RaycastMiss).Inc()
}

// ObserveMesh учитывает одну сборку меша
func (m *WorldMetrics) ObserveMesh(quads int, took time.Duration) {
	m.MeshBuilds.Inc()
	m.MeshQuads.Observe(float64(quads))
	m.MeshBuildTime.Observe(took.Seconds())
}

// Server: отдельный HTTP-эндпоинт /metrics (например, ":2112")
type Server struct {
	srv *http.Server
}

// StartHTTP запускает HTTP-эндпоинт Prometheus в отдельной горутине
func StartHTTP(addr string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return s
}

// Shutdown останавливает HTTP-эндпоинт
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
