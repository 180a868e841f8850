package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedPath: метка для запросов мимо маршрутов, чтобы сканеры не плодили серии
const unmatchedPath = "unmatched"

// PrometheusMiddleware считает HTTP-метрики REST API.
//
//	mw := middleware.NewPrometheusMiddleware("rest_api", reg)
//	r.Use(mw.Handler())
//	mw.RegisterMetricsEndpoint(r, reg)
//
// Метрики:
// * http_request_duration_seconds{method,path,status}: histogram
// * http_response_size_bytes{path}: histogram, в основном сжатые меши
// * http_requests_inflight: gauge
// * http_request_errors_total{method,path,status}: counter (4xx/5xx)
type PrometheusMiddleware struct {
	reqDuration  *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec
	reqInflight  prometheus.Gauge
	reqErrors    *prometheus.CounterVec
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg.
// При reg == nil метрики считаются, но нигде не регистрируются.
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	pm := &PrometheusMiddleware{
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path", "status"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_response_size_bytes",
			Help:      "Размер тела ответа.",
			// от JSON-ответов до меша полностью заполненного чанка
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"path"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Текущее количество обрабатываемых HTTP-запросов.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся ошибкой (4xx/5xx).",
		}, []string{"method", "path", "status"}),
	}

	if reg != nil {
		reg.MustRegister(pm.reqDuration, pm.responseSize, pm.reqInflight, pm.reqErrors)
	}
	return pm
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.reqInflight.Inc()
		defer pm.reqInflight.Dec()

		c.Next()

		status := c.Writer.Status()
		statusLabel := strconv.Itoa(status)
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method

		pm.reqDuration.WithLabelValues(method, path, statusLabel).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size > 0 {
			pm.responseSize.WithLabelValues(path).Observe(float64(size))
		}
		if status >= 400 {
			pm.reqErrors.WithLabelValues(method, path, statusLabel).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics с метриками из gatherer
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
