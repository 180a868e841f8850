package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annel0/voxelworld/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(reg *prometheus.Registry, out *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	pm := NewPrometheusMiddleware("test", reg)
	r.Use(NewRequestLogger(logging.NewWriterLogger("api", out, logging.INFO)).Handler())
	r.Use(pm.Handler())
	pm.RegisterMetricsEndpoint(r, reg)

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/chunks/:x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(TraceIDKey))
	})
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return r
}

func TestRequestLoggerSetsTraceID(t *testing.T) {
	var out bytes.Buffer
	r := newTestRouter(prometheus.NewRegistry(), &out)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chunks/1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	traceID := w.Header().Get("X-Trace-Id")
	assert.NotEmpty(t, traceID)
	assert.Equal(t, traceID, w.Body.String(), "trace-ID должен быть доступен обработчику")
	assert.Contains(t, out.String(), "/api/chunks/:x 200")
}

func TestRequestLoggerQuietPaths(t *testing.T) {
	var out bytes.Buffer
	r := newTestRouter(prometheus.NewRegistry(), &out)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, out.String(), "health-проверки не должны засорять INFO")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Contains(t, out.String(), "[ERROR]")
}

func TestPrometheusMiddlewareCountsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	var out bytes.Buffer
	r := newTestRouter(reg, &out)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	count, err := testutil.GatherAndCount(reg, "test_http_request_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_request_duration_seconds")
}

func TestPrometheusMiddlewareUnmatchedPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	var out bytes.Buffer
	r := newTestRouter(reg, &out)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/2", nil))

	// Оба промаха попадают в одну серию
	count, err := testutil.GatherAndCount(reg, "test_http_request_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `path="unmatched"`)
	assert.NotContains(t, w.Body.String(), "wp-admin")
	assert.Contains(t, w.Body.String(), "test_http_response_size_bytes")
}
