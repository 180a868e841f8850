package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterMetrics экспортирует счётчики кеша в Prometheus
func RegisterMetrics(c BlobCache, reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "mesh_cache_hits_total",
			Help: "Попадания в кеш сжатых мешей",
		}, func() float64 { return float64(c.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "mesh_cache_misses_total",
			Help: "Промахи кеша сжатых мешей",
		}, func() float64 { return float64(c.Stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mesh_cache_hit_ratio",
			Help: "Доля попаданий в кеш сжатых мешей",
		}, func() float64 { return c.Stats().HitRatio }),
	}

	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}
