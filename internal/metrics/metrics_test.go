package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldMetricsRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("voxel", reg)

	m.ChunksGenerated.Add(27)
	m.ObserveRaycast(true)
	m.ObserveRaycast(true)
	m.ObserveRaycast(false)
	m.ObserveMesh(1536, 2*time.Millisecond)
	m.BlockEdits.WithLabelValues("break").Inc()

	assert.Equal(t, 27.0, testutil.ToFloat64(m.ChunksGenerated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Raycasts.WithLabelValues(RaycastHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Raycasts.WithLabelValues(RaycastMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MeshBuilds))

	count, err := testutil.GatherAndCount(reg, "voxel_mesh_quads", "voxel_block_edits_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWorldMetricsWithoutRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		New("voxel", nil)
		New("voxel", nil)
	}, "без регистра повторное создание не должно конфликтовать")
}
