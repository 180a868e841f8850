package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInitTelemetryDisabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), Options{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewResourceHasServiceName(t *testing.T) {
	res, err := NewResource(context.Background(), "voxelworld-test")
	require.NoError(t, err)

	value, ok := res.Set().Value(attribute.Key("service.name"))
	require.True(t, ok)
	assert.Equal(t, "voxelworld-test", value.AsString())
}

func TestSampler(t *testing.T) {
	assert.Contains(t, Sampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, Sampler(0.25).Description(), "TraceIDRatioBased")
}
