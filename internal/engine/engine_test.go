package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/metrics"
	"github.com/annel0/voxelworld/internal/render"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		TickRate:       time.Millisecond,
		StreamEvery:    1,
		QueueSize:      8,
		RenderDistance: 1,
		RayStep:        0.1,
		RayMaxDistance: 50,
	}
}

// newFlatEngine создаёт цикл над плоским миром: поверхность травы на y=7
func newFlatEngine(t *testing.T, opts Options, catalog *block.Catalog) (*Engine, *render.MemoryUploader, *metrics.WorldMetrics) {
	t.Helper()
	gen := world.NewWorldGenerator(1)
	gen.Mode = world.ModeFlat

	uploader := render.NewMemoryUploader()
	m := metrics.New("test", prometheus.NewRegistry())
	e := New(opts, world.NewManager(gen), catalog, render.NewBufferCache(uploader), m)
	return e, uploader, m
}

func TestTickStreamsAndBuilds(t *testing.T) {
	e, uploader, m := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())

	require.NoError(t, e.Tick(context.Background()))

	assert.Equal(t, 27, e.World().Len())
	// Чанки с Y=1 пусты: буферы есть только у 18 чанков земли
	assert.Equal(t, 18, e.Buffers().Len())
	assert.Equal(t, 18, uploader.Live())
	assert.Empty(t, e.World().TakeDirty(), "после тика грязных чанков не остаётся")

	assert.Equal(t, 27.0, testutil.ToFloat64(m.ChunksGenerated))
	assert.Equal(t, 27.0, testutil.ToFloat64(m.MeshBuilds))
	assert.Equal(t, 27.0, testutil.ToFloat64(m.ChunksLoaded))
}

func TestBreakAndPlace(t *testing.T) {
	e, uploader, _ := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())
	require.NoError(t, e.Tick(context.Background()))

	origin := mgl32.Vec3{0, 20, 0}
	down := mgl32.Vec3{0, 0, 0}

	hit, ok := e.BreakBlock(origin, down)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 7, Z: 0}, hit.Block)
	assert.Equal(t, block.Grass, hit.ID)
	assert.Equal(t, block.Air, e.World().GetBlock(hit.Block))

	_, releasedBefore := uploader.Stats()
	require.NoError(t, e.Tick(context.Background()))
	_, releasedAfter := uploader.Stats()
	assert.Greater(t, releasedAfter, releasedBefore, "старый буфер изменённого чанка должен быть освобождён")

	hit, placed, err := e.PlaceBlock(origin, down, block.Stone)
	require.NoError(t, err)
	require.True(t, placed)
	assert.Equal(t, vec.Vec3{X: 0, Y: 6, Z: 0}, hit.Block)
	assert.Equal(t, block.Stone, e.World().GetBlock(vec.Vec3{X: 0, Y: 7, Z: 0}))

	_, _, err = e.PlaceBlock(origin, down, block.ID(999))
	assert.ErrorIs(t, err, block.ErrUnknownBlock)
}

func TestBreakMisses(t *testing.T) {
	e, _, m := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())
	require.NoError(t, e.Tick(context.Background()))

	_, ok := e.BreakBlock(mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, 40, 0})
	assert.False(t, ok, "луч вверх не должен ничего задеть")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Raycasts.WithLabelValues(metrics.RaycastMiss)))
}

func TestSetBlockValidatesCatalog(t *testing.T) {
	e, _, _ := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())
	require.NoError(t, e.Tick(context.Background()))

	ok, err := e.SetBlock(vec.Vec3{X: 1, Y: 8, Z: 1}, block.Sand)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.SetBlock(vec.Vec3{X: 1000, Y: 0, Z: 0}, block.Sand)
	require.NoError(t, err)
	assert.False(t, ok, "правка в незагруженном чанке игнорируется")

	_, err = e.SetBlock(vec.Vec3{}, block.ID(77))
	assert.ErrorIs(t, err, block.ErrUnknownBlock)
}

func TestEvictionReleasesBuffers(t *testing.T) {
	opts := testOptions()
	opts.EvictDistance = 1
	e, uploader, m := newFlatEngine(t, opts, block.NewDefaultCatalog())
	require.NoError(t, e.Tick(context.Background()))

	// Смещение на 10 чанков по X: все прежние чанки вне дистанции выгрузки
	e.SetFocus(mgl32.Vec3{160, 0, 0})
	require.NoError(t, e.Tick(context.Background()))

	assert.Equal(t, 27, e.World().Len())
	for _, key := range e.World().Keys() {
		assert.Equal(t, 10, key.X)
	}
	assert.Equal(t, 27.0, testutil.ToFloat64(m.ChunksEvicted))
	assert.Equal(t, 18, uploader.Live())
}

func TestNeighborCullingBuild(t *testing.T) {
	opts := testOptions()
	opts.NeighborCulling = true
	e, _, _ := newFlatEngine(t, opts, block.NewDefaultCatalog())
	require.NoError(t, e.Tick(context.Background()))

	isolated, _, _ := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())
	require.NoError(t, isolated.Tick(context.Background()))

	key := vec.Vec3{X: 0, Y: -1, Z: 0}
	culled, ok := e.Buffers().Mesh(key)
	require.True(t, ok)
	full, ok := isolated.Buffers().Mesh(key)
	require.True(t, ok)
	assert.Less(t, culled.QuadCount(), full.QuadCount(), "стыки с соседями не должны рисоваться")
}

func TestTickFailsOnMissingCatalogEntry(t *testing.T) {
	catalog := block.NewCatalog()
	require.NoError(t, catalog.Init([]block.Type{{Name: "air", ID: block.Air}}))

	e, _, _ := newFlatEngine(t, testOptions(), catalog)
	err := e.Tick(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, block.ErrUnknownBlock)
	assert.NotEmpty(t, e.World().TakeDirty(), "непересобранные чанки остаются грязными")
}

func TestRunAndDo(t *testing.T) {
	e, _, _ := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	var id block.ID
	require.Eventually(t, func() bool {
		err := e.Do(ctx, func(e *Engine) error {
			id = e.World().GetBlock(vec.Vec3{X: 0, Y: 7, Z: 0})
			return nil
		})
		return err == nil && id == block.Grass
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	err := e.Do(context.Background(), func(*Engine) error { return nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRunStopsOnFatalError(t *testing.T) {
	catalog := block.NewCatalog()
	require.NoError(t, catalog.Init(nil))

	e, _, _ := newFlatEngine(t, testOptions(), catalog)
	err := e.Run(context.Background())
	assert.ErrorIs(t, err, block.ErrUnknownBlock)
}

func TestEnginePublishesWorldEvents(t *testing.T) {
	e, _, _ := newFlatEngine(t, testOptions(), block.NewDefaultCatalog())
	bus := eventbus.NewMemoryBus(256)
	e.SetEvents(bus)

	var mu sync.Mutex
	counts := make(map[string]int)
	var edits []BlockChanged
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		counts[ev.EventType]++
		if ev.EventType == eventbus.TypeBlockChanged {
			var bc BlockChanged
			if ev.Decode(&bc) == nil {
				edits = append(edits, bc)
			}
		}
	})
	require.NoError(t, err)

	require.NoError(t, e.Tick(context.Background()))
	_, ok := e.BreakBlock(mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, 0, 0})
	require.True(t, ok)
	require.NoError(t, bus.Close())

	assert.Equal(t, 1, counts[eventbus.TypeChunkLoaded])
	assert.Equal(t, 27, counts[eventbus.TypeMeshRebuilt], "пустой меш тоже публикуется: буфер чанка снят")
	require.Len(t, edits, 1)
	assert.Equal(t, BlockChanged{X: 0, Y: 7, Z: 0, ID: block.Air, Kind: "break"}, edits[0])
}

func TestSlowEventSubscriberDoesNotStallEdits(t *testing.T) {
	opts := testOptions()
	opts.PublishTimeout = 5 * time.Millisecond
	e, _, _ := newFlatEngine(t, opts, block.NewDefaultCatalog())
	require.NoError(t, e.Tick(context.Background()))

	bus := eventbus.NewMemoryBus(1)
	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(ctx context.Context, ev *eventbus.Envelope) {
		<-release
	})
	require.NoError(t, err)
	e.SetEvents(bus)

	// Подписчик завис: правки всё равно проходят, лишние события отбрасываются
	start := time.Now()
	for i := 0; i < 6; i++ {
		id := block.Sand
		if i%2 == 1 {
			id = block.Stone
		}
		ok, err := e.SetBlock(vec.Vec3{X: i, Y: 7, Z: 0}, id)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.GreaterOrEqual(t, bus.Metrics().Dropped, uint64(4), "в шину помещаются только два события")
	assert.Equal(t, block.Stone, e.World().GetBlock(vec.Vec3{X: 5, Y: 7, Z: 0}))

	close(release)
	require.NoError(t, bus.Close())
}
