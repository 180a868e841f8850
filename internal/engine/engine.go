// Package engine владеет миром: единственная горутина стримит чанки, применяет
// правки и пересобирает меши. Остальные компоненты обращаются к миру через Do.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxelworld/internal/config"
	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/logging"
	"github.com/annel0/voxelworld/internal/metrics"
	"github.com/annel0/voxelworld/internal/render"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrStopped возвращается Do, если игровой цикл уже завершён
var ErrStopped = errors.New("игровой цикл остановлен")

// Options: параметры игрового цикла
type Options struct {
	TickRate        time.Duration
	StreamEvery     int // стриминг раз в N тиков
	QueueSize       int
	RenderDistance  int
	EvictDistance   int // 0: не выгружать
	NeighborCulling bool
	RayStep         float32
	RayMaxDistance  float32
	PublishTimeout  time.Duration // 0: defaultPublishTimeout
}

// OptionsFromConfig собирает Options из конфигурации приложения
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		TickRate:        cfg.Engine.TickRate,
		StreamEvery:     cfg.Engine.StreamEvery,
		QueueSize:       cfg.Engine.QueueSize,
		RenderDistance:  cfg.World.RenderDistance,
		EvictDistance:   cfg.World.EvictDistance,
		NeighborCulling: cfg.World.NeighborCulling,
		RayStep:         cfg.Raycast.Step,
		RayMaxDistance:  cfg.Raycast.MaxDistance,
		PublishTimeout:  cfg.Engine.PublishTimeout,
	}
}

type command struct {
	fn   func(*Engine) error
	done chan error
}

// Engine: игровой цикл. Все методы, кроме Do, Run и Buffers, вызываются
// только из горутины цикла (внутри Do или до запуска Run).
type Engine struct {
	opts    Options
	world   *world.Manager
	catalog *block.Catalog
	builder *render.Builder
	buffers *render.BufferCache
	metrics *metrics.WorldMetrics
	logger  *logging.Logger
	tracer  trace.Tracer
	events  eventbus.EventBus

	commands chan command
	stopped  chan struct{}
	stopOnce sync.Once

	focus mgl32.Vec3
	tick  uint64
}

// New создаёт игровой цикл. metrics может быть nil.
func New(opts Options, manager *world.Manager, catalog *block.Catalog, buffers *render.BufferCache, m *metrics.WorldMetrics) *Engine {
	if opts.StreamEvery <= 0 {
		opts.StreamEvery = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	if m == nil {
		m = metrics.New("voxel", nil)
	}
	manager.SetNeighborCulling(opts.NeighborCulling)

	return &Engine{
		opts:     opts,
		world:    manager,
		catalog:  catalog,
		builder:  render.NewBuilder(catalog),
		buffers:  buffers,
		metrics:  m,
		logger:   logging.GetEngineLogger(),
		tracer:   otel.Tracer("voxelworld/engine"),
		commands: make(chan command, opts.QueueSize),
		stopped:  make(chan struct{}),
	}
}

// World возвращает менеджер чанков (только для горутины цикла)
func (e *Engine) World() *world.Manager {
	return e.world
}

// Catalog возвращает каталог блоков; он неизменяем и безопасен из любой горутины
func (e *Engine) Catalog() *block.Catalog {
	return e.catalog
}

// Buffers возвращает кеш буферов; чтение безопасно из любой горутины
func (e *Engine) Buffers() *render.BufferCache {
	return e.buffers
}

// Options возвращает параметры цикла
func (e *Engine) Options() Options {
	return e.opts
}

// TickCount возвращает число выполненных тиков
func (e *Engine) TickCount() uint64 {
	return e.tick
}

// SetFocus задаёт точку, вокруг которой стримятся чанки
func (e *Engine) SetFocus(p mgl32.Vec3) {
	e.focus = p
}

// Focus возвращает текущую точку стриминга
func (e *Engine) Focus() mgl32.Vec3 {
	return e.focus
}

// Do ставит fn в очередь цикла и ждёт её выполнения
func (e *Engine) Do(ctx context.Context, fn func(*Engine) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}

	select {
	case e.commands <- cmd:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.done:
		return err
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run крутит тики с периодом TickRate до отмены ctx или фатальной ошибки.
// Команды из Do выполняются сразу, не дожидаясь тика.
func (e *Engine) Run(ctx context.Context) error {
	defer e.stopOnce.Do(func() { close(e.stopped) })

	ticker := time.NewTicker(e.opts.TickRate)
	defer ticker.Stop()

	e.logger.Info("🌍 Игровой цикл запущен (тик %v, дистанция %d)", e.opts.TickRate, e.opts.RenderDistance)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("🛑 Игровой цикл остановлен после %d тиков", e.tick)
			return nil
		case cmd := <-e.commands:
			e.execute(cmd)
		case <-ticker.C:
			if err := e.Tick(ctx); err != nil {
				e.logger.Error("❌ Фатальная ошибка тика %d: %v", e.tick, err)
				return err
			}
		}
	}
}

// Tick выполняет один шаг: команды, стриминг, выгрузку, пересборку мешей
func (e *Engine) Tick(ctx context.Context) error {
	start := time.Now()
	e.tick++

	ctx, span := e.tracer.Start(ctx, "engine.tick", trace.WithAttributes(
		attribute.Int64("tick", int64(e.tick)),
	))
	defer span.End()

	e.drainCommands()

	if e.tick == 1 || e.tick%uint64(e.opts.StreamEvery) == 0 {
		e.stream()
	}

	if err := e.rebuildDirty(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	e.metrics.TickDuration.Observe(time.Since(start).Seconds())
	return nil
}

func (e *Engine) execute(cmd command) {
	cmd.done <- cmd.fn(e)
}

func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			e.execute(cmd)
		default:
			return
		}
	}
}

// stream догружает чанки вокруг фокуса и выгружает дальние
func (e *Engine) stream() {
	created := e.world.Stream(e.focus, e.opts.RenderDistance)
	if len(created) > 0 {
		e.metrics.ChunksGenerated.Add(float64(len(created)))
		e.logger.Debug("Сгенерировано чанков: %d", len(created))
		e.publish(eventbus.TypeChunkLoaded, 1, ChunksChanged{Chunks: chunkCoords(created)})
	}

	if e.opts.EvictDistance > 0 {
		evicted := e.world.Evict(e.focus, e.opts.EvictDistance)
		for _, key := range evicted {
			e.buffers.Remove(key)
		}
		if len(evicted) > 0 {
			e.metrics.ChunksEvicted.Add(float64(len(evicted)))
			e.logger.Debug("Выгружено чанков: %d", len(evicted))
			e.publish(eventbus.TypeChunkEvicted, 1, ChunksChanged{Chunks: chunkCoords(evicted)})
		}
	}

	e.metrics.ChunksLoaded.Set(float64(e.world.Len()))
}

// rebuildDirty полностью пересобирает меши изменённых чанков.
// При ошибке оставшиеся чанки снова помечаются грязными.
func (e *Engine) rebuildDirty(ctx context.Context) error {
	dirty := e.world.TakeDirty()
	if len(dirty) == 0 {
		return nil
	}

	_, span := e.tracer.Start(ctx, "engine.rebuild", trace.WithAttributes(
		attribute.Int("chunks", len(dirty)),
	))
	defer span.End()

	for i, key := range dirty {
		if err := e.rebuild(key); err != nil {
			for _, rest := range dirty[i:] {
				e.world.MarkDirty(rest)
			}
			return err
		}
	}

	e.metrics.BufferIndices.Set(float64(e.buffers.IndexCount()))
	return nil
}

func (e *Engine) rebuild(key vec.Vec3) error {
	chunk, ok := e.world.Chunk(key)
	if !ok {
		e.buffers.Remove(key)
		return nil
	}

	start := time.Now()
	var mesh *render.Mesh
	var err error
	if e.opts.NeighborCulling {
		mesh, err = e.builder.BuildWithNeighbors(chunk, e.world)
	} else {
		mesh, err = e.builder.Build(chunk)
	}
	if err != nil {
		return fmt.Errorf("сборка меша: %w", err)
	}
	e.metrics.ObserveMesh(mesh.QuadCount(), time.Since(start))

	if err := e.buffers.Install(key, mesh); err != nil {
		return fmt.Errorf("загрузка буфера чанка %s: %w", key, err)
	}
	e.publish(eventbus.TypeMeshRebuilt, 0, MeshRebuilt{
		Chunk: ChunkCoords{X: key.X, Y: key.Y, Z: key.Z},
		Quads: mesh.QuadCount(),
	})
	return nil
}

// SetBlock меняет блок в мировых координатах; false: чанк не загружен
func (e *Engine) SetBlock(pos vec.Vec3, id block.ID) (bool, error) {
	if !e.catalog.Has(id) {
		return false, fmt.Errorf("%w: id=%d", block.ErrUnknownBlock, id)
	}
	ok := e.world.SetBlock(pos, id)
	if ok {
		e.metrics.BlockEdits.WithLabelValues("set").Inc()
		e.publishBlock(pos, id, "set")
	}
	return ok, nil
}

// Raycast пускает луч с шагом и дальностью из настроек
func (e *Engine) Raycast(origin, target mgl32.Vec3) (world.RayHit, bool) {
	hit, ok := world.Raycast(e.world, origin, target, e.opts.RayStep, e.opts.RayMaxDistance)
	e.metrics.ObserveRaycast(ok)
	return hit, ok
}

// BreakBlock ломает первый непустой блок на луче
func (e *Engine) BreakBlock(origin, target mgl32.Vec3) (world.RayHit, bool) {
	hit, ok := e.Raycast(origin, target)
	if !ok {
		return hit, false
	}
	e.world.SetBlock(hit.Block, block.Air)
	e.metrics.BlockEdits.WithLabelValues("break").Inc()
	e.publishBlock(hit.Block, block.Air, "break")
	return hit, true
}

// PlaceBlock ставит id в последнюю пустую ячейку перед попаданием луча
func (e *Engine) PlaceBlock(origin, target mgl32.Vec3, id block.ID) (world.RayHit, bool, error) {
	if id.IsAir() || !e.catalog.Has(id) {
		return world.RayHit{}, false, fmt.Errorf("%w: id=%d", block.ErrUnknownBlock, id)
	}

	hit, ok := e.Raycast(origin, target)
	if !ok || !e.world.GetBlock(hit.Previous).IsAir() {
		return hit, false, nil
	}
	if !e.world.SetBlock(hit.Previous, id) {
		return hit, false, nil
	}
	e.metrics.BlockEdits.WithLabelValues("place").Inc()
	e.publishBlock(hit.Previous, id, "place")
	return hit, true, nil
}
