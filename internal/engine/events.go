package engine

import (
	"context"
	"time"

	"github.com/annel0/voxelworld/internal/eventbus"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
)

// eventSource: поле Source событий игрового цикла
const eventSource = "engine"

// defaultPublishTimeout ограничивает ожидание места в шине для важных событий
const defaultPublishTimeout = 5 * time.Millisecond

// BlockChanged: полезная нагрузка eventbus.TypeBlockChanged
type BlockChanged struct {
	X    int      `json:"x"`
	Y    int      `json:"y"`
	Z    int      `json:"z"`
	ID   block.ID `json:"id"`
	Kind string   `json:"kind"` // set | break | place
}

// ChunkCoords: координаты чанка в событиях стриминга
type ChunkCoords struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ChunksChanged: полезная нагрузка eventbus.TypeChunkLoaded и TypeChunkEvicted
type ChunksChanged struct {
	Chunks []ChunkCoords `json:"chunks"`
}

// MeshRebuilt: полезная нагрузка eventbus.TypeMeshRebuilt
type MeshRebuilt struct {
	Chunk ChunkCoords `json:"chunk"`
	Quads int         `json:"quads"`
}

func chunkCoords(keys []vec.Vec3) []ChunkCoords {
	out := make([]ChunkCoords, len(keys))
	for i, k := range keys {
		out[i] = ChunkCoords{X: k.X, Y: k.Y, Z: k.Z}
	}
	return out
}

// SetEvents подключает шину событий мира; nil отключает публикацию
func (e *Engine) SetEvents(bus eventbus.EventBus) {
	e.events = bus
}

func (e *Engine) publish(eventType string, priority int, payload interface{}) {
	if e.events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventSource, eventType, priority, payload)
	if err != nil {
		e.logger.Warn("Не удалось создать событие %s: %v", eventType, err)
		return
	}
	// Цикл не ждёт медленных подписчиков: по таймауту шина отбрасывает событие
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.PublishTimeout)
	defer cancel()
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}

func (e *Engine) publishBlock(pos vec.Vec3, id block.ID, kind string) {
	e.publish(eventbus.TypeBlockChanged, 5, BlockChanged{X: pos.X, Y: pos.Y, Z: pos.Z, ID: id, Kind: kind})
}
