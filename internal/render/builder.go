package render

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
)

// NeighborSource отвечает на запрос блока по мировым координатам.
// Используется для отсечения граней на стыке с соседними чанками.
type NeighborSource interface {
	NeighborBlock(pos vec.Vec3) block.ID
}

// Builder строит меши чанков, беря индексы текстур из каталога блоков
type Builder struct {
	catalog          *block.Catalog
	TextureIncrement float32
}

// NewBuilder создаёт построитель мешей для каталога
func NewBuilder(catalog *block.Catalog) *Builder {
	return &Builder{
		catalog:          catalog,
		TextureIncrement: TextureIncrement,
	}
}

// Build строит меш чанка. Ячейки за границей чанка считаются воздухом,
// поэтому грани на границе всегда видимы.
func (b *Builder) Build(chunk *world.Chunk) (*Mesh, error) {
	return b.build(chunk, nil)
}

// BuildWithNeighbors строит меш, проверяя граничные ячейки в соседних чанках
func (b *Builder) BuildWithNeighbors(chunk *world.Chunk, neighbors NeighborSource) (*Mesh, error) {
	return b.build(chunk, neighbors)
}

func (b *Builder) build(chunk *world.Chunk, neighbors NeighborSource) (*Mesh, error) {
	mesh := NewMesh(0)
	origin := chunk.ToGlobal(vec.Zero)

	var quadIndex uint32
	for x := 0; x < world.Size; x++ {
		for y := 0; y < world.Size; y++ {
			for z := 0; z < world.Size; z++ {
				local := vec.Vec3{X: x, Y: y, Z: z}
				id := chunk.Get(local)
				if id == block.Air {
					continue
				}

				typ, err := b.catalog.Get(id)
				if err != nil {
					return nil, fmt.Errorf("чанк %s, ячейка %s: %w", chunk.Coords, local, err)
				}
				center := origin.Add(local).ToFloat()

				for _, dir := range block.Directions {
					if !b.exposed(chunk, neighbors, local, dir) {
						continue
					}
					tex, err := typ.Texture(dir)
					if err != nil {
						return nil, fmt.Errorf("чанк %s, ячейка %s: %w", chunk.Coords, local, err)
					}
					mesh.Append(BlockQuad(center, dir, tex, b.TextureIncrement, quadIndex))
					quadIndex++
				}
			}
		}
	}
	return mesh, nil
}

// exposed сообщает, что соседняя ячейка в направлении dir пуста
func (b *Builder) exposed(chunk *world.Chunk, neighbors NeighborSource, local vec.Vec3, dir block.Direction) bool {
	next := local.Add(dir.Offset())
	if neighbors != nil && !chunk.Contains(chunk.ToGlobal(next)) {
		return neighbors.NeighborBlock(chunk.ToGlobal(next)) == block.Air
	}
	return chunk.Get(next) == block.Air
}
