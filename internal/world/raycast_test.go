package world

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockMap map[vec.Vec3]block.ID

func (b blockMap) GetBlock(pos vec.Vec3) block.ID {
	return b[pos]
}

func TestRaycastHitsFirstSolidBlock(t *testing.T) {
	blocks := blockMap{
		{X: 0, Y: 0, Z: -5}: block.Stone,
		{X: 0, Y: 0, Z: -8}: block.Dirt,
	}

	hit, ok := Raycast(blocks, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -10}, 0.1, 100)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: -5}, hit.Block)
	assert.Equal(t, block.Stone, hit.ID)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: -4}, hit.Previous, "предыдущая ячейка должна быть пустой соседней")
	assert.InDelta(t, 4.55, hit.Distance, 0.06)
	assert.InDelta(t, -hit.Distance, hit.Position.Z(), 1e-4)
}

func TestRaycastMaxDistance(t *testing.T) {
	blocks := blockMap{{X: 0, Y: 0, Z: -5}: block.Stone}

	_, ok := Raycast(blocks, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -10}, 0.1, 3)
	assert.False(t, ok, "блок дальше максимальной дистанции не должен находиться")
}

func TestRaycastDegenerate(t *testing.T) {
	blocks := blockMap{{X: 0, Y: 0, Z: 0}: block.Stone}
	origin := mgl32.Vec3{0.2, 0.1, 0}

	_, ok := Raycast(blocks, origin, origin, 0.1, 10)
	assert.False(t, ok, "луч нулевой длины не должен попадать")

	_, ok = Raycast(blocks, origin, mgl32.Vec3{1, 0, 0}, 0, 10)
	assert.False(t, ok, "нулевой шаг не должен попадать")

	_, ok = Raycast(blocks, origin, mgl32.Vec3{1, 0, 0}, -1, 10)
	assert.False(t, ok)
}

func TestRaycastThroughManager(t *testing.T) {
	m := newFlatManager()
	m.Add(NewFilledChunk(vec.Zero, block.Stone))

	// Сверху вниз; верхняя ячейка чанка y=7
	const step = 0.1
	hit, ok := Raycast(m, mgl32.Vec3{0, 20, 0}, mgl32.Vec3{0, 0, 0}, step, 100)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 0, Y: 7, Z: 0}, hit.Block)
	assert.Equal(t, vec.Vec3{X: 0, Y: 8, Z: 0}, hit.Previous)
	assert.Equal(t, block.Stone, hit.ID)

	// Верхняя грань чанка проходит по y=7.5; точка попадания не дальше шага за ней
	assert.Less(t, hit.Position.Y(), float32(7.5))
	assert.InDelta(t, 7.5, hit.Position.Y(), step+1e-4)
	assert.InDelta(t, 20-7.5, hit.Distance, step+1e-4)
}
