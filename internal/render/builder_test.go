package render

import (
	"math"
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder() *Builder {
	return NewBuilder(block.NewDefaultCatalog())
}

func assertIndicesInRange(t *testing.T, mesh *Mesh) {
	t.Helper()
	for _, idx := range mesh.Indices {
		if int(idx) >= len(mesh.Vertices) {
			t.Fatalf("Индекс %d вне диапазона вершин (%d)", idx, len(mesh.Vertices))
		}
	}
}

func TestBuildEmptyChunk(t *testing.T) {
	mesh, err := newTestBuilder().Build(world.NewChunk(vec.Zero))
	require.NoError(t, err)
	assert.True(t, mesh.IsEmpty())
	assert.Equal(t, uint32(0), mesh.IndexCount)
}

func TestBuildSingleBlock(t *testing.T) {
	chunk := world.NewChunk(vec.Zero)
	// Мировая ячейка (0,0,0): локальная (8,8,8)
	chunk.SetGlobal(vec.Zero, block.Grass)

	mesh, err := newTestBuilder().Build(chunk)
	require.NoError(t, err)
	assert.Equal(t, 6, mesh.QuadCount())
	assert.Len(t, mesh.Vertices, 24)
	assert.Len(t, mesh.Indices, 36)
	assert.Equal(t, uint32(36), mesh.IndexCount)
	assertIndicesInRange(t, mesh)

	// Грани идут в порядке направлений, центр ячейки в начале координат
	for i, dir := range block.Directions {
		expected := BlockQuad(mgl32.Vec3{}, dir, block.NewDefaultCatalog().MustTexture(block.Grass, dir), TextureIncrement, uint32(i))
		assert.Equal(t, expected.Vertices[:], mesh.Vertices[i*4:i*4+4], "грань %s", dir)
		assert.Equal(t, expected.Indices[:], mesh.Indices[i*6:i*6+6], "грань %s", dir)
	}

	// Верх травы: текстура 0, низ: 2
	assert.Equal(t, float32(0), mesh.Vertices[0].TexCoords.X())
	assert.Equal(t, float32(2)/256, mesh.Vertices[4].TexCoords.X())
}

func TestBuildAdjacentBlocksShareNoFace(t *testing.T) {
	chunk := world.NewChunk(vec.Zero)
	chunk.Set(vec.Vec3{X: 4, Y: 4, Z: 4}, block.Stone)
	chunk.Set(vec.Vec3{X: 5, Y: 4, Z: 4}, block.Dirt)

	mesh, err := newTestBuilder().Build(chunk)
	require.NoError(t, err)
	assert.Equal(t, 10, mesh.QuadCount(), "общая грань двух блоков не должна строиться")
	assertIndicesInRange(t, mesh)
}

func TestBuildFilledChunk(t *testing.T) {
	mesh, err := newTestBuilder().Build(world.NewFilledChunk(vec.Vec3{X: -2, Y: 1, Z: 3}, block.Stone))
	require.NoError(t, err)

	// Только внешняя оболочка: 6 сторон по Size² граней
	assert.Equal(t, 6*world.Size*world.Size, mesh.QuadCount())
	assert.Len(t, mesh.Vertices, 6144)
	assert.Len(t, mesh.Indices, 9216)
	assertIndicesInRange(t, mesh)

	// Каждая грань лежит в одной из шести плоскостей оболочки, внутренних граней нет
	anchor := mgl32.Vec3{-32, 16, 48}
	lo := anchor.Sub(mgl32.Vec3{world.HalfSize + 0.5, world.HalfSize + 0.5, world.HalfSize + 0.5})
	hi := anchor.Add(mgl32.Vec3{world.HalfSize - 0.5, world.HalfSize - 0.5, world.HalfSize - 0.5})
	for q := 0; q < mesh.QuadCount(); q++ {
		quad := mesh.Vertices[q*4 : q*4+4]
		onShell := false
		for axis := 0; axis < 3; axis++ {
			for _, plane := range []float32{lo[axis], hi[axis]} {
				inPlane := true
				for _, v := range quad {
					if math.Abs(float64(v.Position[axis]-plane)) > 1e-4 {
						inPlane = false
						break
					}
				}
				onShell = onShell || inPlane
			}
		}
		require.True(t, onShell, "грань %d (%v) не на оболочке чанка", q, quad[0].Position)
	}
}

func TestBuildChunkGeometryFollowsAnchor(t *testing.T) {
	chunk := world.NewChunk(vec.Vec3{X: 1, Y: -1, Z: 0})
	chunk.Set(vec.Zero, block.Sand)

	mesh, err := newTestBuilder().Build(chunk)
	require.NoError(t, err)

	// Локальная (0,0,0) чанка с якорем (16,-16,0): мировая (8,-24,-8)
	up := mesh.Vertices[0]
	assert.Equal(t, mgl32.Vec3{7.5, -23.5, -7.5}, up.Position)
}

func TestBuildUnknownBlock(t *testing.T) {
	chunk := world.NewChunk(vec.Zero)
	chunk.Set(vec.Vec3{X: 1, Y: 1, Z: 1}, block.ID(999))

	_, err := newTestBuilder().Build(chunk)
	assert.ErrorIs(t, err, block.ErrUnknownBlock)

	_, err = NewBuilder(block.NewCatalog()).Build(world.NewFilledChunk(vec.Zero, block.Stone))
	assert.ErrorIs(t, err, block.ErrNotInitialized)
}

func TestBuildWithNeighborsCullsSharedFaces(t *testing.T) {
	m := world.NewManager(world.NewWorldGenerator(1))
	a := world.NewFilledChunk(vec.Zero, block.Stone)
	b := world.NewFilledChunk(vec.Vec3{X: 1}, block.Stone)
	m.Add(a)
	m.Add(b)

	builder := newTestBuilder()
	shell := 6 * world.Size * world.Size

	isolated, err := builder.Build(a)
	require.NoError(t, err)
	assert.Equal(t, shell, isolated.QuadCount())

	for _, c := range []*world.Chunk{a, b} {
		mesh, err := builder.BuildWithNeighbors(c, m)
		require.NoError(t, err)
		assert.Equal(t, shell-world.Size*world.Size, mesh.QuadCount(), "чанк %s", c.Coords)
		assertIndicesInRange(t, mesh)
	}
}

func TestBuildSky(t *testing.T) {
	mesh := BuildSky(mgl32.Vec3{0, 10, 0})
	assert.Equal(t, 6, mesh.QuadCount())
	assert.Len(t, mesh.Indices, 36)
	assert.Equal(t, uint32(36), mesh.IndexCount)
	assertIndicesInRange(t, mesh)
}
