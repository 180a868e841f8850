package render

import (
	"testing"

	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestBlockQuadUp(t *testing.T) {
	q := BlockQuad(mgl32.Vec3{0, 0, 0}, block.Up, 1, TextureIncrement, 2)

	u0 := float32(1) / 256
	u1 := float32(2) / 256
	expected := [4]Vertex{
		{Position: mgl32.Vec3{-0.5, 0.5, 0.5}, TexCoords: mgl32.Vec2{u0, 1}, Light: 1},
		{Position: mgl32.Vec3{0.5, 0.5, 0.5}, TexCoords: mgl32.Vec2{u1, 1}, Light: 1},
		{Position: mgl32.Vec3{-0.5, 0.5, -0.5}, TexCoords: mgl32.Vec2{u0, 0}, Light: 1},
		{Position: mgl32.Vec3{0.5, 0.5, -0.5}, TexCoords: mgl32.Vec2{u1, 0}, Light: 1},
	}
	assert.Equal(t, expected, q.Vertices)
	assert.Equal(t, [6]uint32{8, 9, 10, 10, 9, 11}, q.Indices, "индексы должны сдвигаться на quadIndex·4")
}

func TestBlockQuadWindingAndLight(t *testing.T) {
	forward := [6]uint32{0, 1, 2, 2, 1, 3}
	backward := [6]uint32{2, 1, 0, 3, 1, 2}

	cases := map[block.Direction]struct {
		indices [6]uint32
		light   float32
	}{
		block.Up:    {forward, 1.0},
		block.Down:  {backward, 0.25},
		block.North: {forward, 0.5},
		block.South: {backward, 0.5},
		block.West:  {forward, 0.75},
		block.East:  {backward, 0.25},
	}
	for dir, want := range cases {
		q := BlockQuad(mgl32.Vec3{}, dir, 0, TextureIncrement, 0)
		assert.Equal(t, want.indices, q.Indices, "направление %s", dir)
		for _, v := range q.Vertices {
			assert.Equal(t, want.light, v.Light, "направление %s", dir)
		}
	}
}

func TestBlockQuadPlanes(t *testing.T) {
	center := mgl32.Vec3{3, -2, 7}

	// Грань сдвинута на полблока вдоль нормали и лежит в плоскости, перпендикулярной ей
	for _, dir := range block.Directions {
		q := BlockQuad(center, dir, 0, TextureIncrement, 0)
		normal := dir.Offset().ToFloat()
		for _, v := range q.Vertices {
			assert.InDelta(t, 0.5, v.Position.Sub(center).Dot(normal), 1e-6, "направление %s", dir)
		}
	}

	west := BlockQuad(center, block.West, 5, TextureIncrement, 0)
	assert.Equal(t, mgl32.Vec3{3.5, -1.5, 6.5}, west.Vertices[0].Position)
	assert.Equal(t, mgl32.Vec2{6.0 / 256, 0}, west.Vertices[0].TexCoords)
	assert.Equal(t, mgl32.Vec2{5.0 / 256, 1}, west.Vertices[3].TexCoords)

	north := BlockQuad(center, block.North, 0, TextureIncrement, 0)
	assert.Equal(t, mgl32.Vec3{2.5, -1.5, 6.5}, north.Vertices[0].Position)
}

func TestSkyQuad(t *testing.T) {
	center := mgl32.Vec3{1, 2, 3}

	up := SkyQuad(center, block.Up, 0)
	assert.InDelta(t, 1.5, up.Vertices[0].Position.Y(), 1e-6, "небо Up лежит на y-0.5")

	east := SkyQuad(center, block.East, 5)
	assert.InDelta(t, 1.5, east.Vertices[0].Position.X(), 1e-6, "небо East лежит на x+0.5")
	assert.Equal(t, [6]uint32{22, 21, 20, 23, 21, 22}, east.Indices)

	for _, v := range east.Vertices {
		assert.Equal(t, float32(1.0), v.Light)
	}
	assert.InDelta(t, 1.0, east.Vertices[0].TexCoords.X(), 1e-6, "колонка East — последняя в атласе неба")
	assert.InDelta(t, 5.0/6.0, east.Vertices[1].TexCoords.X(), 1e-6)
}
