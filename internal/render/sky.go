package render

import (
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// BuildSky строит небесный куб из шести граней вокруг точки center
func BuildSky(center mgl32.Vec3) *Mesh {
	mesh := NewMesh(int(block.DirectionCount))
	for i, dir := range block.Directions {
		mesh.Append(SkyQuad(center, dir, uint32(i)))
	}
	return mesh
}
