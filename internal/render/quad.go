package render

import (
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// Шаг UV по атласам текстур
const (
	TextureIncrement float32 = 1.0 / 256.0 // Атлас блоков: 256 колонок
	SkyIncrement     float32 = 1.0 / 6.0   // Атлас неба: колонка на направление
)

// Порядок обхода вершин: прямой для Up/North/West, обратный для Down/South/East
var (
	windingForward  = [6]uint32{0, 1, 2, 2, 1, 3}
	windingBackward = [6]uint32{2, 1, 0, 3, 1, 2}
)

// faceLight: постоянная освещённость граней по направлениям
var faceLight = [block.DirectionCount]float32{
	block.Up:    1.0,
	block.Down:  0.25,
	block.North: 0.5,
	block.South: 0.5,
	block.West:  0.75,
	block.East:  0.25,
}

// corner: смещение вершины от центра грани и выбор UV
type corner struct {
	offset mgl32.Vec3
	second bool    // true: u1, иначе u0
	v      float32 // координата v
}

// Шаблоны граней: A, B, C, D
var (
	// Up/Down: плоскость XZ
	templateUD = [4]corner{
		{mgl32.Vec3{-0.5, 0, 0.5}, false, 1},
		{mgl32.Vec3{0.5, 0, 0.5}, true, 1},
		{mgl32.Vec3{-0.5, 0, -0.5}, false, 0},
		{mgl32.Vec3{0.5, 0, -0.5}, true, 0},
	}
	// North/South: плоскость XY
	templateNS = [4]corner{
		{mgl32.Vec3{-0.5, 0.5, 0}, true, 0},
		{mgl32.Vec3{0.5, 0.5, 0}, false, 0},
		{mgl32.Vec3{-0.5, -0.5, 0}, true, 1},
		{mgl32.Vec3{0.5, -0.5, 0}, false, 1},
	}
	// West/East: плоскость YZ
	templateWE = [4]corner{
		{mgl32.Vec3{0, 0.5, -0.5}, true, 0},
		{mgl32.Vec3{0, 0.5, 0.5}, false, 0},
		{mgl32.Vec3{0, -0.5, -0.5}, true, 1},
		{mgl32.Vec3{0, -0.5, 0.5}, false, 1},
	}
)

// BlockQuad строит грань блока с центром ячейки center в направлении dir.
// Грань сдвинута на полблока вдоль нормали; quadIndex: порядковый номер грани в меше.
func BlockQuad(center mgl32.Vec3, dir block.Direction, texture uint32, increment float32, quadIndex uint32) Quad {
	pos := center.Add(dir.Offset().ToFloat().Mul(0.5))
	return newQuad(pos, dir, texture, increment, faceLight[dir], quadIndex)
}

// SkyQuad строит грань неба вокруг точки center.
// Грань сдвинута против нормали, текстура берётся по порядковому номеру направления.
func SkyQuad(center mgl32.Vec3, dir block.Direction, quadIndex uint32) Quad {
	pos := center.Sub(dir.Offset().ToFloat().Mul(0.5))
	return newQuad(pos, dir, uint32(dir.ID()), SkyIncrement, 1.0, quadIndex)
}

func newQuad(pos mgl32.Vec3, dir block.Direction, texture uint32, increment, light float32, quadIndex uint32) Quad {
	u0 := float32(texture) * increment
	u1 := float32(texture+1) * increment

	var template *[4]corner
	switch dir {
	case block.Up, block.Down:
		template = &templateUD
	case block.North, block.South:
		template = &templateNS
	default:
		template = &templateWE
	}

	var q Quad
	for i, c := range template {
		u := u0
		if c.second {
			u = u1
		}
		q.Vertices[i] = Vertex{
			Position:  pos.Add(c.offset),
			TexCoords: mgl32.Vec2{u, c.v},
			Light:     light,
		}
	}

	winding := windingForward
	switch dir {
	case block.Down, block.South, block.East:
		winding = windingBackward
	}
	base := quadIndex * 4
	for i, idx := range winding {
		q.Indices[i] = base + idx
	}
	return q
}
