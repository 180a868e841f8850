// Package render превращает чанки в геометрию для GPU: вершины и индексы,
// содержащие только видимые снаружи грани.
package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// VertexSize: размер вершины в байтах (3 + 2 + 1 float32), совпадает с раскладкой буфера
const VertexSize = 24

// Vertex: вершина в раскладке вершинного буфера (позиция, UV, освещённость)
type Vertex struct {
	Position  mgl32.Vec3
	TexCoords mgl32.Vec2
	Light     float32
}

// Quad: грань из четырёх вершин и шести индексов (два треугольника)
type Quad struct {
	Vertices [4]Vertex
	Indices  [6]uint32
}

// Mesh: готовая к загрузке геометрия чанка
type Mesh struct {
	Vertices   []Vertex
	Indices    []uint32
	IndexCount uint32
}

// NewMesh создаёт пустой меш с запасом под quads граней
func NewMesh(quads int) *Mesh {
	return &Mesh{
		Vertices: make([]Vertex, 0, quads*4),
		Indices:  make([]uint32, 0, quads*6),
	}
}

// Append добавляет грань в меш
func (m *Mesh) Append(q Quad) {
	m.Vertices = append(m.Vertices, q.Vertices[:]...)
	m.Indices = append(m.Indices, q.Indices[:]...)
	m.IndexCount = uint32(len(m.Indices))
}

// QuadCount возвращает количество граней
func (m *Mesh) QuadCount() int {
	return len(m.Vertices) / 4
}

// IsEmpty сообщает, что в меше нет ни одной грани
func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}
