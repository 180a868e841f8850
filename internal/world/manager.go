package world

import (
	"sort"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// Manager хранит загруженные чанки мира, по одному на координату.
// Менеджером владеет ровно одна горутина (игровой цикл), поэтому блокировок нет.
type Manager struct {
	chunks    map[vec.Vec3]*Chunk
	dirty     map[vec.Vec3]struct{}
	generator *WorldGenerator

	neighborCulling bool // Правки на границе помечают и соседний чанк
}

// NewManager создаёт пустой менеджер чанков с указанным генератором
func NewManager(generator *WorldGenerator) *Manager {
	return &Manager{
		chunks:    make(map[vec.Vec3]*Chunk),
		dirty:     make(map[vec.Vec3]struct{}),
		generator: generator,
	}
}

// SetNeighborCulling включает учёт соседних чанков при пометке «грязных» мешей.
// Нужно, когда меши строятся с отсечением граней по соседям.
func (m *Manager) SetNeighborCulling(enabled bool) {
	m.neighborCulling = enabled
}

// Generator возвращает генератор, которым пользуется стриминг
func (m *Manager) Generator() *WorldGenerator {
	return m.generator
}

// Add регистрирует чанк, заменяя любой чанк с теми же координатами
func (m *Manager) Add(c *Chunk) vec.Vec3 {
	key := c.Coords
	m.chunks[key] = c
	m.markDirty(key)

	if m.neighborCulling {
		for _, dir := range block.Directions {
			m.markDirty(key.Add(dir.Offset()))
		}
	}
	return key
}

// Remove удаляет чанк; возвращает false, если его не было
func (m *Manager) Remove(key vec.Vec3) bool {
	if _, ok := m.chunks[key]; !ok {
		return false
	}
	delete(m.chunks, key)
	delete(m.dirty, key)

	if m.neighborCulling {
		for _, dir := range block.Directions {
			m.markDirty(key.Add(dir.Offset()))
		}
	}
	return true
}

// Chunk возвращает чанк по его координатам
func (m *Manager) Chunk(key vec.Vec3) (*Chunk, bool) {
	c, ok := m.chunks[key]
	return c, ok
}

// ChunkAt возвращает чанк, содержащий мировую ячейку
func (m *Manager) ChunkAt(pos vec.Vec3) (*Chunk, bool) {
	return m.Chunk(ChunkCoords(pos))
}

// GetBlock возвращает блок в мировой ячейке; в незагруженной области: воздух
func (m *Manager) GetBlock(pos vec.Vec3) block.ID {
	c, ok := m.ChunkAt(pos)
	if !ok {
		return block.Air
	}
	return c.GetGlobal(pos)
}

// NeighborBlock возвращает блок для проверки граней на стыке чанков
func (m *Manager) NeighborBlock(pos vec.Vec3) block.ID {
	return m.GetBlock(pos)
}

// SetBlock записывает блок в мировую ячейку.
// Возвращает false, если ячейка не принадлежит ни одному загруженному чанку.
func (m *Manager) SetBlock(pos vec.Vec3, id block.ID) bool {
	c, ok := m.ChunkAt(pos)
	if !ok {
		return false
	}
	if c.GetGlobal(pos) == id {
		return true
	}

	c.SetGlobal(pos, id)
	m.markDirty(c.Coords)

	if m.neighborCulling {
		local := c.ToLocal(pos)
		for _, dir := range block.Directions {
			if !inBounds(local.Add(dir.Offset())) {
				m.markDirty(c.Coords.Add(dir.Offset()))
			}
		}
	}
	return true
}

// Stream догружает все отсутствующие чанки в кубе радиуса radius
// вокруг чанка, содержащего точку focus. Возвращает координаты созданных чанков.
func (m *Manager) Stream(focus mgl32.Vec3, radius int) []vec.Vec3 {
	center := ChunkCoords(vec.FromFloat(focus))
	var created []vec.Vec3

	for x := center.X - radius; x <= center.X+radius; x++ {
		for y := center.Y - radius; y <= center.Y+radius; y++ {
			for z := center.Z - radius; z <= center.Z+radius; z++ {
				key := vec.Vec3{X: x, Y: y, Z: z}
				if _, ok := m.chunks[key]; ok {
					continue
				}
				m.Add(m.generator.GenerateChunk(key))
				created = append(created, key)
			}
		}
	}
	return created
}

// Evict выгружает чанки дальше radius (по Чебышёву) от чанка с точкой focus.
// Возвращает координаты выгруженных чанков в отсортированном порядке.
func (m *Manager) Evict(focus mgl32.Vec3, radius int) []vec.Vec3 {
	center := ChunkCoords(vec.FromFloat(focus))
	var removed []vec.Vec3

	for key := range m.chunks {
		if key.ChebyshevDistance(center) > radius {
			removed = append(removed, key)
		}
	}
	sortKeys(removed)

	for _, key := range removed {
		m.Remove(key)
	}
	return removed
}

// MarkDirty помечает меш чанка для перестройки
func (m *Manager) MarkDirty(key vec.Vec3) {
	m.markDirty(key)
}

// IsDirty сообщает, ждёт ли чанк перестройки меша
func (m *Manager) IsDirty(key vec.Vec3) bool {
	_, ok := m.dirty[key]
	return ok
}

// TakeDirty забирает все «грязные» чанки в отсортированном порядке и очищает набор
func (m *Manager) TakeDirty() []vec.Vec3 {
	if len(m.dirty) == 0 {
		return nil
	}
	keys := make([]vec.Vec3, 0, len(m.dirty))
	for key := range m.dirty {
		keys = append(keys, key)
	}
	sortKeys(keys)
	m.dirty = make(map[vec.Vec3]struct{})
	return keys
}

// Len возвращает количество загруженных чанков
func (m *Manager) Len() int {
	return len(m.chunks)
}

// Keys возвращает координаты всех загруженных чанков в отсортированном порядке
func (m *Manager) Keys() []vec.Vec3 {
	keys := make([]vec.Vec3, 0, len(m.chunks))
	for key := range m.chunks {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// markDirty помечает только загруженные чанки
func (m *Manager) markDirty(key vec.Vec3) {
	if _, ok := m.chunks[key]; ok {
		m.dirty[key] = struct{}{}
	}
}

func sortKeys(keys []vec.Vec3) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
