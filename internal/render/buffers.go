package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxelworld/internal/vec"
)

// BufferHandle: идентификатор пары буферов (вершины + индексы) на стороне потребителя
type BufferHandle struct {
	ID         uint64
	IndexCount uint32
}

// Uploader: внешний потребитель геометрии (GPU или удалённый клиент)
type Uploader interface {
	Upload(vertices []Vertex, indices []uint32, indexCount uint32) (BufferHandle, error)
	Release(h BufferHandle)
}

type bufferEntry struct {
	handle  BufferHandle
	mesh    *Mesh
	version uint64
}

// BufferCache хранит загруженные буферы по координатам чанков.
// Замена атомарна для читателя: старый буфер освобождается только после загрузки нового.
type BufferCache struct {
	uploader Uploader
	entries  map[vec.Vec3]bufferEntry
	version  uint64 // растёт с каждой установкой
	mu       sync.RWMutex
}

// NewBufferCache создаёт кэш буферов поверх загрузчика
func NewBufferCache(uploader Uploader) *BufferCache {
	return &BufferCache{
		uploader: uploader,
		entries:  make(map[vec.Vec3]bufferEntry),
	}
}

// Install загружает меш чанка и подменяет им предыдущий.
// Пустой меш просто освобождает старые буферы.
// При ошибке загрузки остаётся прежний буфер.
func (c *BufferCache) Install(key vec.Vec3, mesh *Mesh) error {
	if mesh == nil || mesh.IsEmpty() {
		c.Remove(key)
		return nil
	}

	handle, err := c.uploader.Upload(mesh.Vertices, mesh.Indices, mesh.IndexCount)
	if err != nil {
		return fmt.Errorf("загрузка буферов чанка %s: %w", key, err)
	}

	c.mu.Lock()
	old, had := c.entries[key]
	c.version++
	c.entries[key] = bufferEntry{handle: handle, mesh: mesh, version: c.version}
	c.mu.Unlock()

	if had {
		c.uploader.Release(old.handle)
	}
	return nil
}

// Remove освобождает буферы чанка; возвращает false, если их не было
func (c *BufferCache) Remove(key vec.Vec3) bool {
	c.mu.Lock()
	old, had := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if had {
		c.uploader.Release(old.handle)
	}
	return had
}

// Handle возвращает текущий буфер чанка
func (c *BufferCache) Handle(key vec.Vec3) (BufferHandle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.handle, ok
}

// Mesh возвращает меш, из которого загружен текущий буфер. Меш не изменяется после сборки.
func (c *BufferCache) Mesh(key vec.Vec3) (*Mesh, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.mesh, ok
}

// Snapshot возвращает меш чанка вместе с номером его установки.
// Номер уникален для каждой установки, по нему можно кешировать производные данные.
func (c *BufferCache) Snapshot(key vec.Vec3) (*Mesh, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.mesh, e.version, ok
}

// Keys возвращает координаты чанков с буферами в отсортированном порядке
func (c *BufferCache) Keys() []vec.Vec3 {
	c.mu.RLock()
	keys := make([]vec.Vec3, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Len возвращает количество чанков с буферами
func (c *BufferCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// IndexCount возвращает суммарное число индексов во всех буферах
func (c *BufferCache) IndexCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total uint64
	for _, e := range c.entries {
		total += uint64(e.handle.IndexCount)
	}
	return total
}

// MemoryUploader: загрузчик без GPU: хранит только учёт буферов
type MemoryUploader struct {
	mu       sync.Mutex
	nextID   uint64
	live     map[uint64]uint32
	uploaded int
	released int
}

// NewMemoryUploader создаёт загрузчик в памяти
func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{live: make(map[uint64]uint32)}
}

// Upload регистрирует новую пару буферов
func (u *MemoryUploader) Upload(vertices []Vertex, indices []uint32, indexCount uint32) (BufferHandle, error) {
	if int(indexCount) != len(indices) {
		return BufferHandle{}, fmt.Errorf("число индексов %d не совпадает с длиной буфера %d", indexCount, len(indices))
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.nextID++
	u.live[u.nextID] = indexCount
	u.uploaded++
	return BufferHandle{ID: u.nextID, IndexCount: indexCount}, nil
}

// Release освобождает пару буферов
func (u *MemoryUploader) Release(h BufferHandle) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.live[h.ID]; ok {
		delete(u.live, h.ID)
		u.released++
	}
}

// Live возвращает количество неосвобождённых буферов
func (u *MemoryUploader) Live() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.live)
}

// Stats возвращает число загрузок и освобождений
func (u *MemoryUploader) Stats() (uploaded, released int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploaded, u.released
}
