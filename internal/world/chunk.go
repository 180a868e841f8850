package world

import (
	"github.com/annel0/voxelworld/internal/util"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
)

// Размеры чанка
const (
	// Size: длина ребра чанка в блоках
	Size = 16
	// HalfSize: половина ребра, чанк центрирован на своём якоре
	HalfSize = Size / 2
	// Volume: количество ячеек в чанке
	Volume = Size * Size * Size
)

// Параметры процедурной генерации
const (
	noiseJitter    = 0.1  // Дробный сдвиг, чтобы не попадать в узлы решётки шума
	noiseFrequency = 16.0 // Делитель частоты: чем больше, тем крупнее формы
	noiseThreshold = 0.05 // Ячейка заполнена, если шум выше порога
)

// Chunk представляет куб мира Size×Size×Size блоков.
// Блоки хранятся плоским массивом с индексом x·Size² + y·Size + z.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка (в чанках, не в блоках)

	blocks [Volume]block.ID
}

// NewChunk создаёт пустой чанк (все ячейки: воздух)
func NewChunk(coords vec.Vec3) *Chunk {
	return &Chunk{Coords: coords}
}

// NewFilledChunk создаёт чанк, целиком заполненный одним блоком
func NewFilledChunk(coords vec.Vec3, id block.ID) *Chunk {
	c := NewChunk(coords)
	for i := range c.blocks {
		c.blocks[i] = id
	}
	return c
}

// NewLayeredChunk создаёт слоистый чанк: верхний слой surface,
// от двух третей высоты shallow, ниже deep.
func NewLayeredChunk(coords vec.Vec3, surface, shallow, deep block.ID) *Chunk {
	c := NewChunk(coords)
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			id := deep
			switch {
			case y == Size-1:
				id = surface
			case y >= Size*2/3:
				id = shallow
			}
			for z := 0; z < Size; z++ {
				c.blocks[index(x, y, z)] = id
			}
		}
	}
	return c
}

// NewProceduralChunk заполняет чанк по трёхмерному шуму: ячейка получает fill,
// если значение шума в её мировых координатах выше порога.
// Один и тот же сид и одни и те же координаты всегда дают одинаковую сетку.
func NewProceduralChunk(coords vec.Vec3, noise *util.Noise, fill block.ID) *Chunk {
	c := NewChunk(coords)
	origin := c.Anchor().Sub(vec.Vec3{X: HalfSize, Y: HalfSize, Z: HalfSize})

	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			for z := 0; z < Size; z++ {
				wx := (float64(origin.X+x) + noiseJitter) / noiseFrequency
				wy := (float64(origin.Y+y) + noiseJitter) / noiseFrequency
				wz := (float64(origin.Z+z) + noiseJitter) / noiseFrequency

				if noise.Noise3D(wx, wy, wz) > noiseThreshold {
					c.blocks[index(x, y, z)] = fill
				}
			}
		}
	}
	return c
}

// Anchor возвращает мировые координаты якоря (центра) чанка
func (c *Chunk) Anchor() vec.Vec3 {
	return c.Coords.Scale(Size)
}

// Get возвращает блок по локальным координатам; вне чанка: воздух
func (c *Chunk) Get(local vec.Vec3) block.ID {
	if !inBounds(local) {
		return block.Air
	}
	return c.blocks[index(local.X, local.Y, local.Z)]
}

// Set записывает блок по локальным координатам; вне чанка ничего не делает
func (c *Chunk) Set(local vec.Vec3, id block.ID) {
	if !inBounds(local) {
		return
	}
	c.blocks[index(local.X, local.Y, local.Z)] = id
}

// GetGlobal возвращает блок по мировым координатам
func (c *Chunk) GetGlobal(pos vec.Vec3) block.ID {
	return c.Get(c.ToLocal(pos))
}

// SetGlobal записывает блок по мировым координатам
func (c *Chunk) SetGlobal(pos vec.Vec3, id block.ID) {
	c.Set(c.ToLocal(pos), id)
}

// ToLocal переводит мировые координаты в локальные координаты этого чанка
func (c *Chunk) ToLocal(pos vec.Vec3) vec.Vec3 {
	return pos.Sub(c.Anchor()).Add(vec.Vec3{X: HalfSize, Y: HalfSize, Z: HalfSize})
}

// ToGlobal переводит локальные координаты в мировые
func (c *Chunk) ToGlobal(local vec.Vec3) vec.Vec3 {
	return local.Add(c.Anchor()).Sub(vec.Vec3{X: HalfSize, Y: HalfSize, Z: HalfSize})
}

// Contains проверяет, лежит ли мировая ячейка внутри чанка
func (c *Chunk) Contains(pos vec.Vec3) bool {
	return inBounds(c.ToLocal(pos))
}

// IsEmpty сообщает, что в чанке нет ни одного твёрдого блока
func (c *Chunk) IsEmpty() bool {
	for _, id := range c.blocks {
		if id != block.Air {
			return false
		}
	}
	return true
}

// Count возвращает количество непустых ячеек
func (c *Chunk) Count() int {
	n := 0
	for _, id := range c.blocks {
		if id != block.Air {
			n++
		}
	}
	return n
}

// Blocks возвращает копию плоского массива блоков
func (c *Chunk) Blocks() [Volume]block.ID {
	return c.blocks
}

// ChunkCoords возвращает координаты чанка, которому принадлежит мировая ячейка
func ChunkCoords(pos vec.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: vec.FloorDiv(pos.X+HalfSize, Size),
		Y: vec.FloorDiv(pos.Y+HalfSize, Size),
		Z: vec.FloorDiv(pos.Z+HalfSize, Size),
	}
}

func index(x, y, z int) int {
	return x*Size*Size + y*Size + z
}

func inBounds(local vec.Vec3) bool {
	return local.X >= 0 && local.X < Size &&
		local.Y >= 0 && local.Y < Size &&
		local.Z >= 0 && local.Z < Size
}
