package world

import (
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockQuerier отвечает на запрос блока по мировым координатам
type BlockQuerier interface {
	GetBlock(pos vec.Vec3) block.ID
}

// RayHit описывает первое попадание луча в непустой блок
type RayHit struct {
	Position mgl32.Vec3 // Точка выборки, в которой найден блок
	Block    vec.Vec3   // Ячейка попадания
	ID       block.ID   // Тип блока
	Distance float32    // Пройденное вдоль луча расстояние
	Previous vec.Vec3   // Последняя пустая ячейка перед попаданием (для установки блока)
}

// Raycast шагает от origin в сторону target с шагом step до maxDistance
// и возвращает первый непустой блок. Вырожденный луч (нулевое направление
// или step <= 0) ничего не находит.
func Raycast(q BlockQuerier, origin, target mgl32.Vec3, step, maxDistance float32) (RayHit, bool) {
	dir := target.Sub(origin)
	if dir.Len() == 0 || step <= 0 {
		return RayHit{}, false
	}
	dir = dir.Normalize()

	previous := vec.FromFloat(origin)
	for k := 1; ; k++ {
		// k·step, а не накопление, чтобы не копить ошибку округления
		dist := float32(k) * step
		if dist > maxDistance {
			break
		}

		sample := origin.Add(dir.Mul(dist))
		cell := vec.FromFloat(sample)

		if id := q.GetBlock(cell); id != block.Air {
			return RayHit{
				Position: sample,
				Block:    cell,
				ID:       id,
				Distance: dist,
				Previous: previous,
			}, true
		}
		previous = cell
	}
	return RayHit{}, false
}
