package util

import (
	"github.com/aquilax/go-perlin"
)

// Параметры шума Перлина
const (
	noiseAlpha   = 2.0 // Сглаживание шума
	noiseBeta    = 2.0 // Частота шума
	noiseOctaves = 3   // Количество октав
)

// Noise: детерминированное когерентное поле шума Перлина.
// Один и тот же сид всегда даёт одно и то же поле; экземпляр только читается,
// поэтому его можно разделять между генераторами.
type Noise struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoise создаёт поле шума с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		seed:   seed,
		perlin: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed),
	}
}

// Seed возвращает сид поля
func (n *Noise) Seed() int64 {
	return n.seed
}

// Noise3D возвращает значение шума в точке (примерно от -1 до 1).
// В целых узлах решётки шум Перлина равен нулю, поэтому вызывающему коду
// стоит смещать координаты на дробную величину.
func (n *Noise) Noise3D(x, y, z float64) float64 {
	return n.perlin.Noise3D(x, y, z)
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	// Получаем значение шума (от -1 до 1) и переводим в диапазон от 0 до 1
	return (n.perlin.Noise2D(x, y) + 1.0) / 2.0
}
