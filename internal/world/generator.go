package world

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/util"
	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
)

// GeneratorMode определяет способ заполнения новых чанков при стриминге
type GeneratorMode string

const (
	// ModeProcedural: объёмный шум Перлина
	ModeProcedural GeneratorMode = "procedural"
	// ModeFlat: плоский слоистый мир, поверхность на уровне чанков Y=0
	ModeFlat GeneratorMode = "flat"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeMountains
)

// Пороги шума биомов
const (
	desertMax     = 0.35 // Ниже - пустыня
	mountainStart = 0.65 // Выше - горы
)

// WorldGenerator генерирует чанки для стриминга
type WorldGenerator struct {
	Mode       GeneratorMode
	Fill       block.ID // Блок процедурных чанков; Air: выбирать по биому
	BiomeScale float64  // Масштаб шума биомов (в чанках)

	noise *util.Noise
}

// NewWorldGenerator создаёт процедурный генератор мира с указанным сидом
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Mode:       ModeProcedural,
		Fill:       block.Air,
		BiomeScale: 0.15,
		noise:      util.NewNoise(seed),
	}
}

// ParseGeneratorMode разбирает имя режима из конфигурации
func ParseGeneratorMode(s string) (GeneratorMode, error) {
	switch GeneratorMode(s) {
	case ModeProcedural, ModeFlat:
		return GeneratorMode(s), nil
	case "":
		return ModeProcedural, nil
	}
	return "", fmt.Errorf("неизвестный режим генерации %q", s)
}

// Seed возвращает сид генератора
func (wg *WorldGenerator) Seed() int64 {
	return wg.noise.Seed()
}

// GenerateChunk генерирует чанк по его координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec3) *Chunk {
	if wg.Mode == ModeFlat {
		return wg.flatChunk(coords)
	}

	fill := wg.Fill
	if fill == block.Air {
		fill = wg.fillForBiome(wg.Biome(coords))
	}
	return NewProceduralChunk(coords, wg.noise, fill)
}

// Palette возвращает непустые блоки, которые генератор может выдать в текущем режиме
func (wg *WorldGenerator) Palette() []block.ID {
	switch {
	case wg.Mode == ModeFlat:
		return []block.ID{block.Grass, block.Dirt, block.Stone}
	case wg.Fill != block.Air:
		return []block.ID{wg.Fill}
	}
	return []block.ID{
		wg.fillForBiome(BiomePlains),
		wg.fillForBiome(BiomeDesert),
		wg.fillForBiome(BiomeMountains),
	}
}

// CheckCatalog проверяет, что каталог знает все блоки палитры. Иначе первый же
// такой чанк сорвал бы сборку меша в игровом цикле.
func (wg *WorldGenerator) CheckCatalog(catalog *block.Catalog) error {
	for _, id := range wg.Palette() {
		if !catalog.Has(id) {
			return fmt.Errorf("генератор %s выдаёт блок %d: %w", wg.Mode, id, block.ErrUnknownBlock)
		}
	}
	return nil
}

// Biome определяет биом столбца чанков по двумерному шуму
func (wg *WorldGenerator) Biome(coords vec.Vec3) BiomeType {
	// Смещение на половину, чтобы не попадать в узлы решётки
	v := wg.noise.Noise2D((float64(coords.X)+0.5)*wg.BiomeScale, (float64(coords.Z)+0.5)*wg.BiomeScale)

	switch {
	case v < desertMax:
		return BiomeDesert
	case v > mountainStart:
		return BiomeMountains
	}
	return BiomePlains
}

// flatChunk строит плоский мир: слой Y=0 слоистый, ниже сплошной камень, выше воздух
func (wg *WorldGenerator) flatChunk(coords vec.Vec3) *Chunk {
	switch {
	case coords.Y == 0:
		return NewLayeredChunk(coords, block.Grass, block.Dirt, block.Stone)
	case coords.Y < 0:
		return NewFilledChunk(coords, block.Stone)
	}
	return NewChunk(coords)
}

// fillForBiome возвращает основной блок для указанного биома
func (wg *WorldGenerator) fillForBiome(biome BiomeType) block.ID {
	switch biome {
	case BiomeDesert:
		return block.Sand
	case BiomeMountains:
		return block.Stone
	default:
		return block.Dirt
	}
}
