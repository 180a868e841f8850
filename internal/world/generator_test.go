package world

import (
	"testing"

	"github.com/annel0/voxelworld/internal/vec"
	"github.com/annel0/voxelworld/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewWorldGenerator(777)
	b := NewWorldGenerator(777)
	assert.Equal(t, int64(777), a.Seed())

	for _, coords := range []vec.Vec3{{}, {X: -3, Y: 1, Z: 2}, {X: 5, Y: -2, Z: -7}} {
		ca := a.GenerateChunk(coords)
		cb := b.GenerateChunk(coords)
		assert.Equal(t, coords, ca.Coords)
		assert.Equal(t, ca.Blocks(), cb.Blocks(), "чанк %s должен генерироваться одинаково", coords)
		assert.Equal(t, a.Biome(coords), b.Biome(coords))
	}
}

func TestGeneratorFixedFill(t *testing.T) {
	wg := NewWorldGenerator(99)
	wg.Fill = block.Sand

	for _, id := range wg.GenerateChunk(vec.Vec3{X: 1, Y: 0, Z: 1}).Blocks() {
		if id != block.Air && id != block.Sand {
			t.Fatalf("Ожидался только песок, получен %d", id)
		}
	}
}

func TestGeneratorFlatMode(t *testing.T) {
	wg := NewWorldGenerator(1)
	wg.Mode = ModeFlat

	surface := wg.GenerateChunk(vec.Vec3{X: 3, Y: 0, Z: -2})
	assert.Equal(t, block.Grass, surface.Get(vec.Vec3{X: 0, Y: Size - 1, Z: 0}))
	assert.Equal(t, block.Stone, surface.Get(vec.Vec3{X: 0, Y: 0, Z: 0}))

	assert.Equal(t, Volume, wg.GenerateChunk(vec.Vec3{Y: -1}).Count())
	assert.True(t, wg.GenerateChunk(vec.Vec3{Y: 1}).IsEmpty())
}

func TestParseGeneratorMode(t *testing.T) {
	mode, err := ParseGeneratorMode("flat")
	require.NoError(t, err)
	assert.Equal(t, ModeFlat, mode)

	mode, err = ParseGeneratorMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeProcedural, mode)

	_, err = ParseGeneratorMode("caves")
	assert.Error(t, err)
}

func TestGeneratorCheckCatalog(t *testing.T) {
	// Набор без песка: пустынный биом сорвал бы сборку меша
	var withoutSand []block.Type
	for _, bt := range block.DefaultTypes() {
		if bt.ID != block.Sand {
			withoutSand = append(withoutSand, bt)
		}
	}
	catalog := block.NewCatalog()
	require.NoError(t, catalog.Init(withoutSand))

	wg := NewWorldGenerator(5)
	assert.Contains(t, wg.Palette(), block.Sand)
	assert.ErrorIs(t, wg.CheckCatalog(catalog), block.ErrUnknownBlock)

	wg.Mode = ModeFlat
	assert.NoError(t, wg.CheckCatalog(catalog), "плоский мир песок не использует")

	wg.Mode = ModeProcedural
	wg.Fill = block.Stone
	assert.Equal(t, []block.ID{block.Stone}, wg.Palette())
	assert.NoError(t, wg.CheckCatalog(catalog))

	assert.NoError(t, NewWorldGenerator(5).CheckCatalog(block.NewDefaultCatalog()))
}
