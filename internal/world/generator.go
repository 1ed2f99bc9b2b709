package world

import (
	"github.com/annel0/voxel-stream/internal/util"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// Смещение выборки шума признаков, чтобы не попадать в узлы решётки Перлина
const (
	featureOffsetX = 0.33
	featureOffsetY = 0.11
	featureOffsetZ = 0.33
)

// TerrainConfig - параметры генерации ландшафта
type TerrainConfig struct {
	ChunkSize   int
	ChunkHeight int
	Height      util.NoiseParams // 2D поле высот
	Feature     util.NoiseParams // 3D поле признаков (руды, породы)
}

// DefaultTerrainConfig возвращает параметры по умолчанию для сида
func DefaultTerrainConfig(seed int64) TerrainConfig {
	return TerrainConfig{
		ChunkSize:   16,
		ChunkHeight: 32,
		Height: util.NoiseParams{
			Seed:      seed,
			Alpha:     2,
			Beta:      2,
			Octaves:   3,
			Frequency: 0.05,
		},
		Feature: util.NoiseParams{
			Seed:      seed + 1,
			Alpha:     2,
			Beta:      2,
			Octaves:   2,
			Frequency: 0.028,
		},
	}
}

// TerrainGenerator детерминированно вычисляет тип блока по мировым координатам.
// Состояния не имеет, поэтому один экземпляр обслуживает все воркеры.
type TerrainGenerator struct {
	registry *block.Registry
	size     int
	height   int
	heights  *util.NoiseField
	features *util.NoiseField
}

// NewTerrainGenerator создаёт генератор поверх реестра блоков
func NewTerrainGenerator(registry *block.Registry, cfg TerrainConfig) *TerrainGenerator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 16
	}
	if cfg.ChunkHeight <= 0 {
		cfg.ChunkHeight = 32
	}
	return &TerrainGenerator{
		registry: registry,
		size:     cfg.ChunkSize,
		height:   cfg.ChunkHeight,
		heights:  util.NewNoiseField(cfg.Height),
		features: util.NewNoiseField(cfg.Feature),
	}
}

// ChunkSize возвращает размер основания чанка
func (g *TerrainGenerator) ChunkSize() int { return g.size }

// ChunkHeight возвращает высоту чанка
func (g *TerrainGenerator) ChunkHeight() int { return g.height }

// ColumnHeight возвращает высоту столбца в [0, ChunkHeight)
func (g *TerrainGenerator) ColumnHeight(wx, wz int) int {
	h := int(g.heights.Unit2D(float64(wx), float64(wz)) * float64(g.height))
	return min(max(h, 0), g.height-1)
}

// Feature возвращает значение поля признаков в [0, 1)
func (g *TerrainGenerator) Feature(wx, wy, wz int) float64 {
	return g.features.Magnitude3D(
		float64(wx)+featureOffsetX,
		float64(wy)+featureOffsetY,
		float64(wz)+featureOffsetZ,
	)
}

// BlockAt возвращает тип блока в мировой точке без учёта пост-обработки поверхности
func (g *TerrainGenerator) BlockAt(wx, wy, wz int) block.BlockType {
	switch {
	case wy == block.FloorY:
		return block.Bedrock
	case wy < block.FloorY || wy >= g.height:
		return block.Air
	}
	if wy > g.ColumnHeight(wx, wz) {
		return block.Air
	}
	return g.registry.NaturalAt(wy, g.Feature(wx, wy, wz))
}

// Populate заполняет объём чанка и помечает поверхность
func (g *TerrainGenerator) Populate(coord ChunkCoord) *block.Volume {
	volume := block.NewVolume(g.size, g.height)
	origin := coord.Origin(g.size)

	for x := 0; x < g.size; x++ {
		for z := 0; z < g.size; z++ {
			wx, wz := origin.X+x, origin.Z+z
			for y := block.FloorY; y < g.height; y++ {
				volume.Set(x, y, z, g.BlockAt(wx, y, wz))
			}
		}
	}

	relabelSurface(volume)
	return volume
}

// relabelSurface заменяет самый высокий блок земли в чанке на траву.
// При равной высоте побеждает первый в порядке обхода x, z.
func relabelSurface(volume *block.Volume) (x, y, z int, ok bool) {
	best := block.FloorY - 1
	volume.ForEach(func(bx, by, bz int, t block.BlockType) {
		if t == block.Dirt && by > best {
			best = by
			x, y, z = bx, by, bz
			ok = true
		}
	})
	if ok {
		volume.Set(x, y, z, block.Grass)
	}
	return x, y, z, ok
}
