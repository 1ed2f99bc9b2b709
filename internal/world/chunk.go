package world

import (
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/annel0/voxel-stream/internal/world/mesh"
)

// Chunk - сгенерированный столбец блоков вместе с его мешем.
// После постройки не изменяется; отдаётся рендеру только через StreamingManager.
type Chunk struct {
	Coord  ChunkCoord
	Volume *block.Volume
	Mesh   *mesh.Mesh

	lights []block.Light
}

// Size возвращает размер основания чанка
func (c *Chunk) Size() int {
	return c.Volume.Size()
}

// Model возвращает матрицу переноса из локальных координат чанка в мировые
func (c *Chunk) Model() vec.Mat4 {
	o := c.Coord.Origin(c.Size())
	return vec.Translation(float32(o.X), float32(o.Y), float32(o.Z))
}

// Highest возвращает высоту самого верхнего непустого блока
func (c *Chunk) Highest() (int, bool) {
	best, found := block.FloorY-1, false
	c.Volume.ForEach(func(_, y, _ int, t block.BlockType) {
		if t != block.Air && y > best {
			best, found = y, true
		}
	})
	return best, found
}

// FaceCount возвращает количество граней меша
func (c *Chunk) FaceCount() int {
	return c.Mesh.FaceCount()
}

// Lights возвращает источники света чанка в мировых координатах
func (c *Chunk) Lights() []block.Light {
	return c.lights
}

// ChunkFactory строит готовый чанк по координате. Вызывается из воркеров,
// поэтому реализация должна быть безопасна для параллельного использования.
type ChunkFactory interface {
	Build(coord ChunkCoord) *Chunk
}

// ChunkGenerator - рабочая фабрика: ландшафт, затем меш
type ChunkGenerator struct {
	registry *block.Registry
	terrain  *TerrainGenerator
	builder  *mesh.Builder
	cache    VolumeCache
}

// NewChunkGenerator создаёт фабрику чанков
func NewChunkGenerator(registry *block.Registry, terrain *TerrainGenerator) *ChunkGenerator {
	return &ChunkGenerator{
		registry: registry,
		terrain:  terrain,
		builder:  mesh.NewBuilder(registry),
	}
}

// WithCache подключает кэш объёмов. Ошибки кэша не прерывают генерацию.
func (g *ChunkGenerator) WithCache(cache VolumeCache) *ChunkGenerator {
	g.cache = cache
	return g
}

// Build генерирует объём, строит меш и собирает источники света
func (g *ChunkGenerator) Build(coord ChunkCoord) *Chunk {
	volume := g.volume(coord)
	return NewChunk(coord, volume, g.builder.Build(volume), g.registry)
}

func (g *ChunkGenerator) volume(coord ChunkCoord) *block.Volume {
	if g.cache == nil {
		return g.terrain.Populate(coord)
	}

	volume, ok, err := g.cache.LoadVolume(coord)
	if err != nil {
		logging.Warn("⚠️ Кэш чанка %s не прочитан: %v", coord, err)
	}
	if ok && volume.Size() == g.terrain.ChunkSize() && volume.Height() == g.terrain.ChunkHeight() {
		return volume
	}

	volume = g.terrain.Populate(coord)
	if err := g.cache.StoreVolume(coord, volume); err != nil {
		logging.Warn("⚠️ Чанк %s не записан в кэш: %v", coord, err)
	}
	return volume
}

// NewChunk собирает чанк из готового объёма и меша
func NewChunk(coord ChunkCoord, volume *block.Volume, m *mesh.Mesh, registry *block.Registry) *Chunk {
	c := &Chunk{Coord: coord, Volume: volume, Mesh: m}
	origin := coord.Origin(volume.Size())

	volume.ForEach(func(x, y, z int, t block.BlockType) {
		if t == block.Air {
			return
		}
		pos := vec.Vec3f{
			X: float32(origin.X + x),
			Y: float32(y),
			Z: float32(origin.Z + z),
		}
		if light, ok := registry.Get(t).Light(pos); ok {
			c.lights = append(c.lights, light)
		}
	})
	return c
}
