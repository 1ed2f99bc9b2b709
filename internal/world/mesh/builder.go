package mesh

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// Builder строит поверхностный меш объёма с отсечением невидимых граней.
// Реестр только читается, поэтому один Builder можно использовать из нескольких воркеров.
type Builder struct {
	registry *block.Registry
}

// NewBuilder создаёт построитель мешей поверх реестра блоков
func NewBuilder(registry *block.Registry) *Builder {
	return &Builder{registry: registry}
}

// Build обходит объём и выдаёт грани, через которые блок может быть виден.
// Соседи за пределами объёма считаются воздухом: границы чанка всегда рисуются.
func (b *Builder) Build(volume *block.Volume) *Mesh {
	m := &Mesh{}
	air := b.registry.Get(block.Air)

	volume.ForEach(func(x, y, z int, t block.BlockType) {
		if t == block.Air {
			return
		}
		md := b.registry.Get(t)
		alwaysVisible := md.HasNonUnitScale()

		for i := range faceTable {
			def := &faceTable[i]
			if !alwaysVisible {
				neighbor := air
				if nt, ok := volume.Get(x+def.neighbor[0], y+def.neighbor[1], z+def.neighbor[2]); ok {
					neighbor = b.registry.Get(nt)
				}
				if neighbor.Opaque {
					continue
				}
			}
			b.appendFace(m, def, md, x, y, z)
		}
	})

	return m
}

func (b *Builder) appendFace(m *Mesh, def *faceDef, md *block.Metadata, x, y, z int) {
	base := uint32(len(m.Vertices))
	origin := vec.Vec3f{X: float32(x), Y: float32(y), Z: float32(z)}
	scale := md.Scale()

	var uv [VerticesPerFace]vec.Vec2f
	if cell, ok := md.Texture(def.face); ok {
		q := b.registry.Atlas().UV(cell, md.HorizontalScale(), md.VerticalScale())
		uv = [VerticesPerFace]vec.Vec2f{q.A, q.B, q.C, q.D}
	}

	for i, corner := range def.corners {
		m.Vertices = append(m.Vertices, Vertex{
			Position: corner.MulComp(scale).Add(origin),
			UV:       uv[i],
			Normal:   def.normal,
		})
	}
	for _, idx := range def.indices {
		m.Indices = append(m.Indices, base+idx)
	}
}
