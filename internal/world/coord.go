package world

import (
	"fmt"

	"github.com/annel0/voxel-stream/internal/vec"
)

// ChunkCoord - индекс чанка в бесконечной сетке по X и Z
type ChunkCoord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// ChunkCoordOf возвращает чанк, в котором находится мировая позиция.
// Отрицательные координаты округляются вниз: x=-1 лежит в чанке -1.
func ChunkCoordOf(pos vec.Vec3Float, chunkSize int) ChunkCoord {
	p := pos.Floor()
	return ChunkCoord{
		X: vec.FloorDiv(p.X, chunkSize),
		Z: vec.FloorDiv(p.Z, chunkSize),
	}
}

// Distance возвращает расстояние Чебышёва между чанками
func (c ChunkCoord) Distance(other ChunkCoord) int {
	dx := abs(c.X - other.X)
	dz := abs(c.Z - other.Z)
	return max(dx, dz)
}

// Origin возвращает мировую координату угла чанка с минимальными X и Z
func (c ChunkCoord) Origin(chunkSize int) vec.Vec3 {
	return vec.Vec3{X: c.X * chunkSize, Y: 0, Z: c.Z * chunkSize}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// ringOrder возвращает координаты в радиусе Чебышёва: сначала центр,
// затем кольца с растущим радиусом
func ringOrder(center ChunkCoord, radius int) []ChunkCoord {
	coords := make([]ChunkCoord, 0, (2*radius+1)*(2*radius+1))
	coords = append(coords, center)
	for r := 1; r <= radius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				if max(abs(dx), abs(dz)) != r {
					continue
				}
				coords = append(coords, ChunkCoord{X: center.X + dx, Z: center.Z + dz})
			}
		}
	}
	return coords
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
