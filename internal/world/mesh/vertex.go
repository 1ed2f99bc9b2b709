package mesh

import "github.com/annel0/voxel-stream/internal/vec"

// Vertex - вершина меша: позиция относительно начала чанка, UV и нормаль грани
type Vertex struct {
	Position vec.Vec3f
	UV       vec.Vec2f
	Normal   vec.Vec3f
}
