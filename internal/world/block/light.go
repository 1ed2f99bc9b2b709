package block

import "github.com/annel0/voxel-stream/internal/vec"

// Light - точечный источник света, который отдаётся отложенному освещению
type Light struct {
	Color    vec.Vec3f // 0..1
	Strength float32
	Position vec.Vec3f
	Type     BlockType
}
