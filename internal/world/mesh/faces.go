package mesh

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
)

// faceDef - неизменяемое описание одной грани единичного вокселя
type faceDef struct {
	face     block.Face
	neighbor [3]int
	normal   vec.Vec3f
	corners  [VerticesPerFace]vec.Vec3f
	indices  [IndicesPerFace]uint32
}

// faceTable в порядке выдачи граней. Все треугольники обходятся против часовой
// стрелки, если смотреть снаружи вдоль нормали.
var faceTable = [block.FaceCount]faceDef{
	{
		face:     block.FaceRight,
		neighbor: [3]int{1, 0, 0},
		normal:   vec.Vec3f{X: 1},
		corners: [4]vec.Vec3f{
			{X: 0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: -0.5, Z: 0.5},
			{X: 0.5, Y: 0.5, Z: 0.5},
			{X: 0.5, Y: 0.5, Z: -0.5},
		},
		indices: [6]uint32{3, 2, 1, 1, 0, 3},
	},
	{
		face:     block.FaceLeft,
		neighbor: [3]int{-1, 0, 0},
		normal:   vec.Vec3f{X: -1},
		corners: [4]vec.Vec3f{
			{X: -0.5, Y: -0.5, Z: 0.5},
			{X: -0.5, Y: -0.5, Z: -0.5},
			{X: -0.5, Y: 0.5, Z: -0.5},
			{X: -0.5, Y: 0.5, Z: 0.5},
		},
		indices: [6]uint32{2, 0, 3, 0, 2, 1},
	},
	{
		face:     block.FaceTop,
		neighbor: [3]int{0, 1, 0},
		normal:   vec.Vec3f{Y: 1},
		corners: [4]vec.Vec3f{
			{X: -0.5, Y: 0.5, Z: -0.5},
			{X: 0.5, Y: 0.5, Z: -0.5},
			{X: 0.5, Y: 0.5, Z: 0.5},
			{X: -0.5, Y: 0.5, Z: 0.5},
		},
		indices: [6]uint32{3, 2, 1, 1, 0, 3},
	},
	{
		face:     block.FaceBottom,
		neighbor: [3]int{0, -1, 0},
		normal:   vec.Vec3f{Y: -1},
		corners: [4]vec.Vec3f{
			{X: -0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: -0.5, Z: 0.5},
			{X: -0.5, Y: -0.5, Z: 0.5},
		},
		indices: [6]uint32{0, 1, 2, 2, 3, 0},
	},
	{
		face:     block.FaceFront,
		neighbor: [3]int{0, 0, -1},
		normal:   vec.Vec3f{Z: -1},
		corners: [4]vec.Vec3f{
			{X: -0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: -0.5, Z: -0.5},
			{X: 0.5, Y: 0.5, Z: -0.5},
			{X: -0.5, Y: 0.5, Z: -0.5},
		},
		indices: [6]uint32{0, 2, 1, 2, 0, 3},
	},
	{
		face:     block.FaceBack,
		neighbor: [3]int{0, 0, 1},
		normal:   vec.Vec3f{Z: 1},
		corners: [4]vec.Vec3f{
			{X: -0.5, Y: -0.5, Z: 0.5},
			{X: 0.5, Y: -0.5, Z: 0.5},
			{X: 0.5, Y: 0.5, Z: 0.5},
			{X: -0.5, Y: 0.5, Z: 0.5},
		},
		indices: [6]uint32{0, 1, 2, 2, 3, 0},
	},
}
