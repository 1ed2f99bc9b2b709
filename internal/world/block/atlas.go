package block

import "github.com/annel0/voxel-stream/internal/vec"

// Atlas описывает общую текстурную карту: размер изображения и размер ячейки в пикселях
type Atlas struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
	Cell   float32 `yaml:"cell"`
}

// DefaultAtlas - атлас 384x784 с ячейками 16x16
func DefaultAtlas() Atlas {
	return Atlas{Width: 384, Height: 784, Cell: 16}
}

// AtlasCell - якорная ячейка атласа (столбец, строка)
type AtlasCell struct {
	U, V float32
}

// UVQuad - текстурные координаты четырёх углов грани
type UVQuad struct {
	A, B, C, D vec.Vec2f
}

// UV отображает ячейку атласа в текстурные координаты.
// Масштаб блока растягивает выборку по ширине и высоте ячейки.
func (a Atlas) UV(cell AtlasCell, scaleX, scaleY float32) UVQuad {
	uw := a.Cell / a.Width
	uh := a.Cell / a.Height

	xMax := (cell.U + scaleX) * uw
	yMax := cell.V * uh
	xMin := cell.U * uw
	yMin := (cell.V + scaleY) * uh

	return UVQuad{
		A: vec.Vec2f{X: xMin, Y: yMin},
		B: vec.Vec2f{X: xMax, Y: yMin},
		C: vec.Vec2f{X: xMax, Y: yMax},
		D: vec.Vec2f{X: xMin, Y: yMax},
	}
}
