package world

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/mesh"
)

// RenderHandle - непрозрачный дескриптор загруженного меша на стороне рендера
type RenderHandle any

// Renderer - внешний слой отображения. Все методы вызываются только из потока кадра.
type Renderer interface {
	// Upload загружает меш чанка и возвращает дескриптор
	Upload(m *mesh.Mesh) RenderHandle
	// Draw рисует загруженный меш с матрицей модели
	Draw(handle RenderHandle, model vec.Mat4)
}

// Releaser - необязательное расширение рендера для освобождения выгруженных чанков
type Releaser interface {
	Release(handle RenderHandle)
}

type nopRenderer struct{}

func (nopRenderer) Upload(*mesh.Mesh) RenderHandle { return nil }
func (nopRenderer) Draw(RenderHandle, vec.Mat4)    {}
