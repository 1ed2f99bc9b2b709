package main

import (
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/mesh"
	"github.com/google/uuid"
)

// countingRenderer заменяет GPU в headless-режиме: выдаёт UUID-дескрипторы
// и считает загрузки и отрисовки. Вызывается только из потока кадра.
type countingRenderer struct {
	meshes map[uuid.UUID]int // дескриптор -> количество граней
	faces  int
	draws  int
}

func newCountingRenderer() *countingRenderer {
	return &countingRenderer{meshes: make(map[uuid.UUID]int)}
}

func (r *countingRenderer) Upload(m *mesh.Mesh) world.RenderHandle {
	id := uuid.New()
	r.meshes[id] = m.FaceCount()
	r.faces += m.FaceCount()
	return id
}

func (r *countingRenderer) Draw(handle world.RenderHandle, _ vec.Mat4) {
	if id, ok := handle.(uuid.UUID); ok {
		if _, loaded := r.meshes[id]; loaded {
			r.draws++
		}
	}
}

func (r *countingRenderer) Release(handle world.RenderHandle) {
	id, ok := handle.(uuid.UUID)
	if !ok {
		return
	}
	r.faces -= r.meshes[id]
	delete(r.meshes, id)
}

// Faces возвращает количество граней в загруженных мешах
func (r *countingRenderer) Faces() int { return r.faces }

// Draws возвращает общее количество вызовов отрисовки
func (r *countingRenderer) Draws() int { return r.draws }
