package api

import (
	"sync/atomic"
	"time"
)

// ChunkInfo - краткое описание активного чанка для /chunks
type ChunkInfo struct {
	X       int `json:"x"`
	Z       int `json:"z"`
	Faces   int `json:"faces"`
	Lights  int `json:"lights"`
	Highest int `json:"highest"`
}

// ChunkBoard - снимок активных чанков, публикуемый потоком кадра.
// Сама карта активных чанков принадлежит потоку кадра, поэтому API
// читает только последний опубликованный снимок.
type ChunkBoard struct {
	snapshot atomic.Pointer[boardSnapshot]
}

type boardSnapshot struct {
	chunks    []ChunkInfo
	updatedAt time.Time
}

// Publish заменяет снимок. Срез после вызова изменять нельзя.
func (b *ChunkBoard) Publish(chunks []ChunkInfo) {
	b.snapshot.Store(&boardSnapshot{chunks: chunks, updatedAt: time.Now()})
}

// Load возвращает последний снимок и время публикации
func (b *ChunkBoard) Load() ([]ChunkInfo, time.Time) {
	s := b.snapshot.Load()
	if s == nil {
		return nil, time.Time{}
	}
	return s.chunks, s.updatedAt
}
