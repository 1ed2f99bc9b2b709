package world

import (
	"sync"

	"github.com/annel0/voxel-stream/internal/vec"
)

// SpawnCell - ячейка точки спауна, записывается не более одного раза
type SpawnCell struct {
	mu  sync.RWMutex
	set bool
	pos vec.Vec3Float
}

// Set записывает позицию, если она ещё не задана. Возвращает true для первой записи.
func (s *SpawnCell) Set(pos vec.Vec3Float) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		return false
	}
	s.pos = pos
	s.set = true
	return true
}

// Get возвращает позицию и признак того, что она уже найдена
func (s *SpawnCell) Get() (vec.Vec3Float, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pos, s.set
}
