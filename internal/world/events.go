package world

import (
	"context"
	"encoding/json"

	"github.com/annel0/voxel-stream/internal/eventbus"
)

// Типы событий жизненного цикла чанков
const (
	EventSource        = "streaming"
	EventChunkPromoted = "chunk.promoted"
	EventChunkEvicted  = "chunk.evicted"
	EventSpawnFound    = "spawn.found"
)

// ChunkEvent - полезная нагрузка событий chunk.*
type ChunkEvent struct {
	X      int         `json:"x"`
	Z      int         `json:"z"`
	Faces  int         `json:"faces,omitempty"`
	Center *ChunkCoord `json:"center,omitempty"`
}

// SpawnEvent - полезная нагрузка spawn.found
type SpawnEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SetEventBus подключает шину событий. Вызывать до Start.
// Публикация неблокирующая: при заполненной шине события теряются, кадр не ждёт.
func (sm *StreamingManager) SetEventBus(bus eventbus.EventBus) {
	sm.events = bus
}

func (sm *StreamingManager) publish(eventType string, payload any) {
	if sm.events == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Warn("⚠️ Событие %s не сериализовано: %v", eventType, err)
		return
	}
	if err := sm.events.Publish(context.Background(), eventbus.NewEnvelope(EventSource, eventType, data)); err != nil {
		sm.logger.Debug("Событие %s не опубликовано: %v", eventType, err)
	}
}
