package main

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-stream/internal/api"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
)

type frameLoop struct {
	observer  vec.Vec3Float
	speed     float64
	frameRate int
	limit     int // 0 - без ограничения
}

// runFrames - цикл кадров: наблюдатель движется вдоль +X, менеджер
// догружает чанки, раз в секунду публикуется снимок для API
func runFrames(ctx context.Context, manager *world.StreamingManager, renderer *countingRenderer, board *api.ChunkBoard, loop frameLoop) {
	ticker := time.NewTicker(time.Second / time.Duration(loop.frameRate))
	defer ticker.Stop()

	observer := loop.observer
	logging.Info("🎥 Наблюдатель стартует из (%.1f, %.1f, %.1f)", observer.X, observer.Y, observer.Z)

	for frame := 1; loop.limit == 0 || frame <= loop.limit; frame++ {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения")
			return
		case <-ticker.C:
		}

		observer.X += loop.speed
		stats := manager.Update(observer)
		manager.Render()

		if stats.Promoted {
			logging.Debug("⬆️ Кадр %d: чанк %s активен (%d всего)", frame, stats.Coord, stats.Active)
		}
		if frame%loop.frameRate == 0 {
			board.Publish(snapshotChunks(manager))
			logging.Info("📊 Кадр %d: центр %s, активных %d, %s", frame, stats.Center, stats.Active, renderer)
		}
	}
}

func snapshotChunks(manager *world.StreamingManager) []api.ChunkInfo {
	chunks := make([]api.ChunkInfo, 0, manager.ActiveCount())
	manager.ForEachActive(func(c *world.Chunk) {
		highest, _ := c.Highest()
		chunks = append(chunks, api.ChunkInfo{
			X:       c.Coord.X,
			Z:       c.Coord.Z,
			Faces:   c.FaceCount(),
			Lights:  len(c.Lights()),
			Highest: highest,
		})
	})
	return chunks
}

// String - краткая сводка рендера для логов
func (r *countingRenderer) String() string {
	return fmt.Sprintf("загружено граней %d, отрисовок %d", r.Faces(), r.Draws())
}
