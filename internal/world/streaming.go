package world

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/annel0/voxel-stream/internal/eventbus"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/voxel-stream/internal/world"

// spawnPollInterval - период опроса ячейки спауна в WaitSpawn
const spawnPollInterval = 10 * time.Millisecond

// StreamingConfig - параметры менеджера стриминга
type StreamingConfig struct {
	ChunkSize      int // размер основания чанка в блоках
	RenderDistance int // радиус Чебышёва вокруг чанка наблюдателя
	Workers        int // 0 - по числу CPU
	QueueSize      int // ёмкость канала задач, 0 - Workers*2
	EvictionMargin int // >0 включает выгрузку дальше RenderDistance+EvictionMargin
}

// FrameStats - итоги одного кадра
type FrameStats struct {
	Center    ChunkCoord
	Submitted int
	Rollbacks int
	Promoted  bool
	Coord     ChunkCoord // продвинутый чанк, если Promoted
	Evicted   int
	Active    int
}

type activeChunk struct {
	chunk  *Chunk
	handle RenderHandle
}

// StreamingManager управляет жизненным циклом чанков вокруг наблюдателя.
// Карта активных чанков принадлежит потоку кадра (Update, Render, ForEachActive)
// и не должна трогаться из других горутин.
type StreamingManager struct {
	cfg      StreamingConfig
	factory  ChunkFactory
	renderer Renderer
	logger   *logging.Logger
	tracer   trace.Tracer

	jobs         chan ChunkCoord
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	startOnce    sync.Once
	stopOnce     sync.Once

	handoff *handoff
	spawn   SpawnCell
	active  map[ChunkCoord]*activeChunk

	stats   StreamingStats
	metrics *streamingMetrics
	events  eventbus.EventBus
}

// NewStreamingManager создаёт менеджер. Воркеры запускаются в Start.
// reg может быть nil, тогда метрики не регистрируются.
func NewStreamingManager(cfg StreamingConfig, factory ChunkFactory, renderer Renderer, reg prometheus.Registerer) *StreamingManager {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 16
	}
	if cfg.RenderDistance < 0 {
		cfg.RenderDistance = 0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}
	if renderer == nil {
		renderer = nopRenderer{}
	}

	return &StreamingManager{
		cfg:          cfg,
		factory:      factory,
		renderer:     renderer,
		logger:       logging.GetStreamingLogger(),
		tracer:       otel.Tracer(tracerName),
		jobs:         make(chan ChunkCoord, cfg.QueueSize),
		shutdownChan: make(chan struct{}),
		handoff:      newHandoff(),
		active:       make(map[ChunkCoord]*activeChunk),
		metrics:      newStreamingMetrics(reg),
	}
}

// Config возвращает действующие параметры
func (sm *StreamingManager) Config() StreamingConfig {
	return sm.cfg
}

// Start запускает пул воркеров. Повторные вызовы ничего не делают.
func (sm *StreamingManager) Start(ctx context.Context) {
	sm.startOnce.Do(func() {
		sm.logger.Info("🚀 Запуск стриминга: воркеров=%d, радиус=%d, очередь=%d",
			sm.cfg.Workers, sm.cfg.RenderDistance, sm.cfg.QueueSize)
		for i := 0; i < sm.cfg.Workers; i++ {
			sm.wg.Add(1)
			go sm.worker(ctx, i)
		}
	})
}

// Stop останавливает воркеры и ждёт их завершения. Задачи, ещё не взятые
// из канала, отбрасываются.
func (sm *StreamingManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.shutdownChan)
		sm.wg.Wait()
		sm.logger.Info("🛑 Стриминг остановлен: %+v", sm.Stats())
	})
}

func (sm *StreamingManager) worker(ctx context.Context, id int) {
	defer sm.wg.Done()
	sm.logger.Debug("Воркер %d запущен", id)

	for {
		select {
		case <-sm.shutdownChan:
			return
		case <-ctx.Done():
			return
		case coord := <-sm.jobs:
			sm.generate(ctx, id, coord)
		}
	}
}

// generate строит чанк и переводит его в Queued. Паника в генерации фатальна.
func (sm *StreamingManager) generate(ctx context.Context, id int, coord ChunkCoord) {
	defer func() {
		if r := recover(); r != nil {
			sm.logger.Error("💥 Воркер %d: паника при генерации чанка %s: %v", id, coord, r)
			panic(r)
		}
	}()

	_, span := sm.tracer.Start(ctx, "chunk.generate", trace.WithAttributes(
		attribute.Int("chunk.x", coord.X),
		attribute.Int("chunk.z", coord.Z),
		attribute.Int("worker", id),
	))
	start := time.Now()

	chunk := sm.factory.Build(coord)

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("chunk.faces", chunk.FaceCount()))
	span.End()

	if coord == (ChunkCoord{}) {
		sm.detectSpawn(chunk)
	}

	sm.handoff.complete(chunk)

	sm.stats.generated.Add(1)
	sm.stats.genNanos.Add(elapsed.Nanoseconds())
	sm.metrics.generated.Inc()
	sm.metrics.duration.Observe(elapsed.Seconds())
	sm.updateGauges()

	sm.logger.Trace("Чанк %s готов за %v: граней=%d", coord, elapsed, chunk.FaceCount())
}

// detectSpawn записывает точку спауна над самым высоким блоком центрального чанка
func (sm *StreamingManager) detectSpawn(chunk *Chunk) {
	highest, ok := chunk.Highest()
	if !ok {
		highest = -1
	}
	pos := vec.Vec3Float{X: 0, Y: float64(highest + 1), Z: 0}
	if sm.spawn.Set(pos) {
		sm.logger.Info("📍 Точка спауна: (%.0f, %.0f, %.0f)", pos.X, pos.Y, pos.Z)
		sm.publish(EventSpawnFound, SpawnEvent{X: pos.X, Y: pos.Y, Z: pos.Z})
	}
}

// Update выполняет работу одного кадра: запрашивает недостающие чанки вокруг
// наблюдателя, продвигает не более одного готового чанка и, если включено,
// выгружает дальние. Вызывается только из потока кадра.
func (sm *StreamingManager) Update(observer vec.Vec3Float) FrameStats {
	center := ChunkCoordOf(observer, sm.cfg.ChunkSize)
	frame := FrameStats{Center: center}

	frame.Submitted, frame.Rollbacks = sm.requestAround(center)
	frame.Coord, frame.Promoted = sm.promoteOne()
	if sm.cfg.EvictionMargin > 0 {
		frame.Evicted = sm.evictFar(center)
	}

	frame.Active = len(sm.active)
	sm.updateGauges()
	return frame
}

// requestAround отправляет задачи для всех координат в радиусе, которые ещё
// не активны и не в работе. Отправка неблокирующая: при заполненном канале
// резервирование откатывается, координата будет запрошена в следующем кадре.
func (sm *StreamingManager) requestAround(center ChunkCoord) (submitted, rollbacks int) {
	for _, coord := range ringOrder(center, sm.cfg.RenderDistance) {
		if _, ok := sm.active[coord]; ok {
			continue
		}
		if !sm.handoff.reserve(coord) {
			continue
		}

		select {
		case sm.jobs <- coord:
			submitted++
			sm.stats.submitted.Add(1)
			sm.metrics.submitted.Inc()
		default:
			sm.handoff.release(coord)
			rollbacks++
			sm.stats.rollbacks.Add(1)
			sm.metrics.rollbacks.Inc()
			sm.logger.Debug("Очередь задач заполнена, чанк %s отложен", coord)
			return submitted, rollbacks
		}
	}
	return submitted, rollbacks
}

// promoteOne загружает в рендер самый старый готовый чанк
func (sm *StreamingManager) promoteOne() (ChunkCoord, bool) {
	chunk, ok := sm.handoff.pop()
	if !ok {
		return ChunkCoord{}, false
	}

	handle := sm.renderer.Upload(chunk.Mesh)
	sm.active[chunk.Coord] = &activeChunk{chunk: chunk, handle: handle}

	sm.stats.promoted.Add(1)
	sm.metrics.promoted.Inc()
	sm.publish(EventChunkPromoted, ChunkEvent{X: chunk.Coord.X, Z: chunk.Coord.Z, Faces: chunk.FaceCount()})
	return chunk.Coord, true
}

// evictFar выгружает активные чанки дальше RenderDistance+EvictionMargin
func (sm *StreamingManager) evictFar(center ChunkCoord) int {
	limit := sm.cfg.RenderDistance + sm.cfg.EvictionMargin
	releaser, canRelease := sm.renderer.(Releaser)

	evicted := 0
	for coord, ac := range sm.active {
		if coord.Distance(center) <= limit {
			continue
		}
		if canRelease {
			releaser.Release(ac.handle)
		}
		delete(sm.active, coord)
		evicted++
		sm.publish(EventChunkEvicted, ChunkEvent{X: coord.X, Z: coord.Z, Center: &center})
	}

	if evicted > 0 {
		sm.stats.evicted.Add(int64(evicted))
		sm.metrics.evicted.Add(float64(evicted))
		sm.logger.Debug("🧹 Выгружено чанков: %d (центр %s)", evicted, center)
	}
	return evicted
}

// Render рисует все активные чанки и возвращает количество вызовов отрисовки
func (sm *StreamingManager) Render() int {
	for _, ac := range sm.active {
		sm.renderer.Draw(ac.handle, ac.chunk.Model())
	}
	return len(sm.active)
}

// ForEachActive обходит активные чанки в порядке координат. Чанки только для чтения.
func (sm *StreamingManager) ForEachActive(fn func(chunk *Chunk)) {
	coords := make([]ChunkCoord, 0, len(sm.active))
	for coord := range sm.active {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
	for _, coord := range coords {
		fn(sm.active[coord].chunk)
	}
}

// ActiveCount возвращает количество активных чанков
func (sm *StreamingManager) ActiveCount() int {
	return len(sm.active)
}

// State возвращает состояние координаты. Вызывается из потока кадра.
func (sm *StreamingManager) State(coord ChunkCoord) ChunkState {
	if _, ok := sm.active[coord]; ok {
		return StateActive
	}
	return sm.handoff.state(coord)
}

// TrySpawn возвращает точку спауна, если центральный чанк уже сгенерирован
func (sm *StreamingManager) TrySpawn() (vec.Vec3Float, bool) {
	return sm.spawn.Get()
}

// WaitSpawn опрашивает ячейку спауна до её заполнения или отмены контекста
func (sm *StreamingManager) WaitSpawn(ctx context.Context) (vec.Vec3Float, error) {
	if pos, ok := sm.spawn.Get(); ok {
		return pos, nil
	}

	ticker := time.NewTicker(spawnPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return vec.Vec3Float{}, ctx.Err()
		case <-ticker.C:
			if pos, ok := sm.spawn.Get(); ok {
				return pos, nil
			}
		}
	}
}

// Stats возвращает снимок статистики. Безопасен для вызова из любой горутины:
// Active считается по счётчикам, а не по карте активных чанков.
func (sm *StreamingManager) Stats() StatsSnapshot {
	pending, queued := sm.handoff.counts()
	generated := sm.stats.generated.Load()

	snap := StatsSnapshot{
		Submitted:      sm.stats.submitted.Load(),
		Generated:      generated,
		Promoted:       sm.stats.promoted.Load(),
		Evicted:        sm.stats.evicted.Load(),
		Rollbacks:      sm.stats.rollbacks.Load(),
		Pending:        pending,
		Queued:         queued,
		Workers:        sm.cfg.Workers,
		RenderDistance: sm.cfg.RenderDistance,
	}
	snap.Active = int(snap.Promoted - snap.Evicted)
	if generated > 0 {
		snap.AvgGenerateMs = float64(sm.stats.genNanos.Load()) / float64(generated) / 1e6
	}
	return snap
}

func (sm *StreamingManager) updateGauges() {
	pending, queued := sm.handoff.counts()
	sm.metrics.pending.Set(float64(pending))
	sm.metrics.queued.Set(float64(queued))
	sm.metrics.active.Set(float64(sm.stats.promoted.Load() - sm.stats.evicted.Load()))
}
