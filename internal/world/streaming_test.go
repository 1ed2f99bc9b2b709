package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/annel0/voxel-stream/internal/world/mesh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 3 * time.Second

// stubFactory строит крошечные чанки и считает вызовы по координатам
type stubFactory struct {
	gate chan struct{} // не nil - сборка ждёт закрытия канала

	mu    sync.Mutex
	calls map[ChunkCoord]int
}

func newStubFactory(blocking bool) *stubFactory {
	f := &stubFactory{calls: make(map[ChunkCoord]int)}
	if blocking {
		f.gate = make(chan struct{})
	}
	return f
}

func (f *stubFactory) Build(coord ChunkCoord) *Chunk {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.calls[coord]++
	f.mu.Unlock()

	v := block.NewVolume(2, 4)
	v.Set(0, 2, 0, block.Stone)
	return &Chunk{Coord: coord, Volume: v, Mesh: &mesh.Mesh{}}
}

func (f *stubFactory) callsFor(coord ChunkCoord) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[coord]
}

func (f *stubFactory) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// recordingRenderer запоминает загрузки, отрисовки и освобождения
type recordingRenderer struct {
	next     int
	uploads  int
	draws    []vec.Mat4
	released []RenderHandle
}

func (r *recordingRenderer) Upload(*mesh.Mesh) RenderHandle {
	r.next++
	r.uploads++
	return r.next
}

func (r *recordingRenderer) Draw(_ RenderHandle, model vec.Mat4) {
	r.draws = append(r.draws, model)
}

func (r *recordingRenderer) Release(handle RenderHandle) {
	r.released = append(r.released, handle)
}

func newTestManager(t *testing.T, cfg StreamingConfig, factory ChunkFactory, renderer Renderer) *StreamingManager {
	t.Helper()
	sm := NewStreamingManager(cfg, factory, renderer, prometheus.NewRegistry())
	t.Cleanup(sm.Stop)
	return sm
}

// pump крутит кадры в текущей горутине, пока не выполнится условие
func pump(t *testing.T, sm *StreamingManager, observer vec.Vec3Float, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("кадры не привели к ожидаемому состоянию: %+v", sm.Stats())
		}
		sm.Update(observer)
		time.Sleep(time.Millisecond)
	}
}

func waitGenerated(t *testing.T, sm *StreamingManager, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return sm.Stats().Generated >= n
	}, waitTimeout, 2*time.Millisecond, "воркеры не сгенерировали %d чанков", n)
}

func TestSubmitAtMostOnce(t *testing.T) {
	factory := newStubFactory(true)
	sm := newTestManager(t, StreamingConfig{ChunkSize: 2, RenderDistance: 1, Workers: 2, QueueSize: 32}, factory, nil)
	sm.Start(context.Background())

	observer := vec.Vec3Float{X: 0.5, Y: 3, Z: 0.5}
	first := sm.Update(observer)
	assert.Equal(t, 9, first.Submitted)
	assert.False(t, first.Promoted)

	// пока воркеры заняты, повторные кадры ничего не отправляют
	for i := 0; i < 5; i++ {
		frame := sm.Update(observer)
		assert.Zero(t, frame.Submitted, "кадр %d отправил повторные задачи", i)
	}
	assert.Equal(t, StatePending, sm.State(ChunkCoord{}))

	close(factory.gate)
	waitGenerated(t, sm, 9)

	// готовые чанки в очереди тоже не отправляются повторно
	promoted := 0
	for i := 0; i < 9; i++ {
		frame := sm.Update(observer)
		assert.Zero(t, frame.Submitted)
		require.True(t, frame.Promoted, "кадр %d не продвинул чанк", i)
		promoted++
		assert.Equal(t, promoted, frame.Active, "не больше одного чанка за кадр")
	}

	frame := sm.Update(observer)
	assert.False(t, frame.Promoted)
	assert.Zero(t, frame.Submitted)
	assert.Equal(t, 9, sm.ActiveCount())

	for _, coord := range ringOrder(ChunkCoord{}, 1) {
		assert.Equal(t, 1, factory.callsFor(coord), "чанк %s сгенерирован не один раз", coord)
		assert.Equal(t, StateActive, sm.State(coord))
	}
	assert.Equal(t, 9, factory.total())

	stats := sm.Stats()
	assert.Equal(t, int64(9), stats.Submitted)
	assert.Equal(t, int64(9), stats.Promoted)
	assert.Equal(t, 9, stats.Active)
	assert.Zero(t, stats.Pending)
	assert.Zero(t, stats.Queued)
}

func TestSubmitRollbackWhenQueueFull(t *testing.T) {
	factory := newStubFactory(false)
	// воркеры не запущены: канал на 3 задачи заполняется сразу
	sm := newTestManager(t, StreamingConfig{ChunkSize: 2, RenderDistance: 1, Workers: 1, QueueSize: 3}, factory, nil)

	frame := sm.Update(vec.Vec3Float{})
	assert.Equal(t, 3, frame.Submitted)
	assert.Equal(t, 1, frame.Rollbacks)

	order := ringOrder(ChunkCoord{}, 1)
	for _, coord := range order[:3] {
		assert.Equal(t, StatePending, sm.State(coord))
	}
	assert.Equal(t, StateUnrequested, sm.State(order[3]), "откат снимает резервирование")

	stats := sm.Stats()
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, int64(1), stats.Rollbacks)

	// после запуска воркеров оставшиеся координаты дозапрашиваются
	sm.Start(context.Background())
	pump(t, sm, vec.Vec3Float{}, func() bool { return sm.ActiveCount() == 9 })

	for _, coord := range order {
		assert.Equal(t, 1, factory.callsFor(coord))
	}
}

func TestCompletionOrderPromotion(t *testing.T) {
	h := newHandoff()
	a, b := ChunkCoord{X: 1}, ChunkCoord{X: 2}
	require.True(t, h.reserve(a))
	require.True(t, h.reserve(b))
	assert.False(t, h.reserve(a))

	// b готов раньше a: очередь идёт по порядку завершения
	h.complete(&Chunk{Coord: b})
	assert.Equal(t, StateQueued, h.state(b))
	assert.False(t, h.reserve(b), "готовый чанк не отправляется повторно")
	h.complete(&Chunk{Coord: a})

	first, ok := h.pop()
	require.True(t, ok)
	assert.Equal(t, b, first.Coord)
	assert.Equal(t, StateUnrequested, h.state(b))

	second, ok := h.pop()
	require.True(t, ok)
	assert.Equal(t, a, second.Coord)

	_, ok = h.pop()
	assert.False(t, ok)

	pending, queued := h.counts()
	assert.Zero(t, pending)
	assert.Zero(t, queued)
}

func TestSpawnFromCenterChunk(t *testing.T) {
	g := testTerrain(t, 31337, 4)
	factory := NewChunkGenerator(testRegistry(t, g.ChunkHeight()), g)

	sm := newTestManager(t, StreamingConfig{ChunkSize: 4, RenderDistance: 1, Workers: 2}, factory, nil)
	_, ok := sm.TrySpawn()
	assert.False(t, ok)

	sm.Start(context.Background())
	sm.Update(vec.Vec3Float{})

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	pos, err := sm.WaitSpawn(ctx)
	require.NoError(t, err)

	highest, found := factory.Build(ChunkCoord{}).Highest()
	require.True(t, found)
	assert.Equal(t, vec.Vec3Float{X: 0, Y: float64(highest + 1), Z: 0}, pos)

	// повторная запись не меняет точку спауна
	sm.detectSpawn(&Chunk{Coord: ChunkCoord{}, Volume: block.NewVolume(4, g.ChunkHeight()), Mesh: &mesh.Mesh{}})
	again, ok := sm.TrySpawn()
	require.True(t, ok)
	assert.Equal(t, pos, again)
}

func TestWaitSpawnCancelled(t *testing.T) {
	sm := newTestManager(t, StreamingConfig{Workers: 1}, newStubFactory(false), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := sm.WaitSpawn(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSpawnCellWriteOnce(t *testing.T) {
	var cell SpawnCell
	_, ok := cell.Get()
	assert.False(t, ok)

	assert.True(t, cell.Set(vec.Vec3Float{Y: 12}))
	assert.False(t, cell.Set(vec.Vec3Float{Y: 3}))

	pos, ok := cell.Get()
	require.True(t, ok)
	assert.Equal(t, 12.0, pos.Y)
}

func TestRenderDrawsActiveChunks(t *testing.T) {
	renderer := &recordingRenderer{}
	sm := newTestManager(t, StreamingConfig{ChunkSize: 2, RenderDistance: 1, Workers: 2}, newStubFactory(false), renderer)
	sm.Start(context.Background())

	pump(t, sm, vec.Vec3Float{}, func() bool { return sm.ActiveCount() == 9 })

	assert.Equal(t, 9, renderer.uploads)
	assert.Equal(t, 9, sm.Render())
	require.Len(t, renderer.draws, 9)

	origins := map[vec.Vec3f]bool{}
	for _, m := range renderer.draws {
		origins[m.TranslationPart()] = true
	}
	assert.True(t, origins[vec.Vec3f{X: -2, Y: 0, Z: 2}], "чанк (-1,1) рисуется со своим переносом")
	assert.Len(t, origins, 9)

	var visited []ChunkCoord
	sm.ForEachActive(func(c *Chunk) { visited = append(visited, c.Coord) })
	require.Len(t, visited, 9)
	assert.Equal(t, ChunkCoord{X: -1, Z: -1}, visited[0])
	assert.Equal(t, ChunkCoord{X: 1, Z: 1}, visited[8])
}

func TestEvictionDisabledByDefault(t *testing.T) {
	sm := newTestManager(t, StreamingConfig{ChunkSize: 2, RenderDistance: 0, Workers: 1}, newStubFactory(false), nil)
	sm.Start(context.Background())

	pump(t, sm, vec.Vec3Float{}, func() bool { return sm.ActiveCount() == 1 })

	frame := sm.Update(vec.Vec3Float{X: 100})
	assert.Zero(t, frame.Evicted)
	assert.Equal(t, StateActive, sm.State(ChunkCoord{}), "без выгрузки чанки копятся")
}

func TestEvictionReleasesFarChunks(t *testing.T) {
	renderer := &recordingRenderer{}
	cfg := StreamingConfig{ChunkSize: 2, RenderDistance: 0, Workers: 1, EvictionMargin: 1}
	sm := newTestManager(t, cfg, newStubFactory(false), renderer)
	sm.Start(context.Background())

	pump(t, sm, vec.Vec3Float{}, func() bool { return sm.ActiveCount() == 1 })

	// соседний чанк в пределах запаса: ничего не выгружается
	near := sm.Update(vec.Vec3Float{X: 2})
	assert.Zero(t, near.Evicted)
	pump(t, sm, vec.Vec3Float{X: 2}, func() bool { return sm.ActiveCount() == 2 })
	assert.Equal(t, StateActive, sm.State(ChunkCoord{}))

	// наблюдатель в чанке (2,0): (0,0) дальше запаса, (1,0) остаётся
	far := sm.Update(vec.Vec3Float{X: 4})
	assert.Equal(t, 1, far.Evicted)
	assert.Equal(t, StateActive, sm.State(ChunkCoord{X: 1}))
	assert.Equal(t, StateUnrequested, sm.State(ChunkCoord{}))
	assert.Equal(t, []RenderHandle{1}, renderer.released)
	assert.Equal(t, int64(1), sm.Stats().Evicted)
}

func TestStopIsIdempotent(t *testing.T) {
	sm := NewStreamingManager(StreamingConfig{Workers: 2}, newStubFactory(false), nil, nil)
	sm.Start(context.Background())
	sm.Start(context.Background())
	sm.Stop()
	sm.Stop()
	assert.Equal(t, 2, sm.Config().Workers)
}
