package world

import "sync"

// ChunkState - состояние координаты в конвейере стриминга
type ChunkState int

const (
	StateUnrequested ChunkState = iota
	StatePending                // генерируется воркером
	StateQueued                 // готов, ждёт продвижения
	StateActive                 // загружен в рендер
)

func (s ChunkState) String() string {
	switch s {
	case StateUnrequested:
		return "unrequested"
	case StatePending:
		return "pending"
	case StateQueued:
		return "queued"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// handoff - общая часть конвейера между воркерами и потоком кадра.
// Один мьютекс защищает и набор генерируемых координат, и очередь готовых чанков,
// поэтому переход Pending -> Queued атомарен. Координата остаётся отслеживаемой
// до продвижения, чтобы готовый, но ещё не активный чанк не отправлялся повторно.
type handoff struct {
	mu      sync.Mutex
	tracked map[ChunkCoord]ChunkState
	queue   []*Chunk
}

func newHandoff() *handoff {
	return &handoff{tracked: make(map[ChunkCoord]ChunkState)}
}

// reserve помечает координату как Pending. false - координата уже в работе.
func (h *handoff) reserve(coord ChunkCoord) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.tracked[coord]; exists {
		return false
	}
	h.tracked[coord] = StatePending
	return true
}

// release откатывает резервирование, если задачу не удалось отправить
func (h *handoff) release(coord ChunkCoord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tracked[coord] == StatePending {
		delete(h.tracked, coord)
	}
}

// complete переводит чанк в Queued и ставит его в конец очереди
func (h *handoff) complete(chunk *Chunk) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tracked[chunk.Coord] = StateQueued
	h.queue = append(h.queue, chunk)
}

// pop забирает самый старый готовый чанк и прекращает отслеживать его координату
func (h *handoff) pop() (*Chunk, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.queue) == 0 {
		return nil, false
	}
	chunk := h.queue[0]
	h.queue[0] = nil
	h.queue = h.queue[1:]
	delete(h.tracked, chunk.Coord)
	return chunk, true
}

func (h *handoff) state(coord ChunkCoord) ChunkState {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.tracked[coord]; ok {
		return s
	}
	return StateUnrequested
}

// counts возвращает количество генерируемых и ожидающих продвижения чанков
func (h *handoff) counts() (pending, queued int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	queued = len(h.queue)
	pending = len(h.tracked) - queued
	return pending, queued
}
