package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/annel0/voxel-stream/internal/eventbus"
)

// EventRecord - событие шины в виде, пригодном для /api/events
type EventRecord struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventLog хранит последние события шины в кольцевом буфере
type EventLog struct {
	mu    sync.Mutex
	ring  []EventRecord
	next  int
	count int
}

// NewEventLog создаёт журнал на capacity событий
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = 128
	}
	return &EventLog{ring: make([]EventRecord, capacity)}
}

// Attach подписывает журнал на шину
func (l *EventLog) Attach(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		l.Add(ev)
	})
}

// Add записывает событие, вытесняя самое старое при переполнении
func (l *EventLog) Add(ev *eventbus.Envelope) {
	rec := EventRecord{
		ID:        ev.ID,
		Type:      ev.EventType,
		Source:    ev.Source,
		Timestamp: ev.Timestamp,
	}
	if json.Valid(ev.Payload) {
		rec.Payload = json.RawMessage(ev.Payload)
	}

	l.mu.Lock()
	l.ring[l.next] = rec
	l.next = (l.next + 1) % len(l.ring)
	if l.count < len(l.ring) {
		l.count++
	}
	l.mu.Unlock()
}

// Recent возвращает до limit последних событий, новые первыми. limit <= 0 - все.
func (l *EventLog) Recent(limit int) []EventRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]EventRecord, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + len(l.ring)) % len(l.ring)
		out = append(out, l.ring[idx])
	}
	return out
}
