package eventbus

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.EventType
	}
	return out
}

func TestMemoryBusOrderAndFilter(t *testing.T) {
	bus := NewMemoryBus(16)
	all, promoted := &collector{}, &collector{}

	_, err := bus.Subscribe(context.Background(), Filter{}, all.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{"chunk.promoted"}}, promoted.handle)
	require.NoError(t, err)

	ctx := context.Background()
	for _, typ := range []string{"chunk.promoted", "chunk.evicted", "chunk.promoted"} {
		require.NoError(t, bus.Publish(ctx, NewEnvelope("test", typ, nil)))
	}
	bus.Close()

	assert.Equal(t, []string{"chunk.promoted", "chunk.evicted", "chunk.promoted"}, all.types())
	assert.Equal(t, []string{"chunk.promoted", "chunk.promoted"}, promoted.types())

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Equal(t, uint64(5), stats.Consumed)
	assert.Zero(t, stats.InFlight)
}

func TestMemoryBusDropsLowPriorityWhenFull(t *testing.T) {
	bus := NewMemoryBus(1)
	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) { <-release })
	require.NoError(t, err)

	ctx := context.Background()
	// первое событие забирает рассылка, второе занимает буфер
	require.NoError(t, bus.Publish(ctx, NewEnvelope("test", "a", nil)))
	require.Eventually(t, func() bool { return bus.Metrics().InFlight == 0 }, time.Second, time.Millisecond)
	require.NoError(t, bus.Publish(ctx, NewEnvelope("test", "b", nil)))
	require.NoError(t, bus.Publish(ctx, NewEnvelope("test", "c", nil)))

	assert.Equal(t, uint64(1), bus.Metrics().Dropped)

	high := NewEnvelope("test", "d", nil)
	high.Priority = 9
	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Publish(cctx, high), context.DeadlineExceeded)

	close(release)
	bus.Close()
}

func TestMemoryBusUnsubscribeAndClose(t *testing.T) {
	bus := NewMemoryBus(4)
	c := &collector{}
	sub, err := bus.Subscribe(context.Background(), Filter{Sources: []string{"streaming"}}, c.handle)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewEnvelope("other", "x", nil)))
	require.NoError(t, bus.Publish(ctx, NewEnvelope("streaming", "y", nil)))
	require.Eventually(t, func() bool { return len(c.types()) == 1 }, time.Second, time.Millisecond)

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(ctx, NewEnvelope("streaming", "z", nil)))

	bus.Close()
	bus.Close()
	assert.Equal(t, []string{"y"}, c.types())

	assert.ErrorIs(t, bus.Publish(ctx, NewEnvelope("streaming", "late", nil)), ErrBusClosed)
	_, err = bus.Subscribe(ctx, Filter{}, c.handle)
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestNewEnvelope(t *testing.T) {
	ev := NewEnvelope("streaming", "spawn.found", []byte(`{}`))
	assert.Len(t, ev.ID, 36)
	assert.Equal(t, time.UTC, ev.Timestamp.Location())
	assert.NotEqual(t, ev.ID, NewEnvelope("streaming", "spawn.found", nil).ID)
}

func TestLoggingListener(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger("eventbus", &buf, logging.DEBUG)

	bus := NewMemoryBus(4)
	_, err := StartLoggingListener(bus, logger)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("streaming", "chunk.evicted", []byte(`{"x":1}`))))
	bus.Close()

	assert.Contains(t, buf.String(), "chunk.evicted")
	assert.Contains(t, buf.String(), `{"x":1}`)
}

func TestRegisterMetrics(t *testing.T) {
	bus := NewMemoryBus(4)
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterMetrics(bus, reg))
	assert.Error(t, RegisterMetrics(bus, reg), "повторная регистрация")

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("s", "t", nil)))
	bus.Close()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			values[mf.GetName()] = c.GetValue()
		} else if g := m.GetGauge(); g != nil {
			values[mf.GetName()] = g.GetValue()
		}
	}
	assert.Equal(t, 1.0, values["eventbus_messages_published_total"])
	assert.Equal(t, 0.0, values["eventbus_messages_dropped_total"])
	assert.Contains(t, values, "eventbus_messages_inflight")
}
