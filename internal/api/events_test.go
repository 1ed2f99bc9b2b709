package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/annel0/voxel-stream/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogRing(t *testing.T) {
	log := NewEventLog(3)
	assert.Empty(t, log.Recent(0))

	for i := 0; i < 5; i++ {
		log.Add(eventbus.NewEnvelope("streaming", fmt.Sprintf("e%d", i), []byte(`{"i":1}`)))
	}

	recent := log.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "e4", recent[0].Type)
	assert.Equal(t, "e2", recent[2].Type)
	assert.JSONEq(t, `{"i":1}`, string(recent[0].Payload))

	assert.Len(t, log.Recent(2), 2)
	assert.Len(t, log.Recent(10), 3)
}

func TestEventLogSkipsInvalidPayload(t *testing.T) {
	log := NewEventLog(1)
	log.Add(eventbus.NewEnvelope("s", "t", []byte("not json")))
	assert.Nil(t, log.Recent(1)[0].Payload)
}

func TestEventLogAttach(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	log := NewEventLog(8)
	_, err := log.Attach(context.Background(), bus, eventbus.Filter{Types: []string{"chunk.promoted"}})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), eventbus.NewEnvelope("streaming", "chunk.promoted", []byte(`{"x":1,"z":2}`))))
	require.NoError(t, bus.Publish(context.Background(), eventbus.NewEnvelope("streaming", "chunk.evicted", nil)))
	bus.Close()

	recent := log.Recent(0)
	require.Len(t, recent, 1)
	assert.Equal(t, "chunk.promoted", recent[0].Type)
}

func TestEventsEndpoint(t *testing.T) {
	w, _ := get(t, NewDebugServer(Config{Source: &fakeSource{}}), "/api/events")
	assert.Equal(t, http.StatusNotFound, w.Code)

	log := NewEventLog(16)
	for i := 0; i < 3; i++ {
		log.Add(eventbus.NewEnvelope("streaming", "chunk.promoted", []byte(fmt.Sprintf(`{"x":%d,"z":0}`, i))))
	}
	ds := NewDebugServer(Config{Source: &fakeSource{}, Events: log})

	w, env := get(t, ds, "/api/events?limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Count  int           `json:"count"`
		Events []EventRecord `json:"events"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Count)
	assert.JSONEq(t, `{"x":2,"z":0}`, string(data.Events[0].Payload))

	w, _ = get(t, ds, "/api/events?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
