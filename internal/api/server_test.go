package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu    sync.Mutex
	spawn *vec.Vec3Float
	stats world.StatsSnapshot
}

func (f *fakeSource) Stats() world.StatsSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *fakeSource) TrySpawn() (vec.Vec3Float, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawn == nil {
		return vec.Vec3Float{}, false
	}
	return *f.spawn, true
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func get(t *testing.T, ds *DebugServer, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	ds.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHealth(t *testing.T) {
	ds := NewDebugServer(Config{Source: &fakeSource{}})
	w, _ := get(t, ds, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSpawnEndpoint(t *testing.T) {
	src := &fakeSource{}
	ds := NewDebugServer(Config{Source: src})

	w, env := get(t, ds, "/api/spawn")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)

	src.mu.Lock()
	src.spawn = &vec.Vec3Float{X: 0, Y: 17, Z: 0}
	src.mu.Unlock()

	w, env = get(t, ds, "/api/spawn")
	require.Equal(t, http.StatusOK, w.Code)
	var pos map[string]float64
	require.NoError(t, json.Unmarshal(env.Data, &pos))
	assert.Equal(t, 17.0, pos["y"])
}

func TestStatsEndpoint(t *testing.T) {
	src := &fakeSource{stats: world.StatsSnapshot{Submitted: 9, Promoted: 4, Active: 4, Workers: 2}}
	ds := NewDebugServer(Config{Source: src})

	w, env := get(t, ds, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var data struct {
		Streaming world.StatsSnapshot `json:"streaming"`
		Process   ProcessStats        `json:"process"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, int64(9), data.Streaming.Submitted)
	assert.Equal(t, 4, data.Streaming.Active)
	assert.Positive(t, data.Process.Goroutines)
	assert.NotEmpty(t, data.Process.Uptime)
}

func TestChunksEndpoint(t *testing.T) {
	board := &ChunkBoard{}
	ds := NewDebugServer(Config{Source: &fakeSource{}, Board: board})

	w, env := get(t, ds, "/api/chunks")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"count":0`)

	board.Publish([]ChunkInfo{{X: 0, Z: 0, Faces: 120}, {X: 1, Z: 0, Faces: 98}, {X: -1, Z: 2, Faces: 7}})

	_, env = get(t, ds, "/api/chunks?limit=2")
	var data struct {
		Count  int         `json:"count"`
		Chunks []ChunkInfo `json:"chunks"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Count)
	assert.Equal(t, 98, data.Chunks[1].Faces)

	w, _ = get(t, ds, "/api/chunks?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ds := NewDebugServer(Config{Source: &fakeSource{}})
	get(t, ds, "/health")

	w, _ := get(t, ds, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "debug_api_http_request_duration_seconds")
}
