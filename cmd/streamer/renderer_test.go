package main

import (
	"testing"

	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountingRenderer(t *testing.T) {
	r := newCountingRenderer()
	m := &mesh.Mesh{Indices: make([]uint32, 2*mesh.IndicesPerFace)}

	h := r.Upload(m)
	r.Draw(h, vec.Identity())
	r.Draw(h, vec.Identity())
	r.Draw("чужой", vec.Identity())

	assert.Equal(t, 2, r.Faces())
	assert.Equal(t, 2, r.Draws())

	r.Release(h)
	assert.Zero(t, r.Faces())
	r.Draw(h, vec.Identity())
	assert.Equal(t, 2, r.Draws(), "выгруженный меш не рисуется")
}

func TestConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.World.Seed = 10
	cfg.Noise.Feature.SeedOffset = 5

	tc := terrainConfig(cfg)
	assert.Equal(t, int64(10), tc.Height.Seed)
	assert.Equal(t, int64(15), tc.Feature.Seed)
	assert.Equal(t, 0.028, tc.Feature.Frequency)
	assert.Equal(t, cfg.World.ChunkHeight, tc.ChunkHeight)

	sc := streamingConfig(cfg)
	assert.Equal(t, cfg.Streaming.RenderDistance, sc.RenderDistance)
	assert.Equal(t, cfg.World.ChunkSize, sc.ChunkSize)

	reg, err := loadRegistry(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.World.ChunkHeight, reg.Height())
}
