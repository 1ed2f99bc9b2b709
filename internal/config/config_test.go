package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.World.ChunkSize)
	assert.Equal(t, 32, cfg.World.ChunkHeight)
	assert.Equal(t, 4, cfg.Streaming.RenderDistance)
	assert.Zero(t, cfg.Streaming.EvictionMargin, "выгрузка выключена по умолчанию")
	assert.Equal(t, int32(2), cfg.Noise.Feature.Octaves)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  seed: 777
  chunk_size: 8
streaming:
  render_distance: 2
  eviction_margin: 3
noise:
  height:
    frequency: 0.1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(777), cfg.World.Seed)
	assert.Equal(t, 8, cfg.World.ChunkSize)
	assert.Equal(t, 32, cfg.World.ChunkHeight, "незаданное поле сохраняет значение по умолчанию")
	assert.Equal(t, 2, cfg.Streaming.RenderDistance)
	assert.Equal(t, 3, cfg.Streaming.EvictionMargin)
	assert.Equal(t, 0.1, cfg.Noise.Height.Frequency)
	assert.Equal(t, int32(3), cfg.Noise.Height.Octaves)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "world:\n  seed: 5\n")
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.World.Seed)
}

func TestLoadWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world:\n  chunk_size: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "noise:\n  feature:\n    octaves: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestAPIPortFallback(t *testing.T) {
	s := ServerConfig{APIPort: 9000}
	assert.Equal(t, 9000, s.GetAPIPort())

	t.Setenv("VOXEL_API_PORT", "9100")
	s.APIPort = 0
	assert.Equal(t, 9100, s.GetAPIPort())

	t.Setenv("VOXEL_API_PORT", "oops")
	assert.Equal(t, 8090, s.GetAPIPort())
}

func TestGenerationKey(t *testing.T) {
	a, b := Default(), Default()
	assert.Equal(t, a.GenerationKey(), b.GenerationKey())
	assert.Len(t, a.GenerationKey(), 16)

	// параметры рендера не влияют на содержимое чанков
	b.Streaming.RenderDistance = 10
	b.Storage.CacheDir = "/tmp/x"
	assert.Equal(t, a.GenerationKey(), b.GenerationKey())

	b.World.Seed = 2
	assert.NotEqual(t, a.GenerationKey(), b.GenerationKey())

	c := Default()
	c.Noise.Feature.Frequency = 0.03
	assert.NotEqual(t, a.GenerationKey(), c.GenerationKey())
}

func TestLoadStorageSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  cache_dir: /var/cache/voxel\n"))
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/voxel", cfg.Storage.CacheDir)
}

func TestLoadComponentLevels(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  components:\n    streaming: debug\n    api: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"streaming": "debug", "api": "warn"}, cfg.Logging.Components)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidateSampleRatio(t *testing.T) {
	_, err := Load(writeConfig(t, "telemetry:\n  sample_ratio: 1.5\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err := Load(writeConfig(t, "telemetry:\n  enabled: true\n  sample_ratio: 0.1\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Telemetry.SampleRatio)
}
