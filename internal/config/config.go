package config

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig - конфигурация не прошла проверку
var ErrInvalidConfig = errors.New("некорректная конфигурация")

// Config корневая структура конфигурации движка стриминга
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Noise     NoiseConfig     `yaml:"noise"`
	Streaming StreamingConfig `yaml:"streaming"`
	Atlas     AtlasConfig     `yaml:"atlas"`
	Blocks    BlocksConfig    `yaml:"blocks"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Seed        int64 `yaml:"seed"`
	ChunkSize   int   `yaml:"chunk_size"`
	ChunkHeight int   `yaml:"chunk_height"`
}

// NoiseConfig - параметры двух независимых полей шума
type NoiseConfig struct {
	Height  NoiseLayer `yaml:"height"`
	Feature NoiseLayer `yaml:"feature"`
}

// NoiseLayer - одно фрактальное поле Перлина. Сид поля = world.seed + seed_offset.
type NoiseLayer struct {
	SeedOffset int64   `yaml:"seed_offset"`
	Octaves    int32   `yaml:"octaves"`
	Frequency  float64 `yaml:"frequency"`
	Alpha      float64 `yaml:"alpha"`
	Beta       float64 `yaml:"beta"`
}

type StreamingConfig struct {
	RenderDistance int `yaml:"render_distance"`
	Workers        int `yaml:"workers"`    // 0 - по числу CPU
	QueueSize      int `yaml:"queue_size"` // 0 - workers*2
	EvictionMargin int `yaml:"eviction_margin"`
	FrameRate      int `yaml:"frame_rate"` // частота кадров демо-драйвера
}

type AtlasConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
	Cell   float32 `yaml:"cell"`
}

// BlocksConfig - путь к каталогу блоков; пусто - встроенный каталог
type BlocksConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig - кэш сгенерированных объёмов. Пустой cache_dir отключает кэш,
// ":memory:" держит его в памяти процесса.
type StorageConfig struct {
	CacheDir string `yaml:"cache_dir"`
}

type ServerConfig struct {
	APIPort int  `yaml:"api_port"`
	Enabled bool `yaml:"enabled"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // host:port OTLP/HTTP, пусто - localhost:4318
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"` // 0 или 1 - все спаны
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Directory string `yaml:"directory"` // пусто - только консоль
	// Components переопределяет уровень отдельных компонентов: streaming, api, eventbus
	Components map[string]string `yaml:"components"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Seed:        1,
			ChunkSize:   16,
			ChunkHeight: 32,
		},
		Noise: NoiseConfig{
			Height:  NoiseLayer{SeedOffset: 0, Octaves: 3, Frequency: 0.05, Alpha: 2, Beta: 2},
			Feature: NoiseLayer{SeedOffset: 1, Octaves: 2, Frequency: 0.028, Alpha: 2, Beta: 2},
		},
		Streaming: StreamingConfig{
			RenderDistance: 4,
			FrameRate:      60,
		},
		Atlas: AtlasConfig{Width: 384, Height: 784, Cell: 16},
		Server: ServerConfig{
			Enabled: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-stream",
		},
		Logging: LoggingConfig{
			Level:     "info",
			FileLevel: "debug",
		},
	}
}

// GetAPIPort возвращает порт отладочного API с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "VOXEL_API_PORT", 8090)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается взять путь из ENV VOXEL_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// GenerationKey - отпечаток параметров, от которых зависит содержимое чанков.
// Используется как namespace кэша объёмов.
func (c *Config) GenerationKey() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%d/%d/%+v/%+v/%s",
		c.World.Seed, c.World.ChunkSize, c.World.ChunkHeight,
		c.Noise.Height, c.Noise.Feature, c.Blocks.Path)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Validate проверяет значения, без которых движок не может стартовать
func (c *Config) Validate() error {
	switch {
	case c.World.ChunkSize <= 0:
		return fmt.Errorf("%w: world.chunk_size должен быть > 0", ErrInvalidConfig)
	case c.World.ChunkHeight <= 0:
		return fmt.Errorf("%w: world.chunk_height должен быть > 0", ErrInvalidConfig)
	case c.Streaming.RenderDistance < 0:
		return fmt.Errorf("%w: streaming.render_distance не может быть отрицательным", ErrInvalidConfig)
	case c.Streaming.Workers < 0 || c.Streaming.QueueSize < 0:
		return fmt.Errorf("%w: streaming.workers и streaming.queue_size не могут быть отрицательными", ErrInvalidConfig)
	case c.Streaming.EvictionMargin < 0:
		return fmt.Errorf("%w: streaming.eviction_margin не может быть отрицательным", ErrInvalidConfig)
	case c.Streaming.FrameRate <= 0:
		return fmt.Errorf("%w: streaming.frame_rate должен быть > 0", ErrInvalidConfig)
	case c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1:
		return fmt.Errorf("%w: telemetry.sample_ratio должен быть в [0, 1]", ErrInvalidConfig)
	case c.Atlas.Width <= 0 || c.Atlas.Height <= 0 || c.Atlas.Cell <= 0:
		return fmt.Errorf("%w: размеры атласа должны быть положительными", ErrInvalidConfig)
	}

	for name, layer := range map[string]NoiseLayer{"height": c.Noise.Height, "feature": c.Noise.Feature} {
		if layer.Octaves <= 0 || layer.Frequency <= 0 {
			return fmt.Errorf("%w: noise.%s: octaves и frequency должны быть > 0", ErrInvalidConfig, name)
		}
	}
	return nil
}
