package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-stream/internal/api"
	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/eventbus"
	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/observability"
	"github.com/annel0/voxel-stream/internal/storage"
	"github.com/annel0/voxel-stream/internal/util"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе VOXEL_CONFIG)")
	frames := flag.Int("frames", 0, "количество кадров, 0 - до сигнала")
	speed := flag.Float64("speed", 0.25, "скорость наблюдателя вдоль +X, блоков за кадр")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🧱 Запуск voxel-stream: seed=%d, чанк %dx%d, радиус %d",
		cfg.World.Seed, cfg.World.ChunkSize, cfg.World.ChunkHeight, cfg.Streaming.RenderDistance)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации телеметрии: %v", err)
		log.Fatalf("❌ Ошибка инициализации телеметрии: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
		}
	}()

	registry, err := loadRegistry(cfg)
	if err != nil {
		logging.Error("❌ Ошибка загрузки каталога блоков: %v", err)
		log.Fatalf("❌ Ошибка загрузки каталога блоков: %v", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := eventbus.NewMemoryBus(256)
	defer bus.Close()
	if err := eventbus.RegisterMetrics(bus, promRegistry); err != nil {
		logging.Warn("⚠️ Метрики шины событий не зарегистрированы: %v", err)
	}
	if _, err := eventbus.StartLoggingListener(bus, logging.GetEventBusLogger()); err != nil {
		logging.Warn("⚠️ Лог событий не подключён: %v", err)
	}
	events := api.NewEventLog(128)
	if _, err := events.Attach(ctx, bus, eventbus.Filter{Sources: []string{world.EventSource}}); err != nil {
		logging.Warn("⚠️ Журнал событий не подключён: %v", err)
	}

	terrain := world.NewTerrainGenerator(registry, terrainConfig(cfg))
	renderer := newCountingRenderer()
	factory := world.NewChunkGenerator(registry, terrain)

	if store, err := openVolumeCache(cfg); err != nil {
		logging.Warn("⚠️ Кэш объёмов недоступен, генерация без кэша: %v", err)
	} else if store != nil {
		defer store.Close()
		factory.WithCache(store)
	}

	manager := world.NewStreamingManager(streamingConfig(cfg), factory, renderer, promRegistry)
	manager.SetEventBus(bus)

	manager.Start(ctx)
	defer manager.Stop()

	board := &api.ChunkBoard{}
	if cfg.Server.Enabled {
		server := api.NewDebugServer(api.Config{
			Port:        portAddr(cfg.Server.GetAPIPort()),
			ServiceName: cfg.Telemetry.ServiceName,
			Source:      manager,
			Board:       board,
			Events:      events,
			Registry:    promRegistry,
		})
		go func() {
			if err := server.Start(); err != nil {
				logging.Error("❌ Ошибка отладочного API: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				logging.Warn("⚠️ Ошибка остановки API: %v", err)
			}
		}()
	}

	// Первый кадр запрашивает центральный чанк, из него берётся точка спауна
	manager.Update(vec.Vec3Float{})
	spawnCtx, cancelSpawn := context.WithTimeout(ctx, 30*time.Second)
	spawn, err := manager.WaitSpawn(spawnCtx)
	cancelSpawn()
	if err != nil {
		logging.Error("❌ Точка спауна не найдена: %v", err)
		return
	}

	runFrames(ctx, manager, renderer, board, frameLoop{
		observer:  spawn,
		speed:     *speed,
		frameRate: cfg.Streaming.FrameRate,
		limit:     *frames,
	})

	logging.Info("👋 Стример остановлен: %+v, отрисовок=%d", manager.Stats(), renderer.Draws())
}

func setupLogging(cfg config.LoggingConfig) error {
	consoleLevel, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	fileLevel, err := logging.ParseLevel(cfg.FileLevel)
	if err != nil {
		return err
	}
	logging.Configure(logging.Options{
		ConsoleLevel: consoleLevel,
		FileLevel:    fileLevel,
		Directory:    cfg.Directory,
	})
	if err := logging.InitDefaultLogger("streamer"); err != nil {
		return err
	}
	return logging.GetLoggerManager().ApplyLevels(cfg.Components)
}

func loadRegistry(cfg *config.Config) (*block.Registry, error) {
	atlas := block.Atlas{Width: cfg.Atlas.Width, Height: cfg.Atlas.Height, Cell: cfg.Atlas.Cell}
	if cfg.Blocks.Path == "" {
		return block.LoadDefault(atlas, cfg.World.ChunkHeight)
	}
	return block.LoadFile(cfg.Blocks.Path, atlas, cfg.World.ChunkHeight)
}

// openVolumeCache открывает кэш объёмов; nil, если кэш выключен
func openVolumeCache(cfg *config.Config) (*storage.ChunkStore, error) {
	dir := cfg.Storage.CacheDir
	switch dir {
	case "":
		return nil, nil
	case ":memory:":
		dir = ""
	}

	store, err := storage.NewChunkStore(dir, cfg.GenerationKey())
	if err != nil {
		return nil, err
	}
	logging.Info("💾 Кэш объёмов: %s (namespace %s)", cfg.Storage.CacheDir, cfg.GenerationKey())
	return store, nil
}

func terrainConfig(cfg *config.Config) world.TerrainConfig {
	layer := func(l config.NoiseLayer) util.NoiseParams {
		return util.NoiseParams{
			Seed:      cfg.World.Seed + l.SeedOffset,
			Alpha:     l.Alpha,
			Beta:      l.Beta,
			Octaves:   l.Octaves,
			Frequency: l.Frequency,
		}
	}
	return world.TerrainConfig{
		ChunkSize:   cfg.World.ChunkSize,
		ChunkHeight: cfg.World.ChunkHeight,
		Height:      layer(cfg.Noise.Height),
		Feature:     layer(cfg.Noise.Feature),
	}
}

func streamingConfig(cfg *config.Config) world.StreamingConfig {
	return world.StreamingConfig{
		ChunkSize:      cfg.World.ChunkSize,
		RenderDistance: cfg.Streaming.RenderDistance,
		Workers:        cfg.Streaming.Workers,
		QueueSize:      cfg.Streaming.QueueSize,
		EvictionMargin: cfg.Streaming.EvictionMargin,
	}
}

func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
