package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/middleware"
	"github.com/annel0/voxel-stream/internal/vec"
	"github.com/annel0/voxel-stream/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// StreamingSource - то, что API может безопасно читать из любой горутины
type StreamingSource interface {
	Stats() world.StatsSnapshot
	TrySpawn() (vec.Vec3Float, bool)
}

// GenericResponse - общий формат ответов API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Config содержит конфигурацию отладочного сервера
type Config struct {
	Port        string               // порт для запуска сервера, например ":8090"
	ServiceName string               // имя сервиса для otelgin и префикса метрик
	Source      StreamingSource      // менеджер стриминга
	Board       *ChunkBoard          // снимок активных чанков
	Events      *EventLog            // журнал событий; nil - /api/events отвечает 404
	Registry    *prometheus.Registry // регистр метрик; nil - новый
}

// DebugServer - HTTP API для наблюдения за headless-стримером
type DebugServer struct {
	router   *gin.Engine
	server   *http.Server
	port     string
	source   StreamingSource
	board    *ChunkBoard
	events   *EventLog
	metrics  *ServerMetrics
	registry *prometheus.Registry
	logger   *logging.Logger
}

// NewDebugServer создаёт сервер и настраивает маршруты
func NewDebugServer(config Config) *DebugServer {
	if config.Port == "" {
		config.Port = ":8090"
	}
	if config.ServiceName == "" {
		config.ServiceName = "voxel_stream"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Board == nil {
		config.Board = &ChunkBoard{}
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	logger := logging.GetAPILogger()

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger(logger, "/health", "/metrics").Handler())

	promMw := middleware.NewPrometheusMiddleware("debug_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	ds := &DebugServer{
		router:   router,
		port:     config.Port,
		source:   config.Source,
		board:    config.Board,
		events:   config.Events,
		metrics:  NewServerMetrics(),
		registry: config.Registry,
		logger:   logger,
	}
	ds.server = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	ds.setupRoutes()
	return ds
}

func (ds *DebugServer) setupRoutes() {
	ds.router.GET("/health", ds.handleHealth)

	api := ds.router.Group("/api")
	{
		api.GET("/stats", ds.handleStats)
		api.GET("/spawn", ds.handleSpawn)
		api.GET("/chunks", ds.handleChunks)
		api.GET("/events", ds.handleEvents)
	}
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (ds *DebugServer) Handler() http.Handler {
	return ds.router
}

// handleHealth проверка состояния сервера
func (ds *DebugServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает статистику стриминга и процесса
func (ds *DebugServer) handleStats(c *gin.Context) {
	data := gin.H{"process": ds.metrics.Snapshot()}
	if ds.source != nil {
		data["streaming"] = ds.source.Stats()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    data,
	})
}

// handleSpawn возвращает точку спауна или 404, пока центральный чанк не готов
func (ds *DebugServer) handleSpawn(c *gin.Context) {
	if ds.source == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{Success: false, Message: "Стриминг не подключён"})
		return
	}

	pos, ok := ds.source.TrySpawn()
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Точка спауна ещё не найдена"})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Точка спауна",
		Data:    gin.H{"x": pos.X, "y": pos.Y, "z": pos.Z},
	})
}

// parseLimit разбирает ?limit=N; отсутствие параметра - 0
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: "Некорректный limit"})
		return 0, false
	}
	return limit, true
}

// handleChunks возвращает последний снимок активных чанков.
// ?limit=N ограничивает размер ответа.
func (ds *DebugServer) handleChunks(c *gin.Context) {
	chunks, updatedAt := ds.board.Load()

	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	if _, set := c.GetQuery("limit"); set && limit < len(chunks) {
		chunks = chunks[:limit]
	}
	if chunks == nil {
		chunks = []ChunkInfo{}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Активные чанки",
		Data: gin.H{
			"count":      len(chunks),
			"chunks":     chunks,
			"updated_at": updatedAt.Unix(),
		},
	})
}

// handleEvents возвращает последние события жизненного цикла чанков
func (ds *DebugServer) handleEvents(c *gin.Context) {
	if ds.events == nil {
		c.JSON(http.StatusNotFound, GenericResponse{Success: false, Message: "Журнал событий не подключён"})
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	if limit == 0 {
		limit = 50
	}

	events := ds.events.Recent(limit)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Последние события",
		Data:    gin.H{"count": len(events), "events": events},
	})
}

// Start запускает HTTP сервер и блокируется до его остановки
func (ds *DebugServer) Start() error {
	ds.logger.Info("🌐 Отладочный API доступен на %s", ds.port)

	if err := ds.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает сервер
func (ds *DebugServer) Stop(ctx context.Context) error {
	return ds.server.Shutdown(ctx)
}
