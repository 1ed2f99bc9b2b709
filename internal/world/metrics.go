package world

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// StreamingStats - счётчики менеджера стриминга
type StreamingStats struct {
	submitted atomic.Int64
	generated atomic.Int64
	promoted  atomic.Int64
	evicted   atomic.Int64
	rollbacks atomic.Int64
	genNanos  atomic.Int64
}

// StatsSnapshot - снимок статистики для API и логов
type StatsSnapshot struct {
	Submitted      int64   `json:"submitted"`
	Generated      int64   `json:"generated"`
	Promoted       int64   `json:"promoted"`
	Evicted        int64   `json:"evicted"`
	Rollbacks      int64   `json:"rollbacks"`
	Pending        int     `json:"pending"`
	Queued         int     `json:"queued"`
	Active         int     `json:"active"`
	AvgGenerateMs  float64 `json:"avg_generate_ms"`
	Workers        int     `json:"workers"`
	RenderDistance int     `json:"render_distance"`
}

// streamingMetrics - Prometheus-метрики конвейера
type streamingMetrics struct {
	submitted prometheus.Counter
	generated prometheus.Counter
	promoted  prometheus.Counter
	evicted   prometheus.Counter
	rollbacks prometheus.Counter
	pending   prometheus.Gauge
	queued    prometheus.Gauge
	active    prometheus.Gauge
	duration  prometheus.Histogram
}

// newStreamingMetrics создаёт метрики и регистрирует их в reg (nil - без регистрации)
func newStreamingMetrics(reg prometheus.Registerer) *streamingMetrics {
	m := &streamingMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_submitted_total",
			Help:      "Количество задач генерации, отправленных воркерам.",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_generated_total",
			Help:      "Количество чанков, построенных воркерами.",
		}),
		promoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_promoted_total",
			Help:      "Количество чанков, загруженных в рендер.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_evicted_total",
			Help:      "Количество выгруженных дальних чанков.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "submit_rollbacks_total",
			Help:      "Отправки, отменённые из-за заполненной очереди задач.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_pending",
			Help:      "Чанки, которые сейчас генерируются.",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_queued",
			Help:      "Готовые чанки, ожидающие продвижения.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunks_active",
			Help:      "Чанки, загруженные в рендер.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "chunk_generate_seconds",
			Help:      "Время генерации одного чанка (ландшафт и меш).",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.submitted, m.generated, m.promoted, m.evicted, m.rollbacks,
			m.pending, m.queued, m.active, m.duration,
		)
	}
	return m
}
