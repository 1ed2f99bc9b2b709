package observability

import (
	"context"
	"time"

	"github.com/annel0/voxel-stream/internal/config"
	"github.com/annel0/voxel-stream/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const defaultEndpoint = "localhost:4318"

// ShutdownFunc сбрасывает накопленные спаны и останавливает экспорт
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry устанавливает глобальный TracerProvider с OTLP/HTTP экспортом.
// Спаны генерации чанков семплируются по cfg.SampleRatio.
// При выключенной телеметрии глобальный провайдер остаётся no-op.
func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig) (ShutdownFunc, error) {
	if !cfg.Enabled {
		logging.Debug("Телеметрия выключена")
		return noopShutdown, nil
	}

	endpoint := cfg.Endpoint
	var opts []otlptracehttp.Option
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	} else {
		endpoint = defaultEndpoint
	}

	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	tp, err := NewTracerProvider(ctx, cfg.ServiceName,
		trace.WithBatcher(exp),
		trace.WithSampler(Sampler(cfg.SampleRatio)),
	)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → %s, service=%s, sample=%.2f)",
		endpoint, cfg.ServiceName, cfg.SampleRatio)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Sampler: ratio <= 0 или >= 1 - все спаны, иначе доля корневых спанов.
// Дочерние спаны следуют решению родителя.
func Sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

// NewTracerProvider создаёт провайдер с ресурсом сервиса и переданными опциями
func NewTracerProvider(ctx context.Context, serviceName string, opts ...trace.TracerProviderOption) (*trace.TracerProvider, error) {
	if serviceName == "" {
		serviceName = "voxel-stream"
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}
	return trace.NewTracerProvider(append(opts, trace.WithResource(res))...), nil
}
