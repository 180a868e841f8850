package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxelworld/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Options: параметры трассировки
type Options struct {
	Enabled     bool
	ServiceName string
	Endpoint    string  // host:port OTLP HTTP; пусто: localhost:4318
	Insecure    bool    // без TLS
	SampleRatio float64 // доля трассируемых корневых спанов, 0: всё
}

// ShutdownFunc завершает экспорт спанов
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
// Если трассировка выключена, глобальный провайдер не меняется (no-op трассировщик).
func InitTelemetry(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if !opts.Enabled {
		logging.Debug("OpenTelemetry выключен")
		return noopShutdown, nil
	}

	var exporterOpts []otlptracehttp.Option
	if opts.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("создание OTLP экспортера: %w", err)
	}

	res, err := NewResource(ctx, opts.ServiceName)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(Sampler(opts.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → %s, service=%s)", endpointOrDefault(opts.Endpoint), opts.ServiceName)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// NewResource описывает сервис для экспортируемых спанов
func NewResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("создание ресурса OpenTelemetry: %w", err)
	}
	return res, nil
}

// Sampler выбирает сэмплер по доле; при 0 или >= 1 пишутся все спаны
func Sampler(ratio float64) trace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return trace.ParentBased(trace.AlwaysSample())
	}
	return trace.ParentBased(trace.TraceIDRatioBased(ratio))
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return "localhost:4318"
	}
	return endpoint
}
