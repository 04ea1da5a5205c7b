package telemetry

import (
	"bytes"
	"context"
	"testing"

	"payloadbridge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

func installTracer(t *testing.T, cfg config.TracingConfig) (*bytes.Buffer, func(context.Context) error) {
	t.Helper()
	previousProvider := otel.GetTracerProvider()
	previousPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(previousProvider)
		otel.SetTextMapPropagator(previousPropagator)
	})

	var out bytes.Buffer
	shutdown, err := InitTracer(cfg, &out, zap.NewNop())
	require.NoError(t, err)
	return &out, shutdown
}

func TestInitTracer_ExportsSampledSpans(t *testing.T) {
	out, shutdown := installTracer(t, config.TracingConfig{ServiceName: "payloadbridge-test", SampleRatio: 1})

	_, span := otel.Tracer("test").Start(context.Background(), "relay")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), `"Name":"relay"`)
	assert.Contains(t, out.String(), "payloadbridge-test")
}

func TestInitTracer_ZeroRatioDropsRootSpans(t *testing.T) {
	out, shutdown := installTracer(t, config.TracingConfig{ServiceName: "payloadbridge-test", SampleRatio: 0})

	_, span := otel.Tracer("test").Start(context.Background(), "relay")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Empty(t, out.String())
}

func TestInitTracer_InstallsTraceContextPropagator(t *testing.T) {
	_, shutdown := installTracer(t, config.TracingConfig{ServiceName: "payloadbridge-test", SampleRatio: 1})
	defer func() { _ = shutdown(context.Background()) }()

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}
