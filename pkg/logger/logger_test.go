package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestEnrichContextWithLoggerCarriesTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "operation")
	defer span.End()

	ctx = EnrichContextWithLogger(ctx)

	var buf bytes.Buffer
	enriched := log.Ctx(ctx).Output(&buf)
	enriched.Info().Msg("hello")

	line := buf.String()
	if traceID := span.SpanContext().TraceID().String(); !strings.Contains(line, traceID) {
		t.Errorf("log line %q missing trace id %s", line, traceID)
	}
	if spanID := span.SpanContext().SpanID().String(); !strings.Contains(line, spanID) {
		t.Errorf("log line %q missing span id %s", line, spanID)
	}
}

func TestSetupInstallsContextFallback(t *testing.T) {
	Setup(false)

	if zerolog.DefaultContextLogger == nil {
		t.Fatal("expected Setup to install a default context logger")
	}

	var buf bytes.Buffer
	fallback := log.Ctx(context.Background()).Output(&buf)
	fallback.Info().Msg("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected the fallback logger to write, got %q", buf.String())
	}
}
