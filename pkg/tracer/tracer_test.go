package tracer

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/config"
)

func TestInitDisabled(t *testing.T) {
	tp, err := Init(context.Background(), config.TracingConfig{Enabled: false, ServiceName: "carelink"}, config.AppConfig{Version: "test"})
	if err != nil {
		t.Fatal(err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsSampled() {
		t.Fatal("span sampled with tracing disabled")
	}
	span.End()

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitSamplesEverythingOutsideProduction(t *testing.T) {
	cfg := config.TracingConfig{Enabled: true, ServiceName: "carelink", OTLPEndpoint: "127.0.0.1:1", SampleRate: 0}
	tp, err := Init(context.Background(), cfg, config.AppConfig{Version: "test", Environment: "development"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		_ = tp.Shutdown(ctx)
	})

	_, span := tp.Tracer("test").Start(context.Background(), "respond")
	defer span.End()
	if !span.SpanContext().IsSampled() {
		t.Fatal("development span not sampled at ratio 0")
	}
}
