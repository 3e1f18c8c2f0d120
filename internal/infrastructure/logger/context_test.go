package logger_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/north-cloud/conversions-tracker/internal/infrastructure/logger"
)

func TestWithContext_FromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	ctx := logger.WithContext(context.Background(), nop)

	if got := logger.FromContext(ctx); got != nop {
		t.Errorf("FromContext returned %v, want the stored logger", got)
	}
}

func TestFromContext_NoLogger_ReturnsUsableFallback(t *testing.T) {
	t.Parallel()

	fallback := logger.FromContext(context.Background())
	if fallback == nil {
		t.Fatal("FromContext on empty context returned nil")
	}

	fallback.Debug("filtered")
	fallback.Warn("with field", logger.String("key", "value"))
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()

	log, err := logger.New(logger.Config{Level: "verbose", OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.With(logger.String("component", "test")).Info("constructed")
}
