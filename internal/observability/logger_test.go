package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"debug", "info", "warn", "error", "", " INFO "} {
		logger, err := NewLogger(level)
		if err != nil {
			t.Fatalf("NewLogger(%q) error = %v", level, err)
		}
		if logger == nil {
			t.Fatalf("NewLogger(%q) returned nil logger", level)
		}
	}

	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("NewLogger(loud) should fail")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	t.Parallel()

	level, err := parseLevel("")
	if err != nil {
		t.Fatalf("parseLevel() error = %v", err)
	}
	if level != zapcore.InfoLevel {
		t.Fatalf("level = %v, want info", level)
	}
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithCorrelationID(context.Background(), "corr-1")
	got, ok := CorrelationIDFromContext(ctx)
	if !ok || got != "corr-1" {
		t.Fatalf("CorrelationIDFromContext() = %q, %v", got, ok)
	}

	if _, ok := CorrelationIDFromContext(context.Background()); ok {
		t.Fatal("empty context should have no correlation id")
	}
	if _, ok := CorrelationIDFromContext(nil); ok {
		t.Fatal("nil context should have no correlation id")
	}
}

func TestWithContextLogger(t *testing.T) {
	t.Parallel()

	base := zap.NewNop()

	if got := WithContextLogger(base, context.Background()); got != base {
		t.Fatal("logger without correlation id should pass through unchanged")
	}

	ctx := WithCorrelationID(context.Background(), "corr-1")
	if got := WithContextLogger(base, ctx); got == base {
		t.Fatal("logger with correlation id should be enriched")
	}

	if got := WithContextLogger(nil, ctx); got != nil {
		t.Fatal("nil logger should stay nil")
	}
}
