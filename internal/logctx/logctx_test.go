package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromReturnsDefaultWhenUnset(t *testing.T) {
	logger := From(context.Background())
	if logger == nil {
		t.Fatalf("expected a non-nil default logger")
	}
}

func TestWithAndFromRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := With(context.Background(), logger)

	if From(ctx) != logger {
		t.Fatalf("expected From to return the exact logger passed to With")
	}
}

func TestWithStepAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := With(context.Background(), logger)
	ctx = WithStep(ctx, "dedup")

	From(ctx).Info("running")
	if !strings.Contains(buf.String(), "step=dedup") {
		t.Fatalf("expected step attribute in log output, got %q", buf.String())
	}
}
