package llm

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc-123")
	if got := RequestIDFrom(ctx); got != "abc-123" {
		t.Errorf("expected abc-123, got %q", got)
	}
}

func TestRequestIDFrom_Empty(t *testing.T) {
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}
}

func TestWithRequestID_IgnoresEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if got := RequestIDFrom(ctx); got != "" {
		t.Errorf("expected no request ID, got %q", got)
	}
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" {
		t.Fatal("expected a generated request ID")
	}
	if got := RequestIDFrom(ctx); got != id {
		t.Errorf("context should carry the generated ID, got %q want %q", got, id)
	}

	// Existing IDs are preserved
	ctx2, id2 := EnsureRequestID(ctx)
	if id2 != id {
		t.Errorf("expected existing ID %q to be preserved, got %q", id, id2)
	}
	if RequestIDFrom(ctx2) != id {
		t.Error("context should still carry the original ID")
	}
}
