package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTracingFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "span_test.txt")

	if err := Init("qnos", "0.0.1", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "test", "INTERNAL")
	span.WithAttributes(map[string]string{"k": "v"})

	child, childSpan := StartSpan(ctx, "child", "CONSUMER")
	if _, ok := SpanFromContext(child); !ok {
		t.Fatalf("expected span in child context")
	}
	EndSpan(childSpan, nil)
	EndSpan(span, nil)

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no data written to trace file")
	}
}
