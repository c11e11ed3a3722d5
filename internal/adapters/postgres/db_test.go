package postgres

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestSlowQueryTracer(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		wantLog   bool
	}{
		{"over threshold", 0, true},
		{"under threshold", time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			tracer := slowQueryTracer{threshold: tt.threshold}

			ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT alt, az FROM horizon_limit_points"})
			tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: errors.New("boom")})

			logged := strings.Contains(buf.String(), "slow query")
			if logged != tt.wantLog {
				t.Fatalf("logged = %v, want %v (%s)", logged, tt.wantLog, buf.String())
			}
			if logged && !strings.Contains(buf.String(), "horizon_limit_points") {
				t.Errorf("expected the statement in the log line, got %s", buf.String())
			}
		})
	}
}

func TestSlowQueryTracer_NoStart(t *testing.T) {
	buf := captureLogs(t)
	slowQueryTracer{}.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
	if buf.Len() != 0 {
		t.Errorf("expected nothing logged without a start, got %s", buf.String())
	}
}
