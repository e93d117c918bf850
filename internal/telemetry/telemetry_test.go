package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/shaiso/Coldcluster/internal/domain"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.env)
			if got := LogLevel(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")

	WithWorkerID(WithSearchID(logger, "s-1"), "w-1").Info("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["search_id"] != "s-1" || line["worker_id"] != "w-1" {
		t.Errorf("missing attributes: %v", line)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, "text")

	logger.Info("skipped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "skipped") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=kept") {
		t.Errorf("expected text output, got %q", out)
	}
}

func TestFromContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger")
	}
}

func TestObserveSnapshot(t *testing.T) {
	ObserveSnapshot(domain.SnapshotPayload{
		Status:          domain.StatusRunning,
		Total:           27,
		Unsolved:        5,
		ProgramsRun:     1200,
		WorkersActive:   2,
		WorkersPaused:   1,
		WorkersInactive: 3,
		RunRate:         40,
	})

	if v := gaugeValue(t, UnsolvedAssemblies); v != 5 {
		t.Errorf("unsolved: expected 5, got %v", v)
	}
	if v := gaugeValue(t, RunRate); v != 40 {
		t.Errorf("run rate: expected 40, got %v", v)
	}
	if v := gaugeValue(t, Workers.WithLabelValues("inactive")); v != 3 {
		t.Errorf("inactive workers: expected 3, got %v", v)
	}
	if v := gaugeValue(t, ClusterStatus.WithLabelValues("running")); v != 1 {
		t.Errorf("running: expected 1, got %v", v)
	}
	if v := gaugeValue(t, ClusterStatus.WithLabelValues("stopped")); v != 0 {
		t.Errorf("stopped: expected 0, got %v", v)
	}
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()

	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetGauge().GetValue()
}
