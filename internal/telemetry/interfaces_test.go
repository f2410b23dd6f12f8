package telemetry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoggerFunc(t *testing.T) {
	t.Run("nil func", func(t *testing.T) {
		var logger LoggerFunc
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards", func(t *testing.T) {
		var got string
		logger := LoggerFunc(func(format string, args ...any) {
			got = format
		})
		logger.Printf("hello %s", "world")
		if got != "hello %s" {
			t.Fatalf("unexpected format: %q", got)
		}
	})
}

func TestNewLogrusHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrus(LogrusConfig{Level: "warn", Format: "json", Output: &buf})
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", logger.GetLevel())
	}
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked through warn level: %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("expected json formatted warn line, got %q", out)
	}
}

func TestNewLogrusFallsBackToInfo(t *testing.T) {
	logger := NewLogrus(LogrusConfig{Level: "loud", Output: &bytes.Buffer{}})
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}
}

func TestWithComponentTagsLines(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogrus(LogrusConfig{Level: "info", Format: "json", Output: &buf})
	WithComponent(base, "sim").Printf("tick %d", 7)
	if !strings.Contains(buf.String(), `"component":"sim"`) {
		t.Fatalf("expected component field, got %q", buf.String())
	}
	WithComponent(nil, "x").Printf("dropped")
}

func TestCounters(t *testing.T) {
	counters := NewCounters()
	counters.Add(MetricIntentsRejected, 2)
	counters.Store(MetricIntentsRejected, 5)
	counters.Add(MetricIntentsRejected, 3)
	counters.Add(MetricDamageApplied, 1)

	if got := counters.Get(MetricIntentsRejected); got != 8 {
		t.Fatalf("unexpected counter value: %d", got)
	}
	keys := counters.Keys()
	if len(keys) != 2 || keys[0] != MetricDamageApplied {
		t.Fatalf("unexpected keys: %v", keys)
	}

	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	nilCounters.Store("ignored", 1)
	NopMetrics().Add("ignored", 1)
}
