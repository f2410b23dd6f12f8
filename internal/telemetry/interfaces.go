package telemetry

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger exposes the logging capabilities required by simulation components.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// NopLogger discards everything.
func NopLogger() Logger {
	return LoggerFunc(func(string, ...any) {})
}

// LogrusConfig selects the level and formatter of a process logger.
type LogrusConfig struct {
	Level  string
	Format string
	Output io.Writer
}

// LogrusConfigFromEnv reads LOG_LEVEL and LOG_FORMAT, defaulting to info and
// text.
func LogrusConfigFromEnv() LogrusConfig {
	level, ok := os.LookupEnv("LOG_LEVEL")
	if !ok {
		level = "info"
	}
	return LogrusConfig{Level: level, Format: os.Getenv("LOG_FORMAT")}
}

// NewLogrus builds a process logger. Unknown levels fall back to info.
func NewLogrus(cfg LogrusConfig) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)
	return logger
}

// WithComponent scopes a logrus logger to a named component.
func WithComponent(logger *logrus.Logger, component string) Logger {
	if logger == nil {
		return NopLogger()
	}
	return logger.WithField("component", component)
}

// Metrics exposes the counters simulation components report into.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

const (
	MetricIntentsRejected  = "intents_rejected_total"
	MetricInboundDropped   = "inbound_dropped_total"
	MetricDamageApplied    = "damage_applied_total"
	MetricEntitiesDied     = "entities_died_total"
	MetricStaminaDebt      = "stamina_debt_total"
	MetricTicksStepped     = "ticks_stepped_total"
	MetricTickOverruns     = "tick_overruns_total"
	MetricObserversCurrent = "observers_connected"
)

// Counters is an in-process Metrics implementation.
type Counters struct {
	mu     sync.Mutex
	values map[string]uint64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]uint64)}
}

// Add increments key by delta.
func (c *Counters) Add(key string, delta uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.values == nil {
		c.values = make(map[string]uint64)
	}
	c.values[key] += delta
	c.mu.Unlock()
}

// Store overwrites key.
func (c *Counters) Store(key string, value uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.values == nil {
		c.values = make(map[string]uint64)
	}
	c.values[key] = value
	c.mu.Unlock()
}

// Get returns the current value of key.
func (c *Counters) Get(key string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

// Snapshot copies every counter.
func (c *Counters) Snapshot() map[string]uint64 {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]uint64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Keys lists counter names in sorted order.
func (c *Counters) Keys() []string {
	snapshot := c.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64)   {}
func (nopMetrics) Store(string, uint64) {}

// NopMetrics discards every report.
func NopMetrics() Metrics {
	return nopMetrics{}
}
