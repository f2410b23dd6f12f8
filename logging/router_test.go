package logging_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
	"github.com/pockerhead/VOIDRUN-sub000/logging/sinks"
)

func fixedClock() logging.Clock {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return logging.ClockFunc(func() time.Time { return at })
}

func TestRouterDeliversToSinksAndStampsFields(t *testing.T) {
	memory := sinks.NewMemory()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"run": "r1"}
	router := logging.NewRouter(fixedClock(), cfg, telemetry.NopLogger(), []logging.NamedSink{{Name: "memory", Sink: memory}})

	router.Publish(context.Background(), logging.Event{Type: "test.event", Tick: 3, Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "test.debug", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})
	require.NoError(t, router.Close(context.Background()))

	events := memory.Events()
	require.Len(t, events, 1, "debug below threshold and untyped events are dropped")
	require.Equal(t, logging.EventType("test.event"), events[0].Type)
	require.Equal(t, "r1", events[0].Extra["run"])
	require.False(t, events[0].Time.IsZero())
	require.Equal(t, uint64(1), router.Stats().EventsTotal)
	require.Same(t, memory, router.Sink("memory"))
}

func TestRouterPublishAfterCloseIsIgnored(t *testing.T) {
	memory := sinks.NewMemory()
	router := logging.NewRouter(nil, logging.DefaultConfig(), telemetry.NopLogger(), []logging.NamedSink{{Name: "memory", Sink: memory}})
	require.NoError(t, router.Close(context.Background()))
	require.NoError(t, router.Close(context.Background()))

	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})
	require.Empty(t, memory.Events())
}

type failingSink struct {
	mu     sync.Mutex
	writes int
}

func (s *failingSink) Write(logging.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	return errors.New("disk full")
}

func (s *failingSink) Close(context.Context) error { return nil }

func TestRouterReportsSinkFailuresToFallback(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	fallback := telemetry.LoggerFunc(func(format string, args ...any) {
		mu.Lock()
		lines = append(lines, format)
		mu.Unlock()
	})
	sink := &failingSink{}
	router := logging.NewRouter(nil, logging.DefaultConfig(), fallback, []logging.NamedSink{{Name: "broken", Sink: sink}})
	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityWarn})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityWarn})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, router.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, lines)
	require.Equal(t, 2, sink.writes)
}

func TestWithFieldsAndTrace(t *testing.T) {
	memory := sinks.NewMemory()
	pub := logging.WithTrace(logging.WithFields(memory, map[string]any{"seed": 7}), "01TRACE")

	pub.Publish(context.Background(), logging.Event{Type: "x", Extra: map[string]any{"seed": 9}})
	pub.Publish(context.Background(), logging.Event{Type: "y", TraceID: "own"})

	events := memory.Events()
	require.Len(t, events, 2)
	require.Equal(t, 9, events[0].Extra["seed"], "event keys win over decorator fields")
	require.Equal(t, "01TRACE", events[0].TraceID)
	require.Equal(t, 7, events[1].Extra["seed"])
	require.Equal(t, "own", events[1].TraceID)
}

func TestFanoutSkipsNil(t *testing.T) {
	a, b := sinks.NewMemory(), sinks.NewMemory()
	pub := logging.Fanout(a, nil, b)
	pub.Publish(context.Background(), logging.Event{Type: "x"})
	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)

	logging.Fanout().Publish(context.Background(), logging.Event{Type: "x"})
}

func TestEntityRefKinds(t *testing.T) {
	require.Equal(t, logging.EntityKindPlayer, logging.Entity(1, contract.ActorKindPlayer).Kind)
	require.Equal(t, logging.EntityKindNPC, logging.Entity(2, contract.ActorKindNPC).Kind)
	require.Equal(t, logging.EntityKindUnknown, logging.Entity(3, "").Kind)
	require.Equal(t, logging.SeverityWarn, logging.ParseSeverity("WARNING"))
	require.Equal(t, logging.SeverityInfo, logging.ParseSeverity("bogus"))
}
