package logging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink is a destination for routed events. Write is only ever called from
// the sink's own lane goroutine.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Per-sink lane capacity is derived from the intake size and kept in this
// range.
const (
	minLaneCapacity = 32
	maxLaneCapacity = 1024
)

// Router moves simulation events from the tick goroutine to the sinks.
// Events pass through one shared intake, are stamped with the configured
// fields, then copied into a lane per sink. Publish never blocks: an event
// that finds the intake full is counted and dropped.
type Router struct {
	intake   chan Event
	lanes    []*lane
	clock    Clock
	fallback telemetry.Logger
	floor    Severity
	fields   map[string]any
	warn     dropWarning

	stopping chan struct{}
	shut     atomic.Bool
	running  sync.WaitGroup

	routed      atomic.Uint64
	dropped     atomic.Uint64
	laneDropped atomic.Uint64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
	// SinkBacklogDropped counts per-sink copies lost to a full lane.
	SinkBacklogDropped uint64
}

// NewRouter starts routing immediately. A nil fallback reports sink
// failures through the logrus standard logger.
func NewRouter(clock Clock, cfg Config, fallback telemetry.Logger, namedSinks []NamedSink) *Router {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if fallback == nil {
		fallback = logrus.StandardLogger().WithField("component", "logging")
	}
	cfg = cfg.Normalize()
	r := &Router{
		intake:   make(chan Event, cfg.BufferSize),
		clock:    clock,
		fallback: fallback,
		floor:    cfg.MinimumSeverity,
		fields:   cfg.CloneFields(),
		warn:     dropWarning{every: cfg.DropWarnInterval},
		stopping: make(chan struct{}),
	}
	capacity := min(max(cfg.BufferSize, minLaneCapacity), maxLaneCapacity)
	for _, named := range namedSinks {
		if named.Sink != nil {
			r.lanes = append(r.lanes, &lane{name: named.Name, sink: named.Sink, in: make(chan Event, capacity)})
		}
	}

	r.running.Add(1 + len(r.lanes))
	go r.pump()
	for _, l := range r.lanes {
		go func(l *lane) {
			defer r.running.Done()
			l.run(r.stopping, r.fallback)
		}(l)
	}
	return r
}

// Publish implements Publisher.
func (r *Router) Publish(_ context.Context, event Event) {
	if event.Type == "" || event.Severity < r.floor || r.shut.Load() {
		return
	}
	select {
	case r.intake <- event:
		return
	default:
	}
	r.dropped.Add(1)
	if r.warn.due(r.clock.Now()) {
		r.fallback.Printf("intake full, dropping event type=%s tick=%d", event.Type, event.Tick)
	}
}

// pump feeds the lanes until Close, then flushes whatever is still queued
// and closes every lane.
func (r *Router) pump() {
	defer r.running.Done()
	defer func() {
		for _, l := range r.lanes {
			close(l.in)
		}
	}()
	for {
		select {
		case event := <-r.intake:
			r.route(event)
		case <-r.stopping:
			for len(r.intake) > 0 {
				r.route(<-r.intake)
			}
			return
		}
	}
}

func (r *Router) route(event Event) {
	event = r.stamp(event)
	r.routed.Add(1)
	for _, l := range r.lanes {
		select {
		case l.in <- cloneForFields(event):
		default:
			r.laneDropped.Add(1)
			r.fallback.Printf("sink %s backlog full, dropping event type=%s", l.name, event.Type)
		}
	}
}

// stamp fills in the time and any configured field the event does not set.
func (r *Router) stamp(event Event) Event {
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	if len(r.fields) == 0 {
		return event
	}
	event = cloneForFields(event)
	if event.Extra == nil {
		event.Extra = make(map[string]any, len(r.fields))
	}
	for k, v := range r.fields {
		if _, set := event.Extra[k]; !set {
			event.Extra[k] = v
		}
	}
	return event
}

// Close flushes queued events into the sinks, then closes them. A second
// call is a no-op.
func (r *Router) Close(ctx context.Context) error {
	if !r.shut.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stopping)
	flushed := make(chan struct{})
	go func() {
		r.running.Wait()
		close(flushed)
	}()
	select {
	case <-flushed:
	case <-ctx.Done():
		return ctx.Err()
	}
	var errs []error
	for _, l := range r.lanes {
		if err := l.sink.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) Stats() RouterStats {
	return RouterStats{
		EventsTotal:        r.routed.Load(),
		DroppedTotal:       r.dropped.Load(),
		SinkBacklogDropped: r.laneDropped.Load(),
	}
}

// Sink returns the sink registered under name, or nil.
func (r *Router) Sink(name string) Sink {
	for _, l := range r.lanes {
		if l.name == name {
			return l.sink
		}
	}
	return nil
}

// lane serialises writes to one sink and backs off while it keeps failing.
type lane struct {
	name     string
	sink     Sink
	in       chan Event
	failures int
	resumeAt time.Time
}

func (l *lane) run(stopping <-chan struct{}, fallback telemetry.Logger) {
	for event := range l.in {
		l.pause(stopping)
		if err := l.sink.Write(event); err != nil {
			l.failures++
			delay := time.Duration(1<<min(l.failures, 5)) * time.Second
			l.resumeAt = time.Now().Add(delay)
			fallback.Printf("sink %s failed: %v (retry in %s)", l.name, err, delay)
			continue
		}
		l.failures = 0
	}
}

// pause waits out the current backoff. Shutdown cuts it short so Close can
// flush.
func (l *lane) pause(stopping <-chan struct{}) {
	if l.failures == 0 {
		return
	}
	wait := time.Until(l.resumeAt)
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-stopping:
	}
}

// dropWarning rate-limits the intake-full warning to one per interval.
type dropWarning struct {
	every time.Duration
	next  atomic.Int64
}

func (d *dropWarning) due(now time.Time) bool {
	every := d.every
	if every <= 0 {
		every = 5 * time.Second
	}
	next := d.next.Load()
	if next != 0 && now.UnixNano() < next {
		return false
	}
	return d.next.CompareAndSwap(next, now.Add(every).UnixNano())
}
