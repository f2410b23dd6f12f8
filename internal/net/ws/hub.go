// Package ws streams the simulation's outbound journal to websocket
// observers. Observers are read-only: they receive each tick's batch and
// the latest keyframe, and may ask for an older keyframe by sequence.
package ws

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/journal"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
)

// ProtocolVersion is stamped on every message.
const ProtocolVersion = 1

const (
	TypeBatch    = "batch"
	TypeKeyframe = "keyframe"
	TypeResync   = "resync"
	TypeNack     = "keyframeNack"
)

// Message is the single wire shape sent to observers.
type Message struct {
	Ver      int                   `json:"ver"`
	Type     string                `json:"type"`
	Tick     uint64                `json:"tick,omitempty"`
	Events   []contract.Outbound   `json:"events,omitempty"`
	Keyframe *journal.Keyframe     `json:"keyframe,omitempty"`
	Resync   *journal.ResyncSignal `json:"resync,omitempty"`
	Sequence uint64                `json:"sequence,omitempty"`
	Reason   string                `json:"reason,omitempty"`
}

// Source is the slice of the journal the hub reads.
type Source interface {
	Drain() []journal.Batch
	ConsumeResyncHint() (journal.ResyncSignal, bool)
	Latest() (journal.Keyframe, bool)
	KeyframeBySequence(sequence uint64) (journal.Keyframe, bool)
}

type subscriber struct {
	id   uint64
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans journal batches out to every connected observer.
type Hub struct {
	source       Source
	logger       telemetry.Logger
	metrics      telemetry.Metrics
	writeTimeout time.Duration

	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]*subscriber
}

// Config tunes a Hub. Zero values fall back to defaults.
type Config struct {
	Logger       telemetry.Logger
	Metrics      telemetry.Metrics
	WriteTimeout time.Duration
}

// NewHub creates a hub reading from source, which may be nil until a run
// is attached.
func NewHub(source Source, cfg Config) *Hub {
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NopMetrics()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	return &Hub{
		source:       source,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		writeTimeout: cfg.WriteTimeout,
		subscribers:  make(map[uint64]*subscriber),
	}
}

func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	sub := &subscriber{id: h.nextID, conn: conn}
	h.subscribers[sub.id] = sub
	h.metrics.Store(telemetry.MetricObserversCurrent, uint64(len(h.subscribers)))
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub.id]
	delete(h.subscribers, sub.id)
	h.metrics.Store(telemetry.MetricObserversCurrent, uint64(len(h.subscribers)))
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Attach points the hub at a new journal, typically for a fresh run.
// Connected observers get the new run's latest keyframe on the next
// resync or keyframe request.
func (h *Hub) Attach(source Source) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source = source
}

func (h *Hub) current() Source {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source
}

// Observers reports how many observers are connected.
func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) snapshot() []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	return subs
}

// Flush drains the journal and broadcasts every pending batch. When the
// journal dropped batches since the last flush, observers get a resync
// notice followed by the latest keyframe. It returns the number of
// batches sent.
func (h *Hub) Flush() int {
	if h == nil {
		return 0
	}
	source := h.current()
	if source == nil {
		return 0
	}
	batches := source.Drain()
	if signal, ok := source.ConsumeResyncHint(); ok {
		h.logger.Printf("[observer] resync: %s", signal.Summary())
		h.broadcast(Message{Ver: ProtocolVersion, Type: TypeResync, Resync: &signal})
		if frame, ok := source.Latest(); ok {
			h.broadcast(keyframeMessage(frame))
		}
	}
	for _, batch := range batches {
		h.broadcast(Message{Ver: ProtocolVersion, Type: TypeBatch, Tick: batch.Tick, Events: batch.Events})
	}
	return len(batches)
}

func keyframeMessage(frame journal.Keyframe) Message {
	return Message{Ver: ProtocolVersion, Type: TypeKeyframe, Tick: frame.Tick, Sequence: frame.Sequence, Keyframe: &frame}
}

func (h *Hub) broadcast(msg Message) {
	subs := h.snapshot()
	if len(subs) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("[observer] failed to marshal %s: %v", msg.Type, err)
		return
	}
	for _, sub := range subs {
		if err := sub.write(data, h.writeTimeout); err != nil {
			h.logger.Printf("[observer] dropping observer %d: %v", sub.id, err)
			h.unsubscribe(sub)
		}
	}
}

func (h *Hub) send(sub *subscriber, msg Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("[observer] failed to marshal %s: %v", msg.Type, err)
		return true
	}
	if err := sub.write(data, h.writeTimeout); err != nil {
		h.unsubscribe(sub)
		return false
	}
	return true
}

// Close disconnects every observer.
func (h *Hub) Close() {
	for _, sub := range h.snapshot() {
		sub.mu.Lock()
		_ = sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "simulation stopped"),
			time.Now().Add(h.writeTimeout))
		sub.mu.Unlock()
		h.unsubscribe(sub)
	}
}
