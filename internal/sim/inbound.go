package sim

import (
	"sync"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
)

const (
	inboundOccupancyMetricKey = "sim_inbound_occupancy"
	inboundOverflowMetricKey  = "sim_inbound_overflow_total"
)

const (
	// DropInvalid marks an event whose payload does not match its kind.
	DropInvalid = "invalid"
	// DropEntityLimit marks an event dropped by per-entity throttling.
	DropEntityLimit = "entity_limit"
	// DropQueueFull marks an event dropped because the buffer is saturated.
	DropQueueFull = "queue_full"
)

// InboundBuffer stages collaborator events in a fixed-size ring. It is safe
// for concurrent producers and a single consumer.
type InboundBuffer struct {
	mu      sync.Mutex
	data    []contract.Inbound
	head    int
	tail    int
	count   int
	metrics telemetry.Metrics
}

func NewInboundBuffer(capacity int, metrics telemetry.Metrics) *InboundBuffer {
	if capacity < 1 {
		capacity = 1
	}
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	return &InboundBuffer{
		data:    make([]contract.Inbound, capacity),
		metrics: metrics,
	}
}

func (b *InboundBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Push stages an event, returning false if the buffer is full.
func (b *InboundBuffer) Push(in contract.Inbound) bool {
	if b == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == len(b.data) {
		b.metrics.Add(inboundOverflowMetricKey, 1)
		return false
	}
	b.data[b.tail] = in
	b.tail = (b.tail + 1) % len(b.data)
	b.count++
	b.metrics.Store(inboundOccupancyMetricKey, uint64(b.count))
	return true
}

// Drain returns every staged event in arrival order and clears the buffer.
func (b *InboundBuffer) Drain() []contract.Inbound {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	events := make([]contract.Inbound, b.count)
	for i := 0; i < b.count; i++ {
		events[i] = b.data[(b.head+i)%len(b.data)]
		b.data[(b.head+i)%len(b.data)] = contract.Inbound{}
	}
	b.head = 0
	b.tail = 0
	b.count = 0
	b.metrics.Store(inboundOccupancyMetricKey, 0)
	return events
}

func (b *InboundBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Subject returns the entity an inbound event is about, used for
// per-entity throttling. Reports are keyed by their target.
func Subject(in contract.Inbound) contract.EntityID {
	switch {
	case in.Spotted != nil:
		return in.Spotted.Observer
	case in.Lost != nil:
		return in.Lost.Observer
	case in.Damage != nil:
		return in.Damage.Target
	case in.Impact != nil:
		return in.Impact.Target
	case in.ShieldImpact != nil:
		return in.ShieldImpact.Target
	case in.Approved != nil:
		return in.Approved.Attacker
	case in.Jump != nil:
		return in.Jump.Entity
	case in.Input != nil:
		return in.Input.Entity
	case in.Navigation != nil:
		return in.Navigation.Entity
	case in.Fired != nil:
		return in.Fired.Shooter
	case in.Rejected != nil:
		return in.Rejected.Entity
	case in.Transform != nil:
		return in.Transform.Entity
	case in.Switch != nil:
		return in.Switch.Entity
	case in.Environmental != nil:
		return in.Environmental.Target
	}
	return contract.NoEntity
}
