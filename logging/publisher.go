package logging

import (
	"context"
	"strings"
	"time"

	"github.com/pockerhead/VOIDRUN-sub000/contract"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a level name to a Severity. Unknown names map to info.
func ParseSeverity(name string) Severity {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace":
		return SeverityDebug
	case "warn", "warning":
		return SeverityWarn
	case "error", "fatal", "panic":
		return SeverityError
	default:
		return SeverityInfo
	}
}

type EntityKind string

const (
	EntityKindUnknown EntityKind = "unknown"
	EntityKindPlayer  EntityKind = "player"
	EntityKindNPC     EntityKind = "npc"
	EntityKindWorld   EntityKind = "world"
)

type Event struct {
	Type     EventType      `json:"type"`
	Tick     uint64         `json:"tick"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
	TraceID  string         `json:"traceId,omitempty"`
}

type EntityRef struct {
	ID   contract.EntityID `json:"id"`
	Kind EntityKind        `json:"kind"`
}

// Entity builds a reference for a simulation entity.
func Entity(id contract.EntityID, kind contract.ActorKind) EntityRef {
	switch kind {
	case contract.ActorKindPlayer:
		return EntityRef{ID: id, Kind: EntityKindPlayer}
	case contract.ActorKindNPC:
		return EntityRef{ID: id, Kind: EntityKindNPC}
	default:
		return EntityRef{ID: id, Kind: EntityKindUnknown}
	}
}

// WorldRef is the actor of events the simulation raises about itself.
func WorldRef() EntityRef {
	return EntityRef{Kind: EntityKindWorld}
}

const (
	CategoryCombat     = "combat"
	CategoryAI         = "ai"
	CategoryLifecycle  = "lifecycle"
	CategorySimulation = "simulation"
	CategorySystem     = "system"
)

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

func NopPublisher() Publisher {
	return nopPublisher{}
}

type fieldPublisher struct {
	next    Publisher
	fields  map[string]any
	traceID string
}

func (p *fieldPublisher) Publish(ctx context.Context, event Event) {
	if p.next == nil {
		return
	}
	if event.TraceID == "" && p.traceID != "" {
		event.TraceID = p.traceID
	}
	if len(p.fields) > 0 {
		event = cloneForFields(event)
		if event.Extra == nil {
			event.Extra = make(map[string]any, len(p.fields))
		}
		for k, v := range p.fields {
			if _, exists := event.Extra[k]; !exists {
				event.Extra[k] = v
			}
		}
	}
	p.next.Publish(ctx, event)
}

func cloneForFields(event Event) Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = append([]EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}

// Clone returns a copy that shares no slices or maps with event.
func Clone(event Event) Event {
	return cloneForFields(event)
}

// WithFields decorates p so every event carries fields in Extra. Keys the
// event already sets win.
func WithFields(p Publisher, fields map[string]any) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if len(fields) == 0 {
		return p
	}
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &fieldPublisher{next: p, fields: copied}
}

// WithTrace stamps traceID onto every event that has none.
func WithTrace(p Publisher, traceID string) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if traceID == "" {
		return p
	}
	return &fieldPublisher{next: p, traceID: traceID}
}

// Fanout publishes every event to each non-nil publisher in order.
func Fanout(publishers ...Publisher) Publisher {
	targets := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			targets = append(targets, p)
		}
	}
	switch len(targets) {
	case 0:
		return NopPublisher()
	case 1:
		return targets[0]
	}
	return PublisherFunc(func(ctx context.Context, event Event) {
		for _, p := range targets {
			p.Publish(ctx, event)
		}
	})
}

func (e Event) WithExtra(key string, value any) Event {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 1)
	}
	e.Extra[key] = value
	return e
}
