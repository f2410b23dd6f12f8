package simulation

import (
	"context"

	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

const (
	// EventTickBudgetOverrun is emitted when a live loop step exceeds the tick budget.
	EventTickBudgetOverrun logging.EventType = "simulation.tick_budget_overrun"
	// EventInboundDropped is emitted when an inbound event is discarded before dispatch.
	EventInboundDropped logging.EventType = "simulation.inbound_dropped"
	// EventChecksum is emitted when a keyframe checksum is recorded.
	EventChecksum logging.EventType = "simulation.checksum"
)

// TickBudgetOverrunPayload captures timing details for a tick budget breach.
type TickBudgetOverrunPayload struct {
	DurationMillis int64   `json:"durationMillis"`
	BudgetMillis   int64   `json:"budgetMillis"`
	Ratio          float64 `json:"ratio"`
	Streak         uint64  `json:"streak"`
}

// InboundDroppedPayload names the discarded event and why.
type InboundDroppedPayload struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

// ChecksumPayload records a state digest.
type ChecksumPayload struct {
	Checksum string `json:"checksum"`
	Entities int    `json:"entities"`
}

// TickBudgetOverrun publishes a warning when the loop exceeds the configured tick budget.
func TickBudgetOverrun(ctx context.Context, pub logging.Publisher, tick uint64, payload TickBudgetOverrunPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTickBudgetOverrun,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// InboundDropped publishes a warning for a discarded inbound event.
func InboundDropped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload InboundDroppedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventInboundDropped,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Checksum publishes a debug event carrying a state digest.
func Checksum(ctx context.Context, pub logging.Publisher, tick uint64, payload ChecksumPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventChecksum,
		Tick:     tick,
		Actor:    logging.WorldRef(),
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
