package ai

import (
	"context"

	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

const (
	// EventStateChanged is emitted on every AI state transition.
	EventStateChanged logging.EventType = "ai.state_changed"
	// EventTransitionRefused is emitted when the transition table rejects an event.
	EventTransitionRefused logging.EventType = "ai.transition_refused"
	// EventInvestigate is emitted when gunfire sends an entity to investigate.
	EventInvestigate logging.EventType = "ai.investigate"
)

// StateChangedPayload names both ends of a transition and the event that drove it.
type StateChangedPayload struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Event string `json:"event"`
}

// TransitionRefusedPayload records a rejected FSM event.
type TransitionRefusedPayload struct {
	State string `json:"state"`
	Event string `json:"event"`
	Error string `json:"error"`
}

// InvestigatePayload is the point an entity was sent to.
type InvestigatePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// StateChanged publishes an AI transition. Target, when valid, is the
// entity the new state is about.
func StateChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target *logging.EntityRef, payload StateChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventStateChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryAI,
		Payload:  payload,
		Extra:    extra,
	}
	if target != nil {
		event.Targets = []logging.EntityRef{*target}
	}
	pub.Publish(ctx, event)
}

// TransitionRefused publishes a debug event for a rejected FSM event.
func TransitionRefused(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TransitionRefusedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTransitionRefused,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryAI,
		Payload:  payload,
		Extra:    extra,
	})
}

// Investigate publishes a gunfire alert reaction.
func Investigate(ctx context.Context, pub logging.Publisher, tick uint64, actor, shooter logging.EntityRef, payload InvestigatePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventInvestigate,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{shooter},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryAI,
		Payload:  payload,
		Extra:    extra,
	})
}
