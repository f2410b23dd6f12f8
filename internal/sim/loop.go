package sim

import (
	"context"
	"time"

	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
	simulationlog "github.com/pockerhead/VOIDRUN-sub000/logging/simulation"
)

// LoopResult describes one live tick.
type LoopResult struct {
	StepResult
	Duration time.Duration
	Budget   time.Duration
	Overrun  bool
}

// LoopHooks lets callers observe live ticks.
type LoopHooks struct {
	AfterStep func(LoopResult)
}

// Loop drives an engine from a wall-clock ticker. The simulation itself
// always advances by the fixed step; the clock only paces it.
type Loop struct {
	engine *Engine
	hooks  LoopHooks
	clock  logging.Clock
	streak uint64
}

func NewLoop(engine *Engine, hooks LoopHooks) *Loop {
	return &Loop{
		engine: engine,
		hooks:  hooks,
		clock:  logging.ClockFunc(time.Now),
	}
}

// WithClock replaces the wall clock used for budget accounting.
func (l *Loop) WithClock(clock logging.Clock) *Loop {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// Run ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil || l.engine == nil {
		return nil
	}
	rate := l.engine.Config().TickRate
	budget := time.Second / time.Duration(rate)
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Advance(ctx, budget)
		}
	}
}

// Advance runs one tick and accounts it against budget.
func (l *Loop) Advance(ctx context.Context, budget time.Duration) LoopResult {
	start := l.clock.Now()
	step := l.engine.Step(ctx)
	result := LoopResult{
		StepResult: step,
		Duration:   l.clock.Now().Sub(start),
		Budget:     budget,
	}
	if budget > 0 && result.Duration > budget {
		result.Overrun = true
		l.streak++
		deps := l.engine.deps
		deps.Metrics.Add(telemetry.MetricTickOverruns, 1)
		simulationlog.TickBudgetOverrun(ctx, deps.Publisher, step.Tick, simulationlog.TickBudgetOverrunPayload{
			DurationMillis: result.Duration.Milliseconds(),
			BudgetMillis:   budget.Milliseconds(),
			Ratio:          float64(result.Duration) / float64(budget),
			Streak:         l.streak,
		}, nil)
	} else {
		l.streak = 0
	}
	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result
}
