// Package app wires configuration, logging, the scenario runner and the
// observer feed into one process.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pockerhead/VOIDRUN-sub000/internal/net/ws"
	"github.com/pockerhead/VOIDRUN-sub000/internal/scenario"
	"github.com/pockerhead/VOIDRUN-sub000/internal/sim"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
	"github.com/pockerhead/VOIDRUN-sub000/logging/sinks"
)

// ErrExpectationsFailed is returned when a one-shot run ends with failed
// expectations.
var ErrExpectationsFailed = errors.New("app: scenario expectations failed")

// Options selects what Run does.
type Options struct {
	Config Config
	// Scenario is a file path or the name of a bundled scenario.
	Scenario string
	// Ticks overrides the scenario length when non-zero.
	Ticks uint64
	Watch bool
	Serve bool
	// Stdout receives one JSON result per run; Stderr receives logs.
	Stdout io.Writer
	Stderr io.Writer
}

// App holds the long-lived process collaborators.
type App struct {
	cfg     Config
	base    *logrus.Logger
	logger  telemetry.Logger
	metrics *telemetry.Counters
	router  *logging.Router
	hub     *ws.Hub
	clock   logging.Clock
	addr    string
	server  *http.Server
}

// New builds the process logger and the event router.
func New(cfg Config, logOut io.Writer) (*App, error) {
	if logOut == nil {
		logOut = os.Stderr
	}
	base := telemetry.NewLogrus(telemetry.LogrusConfig{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})
	named, err := sinks.Build(cfg.Logging.Normalize(), logOut)
	if err != nil {
		return nil, fmt.Errorf("app: build sinks: %w", err)
	}
	clock := logging.ClockFunc(time.Now)
	return &App{
		cfg:     cfg,
		base:    base,
		logger:  telemetry.WithComponent(base, "app"),
		metrics: telemetry.NewCounters(),
		router:  logging.NewRouter(clock, cfg.Logging, telemetry.WithComponent(base, "logging"), named),
		clock:   clock,
	}, nil
}

func (a *App) Metrics() *telemetry.Counters { return a.metrics }

func (a *App) Router() *logging.Router { return a.router }

// Addr is the observer listener address once Serve succeeded.
func (a *App) Addr() string { return a.addr }

// Close stops the observer server and flushes the router.
func (a *App) Close(ctx context.Context) error {
	if a.server != nil {
		a.hub.Close()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Printf("observer shutdown: %v", err)
		}
		a.server = nil
	}
	return a.router.Close(ctx)
}

// Serve starts the observer endpoint on cfg.Listen. Subsequent runs are
// paced in real time and streamed to connected observers.
func (a *App) Serve() error {
	if a.server != nil {
		return nil
	}
	ln, err := net.Listen("tcp", a.cfg.Listen)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", a.cfg.Listen, err)
	}
	a.hub = ws.NewHub(nil, ws.Config{Logger: telemetry.WithComponent(a.base, "observer"), Metrics: a.metrics})
	mux := http.NewServeMux()
	mux.Handle("/observe", ws.NewHandler(a.hub))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	a.addr = ln.Addr().String()
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Printf("observer server failed: %v", err)
		}
	}(a.server)
	a.logger.Printf("observers at ws://%s/observe", a.addr)
	return nil
}

// LoadScenario resolves ref as a file when one exists, otherwise as a
// bundled scenario name.
func LoadScenario(ref string) (*scenario.Scenario, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return scenario.LoadFile(ref)
	}
	return scenario.Builtin(ref)
}

// RunScenario plays sc once with a fresh trace ID.
func (a *App) RunScenario(ctx context.Context, sc *scenario.Scenario) (scenario.Result, error) {
	engine, err := a.cfg.Engine()
	if err != nil {
		return scenario.Result{}, err
	}
	seed := a.cfg.Seed
	if seed == "" {
		seed = sc.Seed
	}
	trace := TraceID(seed, a.clock.Now())
	publisher := logging.WithFields(logging.WithTrace(a.router, trace), map[string]any{"scenario": sc.Name})

	opts := scenario.Options{
		Engine: engine,
		Deps: sim.Deps{
			Publisher: publisher,
			Metrics:   a.metrics,
			Logger:    a.base.WithFields(logrus.Fields{"component": "sim", "trace": trace}),
		},
		Seed: a.cfg.Seed,
	}
	if a.hub != nil {
		opts.Realtime = true
		opts.OnStart = func(e *sim.Engine) { a.hub.Attach(e.Journal()) }
		opts.OnStep = func(sim.StepResult) { a.hub.Flush() }
	}

	started := a.clock.Now()
	result, err := scenario.Run(ctx, sc, opts)
	if err != nil {
		return result, err
	}
	a.logger.Printf("scenario %s trace=%s ticks=%d checksum=%s alive=%v dead=%v took=%s",
		result.Name, trace, result.Ticks, result.Checksum, result.Alive, result.Dead, a.clock.Now().Sub(started).Round(time.Millisecond))
	for _, failure := range result.Failures {
		a.logger.Printf("scenario %s: %s", result.Name, failure)
	}
	return result, nil
}

func writeResult(w io.Writer, result scenario.Result) error {
	if w == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (o Options) load() (*scenario.Scenario, error) {
	sc, err := LoadScenario(o.Scenario)
	if err != nil {
		return nil, err
	}
	if o.Ticks > 0 {
		sc.Ticks = o.Ticks
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// Run executes opts until the scenario finishes, or, in watch or serve
// mode, until ctx is cancelled.
func Run(ctx context.Context, opts Options) (err error) {
	a, err := New(opts.Config, opts.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := a.Close(closeCtx); cerr != nil && err == nil {
			err = fmt.Errorf("app: close: %w", cerr)
		}
	}()

	if opts.Serve {
		if err := a.Serve(); err != nil {
			return err
		}
	}

	var watcher *Watcher
	if opts.Watch {
		files := []string{opts.Scenario}
		for _, extra := range []string{opts.Config.Weapons, opts.Config.Profiles} {
			if extra != "" {
				files = append(files, extra)
			}
		}
		watcher, err = NewWatcher(files...)
		if err != nil {
			return fmt.Errorf("app: watch %s: %w", opts.Scenario, err)
		}
		defer watcher.Close()
	}

	passed, err := a.runOnce(ctx, opts)
	if err != nil {
		if watcher == nil {
			return err
		}
		a.logger.Printf("run failed: %v", err)
	}

	switch {
	case watcher != nil:
		for {
			select {
			case <-ctx.Done():
				return nil
			case name, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				a.logger.Printf("%s changed, re-running", name)
				if _, err := a.runOnce(ctx, opts); err != nil {
					a.logger.Printf("re-run failed: %v", err)
				}
			case werr, ok := <-watcher.Errors:
				if ok {
					a.logger.Printf("watch error: %v", werr)
				}
			}
		}
	case opts.Serve:
		<-ctx.Done()
		return nil
	case !passed:
		return ErrExpectationsFailed
	}
	return nil
}

func (a *App) runOnce(ctx context.Context, opts Options) (bool, error) {
	sc, err := opts.load()
	if err != nil {
		return false, err
	}
	result, err := a.RunScenario(ctx, sc)
	if err != nil {
		return false, err
	}
	if err := writeResult(opts.Stdout, result); err != nil {
		return false, fmt.Errorf("app: write result: %w", err)
	}
	return result.Passed(), nil
}
