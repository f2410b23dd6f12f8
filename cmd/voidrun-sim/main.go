package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pockerhead/VOIDRUN-sub000/internal/app"
	"github.com/pockerhead/VOIDRUN-sub000/internal/scenario"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
)

func main() {
	var (
		scenarioRef = flag.String("scenario", "skirmish", "scenario file or bundled name ("+strings.Join(scenario.BuiltinNames(), ", ")+")")
		configPath  = flag.String("config", "", "YAML configuration file")
		seed        = flag.String("seed", "", "override the scenario seed")
		ticks       = flag.Uint64("ticks", 0, "override the scenario length in ticks")
		watch       = flag.Bool("watch", false, "re-run when the scenario or tuning files change")
		serve       = flag.Bool("serve", false, "pace runs in real time and stream them to websocket observers")
		schema      = flag.Bool("schema", false, "print the scenario JSON schema and exit")
	)
	flag.Parse()

	bootstrap := telemetry.NewLogrus(telemetry.LogrusConfigFromEnv())

	if *schema {
		data, err := scenario.SchemaJSON()
		if err != nil {
			bootstrap.Fatalf("%v", err)
		}
		os.Stdout.Write(data)
		return
	}

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		bootstrap.Fatalf("%v", err)
	}
	cfg = cfg.ApplyEnv(nil, telemetry.WithComponent(bootstrap, "config"))
	if *seed != "" {
		cfg.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx, app.Options{
		Config:   cfg,
		Scenario: *scenarioRef,
		Ticks:    *ticks,
		Watch:    *watch,
		Serve:    *serve,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	})
	switch {
	case err == nil:
	case errors.Is(err, app.ErrExpectationsFailed):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	default:
		bootstrap.WithError(err).Error("voidrun-sim failed")
		os.Exit(2)
	}
}
