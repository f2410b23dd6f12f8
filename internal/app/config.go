package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pockerhead/VOIDRUN-sub000/internal/combat"
	"github.com/pockerhead/VOIDRUN-sub000/internal/journal"
	"github.com/pockerhead/VOIDRUN-sub000/internal/sim"
	"github.com/pockerhead/VOIDRUN-sub000/internal/telemetry"
	"github.com/pockerhead/VOIDRUN-sub000/internal/weapon"
	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

const (
	envTickRate  = "VOIDRUN_TICK_RATE"
	envSeed      = "VOIDRUN_SEED"
	envLogLevel  = "LOG_LEVEL"
	envLogFormat = "LOG_FORMAT"
)

// Config is the process configuration. File values overlay the defaults;
// environment variables overlay the file.
type Config struct {
	Seed             string         `yaml:"seed"`
	TickRate         int            `yaml:"tickRate"`
	InboundCapacity  int            `yaml:"inboundCapacity"`
	PerEntityLimit   int            `yaml:"perEntityLimit"`
	DespawnGrace     float64        `yaml:"despawnGrace"`
	KeyframeInterval uint64         `yaml:"keyframeInterval"`
	Journal          journal.Config `yaml:"journal"`
	// Weapons and Profiles name YAML files overlaid on the bundled tuning.
	Weapons  string         `yaml:"weapons"`
	Profiles string         `yaml:"profiles"`
	Listen   string         `yaml:"listen"`
	Logging  logging.Config `yaml:"logging"`
	Log      LogConfig      `yaml:"log"`
}

// LogConfig selects the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() Config {
	engine := sim.DefaultConfig()
	return Config{
		TickRate:         engine.TickRate,
		InboundCapacity:  engine.InboundCapacity,
		PerEntityLimit:   engine.PerEntityLimit,
		DespawnGrace:     engine.DespawnGrace,
		KeyframeInterval: engine.KeyframeInterval,
		Journal:          engine.Journal,
		Listen:           ":8080",
		Logging:          logging.DefaultConfig(),
		Log:              LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig overlays the YAML file at path onto the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("app: open config: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("app: decode config %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment overrides. Invalid values are logged and
// ignored.
func (c Config) ApplyEnv(lookup func(string) (string, bool), logger telemetry.Logger) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	if raw, ok := lookup(envTickRate); ok && raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			c.TickRate = value
		} else {
			logger.Printf("invalid %s=%q", envTickRate, raw)
		}
	}
	if raw, ok := lookup(envSeed); ok && raw != "" {
		c.Seed = raw
	}
	if raw, ok := lookup(envLogLevel); ok && raw != "" {
		c.Log.Level = raw
		c.Logging.Level = raw
	}
	if raw, ok := lookup(envLogFormat); ok && raw != "" {
		format := strings.ToLower(raw)
		c.Log.Format = format
		c.Logging.Console.Format = format
	}
	return c
}

// Engine resolves the engine tuning, loading weapon and profile overlays
// from disk when configured.
func (c Config) Engine() (sim.Config, error) {
	cfg := sim.DefaultConfig()
	cfg.Seed = c.Seed
	cfg.TickRate = c.TickRate
	cfg.InboundCapacity = c.InboundCapacity
	cfg.PerEntityLimit = c.PerEntityLimit
	cfg.DespawnGrace = c.DespawnGrace
	cfg.KeyframeInterval = c.KeyframeInterval
	cfg.Journal = c.Journal
	if c.Weapons != "" {
		catalog, err := weapon.LoadCatalogFile(c.Weapons)
		if err != nil {
			return cfg, err
		}
		cfg.Catalog = catalog
	}
	if c.Profiles != "" {
		data, err := os.ReadFile(c.Profiles)
		if err != nil {
			return cfg, fmt.Errorf("app: read profiles: %w", err)
		}
		profiles, err := combat.DecodeProfiles(data)
		if err != nil {
			return cfg, fmt.Errorf("app: decode profiles %q: %w", c.Profiles, err)
		}
		cfg.Profiles = profiles
	}
	return cfg, nil
}
