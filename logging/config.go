package logging

import "time"

type Config struct {
	EnabledSinks     []string       `yaml:"sinks"`
	BufferSize       int            `yaml:"bufferSize"`
	MinimumSeverity  Severity       `yaml:"-"`
	Level            string         `yaml:"level"`
	Fields           map[string]any `yaml:"fields"`
	JSON             JSONConfig     `yaml:"json"`
	Console          ConsoleConfig  `yaml:"console"`
	DropWarnInterval time.Duration  `yaml:"dropWarnInterval"`
}

type JSONConfig struct {
	FilePath      string        `yaml:"filePath"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

type ConsoleConfig struct {
	Format   string `yaml:"format"`
	UseColor bool   `yaml:"useColor"`
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		Level:            "info",
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
		Console: ConsoleConfig{Format: "text"},
	}
}

// Normalize resolves Level into MinimumSeverity.
func (c Config) Normalize() Config {
	if c.Level != "" {
		c.MinimumSeverity = ParseSeverity(c.Level)
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 512
	}
	return c
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
