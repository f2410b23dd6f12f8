package sinks

import (
	"fmt"
	"io"
	"os"

	"github.com/pockerhead/VOIDRUN-sub000/logging"
)

// Build constructs the sinks enabled in cfg. Console output goes to console;
// the json sink writes to cfg.JSON.FilePath or, if empty, to console as well.
func Build(cfg logging.Config, console io.Writer) ([]logging.NamedSink, error) {
	var named []logging.NamedSink
	for _, name := range cfg.EnabledSinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{Name: name, Sink: NewConsole(console, cfg.Console)})
		case "json":
			if cfg.JSON.FilePath == "" {
				named = append(named, logging.NamedSink{Name: name, Sink: NewJSON(console, cfg.JSON.FlushInterval)})
				continue
			}
			f, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, fmt.Errorf("sinks: open json log: %w", err)
			}
			named = append(named, logging.NamedSink{Name: name, Sink: NewJSON(f, cfg.JSON.FlushInterval).ClosingWith(f)})
		case "memory":
			named = append(named, logging.NamedSink{Name: name, Sink: NewMemory()})
		default:
			return nil, fmt.Errorf("sinks: unknown sink %q", name)
		}
	}
	return named, nil
}
