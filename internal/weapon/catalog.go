package weapon

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var embeddedCatalog embed.FS

// DefaultCatalog holds the weapon profiles bundled with the binary.
var DefaultCatalog = MustLoadCatalog()

// Catalog indexes weapon profiles by lower-cased name.
type Catalog struct {
	byName map[string]Stats
}

type catalogDocument struct {
	Weapons []Stats `yaml:"weapons"`
}

// MustLoadCatalog loads the embedded catalog or panics on failure.
func MustLoadCatalog() *Catalog {
	catalog, err := LoadCatalog()
	if err != nil {
		panic(fmt.Errorf("weapon: load catalog: %w", err))
	}
	return catalog
}

// LoadCatalog loads every embedded catalog document.
func LoadCatalog() (*Catalog, error) {
	catalog := NewCatalog()
	entries, err := fs.ReadDir(embeddedCatalog, "catalog")
	if err != nil {
		return nil, fmt.Errorf("weapon: read catalog: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(embeddedCatalog, "catalog/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("weapon: read %q: %w", entry.Name(), err)
		}
		if err := catalog.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("weapon: decode %q: %w", entry.Name(), err)
		}
	}
	return catalog, nil
}

// LoadCatalogFile overlays the embedded catalog with profiles from path.
// Profiles with the same name replace the bundled ones.
func LoadCatalogFile(path string) (*Catalog, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("weapon: open %q: %w", path, err)
	}
	defer f.Close()
	if err := catalog.Decode(f); err != nil {
		return nil, fmt.Errorf("weapon: decode %q: %w", path, err)
	}
	return catalog, nil
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]Stats)}
}

// Decode reads one YAML document and validates every profile in it.
func (c *Catalog) Decode(r io.Reader) error {
	var doc catalogDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	for _, stats := range doc.Weapons {
		if err := c.Add(stats); err != nil {
			return err
		}
	}
	return nil
}

// Add validates and registers a profile.
func (c *Catalog) Add(stats Stats) error {
	key := normalize(stats.Name)
	if key == "" {
		return fmt.Errorf("%w: profile without a name", ErrInvalidWeapon)
	}
	if err := stats.Validate(); err != nil {
		return err
	}
	stats.CooldownTimer = 0
	c.byName[key] = stats
	return nil
}

// Get returns a copy of the named profile with a cleared cooldown.
func (c *Catalog) Get(name string) (Stats, bool) {
	if c == nil {
		return Stats{}, false
	}
	stats, ok := c.byName[normalize(name)]
	return stats, ok
}

// Names lists the registered profiles in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}
