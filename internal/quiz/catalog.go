package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type Category struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

type Difficulty struct {
	Key        string `yaml:"key"`
	Label      string `yaml:"label"`
	BasePoints int    `yaml:"base_points"`
	Seconds    int    `yaml:"seconds"`
}

func (d Difficulty) TimeLimit() time.Duration {
	return time.Duration(d.Seconds) * time.Second
}

// Mode fixes how many questions a session runs. Zero questions means the
// session continues until the first miss.
type Mode struct {
	Key       string `yaml:"key"`
	Label     string `yaml:"label"`
	Questions int    `yaml:"questions"`
}

func (m Mode) Unbounded() bool { return m.Questions <= 0 }

type Catalog struct {
	Kind          string       `yaml:"kind"`
	SchemaVersion int          `yaml:"schema_version"`
	Categories    []Category   `yaml:"categories"`
	Difficulties  []Difficulty `yaml:"difficulties"`
	Modes         []Mode       `yaml:"modes"`
}

func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded quiz catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file, falling back to the built-in one when
// path is empty or missing.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return Catalog{}, err
	}
	c, err := ParseCatalog(b)
	if err != nil {
		return Catalog{}, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

func ParseCatalog(b []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Catalog) Validate() error {
	if c.Kind != "quiz_catalog" {
		return fmt.Errorf("kind must be quiz_catalog, got %q", c.Kind)
	}
	if len(c.Categories) == 0 || len(c.Difficulties) == 0 || len(c.Modes) == 0 {
		return errors.New("catalog needs categories, difficulties and modes")
	}
	for _, d := range c.Difficulties {
		if d.Key == "" || d.BasePoints <= 0 || d.Seconds <= 0 {
			return fmt.Errorf("difficulty %q: key, base_points and seconds are required", d.Key)
		}
	}
	for _, m := range c.Modes {
		if m.Key == "" {
			return errors.New("mode key is required")
		}
	}
	return nil
}

func (c Catalog) Difficulty(key string) (Difficulty, bool) {
	for _, d := range c.Difficulties {
		if d.Key == key {
			return d, true
		}
	}
	return Difficulty{}, false
}

func (c Catalog) Mode(key string) (Mode, bool) {
	for _, m := range c.Modes {
		if m.Key == key {
			return m, true
		}
	}
	return Mode{}, false
}

func (c Catalog) CategoryName(id int) string {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return fmt.Sprintf("Category %d", id)
}
