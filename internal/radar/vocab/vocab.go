// Package vocab holds the static radar vocabulary: taxonomy dimensions and
// their terms, maturity bands and score bounds.
package vocab

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultFS embed.FS

type Config struct {
	Version    int         `yaml:"version"`
	Score      ScoreBounds `yaml:"score"`
	Bands      []Band      `yaml:"bands"`
	Dimensions []Dimension `yaml:"dimensions"`
	Layout     LayoutTune  `yaml:"layout"`

	termIndex map[string]int
}

type ScoreBounds struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type Band struct {
	Name string  `yaml:"name"`
	Min  float64 `yaml:"min"`
}

type Dimension struct {
	Name  string   `yaml:"name"`
	Label string   `yaml:"label"`
	Color string   `yaml:"color"`
	Terms []string `yaml:"terms"`
}

type LayoutTune struct {
	SpiralStep float64 `yaml:"spiral_step"`
	MaxDensify int     `yaml:"max_densify"`
}

// Default returns the embedded vocabulary.
func Default() (*Config, error) {
	data, err := defaultFS.ReadFile("default.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Load reads path, or the embedded default when path is empty.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read radar vocabulary %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse radar vocabulary: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Score.Min <= 0 || c.Score.Max < c.Score.Min {
		return fmt.Errorf("invalid score bounds [%d, %d]", c.Score.Min, c.Score.Max)
	}
	if len(c.Dimensions) == 0 {
		return errors.New("no dimensions defined")
	}
	if len(c.Bands) == 0 {
		return errors.New("no bands defined")
	}
	for i, b := range c.Bands {
		if strings.TrimSpace(b.Name) == "" {
			return fmt.Errorf("band %d: name is required", i)
		}
		if i > 0 && b.Min >= c.Bands[i-1].Min {
			return fmt.Errorf("band %s: min must be below %s", b.Name, c.Bands[i-1].Name)
		}
	}
	c.termIndex = make(map[string]int)
	dims := make(map[string]bool, len(c.Dimensions))
	for i, d := range c.Dimensions {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("dimension %d: name is required", i)
		}
		if dims[name] {
			return fmt.Errorf("duplicate dimension: %s", name)
		}
		dims[name] = true
		for _, term := range d.Terms {
			key := normalizeTerm(term)
			if key == "" {
				continue
			}
			if prev, ok := c.termIndex[key]; ok {
				return fmt.Errorf("term %q listed under %s and %s", term, c.Dimensions[prev].Name, name)
			}
			c.termIndex[key] = i
		}
	}
	if c.Layout.SpiralStep <= 0 {
		c.Layout.SpiralStep = 0.04
	}
	if c.Layout.MaxDensify <= 0 {
		c.Layout.MaxDensify = 12
	}
	return nil
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// HasTerm reports whether term belongs to any dimension.
func (c *Config) HasTerm(term string) bool {
	_, ok := c.DimensionOf(term)
	return ok
}

// DimensionOf returns the index of the dimension that owns term.
func (c *Config) DimensionOf(term string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.termIndex[normalizeTerm(term)]
	return i, ok
}

// ValidScore reports whether v lies within the configured bounds.
func (c *Config) ValidScore(v int) bool {
	return c != nil && v >= c.Score.Min && v <= c.Score.Max
}

// BandOf returns the ring index for a score pair: the first band, innermost
// first, whose min does not exceed the mean of mrl and trl.
func (c *Config) BandOf(mrl, trl int) (int, bool) {
	if c == nil || !c.ValidScore(mrl) || !c.ValidScore(trl) {
		return 0, false
	}
	mean := float64(mrl+trl) / 2
	for i, b := range c.Bands {
		if mean >= b.Min {
			return i, true
		}
	}
	return 0, false
}

// Terms lists every configured term, grouped by dimension order.
func (c *Config) Terms() []string {
	var out []string
	for _, d := range c.Dimensions {
		out = append(out, d.Terms...)
	}
	return out
}
