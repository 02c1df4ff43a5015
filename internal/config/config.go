// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/Leggit/geovis-lite/internal/geo"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTileURL is the OpenStreetMap standard tile layer.
	DefaultTileURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	// DefaultAttribution is shown under the map when the config sets none.
	DefaultAttribution = "© OpenStreetMap contributors"
	// MaxTileZoom is the deepest base layer zoom level accepted.
	MaxTileZoom = 24
)

// Config represents the root configuration file structure.
type Config struct {
	Attribution string    `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	View        View      `yaml:"view" json:"view"`
	BaseLayer   BaseLayer `yaml:"base_layer" json:"base_layer"`
	Defaults    Defaults  `yaml:"defaults" json:"defaults"`
	Style       Style     `yaml:"style" json:"style"`
}

// View describes the initial state of the mounted map view.
type View struct {
	Target string     `yaml:"target,omitempty" json:"target"`
	Center [2]float64 `yaml:"center,flow" json:"center"` // display space (EPSG:3857)
	Zoom   float64    `yaml:"zoom,omitempty" json:"zoom"`
}

// BaseLayer configures the tile provider proxied by the server.
type BaseLayer struct {
	Name      string        `yaml:"name,omitempty" json:"name"`
	URL       string        `yaml:"url,omitempty" json:"-"`
	CacheDir  string        `yaml:"cache_dir,omitempty" json:"-"`
	UserAgent string        `yaml:"user_agent,omitempty" json:"-"`
	Visible   *bool         `yaml:"visible,omitempty" json:"visible"`
	MaxZoom   int           `yaml:"max_zoom,omitempty" json:"max_zoom"`
	TileSize  int           `yaml:"tile_size,omitempty" json:"tile_size"`
	Rate      float64       `yaml:"rate,omitempty" json:"-"` // upstream requests per second
	Burst     int           `yaml:"burst,omitempty" json:"-"`
	Timeout   time.Duration `yaml:"timeout,omitempty" json:"-"`
}

// Defaults holds the initial selector values of the input form.
type Defaults struct {
	Format     string `yaml:"format,omitempty" json:"format"`
	Projection string `yaml:"projection,omitempty" json:"projection"`
}

// Style is the stroke used for the active feature.
type Style struct {
	StrokeColor string  `yaml:"stroke_color,omitempty" json:"stroke_color"`
	StrokeWidth float64 `yaml:"stroke_width,omitempty" json:"stroke_width"`
}

// Default returns a configuration with every field set to its default value.
func Default() *Config {
	cfg := &Config{}
	if err := cfg.Normalize(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &cfg, nil
}

// Normalize fills missing fields with defaults and validates the rest.
func (c *Config) Normalize() error {
	if c.Attribution == "" {
		c.Attribution = DefaultAttribution
	}

	if c.View.Target == "" {
		c.View.Target = "map"
	}
	if c.View.Zoom <= 0 {
		c.View.Zoom = 2
	}

	bl := &c.BaseLayer
	if bl.Name == "" {
		bl.Name = "osm"
	}
	if bl.URL == "" {
		bl.URL = DefaultTileURL
	}
	if bl.CacheDir == "" {
		bl.CacheDir = "tiles"
	}
	if bl.UserAgent == "" {
		bl.UserAgent = "geovis-lite"
	}
	if bl.Visible == nil {
		visible := true
		bl.Visible = &visible
	}
	if bl.MaxZoom <= 0 {
		bl.MaxZoom = 19
	}
	if bl.MaxZoom > MaxTileZoom {
		bl.MaxZoom = MaxTileZoom
	}
	if bl.TileSize <= 0 {
		bl.TileSize = 256
	}
	if bl.Rate <= 0 {
		bl.Rate = 2
	}
	if bl.Burst <= 0 {
		bl.Burst = 4
	}
	if bl.Timeout <= 0 {
		bl.Timeout = 15 * time.Second
	}

	if c.Defaults.Format == "" {
		c.Defaults.Format = geo.FormatWKT.String()
	}
	if _, err := geo.ParseFormat(c.Defaults.Format); err != nil {
		return err
	}
	if c.Defaults.Projection == "" {
		c.Defaults.Projection = geo.DefaultSourceCRS
	}

	if c.Style.StrokeColor == "" {
		c.Style.StrokeColor = "#ffcc33"
	}
	if c.Style.StrokeWidth <= 0 {
		c.Style.StrokeWidth = 2
	}

	return nil
}

// Format returns the parsed default input format.
func (c *Config) Format() geo.Format {
	f, err := geo.ParseFormat(c.Defaults.Format)
	if err != nil {
		return geo.FormatWKT
	}
	return f
}
