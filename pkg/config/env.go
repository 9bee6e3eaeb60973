// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/logging"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Geometry kernels the preview can run on.
const (
	KernelSDFX     = "sdfx"
	KernelManifold = "manifold"
)

// Config is the configuration shared by the desktop app and the API server.
type Config struct {
	CatalogPath  string        `env:"MEMORIAL_CATALOG_PATH" envDefault:"catalog.yaml"`
	DBPath       string        `env:"MEMORIAL_DB_PATH"      envDefault:"memorial.db"`
	HTTPAddr     string        `env:"MEMORIAL_HTTP_ADDR"    envDefault:":8080"`
	LogLevel     string        `env:"MEMORIAL_LOG_LEVEL"    envDefault:"info"`
	FetchTimeout time.Duration `env:"MEMORIAL_FETCH_TIMEOUT" envDefault:"5s"`
	MeshCells    int           `env:"MEMORIAL_MESH_CELLS"   envDefault:"120"`
	Kernel       string        `env:"MEMORIAL_KERNEL"       envDefault:"sdfx"`

	WidthMin         int     `env:"MEMORIAL_WIDTH_MIN"          envDefault:"100"`
	WidthMax         int     `env:"MEMORIAL_WIDTH_MAX"          envDefault:"2000"`
	HeightMin        int     `env:"MEMORIAL_HEIGHT_MIN"         envDefault:"100"`
	HeightMax        int     `env:"MEMORIAL_HEIGHT_MAX"         envDefault:"2000"`
	BaseWidthMin     int     `env:"MEMORIAL_BASE_WIDTH_MIN"     envDefault:"100"`
	BaseWidthMax     int     `env:"MEMORIAL_BASE_WIDTH_MAX"     envDefault:"2500"`
	BaseHeightMin    int     `env:"MEMORIAL_BASE_HEIGHT_MIN"    envDefault:"50"`
	BaseHeightMax    int     `env:"MEMORIAL_BASE_HEIGHT_MAX"    envDefault:"600"`
	BaseThicknessMin int     `env:"MEMORIAL_BASE_THICKNESS_MIN" envDefault:"50"`
	BaseThicknessMax int     `env:"MEMORIAL_BASE_THICKNESS_MAX" envDefault:"600"`
	ScaleMin         float64 `env:"MEMORIAL_SCALE_MIN"          envDefault:"0.1"`
	ScaleMax         float64 `env:"MEMORIAL_SCALE_MAX"          envDefault:"5"`
}

// Load parses Config from the environment and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects inverted ranges and unusable values.
func (c Config) Validate() error {
	ranges := []struct {
		name     string
		min, max int
	}{
		{"width", c.WidthMin, c.WidthMax},
		{"height", c.HeightMin, c.HeightMax},
		{"base width", c.BaseWidthMin, c.BaseWidthMax},
		{"base height", c.BaseHeightMin, c.BaseHeightMax},
		{"base thickness", c.BaseThicknessMin, c.BaseThicknessMax},
	}
	for _, r := range ranges {
		if r.min <= 0 || r.max < r.min {
			return fmt.Errorf("config: %s range %d..%d is invalid", r.name, r.min, r.max)
		}
	}
	if c.ScaleMin <= 0 || c.ScaleMax < c.ScaleMin {
		return fmt.Errorf("config: scale range %g..%g is invalid", c.ScaleMin, c.ScaleMax)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("config: fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	switch c.Kernel {
	case KernelSDFX, KernelManifold:
	default:
		return fmt.Errorf("config: unknown kernel %q", c.Kernel)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Limits returns the dimension and scale limits a design clamps against.
func (c Config) Limits() design.Limits {
	return design.Limits{
		Width:         design.Range{Min: c.WidthMin, Max: c.WidthMax},
		Height:        design.Range{Min: c.HeightMin, Max: c.HeightMax},
		BaseWidth:     design.Range{Min: c.BaseWidthMin, Max: c.BaseWidthMax},
		BaseHeight:    design.Range{Min: c.BaseHeightMin, Max: c.BaseHeightMax},
		BaseThickness: design.Range{Min: c.BaseThicknessMin, Max: c.BaseThicknessMax},
		MinScale:      c.ScaleMin,
		MaxScale:      c.ScaleMax,
	}
}

// Level returns the configured log level. Validate has already checked it.
func (c Config) Level() slog.Level {
	lvl, _ := logging.ParseLevel(c.LogLevel)
	return lvl
}
