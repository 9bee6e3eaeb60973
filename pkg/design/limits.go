package design

import "github.com/chazu/memorial/pkg/placement"

// Range is an inclusive integer millimetre range.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Clamp returns v limited to r. An inverted range collapses to Min.
func (r Range) Clamp(v int) int {
	if v > r.Max {
		v = r.Max
	}
	if v < r.Min {
		v = r.Min
	}
	return v
}

// Limits bounds every dimension and element scale a State accepts.
type Limits struct {
	Width         Range
	Height        Range
	BaseWidth     Range
	BaseHeight    Range
	BaseThickness Range
	MinScale      float64
	MaxScale      float64
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		Width:         Range{Min: 100, Max: 2000},
		Height:        Range{Min: 100, Max: 2000},
		BaseWidth:     Range{Min: 100, Max: 2500},
		BaseHeight:    Range{Min: 50, Max: 600},
		BaseThickness: Range{Min: 50, Max: 600},
		MinScale:      placement.DefaultMinScale,
		MaxScale:      placement.DefaultMaxScale,
	}
}

// Dimensions a fresh State starts with, before clamping.
const (
	DefaultWidthMm         = 600
	DefaultHeightMm        = 600
	DefaultBaseWidthMm     = 700
	DefaultBaseHeightMm    = 150
	DefaultBaseThicknessMm = 250
	DefaultInscriptionMm   = 40.0
	DefaultElementMm       = 100.0
	MinSlantRatio          = 0.05
	DefaultSlantRatio      = 0.5
	minInscriptionMm       = 5.0
	maxInscriptionMm       = 300.0
)
