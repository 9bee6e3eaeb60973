package catalog

import (
	"net/url"
	"path"
	"strings"
)

// Entry is the identity every option shares. Asset is empty when no asset
// could be resolved.
type Entry struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Asset    string   `json:"asset,omitempty"`
	Price    float64  `json:"price,omitempty"`
}

// Option is any typed catalog option.
type Option interface {
	CatalogEntry() Entry
}

type Shape struct {
	Entry
}

type Material struct {
	Entry
	Color string `json:"color,omitempty"`
}

type Border struct {
	Entry
}

type Motif struct {
	Entry
	Color    string  `json:"color,omitempty"`
	WidthMm  float64 `json:"widthMm,omitempty"`
	HeightMm float64 `json:"heightMm,omitempty"`
}

type Addition struct {
	Entry
	WidthMm  float64 `json:"widthMm,omitempty"`
	HeightMm float64 `json:"heightMm,omitempty"`
	Surface  string  `json:"surface,omitempty"`
}

type Font struct {
	Entry
	Family string `json:"family,omitempty"`
}

// AdditionPolicy says how many additions a product may carry at once.
type AdditionPolicy string

const (
	AdditionsSingle AdditionPolicy = "single"
	AdditionsMulti  AdditionPolicy = "multi"
)

type Product struct {
	Entry
	AdditionPolicy AdditionPolicy `json:"additionPolicy"`
	PriceModel     map[string]any `json:"priceModel,omitempty"`
	DefaultWidth   int            `json:"defaultWidth,omitempty"`
	DefaultHeight  int            `json:"defaultHeight,omitempty"`
}

func (e Entry) CatalogEntry() Entry { return e }

// assetFallbacks names static assets for entries whose records are known to
// ship without one.
var assetFallbacks = map[Category]map[string]string{
	CategoryShape: {
		"serpentine":     "serpentine.svg",
		"oval-landscape": "oval_horizontal.svg",
		"oval-portrait":  "oval_vertical.svg",
		"peak":           "peak.svg",
	},
	CategoryBorder: {
		"bevelled":  "border_bevelled.svg",
		"rope-edge": "border_rope.svg",
	},
	CategoryMaterial: {
		"imperial-red":    "imperial_red.webp",
		"african-black":   "african_black.webp",
		"blue-pearl":      "blue_pearl.webp",
		"glory-black":     "glory_black.webp",
		"white-carrara":   "white_carrara.webp",
		"emerald-pearl":   "emerald_pearl.webp",
		"balmoral-red":    "balmoral_red.webp",
		"sandstone-buff":  "sandstone_buff.webp",
		"bronze-standard": "bronze_standard.webp",
	},
}

// resolveAsset applies the fallback chain: the record's own asset, then the
// static fallback for the entry, then the file name of the thumbnail or
// preview URL, else empty.
func resolveAsset(cat Category, c Common) string {
	if c.Image != "" {
		return c.Image
	}
	if byID, ok := assetFallbacks[cat]; ok {
		for _, key := range []string{c.Slug, c.ID, Slugify(c.Name)} {
			if a, ok := byID[Slugify(key)]; ok && key != "" {
				return a
			}
		}
	}
	for _, u := range []string{c.Thumbnail, c.Preview} {
		if name := fileName(u); name != "" {
			return name
		}
	}
	return ""
}

// fileName returns the last path element of a URL or path, ignoring query
// and fragment.
func fileName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

func entryOf(cat Category, c Common) Entry {
	slug := c.Slug
	if slug == "" {
		slug = Slugify(c.Name)
	}
	if slug == "" {
		slug = Slugify(c.ID)
	}
	return Entry{
		ID:       c.ID,
		Slug:     slug,
		Name:     c.Name,
		Category: cat,
		Asset:    resolveAsset(cat, c),
		Price:    c.Price,
	}
}

// MapRecord converts a record into its typed option. It is pure and
// idempotent. An UnknownRecord maps to (nil, false).
func MapRecord(r Record) (Option, bool) {
	switch v := r.(type) {
	case ShapeRecord:
		return Shape{Entry: entryOf(CategoryShape, v.Common)}, true
	case MaterialRecord:
		return Material{Entry: entryOf(CategoryMaterial, v.Common), Color: v.Color}, true
	case BorderRecord:
		return Border{Entry: entryOf(CategoryBorder, v.Common)}, true
	case MotifRecord:
		return Motif{
			Entry:    entryOf(CategoryMotif, v.Common),
			Color:    v.Color,
			WidthMm:  v.WidthMm,
			HeightMm: v.HeightMm,
		}, true
	case AdditionRecord:
		return Addition{
			Entry:    entryOf(CategoryAddition, v.Common),
			WidthMm:  v.WidthMm,
			HeightMm: v.HeightMm,
			Surface:  v.Surface,
		}, true
	case FontRecord:
		family := v.Family
		if family == "" {
			family = v.Name
		}
		return Font{Entry: entryOf(CategoryFont, v.Common), Family: family}, true
	case ProductRecord:
		policy := AdditionsMulti
		if strings.EqualFold(v.AdditionPolicy, string(AdditionsSingle)) {
			policy = AdditionsSingle
		}
		return Product{
			Entry:          entryOf(CategoryProduct, v.Common),
			AdditionPolicy: policy,
			PriceModel:     v.PriceModel,
			DefaultWidth:   v.DefaultWidth,
			DefaultHeight:  v.DefaultHeight,
		}, true
	case UnknownRecord:
		return nil, false
	}
	return nil, false
}
