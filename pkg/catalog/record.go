package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/memorial/pkg/logging"
)

// Category names a catalog collection.
type Category string

const (
	CategoryProduct  Category = "product"
	CategoryShape    Category = "shape"
	CategoryMaterial Category = "material"
	CategoryBorder   Category = "border"
	CategoryMotif    Category = "motif"
	CategoryAddition Category = "addition"
	CategoryFont     Category = "font"
)

// Record is the tagged union of raw catalog record shapes.
type Record interface {
	record() // marker method restricting implementations to this package
}

// Common holds the attributes every known record carries. Image, Thumbnail
// and Preview are optional asset references.
type Common struct {
	ID        string
	Slug      string
	Name      string
	Image     string
	Thumbnail string
	Preview   string
	Price     float64
}

type ShapeRecord struct {
	Common
}

type MaterialRecord struct {
	Common
	Color string
}

type BorderRecord struct {
	Common
}

type MotifRecord struct {
	Common
	Color    string
	WidthMm  float64
	HeightMm float64
}

type AdditionRecord struct {
	Common
	WidthMm  float64
	HeightMm float64
	Surface  string
}

type FontRecord struct {
	Common
	Family string
}

// ProductRecord carries the product's price model attributes untouched; the
// pricing package interprets them.
type ProductRecord struct {
	Common
	AdditionPolicy string
	PriceModel     map[string]any
	DefaultWidth   int
	DefaultHeight  int
}

// UnknownRecord keeps a bag whose category is missing or unrecognized.
type UnknownRecord struct {
	Category string
	Attrs    map[string]any
}

func (ShapeRecord) record()    {}
func (MaterialRecord) record() {}
func (BorderRecord) record()   {}
func (MotifRecord) record()    {}
func (AdditionRecord) record() {}
func (FontRecord) record()     {}
func (ProductRecord) record()  {}
func (UnknownRecord) record()  {}

// Decode classifies one raw attribute bag. The category comes from
// "category" or "type"; unrecognized categories yield an UnknownRecord.
func Decode(attrs map[string]any) Record {
	cat := Category(strings.ToLower(str(attrs, "category", "type")))
	c := Common{
		ID:        str(attrs, "id"),
		Slug:      str(attrs, "slug"),
		Name:      str(attrs, "name", "title", "displayName", "display_name"),
		Image:     str(attrs, "image", "svg", "texture", "model", "asset"),
		Thumbnail: str(attrs, "thumbnail", "thumbnailUrl", "thumbnail_url"),
		Preview:   str(attrs, "preview", "previewUrl", "preview_url"),
		Price:     num(attrs, "price"),
	}
	if c.ID == "" {
		c.ID = c.Slug
	}

	switch cat {
	case CategoryShape:
		return ShapeRecord{Common: c}
	case CategoryMaterial:
		return MaterialRecord{Common: c, Color: str(attrs, "color", "colour")}
	case CategoryBorder:
		return BorderRecord{Common: c}
	case CategoryMotif:
		return MotifRecord{
			Common:   c,
			Color:    str(attrs, "color", "colour"),
			WidthMm:  num(attrs, "widthMm", "width"),
			HeightMm: num(attrs, "heightMm", "height"),
		}
	case CategoryAddition:
		return AdditionRecord{
			Common:   c,
			WidthMm:  num(attrs, "widthMm", "width"),
			HeightMm: num(attrs, "heightMm", "height"),
			Surface:  str(attrs, "surface", "targetSurface"),
		}
	case CategoryFont:
		return FontRecord{Common: c, Family: str(attrs, "family")}
	case CategoryProduct:
		pm, _ := attrs["priceModel"].(map[string]any)
		if pm == nil {
			pm, _ = attrs["price_model"].(map[string]any)
		}
		return ProductRecord{
			Common:         c,
			AdditionPolicy: str(attrs, "additionPolicy", "addition_policy"),
			PriceModel:     pm,
			DefaultWidth:   int(num(attrs, "defaultWidth", "default_width")),
			DefaultHeight:  int(num(attrs, "defaultHeight", "default_height")),
		}
	}
	logging.Logger().Warn("catalog record has unknown category",
		"category", string(cat), "id", c.ID)
	return UnknownRecord{Category: string(cat), Attrs: attrs}
}

// str returns the first non-empty string-like value among keys.
func str(attrs map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := attrs[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case int, int64, float64:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// num returns the first numeric value among keys; numeric strings are parsed.
func num(attrs map[string]any, keys ...string) float64 {
	for _, k := range keys {
		switch t := attrs[k].(type) {
		case int:
			return float64(t)
		case int64:
			return float64(t)
		case float64:
			return t
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f
			}
		}
	}
	return 0
}
