package design

import (
	"github.com/chazu/memorial/pkg/placement"
)

// Addition is a mounted three-dimensional addition such as a vase or cross.
type Addition struct {
	ID         string           `json:"id"`
	CatalogRef string           `json:"catalogRef"`
	Offset     placement.Offset `json:"offset"`
}

// Motif is a decorative engraved or printed motif.
type Motif struct {
	ID         string           `json:"id"`
	CatalogRef string           `json:"catalogRef"`
	ColorRef   string           `json:"colorRef,omitempty"`
	Offset     placement.Offset `json:"offset"`
}

// ColorMode is how a placed photo is printed.
type ColorMode string

const (
	ColorFull       ColorMode = "full"
	ColorMonochrome ColorMode = "monochrome"
	ColorSepia      ColorMode = "sepia"
)

func (m ColorMode) valid() bool {
	return m == ColorFull || m == ColorMonochrome || m == ColorSepia
}

// Image is a placed photo or ceramic print.
type Image struct {
	ID        string           `json:"id"`
	TypeRef   string           `json:"typeRef"`
	AssetURL  string           `json:"assetUrl,omitempty"`
	WidthMm   float64          `json:"widthMm"`
	HeightMm  float64          `json:"heightMm"`
	Offset    placement.Offset `json:"offset"`
	ColorMode ColorMode        `json:"colorMode"`
}

// InscriptionLine is one line of engraved text.
type InscriptionLine struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Font   string           `json:"font,omitempty"`
	Color  string           `json:"color,omitempty"`
	SizeMm float64          `json:"sizeMm"`
	Offset placement.Offset `json:"offset"`
}

// placed is implemented by every element record so the collection
// operations in kinds.go can be written once.
type placed[T any] interface {
	elementID() string
	position() placement.Offset
	withPlacement(placement.Offset) T
	withID(string) T
	clone() T
}

func (a Addition) elementID() string                         { return a.ID }
func (a Addition) position() placement.Offset                { return a.Offset }
func (a Addition) withPlacement(o placement.Offset) Addition { a.Offset = o.Clone(); return a }
func (a Addition) withID(id string) Addition                 { a.ID = id; return a }
func (a Addition) clone() Addition                           { a.Offset = a.Offset.Clone(); return a }

func (m Motif) elementID() string                      { return m.ID }
func (m Motif) position() placement.Offset             { return m.Offset }
func (m Motif) withPlacement(o placement.Offset) Motif { m.Offset = o.Clone(); return m }
func (m Motif) withID(id string) Motif                 { m.ID = id; return m }
func (m Motif) clone() Motif                           { m.Offset = m.Offset.Clone(); return m }

func (i Image) elementID() string                      { return i.ID }
func (i Image) position() placement.Offset             { return i.Offset }
func (i Image) withPlacement(o placement.Offset) Image { i.Offset = o.Clone(); return i }
func (i Image) withID(id string) Image                 { i.ID = id; return i }
func (i Image) clone() Image                           { i.Offset = i.Offset.Clone(); return i }

func (l InscriptionLine) elementID() string          { return l.ID }
func (l InscriptionLine) position() placement.Offset { return l.Offset }
func (l InscriptionLine) withPlacement(o placement.Offset) InscriptionLine {
	l.Offset = o.Clone()
	return l
}
func (l InscriptionLine) withID(id string) InscriptionLine { l.ID = id; return l }
func (l InscriptionLine) clone() InscriptionLine           { l.Offset = l.Offset.Clone(); return l }

// cloneAll copies a slice of elements so no offset pointer is shared.
func cloneAll[T placed[T]](in []T) []T {
	out := make([]T, len(in))
	for i, e := range in {
		out[i] = e.clone()
	}
	return out
}
