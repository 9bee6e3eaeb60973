package design

import (
	"slices"
	"unicode/utf8"

	"github.com/chazu/memorial/pkg/placement"
	"github.com/samber/lo"
)

// kindOps is the per-kind implementation of the element operations. State
// dispatches through the kinds table instead of switching on kind names.
type kindOps struct {
	prefix    string
	ids       func(s *State) []string
	get       func(s *State, id string) (placement.Offset, bool)
	set       func(s *State, id string, o placement.Offset) bool
	add       func(s *State, id, ref string, o placement.Offset)
	remove    func(s *State, id string) bool
	duplicate func(s *State, id, newID string) bool
	clear     func(s *State)
	footprint func(s *State, id string) (w, h float64)
}

var kinds map[placement.Kind]kindOps

func init() {
	kinds = map[placement.Kind]kindOps{
		placement.KindAddition: collection("add",
			func(s *State) *[]Addition { return &s.additions },
			func(id, ref string) Addition { return Addition{ID: id, CatalogRef: ref} },
			func(s *State, a Addition) (float64, float64) {
				return s.catalogSize(placement.KindAddition, a.CatalogRef)
			}),
		placement.KindMotif: collection("motif",
			func(s *State) *[]Motif { return &s.motifs },
			func(id, ref string) Motif { return Motif{ID: id, CatalogRef: ref} },
			func(s *State, m Motif) (float64, float64) {
				return s.catalogSize(placement.KindMotif, m.CatalogRef)
			}),
		placement.KindImage: collection("img",
			func(s *State) *[]Image { return &s.images },
			func(id, ref string) Image {
				return Image{ID: id, TypeRef: ref, WidthMm: DefaultElementMm, HeightMm: DefaultElementMm, ColorMode: ColorFull}
			},
			func(_ *State, i Image) (float64, float64) {
				return orDefault(i.WidthMm), orDefault(i.HeightMm)
			}),
		placement.KindInscription: collection("line",
			func(s *State) *[]InscriptionLine { return &s.inscriptions },
			func(id, ref string) InscriptionLine {
				return InscriptionLine{ID: id, Font: ref, SizeMm: DefaultInscriptionMm}
			},
			func(_ *State, l InscriptionLine) (float64, float64) {
				return inscriptionSize(l.Text, l.SizeMm)
			}),
	}
}

func collection[T placed[T]](
	prefix string,
	list func(*State) *[]T,
	create func(id, ref string) T,
	size func(*State, T) (float64, float64),
) kindOps {
	find := func(s *State, id string) (int, bool) {
		_, i, ok := lo.FindIndexOf(*list(s), func(e T) bool { return e.elementID() == id })
		return i, ok
	}
	return kindOps{
		prefix: prefix,
		ids: func(s *State) []string {
			return lo.Map(*list(s), func(e T, _ int) string { return e.elementID() })
		},
		get: func(s *State, id string) (placement.Offset, bool) {
			i, ok := find(s, id)
			if !ok {
				return placement.Offset{}, false
			}
			return (*list(s))[i].position().Clone(), true
		},
		set: func(s *State, id string, o placement.Offset) bool {
			i, ok := find(s, id)
			if ok {
				(*list(s))[i] = (*list(s))[i].withPlacement(o)
			}
			return ok
		},
		add: func(s *State, id, ref string, o placement.Offset) {
			l := list(s)
			*l = append(*l, create(id, ref).withPlacement(o))
		},
		remove: func(s *State, id string) bool {
			i, ok := find(s, id)
			if ok {
				l := list(s)
				*l = slices.Delete(*l, i, i+1)
			}
			return ok
		},
		duplicate: func(s *State, id, newID string) bool {
			i, ok := find(s, id)
			if ok {
				l := list(s)
				*l = append(*l, (*l)[i].clone().withID(newID))
			}
			return ok
		},
		clear: func(s *State) {
			*list(s) = []T{}
		},
		footprint: func(s *State, id string) (float64, float64) {
			i, ok := find(s, id)
			if !ok {
				return 0, 0
			}
			return size(s, (*list(s))[i])
		},
	}
}

func orDefault(v float64) float64 {
	if v <= 0 {
		return DefaultElementMm
	}
	return v
}

// inscriptionSize estimates a text line's footprint: sizeMm tall and
// 0.6*sizeMm per character wide.
func inscriptionSize(text string, sizeMm float64) (w, h float64) {
	return 0.6 * sizeMm * float64(utf8.RuneCountInString(text)), sizeMm
}
