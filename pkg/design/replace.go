package design

import (
	"github.com/chazu/memorial/pkg/placement"
)

// Elements is a complete set of placed elements, as carried by a snapshot.
type Elements struct {
	Additions    []Addition
	Motifs       []Motif
	Images       []Image
	Inscriptions []InscriptionLine
}

// ReplaceElements discards all four collections and installs els in order.
// Nothing is merged. Missing or duplicate ids get fresh ones, non-finite
// offsets fall back to the kind's default, and every offset is normalized
// against the current dimensions. Selections that no longer resolve are
// cleared.
func (s *State) ReplaceElements(els Elements) {
	s.additions = withUniqueIDs(cloneAll(els.Additions), kinds[placement.KindAddition].prefix, s.newID)
	s.motifs = withUniqueIDs(cloneAll(els.Motifs), kinds[placement.KindMotif].prefix, s.newID)
	s.images = withUniqueIDs(cloneAll(els.Images), kinds[placement.KindImage].prefix, s.newID)
	s.inscriptions = withUniqueIDs(cloneAll(els.Inscriptions), kinds[placement.KindInscription].prefix, s.newID)

	for i := range s.images {
		if !s.images[i].ColorMode.valid() {
			s.images[i].ColorMode = ColorFull
		}
		s.images[i].WidthMm = positive(s.images[i].WidthMm, DefaultElementMm)
		s.images[i].HeightMm = positive(s.images[i].HeightMm, DefaultElementMm)
	}
	for i := range s.inscriptions {
		s.inscriptions[i].SizeMm = positive(s.inscriptions[i].SizeMm, DefaultInscriptionMm)
	}

	for _, k := range placement.Kinds {
		ops := kinds[k]
		for _, id := range ops.ids(s) {
			if o, _ := ops.get(s, id); o.Check() != nil {
				ops.set(s, id, placement.Default(k))
			}
			s.normalizeElement(k, id)
		}
	}

	if !s.has(placement.KindAddition, s.selectedAdditionID) {
		s.selectedAdditionID = ""
	}
	if !s.has(placement.KindMotif, s.selectedMotifID) {
		s.selectedMotifID = ""
	}
}

func withUniqueIDs[T placed[T]](items []T, prefix string, newID func() string) []T {
	seen := make(map[string]struct{}, len(items))
	for i, e := range items {
		id := e.elementID()
		_, dup := seen[id]
		for id == "" || dup {
			id = prefix + "-" + newID()
			_, dup = seen[id]
		}
		seen[id] = struct{}{}
		items[i] = e.withID(id)
	}
	return items
}
