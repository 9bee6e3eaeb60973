package session

import (
	"fmt"

	"github.com/chazu/memorial/pkg/design"
	"github.com/chazu/memorial/pkg/pricing"
)

// Quote prices the current design: the base product amount from the active
// price model plus a line per placed element. It is recomputed on every call.
func (s *Session) Quote() (pricing.Breakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return pricing.Breakdown{}, ErrNoProduct
	}

	w, h := s.state.Dimensions()
	base, err := pricing.Calculate(*s.model, w, h)
	if err != nil {
		return pricing.Breakdown{}, fmt.Errorf("quote: %w", err)
	}
	return pricing.Sum(base, s.model.Currency, s.lines(s.state)), nil
}

func (s *Session) lines(st *design.State) []pricing.Line {
	var lines []pricing.Line
	sur := s.model.Surcharges
	for _, a := range st.Additions() {
		if opt, ok := s.options.Addition(a.CatalogRef); ok && opt.Price > 0 {
			lines = append(lines, pricing.Line{Kind: "addition", Ref: a.ID, Amount: opt.Price})
		}
	}
	for _, m := range st.Motifs() {
		if opt, ok := s.options.Motif(m.CatalogRef); ok && opt.Price > 0 {
			lines = append(lines, pricing.Line{Kind: "motif", Ref: m.ID, Amount: opt.Price})
		}
	}
	for _, img := range st.Images() {
		if amt := sur.ImageCharge(img.WidthMm, img.HeightMm); amt > 0 {
			lines = append(lines, pricing.Line{Kind: "image", Ref: img.ID, Amount: amt})
		}
	}
	for _, l := range st.Inscriptions() {
		if amt := sur.InscriptionCharge(l.Text); amt > 0 {
			lines = append(lines, pricing.Line{Kind: "inscription", Ref: l.ID, Amount: amt})
		}
	}
	return lines
}

// Validate checks the current design.
func (s *Session) Validate() design.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Validate()
}
