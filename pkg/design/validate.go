package design

import (
	"fmt"
	"strings"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/placement"
)

// Severity indicates whether a finding blocks ordering or is advisory.
type Severity int

const (
	SeverityError   Severity = iota // blocks ordering
	SeverityWarning                 // advisory
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// MarshalText renders the severity by name.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText parses a severity rendered by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "error":
		*s = SeverityError
	case "warning":
		*s = SeverityWarning
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Finding is one validation result. ElementID is empty for design-level
// findings.
type Finding struct {
	Kind      string   `json:"kind,omitempty"`
	ElementID string   `json:"elementId,omitempty"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
}

func (f Finding) Error() string {
	if f.ElementID == "" {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", f.Severity, f.Kind, f.ElementID, f.Message)
}

// Result splits findings into blocking errors and advisory warnings.
type Result struct {
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// OK reports whether no blocking finding was raised.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Validate checks the design as a whole. It never mutates the state.
func (s *State) Validate() Result {
	var all []Finding
	all = append(all, s.validateSelection()...)
	all = append(all, s.validatePlacement()...)
	all = append(all, s.validateContent()...)

	r := Result{Errors: []Finding{}, Warnings: []Finding{}}
	for _, f := range all {
		if f.Severity == SeverityWarning {
			r.Warnings = append(r.Warnings, f)
		} else {
			r.Errors = append(r.Errors, f)
		}
	}
	return r
}

func (s *State) validateSelection() []Finding {
	var out []Finding
	if s.productID == "" {
		out = append(out, Finding{Message: "no product selected", Severity: SeverityError})
	}
	if s.additionPolicy == catalog.AdditionsSingle && len(s.additions) > 1 {
		out = append(out, Finding{
			Kind:     placement.KindAddition.String(),
			Message:  fmt.Sprintf("product allows one addition, design has %d", len(s.additions)),
			Severity: SeverityError,
		})
	}
	if s.shapeRef == "" {
		out = append(out, Finding{Message: "no shape selected", Severity: SeverityWarning})
	}
	if s.materialRef == "" {
		out = append(out, Finding{Message: "no material selected", Severity: SeverityWarning})
	}
	return out
}

// validatePlacement reports elements that are larger than their surface
// (Normalize centres them) and elements placed on a hidden base.
func (s *State) validatePlacement() []Finding {
	var out []Finding
	for _, k := range placement.Kinds {
		ops := kinds[k]
		for _, id := range ops.ids(s) {
			o, _ := ops.get(s, id)
			if o.TargetSurface == placement.SurfaceBase && !s.showBase {
				out = append(out, Finding{
					Kind: k.String(), ElementID: id,
					Message:  "placed on the base but the base is hidden",
					Severity: SeverityWarning,
				})
			}
			b := s.bounds(k, id, o.TargetSurface)
			if b.ElementWidth*o.Scale > b.Width || b.ElementHeight*o.Scale > b.Height {
				out = append(out, Finding{
					Kind: k.String(), ElementID: id,
					Message: fmt.Sprintf("%.0fx%.0f mm footprint exceeds the %s (%.0fx%.0f mm)",
						b.ElementWidth*o.Scale, b.ElementHeight*o.Scale, o.TargetSurface, b.Width, b.Height),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return out
}

func (s *State) validateContent() []Finding {
	var out []Finding
	for _, l := range s.inscriptions {
		if strings.TrimSpace(l.Text) == "" {
			out = append(out, Finding{
				Kind: placement.KindInscription.String(), ElementID: l.ID,
				Message:  "inscription line is empty",
				Severity: SeverityWarning,
			})
		}
	}
	for _, a := range s.additions {
		if a.CatalogRef == "" {
			out = append(out, Finding{
				Kind: placement.KindAddition.String(), ElementID: a.ID,
				Message:  "addition has no catalog reference",
				Severity: SeverityError,
			})
		}
	}
	for _, m := range s.motifs {
		if m.CatalogRef == "" {
			out = append(out, Finding{
				Kind: placement.KindMotif.String(), ElementID: m.ID,
				Message:  "motif has no catalog reference",
				Severity: SeverityError,
			})
		}
	}
	for _, i := range s.images {
		if i.AssetURL == "" {
			out = append(out, Finding{
				Kind: placement.KindImage.String(), ElementID: i.ID,
				Message:  "image has no uploaded asset",
				Severity: SeverityWarning,
			})
		}
	}
	return out
}
