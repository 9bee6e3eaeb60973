package design

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/chazu/memorial/pkg/catalog"
	"github.com/chazu/memorial/pkg/placement"
)

// hasFinding reports whether findings contain one of severity sev whose
// message contains substr.
func hasFinding(findings []Finding, sev Severity, substr string) bool {
	for _, f := range findings {
		if f.Severity == sev && strings.Contains(f.Message, substr) {
			return true
		}
	}
	return false
}

func validState(t *testing.T) *State {
	t.Helper()
	s := newTestState(t)
	s.SetProductID("4")
	s.SetShape("serpentine")
	s.SetMaterial("african-black")
	return s
}

func TestValidateCleanDesign(t *testing.T) {
	s := validState(t)
	mustAdd(t, s, placement.KindMotif, "dove")

	r := s.Validate()
	if !r.OK() || len(r.Warnings) != 0 {
		t.Errorf("Validate = %+v, want no findings", r)
	}
}

func TestValidateMissingProduct(t *testing.T) {
	s := newTestState(t)
	r := s.Validate()
	if r.OK() || !hasFinding(r.Errors, SeverityError, "no product") {
		t.Errorf("Validate errors = %+v, want missing product", r.Errors)
	}
	if !hasFinding(r.Warnings, SeverityWarning, "no shape") {
		t.Errorf("Validate warnings = %+v, want missing shape", r.Warnings)
	}
}

func TestValidateAdditionPolicy(t *testing.T) {
	s := validState(t)
	mustAdd(t, s, placement.KindAddition, "vase")
	mustAdd(t, s, placement.KindAddition, "cross")
	// Switching product to a single-addition one keeps both.
	s.SetAdditionPolicy(catalog.AdditionsSingle)

	if r := s.Validate(); !hasFinding(r.Errors, SeverityError, "allows one addition") {
		t.Errorf("Validate errors = %+v", r.Errors)
	}
}

func TestValidateContentWarnings(t *testing.T) {
	s := validState(t)
	s.AddInscription("   ", "garamond")
	img := mustAdd(t, s, placement.KindImage, "ceramic")
	if _, err := s.UpdateOffset(placement.KindImage, img, OffsetPatch{TargetSurface: ptr(placement.SurfaceBase)}); err != nil {
		t.Fatal(err)
	}
	s.SetShowBase(false)

	r := s.Validate()
	for _, want := range []string{"inscription line is empty", "base is hidden", "no uploaded asset"} {
		if !hasFinding(r.Warnings, SeverityWarning, want) {
			t.Errorf("missing warning %q in %+v", want, r.Warnings)
		}
	}
}

func TestValidateOversizedElement(t *testing.T) {
	s := validState(t)
	id, _ := s.AddImage("panel", "u.jpg", 900, 100)

	r := s.Validate()
	if !hasFinding(r.Warnings, SeverityWarning, "exceeds the headstone") {
		t.Errorf("warnings = %+v", r.Warnings)
	}
	if o, _ := s.Offset(placement.KindImage, id); o.XPos != 0 {
		t.Errorf("oversized image x = %v, want centred", o.XPos)
	}
}

func TestSeverityString(t *testing.T) {
	if SeverityError.String() != "error" || SeverityWarning.String() != "warning" {
		t.Error("severity names")
	}
	f := Finding{Kind: "motif", ElementID: "motif-1", Message: "x", Severity: SeverityWarning}
	if f.Error() != "[warning] motif motif-1: x" {
		t.Errorf("Error() = %q", f.Error())
	}
}

func TestResultJSONRoundTrip(t *testing.T) {
	in := Result{
		Errors:   []Finding{{Kind: "addition", ElementID: "add-1", Message: "outside headstone", Severity: SeverityError}},
		Warnings: []Finding{{Message: "no inscription", Severity: SeverityWarning}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"severity":"warning"`) {
		t.Errorf("severity not rendered by name: %s", data)
	}

	var out Result
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Errors) != 1 || out.Errors[0] != in.Errors[0] {
		t.Errorf("errors = %+v, want %+v", out.Errors, in.Errors)
	}
	if len(out.Warnings) != 1 || out.Warnings[0] != in.Warnings[0] {
		t.Errorf("warnings = %+v, want %+v", out.Warnings, in.Warnings)
	}
}

func TestSeverityUnmarshalRejectsUnknown(t *testing.T) {
	var s Severity
	if err := s.UnmarshalText([]byte("fatal")); err == nil {
		t.Error("expected an error for an unknown severity")
	}
}
