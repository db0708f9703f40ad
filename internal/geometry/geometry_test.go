package geometry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neutantr-dot/dual-narrative/internal/rules"
)

// #region fixtures
func domains(blue, red, yellow, green, centre string) map[string]string {
	return map[string]string{"blue": blue, "red": red, "yellow": yellow, "green": green, "centre": centre}
}

func fullTables() Tables {
	return Tables{
		Layers: rules.NewTable("wheel_layers.csv",
			map[string]string{"color": "Red", "actor_impact": "control tightens", "tension_axis": "red/blue"},
			map[string]string{"color": "green", "actor_impact": "", "tension_axis": "green/yellow"},
			map[string]string{"color": "purple", "actor_impact": "never fires"},
		),
		Codex: rules.NewTable("wheel_codex.csv",
			map[string]string{"actor_role": "protector", "containment_gate": "BLOCKED", "perceived_by_partner": "yes"},
			map[string]string{"actor_role": "witness", "containment_gate": "open", "perceived_by_partner": "No", "notes": "partner misses the bid"},
		),
		Drift: rules.NewTable("polarity_drift.csv",
			map[string]string{"color": "red", "drift_axis": "control→collapse"},
			map[string]string{"color": "yellow", "drift_axis": "unseen"},
		),
		Constraints: rules.NewTable("emotional_constraint_matrix.csv",
			map[string]string{"color_axis": "red-blue", "description": "control clamp", "modulation_gate": "slow down"},
			map[string]string{"color_axis": "malformed", "description": "skipped"},
			map[string]string{"color_axis": "purple - Green", "description": "emotion bleed", "modulation_gate": "name the feeling"},
		),
		MLInstructions: rules.NewTable("ml_instruction.csv",
			map[string]string{"trigger_color": "green", "symbolic_flag": "flood_risk", "suggested_action": "pause", "geometry_alert": "flooding"},
			map[string]string{"trigger_color": "red", "symbolic_flag": "grip", "suggested_action": "", "geometry_alert": ""},
		),
	}
}

// #endregion fixtures

// #region resolve-tests
func TestResolve_DefaultsWhenNothingFires(t *testing.T) {
	got := Resolve(domains("a", "b", "c", "d", "e"), Tables{})
	if diff := cmp.Diff(NewOverlay(), got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if !got.Stable() {
		t.Error("expected stable overlay")
	}
}

func TestResolve_FullPassOrder(t *testing.T) {
	got := Resolve(domains("calm", "red", "bright", "GREEN", "collapsed"), fullTables())

	want := Overlay{
		// ML row 1 (green) overwrites the constraint values; ML row 2 (red) has blank fields.
		GeometryAlert:        "flooding",
		SuggestedAction:      "pause",
		LayerConflict:        []string{"control tightens"},
		TensionAxis:          []string{"red/blue", "green/yellow", "control→collapse"},
		CollapsedRoles:       []string{"protector"},
		PerceptionMismatch:   []string{"partner misses the bid"},
		MLFlags:              []string{"flood_risk", "grip"},
		ConstraintMatrixHits: []string{"control clamp", "emotion bleed"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestResolve_ConstraintLastWriterWins(t *testing.T) {
	tables := fullTables()
	tables.MLInstructions = nil

	got := Resolve(domains("blue", "", "", "green", ""), tables)

	if got.GeometryAlert != "emotion bleed" || got.SuggestedAction != "name the feeling" {
		t.Fatalf("expected last constraint row to win, got %q / %q", got.GeometryAlert, got.SuggestedAction)
	}
}

func TestResolve_MLInstructionOverridesConstraint(t *testing.T) {
	tables := Tables{
		Constraints: rules.NewTable("c.csv",
			map[string]string{"color_axis": "red-blue", "description": "constraint alert", "modulation_gate": "constraint action"}),
		MLInstructions: rules.NewTable("ml.csv",
			map[string]string{"trigger_color": "red", "symbolic_flag": "f", "suggested_action": "ml action", "geometry_alert": "ml alert"}),
	}
	got := Resolve(domains("", "red", "", "", ""), tables)

	if got.GeometryAlert != "ml alert" || got.SuggestedAction != "ml action" {
		t.Fatalf("step 5 should override step 4, got %q / %q", got.GeometryAlert, got.SuggestedAction)
	}
	if diff := cmp.Diff([]string{"constraint alert"}, got.ConstraintMatrixHits); diff != "" {
		t.Errorf("constraint hits (-want +got):\n%s", diff)
	}
}

func TestResolve_MLScenario(t *testing.T) {
	tables := Tables{
		MLInstructions: rules.NewTable("ml.csv",
			map[string]string{"trigger_color": "numb", "symbolic_flag": "shutdown_watch", "suggested_action": "breathe together"}),
	}
	got := Resolve(domains("", "", "", "", "numb"), tables)

	if diff := cmp.Diff([]string{"shutdown_watch"}, got.MLFlags); diff != "" {
		t.Errorf("ml flags (-want +got):\n%s", diff)
	}
	if got.SuggestedAction != "breathe together" {
		t.Errorf("suggested action: got %q", got.SuggestedAction)
	}
	if got.GeometryAlert != DefaultAlert {
		t.Errorf("blank geometry_alert must not overwrite, got %q", got.GeometryAlert)
	}
}

func TestResolve_CodexIndependentOfDomains(t *testing.T) {
	got := Resolve(domains("", "", "", "", ""), fullTables())
	if len(got.CollapsedRoles) != 1 || len(got.PerceptionMismatch) != 1 {
		t.Fatalf("codex pass should not depend on domains: %+v", got)
	}
	if len(got.LayerConflict) != 0 || len(got.MLFlags) != 0 {
		t.Errorf("color passes should not fire on empty domains: %+v", got)
	}
}

func TestResolve_ListsAccumulateWithoutDedup(t *testing.T) {
	tables := Tables{
		Layers: rules.NewTable("l.csv",
			map[string]string{"color": "red", "tension_axis": "same"},
			map[string]string{"color": "red", "tension_axis": "same"},
		),
	}
	got := Resolve(domains("", "red", "", "", ""), tables)
	if len(got.TensionAxis) != 2 {
		t.Fatalf("expected duplicates kept, got %v", got.TensionAxis)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	d := domains("calm", "red", "bright", "green", "collapsed")
	tables := fullTables()
	if diff := cmp.Diff(Resolve(d, tables), Resolve(d, tables)); diff != "" {
		t.Fatalf("repeated Resolve differs:\n%s", diff)
	}
}

// #endregion resolve-tests

// #region helper-tests
func TestValidateAndDomains(t *testing.T) {
	d := Domains([]string{"a", "b", "c"})
	missing := Validate(d)
	if diff := cmp.Diff([]Axis{AxisEmotion, AxisWellbeing}, missing); diff != "" {
		t.Errorf("missing axes (-want +got):\n%s", diff)
	}
	if d["red"] != "b" {
		t.Errorf("expected red=b, got %q", d["red"])
	}
	if AxisWellbeing.Role() != "wellbeing" {
		t.Errorf("role: got %q", AxisWellbeing.Role())
	}
}

// #endregion helper-tests
