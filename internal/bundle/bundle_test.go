package bundle

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/neutantr-dot/dual-narrative/internal/classify"
	"github.com/neutantr-dot/dual-narrative/internal/geometry"
	"github.com/neutantr-dot/dual-narrative/internal/reflex"
	"github.com/neutantr-dot/dual-narrative/internal/rules"
	"github.com/neutantr-dot/dual-narrative/internal/sessionlog"
	"github.com/neutantr-dot/dual-narrative/internal/taxonomy"
)

// #region helpers
var testPaths = Paths{
	Transmission:   "transmission.csv",
	Classification: "classification.csv",
	Taxonomy:       "taxonomy.csv",
	Layers:         "layers.csv",
	Codex:          "codex.csv",
	Drift:          "drift.csv",
	Constraints:    "constraints.csv",
	MLInstructions: "ml.csv",
}

type memSink struct {
	mu   sync.Mutex
	recs []sessionlog.Record
	err  error
}

func (m *memSink) Append(rec sessionlog.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.recs = append(m.recs, rec)
	return nil
}

func seededStore() *rules.Store {
	s := rules.NewStore(nil)
	s.Put(testPaths.Transmission, rules.NewTable(testPaths.Transmission,
		map[string]string{
			"wheel_state": "collapsed", "trigger": "you never listen", "reflex_type": "withdrawal",
			"archetype_entry": "M2", "containment": "Name the silence.",
			"narrative_branch": "retreat", "somatic_protocol": "ground_feet",
		},
		map[string]string{
			"wheel_state": "rigid", "trigger": "my way", "reflex_type": "transactional",
			"archetype_entry": "F1", "containment": "Slow the bargain.",
			"narrative_branch": "negotiate", "somatic_protocol": "exhale",
		},
	))
	s.Put(testPaths.Classification, rules.NewTable(testPaths.Classification,
		map[string]string{
			"actor": "Male", "wheel_state": "blocked", "reflex_type": "withdrawal",
			"class_code": "M3", "archetype_variant": "Silent Wall",
			"containment_required": "TRUE", "progressive": "FALSE",
		},
		map[string]string{
			"actor": "Female", "wheel_state": "open", "reflex_type": "transactional",
			"class_code": "F1", "archetype_variant": "Trader",
			"containment_required": "false", "progressive": "true",
		},
	))
	s.Put(testPaths.Taxonomy, rules.NewTable(testPaths.Taxonomy,
		map[string]string{
			"Mismatch_Type": "withdrawal", "Reflex_Archetype": "M2",
			"Symbolic_Theme": "the closed door", "Emotional_Cost": "isolation",
			"Repair_Path": "gentle knock",
		},
	))
	return s
}
// #endregion helpers

// #region build-tests
func TestBuild_MaleCollapsedEscalates(t *testing.T) {
	sink := &memSink{}
	fixed := time.Date(2026, 3, 3, 14, 5, 0, 0, time.UTC)
	b := NewBuilder(seededStore(), testPaths, WithSink(sink), WithClock(func() time.Time { return fixed }))

	got := b.Build(Request{
		SessionID:        "s-1",
		UserID:           "u-1",
		Actor:            "Male",
		ActorWheelState:  "blocked",
		ReflexWheelState: "collapsed",
		FreeText:         "You never listen to me.",
		WheelDomains:     map[string]string{"centre": "collapsed"},
	})

	if got.Reflex.ReflexType != "withdrawal" {
		t.Fatalf("reflex = %q, want withdrawal", got.Reflex.ReflexType)
	}
	if got.Reflex.NarrativeBranch != PauseBranch {
		t.Errorf("branch = %q, want %q", got.Reflex.NarrativeBranch, PauseBranch)
	}
	if want := "Name the silence." + EscalationNotice; got.Reflex.ContainmentStrategy != want {
		t.Errorf("containment = %q, want %q", got.Reflex.ContainmentStrategy, want)
	}
	if !got.Escalated() {
		t.Error("Escalated() = false, want true")
	}
	wantSym := taxonomy.Enrichment{SymbolicTheme: "the closed door", EmotionalCost: "isolation", RepairPath: "gentle knock"}
	if diff := cmp.Diff(wantSym, got.Symbolic); diff != "" {
		t.Errorf("symbolic mismatch (-want +got):\n%s", diff)
	}
	if !got.Geometry.Stable() {
		t.Errorf("geometry alert = %q, want stable with empty geometry tables", got.Geometry.GeometryAlert)
	}

	// Containment text as the composer sees it carries the wellbeing warning.
	text := reflex.Containment("collapsed", "you never listen", seededStore().Get(testPaths.Transmission), got.WheelDomains)
	if !strings.HasSuffix(text, reflex.WellbeingWarning) {
		t.Errorf("containment text %q lacks wellbeing warning", text)
	}

	if len(sink.recs) != 1 {
		t.Fatalf("records = %d, want 1", len(sink.recs))
	}
	want := sessionlog.Record{
		Timestamp:           fixed,
		SessionLabel:        "Generated on Tue Mar 03, 2026 (14:05)",
		SessionID:           "s-1",
		UserID:              "u-1",
		Actor:               "Male",
		ActorWheelState:     "blocked",
		ReflexWheelState:    "collapsed",
		ReflexType:          "withdrawal",
		ClassCode:           "M3",
		ArchetypeVariant:    "Silent Wall",
		ContainmentRequired: true,
	}
	if diff := cmp.Diff(want, sink.recs[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_EscalationAppendedOnce(t *testing.T) {
	b := NewBuilder(seededStore(), testPaths)
	req := Request{
		Actor: "Male", ActorWheelState: "blocked", ReflexWheelState: "collapsed",
		FreeText: "you never listen",
	}
	for i := 0; i < 3; i++ {
		got := b.Build(req)
		if n := strings.Count(got.Reflex.ContainmentStrategy, EscalationNotice); n != 1 {
			t.Fatalf("build %d: notice appended %d times", i, n)
		}
	}

	d := escalate(escalate(reflex.Fallback()))
	if n := strings.Count(d.ContainmentStrategy, EscalationNotice); n != 1 {
		t.Errorf("double escalate appended notice %d times", n)
	}
}

func TestBuild_NoEscalationKeepsBranch(t *testing.T) {
	b := NewBuilder(seededStore(), testPaths)
	got := b.Build(Request{
		Actor: "female", ActorWheelState: "OPEN", ReflexWheelState: "rigid",
		FreeText: "We do it MY WAY.",
	})
	if got.Reflex.NarrativeBranch != "negotiate" {
		t.Errorf("branch = %q, want negotiate", got.Reflex.NarrativeBranch)
	}
	if strings.Contains(got.Reflex.ContainmentStrategy, EscalationNotice) {
		t.Error("notice appended without containment")
	}
	want := classify.Result{ClassCode: "F1", ArchetypeVariant: "Trader", Progressive: true}
	if diff := cmp.Diff(want, got.Classification); diff != "" {
		t.Errorf("classification mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(taxonomy.Fallback(), got.Symbolic); diff != "" {
		t.Errorf("symbolic should fall back (-want +got):\n%s", diff)
	}
}

func TestBuild_EmptyTablesFallBack(t *testing.T) {
	b := NewBuilder(rules.NewStore(nil), Paths{})
	got := b.Build(Request{Actor: "Male", ReflexWheelState: "collapsed", FreeText: "anything"})

	if diff := cmp.Diff(reflex.Fallback(), got.Reflex); diff != "" {
		t.Errorf("reflex mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(classify.Default(), got.Classification); diff != "" {
		t.Errorf("classification mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(geometry.NewOverlay(), got.Geometry); diff != "" {
		t.Errorf("geometry mismatch (-want +got):\n%s", diff)
	}
	if got.SessionID == "" {
		t.Error("session id not generated")
	}
}

func TestBuild_DomainsCopied(t *testing.T) {
	domains := map[string]string{"blue": "red"}
	got := NewBuilder(nil, Paths{}).Build(Request{WheelDomains: domains})
	domains["blue"] = "changed"
	if got.WheelDomains["blue"] != "red" {
		t.Errorf("bundle domains aliased caller map: %v", got.WheelDomains)
	}
}
// #endregion build-tests

// #region sink-tests
func TestBuild_SinkErrorLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	sink := &memSink{err: errors.New("disk full")}
	b := NewBuilder(seededStore(), testPaths, WithSink(sink), WithLogger(zap.New(core)))

	got := b.Build(Request{SessionID: "s-err", Actor: "Male"})
	if got.SessionID != "s-err" {
		t.Fatalf("session id = %q", got.SessionID)
	}
	entries := logs.FilterMessage("session log append failed").All()
	if len(entries) != 1 {
		t.Fatalf("error entries = %d, want 1", len(entries))
	}
	if entries[0].ContextMap()["session_id"] != "s-err" {
		t.Errorf("missing session_id field: %v", entries[0].ContextMap())
	}
}

func TestBuild_CustomLabel(t *testing.T) {
	sink := &memSink{}
	fixed := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	b := NewBuilder(nil, Paths{}, WithSink(sink), WithLabel("Session", "2006-01-02"),
		WithClock(func() time.Time { return fixed }))
	b.Build(Request{})
	if got := sink.recs[0].SessionLabel; got != "Session 2026-01-02" {
		t.Errorf("label = %q", got)
	}
}
// #endregion sink-tests
