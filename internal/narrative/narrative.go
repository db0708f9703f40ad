package narrative

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/neutantr-dot/dual-narrative/internal/bundle"
	"github.com/neutantr-dot/dual-narrative/internal/geometry"
	"github.com/neutantr-dot/dual-narrative/internal/reflex"
	"github.com/neutantr-dot/dual-narrative/internal/rules"
)

// #region composer
// Composer renders a bundle as display text.
type Composer struct {
	store            *rules.Store
	transmissionPath string
	labelsPath       string
	grammar          Grammar
}

// NewComposer creates a composer. The transmission table is re-read through
// store for the containment block; labelsPath may be empty.
func NewComposer(store *rules.Store, transmissionPath, labelsPath string, grammar Grammar) *Composer {
	if store == nil {
		store = rules.NewStore(nil)
	}
	if grammar == nil {
		grammar = Grammar{}
	}
	return &Composer{
		store:            store,
		transmissionPath: transmissionPath,
		labelsPath:       labelsPath,
		grammar:          grammar,
	}
}

// DefaultLabels names voice slots by number and background slots by axis role.
func DefaultLabels() Labels {
	var l Labels
	title := cases.Title(language.English)
	for i := range l.Voice {
		l.Voice[i] = fmt.Sprintf("Voice Input %d", i+1)
	}
	for i, axis := range geometry.Axes {
		l.Background[i] = fmt.Sprintf("%s (%s)", title.String(axis.Role()), axis)
	}
	return l
}
// #endregion composer

// #region compose
// Compose renders the fixed block sequence: restatement, story, tone,
// containment, suggested action, transmission profile, stages, footer.
func (c *Composer) Compose(in Inputs, b bundle.Bundle) string {
	blocks := []string{
		c.restatement(in, b),
		storyBlock(in, b),
		c.grammar.Line(b.ReflexWheelState),
		c.containmentBlock(in, b),
	}
	if action := actionBlock(b); action != "" {
		blocks = append(blocks, action)
	}
	blocks = append(blocks, profileBlock(b))
	if stages := stageBlock(b); stages != "" {
		blocks = append(blocks, stages)
	}
	blocks = append(blocks, Footer(b))
	return strings.Join(blocks, "\n\n")
}

// Footer is the closing classification line.
func Footer(b bundle.Bundle) string {
	return fmt.Sprintf("Classification: %s → %s (%s)",
		b.Actor, b.Classification.ClassCode, b.Classification.ArchetypeVariant)
}
// #endregion compose

// #region blocks
func (c *Composer) restatement(in Inputs, b bundle.Bundle) string {
	labels := LoadLabels(c.store.Get(c.labelsPath))

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Dual Narrative: %s ===\n", b.Actor)
	sb.WriteString("Voice Inputs:\n")
	for i, label := range labels.Voice {
		fmt.Fprintf(&sb, "- %s: %s\n", label, slot(in.VoiceInputs, i))
	}
	sb.WriteString("Background:")
	for i, axis := range geometry.Axes {
		value := slot(in.Background, i)
		if value == "" {
			value = b.WheelDomains[string(axis)]
		}
		fmt.Fprintf(&sb, "\n- %s: %s", labels.Background[i], value)
	}
	return sb.String()
}

func storyBlock(in Inputs, b bundle.Bundle) string {
	if len(in.Story) > 0 {
		return "Story:\n" + strings.Join(in.Story, "\n")
	}
	d, s := b.Reflex, b.Symbolic
	lines := []string{
		"Story:",
		fmt.Sprintf("1. %s enters in a %s state; the reflex reads as %s (%s).",
			b.Actor, b.ReflexWheelState, d.ReflexType, d.ArchetypeEntry),
		fmt.Sprintf("2. The story turns toward %s, carrying the theme of %s.", d.NarrativeBranch, s.SymbolicTheme),
		fmt.Sprintf("3. The cost is %s; the way back is %s.", s.EmotionalCost, s.RepairPath),
		fmt.Sprintf("4. Somatic protocol: %s.", d.SomaticProtocol),
	}
	return strings.Join(lines, "\n")
}

func (c *Composer) containmentBlock(in Inputs, b bundle.Bundle) string {
	text := reflex.Containment(b.ReflexWheelState, in.FreeText(), c.store.Get(c.transmissionPath), b.WheelDomains)
	if b.Escalated() {
		text += bundle.EscalationNotice
	}
	return "Containment: " + text
}

func actionBlock(b bundle.Bundle) string {
	if normalizeKey(b.Reflex.Mode) == UnsupportedMode {
		return ""
	}
	return fmt.Sprintf("Suggested action: %s (alert: %s)", b.Geometry.SuggestedAction, b.Geometry.GeometryAlert)
}

func profileBlock(b bundle.Bundle) string {
	d, s, g := b.Reflex, b.Symbolic, b.Geometry
	lines := []string{
		"Transmission profile:",
		fmt.Sprintf("- reflex: %s | entry: %s | branch: %s | somatic: %s",
			d.ReflexType, d.ArchetypeEntry, d.NarrativeBranch, d.SomaticProtocol),
		fmt.Sprintf("- symbolic: %s / %s / %s", s.SymbolicTheme, s.EmotionalCost, s.RepairPath),
		"- geometry: " + g.GeometryAlert,
	}
	for _, item := range []struct {
		name   string
		values []string
	}{
		{"layer conflict", g.LayerConflict},
		{"tension axis", g.TensionAxis},
		{"collapsed roles", g.CollapsedRoles},
		{"perception mismatch", g.PerceptionMismatch},
		{"ml flags", g.MLFlags},
		{"constraint hits", g.ConstraintMatrixHits},
	} {
		if len(item.values) > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %s", item.name, strings.Join(item.values, "; ")))
		}
	}
	return strings.Join(lines, "\n")
}

func stageBlock(b bundle.Bundle) string {
	var lines []string
	containment := strings.TrimSuffix(b.Reflex.ContainmentStrategy, bundle.EscalationNotice)
	if st, ok := TrainerStage(b.Actor, b.Geometry.GeometryAlert, b.Reflex.ReflexType, containment); ok {
		lines = append(lines, fmt.Sprintf("[Stage %s] %s", st.ID, st.Name))
	}
	if st, ok := RecenteringStage(b.Actor, b.WheelDomains); ok {
		lines = append(lines, fmt.Sprintf("[Stage %s] %s", st.ID, st.Name))
	}
	return strings.Join(lines, "\n")
}

func slot(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}
// #endregion blocks
