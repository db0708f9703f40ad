package reflex

import (
	"strings"

	"github.com/neutantr-dot/dual-narrative/internal/rules"
)

// #region detect

// Detect scans the transmission map in file order and returns the first row whose
// wheel_state equals wheelState and whose trigger occurs in the lower-cased text.
// No match yields Fallback().
func Detect(wheelState, freeText string, table *rules.Table) Descriptor {
	row, ok := match(wheelState, freeText, table)
	if !ok {
		return Fallback()
	}
	return Descriptor{
		ReflexType:          row.GetOr("reflex_type", DefaultReflexType),
		ArchetypeEntry:      row.GetOr("archetype_entry", DefaultArchetypeEntry),
		ContainmentStrategy: row.GetOr("containment", DefaultContainment),
		NarrativeBranch:     row.GetOr("narrative_branch", DefaultNarrativeBranch),
		SomaticProtocol:     row.GetOr("somatic_protocol", DefaultSomatic),
		Mode:                row.Get("mode"),
	}
}

// #endregion detect

// #region containment

// Containment returns only the containment text of the matching transmission row,
// with the wellbeing warning appended when the centre axis has collapsed.
func Containment(wheelState, freeText string, table *rules.Table, domains map[string]string) string {
	strategy := DefaultContainment
	if row, ok := match(wheelState, freeText, table); ok {
		strategy = row.GetOr("containment", DefaultContainment)
	}
	if WellbeingCollapsed(domains) {
		strategy += WellbeingWarning
	}
	return strategy
}

// WellbeingCollapsed reports whether the centre axis is numb, exhausted or collapsed.
func WellbeingCollapsed(domains map[string]string) bool {
	centre := strings.ToLower(strings.TrimSpace(domains["centre"]))
	return collapsedCentre[centre]
}

// #endregion containment

// #region manifest

// BuildManifest lists the reflex types available per wheel state.
func BuildManifest(table *rules.Table) Manifest {
	m := Manifest{Reflexes: map[string][]string{}}
	for _, row := range table.All() {
		wheel := row.GetOr("wheel_state", "neutral")
		if _, ok := m.Reflexes[wheel]; !ok {
			m.States = append(m.States, wheel)
		}
		m.Reflexes[wheel] = append(m.Reflexes[wheel], row.GetOr("reflex_type", "unspecified"))
	}
	return m
}

// #endregion manifest

// #region match

// match implements the first-match rule shared by Detect and Containment.
// Empty text and empty triggers never match.
func match(wheelState, freeText string, table *rules.Table) (rules.Row, bool) {
	text := strings.ToLower(freeText)
	if strings.TrimSpace(text) == "" {
		return rules.Row{}, false
	}
	for _, row := range table.All() {
		if !row.Equal("wheel_state", wheelState) {
			continue
		}
		trigger := strings.ToLower(row.GetOr("trigger", row.Get("reflex_type")))
		if trigger == "" {
			continue
		}
		if strings.Contains(text, trigger) {
			return row, true
		}
	}
	return rules.Row{}, false
}

// #endregion match
