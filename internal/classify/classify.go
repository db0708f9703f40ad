package classify

import (
	"fmt"

	"github.com/neutantr-dot/dual-narrative/internal/rules"
)

// #region classify

// Classify returns the first classification row whose actor, wheel_state and
// reflex_type all equal the inputs (trimmed, case-insensitive), or Default().
func Classify(actor, wheelState, reflexType string, table *rules.Table) Result {
	for _, row := range table.All() {
		if !row.Equal("actor", actor) || !row.Equal("wheel_state", wheelState) || !row.Equal("reflex_type", reflexType) {
			continue
		}
		return Result{
			ClassCode:           row.GetOr("class_code", DefaultClassCode),
			ArchetypeVariant:    row.GetOr("archetype_variant", DefaultArchetypeVariant),
			ContainmentRequired: row.Bool("containment_required"),
			Progressive:         row.Bool("progressive"),
		}
	}
	return Default()
}

// #endregion classify

// #region preview

// Preview renders one readable line per classification rule.
func Preview(table *rules.Table) []string {
	lines := make([]string, 0, table.Len())
	for _, row := range table.All() {
		lines = append(lines, fmt.Sprintf("%s → %s @ %s → %s (%s) | Containment: %s | Progressive: %s",
			row.GetOr("actor", "N/A"),
			row.GetOr("reflex_type", "N/A"),
			row.GetOr("wheel_state", "N/A"),
			row.GetOr("class_code", DefaultClassCode),
			row.GetOr("archetype_variant", DefaultArchetypeVariant),
			row.GetOr("containment_required", "FALSE"),
			row.GetOr("progressive", "FALSE"),
		))
	}
	return lines
}

// #endregion preview
