package taxonomy

import "github.com/neutantr-dot/dual-narrative/internal/rules"

// #region enrichment

// Enrichment is the narrative flavour attached to a reflex/archetype pair.
type Enrichment struct {
	SymbolicTheme string `json:"symbolic_theme"`
	EmotionalCost string `json:"emotional_cost"`
	RepairPath    string `json:"repair_path"`
}

// Fallback is returned when no taxonomy row matches.
func Fallback() Enrichment {
	return Enrichment{
		SymbolicTheme: "unspecified rupture",
		EmotionalCost: "ambiguous tension",
		RepairPath:    "presence and breath",
	}
}

// requiredColumns must all be present on a row for it to be considered.
var requiredColumns = []string{
	"Mismatch_Type", "Reflex_Archetype", "Symbolic_Theme", "Emotional_Cost", "Repair_Path",
}

// #endregion enrichment

// #region enrich

// Enrich maps a reflex type (the mismatch type) and archetype through the
// symbolic taxonomy. First complete matching row wins.
func Enrich(reflexType, archetype string, table *rules.Table) Enrichment {
	for _, row := range table.All() {
		if !complete(row) {
			continue
		}
		if row.Equal("Mismatch_Type", reflexType) && row.Equal("Reflex_Archetype", archetype) {
			return Enrichment{
				SymbolicTheme: row.Get("Symbolic_Theme"),
				EmotionalCost: row.Get("Emotional_Cost"),
				RepairPath:    row.Get("Repair_Path"),
			}
		}
	}
	return Fallback()
}

func complete(row rules.Row) bool {
	for _, col := range requiredColumns {
		if !row.Has(col) {
			return false
		}
	}
	return true
}

// #endregion enrich
