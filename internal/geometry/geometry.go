package geometry

import "strings"

// #region resolve

// Resolve scans the wheel-domain values against the geometry tables. The pass
// order is fixed: layers, codex, drift, constraint matrix, ML instructions. The
// last two overwrite the alert and action, so the last firing rule wins.
func Resolve(domains map[string]string, tables Tables) Overlay {
	overlay := NewOverlay()
	colors := colorSet(domains)

	// 1. Layer conflicts
	for _, row := range tables.Layers.All() {
		if !colors.has(row.Get("color")) {
			continue
		}
		appendIf(&overlay.LayerConflict, row.Get("actor_impact"))
		appendIf(&overlay.TensionAxis, row.Get("tension_axis"))
	}

	// 2. Codex collapse and perception mismatch
	for _, row := range tables.Codex.All() {
		if row.Equal("containment_gate", "blocked") {
			appendIf(&overlay.CollapsedRoles, row.Get("actor_role"))
		}
		if row.Equal("perceived_by_partner", "no") {
			appendIf(&overlay.PerceptionMismatch, row.Get("notes"))
		}
	}

	// 3. Polarity drift
	for _, row := range tables.Drift.All() {
		if colors.has(row.Get("color")) {
			appendIf(&overlay.TensionAxis, row.Get("drift_axis"))
		}
	}

	// 4. Constraint matrix, overwrites alert and action
	for _, row := range tables.Constraints.All() {
		c1, c2, ok := splitAxis(row.Get("color_axis"))
		if !ok || !(colors.has(c1) || colors.has(c2)) {
			continue
		}
		description := row.Get("description")
		appendIf(&overlay.ConstraintMatrixHits, description)
		overlay.GeometryAlert = description
		overlay.SuggestedAction = row.Get("modulation_gate")
	}

	// 5. ML instruction triggers, overwrite again when set
	for _, row := range tables.MLInstructions.All() {
		if !colors.has(row.Get("trigger_color")) {
			continue
		}
		appendIf(&overlay.MLFlags, row.Get("symbolic_flag"))
		if action := row.Get("suggested_action"); action != "" {
			overlay.SuggestedAction = action
		}
		if alert := row.Get("geometry_alert"); alert != "" {
			overlay.GeometryAlert = alert
		}
	}

	return overlay
}

// #endregion resolve

// #region helpers

type colorLookup map[string]struct{}

// colorSet collects the lower-cased, trimmed domain values.
func colorSet(domains map[string]string) colorLookup {
	set := make(colorLookup, len(domains))
	for _, v := range domains {
		v = normalize(v)
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func (c colorLookup) has(color string) bool {
	_, ok := c[normalize(color)]
	return ok
}

// splitAxis parses a "C1-C2" color axis at its first dash.
func splitAxis(axis string) (string, string, bool) {
	c1, c2, ok := strings.Cut(axis, "-")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(c1), strings.TrimSpace(c2), true
}

func appendIf(list *[]string, v string) {
	if v != "" {
		*list = append(*list, v)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validate reports which of the five axes are missing from domains.
func Validate(domains map[string]string) []Axis {
	var missing []Axis
	for _, a := range Axes {
		if _, ok := domains[string(a)]; !ok {
			missing = append(missing, a)
		}
	}
	return missing
}

// Domains builds the axis map from the five background inputs in Axes order.
func Domains(values []string) map[string]string {
	m := make(map[string]string, len(Axes))
	for i, a := range Axes {
		if i < len(values) {
			m[string(a)] = values[i]
		}
	}
	return m
}

// #endregion helpers
