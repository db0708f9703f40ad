package geometry

import "github.com/neutantr-dot/dual-narrative/internal/rules"

// #region axes

// Axis names one of the five wheel domains.
type Axis string

const (
	AxisAction     Axis = "blue"
	AxisControl    Axis = "red"
	AxisExpression Axis = "yellow"
	AxisEmotion    Axis = "green"
	AxisWellbeing  Axis = "centre"
)

// Axes lists the wheel domains in background-input order.
var Axes = []Axis{AxisAction, AxisControl, AxisExpression, AxisEmotion, AxisWellbeing}

// Role returns the semantic role of an axis.
func (a Axis) Role() string {
	switch a {
	case AxisAction:
		return "action"
	case AxisControl:
		return "control"
	case AxisExpression:
		return "expression"
	case AxisEmotion:
		return "emotion"
	case AxisWellbeing:
		return "wellbeing"
	}
	return string(a)
}

// #endregion axes

// #region overlay

const (
	DefaultAlert  = "stable"
	DefaultAction = "continue"
)

// Overlay summarises what the wheel-domain values trip across the geometry tables.
type Overlay struct {
	GeometryAlert        string   `json:"geometry_alert"`
	SuggestedAction      string   `json:"suggested_action"`
	LayerConflict        []string `json:"layer_conflict"`
	TensionAxis          []string `json:"tension_axis"`
	CollapsedRoles       []string `json:"collapsed_roles"`
	PerceptionMismatch   []string `json:"perception_mismatch"`
	MLFlags              []string `json:"ml_flags"`
	ConstraintMatrixHits []string `json:"constraint_matrix_hits"`
}

// NewOverlay returns the overlay reported when no rule fires.
func NewOverlay() Overlay {
	return Overlay{
		GeometryAlert:        DefaultAlert,
		SuggestedAction:      DefaultAction,
		LayerConflict:        []string{},
		TensionAxis:          []string{},
		CollapsedRoles:       []string{},
		PerceptionMismatch:   []string{},
		MLFlags:              []string{},
		ConstraintMatrixHits: []string{},
	}
}

// Stable reports whether the alert is still the default.
func (o Overlay) Stable() bool {
	return o.GeometryAlert == DefaultAlert
}

// #endregion overlay

// #region tables

// Tables bundles the five rule sources scanned by Resolve.
type Tables struct {
	Layers         *rules.Table
	Codex          *rules.Table
	Drift          *rules.Table
	Constraints    *rules.Table
	MLInstructions *rules.Table
}

// #endregion tables
