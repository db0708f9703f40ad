package bundle

import (
	"github.com/neutantr-dot/dual-narrative/internal/classify"
	"github.com/neutantr-dot/dual-narrative/internal/geometry"
	"github.com/neutantr-dot/dual-narrative/internal/reflex"
	"github.com/neutantr-dot/dual-narrative/internal/taxonomy"
)

// #region request
// Request carries one session's inputs into Build.
type Request struct {
	SessionID        string
	UserID           string
	Actor            string
	ActorWheelState  string
	ReflexWheelState string
	FreeText         string
	WheelDomains     map[string]string
}
// #endregion request

// #region bundle
// Bundle is the merged output of every resolver for one session.
type Bundle struct {
	SessionID        string              `json:"session_id"`
	Actor            string              `json:"actor"`
	ActorWheelState  string              `json:"actor_wheel_state"`
	ReflexWheelState string              `json:"reflex_wheel_state"`
	Reflex           reflex.Descriptor   `json:"reflex"`
	Classification   classify.Result     `json:"classification"`
	Symbolic         taxonomy.Enrichment `json:"symbolic"`
	Geometry         geometry.Overlay    `json:"geometry"`
	WheelDomains     map[string]string   `json:"wheel_domains"`
}

// Escalated reports whether containment blocked escalation for this bundle.
func (b Bundle) Escalated() bool {
	return b.Classification.ContainmentRequired
}
// #endregion bundle

// #region paths
// Paths names the rule tables a Builder reads. Empty paths resolve to empty tables.
type Paths struct {
	Transmission   string
	Classification string
	Taxonomy       string
	Layers         string
	Codex          string
	Drift          string
	Constraints    string
	MLInstructions string
}

const (
	// PauseBranch replaces the narrative branch when containment is required.
	PauseBranch      = "symbolic_pause"
	// EscalationNotice is appended once to the containment strategy on escalation.
	EscalationNotice = "\n⚠️ Containment required — escalation blocked."
)
// #endregion paths
