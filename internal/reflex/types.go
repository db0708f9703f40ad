package reflex

// #region descriptor

// Descriptor is the reflex detected for a wheel state and free text.
type Descriptor struct {
	ReflexType          string `json:"reflex_type"`
	ArchetypeEntry      string `json:"archetype_entry"`
	ContainmentStrategy string `json:"containment_strategy"`
	NarrativeBranch     string `json:"narrative_branch"`
	SomaticProtocol     string `json:"somatic_protocol"`
	Mode                string `json:"mode,omitempty"`
}

// #endregion descriptor

// #region defaults

const (
	DefaultReflexType      = "neutral"
	DefaultArchetypeEntry  = "M1"
	DefaultContainment     = "No containment strategy found."
	DefaultNarrativeBranch = "default"
	DefaultSomatic         = "none"

	// WellbeingWarning is appended to containment text when the centre axis collapsed.
	WellbeingWarning = "\n⚠️ Wellbeing collapse detected — recommend pause and emotional reset."
)

// Fallback returns the descriptor used when no transmission row matches.
func Fallback() Descriptor {
	return Descriptor{
		ReflexType:          DefaultReflexType,
		ArchetypeEntry:      DefaultArchetypeEntry,
		ContainmentStrategy: DefaultContainment,
		NarrativeBranch:     DefaultNarrativeBranch,
		SomaticProtocol:     DefaultSomatic,
	}
}

// collapsedCentre lists centre-axis values that count as wellbeing collapse.
var collapsedCentre = map[string]bool{
	"numb":      true,
	"exhausted": true,
	"collapsed": true,
}

// #endregion defaults

// #region manifest

// Manifest groups reflex types by wheel state in first-appearance order.
type Manifest struct {
	States   []string
	Reflexes map[string][]string
}

// #endregion manifest
