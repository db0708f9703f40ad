package narrative

import "strings"

// #region inputs
// Inputs are the raw user texts restated in the narrative.
type Inputs struct {
	VoiceInputs []string
	Background  []string
	// Story holds generated story lines. Empty means render the rule skeleton.
	Story []string
}

// FreeText joins the voice inputs the way the reflex matcher expects.
func (in Inputs) FreeText() string {
	return strings.Join(in.VoiceInputs, " ")
}
// #endregion inputs

// #region grammar
// Tone is one emotional grammar entry.
type Tone struct {
	Tone       string `yaml:"tone" json:"tone"`
	Modulation string `yaml:"modulation" json:"modulation"`
}

// Grammar maps a wheel state (lower-cased) to its tone.
type Grammar map[string]Tone

// ToneFallback is rendered when the wheel state has no grammar entry.
const ToneFallback = "[Tone: neutral] No emotional modulation applied."
// #endregion grammar

// #region labels
const (
	VoiceSlots      = 4
	BackgroundSlots = 5
)

// Labels are the display names for each voice and background input.
type Labels struct {
	Voice      [VoiceSlots]string
	Background [BackgroundSlots]string
}
// #endregion labels

// #region stages
// Stage is a trainer or re-centering annotation.
type Stage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	StrangerTeachesWe = Stage{ID: "7a", Name: "Stranger Teaches We"}
	WisdomMirrorsSelf = Stage{ID: "7b", Name: "Wisdom Mirrors Self"}
	MaleRecentres     = Stage{ID: "8a", Name: "Male Re-Centres"}
	FemaleRecentres   = Stage{ID: "8b", Name: "Female Re-Centres"}
)

// UnsupportedMode never shows a suggested action.
const UnsupportedMode = "tantra spectacle"
// #endregion stages
