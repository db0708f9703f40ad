package narrative

import (
	"strings"

	"github.com/neutantr-dot/dual-narrative/internal/geometry"
)

// #region trainer
// TrainerStage picks the 7a/7b trainer injection. Male actors get it when the
// geometry is unstable or the reflex is transactional; female actors when the
// containment is "default silence" or the geometry is unstable.
func TrainerStage(actor, geometryAlert, reflexType, containment string) (Stage, bool) {
	unstable := !strings.EqualFold(strings.TrimSpace(geometryAlert), geometry.DefaultAlert)
	switch normalizeKey(actor) {
	case "male":
		if unstable || normalizeKey(reflexType) == "transactional" {
			return StrangerTeachesWe, true
		}
	case "female":
		if normalizeKey(containment) == "default silence" || unstable {
			return WisdomMirrorsSelf, true
		}
	}
	return Stage{}, false
}
// #endregion trainer

// #region recentering
var recenterCentre = map[string]bool{
	"collapsed": true,
	"blocked":   true,
	"empty":     true,
}

// RecenteringStage picks the 8a/8b re-centering arc from the centre axis.
func RecenteringStage(actor string, domains map[string]string) (Stage, bool) {
	if !recenterCentre[normalizeKey(domains[string(geometry.AxisWellbeing)])] {
		return Stage{}, false
	}
	switch normalizeKey(actor) {
	case "male":
		return MaleRecentres, true
	case "female":
		return FemaleRecentres, true
	}
	return Stage{}, false
}
// #endregion recentering
