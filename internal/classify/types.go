package classify

// #region result

// Result is the symbolic class assigned to an actor for one reflex context.
type Result struct {
	ClassCode           string `json:"class_code"`
	ArchetypeVariant    string `json:"archetype_variant"`
	ContainmentRequired bool   `json:"containment_required"`
	Progressive         bool   `json:"progressive"`
}

const (
	DefaultClassCode        = "N/A"
	DefaultArchetypeVariant = "unknown"
)

// Default is returned when no classification row matches.
func Default() Result {
	return Result{
		ClassCode:        DefaultClassCode,
		ArchetypeVariant: DefaultArchetypeVariant,
	}
}

// #endregion result
