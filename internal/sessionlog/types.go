package sessionlog

import "time"

// #region record

// Record is one append-only audit row, written once per bundle build.
type Record struct {
	Timestamp           time.Time
	SessionLabel        string
	SessionID           string
	UserID              string
	Actor               string
	ActorWheelState     string
	ReflexWheelState    string
	ReflexType          string
	ClassCode           string
	ArchetypeVariant    string
	ContainmentRequired bool
	Progressive         bool
}

// Header is the CSV header row, in column order.
var Header = []string{
	"timestamp", "session_label", "session_id", "user_id", "actor",
	"actor_wheel_state", "reflex_wheel_state", "reflex_type",
	"class_code", "archetype_variant", "containment_required", "progressive",
}

// TimestampLayout is the fixed-width UTC form records are stored in, so text
// order matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t.UTC()
}

// #endregion record

// #region label

const (
	// DefaultLabelPrefix precedes the formatted session time.
	DefaultLabelPrefix = "Generated on"
	// DefaultLabelLayout renders as e.g. "Tue Mar 03, 2026 (14:05)".
	DefaultLabelLayout = "Mon Jan 02, 2006 (15:04)"
)

// Label renders a human session label such as "Generated on Tue Mar 03, 2026 (14:05)".
func Label(prefix, layout string, t time.Time) string {
	if layout == "" {
		layout = DefaultLabelLayout
	}
	if prefix == "" {
		return t.Format(layout)
	}
	return prefix + " " + t.Format(layout)
}

// #endregion label

// #region sink

// Sink receives audit records. Implementations must make each Append atomic
// with respect to concurrent callers.
type Sink interface {
	Append(rec Record) error
}

// #endregion sink
