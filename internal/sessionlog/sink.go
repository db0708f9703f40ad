package sessionlog

import "errors"

// #region multi

// Multi fans a record out to several sinks. Every sink is attempted; failures
// are joined.
type Multi []Sink

// Append writes rec to each sink in order.
func (m Multi) Append(rec Record) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Append(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// #endregion multi

// #region discard

// Discard drops every record. Used by replay and when the audit trail is disabled.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(Record) error { return nil }

// #endregion discard
