package replay

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/neutantr-dot/dual-narrative/internal/bundle"
	"github.com/neutantr-dot/dual-narrative/internal/reflex"
	"github.com/neutantr-dot/dual-narrative/internal/rules"
	"github.com/neutantr-dot/dual-narrative/internal/sessionlog"
)

// #region types
// ReplayResult captures the outcome of replaying one session.
type ReplayResult struct {
	SessionID  string
	Bundle     bundle.Bundle
	Mismatches []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalSessions int
	Matches       int
	Mismatches    int
	Escalations   int
	Fallbacks     int
}
// #endregion types

// #region replay
// NewBuilder returns a builder over the fixture's tables that records nothing.
func NewBuilder(f *Fixture, logger *zap.Logger) *bundle.Builder {
	return bundle.NewBuilder(rules.NewStore(logger), f.Paths(),
		bundle.WithSink(sessionlog.Discard),
		bundle.WithLogger(logger),
	)
}

// Replay builds one bundle per session, in order.
func Replay(b *bundle.Builder, sessions []FixtureSession) []ReplayResult {
	results := make([]ReplayResult, 0, len(sessions))
	for i := range sessions {
		out := b.Build(sessions[i].ToRequest())
		results = append(results, ReplayResult{SessionID: out.SessionID, Bundle: out})
	}
	return results
}

// Compare records mismatches against the expected results, matched by session id.
func Compare(results []ReplayResult, expected []FixtureExpectedResult) {
	want := make(map[string]FixtureExpectedResult, len(expected))
	for _, e := range expected {
		want[e.SessionID] = e
	}
	for i := range results {
		r := &results[i]
		e, ok := want[r.SessionID]
		if !ok {
			continue
		}
		check := func(field, expected, actual string) {
			if expected != "" && expected != actual {
				r.Mismatches = append(r.Mismatches, fmt.Sprintf("%s: expected %q, got %q", field, expected, actual))
			}
		}
		check("reflex_type", e.ReflexType, r.Bundle.Reflex.ReflexType)
		check("class_code", e.ClassCode, r.Bundle.Classification.ClassCode)
		check("narrative_branch", e.NarrativeBranch, r.Bundle.Reflex.NarrativeBranch)
		check("geometry_alert", e.GeometryAlert, r.Bundle.Geometry.GeometryAlert)
	}
}

// Run replays f and compares the bundles against its expectations.
func Run(f *Fixture, logger *zap.Logger) ([]ReplayResult, ReplaySummary) {
	results := Replay(NewBuilder(f, logger), f.Sessions)
	Compare(results, f.ExpectedResults)
	return results, Summarize(results)
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{TotalSessions: len(results)}
	for _, r := range results {
		if len(r.Mismatches) == 0 {
			s.Matches++
		} else {
			s.Mismatches++
		}
		if r.Bundle.Escalated() {
			s.Escalations++
		}
		if r.Bundle.Reflex.ReflexType == reflex.DefaultReflexType {
			s.Fallbacks++
		}
	}
	return s
}
// #endregion replay
