package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neutantr-dot/dual-narrative/internal/bundle"
	"github.com/neutantr-dot/dual-narrative/internal/config"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	TablesDir       string                  `json:"tables_dir"`
	Sessions        []FixtureSession        `json:"sessions"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureSession is one recorded bundle request.
type FixtureSession struct {
	SessionID        string            `json:"session_id"`
	UserID           string            `json:"user_id"`
	Actor            string            `json:"actor"`
	ActorWheelState  string            `json:"actor_wheel_state"`
	ReflexWheelState string            `json:"reflex_wheel_state"`
	FreeText         string            `json:"free_text"`
	WheelDomains     map[string]string `json:"wheel_domains"`
}

// FixtureExpectedResult captures the expected labels per session. Empty
// fields are not checked.
type FixtureExpectedResult struct {
	SessionID       string `json:"session_id"`
	ReflexType      string `json:"reflex_type"`
	ClassCode       string `json:"class_code"`
	NarrativeBranch string `json:"narrative_branch"`
	GeometryAlert   string `json:"geometry_alert"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file. A relative tables_dir is
// resolved against the fixture's own directory.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.TablesDir != "" && !filepath.IsAbs(f.TablesDir) {
		f.TablesDir = filepath.Join(filepath.Dir(path), f.TablesDir)
	}
	return &f, nil
}

// ToRequest converts a FixtureSession to a bundle request.
func (fs *FixtureSession) ToRequest() bundle.Request {
	return bundle.Request{
		SessionID:        fs.SessionID,
		UserID:           fs.UserID,
		Actor:            fs.Actor,
		ActorWheelState:  fs.ActorWheelState,
		ReflexWheelState: fs.ReflexWheelState,
		FreeText:         fs.FreeText,
		WheelDomains:     fs.WheelDomains,
	}
}

// Paths lays the default table layout over the fixture's tables directory.
func (f *Fixture) Paths() bundle.Paths {
	tc := config.DefaultConfig().Tables
	tc.Dir = f.TablesDir
	return bundle.Paths{
		Transmission:   tc.Path(tc.Transmission),
		Classification: tc.Path(tc.Classification),
		Taxonomy:       tc.Path(tc.Taxonomy),
		Layers:         tc.Path(tc.Layers),
		Codex:          tc.Path(tc.Codex),
		Drift:          tc.Path(tc.Drift),
		Constraints:    tc.Path(tc.Constraints),
		MLInstructions: tc.Path(tc.MLInstructions),
	}
}

// #endregion fixture-loader
