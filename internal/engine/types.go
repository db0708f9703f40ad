package engine

import (
	"context"
	"errors"

	"github.com/neutantr-dot/dual-narrative/internal/bundle"
	"github.com/neutantr-dot/dual-narrative/internal/generate"
)

// #region request
// Request is one engine invocation. VoiceInputs must hold exactly four
// strings and WheelDomains exactly the five axes.
type Request struct {
	SessionID        string            `json:"session_id,omitempty"`
	Actor            string            `json:"actor"`
	UserID           string            `json:"user_id"`
	ActorWheelState  string            `json:"actor_wheel_state"`
	ReflexWheelState string            `json:"reflex_wheel_state"`
	VoiceInputs      []string          `json:"voice_inputs"`
	WheelDomains     map[string]string `json:"wheel_domains"`
}
// #endregion request

// #region result
// Result carries the composed text and the bundle behind it.
type Result struct {
	Text      string         `json:"text"`
	Bundle    bundle.Bundle  `json:"bundle"`
	Generated bool           `json:"generated"`
	Story     generate.Story `json:"story"`
}

// MalformedPrefix starts the Text of a rejected request.
const MalformedPrefix = "[Error] Malformed input:"

// ErrMalformedInput marks a caller contract violation. Nothing is processed.
var ErrMalformedInput = errors.New("malformed input")

// ErrNarratorDisabled is returned by Refine when no narrator is configured.
var ErrNarratorDisabled = errors.New("generative narrator disabled")
// #endregion result

// #region narrator
// Narrator is the optional generative collaborator.
type Narrator interface {
	Generate(ctx context.Context, voice, background []string) (generate.Story, error)
	Refine(ctx context.Context, narrative, request string) (string, error)
	Close() error
}
// #endregion narrator
