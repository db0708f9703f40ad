package bundle

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neutantr-dot/dual-narrative/internal/classify"
	"github.com/neutantr-dot/dual-narrative/internal/geometry"
	"github.com/neutantr-dot/dual-narrative/internal/reflex"
	"github.com/neutantr-dot/dual-narrative/internal/rules"
	"github.com/neutantr-dot/dual-narrative/internal/sessionlog"
	"github.com/neutantr-dot/dual-narrative/internal/taxonomy"
)

// #region builder
// Builder runs the resolvers against cached rule tables and records each build.
type Builder struct {
	store       *rules.Store
	paths       Paths
	sink        sessionlog.Sink
	logger      *zap.Logger
	labelPrefix string
	labelLayout string
	now         func() time.Time
	newID       func() string
}

// Option customises a Builder.
type Option func(*Builder)

// WithSink sets the audit sink. Default is sessionlog.Discard.
func WithSink(s sessionlog.Sink) Option {
	return func(b *Builder) {
		if s != nil {
			b.sink = s
		}
	}
}

// WithLogger sets the operator logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithLabel overrides the session label prefix and time layout.
func WithLabel(prefix, layout string) Option {
	return func(b *Builder) {
		b.labelPrefix = prefix
		b.labelLayout = layout
	}
}

// WithClock replaces time.Now. Tests only.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a builder reading tables through store.
func NewBuilder(store *rules.Store, paths Paths, opts ...Option) *Builder {
	b := &Builder{
		store:       store,
		paths:       paths,
		sink:        sessionlog.Discard,
		logger:      zap.NewNop(),
		labelPrefix: sessionlog.DefaultLabelPrefix,
		labelLayout: sessionlog.DefaultLabelLayout,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	if b.store == nil {
		b.store = rules.NewStore(b.logger)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}
// #endregion builder

// #region build
// Build resolves reflex, geometry, classification and taxonomy for one session,
// applies the escalation rule and appends one audit record. Never fails: missing
// tables and unmatched inputs fall back to defaults, and sink errors are logged.
func (b *Builder) Build(req Request) Bundle {
	if req.SessionID == "" {
		req.SessionID = b.newID()
	}

	desc := reflex.Detect(req.ReflexWheelState, req.FreeText, b.store.Get(b.paths.Transmission))
	overlay := geometry.Resolve(req.WheelDomains, geometry.Tables{
		Layers:         b.store.Get(b.paths.Layers),
		Codex:          b.store.Get(b.paths.Codex),
		Drift:          b.store.Get(b.paths.Drift),
		Constraints:    b.store.Get(b.paths.Constraints),
		MLInstructions: b.store.Get(b.paths.MLInstructions),
	})
	class := classify.Classify(req.Actor, req.ActorWheelState, desc.ReflexType, b.store.Get(b.paths.Classification))
	symbolic := taxonomy.Enrich(desc.ReflexType, desc.ArchetypeEntry, b.store.Get(b.paths.Taxonomy))

	if class.ContainmentRequired {
		desc = escalate(desc)
	}

	out := Bundle{
		SessionID:        req.SessionID,
		Actor:            req.Actor,
		ActorWheelState:  req.ActorWheelState,
		ReflexWheelState: req.ReflexWheelState,
		Reflex:           desc,
		Classification:   class,
		Symbolic:         symbolic,
		Geometry:         overlay,
		WheelDomains:     copyDomains(req.WheelDomains),
	}

	b.record(req, out)
	return out
}

// escalate redirects the branch to a pause and appends the notice at most once.
func escalate(d reflex.Descriptor) reflex.Descriptor {
	d.NarrativeBranch = PauseBranch
	if !strings.HasSuffix(d.ContainmentStrategy, EscalationNotice) {
		d.ContainmentStrategy += EscalationNotice
	}
	return d
}

func copyDomains(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
// #endregion build

// #region record
func (b *Builder) record(req Request, out Bundle) {
	ts := b.now()
	rec := sessionlog.Record{
		Timestamp:           ts,
		SessionLabel:        sessionlog.Label(b.labelPrefix, b.labelLayout, ts),
		SessionID:           out.SessionID,
		UserID:              req.UserID,
		Actor:               out.Actor,
		ActorWheelState:     out.ActorWheelState,
		ReflexWheelState:    out.ReflexWheelState,
		ReflexType:          out.Reflex.ReflexType,
		ClassCode:           out.Classification.ClassCode,
		ArchetypeVariant:    out.Classification.ArchetypeVariant,
		ContainmentRequired: out.Classification.ContainmentRequired,
		Progressive:         out.Classification.Progressive,
	}
	if err := b.sink.Append(rec); err != nil {
		b.logger.Error("session log append failed",
			zap.String("session_id", out.SessionID),
			zap.Error(err),
		)
	}
}
// #endregion record
