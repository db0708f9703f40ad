package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neutantr-dot/dual-narrative/internal/bundle"
	"github.com/neutantr-dot/dual-narrative/internal/classify"
	"github.com/neutantr-dot/dual-narrative/internal/config"
	"github.com/neutantr-dot/dual-narrative/internal/generate"
	"github.com/neutantr-dot/dual-narrative/internal/geometry"
	"github.com/neutantr-dot/dual-narrative/internal/narrative"
	"github.com/neutantr-dot/dual-narrative/internal/reflex"
	"github.com/neutantr-dot/dual-narrative/internal/rules"
	"github.com/neutantr-dot/dual-narrative/internal/sessionlog"
)

// #region engine-struct
// Engine wires the rule store, bundle builder, composer and optional narrator.
type Engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *rules.Store
	builder  *bundle.Builder
	composer *narrative.Composer
	narrator Narrator
	sqlite   *sessionlog.SQLiteLog
	watcher  *rules.Watcher
	cancel   context.CancelFunc
}

type options struct {
	narrator Narrator
	sink     sessionlog.Sink
	builder  []bundle.Option
}

// Option customises New.
type Option func(*options)

// WithNarrator injects a narrator instead of dialling generative.addr.
func WithNarrator(n Narrator) Option {
	return func(o *options) { o.narrator = n }
}

// WithSink replaces the configured session log sinks.
func WithSink(s sessionlog.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithBuilderOptions passes options through to the bundle builder.
func WithBuilderOptions(opts ...bundle.Option) Option {
	return func(o *options) { o.builder = append(o.builder, opts...) }
}
// #endregion engine-struct

// #region constructor
// New builds an engine from cfg. logger may be nil.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{cfg: cfg, logger: logger, store: rules.NewStore(logger)}

	sink := o.sink
	if sink == nil {
		var err error
		if sink, err = e.openSinks(); err != nil {
			return nil, err
		}
	}

	tc := cfg.Tables
	builderOpts := append([]bundle.Option{
		bundle.WithSink(sink),
		bundle.WithLogger(logger),
		bundle.WithLabel(cfg.SessionLog.LabelPrefix, cfg.SessionLog.LabelLayout),
	}, o.builder...)
	e.builder = bundle.NewBuilder(e.store, bundle.Paths{
		Transmission:   tc.Path(tc.Transmission),
		Classification: tc.Path(tc.Classification),
		Taxonomy:       tc.Path(tc.Taxonomy),
		Layers:         tc.Path(tc.Layers),
		Codex:          tc.Path(tc.Codex),
		Drift:          tc.Path(tc.Drift),
		Constraints:    tc.Path(tc.Constraints),
		MLInstructions: tc.Path(tc.MLInstructions),
	}, builderOpts...)

	grammar := narrative.Grammar{}
	if cfg.Grammar.Enabled {
		g, err := narrative.LoadGrammar(tc.Path(cfg.Grammar.Path))
		if err != nil {
			logger.Warn("emotional grammar unusable, tone lines fall back", zap.Error(err))
		} else {
			grammar = g
		}
	}
	e.composer = narrative.NewComposer(e.store, tc.Path(tc.Transmission), tc.Path(tc.Labels), grammar)

	e.narrator = o.narrator
	if e.narrator == nil && cfg.Generative.Enabled {
		client, err := generate.NewClient(cfg.Generative)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("generative client: %w", err)
		}
		e.narrator = client
	}

	if tc.Watch {
		w, err := rules.NewWatcher(e.store, tc.All(), logger)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("table watcher: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		e.watcher, e.cancel = w, cancel
		w.Start(ctx)
	}
	return e, nil
}

func (e *Engine) openSinks() (sessionlog.Sink, error) {
	sl := e.cfg.SessionLog
	if !sl.Enabled {
		return sessionlog.Discard, nil
	}
	var sinks sessionlog.Multi
	if sl.CSVPath != "" {
		sinks = append(sinks, sessionlog.NewCSVLog(sl.CSVPath))
	}
	if sl.SQLitePath != "" {
		db, err := sessionlog.OpenSQLiteLog(sl.SQLitePath)
		if err != nil {
			return nil, err
		}
		e.sqlite = db
		sinks = append(sinks, db)
	}
	return sinks, nil
}

// Close stops the watcher and releases the narrator and session database.
func (e *Engine) Close() error {
	var firstErr error
	if e.cancel != nil {
		e.cancel()
	}
	if e.watcher != nil {
		if err := e.watcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.narrator != nil {
		if err := e.narrator.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.sqlite != nil {
		if err := e.sqlite.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
// #endregion constructor

// #region run
// Run validates req, builds the bundle and composes the narrative. The only
// error is ErrMalformedInput; generative failures degrade to the rule path.
func (e *Engine) Run(ctx context.Context, req Request) (Result, error) {
	if err := Validate(req); err != nil {
		e.logger.Warn("rejected request", zap.Error(err))
		return Result{Text: MalformedPrefix + " " + strings.TrimPrefix(err.Error(), ErrMalformedInput.Error()+": ")}, err
	}

	background := make([]string, len(geometry.Axes))
	for i, axis := range geometry.Axes {
		background[i] = req.WheelDomains[string(axis)]
	}

	b := e.builder.Build(bundle.Request{
		SessionID:        req.SessionID,
		UserID:           req.UserID,
		Actor:            req.Actor,
		ActorWheelState:  req.ActorWheelState,
		ReflexWheelState: req.ReflexWheelState,
		FreeText:         strings.Join(req.VoiceInputs, " "),
		WheelDomains:     req.WheelDomains,
	})

	res := Result{Bundle: b}
	in := narrative.Inputs{VoiceInputs: req.VoiceInputs, Background: background}
	var marker string
	if e.narrator != nil {
		story, err := e.narrator.Generate(ctx, req.VoiceInputs, background)
		if err != nil {
			e.logger.Warn("narrator failed, using rule narrative",
				zap.String("session_id", b.SessionID), zap.Error(err))
			marker = generate.UnavailableMarker
		} else {
			in.Story = story.Lines
			res.Story = story
			res.Generated = true
		}
	}

	res.Text = e.composer.Compose(in, b)
	if marker != "" {
		res.Text = marker + "\n" + res.Text
	}

	e.logger.Info("narrative composed",
		zap.String("session_id", b.SessionID),
		zap.String("reflex_type", b.Reflex.ReflexType),
		zap.String("class_code", b.Classification.ClassCode),
		zap.Bool("escalated", b.Escalated()),
		zap.Bool("generated", res.Generated),
	)
	return res, nil
}

// Validate checks input arity: four voice inputs and exactly the five axes.
func Validate(req Request) error {
	if n := len(req.VoiceInputs); n != narrative.VoiceSlots {
		return fmt.Errorf("%w: want %d voice inputs, got %d", ErrMalformedInput, narrative.VoiceSlots, n)
	}
	if missing := geometry.Validate(req.WheelDomains); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, a := range missing {
			names[i] = string(a)
		}
		return fmt.Errorf("%w: missing wheel domains %s", ErrMalformedInput, strings.Join(names, ", "))
	}
	if n := len(req.WheelDomains); n != len(geometry.Axes) {
		return fmt.Errorf("%w: want %d wheel domains, got %d", ErrMalformedInput, len(geometry.Axes), n)
	}
	return nil
}
// #endregion run

// #region tables
// Refine forwards a story refinement to the narrator.
func (e *Engine) Refine(ctx context.Context, narrativeText, request string) (string, error) {
	if err := generate.CheckRefine(request); err != nil {
		return generate.OffTopicReply, err
	}
	if e.narrator == nil {
		return "", ErrNarratorDisabled
	}
	return e.narrator.Refine(ctx, narrativeText, request)
}

// Manifest lists reflex types per wheel state from the transmission map.
func (e *Engine) Manifest() reflex.Manifest {
	return reflex.BuildManifest(e.store.Get(e.cfg.Tables.Path(e.cfg.Tables.Transmission)))
}

// Classifications previews the classification table, one line per row.
func (e *Engine) Classifications() []string {
	return classify.Preview(e.store.Get(e.cfg.Tables.Path(e.cfg.Tables.Classification)))
}

// Reload drops every cached table so the next request re-reads them.
func (e *Engine) Reload() {
	e.store.Reload()
	e.logger.Info("rule tables reloaded")
}
// #endregion tables
