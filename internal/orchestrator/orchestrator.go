// Package orchestrator runs the translate, estimate and refine stages for one
// sentence at a time and applies the estimate→refine gate.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valpere/tear/internal"
	"github.com/valpere/tear/internal/controller"
	"github.com/valpere/tear/internal/examples"
	"github.com/valpere/tear/internal/llm"
	"github.com/valpere/tear/internal/stage"
)

type Config struct {
	Model      string
	Strategies stage.Strategies
	// Timeout bounds each model call. Zero leaves calls bounded only by the
	// caller's context.
	Timeout time.Duration
}

// SentenceError reports which stage failed for which sentence.
type SentenceError struct {
	Stage  stage.Stage
	Source string
	Err    error
}

func (e *SentenceError) Error() string {
	return fmt.Sprintf("%s stage failed for %q: %v", e.Stage, e.Source, e.Err)
}

func (e *SentenceError) Unwrap() error { return e.Err }

type Option func(*Orchestrator)

// WithLogger sets the logger used for downgrade and per-stage diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// Orchestrator is safe for concurrent use once constructed: all of its state
// is read-only.
type Orchestrator struct {
	client     llm.Client
	pair       internal.LanguagePair
	config     Config
	strategies stage.Strategies
	translate  *controller.Controller
	estimate   *controller.Controller
	refine     *controller.Controller
	examples   examples.Block
	logger     *slog.Logger
}

// ResolveStrategies applies the exemplar-free downgrade for pairs without
// registered few-shot exemplars.
func ResolveStrategies(pair internal.LanguagePair, requested stage.Strategies) stage.Strategies {
	if pair.FewShot {
		return requested
	}
	return requested.Downgrade()
}

// New resolves the strategies for pair, builds the three stage controllers and
// loads the example block. Configuration failures are returned before any
// model is called.
func New(client llm.Client, deps controller.Deps, pair internal.LanguagePair, cfg Config, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, errors.New("orchestrator: nil model client")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("orchestrator: model identifier is required")
	}

	o := &Orchestrator{
		client: client,
		pair:   pair,
		config: cfg,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.strategies = ResolveStrategies(pair, cfg.Strategies)
	if o.strategies != cfg.Strategies {
		o.logger.Info("language pair has no few-shot exemplars, downgrading strategies",
			"pair", pair.Code, "requested", cfg.Strategies.String(), "resolved", o.strategies.String())
	}
	if err := o.strategies.Validate(); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	var err error
	if o.translate, err = controller.New(deps, pair, cfg.Model, stage.Translate, o.strategies.Translate); err != nil {
		return nil, err
	}
	if o.estimate, err = controller.New(deps, pair, cfg.Model, stage.Estimate, o.strategies.Estimate); err != nil {
		return nil, err
	}
	if o.refine, err = controller.New(deps, pair, cfg.Model, stage.Refine, o.strategies.Refine); err != nil {
		return nil, err
	}

	o.examples = o.translate.LoadExamples()
	o.logger.Debug("pipeline ready",
		"pair", pair.Code, "model", cfg.Model, "strategies", o.strategies.String(),
		"examples", o.examples.Status.String(), "example_count", o.examples.Count)

	return o, nil
}

// Strategies returns the strategies after the few-shot downgrade.
func (o *Orchestrator) Strategies() stage.Strategies { return o.strategies }

// ExampleBlock returns the exemplar block shared by translate and refine.
func (o *Orchestrator) ExampleBlock() examples.Block { return o.examples }

func (o *Orchestrator) Pair() internal.LanguagePair { return o.pair }

func (o *Orchestrator) Model() string { return o.config.Model }

// Run translates source, estimates the translation and refines it when the
// estimate reports errors. On failure no partial result is returned.
func (o *Orchestrator) Run(ctx context.Context, source string) (*internal.Result, error) {
	src := strings.TrimSpace(source)
	fail := func(st stage.Stage, err error) (*internal.Result, error) {
		return nil, &SentenceError{Stage: st, Source: src, Err: err}
	}

	exampleText := o.examples.Text
	base := controller.Inputs{
		SrcLang: o.pair.SourceName,
		TgtLang: o.pair.TargetName,
		Source:  src,
	}

	in := base
	in.FormatInstructions = o.translate.FormatInstructions()
	in.Examples = &exampleText
	raw, err := o.call(ctx, o.translate, in)
	if err != nil {
		return fail(stage.Translate, err)
	}
	hypothesis, err := o.translate.InterpretTranslation(raw)
	if err != nil {
		return fail(stage.Translate, err)
	}

	in = base
	in.FormatInstructions = o.estimate.FormatInstructions()
	in.Hypothesis = &hypothesis
	raw, err = o.call(ctx, o.estimate, in)
	if err != nil {
		return fail(stage.Estimate, err)
	}
	estimate, err := o.estimate.InterpretEstimate(raw)
	if err != nil {
		return fail(stage.Estimate, err)
	}

	correction := hypothesis
	if estimate.NeedsCorrection {
		report := estimate.Report.Raw
		in = base
		in.FormatInstructions = o.refine.FormatInstructions()
		in.Hypothesis = &hypothesis
		in.ErrorReport = &report
		in.Examples = &exampleText
		raw, err = o.call(ctx, o.refine, in)
		if err != nil {
			return fail(stage.Refine, err)
		}
		if correction, err = o.refine.InterpretTranslation(raw); err != nil {
			return fail(stage.Refine, err)
		}
	}

	return &internal.Result{
		Source:          src,
		Hypothesis:      hypothesis,
		Correction:      correction,
		NeedsCorrection: estimate.NeedsCorrection,
		Report:          estimate.Report.Raw,
		Timestamp:       time.Now(),
	}, nil
}

func (o *Orchestrator) call(ctx context.Context, c *controller.Controller, in controller.Inputs) (string, error) {
	prompt, err := c.HydratePrompt(in)
	if err != nil {
		return "", err
	}

	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := o.client.Invoke(ctx, c.Model(), prompt)
	o.logger.Debug("model call", "stage", c.Stage().String(), "strategy", c.Strategy().String(),
		"model", c.Model(), "latency", time.Since(start), "err", err)
	return raw, err
}
