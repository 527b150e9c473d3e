// Package controller binds a prompt template, an output schema and the
// exemplar loader for one pipeline stage.
//
// A Controller is immutable once built: HydratePrompt and the Interpret
// methods are pure functions of their inputs and may be called concurrently.
package controller

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/tear/internal"
	"github.com/valpere/tear/internal/examples"
	"github.com/valpere/tear/internal/prompt"
	"github.com/valpere/tear/internal/schema"
	"github.com/valpere/tear/internal/stage"
)

// Template value names.
const (
	keySrcLang      = "src_lan"
	keyTgtLang      = "tgt_lan"
	keyOrigin       = "origin"
	keyRawSrc       = "raw_src"
	keyTrans        = "trans"
	keyRawMT        = "raw_mt"
	keyExamples     = "examples"
	keyReport       = "sent_mqm"
	keyInstructions = "format_instructions"
)

// MissingInputError reports a HydratePrompt call without an input the stage
// requires.
type MissingInputError struct {
	Stage stage.Stage
	Input string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s prompt: missing required input %q", e.Stage, e.Input)
}

// Deps are the resources a controller reads at construction.
type Deps struct {
	Templates prompt.Source
	Shots     *examples.Loader
}

// Controller owns the template and schema of one stage.
type Controller struct {
	stage    stage.Stage
	strategy stage.Strategy
	pair     internal.LanguagePair
	model    string
	tmpl     *prompt.Template
	schema   *schema.Schema
	shots    *examples.Loader
}

// New validates the (stage, strategy) pairing, loads the template and binds
// the stage's output schema. Failures are *prompt.ConfigurationError.
func New(deps Deps, pair internal.LanguagePair, model string, st stage.Stage, strategy stage.Strategy) (*Controller, error) {
	key := stage.Key{Stage: st, Strategy: strategy}
	if !stage.Supports(st, strategy) {
		return nil, &prompt.ConfigurationError{Key: key, Err: fmt.Errorf("strategy %s is not valid for stage %s", strategy, st)}
	}

	sch, err := schema.For(st)
	if err != nil {
		return nil, &prompt.ConfigurationError{Key: key, Err: err}
	}

	tmpl, err := prompt.LoadTemplate(deps.Templates, key)
	if err != nil {
		return nil, err
	}

	return &Controller{
		stage:    st,
		strategy: strategy,
		pair:     pair,
		model:    model,
		tmpl:     tmpl,
		schema:   sch,
		shots:    deps.Shots,
	}, nil
}

func (c *Controller) Stage() stage.Stage          { return c.stage }
func (c *Controller) Strategy() stage.Strategy    { return c.strategy }
func (c *Controller) Model() string               { return c.model }
func (c *Controller) Pair() internal.LanguagePair { return c.pair }
func (c *Controller) Schema() *schema.Schema      { return c.schema }
func (c *Controller) FormatInstructions() string  { return c.schema.FormatInstructions() }
func (c *Controller) TemplateName() string        { return c.tmpl.Name() }

// LoadExamples renders the exemplar block for the controller's strategy and
// language pair. Without a loader the block is Disabled.
func (c *Controller) LoadExamples() examples.Block {
	if c.shots == nil {
		return examples.Block{Status: examples.Disabled}
	}
	return c.shots.Load(c.strategy, c.pair.Code)
}

// Inputs are the values a prompt may be hydrated with. Nil pointers mean
// "not supplied"; a pointer to "" is a supplied empty value.
type Inputs struct {
	SrcLang            string
	TgtLang            string
	Source             string
	FormatInstructions string
	Examples           *string
	Hypothesis         *string
	ErrorReport        *string
}

// HydratePrompt renders the stage template. Inputs the stage does not use are
// ignored; a missing required input is a *MissingInputError.
func (c *Controller) HydratePrompt(in Inputs) (string, error) {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		return "", &MissingInputError{Stage: c.stage, Input: "source"}
	}

	values := map[string]string{
		keySrcLang:      in.SrcLang,
		keyTgtLang:      in.TgtLang,
		keyInstructions: in.FormatInstructions,
	}

	switch c.stage {
	case stage.Translate:
		if in.Examples == nil {
			return "", &MissingInputError{Stage: c.stage, Input: "examples"}
		}
		values[keyOrigin] = source
		values[keyExamples] = *in.Examples
	case stage.Estimate:
		if in.Hypothesis == nil {
			return "", &MissingInputError{Stage: c.stage, Input: "hypothesis"}
		}
		values[keyOrigin] = source
		values[keyTrans] = *in.Hypothesis
	case stage.Refine:
		switch {
		case in.Hypothesis == nil:
			return "", &MissingInputError{Stage: c.stage, Input: "hypothesis"}
		case in.ErrorReport == nil:
			return "", &MissingInputError{Stage: c.stage, Input: "error report"}
		case in.Examples == nil:
			return "", &MissingInputError{Stage: c.stage, Input: "examples"}
		}
		values[keyRawSrc] = source
		values[keyRawMT] = *in.Hypothesis
		values[keyReport] = *in.ErrorReport
		values[keyExamples] = *in.Examples
	default:
		return "", fmt.Errorf("unknown stage %v", c.stage)
	}

	return c.tmpl.Render(values)
}

// ErrWrongStage is returned when an Interpret method does not match the
// controller's stage.
var ErrWrongStage = errors.New("interpretation does not match controller stage")

// InterpretTranslation parses a translate or refine response and returns the
// translation field.
func (c *Controller) InterpretTranslation(raw string) (string, error) {
	var field string
	switch c.stage {
	case stage.Translate:
		field = schema.TargetField
	case stage.Refine:
		field = schema.FinalTargetField
	case stage.Estimate:
		return "", fmt.Errorf("%s controller: %w", c.stage, ErrWrongStage)
	default:
		return "", fmt.Errorf("unknown stage %v", c.stage)
	}

	values, err := c.schema.Parse(raw)
	if err != nil {
		return "", err
	}
	return values.Text(field), nil
}

// Estimate is an interpreted estimate response.
type Estimate struct {
	Report          schema.Report
	NeedsCorrection bool
}

// InterpretEstimate parses the three-severity error report and computes the
// correction decision.
func (c *Controller) InterpretEstimate(raw string) (Estimate, error) {
	if c.stage != stage.Estimate {
		return Estimate{}, fmt.Errorf("%s controller: %w", c.stage, ErrWrongStage)
	}

	values, err := c.schema.Parse(raw)
	if err != nil {
		return Estimate{}, err
	}
	report := schema.NewReport(values, raw)
	return Estimate{Report: report, NeedsCorrection: schema.NeedsCorrection(report)}, nil
}
