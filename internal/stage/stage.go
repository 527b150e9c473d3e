// Package stage defines the pipeline stages and the prompting strategies each
// of them accepts. Stage and Strategy are closed sets: every switch over them
// ends in an error branch rather than a silent default.
package stage

import (
	"fmt"
	"strings"
)

// Stage is one of the three steps of a pipeline run.
type Stage int

const (
	Translate Stage = iota
	Estimate
	Refine
)

// All lists the stages in execution order.
var All = []Stage{Translate, Estimate, Refine}

func (s Stage) String() string {
	switch s {
	case Translate:
		return "translate"
	case Estimate:
		return "estimate"
	case Refine:
		return "refine"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// ParseStage converts a stage name into a Stage.
func ParseStage(name string) (Stage, error) {
	for _, s := range All {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", name)
}

// Strategy selects the prompt template and exemplar behaviour of a stage.
type Strategy int

const (
	ZeroShot Strategy = iota
	FewShot
	// Alpha is the exemplar-free refine variant.
	Alpha
	// Beta is the refine variant that embeds the few-shot exemplars.
	Beta
)

var strategies = []Strategy{ZeroShot, FewShot, Alpha, Beta}

func (s Strategy) String() string {
	switch s {
	case ZeroShot:
		return "zero-shot"
	case FewShot:
		return "few-shot"
	case Alpha:
		return "alpha"
	case Beta:
		return "beta"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name ("zero-shot", "few-shot", "alpha",
// "beta") into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range strategies {
		if strings.EqualFold(strings.TrimSpace(name), s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Supports reports whether strategy is a valid choice for stage.
func Supports(st Stage, strategy Strategy) bool {
	switch st {
	case Translate, Estimate:
		return strategy == ZeroShot || strategy == FewShot
	case Refine:
		return strategy == Alpha || strategy == Beta
	}
	return false
}

// UsesExamples reports whether the (stage, strategy) template embeds the
// few-shot example block.
func UsesExamples(st Stage, strategy Strategy) bool {
	switch st {
	case Translate:
		return strategy == FewShot
	case Refine:
		return strategy == Beta
	}
	return false
}

// Key identifies a prompt template resource.
type Key struct {
	Stage    Stage
	Strategy Strategy
}

// Path returns the resource path "stage/strategy".
func (k Key) Path() string {
	return k.Stage.String() + "/" + k.Strategy.String()
}

func (k Key) String() string { return k.Path() }

// Strategies holds the strategy chosen for each stage of a run.
type Strategies struct {
	Translate Strategy
	Estimate  Strategy
	Refine    Strategy
}

// Defaults returns the strategies the command-line tools start from.
func Defaults() Strategies {
	return Strategies{Translate: FewShot, Estimate: FewShot, Refine: Beta}
}

// For returns the strategy selected for st.
func (s Strategies) For(st Stage) (Strategy, error) {
	switch st {
	case Translate:
		return s.Translate, nil
	case Estimate:
		return s.Estimate, nil
	case Refine:
		return s.Refine, nil
	}
	return 0, fmt.Errorf("unknown stage %v", st)
}

// Downgrade returns the exemplar-free equivalent used for language pairs
// without registered exemplars. The estimate strategy is left untouched.
func (s Strategies) Downgrade() Strategies {
	s.Translate = ZeroShot
	s.Refine = Alpha
	return s
}

// Validate checks every stage has a strategy it supports.
func (s Strategies) Validate() error {
	for _, st := range All {
		strategy, err := s.For(st)
		if err != nil {
			return err
		}
		if !Supports(st, strategy) {
			return fmt.Errorf("strategy %s is not valid for stage %s", strategy, st)
		}
	}
	return nil
}

// String renders the strategies as "translate_estimate_refine", the suffix
// used in batch output file names.
func (s Strategies) String() string {
	return s.Translate.String() + "_" + s.Estimate.String() + "_" + s.Refine.String()
}
