/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/tear/internal"
	"github.com/valpere/tear/internal/config"
	"github.com/valpere/tear/internal/controller"
	"github.com/valpere/tear/internal/detector"
	"github.com/valpere/tear/internal/examples"
	"github.com/valpere/tear/internal/llm"
	"github.com/valpere/tear/internal/orchestrator"
	"github.com/valpere/tear/internal/prompt"
	"github.com/valpere/tear/internal/registry"
	"github.com/valpere/tear/internal/store"
)

// Pipeline flags shared by translate and batch. Empty values fall back to
// the loaded configuration.
var (
	modelName      string
	langPair       string
	sourceName     string
	targetName     string
	translateStrat string
	estimateStrat  string
	refineStrat    string
	promptsDir     string
	shotsDir       string
	pairsFile      string
	callTimeout    time.Duration
	dbPath         string
)

func addPipelineFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&modelName, "model", "m", "", "Model name; prefix with a backend to force routing (e.g. ollama:qwen2.5:7b)")
	f.StringVarP(&langPair, "lang", "l", "", "Language pair code such as zh-en")
	f.StringVar(&sourceName, "source-name", "", "Source language name (required for unregistered pairs unless it can be inferred)")
	f.StringVar(&targetName, "target-name", "", "Target language name (required for unregistered pairs unless it can be inferred)")
	f.StringVar(&translateStrat, "translate-strategy", "", "Translate strategy: few-shot or zero-shot")
	f.StringVar(&estimateStrat, "estimate-strategy", "", "Estimate strategy: few-shot or zero-shot")
	f.StringVar(&refineStrat, "refine-strategy", "", "Refine strategy: beta or alpha")
	f.StringVar(&promptsDir, "prompts", "", "Directory of <stage>/<strategy>.txt templates overriding the built-in ones")
	f.StringVar(&shotsDir, "shots", "", "Directory containing data-shots/mt/shots.<pair>.json")
	f.StringVar(&pairsFile, "pairs", "", "YAML language pair registry replacing the built-in one")
	f.DurationVar(&callTimeout, "timeout", 0, "Timeout per model call (default from config)")
	f.StringVar(&dbPath, "db", "", "SQLite database for history and translation memory (default from config)")
}

// applyFlags overlays explicitly set flags onto the loaded configuration.
func applyFlags(c *cobra.Command, conf *config.Config) error {
	set := func(name string, dst *string, val string) {
		if c.Flags().Changed(name) {
			*dst = val
		}
	}
	set("model", &conf.Model, modelName)
	set("lang", &conf.Lang, langPair)
	set("translate-strategy", &conf.Strategies.Translate, translateStrat)
	set("estimate-strategy", &conf.Strategies.Estimate, estimateStrat)
	set("refine-strategy", &conf.Strategies.Refine, refineStrat)
	set("prompts", &conf.PromptDir, promptsDir)
	set("shots", &conf.ShotsDir, shotsDir)
	set("pairs", &conf.PairsFile, pairsFile)
	set("db", &conf.DBPath, dbPath)
	if c.Flags().Changed("timeout") {
		conf.Timeout = callTimeout
	}
	return conf.Validate()
}

func loadRegistry(conf *config.Config) (*registry.Registry, error) {
	if conf.PairsFile == "" {
		return registry.Default(), nil
	}
	return registry.Load(conf.PairsFile)
}

func templateSource(conf *config.Config) prompt.Source {
	if conf.PromptDir == "" {
		return prompt.Embedded()
	}
	return prompt.Layered{prompt.Dir(conf.PromptDir), prompt.Embedded()}
}

func shotsLoader(conf *config.Config) *examples.Loader {
	if conf.ShotsDir == "" {
		return examples.Embedded(logger)
	}
	return examples.Dir(conf.ShotsDir, logger)
}

// resolvePair looks code up in the registry. Unregistered pairs take their
// language names from the flags, or from the ISO codes when lingua knows
// them.
func resolvePair(reg *registry.Registry, code string) (internal.LanguagePair, error) {
	src, tgt := sourceName, targetName
	if _, ok := reg.Lookup(code); !ok {
		if s, t, found := strings.Cut(code, "-"); found {
			if src == "" {
				src = detector.Name(s)
			}
			if tgt == "" {
				tgt = detector.Name(t)
			}
		}
	}
	return reg.Resolve(code, src, tgt)
}

// buildPipeline wires the router, prompt templates, exemplars and registry
// into an orchestrator for conf.Lang.
func buildPipeline(conf *config.Config) (*orchestrator.Orchestrator, error) {
	strategies, err := conf.Strategies.Parse()
	if err != nil {
		return nil, err
	}

	reg, err := loadRegistry(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to load language pairs: %w", err)
	}
	pair, err := resolvePair(reg, conf.Lang)
	if err != nil {
		return nil, err
	}

	router, err := llm.NewRouter(conf.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to configure model backends: %w", err)
	}
	backend, name := router.Route(conf.Model)
	logger.Debug("model routed", "model", conf.Model, "backend", backend, "name", name, "available", router.Backends())

	deps := controller.Deps{
		Templates: templateSource(conf),
		Shots:     shotsLoader(conf),
	}
	orch, err := orchestrator.New(router, deps, pair, orchestrator.Config{
		Model:      conf.Model,
		Strategies: strategies,
		Timeout:    conf.Timeout,
	}, orchestrator.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	if orch.Strategies() != strategies {
		fmt.Fprintf(os.Stderr, "No few-shot examples registered for %s, using %s\n", pair.Code, orch.Strategies())
	}
	if block := orch.ExampleBlock(); block.Status == examples.Unavailable {
		fmt.Fprintf(os.Stderr, "Warning: few-shot examples unavailable for %s: %v\n", pair.Code, block.Reason)
	}
	return orch, nil
}

// openStore opens the history database, or returns nil when no path is set.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// memoryKey identifies a cached result for the running pipeline.
func memoryKey(orch *orchestrator.Orchestrator, source string) store.MemoryKey {
	return store.MemoryKey{
		Source:     source,
		LangPair:   orch.Pair().Code,
		Model:      orch.Model(),
		Strategies: orch.Strategies().String(),
	}
}
