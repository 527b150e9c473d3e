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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/tear/internal"
	"github.com/valpere/tear/internal/detector"
	"github.com/valpere/tear/internal/orchestrator"
	"github.com/valpere/tear/internal/postprocess"
	"github.com/valpere/tear/internal/record"
	"github.com/valpere/tear/internal/store"
)

var (
	inputText   string
	targetCode  string
	noCache     bool
	checkTarget bool
	jsonOutput  bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [sentence]",
	Short: "Translate, estimate and refine one sentence",
	Long: `Translate one sentence, have the model annotate its translation with MQM
errors, and refine it when any error is reported.

The sentence is taken from the arguments, from --text, or read from stdin.
When --lang is not given but --target is, the source language is detected.

Results are cached in the translation memory (see "tear history") unless
--no-cache is set.

Example:
  tear translate -l zh-en "我们今天下午去公园散步吧。"
  tear translate --target en -m ollama:qwen2.5:7b "Gehen wir heute in den Park."`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := *cfg
		if err := applyFlags(cmd, &conf); err != nil {
			return err
		}

		text := strings.TrimSpace(strings.Join(args, " "))
		if text == "" {
			text = strings.TrimSpace(inputText)
		}

		detect := !cmd.Flags().Changed("lang") && targetCode != ""
		if text == "" {
			label := "source"
			if !detect {
				if p, err := loadRegistry(&conf); err == nil {
					if pair, err := resolvePair(p, conf.Lang); err == nil {
						label = pair.SourceName + " source"
					}
				}
			}
			var err error
			text, err = promptLine(cmd.InOrStdin(), fmt.Sprintf("Please enter the %s text to be translated:", label))
			if err != nil {
				return err
			}
		}
		if text == "" {
			return errors.New("no text to translate")
		}

		var det *detector.Detector
		if detect || checkTarget {
			det = detector.New()
		}
		if detect {
			code, name, ok := det.PairCode(text, targetCode)
			if !ok {
				return errors.New("could not detect the source language, pass --lang")
			}
			conf.Lang = code
			fmt.Fprintf(os.Stderr, "Detected source language: %s (%s)\n", name, code)
		}

		orch, err := buildPipeline(&conf)
		if err != nil {
			return err
		}

		ctx := context.Background()

		var db *store.Store
		if !noCache {
			db, err = openStore(conf.DBPath)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
		}

		res, cached, err := translateOne(ctx, orch, db, text)
		if err != nil {
			return err
		}
		if cached {
			fmt.Fprintf(os.Stderr, "Using cached result\n")
		}

		if det != nil {
			_, tgt, _ := strings.Cut(orch.Pair().Code, "-")
			if ok, found := det.InTarget(res.Correction, tgt); !ok {
				fmt.Fprintf(os.Stderr, "Warning: correction looks like %s, expected %s\n", found, tgt)
			}
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "    ")
			return enc.Encode(record.FromResult(0, "", res))
		}
		printResult(cmd.OutOrStdout(), orch.Model(), res)
		return nil
	},
}

// translateOne runs the pipeline for text, consulting and filling the
// translation memory when db is not nil.
func translateOne(ctx context.Context, orch *orchestrator.Orchestrator, db *store.Store, text string) (*internal.Result, bool, error) {
	key := memoryKey(orch, text)
	if db != nil {
		res, found, err := db.GetCached(ctx, key)
		if err != nil {
			logger.Warn("translation memory lookup failed", "err", err)
		} else if found {
			return res, true, nil
		}
	}

	res, err := orch.Run(ctx, text)
	if err != nil {
		return nil, false, err
	}

	if db != nil {
		if err := db.SaveToMemory(ctx, key, res); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save to translation memory: %v\n", err)
		}
	}
	return res, false, nil
}

func promptLine(r io.Reader, question string) (string, error) {
	fmt.Fprintln(os.Stderr, question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printResult(w io.Writer, model string, res *internal.Result) {
	fmt.Fprintln(w, "------------------------------- TEaR -------------------------------")
	fmt.Fprintf(w, "Model: %s\n", model)
	fmt.Fprintf(w, "Source: %s\n", res.Source)
	fmt.Fprintf(w, "Hypothesis: %s\n", postprocess.Clean(res.Hypothesis))
	fmt.Fprintf(w, "Correction: %s\n", postprocess.Clean(res.Correction))
	fmt.Fprintf(w, "Need correction: %d\n", res.CorrectionFlag())
	fmt.Fprintf(w, "MQM Info: %s\n", res.Report)
}

func init() {
	rootCmd.AddCommand(translateCmd)
	addPipelineFlags(translateCmd)

	translateCmd.Flags().StringVarP(&inputText, "text", "t", "", "Sentence to translate")
	translateCmd.Flags().StringVar(&targetCode, "target", "", "Target language code; detects the source language when --lang is not set")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the translation memory cache")
	translateCmd.Flags().BoolVar(&checkTarget, "check-target", false, "Warn when the correction is not in the target language")
	translateCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as a JSON record")
}
