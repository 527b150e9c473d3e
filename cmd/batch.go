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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/tear/internal/orchestrator"
	"github.com/valpere/tear/internal/record"
	"github.com/valpere/tear/internal/store"
)

var (
	batchSrcFile   string
	batchRefFile   string
	batchOutput    string
	batchFailFast  bool
	batchNoHistory bool
	batchUseCache  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline over a file of sentences",
	Long: `Translate every line of a source file and append one JSON record per line
to the output file. Each record holds the line index as its id, the source,
the reference line, the hypothesis, the correction, the need-correction flag
and the MQM annotation.

Lines whose id is already in the output file are skipped, so an interrupted
run resumes by re-running the same command. Blank lines are skipped.

The output defaults to result/<model>_<pair>_<translate>_<estimate>_<refine>.json.

Example:
  tear batch -l zh-en --src test.zh --ref test.en
  tear batch -l en-de -m anthropic:claude-sonnet-4-5 --src test.en --fail-fast`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := *cfg
		if err := applyFlags(cmd, &conf); err != nil {
			return err
		}

		srcs, err := readLines(batchSrcFile)
		if err != nil {
			return fmt.Errorf("failed to read source file: %w", err)
		}
		refs := make([]string, len(srcs))
		if batchRefFile != "" {
			refs, err = readLines(batchRefFile)
			if err != nil {
				return fmt.Errorf("failed to read reference file: %w", err)
			}
			if len(refs) != len(srcs) {
				return fmt.Errorf("source has %d lines but reference has %d", len(srcs), len(refs))
			}
		}
		fmt.Fprintf(os.Stderr, "Loaded %d source segments\n", len(srcs))

		orch, err := buildPipeline(&conf)
		if err != nil {
			return err
		}

		outPath := batchOutput
		if outPath == "" {
			outPath = defaultOutputPath(orch)
		}
		if sameFile(outPath, batchSrcFile) || (batchRefFile != "" && sameFile(outPath, batchRefFile)) {
			return fmt.Errorf("output file cannot be an input file")
		}
		out, err := record.Open(outPath)
		if err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Have translated %d segments\n", out.Len())

		ctx := context.Background()

		var db *store.Store
		if !batchNoHistory || batchUseCache {
			db, err = openStore(conf.DBPath)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
		}

		var run store.Run
		if db != nil && !batchNoHistory {
			run = store.NewRun(orch.Pair().Code, orch.Model(), orch.Strategies().String(), batchSrcFile)
			if err := db.SaveRun(ctx, run); err != nil {
				return fmt.Errorf("failed to record run: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Run ID: %s\n", run.ID)
		}

		memory := db
		if !batchUseCache {
			memory = nil
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		var done, failed int
		for id, src := range srcs {
			if out.Has(id) || strings.TrimSpace(src) == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				fmt.Fprintf(os.Stderr, "Interrupted after %d segments; re-run the same command to resume\n", done)
				return err
			}

			fmt.Fprintf(os.Stderr, "Segment %d/%d\n", id, len(srcs)-1)
			rec, err := processSegment(ctx, orch, memory, id, src, refs[id])
			if err != nil {
				failed++
				if batchFailFast {
					return fmt.Errorf("segment %d: %w", id, err)
				}
				fmt.Fprintf(os.Stderr, "Segment %d failed, skipping: %v\n", id, err)
				continue
			}
			if err := out.Append(rec); err != nil {
				return fmt.Errorf("failed to write segment %d: %w", id, err)
			}
			if run.ID != "" {
				if err := db.SaveResult(ctx, run.ID, rec); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to save segment %d to history: %v\n", id, err)
				}
			}
			done++
			fmt.Fprintf(os.Stderr, "Segment %d done (need correction: %d)\n", id, rec.NeedCorrection)
		}

		fmt.Printf("Processed %d segments (%d failed), %d records in %s\n", done, failed, out.Len(), out.Path())
		if failed > 0 {
			return fmt.Errorf("%d segments failed; re-run the same command to retry them", failed)
		}
		return nil
	},
}

func processSegment(ctx context.Context, orch *orchestrator.Orchestrator, memory *store.Store, id int, src, ref string) (record.Record, error) {
	res, _, err := translateOne(ctx, orch, memory, src)
	if err != nil {
		return record.Record{}, err
	}
	return record.FromResult(id, strings.TrimSpace(ref), res), nil
}

// defaultOutputPath names the output after the model, pair and strategies.
// Path separators and colons in model names are replaced.
func defaultOutputPath(orch *orchestrator.Orchestrator) string {
	model := strings.NewReplacer("/", "-", ":", "-", `\`, "-").Replace(orch.Model())
	return filepath.Join("result", fmt.Sprintf("%s_%s_%s.json", model, orch.Pair().Code, orch.Strategies()))
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("file is empty")
	}
	return lines, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addPipelineFlags(batchCmd)

	batchCmd.Flags().StringVar(&batchSrcFile, "src", "", "Source file, one sentence per line (required)")
	batchCmd.Flags().StringVar(&batchRefFile, "ref", "", "Reference file with the same number of lines")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Output JSON file (default: result/<model>_<pair>_<strategies>.json)")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "Stop at the first failed sentence instead of skipping it")
	batchCmd.Flags().BoolVar(&batchNoHistory, "no-history", false, "Do not record the run in the history database")
	batchCmd.Flags().BoolVar(&batchUseCache, "cache", false, "Reuse and fill the translation memory")

	batchCmd.MarkFlagRequired("src")
}
