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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/tear/internal/config"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "List registered language pairs",
	Long: `List the language pairs in the registry, with their language names and
whether few-shot examples are registered and present.

Pairs without few-shot examples run with zero-shot translation and the alpha
refine strategy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := *cfg
		if cmd.Flags().Changed("pairs") {
			conf.PairsFile = pairsFile
		}
		if cmd.Flags().Changed("shots") {
			conf.ShotsDir = shotsDir
		}
		return listPairs(&conf)
	},
}

func listPairs(conf *config.Config) error {
	reg, err := loadRegistry(conf)
	if err != nil {
		return fmt.Errorf("failed to load language pairs: %w", err)
	}
	shots := shotsLoader(conf)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tSOURCE\tTARGET\tFEW-SHOT\tEXAMPLES")
	for _, code := range reg.Codes() {
		p, _ := reg.Lookup(code)
		examples := "-"
		if p.FewShot {
			examples = "missing"
			if shots.Available(code) {
				examples = "ok"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", code, p.SourceName, p.TargetName, p.FewShot, examples)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(pairsCmd)

	pairsCmd.Flags().StringVar(&pairsFile, "pairs", "", "YAML language pair registry replacing the built-in one")
	pairsCmd.Flags().StringVar(&shotsDir, "shots", "", "Directory containing data-shots/mt/shots.<pair>.json")
}
