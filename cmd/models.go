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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/tear/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models [backend...]",
	Short: "List the models each configured backend offers",
	Long: `List the models each configured backend offers, and show where the
configured model is routed. Without arguments every configured backend is
queried.

Example:
  tear models ollama
  tear models -m gpt-4o`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := *cfg
		if cmd.Flags().Changed("model") {
			conf.Model = modelName
		}

		router, err := llm.NewRouter(conf.LLM)
		if err != nil {
			return fmt.Errorf("failed to configure model backends: %w", err)
		}
		backend, name := router.Route(conf.Model)
		fmt.Printf("Model %s is routed to %s as %s\n", conf.Model, backend, name)

		backends := args
		if len(backends) == 0 {
			backends = router.Backends()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, b := range backends {
			models, err := router.ListModels(ctx, b)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
				continue
			}
			fmt.Printf("\n%s (%d models)\n", b, len(models))
			for _, m := range models {
				fmt.Printf("  %s\n", m)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().StringVarP(&modelName, "model", "m", "", "Model whose routing to show (default from config)")
}
