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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/tear/internal/store"
)

var (
	historyDBPath  string
	historyVerbose bool
	historyPair    string
	historyModel   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect run history and the translation memory",
	Long:  `List, inspect, and clear the SQLite run history and translation memory.`,
}

func openHistory(cmd *cobra.Command) (*store.Store, error) {
	path := cfg.DBPath
	if cmd.Flags().Changed("db") {
		path = historyDBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no database configured, pass --db")
	}
	return openStore(path)
}

func historyFilter() store.Filter {
	return store.Filter{LangPair: historyPair, Model: historyModel}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List translation memory entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListMemory(context.Background(), historyFilter())
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tMODEL\tSTRATEGIES\tUSED\tLAST USED\tINVALID\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%v\t%s\n",
				e.ID, e.LangPair, e.Model, e.Strategies,
				e.UsageCount, e.LastUsed.Format("2006-01-02 15:04"),
				e.Invalidated, truncate(e.SourceText, 40))
		}
		return w.Flush()
	},
}

var historyRunsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List batch runs, or the segments of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		if len(args) == 1 {
			results, err := db.ListResults(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to list results: %w", err)
			}
			if len(results) == 0 {
				fmt.Printf("No segments recorded for run %s.\n", args[0])
				return nil
			}
			fmt.Fprintln(w, "ID\tNC\tSOURCE\tCORRECTION")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.ID, r.NeedCorrection, truncate(r.Src, 40), truncate(r.Cor, 40))
				if historyVerbose && r.NeedCorrection == 1 {
					fmt.Fprintf(w, "\t\tMQM: %s\t\n", r.MQMInfo)
				}
			}
			return w.Flush()
		}

		runs, err := db.ListRuns(ctx, historyFilter())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		fmt.Fprintln(w, "ID\tCREATED\tPAIR\tMODEL\tSTRATEGIES\tSEGMENTS\tCORRECTED\tSOURCE FILE")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.LangPair, r.Model, r.Strategies,
				r.Segments, r.Corrected, r.SourceFile)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history and translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Runs:            %d\n", stats.Runs)
		fmt.Printf("Segments:        %d\n", stats.Segments)
		fmt.Printf("Corrected:       %d\n", stats.Corrected)
		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		return nil
	},
}

var historyInvalidateCmd = &cobra.Command{
	Use:   "invalidate <id>",
	Short: "Stop reusing a translation memory entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.InvalidateMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to invalidate entry: %w", err)
		}
		fmt.Printf("Invalidated entry: %s\n", args[0])
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation memory entry by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteMemory(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		fmt.Printf("Deleted entry: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear translation memory: %w", err)
		}
		fmt.Printf("Cleared %d entries from translation memory.\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.PersistentFlags().StringVar(&historyDBPath, "db", "", "Database path (default from config)")
	historyCmd.PersistentFlags().StringVarP(&historyPair, "lang", "l", "", "Only show this language pair")
	historyCmd.PersistentFlags().StringVarP(&historyModel, "model", "m", "", "Only show this model")
	historyRunsCmd.Flags().BoolVar(&historyVerbose, "mqm", false, "Show the MQM annotation of corrected segments")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyRunsCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyInvalidateCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
