package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitdigest/internal/errors"
	"github.com/rohankatakam/gitdigest/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent report runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return errors.FileSystemErrorf(err, "failed to open history")
		}
		defer store.Close()

		runs, err := store.List(historyLimit)
		if err != nil {
			return errors.FileSystemErrorf(err, "failed to read history")
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(out, "%s  %-8s  %d/%d repos  %-6s  %s\n",
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Duration,
				run.Active, run.Repos,
				run.Backend,
				run.OutputPath)
			if run.Author != "" {
				fmt.Fprintf(out, "    author: %s\n", run.Author)
			}
			fmt.Fprintf(out, "    window: %s\n", run.Window)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show (0 for all)")
}
