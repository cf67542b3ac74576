package main

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/gitdigest/internal/digest"
	"github.com/rohankatakam/gitdigest/internal/history"
	"github.com/rohankatakam/gitdigest/internal/llm"
)

var (
	openReport bool
	rawReport  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate an activity report (default command)",
	Long: `Scan the selected repositories for commits and uncommitted changes in the
time window, summarize the report if a provider is available, and write it.

Examples:
  # Last 24 hours across discovered repositories
  gitdigest

  # Last 3 calendar days, raw report, then open it
  gitdigest run --days 3 --mode midnight --raw --open

  # Only repositories whose name contains "api", summarized by OpenAI
  gitdigest --filter api --provider openai`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().BoolVar(&openReport, "open", false, "open the written report")
		cmd.Flags().BoolVar(&rawReport, "raw", false, "skip summarization (same as --provider none)")
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := component("run")

	if rawReport {
		cfg.Provider = string(llm.ProviderNone)
	}

	d := &digest.Digest{
		Config: cfg,
		Logger: component("digest"),
	}

	if store, err := history.Open(cfg.HistoryPath); err != nil {
		log.WithError(err).Warn("run history unavailable")
	} else {
		defer store.Close()
		d.History = store
	}

	out, err := d.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Path)

	if openReport {
		// stdout carries only the report path
		browser.Stdout = os.Stderr
		if err := browser.OpenFile(out.Path); err != nil {
			log.WithError(err).Warn("failed to open report")
		}
	}
	return nil
}
