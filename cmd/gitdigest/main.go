package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rohankatakam/gitdigest/internal/config"
	"github.com/rohankatakam/gitdigest/internal/errors"
	"github.com/rohankatakam/gitdigest/internal/logging"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	logger  *logging.Logger
	cfg     *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// exitCode reports a command error on w. Degraded errors still exit 0.
func exitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if !errors.IsFatal(err) {
		fmt.Fprintf(w, "Warning: %v\n", err)
		return 0
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

var rootCmd = &cobra.Command{
	Use:   "gitdigest",
	Short: "Summarize your recent git activity across repositories",
	Long: `gitdigest collects commits and uncommitted edits from a set of local or
remote repositories over a time window, optionally rewrites the report
through an AI summarizer, and writes it to a Markdown file.

The path of the written report is the only thing printed on stdout.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
	RunE: runReport,
}

// reportFlags maps config keys to the persistent flags that override them
var reportFlags = map[string]string{
	"days":        "days",
	"window_mode": "mode",
	"author":      "author",
	"repos":       "repos",
	"roots":       "roots",
	"remotes":     "remotes",
	"filter":      "filter",
	"provider":    "provider",
	"model":       "model",
	"hook":        "hook",
	"output":      "output",
	"debug":       "debug",
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./gitdigest.yaml or ~/.gitdigest/gitdigest.yaml)")
	flags.Int("days", 1, "number of days to report")
	flags.String("mode", "rolling", "window anchoring: rolling or midnight")
	flags.String("author", "", "only include commits by this author (git --author pattern)")
	flags.String("repos", "", "comma-separated repository paths")
	flags.String("roots", "", "comma-separated directories to search for repositories")
	flags.String("remotes", "", "comma-separated remote URLs or owner/repo shorthands")
	flags.String("filter", "", "only include repositories whose name contains this text")
	flags.String("provider", "gemini", "summarization provider: gemini, openai or none")
	flags.String("model", "", "summarization model (default depends on provider)")
	flags.String("hook", "", "shell command that summarizes the report read from stdin")
	flags.StringP("output", "o", "", "report file (default: reports/git-activity-<timestamp>.md)")
	flags.Bool("debug", false, "enable debug logging")

	rootCmd.SetVersionTemplate(`gitdigest {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

// setup loads configuration and initializes logging for every command
func setup(cmd *cobra.Command, args []string) error {
	bound := make(map[string]*pflag.Flag, len(reportFlags))
	for key, name := range reportFlags {
		bound[key] = cmd.Flags().Lookup(name)
	}

	var loadErr error
	cfg, loadErr = config.Load(config.LoadOptions{ConfigFile: cfgFile, Flags: bound})
	if cfg == nil {
		cfg = config.Default()
	}

	var err error
	logger, err = logging.New(logging.Config{
		Debug:      cfg.Debug,
		JSONFormat: cfg.LogFormat == "json",
		OutputFile: cfg.LogFile,
	})
	if err != nil {
		// Fall back to stderr only; a broken log file never stops a run
		logger, _ = logging.New(logging.Config{Debug: cfg.Debug})
		logger.WithError(err).Warn("failed to open log file")
	}
	logger.Install()

	if loadErr != nil {
		logger.WithError(loadErr).Warn("failed to load config file, using defaults and environment")
	}
	cfg.Validate().Log(logger.Component("config"))
	return nil
}

func component(name string) *logrus.Entry {
	return logger.Component(name)
}
