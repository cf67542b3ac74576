// Package digest runs one report: it resolves the window and repositories,
// scans them, builds the activity report, summarizes it and writes it out.
package digest

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/gitdigest/internal/config"
	"github.com/rohankatakam/gitdigest/internal/errors"
	"github.com/rohankatakam/gitdigest/internal/git"
	"github.com/rohankatakam/gitdigest/internal/history"
	"github.com/rohankatakam/gitdigest/internal/llm"
	"github.com/rohankatakam/gitdigest/internal/locator"
	"github.com/rohankatakam/gitdigest/internal/report"
	"github.com/rohankatakam/gitdigest/internal/scanner"
	"github.com/rohankatakam/gitdigest/internal/sink"
	"github.com/rohankatakam/gitdigest/internal/summarize"
	"github.com/rohankatakam/gitdigest/internal/window"
)

// remoteRate bounds clone/fetch/pull calls against remote hosts
const remoteRate = 2 // per second

// Query selects what a report covers. Zero fields fall back to the config.
type Query struct {
	Days   int
	Mode   string
	Author string
	Filter string
}

// Digest holds the collaborators of a run. Only Config is required.
type Digest struct {
	Config *config.Config

	Git      git.Runner          // scanning; ExecRunner when nil
	Syncer   locator.Syncer      // remote clones; ExecRunner when nil
	Resolver locator.URLResolver // owner/repo shorthands; GitHub when nil
	Clock    func() time.Time    // time.Now when nil
	LookPath func(string) (string, error)
	History  *history.Store
	Logger   *logrus.Entry
}

// Outcome describes a finished run
type Outcome struct {
	Path     string
	Report   report.Report
	Summary  summarize.Result
	Window   window.Window
	Scanned  int
	Duration time.Duration
}

func (d *Digest) logger() *logrus.Entry {
	if d.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return d.Logger
}

func (d *Digest) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}

func (d *Digest) gitRunner() *git.ExecRunner {
	return git.NewExecRunner(d.Config.GitTimeout)
}

// Collect resolves repositories and builds the raw activity report. It
// also returns how many repositories were scanned.
func (d *Digest) Collect(ctx context.Context, q Query) (report.Report, window.Window, int, error) {
	cfg := d.Config
	logger := d.logger()
	now := d.now()

	days, mode, author, filter := q.Days, q.Mode, q.Author, q.Filter
	if days == 0 {
		days = cfg.Days
	}
	if mode == "" {
		mode = cfg.WindowMode
	}
	if author == "" {
		author = cfg.Author
	}
	if filter == "" {
		filter = cfg.Filter
	}
	w := window.New(days, mode)

	cacheDir, cleanup, err := d.cacheDir()
	if err := d.degrade(err, "remote cache unavailable, skipping remotes"); err != nil {
		return report.Report{}, w, 0, err
	}
	defer cleanup()

	loc := &locator.Locator{
		Paths:    cfg.Repos,
		Roots:    cfg.Roots,
		MountDir: cfg.MountDir,
		Defaults: locator.DefaultRoots(),
		Filter:   filter,
		Logger:   logger.WithField("component", "locator"),
	}
	if cacheDir != "" && len(cfg.Remotes) > 0 {
		loc.Remotes = cfg.Remotes
		loc.Remote = d.remotes(cacheDir, logger)
	}
	repos := loc.Locate(ctx)
	logger.WithField("repos", len(repos)).Debug("repositories located")

	runner := d.Git
	if runner == nil {
		runner = d.gitRunner()
	}
	s := scanner.New(runner, w.Since(now), author, logger.WithField("component", "scanner"))
	if cfg.Workers > 0 {
		s.Workers = cfg.Workers
	}
	results, err := s.ScanAll(ctx, repos)
	if err != nil {
		return report.Report{}, w, len(repos), err
	}

	return report.Build(report.Header(w.Describe(now)), results), w, len(repos), nil
}

// Run produces and writes one report. Errors it returns are fatal: a sink
// failure, or cancellation before anything was written.
func (d *Digest) Run(ctx context.Context) (*Outcome, error) {
	cfg := d.Config
	logger := d.logger()
	start := d.now()

	rep, w, scanned, err := d.Collect(ctx, Query{})
	if err != nil {
		return nil, errors.Interrupted(err, "run stopped before the report was written")
	}
	raw := rep.String()

	provider, ok := llm.ParseProvider(cfg.Provider)
	if !ok {
		logger.WithField("provider", cfg.Provider).Warn("unknown provider, using gemini")
	}
	chain := summarize.BuildChain(ctx, summarize.ChainConfig{
		Provider:   provider,
		Model:      cfg.Model,
		GeminiKey:  cfg.API.GeminiKey,
		OpenAIKey:  cfg.API.OpenAIKey,
		CLICommand: cfg.CLICommand,
		Hook:       cfg.Hook,
		Prompt: summarize.PromptConfig{
			File:   cfg.PromptFile,
			Custom: cfg.Prompt,
			Style:  cfg.PromptStyle,
		},
		GeminiBaseURL: cfg.API.GeminiBaseURL,
		OpenAIBaseURL: cfg.API.OpenAIBaseURL,
		LookPath:      d.LookPath,
	}, logger.WithField("component", "summarize"))

	pipeline := &summarize.Pipeline{
		Provider: provider,
		Backends: chain,
		Timeout:  cfg.SummaryTimeout,
		Logger:   logger.WithField("component", "summarize"),
	}
	summary := pipeline.Run(ctx, raw)

	outPath := cfg.Output
	if outPath == "" {
		outPath = sink.DefaultPath(cfg.OutputDir, start)
	}
	path, err := sink.Write(outPath, summary.Text)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Path:     path,
		Report:   rep,
		Summary:  summary,
		Window:   w,
		Scanned:  scanned,
		Duration: d.now().Sub(start),
	}
	logger.WithFields(logrus.Fields{
		"path":    path,
		"repos":   scanned,
		"active":  rep.RepoCount(),
		"backend": summary.Backend,
	}).Info("report written")

	if err := d.degrade(d.record(out, start), "failed to record run history"); err != nil {
		return nil, err
	}
	return out, nil
}

// degrade logs a non-fatal error and drops it; fatal errors pass through
func (d *Digest) degrade(err error, msg string) error {
	if err == nil || errors.IsFatal(err) {
		return err
	}
	d.logger().WithError(err).Warn(msg)
	return nil
}

func (d *Digest) record(out *Outcome, start time.Time) error {
	if d.History == nil {
		return nil
	}
	_, err := d.History.Record(history.Run{
		StartedAt:  start,
		Window:     out.Window.Describe(start),
		Author:     d.Config.Author,
		Repos:      out.Scanned,
		Active:     out.Report.RepoCount(),
		Backend:    out.Summary.Backend,
		OutputPath: out.Path,
		Duration:   out.Duration.Round(time.Millisecond).String(),
	})
	return err
}

func (d *Digest) remotes(cacheDir string, logger *logrus.Entry) *locator.Remotes {
	cfg := d.Config
	syncer := d.Syncer
	if syncer == nil {
		syncer = d.gitRunner()
	}
	resolver := d.Resolver
	if resolver == nil {
		resolver = locator.NewGitHubResolver(cfg.API.GitHubToken)
	}
	return &locator.Remotes{
		Syncer:      syncer,
		Resolver:    resolver,
		CacheDir:    cacheDir,
		Depth:       cfg.CloneDepth,
		Concurrency: cfg.Workers,
		Limiter:     rate.NewLimiter(rate.Limit(remoteRate), remoteRate),
		Logger:      logger.WithField("component", "remotes"),
	}
}

// cacheDir returns the remote clone cache. Without a configured directory
// a temporary one lives for the duration of the run.
func (d *Digest) cacheDir() (string, func(), error) {
	noop := func() {}
	if len(d.Config.Remotes) == 0 {
		return "", noop, nil
	}
	if d.Config.CacheDir != "" {
		if err := os.MkdirAll(d.Config.CacheDir, 0o755); err != nil {
			return "", noop, errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityLow, "create remote cache directory")
		}
		return d.Config.CacheDir, noop, nil
	}
	dir, err := os.MkdirTemp("", "gitdigest-remotes-")
	if err != nil {
		return "", noop, errors.Wrap(err, errors.ErrorTypeFileSystem, errors.SeverityLow, "create temporary remote cache")
	}
	return dir, func() { os.RemoveAll(dir) }, nil
}
