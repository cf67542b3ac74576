package locator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/gitdigest/internal/errors"
	"github.com/rohankatakam/gitdigest/internal/git"
)

// DefaultCloneDepth bounds the history fetched for a new remote clone
const DefaultCloneDepth = 50

// Syncer performs the network-facing git operations for remote caches
type Syncer interface {
	Clone(ctx context.Context, url, dest string, depth int) error
	Fetch(ctx context.Context, repoPath string) error
	Pull(ctx context.Context, repoPath string) error
}

// URLResolver turns an "owner/repo" shorthand into a clone URL
type URLResolver interface {
	Resolve(ctx context.Context, owner, name string) (string, error)
}

// Remotes materializes remote repositories into a local cache directory
type Remotes struct {
	Syncer      Syncer
	Resolver    URLResolver // optional
	CacheDir    string
	Depth       int
	Concurrency int
	Limiter     *rate.Limiter // paces network operations; nil = unlimited
	Logger      *logrus.Entry
}

// Materialize clones or updates every URL and returns the repositories that
// are ready to scan, in URL order. Per-URL failures are logged and skipped.
func (r *Remotes) Materialize(ctx context.Context, urls []string) []Repository {
	if len(urls) == 0 {
		return nil
	}

	logger := r.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	// Resolve targets first so that two URLs with the same basename never
	// race on one cache directory.
	type target struct {
		url  string
		dest string
	}
	targets := make([]*target, len(urls))
	claimed := make(map[string]string)
	for i, raw := range urls {
		url := r.resolveURL(ctx, raw, logger)
		name := RepoName(url)
		if name == "" {
			logger.WithField("url", raw).Warn("cannot derive repository name from remote, skipping")
			continue
		}
		dest := filepath.Join(r.CacheDir, name)
		if prev, ok := claimed[dest]; ok {
			logger.WithFields(logrus.Fields{"url": raw, "conflicts_with": prev}).
				Warn("remote maps to an already used cache path, skipping")
			continue
		}
		claimed[dest] = raw
		targets[i] = &target{url: url, dest: dest}
	}

	results := make([]*Repository, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for i, t := range targets {
		if t == nil {
			continue
		}
		g.Go(func() error {
			if err := r.sync(gctx, t.url, t.dest); err != nil {
				logger.WithFields(logrus.Fields{
					"url":   t.url,
					"error": err,
				}).Warn("remote repository unavailable, skipping")
				return nil
			}
			results[i] = &Repository{Path: t.dest, Name: filepath.Base(t.dest)}
			return nil
		})
	}
	_ = g.Wait()

	var repos []Repository
	for _, repo := range results {
		if repo != nil {
			repos = append(repos, *repo)
		}
	}
	return repos
}

// sync fetches and fast-forwards an existing clone, or makes a shallow one
func (r *Remotes) sync(ctx context.Context, url, dest string) error {
	if git.IsRepo(dest) {
		if err := r.wait(ctx); err != nil {
			return err
		}
		if err := r.Syncer.Fetch(ctx, dest); err != nil {
			return errors.NetworkErrorf(err, "fetch %s", url)
		}
		if err := r.Syncer.Pull(ctx, dest); err != nil {
			return errors.NetworkErrorf(err, "pull %s", url)
		}
		return nil
	}

	// Leftover from an interrupted clone: start over
	if _, err := os.Stat(dest); err == nil {
		if err := os.RemoveAll(dest); err != nil {
			return errors.NetworkErrorf(err, "clear stale cache %s", dest)
		}
	}

	if err := r.wait(ctx); err != nil {
		return err
	}
	depth := r.Depth
	if depth <= 0 {
		depth = DefaultCloneDepth
	}
	if err := r.Syncer.Clone(ctx, url, dest, depth); err != nil {
		return errors.NetworkErrorf(err, "clone %s", url)
	}
	return nil
}

func (r *Remotes) wait(ctx context.Context) error {
	if r.Limiter == nil {
		return ctx.Err()
	}
	if err := r.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (r *Remotes) resolveURL(ctx context.Context, raw string, logger *logrus.Entry) string {
	raw = strings.TrimSpace(raw)
	owner, name, ok := ParseShorthand(raw)
	if !ok {
		return raw
	}

	if r.Resolver != nil {
		url, err := r.Resolver.Resolve(ctx, owner, name)
		if err == nil && url != "" {
			return url
		}
		logger.WithError(err).WithField("repo", raw).Debug("github lookup failed, using default clone URL")
	}
	return BuildGitHubURL(owner, name)
}

var shorthandRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)/([A-Za-z0-9._-]+)$`)

// ParseShorthand recognizes "owner/repo" (no scheme, no leading slash)
func ParseShorthand(spec string) (owner, name string, ok bool) {
	m := shorthandRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

// BuildGitHubURL converts owner/repo to a GitHub HTTPS clone URL
func BuildGitHubURL(owner, name string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", owner, name)
}

// RepoName derives the cache directory name from a remote URL: the last
// path segment with any trailing ".git" removed. Works for HTTPS, SSH
// (git@host:owner/repo.git) and local paths.
func RepoName(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, ".git")
	url = strings.TrimRight(url, "/")

	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	if url == "" || url == "." || url == ".." {
		return ""
	}
	return url
}

// GitHubResolver looks up clone URLs through the GitHub API
type GitHubResolver struct {
	client  *github.Client
	timeout time.Duration
}

// NewGitHubResolver creates a resolver. An empty token uses anonymous
// access, which is enough for public repositories.
func NewGitHubResolver(token string) *GitHubResolver {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubResolver{client: client, timeout: 15 * time.Second}
}

// Resolve returns the repository's HTTPS clone URL
func (g *GitHubResolver) Resolve(ctx context.Context, owner, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	repo, _, err := g.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("fetch repository %s/%s: %w", owner, name, err)
	}
	return repo.GetCloneURL(), nil
}
