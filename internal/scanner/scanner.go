// Package scanner collects in-window commits and uncommitted changes for
// repositories, one independent result per repository.
package scanner

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/gitdigest/internal/errors"
	"github.com/rohankatakam/gitdigest/internal/git"
	"github.com/rohankatakam/gitdigest/internal/locator"
)

// Result is the activity found in one repository
type Result struct {
	Repo    locator.Repository
	Commits []git.Commit
	Changes []git.FileChange
}

// HasActivity reports whether the repository belongs in the report
func (r Result) HasActivity() bool {
	return len(r.Commits) > 0 || len(r.Changes) > 0
}

// Scanner queries repositories through a git.Runner
type Scanner struct {
	Runner  git.Runner
	Since   string
	Author  string
	Workers int
	Logger  *logrus.Entry
}

// New creates a scanner with one worker per CPU
func New(runner git.Runner, since, author string, logger *logrus.Entry) *Scanner {
	return &Scanner{
		Runner:  runner,
		Since:   since,
		Author:  author,
		Workers: runtime.NumCPU(),
		Logger:  logger,
	}
}

func (s *Scanner) logger() *logrus.Entry {
	if s.Logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return s.Logger
}

// Scan inspects one repository. It returns (nil, nil) when the path is not
// a repository or has no activity in the window. VCS failures also yield no
// result: the error is returned for logging and is never fatal.
func (s *Scanner) Scan(ctx context.Context, repo locator.Repository) (*Result, error) {
	if !git.IsRepo(repo.Path) {
		s.logger().WithField("repo", repo.Path).Debug("not a git repository, skipping")
		return nil, nil
	}

	commits, err := s.Runner.Log(ctx, repo.Path, git.LogOptions{Since: s.Since, Author: s.Author})
	if err != nil {
		return nil, errors.VCSErrorf(err, "git log in %s", repo.Name)
	}

	changes, err := s.Runner.Status(ctx, repo.Path)
	if err != nil {
		return nil, errors.VCSErrorf(err, "git status in %s", repo.Name)
	}

	if len(commits) == 0 && len(changes) == 0 {
		return nil, nil
	}

	for i := range changes {
		if !changes[i].WantsDiff() {
			continue
		}
		changes[i] = s.annotate(ctx, repo, changes[i])
	}

	// A result built while the run was being cancelled may be partial
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{Repo: repo, Commits: commits, Changes: changes}, nil
}

// annotate attaches hunks to a modified, added or deleted file. Added files
// without hunks are reported as a whole new file.
func (s *Scanner) annotate(ctx context.Context, repo locator.Repository, change git.FileChange) git.FileChange {
	diff, err := s.Runner.Diff(ctx, repo.Path, change.Path)
	if err != nil {
		// Typical for repositories without HEAD yet
		s.logger().WithFields(logrus.Fields{
			"repo":  repo.Name,
			"file":  change.Path,
			"error": err,
		}).Debug("diff unavailable")
	}

	change.Hunks = git.ParseHunks(diff)
	if len(change.Hunks) == 0 && change.Status == git.StatusAdded {
		lines, err := CountLines(filepath.Join(repo.Path, change.Path))
		if err != nil {
			s.logger().WithError(errors.ParseErrorf(err, "count lines of %s", change.Path)).Debug("new file not readable")
		}
		change.NewFile = true
		change.NewFileLines = lines
	}
	return change
}

// ScanAll scans repositories on a bounded worker pool. Results keep the
// input order and repositories without activity are dropped. Cancelling
// ctx stops scheduling new scans; the returned error is ctx.Err() then.
func (s *Scanner) ScanAll(ctx context.Context, repos []locator.Repository) ([]Result, error) {
	slots := make([]*Result, len(repos))

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, repo := range repos {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			result, err := s.Scan(gctx, repo)
			if err != nil {
				if gctx.Err() == nil {
					s.logger().WithFields(logrus.Fields{
						"repo":  repo.Name,
						"error": err,
					}).Warn("repository scan failed, omitting")
				}
				return nil
			}
			slots[i] = result
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []Result
	for _, r := range slots {
		if r != nil && r.HasActivity() {
			results = append(results, *r)
		}
	}
	return results, nil
}

// CountLines counts newline-terminated lines, plus a final unterminated one
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	buf := make([]byte, 32*1024)
	count := 0
	var last byte
	for {
		n, err := reader.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				count++
			}
		}
		if n > 0 {
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if last != 0 && last != '\n' {
		count++
	}
	return count, nil
}
