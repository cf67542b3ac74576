package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Commit is one line of `git log --oneline`-style output
type Commit struct {
	ShortHash string
	Subject   string
}

// LogOptions restricts a commit log query
type LogOptions struct {
	Since  string // since-expression, passed verbatim to --since
	Author string // passed verbatim to --author; git treats it as a regex
}

// Runner is the version-control capability the scanner depends on
type Runner interface {
	Log(ctx context.Context, repoPath string, opts LogOptions) ([]Commit, error)
	Status(ctx context.Context, repoPath string) ([]FileChange, error)
	Diff(ctx context.Context, repoPath, file string) (string, error)
}

// DefaultTimeout bounds a single git invocation
const DefaultTimeout = 30 * time.Second

// WaitDelay is how long a cancelled command may hold its pipes open
const WaitDelay = 2 * time.Second

// ExecRunner runs the real git binary
type ExecRunner struct {
	Binary  string
	Timeout time.Duration
}

// NewExecRunner creates a runner for the git binary on PATH
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Binary: "git", Timeout: timeout}
}

// run executes git in dir with a per-invocation timeout. Interactive
// credential prompts are disabled so a missing credential fails fast.
func (r *ExecRunner) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := r.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_PAGER=cat")
	BoundToContext(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("git %s timed out after %s", args[0], timeout)
		}
		return nil, fmt.Errorf("git %s failed: %w (stderr: %s)", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// Log lists commits on all branches since opts.Since, newest first
func (r *ExecRunner) Log(ctx context.Context, repoPath string, opts LogOptions) ([]Commit, error) {
	args := []string{"log", "--all", "--no-color", "--pretty=format:%h %s"}
	if opts.Since != "" {
		args = append(args, "--since="+opts.Since)
	}
	if opts.Author != "" {
		args = append(args, "--author="+opts.Author)
	}

	out, err := r.run(ctx, repoPath, args...)
	if err != nil {
		// A repository with no commits yet has nothing to log
		if strings.Contains(err.Error(), "does not have any commits") {
			return nil, nil
		}
		return nil, err
	}

	return ParseOneline(string(out)), nil
}

// Status lists working-tree changes. An untracked directory is one entry,
// as in `git status --short`.
func (r *ExecRunner) Status(ctx context.Context, repoPath string) ([]FileChange, error) {
	out, err := r.run(ctx, repoPath, "status", "--porcelain=v1", "-z", "--untracked-files=normal")
	if err != nil {
		return nil, err
	}
	return ParsePorcelainZ(string(out)), nil
}

// Diff returns the zero-context diff between HEAD and the working tree for
// one file
func (r *ExecRunner) Diff(ctx context.Context, repoPath, file string) (string, error) {
	out, err := r.run(ctx, repoPath, "diff", "--no-color", "--no-ext-diff", "--unified=0", "HEAD", "--", file)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Clone performs a bounded-depth clone of url into dest
func (r *ExecRunner) Clone(ctx context.Context, url, dest string, depth int) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	args := []string{"clone", "--quiet", "--no-single-branch"}
	if depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", depth))
	}
	args = append(args, url, dest)

	_, err := r.run(ctx, filepath.Dir(dest), args...)
	return err
}

// Fetch updates all remote-tracking branches of an existing clone
func (r *ExecRunner) Fetch(ctx context.Context, repoPath string) error {
	_, err := r.run(ctx, repoPath, "fetch", "--quiet", "--all", "--prune")
	return err
}

// Pull fast-forwards the checked-out branch of an existing clone
func (r *ExecRunner) Pull(ctx context.Context, repoPath string) error {
	_, err := r.run(ctx, repoPath, "pull", "--quiet", "--ff-only")
	return err
}

// ParseOneline parses "<hash> <subject>" lines. Blank lines are dropped and
// a hash without a subject yields an empty Subject.
func ParseOneline(out string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, subject, _ := strings.Cut(line, " ")
		commits = append(commits, Commit{ShortHash: hash, Subject: subject})
	}
	return commits
}

// IsRepo reports whether path is a directory with git metadata. The
// metadata may be a directory or a gitdir file (worktrees, submodules).
func IsRepo(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
