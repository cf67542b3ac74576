package locator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitdigest/internal/errors"
)

// MaxDiscoveryDepth bounds how far below a root a .git entry is searched
const MaxDiscoveryDepth = 6

// Discover walks root and returns the parent of every .git entry found
// within MaxDiscoveryDepth levels, in lexical walk order. A found
// repository's .git directory is not descended into, but the working tree
// is, so nested repositories are reported too. Dependency and build trees
// are pruned only inside a repository's working tree; outside one, a
// directory named vendor or target is walked like any other.
func Discover(root string, logger *logrus.Entry) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.DiscoveryErrorf(err, "discovery root %s not found", root)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrorTypeDiscovery, errors.SeverityLow, fmt.Sprintf("discovery root %s is not a directory", root))
	}

	root = filepath.Clean(root)
	var repos []string
	worktrees := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: note it and keep walking the rest
			if logger != nil {
				logger.WithError(err).WithField("path", path).Debug("skipping unreadable path")
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		depth := pathDepth(root, path)

		if d.Name() == ".git" {
			repos = append(repos, filepath.Dir(path))
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name()) && insideWorktree(root, path, worktrees) {
				return filepath.SkipDir
			}
			if hasGitEntry(path) {
				worktrees[path] = true
			}
			// Entries of this directory would sit deeper than the bound
			if depth >= MaxDiscoveryDepth {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if walkErr != nil {
		return repos, errors.DiscoveryErrorf(walkErr, "walking %s", root)
	}

	return repos, nil
}

func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func hasGitEntry(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, ".git"))
	return err == nil
}

// insideWorktree reports whether an ancestor of path, up to and including
// root, is a repository already entered by the walk
func insideWorktree(root, path string, worktrees map[string]bool) bool {
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		if worktrees[dir] {
			return true
		}
		if dir == root || dir == filepath.Dir(dir) {
			return false
		}
	}
}

// shouldSkipDir names dependency and build trees that are pruned inside a
// repository's working tree
func shouldSkipDir(name string) bool {
	switch name {
	case "node_modules", "vendor", "venv", ".venv", "__pycache__",
		".cache", ".tox", ".pytest_cache", ".next", ".nuxt", "target":
		return true
	}
	return false
}
