// Package locator resolves the set of repositories a run scans: explicit
// paths, repositories discovered under root directories, and remote URLs
// materialized into a local cache.
package locator

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Repository is one repository root to scan
type Repository struct {
	Path string
	Name string
}

// NewRepository builds a Repository named after the path's basename
func NewRepository(path string) Repository {
	return Repository{Path: path, Name: filepath.Base(filepath.Clean(path))}
}

// DefaultMountDir is where container deployments mount repositories
const DefaultMountDir = "/repos"

// Locator resolves repositories in priority order
type Locator struct {
	Paths    []string // explicit repository roots, used verbatim
	Roots    []string // discovery roots
	MountDir string   // implicit root when neither Paths nor Roots is set
	Defaults []string // last-resort discovery roots
	Remotes  []string // remote URLs or owner/repo shorthands
	Filter   string   // case-insensitive basename substring

	Remote *Remotes
	Logger *logrus.Entry
}

// Locate returns the repositories to scan. Local sources are tried in
// order and the first non-empty one wins; remotes are always appended.
// Nothing here fails the run: unusable sources are logged and skipped.
func (l *Locator) Locate(ctx context.Context) []Repository {
	logger := l.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	repos := l.local(logger)
	if l.Remote != nil && len(l.Remotes) > 0 {
		repos = append(repos, l.Remote.Materialize(ctx, l.Remotes)...)
	}

	repos = dedupe(repos)
	filtered := FilterByName(repos, l.Filter)
	if len(filtered) != len(repos) {
		logger.WithFields(logrus.Fields{
			"filter":   l.Filter,
			"kept":     len(filtered),
			"excluded": len(repos) - len(filtered),
		}).Debug("applied repository filter")
	}
	return filtered
}

func (l *Locator) local(logger *logrus.Entry) []Repository {
	if paths := nonEmpty(l.Paths); len(paths) > 0 {
		repos := make([]Repository, 0, len(paths))
		for _, p := range paths {
			repos = append(repos, NewRepository(p))
		}
		logger.WithField("count", len(repos)).Debug("using explicit repository list")
		return repos
	}

	if roots := nonEmpty(l.Roots); len(roots) > 0 {
		if repos := l.discoverAll(roots, logger); len(repos) > 0 {
			return repos
		}
	} else if l.MountDir != "" {
		if info, err := os.Stat(l.MountDir); err == nil && info.IsDir() {
			if repos := l.discoverAll([]string{l.MountDir}, logger); len(repos) > 0 {
				logger.WithField("mount_dir", l.MountDir).Debug("using implicit mount directory")
				return repos
			}
		}
	}

	var defaults []string
	for _, d := range nonEmpty(l.Defaults) {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			defaults = append(defaults, d)
		}
	}
	if len(defaults) > 0 {
		logger.WithField("roots", defaults).Debug("falling back to default discovery roots")
	}
	return l.discoverAll(defaults, logger)
}

func (l *Locator) discoverAll(roots []string, logger *logrus.Entry) []Repository {
	var repos []Repository
	for _, root := range roots {
		paths, err := Discover(root, logger)
		if err != nil {
			logger.WithError(err).WithField("root", root).Warn("skipping discovery root")
		}
		for _, p := range paths {
			repos = append(repos, NewRepository(p))
		}
	}
	return repos
}

// DefaultRoots is the built-in fallback: common checkout directories under
// the user's home. A deployment convenience only.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "code"),
		filepath.Join(home, "src"),
		filepath.Join(home, "projects"),
	}
}

// FilterByName keeps repositories whose basename contains filter, ignoring
// case. An empty filter keeps everything.
func FilterByName(repos []Repository, filter string) []Repository {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return repos
	}

	var out []Repository
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), filter) {
			out = append(out, r)
		}
	}
	return out
}

// SplitList splits a comma-separated config value, trimming blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(repos []Repository) []Repository {
	seen := make(map[string]bool, len(repos))
	out := repos[:0:0]
	for _, r := range repos {
		key := filepath.Clean(r.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
