// Package sink writes the final report artifact.
package sink

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/rohankatakam/gitdigest/internal/errors"
)

// DefaultDir is where reports go when no output path is configured
const DefaultDir = "reports"

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

// DefaultPath returns <dir>/git-activity-<timestamp>.md
func DefaultPath(dir string, now time.Time) string {
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(dir, "git-activity-"+now.Format("20060102-150405")+".md")
}

// Write stores text at path atomically, creating parent directories, and
// returns the absolute path. Every failure is fatal for the run.
func Write(path, text string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.FileSystemErrorf(err, "resolve output path %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(abs), dirPerms); err != nil {
		return "", errors.FileSystemErrorf(err, "create output directory %s", filepath.Dir(abs))
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := atomic.WriteFile(abs, strings.NewReader(text)); err != nil {
		return "", errors.FileSystemErrorf(err, "write report %s", abs)
	}

	// atomic.WriteFile leaves new files with temp-file permissions
	if err := os.Chmod(abs, filePerms); err != nil {
		return "", errors.FileSystemErrorf(err, "set permissions on %s", abs)
	}
	return abs, nil
}
