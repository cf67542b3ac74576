package git

import (
	"strings"
)

// Status is the coarse classification of a porcelain status code
type Status string

const (
	StatusModified  Status = "modified"
	StatusAdded     Status = "added"
	StatusDeleted   Status = "deleted"
	StatusRenamed   Status = "renamed"
	StatusUntracked Status = "untracked"
	StatusOther     Status = "other"
)

// FileChange is one entry of the working-tree status listing
type FileChange struct {
	Path   string
	Code   string // raw two-letter porcelain code, e.g. " M", "A ", "??"
	Status Status
	Hunks  []Hunk
	// NewFileLines is set when an added file had no diff hunks and was
	// reported as a whole new file (0 when it could not be read).
	NewFileLines int
	NewFile      bool
}

// WantsDiff reports whether hunk extraction is attempted for this change
func (fc FileChange) WantsDiff() bool {
	switch fc.Status {
	case StatusModified, StatusAdded, StatusDeleted:
		return true
	}
	return false
}

// ShortCode is the trimmed porcelain code used in reports ("M", "A", "??")
func (fc FileChange) ShortCode() string {
	code := strings.TrimSpace(fc.Code)
	if code == "" {
		return "?"
	}
	return code
}

// ClassifyStatus maps an XY porcelain code to a Status. X is the index
// column, Y the worktree column.
func ClassifyStatus(code string) Status {
	if len(code) < 2 {
		return StatusOther
	}
	if code == "??" {
		return StatusUntracked
	}

	switch {
	case strings.ContainsRune(code, 'R') || strings.ContainsRune(code, 'C'):
		return StatusRenamed
	case strings.ContainsRune(code, 'A'):
		return StatusAdded
	case strings.ContainsRune(code, 'D'):
		return StatusDeleted
	case strings.ContainsRune(code, 'M') || strings.ContainsRune(code, 'T'):
		return StatusModified
	}
	return StatusOther
}

// ParsePorcelainZ parses `git status --porcelain=v1 -z` output. Entries are
// NUL-terminated; renames and copies carry the original path as an extra
// entry which is skipped, so Path is always the current path.
func ParsePorcelainZ(out string) []FileChange {
	var changes []FileChange

	entries := strings.Split(out, "\x00")
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if len(entry) < 4 {
			continue
		}

		code := entry[:2]
		path := entry[3:]
		if code[0] == 'R' || code[0] == 'C' {
			i++ // original path follows
		}

		changes = append(changes, FileChange{
			Path:   path,
			Code:   code,
			Status: ClassifyStatus(code),
		})
	}

	return changes
}
