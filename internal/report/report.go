// Package report renders scan results into the plain-text activity report.
package report

import (
	"fmt"
	"strings"

	"github.com/rohankatakam/gitdigest/internal/git"
	"github.com/rohankatakam/gitdigest/internal/scanner"
)

// NoActivity is the whole report when no repository contributed
const NoActivity = "No git activity in the selected window."

// Section is the report block for one repository
type Section struct {
	Name    string
	Commits []git.Commit
	Changes []git.FileChange
}

// Report is an ordered list of sections under a header
type Report struct {
	Header   string
	Sections []Section
}

// Build creates a report from scan results, keeping their order
func Build(header string, results []scanner.Result) Report {
	r := Report{Header: header}
	for _, res := range results {
		if !res.HasActivity() {
			continue
		}
		r.Sections = append(r.Sections, Section{
			Name:    res.Repo.Name,
			Commits: res.Commits,
			Changes: res.Changes,
		})
	}
	return r
}

// Header renders the first report line for a window description
func Header(describe string) string {
	return "Git activity for " + describe
}

// Empty reports whether no repository contributed
func (r Report) Empty() bool {
	return len(r.Sections) == 0
}

// RepoCount is the number of contributing repositories
func (r Report) RepoCount() int {
	return len(r.Sections)
}

// String serializes the report. An empty report is exactly NoActivity.
func (r Report) String() string {
	if r.Empty() {
		return NoActivity
	}

	var b strings.Builder
	if r.Header != "" {
		b.WriteString(r.Header)
		b.WriteString("\n")
	}
	for _, s := range r.Sections {
		b.WriteString("\n")
		s.write(&b)
	}
	return b.String()
}

func (s Section) write(b *strings.Builder) {
	fmt.Fprintf(b, "## %s\n", s.Name)

	if len(s.Commits) == 0 {
		b.WriteString("No commits in window.\n")
	} else {
		b.WriteString("Commits:\n")
		for _, c := range s.Commits {
			fmt.Fprintf(b, "- %s %s\n", c.ShortHash, c.Subject)
		}
	}

	if len(s.Changes) == 0 {
		b.WriteString("No uncommitted changes.\n")
		return
	}
	fmt.Fprintf(b, "Uncommitted changes: %d file(s)\n", len(s.Changes))
	for _, fc := range s.Changes {
		b.WriteString(FormatChange(fc))
		b.WriteString("\n")
	}
}

// FormatChange renders one changed-file line, e.g.
// "- [M] main.go: modified 12-14, added 20"
func FormatChange(fc git.FileChange) string {
	line := fmt.Sprintf("- [%s] %s", fc.ShortCode(), fc.Path)

	switch {
	case len(fc.Hunks) > 0:
		parts := make([]string, len(fc.Hunks))
		for i, h := range fc.Hunks {
			parts[i] = h.String()
		}
		line += ": " + strings.Join(parts, ", ")
	case fc.NewFile && fc.NewFileLines > 0:
		line += ": new file " + git.NewHunk(0, 0, 1, fc.NewFileLines).Range()
	case fc.NewFile:
		// Empty or unreadable: the line count is 0, so there is no range
		line += ": new file"
	}
	return line
}
