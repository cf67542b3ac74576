package git

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// HunkKind classifies a hunk by which side of the diff is empty
type HunkKind string

const (
	HunkAdded    HunkKind = "added"
	HunkDeleted  HunkKind = "deleted"
	HunkModified HunkKind = "modified"
)

// Hunk is one parsed unified-diff hunk header
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Kind     HunkKind
}

// @@ -oldStart[,oldCount] +newStart[,newCount] @@ [section heading]
var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseHunkHeader parses a single hunk header line. Omitted counts default
// to 1. Returns false for anything that is not a well-formed header.
func ParseHunkHeader(line string) (Hunk, bool) {
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}

	oldStart, err := strconv.Atoi(m[1])
	if err != nil {
		return Hunk{}, false
	}
	oldCount, ok := optionalCount(m[2])
	if !ok {
		return Hunk{}, false
	}
	newStart, err := strconv.Atoi(m[3])
	if err != nil {
		return Hunk{}, false
	}
	newCount, ok := optionalCount(m[4])
	if !ok {
		return Hunk{}, false
	}

	return NewHunk(oldStart, oldCount, newStart, newCount), true
}

func optionalCount(s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NewHunk builds a classified hunk from header numbers
func NewHunk(oldStart, oldCount, newStart, newCount int) Hunk {
	return Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Kind:     Classify(oldCount, newCount),
	}
}

// Classify is a pure function of the two counts. An empty new side wins over
// an empty old side.
func Classify(oldCount, newCount int) HunkKind {
	switch {
	case newCount == 0:
		return HunkDeleted
	case oldCount == 0:
		return HunkAdded
	default:
		return HunkModified
	}
}

// Start is the first reported line. Deleted hunks report old-file lines,
// everything else reports new-file lines.
func (h Hunk) Start() int {
	if h.Kind == HunkDeleted {
		return h.OldStart
	}
	return h.NewStart
}

// End is Start + count - 1 on the reported side
func (h Hunk) End() int {
	if h.Kind == HunkDeleted {
		return h.OldStart + h.OldCount - 1
	}
	return h.NewStart + h.NewCount - 1
}

// Range renders "12-14", or "12" for a single line
func (h Hunk) Range() string {
	return formatRange(h.Start(), h.End())
}

// String renders "added 12-14"
func (h Hunk) String() string {
	return fmt.Sprintf("%s %s", h.Kind, h.Range())
}

func formatRange(start, end int) string {
	if end <= start {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// ParseHunks extracts every well-formed hunk header from a unified diff, in
// diff order. Malformed headers are skipped.
func ParseHunks(diff string) []Hunk {
	var hunks []Hunk

	scanner := bufio.NewScanner(strings.NewReader(diff))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "@@") {
			continue
		}
		if h, ok := ParseHunkHeader(line); ok {
			hunks = append(hunks, h)
		}
	}

	return hunks
}
