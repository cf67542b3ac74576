// Package window turns a (days, mode) pair into the boundary used by
// `git log --since`.
package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode selects how the window is anchored
type Mode string

const (
	// Rolling covers the last days*24 hours
	Rolling Mode = "rolling"
	// Midnight covers whole calendar days, starting at local midnight
	Midnight Mode = "midnight"
)

// Window is the resolved reporting window. Days is always >= 1.
type Window struct {
	Mode Mode
	Days int
}

// New normalizes days and mode. Days below 1 clamp to 1 and unknown modes
// fall back to Rolling.
func New(days int, mode string) Window {
	if days < 1 {
		days = 1
	}
	return Window{Mode: ParseMode(mode), Days: days}
}

// Parse is New for raw string input (env values, flags). Non-numeric days
// become 1.
func Parse(days, mode string) Window {
	n, err := strconv.Atoi(strings.TrimSpace(days))
	if err != nil {
		n = 1
	}
	return New(n, mode)
}

// ParseMode maps a config value to a Mode, defaulting to Rolling
func ParseMode(mode string) Mode {
	if Mode(strings.ToLower(strings.TrimSpace(mode))) == Midnight {
		return Midnight
	}
	return Rolling
}

// SinceTime returns the absolute lower boundary of the window relative to now
func (w Window) SinceTime(now time.Time) time.Time {
	days := w.Days
	if days < 1 {
		days = 1
	}

	if w.Mode == Midnight {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return midnight.AddDate(0, 0, -(days - 1))
	}
	return now.Add(-time.Duration(days*24) * time.Hour)
}

// Since returns the since-expression handed to git. It is the absolute
// boundary so that a fixed now always yields the same query.
func (w Window) Since(now time.Time) string {
	return w.SinceTime(now).Format(time.RFC3339)
}

// Relative returns the approxidate form of the boundary ("48 hours ago",
// "midnight", "midnight 2 days ago"). It is accepted by git as well but
// depends on the time git runs.
func (w Window) Relative() string {
	days := w.Days
	if days < 1 {
		days = 1
	}

	if w.Mode == Midnight {
		if days == 1 {
			return "midnight"
		}
		return fmt.Sprintf("midnight %d days ago", days-1)
	}
	return fmt.Sprintf("%d hours ago", days*24)
}

// Describe renders the report header phrase for this window
func (w Window) Describe(now time.Time) string {
	since := w.Since(now)

	if w.Mode == Midnight {
		if w.Days <= 1 {
			return fmt.Sprintf("today (since local midnight, %s)", since)
		}
		return fmt.Sprintf("the last %d calendar days (since %s)", w.Days, since)
	}

	hours := w.Days * 24
	if hours < 24 {
		hours = 24
	}
	return fmt.Sprintf("the last %d hours (since %s)", hours, since)
}
