package summarize

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Prompt styles
const (
	StyleClassic = "classic"
	StyleConcise = "concise"
)

// DefaultSystemPrompt is sent as the system message with the concise style
const DefaultSystemPrompt = "You are an expert at concise software progress summaries."

const classicPreface = `You are an expert technical writer. Produce a clean Markdown report with this exact structure:
# Git Activity Report

For each repository present in the input, include a section in this format:
## <RepositoryName>

### Recent Commits (Last N Days):
*   ` + "`<short_hash>`" + ` <commit_subject>
(one bullet per commit, keep subjects as-is; do not add extra commentary)

### Notable Uncommitted Changes:
*   None reported.  (if there are no uncommitted changes)
or list a few bullets summarizing real changes only.

Do not add generic text, disclaimers, or introductions beyond the above headings.`

const concisePreface = "Summarize the following git activity into a concise, well-structured Markdown report. " +
	"Group by repository, show key commits (bulleted), and note notable uncommitted changes. " +
	"Keep it action-focused and avoid boilerplate."

// PromptConfig selects the instruction text placed before the report
type PromptConfig struct {
	File   string // read relative to the working directory
	Custom string
	Style  string
}

// Prompt is a built prompt. Custom is true when the user supplied the
// instruction text, in which case no system message is sent.
type Prompt struct {
	System string
	User   string
	Custom bool
}

// BuildPrompt resolves the instruction text: prompt file, then custom
// prompt, then the built-in style.
func BuildPrompt(cfg PromptConfig, report string, logger *logrus.Entry) Prompt {
	if instr := readPromptFile(cfg.File, logger); instr != "" {
		return Prompt{User: instr + "\n\n" + report, Custom: true}
	}
	if instr := strings.TrimSpace(cfg.Custom); instr != "" {
		return Prompt{User: instr + "\n\n" + report, Custom: true}
	}

	// The classic template opens with its own role line
	if strings.EqualFold(strings.TrimSpace(cfg.Style), StyleClassic) {
		return Prompt{User: classicPreface + "\n\n" + report}
	}
	return Prompt{System: DefaultSystemPrompt, User: concisePreface + "\n\n" + report}
}

// withDefaultStyle fills an unset style
func (cfg PromptConfig) withDefaultStyle(style string) PromptConfig {
	if strings.TrimSpace(cfg.Style) == "" {
		cfg.Style = style
	}
	return cfg
}

func readPromptFile(path string, logger *logrus.Entry) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if !filepath.IsAbs(path) {
		if wd, err := os.Getwd(); err == nil {
			path = filepath.Join(wd, path)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.WithError(err).WithField("file", path).Warn("could not read prompt file, using default prompt")
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
