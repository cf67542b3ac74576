package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ValidationResult holds validation results. Configuration problems never
// stop a run, so there are only warnings.
type ValidationResult struct {
	Warnings []string
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasWarnings returns true if there are any warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// Log writes each warning to logger
func (vr *ValidationResult) Log(logger *logrus.Entry) {
	for _, w := range vr.Warnings {
		logger.Warn(w)
	}
}

// Validate reports settings that will be normalized or ignored at run time
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}
	for _, w := range c.loadWarnings {
		result.AddWarning("%s", w)
	}

	if c.Days < 1 {
		result.AddWarning("days=%d is below 1, using 1", c.Days)
	}

	switch strings.ToLower(c.WindowMode) {
	case "rolling", "midnight", "":
	default:
		result.AddWarning("unknown window_mode %q, using rolling", c.WindowMode)
	}

	switch c.Provider {
	case "gemini", "":
		if c.API.GeminiKey == "" && c.Hook == "" {
			result.AddWarning("provider gemini has no API key (GEMINI_API_KEY) and no hook; the report will not be summarized")
		}
	case "openai":
		if c.API.OpenAIKey == "" && c.Hook == "" {
			result.AddWarning("provider openai has no API key (OPENAI_API_KEY) and no hook; the report will not be summarized")
		}
	case "none", "off", "disabled":
	default:
		result.AddWarning("unknown provider %q, using gemini", c.Provider)
	}

	switch c.LogFormat {
	case "text", "json", "":
	default:
		result.AddWarning("unknown log_format %q, using text", c.LogFormat)
	}

	if c.Workers < 1 {
		result.AddWarning("workers=%d is below 1, using one per CPU", c.Workers)
	}
	if c.CloneDepth < 1 {
		result.AddWarning("clone_depth=%d is below 1, using 50", c.CloneDepth)
	}

	return result
}
