// Package summarize rewrites the raw activity report through an ordered
// chain of summarization backends, falling back to the raw text.
package summarize

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitdigest/internal/errors"
	"github.com/rohankatakam/gitdigest/internal/llm"
	"github.com/rohankatakam/gitdigest/internal/report"
)

// BackendNone marks a result that is the unsummarized report
const BackendNone = "none"

// DefaultTimeout bounds a single backend attempt
const DefaultTimeout = 90 * time.Second

// Backend turns the raw report into summarized text. An error or empty
// output counts as failure.
type Backend interface {
	Name() string
	Summarize(ctx context.Context, raw string) (string, error)
}

// Result is the pipeline output and the backend that produced it
type Result struct {
	Text    string
	Backend string
}

// Summarized reports whether a backend produced the text
func (r Result) Summarized() bool {
	return r.Backend != BackendNone
}

// Pipeline tries backends strictly in order
type Pipeline struct {
	Provider llm.Provider
	Backends []Backend
	Timeout  time.Duration
	Logger   *logrus.Entry
}

// Run returns the first non-empty backend output. The no-activity sentinel
// and a disabled provider short-circuit to the raw text without calling
// any backend. Exhausting every backend is not an error.
func (p *Pipeline) Run(ctx context.Context, raw string) Result {
	logger := p.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	if raw == report.NoActivity {
		logger.Debug("no activity, skipping summarization")
		return Result{Text: raw, Backend: BackendNone}
	}
	if p.Provider == llm.ProviderNone {
		logger.Debug("summarization disabled")
		return Result{Text: raw, Backend: BackendNone}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	for _, b := range p.Backends {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		text, err := p.attempt(ctx, b, raw, timeout)
		entry := logger.WithFields(logrus.Fields{
			"backend":  b.Name(),
			"duration": time.Since(start).Round(time.Millisecond),
		})
		if err != nil {
			entry.WithError(errors.SummarizationErrorf(err, "backend %s", b.Name())).Warn("summarization backend failed, trying next")
			continue
		}
		entry.Info("report summarized")
		return Result{Text: text, Backend: b.Name()}
	}

	if len(p.Backends) > 0 {
		logger.Warn("all summarization backends failed, writing raw report")
	} else {
		logger.Debug("no summarization backend configured, writing raw report")
	}
	return Result{Text: raw, Backend: BackendNone}
}

func (p *Pipeline) attempt(ctx context.Context, b Backend, raw string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := b.Summarize(ctx, raw)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyOutput
	}
	return text, nil
}

var errEmptyOutput = errors.New(errors.ErrorTypeSummarization, errors.SeverityMedium, "backend returned empty output")
