package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_NilPassesThrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeVCS, SeverityLow, "git log"))
}

func TestIsFatal(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"discovery", DiscoveryErrorf(cause, "root %s", "/x"), false},
		{"vcs", VCSErrorf(cause, "git log"), false},
		{"parse", ParseErrorf(cause, "count lines"), false},
		{"network", NetworkErrorf(cause, "clone"), false},
		{"summarization", SummarizationErrorf(cause, "backend hosted"), false},
		{"config", ConfigErrorf("unknown provider %q", "x"), false},
		{"report write", FileSystemErrorf(cause, "write report"), true},
		{"interrupted", Interrupted(context.Canceled, "run cancelled"), true},
		{"wrapped critical", fmt.Errorf("run: %w", FileSystemErrorf(cause, "write report")), true},
		{"wrapped degraded", fmt.Errorf("remote: %w", NetworkErrorf(cause, "fetch")), false},
		{"unclassified", cause, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("exit status 128")
	err := VCSErrorf(cause, "git status in %s", "repo")

	require.Error(t, err)
	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, &Error{Type: ErrorTypeVCS}))
	assert.False(t, stderrors.Is(err, &Error{Type: ErrorTypeNetwork}))
	assert.Equal(t, "git status in repo: exit status 128", err.Error())
}

func TestInterrupted_KeepsCause(t *testing.T) {
	err := Interrupted(context.Canceled, "run cancelled")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "run cancelled: context canceled", err.Error())
}
