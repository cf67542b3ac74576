package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/gitdigest/internal/errors"
)

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestRootCommand_WritesReportAndPrintsPath(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USE_KEYCHAIN", "false")
	t.Setenv("ENV_FILE", "")
	t.Chdir(t.TempDir())

	repo := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, os.MkdirAll(repo, 0755))
	gitCmd(t, repo, "init", "-q")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"), []byte("package main\n"), 0644))
	gitCmd(t, repo, "add", "main.go")
	gitCmd(t, repo, "commit", "-q", "-m", "initial commit")
	require.NoError(t, os.WriteFile(filepath.Join(repo, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0644))

	output := filepath.Join(t.TempDir(), "report.md")
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"--repos", repo, "--raw", "--output", output})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, output+"\n", stdout.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "Git activity for the last 24 hours"))
	assert.Contains(t, text, "## demo")
	assert.Contains(t, text, "initial commit")
	assert.Contains(t, text, "- [M] main.go: added 2-3")
}

func TestKeyringItem(t *testing.T) {
	item, err := keyringItem("Gemini")
	require.NoError(t, err)
	assert.Equal(t, "gemini-api-key", item)

	_, err = keyringItem("slack")
	assert.ErrorContains(t, err, "gemini|github|openai")
}

func TestExitCode(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name   string
		err    error
		code   int
		prefix string
	}{
		{"success", nil, 0, ""},
		{"report not written", errors.FileSystemErrorf(cause, "write report"), 1, "Error: "},
		{"interrupted", errors.Interrupted(context.Canceled, "run stopped"), 1, "Error: "},
		{"degraded", errors.NetworkErrorf(cause, "fetch origin"), 0, "Warning: "},
		{"unclassified", cause, 1, "Error: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.code, exitCode(tt.err, &stderr))
			assert.True(t, strings.HasPrefix(stderr.String(), tt.prefix))
		})
	}
}
