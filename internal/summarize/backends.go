package summarize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitdigest/internal/git"
	"github.com/rohankatakam/gitdigest/internal/llm"
)

// Backend names, in chain order
const (
	NameCLI    = "cli"
	NameHosted = "hosted"
	NameHook   = "hook"
	NameSDK    = "sdk"
)

// CommandBackend runs an external program with the raw report on stdin and
// takes its stdout as the summary
type CommandBackend struct {
	name string
	Path string
	Args []string
	Env  []string // appended to the process environment
}

// NewCLIBackend runs a locally installed summarizer binary
func NewCLIBackend(path string, args []string, env []string) *CommandBackend {
	return &CommandBackend{name: NameCLI, Path: path, Args: args, Env: env}
}

// NewHookBackend runs a user shell command through sh -c
func NewHookBackend(command string) *CommandBackend {
	return &CommandBackend{name: NameHook, Path: "sh", Args: []string{"-c", command}}
}

// Name identifies the backend in logs and results
func (b *CommandBackend) Name() string { return b.name }

// Summarize runs the command. A non-zero exit is a failure.
func (b *CommandBackend) Summarize(ctx context.Context, raw string) (string, error) {
	cmd := exec.CommandContext(ctx, b.Path, b.Args...)
	cmd.Stdin = strings.NewReader(raw)
	git.BoundToContext(cmd)
	if len(b.Env) > 0 {
		cmd.Env = append(os.Environ(), b.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", b.name, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("%s command failed: %w: %s", b.name, err, msg)
	}
	return stdout.String(), nil
}

// LLMBackend builds the summary prompt and sends it through a provider client
type LLMBackend struct {
	name      string
	completer llm.Completer
	prompt    PromptConfig
	logger    *logrus.Entry
}

// NewLLMBackend wraps a completer under the given chain name
func NewLLMBackend(name string, completer llm.Completer, prompt PromptConfig, logger *logrus.Entry) *LLMBackend {
	return &LLMBackend{name: name, completer: completer, prompt: prompt, logger: logger}
}

// Name identifies the backend in logs and results
func (b *LLMBackend) Name() string { return b.name }

// Summarize sends the prompt. Custom prompts go out as a single user message.
func (b *LLMBackend) Summarize(ctx context.Context, raw string) (string, error) {
	p := BuildPrompt(b.prompt, raw, b.logger)
	return b.completer.Complete(ctx, p.System, p.User)
}
