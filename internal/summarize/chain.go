package summarize

import (
	"context"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitdigest/internal/llm"
)

// DefaultCLICommand is the local summarizer looked up on PATH
const DefaultCLICommand = "gemini"

// ChainConfig holds what BuildChain needs to decide which backends exist
type ChainConfig struct {
	Provider   llm.Provider
	Model      string
	GeminiKey  string
	OpenAIKey  string
	CLICommand string
	Hook       string
	Prompt     PromptConfig

	// Endpoint overrides, empty for the public APIs
	GeminiBaseURL string
	OpenAIBaseURL string

	// LookPath finds the CLI binary; exec.LookPath when nil
	LookPath func(string) (string, error)
}

// BuildChain assembles the backends in their fixed order: local CLI,
// hosted request path, shell hook, SDK request path. Backends without the
// credentials or binaries they need are left out.
func BuildChain(ctx context.Context, cfg ChainConfig, logger *logrus.Entry) []Backend {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.Provider == llm.ProviderNone {
		return nil
	}

	model := cfg.Model
	if model == "" {
		model = llm.DefaultModel(cfg.Provider)
	}

	var chain []Backend
	if b := cliBackend(cfg, model, logger); b != nil {
		chain = append(chain, b)
	}
	if b := hostedBackend(cfg, model, logger); b != nil {
		chain = append(chain, b)
	}
	if hook := strings.TrimSpace(cfg.Hook); hook != "" {
		chain = append(chain, NewHookBackend(hook))
	}
	if b := sdkBackend(ctx, cfg, model, logger); b != nil {
		chain = append(chain, b)
	}

	names := make([]string, len(chain))
	for i, b := range chain {
		names[i] = b.Name()
	}
	logger.WithFields(logrus.Fields{
		"provider": cfg.Provider,
		"model":    model,
		"chain":    names,
	}).Debug("summarization chain assembled")

	return chain
}

func cliBackend(cfg ChainConfig, model string, logger *logrus.Entry) Backend {
	if cfg.Provider != llm.ProviderGemini || cfg.GeminiKey == "" {
		return nil
	}

	command := cfg.CLICommand
	if command == "" {
		command = DefaultCLICommand
	}
	lookPath := cfg.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(command)
	if err != nil {
		logger.WithField("command", command).Debug("summarizer CLI not installed")
		return nil
	}

	style := cfg.Prompt.withDefaultStyle(StyleClassic).Style
	return NewCLIBackend(path,
		[]string{"text", "--model", model, "--input", "-"},
		[]string{"GEMINI_API_KEY=" + cfg.GeminiKey, "AI_MODEL=" + model, "PROMPT_STYLE=" + style},
	)
}

func hostedBackend(cfg ChainConfig, model string, logger *logrus.Entry) Backend {
	var (
		client llm.Completer
		err    error
	)
	prompt := cfg.Prompt
	switch cfg.Provider {
	case llm.ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil
		}
		// The Gemini request path defaults to the structured template
		prompt = prompt.withDefaultStyle(StyleClassic)
		client, err = llm.NewGeminiRESTClient(cfg.GeminiKey, model, cfg.GeminiBaseURL, 0, logger)
	case llm.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil
		}
		client, err = llm.NewOpenAIClient(cfg.OpenAIKey, model, cfg.OpenAIBaseURL, logger)
	default:
		return nil
	}
	if err != nil {
		logger.WithError(err).Warn("hosted summarizer unavailable")
		return nil
	}
	return NewLLMBackend(NameHosted, client, prompt, logger)
}

func sdkBackend(ctx context.Context, cfg ChainConfig, model string, logger *logrus.Entry) Backend {
	var (
		client llm.Completer
		err    error
	)
	switch cfg.Provider {
	case llm.ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil
		}
		client, err = llm.NewGeminiClient(ctx, cfg.GeminiKey, model, cfg.GeminiBaseURL, logger)
	case llm.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil
		}
		client, err = llm.NewOpenAISDKClient(cfg.OpenAIKey, model, sdkBaseURL(cfg.OpenAIBaseURL), logger)
	default:
		return nil
	}
	if err != nil {
		logger.WithError(err).Warn("sdk summarizer unavailable")
		return nil
	}
	return NewLLMBackend(NameSDK, client, cfg.Prompt, logger)
}

// sdkBaseURL adds the trailing slash openai-go expects on base URLs
func sdkBaseURL(base string) string {
	if base == "" || strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}
