package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rohankatakam/gitdigest/internal/errors"
)

// EnvPrefix namespaces environment variables (GITDIGEST_DAYS, ...)
const EnvPrefix = "GITDIGEST"

// Config holds all configuration settings
type Config struct {
	// Repository selection
	Repos    []string `yaml:"repos,omitempty"`
	Roots    []string `yaml:"roots,omitempty"`
	Remotes  []string `yaml:"remotes,omitempty"`
	Filter   string   `yaml:"filter,omitempty"`
	MountDir string   `yaml:"mount_dir"`

	// Window
	Days       int    `yaml:"days"`
	WindowMode string `yaml:"window_mode"`
	Author     string `yaml:"author,omitempty"`

	// Summarization
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model,omitempty"`
	Hook           string        `yaml:"hook,omitempty"`
	CLICommand     string        `yaml:"cli_command"`
	Prompt         string        `yaml:"prompt,omitempty"`
	PromptFile     string        `yaml:"prompt_file,omitempty"`
	PromptStyle    string        `yaml:"prompt_style,omitempty"`
	SummaryTimeout time.Duration `yaml:"summary_timeout"`

	// Output
	Output      string `yaml:"output,omitempty"`
	OutputDir   string `yaml:"output_dir"`
	HistoryPath string `yaml:"history_path"`

	// Scanning and remotes
	CacheDir   string        `yaml:"cache_dir,omitempty"`
	CloneDepth int           `yaml:"clone_depth"`
	Workers    int           `yaml:"workers"`
	GitTimeout time.Duration `yaml:"git_timeout"`

	// Diagnostics
	Debug     bool   `yaml:"debug"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file,omitempty"`

	API APIConfig `yaml:"api"`

	// Warnings collected while loading; reported by Validate
	loadWarnings []string
}

// APIConfig holds credentials and endpoint overrides
type APIConfig struct {
	GeminiKey     string `yaml:"gemini_key,omitempty"`
	OpenAIKey     string `yaml:"openai_key,omitempty"`
	GitHubToken   string `yaml:"github_token,omitempty"`
	GeminiBaseURL string `yaml:"gemini_base_url,omitempty"`
	OpenAIBaseURL string `yaml:"openai_base_url,omitempty"`
	UseKeychain   bool   `yaml:"use_keychain"`
}

// setting describes one config key and the plain environment names that
// override it, first non-empty wins
type setting struct {
	key  string
	envs []string
}

var settings = []setting{
	{"repos", []string{"REPOS"}},
	{"roots", []string{"REPO_ROOTS"}},
	{"remotes", []string{"REMOTE_REPOS"}},
	{"filter", []string{"REPO_FILTER"}},
	{"mount_dir", []string{"REPO_MOUNT"}},
	{"days", []string{"DAYS"}},
	{"window_mode", []string{"WINDOW_MODE"}},
	{"author", []string{"AUTHOR"}},
	{"provider", []string{"AI_PROVIDER"}},
	{"model", []string{"AI_MODEL"}},
	{"hook", []string{"AI_CMD"}},
	{"cli_command", []string{"AI_CLI"}},
	{"prompt", []string{"SUMMARY_PROMPT"}},
	{"prompt_file", []string{"SUMMARY_PROMPT_FILE"}},
	{"prompt_style", []string{"PROMPT_STYLE", "SUMMARY_STYLE"}},
	{"summary_timeout", []string{"SUMMARY_TIMEOUT"}},
	{"output", []string{"OUTPUT_FILE"}},
	{"output_dir", []string{"OUTPUT_DIR"}},
	{"history_path", []string{"HISTORY_DB"}},
	{"cache_dir", []string{"REPO_CACHE_DIR"}},
	{"clone_depth", []string{"CLONE_DEPTH"}},
	{"workers", []string{"SCAN_WORKERS"}},
	{"git_timeout", []string{"GIT_TIMEOUT"}},
	{"debug", []string{"DEBUG"}},
	{"log_format", []string{"LOG_FORMAT"}},
	{"log_file", []string{"LOG_FILE"}},
	{"api.gemini_key", []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}},
	{"api.openai_key", []string{"OPENAI_API_KEY"}},
	{"api.github_token", []string{"GITHUB_TOKEN", "GH_TOKEN"}},
	{"api.gemini_base_url", []string{"GEMINI_BASE_URL"}},
	{"api.openai_base_url", []string{"OPENAI_BASE_URL"}},
	{"api.use_keychain", []string{"USE_KEYCHAIN"}},
}

// Default returns default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		MountDir:       "/repos",
		Days:           1,
		WindowMode:     "rolling",
		Provider:       "gemini",
		CLICommand:     "gemini",
		SummaryTimeout: 90 * time.Second,
		OutputDir:      "reports",
		HistoryPath:    filepath.Join(homeDir, ".gitdigest", "history.db"),
		CloneDepth:     50,
		Workers:        runtime.NumCPU(),
		GitTimeout:     30 * time.Second,
		LogFormat:      "text",
		API: APIConfig{
			UseKeychain: true,
		},
	}
}

// LoadOptions selects the config file and the CLI flags that override it
type LoadOptions struct {
	ConfigFile string
	// Flags maps config keys to flags; only flags the user set take effect
	Flags map[string]*pflag.Flag
}

// Load reads configuration. Precedence, highest first: flags, environment
// (.env files included), config file, defaults. A malformed value never
// fails loading: it keeps the default and leaves a warning for Validate.
func Load(opts LoadOptions) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	for _, s := range settings {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(s.key, ".", "_"))}, s.envs...)
		if err := v.BindEnv(append([]string{s.key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", s.key, err)
		}
	}

	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(expandPath(opts.ConfigFile))
	} else {
		v.SetConfigName("gitdigest")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".gitdigest"))
	}

	var loadErr error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			loadErr = errors.ConfigErrorf("failed to read config %s: %v", v.ConfigFileUsed(), err)
		}
	}

	cfg.decode(v)
	cfg.resolveSecrets()
	return cfg, loadErr
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("mount_dir", cfg.MountDir)
	v.SetDefault("days", cfg.Days)
	v.SetDefault("window_mode", cfg.WindowMode)
	v.SetDefault("provider", cfg.Provider)
	v.SetDefault("cli_command", cfg.CLICommand)
	v.SetDefault("summary_timeout", cfg.SummaryTimeout.String())
	v.SetDefault("output_dir", cfg.OutputDir)
	v.SetDefault("history_path", cfg.HistoryPath)
	v.SetDefault("clone_depth", cfg.CloneDepth)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("git_timeout", cfg.GitTimeout.String())
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("api.use_keychain", cfg.API.UseKeychain)
}

// decode copies settings into cfg, falling back to the defaults already in
// cfg for malformed numbers and durations
func (c *Config) decode(v *viper.Viper) {
	c.Repos = stringList(v.Get("repos"))
	c.Roots = expandAll(stringList(v.Get("roots")))
	c.Remotes = stringList(v.Get("remotes"))
	c.Filter = strings.TrimSpace(v.GetString("filter"))
	c.MountDir = expandPath(v.GetString("mount_dir"))

	c.Days = c.intSetting(v, "days", c.Days)
	c.WindowMode = strings.TrimSpace(v.GetString("window_mode"))
	c.Author = strings.TrimSpace(v.GetString("author"))

	c.Provider = strings.ToLower(strings.TrimSpace(v.GetString("provider")))
	c.Model = strings.TrimSpace(v.GetString("model"))
	c.Hook = strings.TrimSpace(v.GetString("hook"))
	c.CLICommand = strings.TrimSpace(v.GetString("cli_command"))
	c.Prompt = v.GetString("prompt")
	c.PromptFile = v.GetString("prompt_file")
	c.PromptStyle = strings.TrimSpace(v.GetString("prompt_style"))
	c.SummaryTimeout = c.durationSetting(v, "summary_timeout", c.SummaryTimeout)

	c.Output = expandPath(v.GetString("output"))
	c.OutputDir = expandPath(v.GetString("output_dir"))
	c.HistoryPath = expandPath(v.GetString("history_path"))

	c.CacheDir = expandPath(v.GetString("cache_dir"))
	c.CloneDepth = c.intSetting(v, "clone_depth", c.CloneDepth)
	c.Workers = c.intSetting(v, "workers", c.Workers)
	c.GitTimeout = c.durationSetting(v, "git_timeout", c.GitTimeout)

	c.Debug = parseBool(v.GetString("debug"))
	c.LogFormat = strings.ToLower(strings.TrimSpace(v.GetString("log_format")))
	c.LogFile = expandPath(v.GetString("log_file"))

	c.API.GeminiKey = strings.TrimSpace(v.GetString("api.gemini_key"))
	c.API.OpenAIKey = strings.TrimSpace(v.GetString("api.openai_key"))
	c.API.GitHubToken = strings.TrimSpace(v.GetString("api.github_token"))
	c.API.GeminiBaseURL = strings.TrimSpace(v.GetString("api.gemini_base_url"))
	c.API.OpenAIBaseURL = strings.TrimSpace(v.GetString("api.openai_base_url"))
	c.API.UseKeychain = parseBool(v.GetString("api.use_keychain"))
}

// resolveSecrets fills credentials missing from env and config file from
// the OS keychain
func (c *Config) resolveSecrets() {
	if !c.API.UseKeychain {
		return
	}
	if c.API.GeminiKey != "" && c.API.OpenAIKey != "" && c.API.GitHubToken != "" {
		return
	}

	km := NewKeyringManager()
	if !km.IsAvailable() {
		return
	}
	fill := func(dst *string, item string) {
		if *dst != "" {
			return
		}
		if secret, err := km.Get(item); err == nil && secret != "" {
			*dst = secret
		}
	}
	fill(&c.API.GeminiKey, KeyringGeminiKeyItem)
	fill(&c.API.OpenAIKey, KeyringOpenAIKeyItem)
	fill(&c.API.GitHubToken, KeyringGitHubTokenItem)
}

func (c *Config) intSetting(v *viper.Viper, key string, def int) int {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.loadWarnings = append(c.loadWarnings, fmt.Sprintf("%s: %q is not a number, using %d", key, raw, def))
		return def
	}
	return n
}

func (c *Config) durationSetting(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Bare numbers are seconds
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	c.loadWarnings = append(c.loadWarnings, fmt.Sprintf("%s: %q is not a duration, using %s", key, raw, def))
	return def
}

// stringList accepts a YAML list or a comma-separated string
func stringList(raw interface{}) []string {
	var parts []string
	switch val := raw.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(val, ",")
	case []string:
		for _, s := range val {
			parts = append(parts, strings.Split(s, ",")...)
		}
	case []interface{}:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		parts = []string{fmt.Sprint(val)}
	}

	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func expandAll(paths []string) []string {
	for i, p := range paths {
		paths[i] = expandPath(p)
	}
	return paths
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
