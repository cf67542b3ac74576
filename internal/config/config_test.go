package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

// isolate points HOME and the working directory at empty temp dirs so no
// real .env or config file leaks into the test
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ENV_FILE", "")
	t.Setenv("USE_KEYCHAIN", "false")
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Days)
	assert.Equal(t, "rolling", cfg.WindowMode)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "gemini", cfg.CLICommand)
	assert.Equal(t, "/repos", cfg.MountDir)
	assert.Equal(t, "reports", cfg.OutputDir)
	assert.Equal(t, 90*time.Second, cfg.SummaryTimeout)
	assert.Equal(t, 50, cfg.CloneDepth)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Repos)
	assert.False(t, cfg.API.UseKeychain)
}

func TestLoad_PlainEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DAYS", "7")
	t.Setenv("WINDOW_MODE", "midnight")
	t.Setenv("AUTHOR", "alice@example.com")
	t.Setenv("REPOS", "/src/a, /src/b,,")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("SUMMARY_TIMEOUT", "15")
	t.Setenv("GOOGLE_API_KEY", "g-fallback")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Days)
	assert.Equal(t, "midnight", cfg.WindowMode)
	assert.Equal(t, "alice@example.com", cfg.Author)
	assert.Equal(t, []string{"/src/a", "/src/b"}, cfg.Repos)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-env", cfg.API.OpenAIKey)
	assert.Equal(t, "g-fallback", cfg.API.GeminiKey)
	assert.Equal(t, 15*time.Second, cfg.SummaryTimeout)
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	isolate(t)
	t.Setenv("DAYS", "3")
	t.Setenv("GITDIGEST_DAYS", "5")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Days)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	yaml := `
repos:
  - /work/api
  - /work/web
remotes: "octo/cli, https://example.com/x.git"
days: 2
provider: none
git_timeout: 45s
api:
  gemini_key: g-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gitdigest.yaml"), []byte(yaml), 0644))

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"/work/api", "/work/web"}, cfg.Repos)
	assert.Equal(t, []string{"octo/cli", "https://example.com/x.git"}, cfg.Remotes)
	assert.Equal(t, 2, cfg.Days)
	assert.Equal(t, "none", cfg.Provider)
	assert.Equal(t, 45*time.Second, cfg.GitTimeout)
	assert.Equal(t, "g-file", cfg.API.GeminiKey)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: 2\nauthor: file\n"), 0644))
	t.Setenv("AUTHOR", "env")

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Days)
	assert.Equal(t, "env", cfg.Author)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPO_FILTER=api\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("REPO_FILTER") })

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Filter)
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: [unterminated\n"), 0644))

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 1, cfg.Days)
}

func TestLoad_MalformedNumbersKeepDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("DAYS", "seven")
	t.Setenv("SUMMARY_TIMEOUT", "soon")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Days)
	assert.Equal(t, 90*time.Second, cfg.SummaryTimeout)

	result := cfg.Validate()
	require.True(t, result.HasWarnings())
	assert.Contains(t, result.Warnings[0], "days")
	assert.Contains(t, result.Warnings[1], "summary_timeout")
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	isolate(t)
	t.Setenv("DAYS", "3")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("days", 1, "")
	fs.String("author", "", "")
	require.NoError(t, fs.Parse([]string{"--days", "9"}))

	t.Setenv("AUTHOR", "env-author")
	cfg, err := Load(LoadOptions{Flags: map[string]*pflag.Flag{
		"days":   fs.Lookup("days"),
		"author": fs.Lookup("author"),
	}})
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Days)
	// Unset flags do not shadow the environment
	assert.Equal(t, "env-author", cfg.Author)
}

func TestLoad_KeychainFillsMissingSecrets(t *testing.T) {
	isolate(t)
	keyring.MockInit()
	require.NoError(t, keyring.Set(KeyringService, KeyringGeminiKeyItem, "g-keychain"))
	require.NoError(t, keyring.Set(KeyringService, KeyringOpenAIKeyItem, "o-keychain"))
	t.Cleanup(keyring.MockInit)
	t.Setenv("USE_KEYCHAIN", "true")
	t.Setenv("OPENAI_API_KEY", "o-env")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "g-keychain", cfg.API.GeminiKey)
	assert.Equal(t, "o-env", cfg.API.OpenAIKey)
}

func TestLoad_KeychainDisabled(t *testing.T) {
	isolate(t)
	keyring.MockInit()
	require.NoError(t, keyring.Set(KeyringService, KeyringGeminiKeyItem, "g-keychain"))
	t.Cleanup(keyring.MockInit)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, cfg.API.GeminiKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"days below one", func(c *Config) { c.Days = 0 }, "days=0"},
		{"unknown mode", func(c *Config) { c.WindowMode = "weekly" }, "window_mode"},
		{"unknown provider", func(c *Config) { c.Provider = "claude" }, "unknown provider"},
		{"missing gemini key", func(c *Config) { c.API.GeminiKey = "" }, "GEMINI_API_KEY"},
		{"missing openai key", func(c *Config) { c.Provider = "openai" }, "OPENAI_API_KEY"},
		{"workers", func(c *Config) { c.Workers = 0 }, "workers=0"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.API.GeminiKey = "g"
			tt.mutate(cfg)
			result := cfg.Validate()
			require.True(t, result.HasWarnings())
			assert.Contains(t, result.Warnings[0], tt.want)
		})
	}
}

func TestValidate_CleanConfig(t *testing.T) {
	cfg := Default()
	cfg.Provider = "none"
	assert.False(t, cfg.Validate().HasWarnings())
}

func TestValidate_HookSatisfiesCredentials(t *testing.T) {
	cfg := Default()
	cfg.Hook = "cat"
	assert.False(t, cfg.Validate().HasWarnings())
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.API.GeminiKey = "AIzaSyExampleKey1234"
	cfg.API.OpenAIKey = ""

	masked := cfg.Masked()
	assert.Equal(t, "AIzaSyE...1234", masked.API.GeminiKey)
	assert.Empty(t, masked.API.OpenAIKey)
	assert.Equal(t, "AIzaSyExampleKey1234", cfg.API.GeminiKey)
}

func TestStringList(t *testing.T) {
	assert.Nil(t, stringList(nil))
	assert.Equal(t, []string{"a", "b"}, stringList(" a ,b"))
	assert.Equal(t, []string{"a", "b", "c"}, stringList([]string{"a,b", "c"}))
	assert.Equal(t, []string{"x", "1"}, stringList([]interface{}{"x", 1}))
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, "reports"), expandPath("~/reports"))
	assert.Equal(t, "/abs", expandPath("/abs"))
	assert.Equal(t, "", expandPath(""))
}
