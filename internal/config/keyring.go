package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "gitdigest"

	// KeyringGeminiKeyItem holds the Gemini API key
	KeyringGeminiKeyItem = "gemini-api-key"

	// KeyringOpenAIKeyItem holds the OpenAI API key
	KeyringOpenAIKeyItem = "openai-api-key"

	// KeyringGitHubTokenItem holds the GitHub token
	KeyringGitHubTokenItem = "github-token"
)

// KeyringItems maps the names accepted by `config set-key` to keychain items
var KeyringItems = map[string]string{
	"gemini": KeyringGeminiKeyItem,
	"openai": KeyringOpenAIKeyItem,
	"github": KeyringGitHubTokenItem,
}

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *logrus.Entry
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: logrus.WithField("component", "keyring"),
	}
}

// Set stores a secret securely in OS keychain
// - macOS: Keychain Access.app → "gitdigest"
// - Windows: Credential Manager → "gitdigest"
// - Linux: Secret Service (requires libsecret)
func (km *KeyringManager) Set(item, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", item)
	}

	if err := keyring.Set(KeyringService, item, secret); err != nil {
		km.logger.WithError(err).WithField("item", item).Error("failed to save secret to keychain")
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}

	km.logger.WithField("item", item).Info("secret saved to keychain")
	return nil
}

// Get retrieves a secret. A missing item is not an error.
func (km *KeyringManager) Get(item string) (string, error) {
	secret, err := keyring.Get(KeyringService, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.WithError(err).WithField("item", item).Debug("failed to read secret from keychain")
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}

	km.logger.WithField("item", item).Debug("secret retrieved from keychain")
	return secret, nil
}

// Delete removes a secret from OS keychain
func (km *KeyringManager) Delete(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.WithError(err).WithField("item", item).Error("failed to delete secret from keychain")
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}

	km.logger.WithField("item", item).Info("secret deleted from keychain")
	return nil
}

// IsAvailable checks if OS keychain is available
// Returns false on headless systems (CI/CD) where keychain isn't available
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.WithError(err).Debug("keychain not available")
		return false
	}
	return true
}

// MaskAPIKey masks an API key for display
// Shows first 7 chars and last 4 chars: "sk-proj...abc123"
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
}
