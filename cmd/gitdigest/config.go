package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/gitdigest/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration and manage stored credentials",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML (secrets masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg.Masked())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <" + keyNames() + ">",
	Short: "Store an API key or token in the OS keychain",
	Long: `Store a credential in the OS keychain. The secret is read from stdin
without echo, so it never lands in shell history.

Examples:
  gitdigest config set-key gemini
  echo "$OPENAI_API_KEY" | gitdigest config set-key openai`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := keyringItem(args[0])
		if err != nil {
			return err
		}

		km := config.NewKeyringManager()
		if !km.IsAvailable() {
			return fmt.Errorf("OS keychain is not available; set the key in the environment instead")
		}

		secret, err := config.ReadSecret(os.Stdin, cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		if err := km.Set(item, secret); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s to the OS keychain (%s)\n", args[0], config.MaskAPIKey(secret))
		return nil
	},
}

var configDeleteKeyCmd = &cobra.Command{
	Use:   "delete-key <" + keyNames() + ">",
	Short: "Remove a stored credential from the OS keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		item, err := keyringItem(args[0])
		if err != nil {
			return err
		}
		if err := config.NewKeyringManager().Delete(item); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Removed %s from the OS keychain\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetKeyCmd)
	configCmd.AddCommand(configDeleteKeyCmd)
}

func keyNames() string {
	names := make([]string, 0, len(config.KeyringItems))
	for name := range config.KeyringItems {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func keyringItem(name string) (string, error) {
	item, ok := config.KeyringItems[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("unknown key %q (expected %s)", name, keyNames())
	}
	return item, nil
}
