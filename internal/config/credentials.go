package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Masked returns a copy of the configuration that is safe to print
func (c *Config) Masked() Config {
	out := *c
	out.loadWarnings = nil
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return MaskAPIKey(s)
	}
	out.API.GeminiKey = mask(c.API.GeminiKey)
	out.API.OpenAIKey = mask(c.API.OpenAIKey)
	out.API.GitHubToken = mask(c.API.GitHubToken)
	return out
}

// ReadSecret reads a password/token from in without echoing when in is a
// terminal, or one line from piped input otherwise
func ReadSecret(in *os.File, prompt io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		if prompt != nil {
			fmt.Fprint(prompt, "Enter secret: ")
		}
		bytes, err := term.ReadPassword(int(in.Fd()))
		if prompt != nil {
			fmt.Fprintln(prompt)
		}
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
